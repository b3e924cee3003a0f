package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-result-desk/internal/models"
	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
)

const (
	caConfigSavedNotice  = "CA configuration saved successfully!"
	caConfigFailedNotice = "Failed to save CA configuration."
	defaultNoticeTTL     = 3 * time.Second
)

type caConfigRepository interface {
	First(ctx context.Context) (*models.CAConfigRecord, error)
	Update(ctx context.Context, id int64, limits models.CALimits) error
}

// CAConfigManager holds the four CA maxima, tracks unsaved edits, and keeps
// them in step with the remote ca_max record.
type CAConfigManager struct {
	repo      caConfigRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	noticeTTL time.Duration

	mu        sync.RWMutex
	recordID  *int64
	limits    models.CALimits
	loaded    bool
	saved     bool
	isDefault bool
	saving    bool
	revision  int
	savedRev  int
	notice    *models.Notice
	noticeAt  time.Time
}

// NewCAConfigManager constructs the manager in the not-loaded state.
func NewCAConfigManager(repo caConfigRepository, validate *validator.Validate, logger *zap.Logger) *CAConfigManager {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CAConfigManager{
		repo:      repo,
		validator: validate,
		logger:    logger,
		now:       time.Now,
		noticeTTL: defaultNoticeTTL,
		limits:    models.DefaultCALimits(),
	}
}

// Load fetches the first configuration record. Without one, or when the
// fetch fails, the defaults of 20 per slot are used and marked unsaved.
func (m *CAConfigManager) Load(ctx context.Context) models.CAConfigState {
	record, err := m.repo.First(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case err != nil:
		m.logger.Warn("failed to fetch CA configuration, using defaults", zap.Error(err))
		m.applyDefaultsLocked()
	case record == nil:
		m.logger.Info("no CA configuration found, using defaults")
		m.applyDefaultsLocked()
	default:
		id := record.ID
		m.recordID = &id
		m.limits = record.Limits()
		m.saved = true
		m.isDefault = false
	}
	m.loaded = true
	m.savedRev = m.revision
	return m.stateLocked()
}

func (m *CAConfigManager) applyDefaultsLocked() {
	m.recordID = nil
	m.limits = models.DefaultCALimits()
	m.saved = false
	m.isDefault = true
}

// Limits returns the active maxima, or nil until the configuration has loaded.
// Callers must skip validation when it is nil.
func (m *CAConfigManager) Limits() *models.CALimits {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.loaded {
		return nil
	}
	limits := m.limits
	return &limits
}

// State returns a snapshot; expired notices are dropped.
func (m *CAConfigManager) State() models.CAConfigState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

// Set changes one slot maximum locally and marks the configuration dirty.
func (m *CAConfigManager) Set(slot int, value float64) (models.CAConfigState, error) {
	if slot < 1 || slot > 4 {
		return models.CAConfigState{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("CA slot %d does not exist", slot))
	}
	if err := m.validator.Var(value, "gte=0,lte=40"); err != nil {
		return models.CAConfigState{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("CA%d maximum must be between 0 and 40", slot))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return models.CAConfigState{}, appErrors.ErrConfigNotLoaded
	}
	m.limits = m.limits.WithSlot(slot, value)
	m.revision++
	m.saved = false
	return m.stateLocked(), nil
}

// Save persists all four maxima to the existing record. Local edits survive
// a failed save.
func (m *CAConfigManager) Save(ctx context.Context) (models.CAConfigState, error) {
	m.mu.Lock()
	if m.recordID == nil {
		m.mu.Unlock()
		return m.State(), appErrors.Clone(appErrors.ErrPreconditionFailed, "no CA configuration record to update")
	}
	if err := m.validator.Struct(m.limits); err != nil {
		m.mu.Unlock()
		return m.State(), appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "CA maxima must be between 0 and 40")
	}
	id := *m.recordID
	limits := m.limits
	rev := m.revision
	m.saving = true
	m.mu.Unlock()

	err := m.repo.Update(ctx, id, limits)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.saving = false
	if err != nil {
		m.logger.Error("failed to save CA configuration", zap.Int64("record_id", id), zap.Error(err))
		m.setNoticeLocked(models.NoticeError, caConfigFailedNotice)
		return m.stateLocked(), remoteError(err, caConfigFailedNotice)
	}
	m.savedRev = rev
	m.saved = m.revision == rev
	m.isDefault = false
	m.setNoticeLocked(models.NoticeSuccess, caConfigSavedNotice)
	return m.stateLocked(), nil
}

// Reset discards local edits by reloading from the service.
func (m *CAConfigManager) Reset(ctx context.Context) models.CAConfigState {
	m.mu.Lock()
	m.saving = true
	m.mu.Unlock()

	state := m.Load(ctx)

	m.mu.Lock()
	m.saving = false
	state.Saving = false
	m.mu.Unlock()
	return state
}

// ConfirmLeave guards navigation away from the editor. With unsaved edits it
// refuses unless force is set.
func (m *CAConfigManager) ConfirmLeave(force bool) error {
	m.mu.RLock()
	dirty := m.dirtyLocked()
	m.mu.RUnlock()
	if dirty && !force {
		return appErrors.ErrUnsavedChanges
	}
	return nil
}

func (m *CAConfigManager) dirtyLocked() bool {
	return m.loaded && m.revision != m.savedRev
}

func (m *CAConfigManager) setNoticeLocked(kind models.NoticeKind, text string) {
	m.notice = &models.Notice{Kind: kind, Text: text}
	m.noticeAt = m.now()
}

func (m *CAConfigManager) stateLocked() models.CAConfigState {
	if m.notice != nil && m.now().Sub(m.noticeAt) >= m.noticeTTL {
		m.notice = nil
	}
	state := models.CAConfigState{
		Limits:    m.limits,
		Loaded:    m.loaded,
		Saved:     m.saved,
		Dirty:     m.dirtyLocked(),
		IsDefault: m.isDefault,
		Saving:    m.saving,
	}
	if m.recordID != nil {
		id := *m.recordID
		state.RecordID = &id
	}
	if m.notice != nil {
		n := *m.notice
		state.Notice = &n
	}
	return state
}
