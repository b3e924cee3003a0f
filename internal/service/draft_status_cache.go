package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-result-desk/internal/models"
	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
)

type badgeStore interface {
	List(ctx context.Context) ([]models.DraftStatusBadge, error)
	Upsert(ctx context.Context, badge models.DraftStatusBadge) error
	Delete(ctx context.Context, courseID int64) error
	DeleteAll(ctx context.Context) error
}

type cacheMetrics interface {
	RecordCacheOperation(hit bool)
	RecordCacheWrite()
}

// DraftStatusCache is the process-wide, course-keyed badge store shared by
// the course list and the result editor. Reads are served from memory; the
// backing store only makes badges survive restarts. It is a hint and never
// overrides a fresh fetch.
type DraftStatusCache struct {
	store   badgeStore
	logger  *zap.Logger
	metrics cacheMetrics

	mu     sync.RWMutex
	badges map[int64]models.ResultStatus

	subMu   sync.Mutex
	subs    map[int]func(models.BadgeEvent)
	nextSub int
}

// NewDraftStatusCache constructs an empty cache over store.
func NewDraftStatusCache(store badgeStore, metrics cacheMetrics, logger *zap.Logger) *DraftStatusCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftStatusCache{
		store:   store,
		logger:  logger,
		metrics: metrics,
		badges:  make(map[int64]models.ResultStatus),
		subs:    make(map[int]func(models.BadgeEvent)),
	}
}

// Warm loads persisted badges into memory. Blank entries are skipped.
func (c *DraftStatusCache) Warm(ctx context.Context) error {
	stored, err := c.store.List(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load draft status badges")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range stored {
		if status := normalizeStatus(b.Status); status != models.StatusNone {
			c.badges[b.CourseID] = status
		}
	}
	c.logger.Info("draft status badges loaded", zap.Int("count", len(c.badges)))
	return nil
}

// Get returns the last known status. The boolean is false when unknown.
func (c *DraftStatusCache) Get(courseID int64) (models.ResultStatus, bool) {
	c.mu.RLock()
	status, ok := c.badges[courseID]
	c.mu.RUnlock()
	if c.metrics != nil {
		c.metrics.RecordCacheOperation(ok)
	}
	return status, ok
}

// Snapshot copies every known badge.
func (c *DraftStatusCache) Snapshot() map[int64]models.ResultStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int64]models.ResultStatus, len(c.badges))
	for id, status := range c.badges {
		out[id] = status
	}
	return out
}

// Set records status for a course, notifies subscribers synchronously and
// persists it. An empty status clears the badge. The in-memory value and the
// notification stand even when persisting fails.
func (c *DraftStatusCache) Set(ctx context.Context, courseID int64, status models.ResultStatus) error {
	status = normalizeStatus(status)
	if status == models.StatusNone {
		return c.Clear(ctx, courseID)
	}

	c.mu.Lock()
	c.badges[courseID] = status
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.RecordCacheWrite()
	}
	c.publish(models.BadgeEvent{CourseID: courseID, Status: status})

	badge := models.DraftStatusBadge{CourseID: courseID, Status: status, UpdatedAt: time.Now().UTC()}
	if err := c.store.Upsert(ctx, badge); err != nil {
		c.logger.Warn("failed to persist draft status badge", zap.Int64("course_id", courseID), zap.String("status", string(status)), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist draft status badge")
	}
	return nil
}

// Clear removes one course's badge.
func (c *DraftStatusCache) Clear(ctx context.Context, courseID int64) error {
	c.mu.Lock()
	delete(c.badges, courseID)
	c.mu.Unlock()
	c.publish(models.BadgeEvent{CourseID: courseID, Cleared: true})

	if err := c.store.Delete(ctx, courseID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear draft status badge")
	}
	return nil
}

// ClearAll removes every badge.
func (c *DraftStatusCache) ClearAll(ctx context.Context) error {
	c.mu.Lock()
	c.badges = make(map[int64]models.ResultStatus)
	c.mu.Unlock()
	c.publish(models.BadgeEvent{Cleared: true, All: true})

	if err := c.store.DeleteAll(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear draft status badges")
	}
	c.logger.Info("draft status badges cleared")
	return nil
}

// Subscribe registers fn for every badge change. Callbacks run on the
// writer's goroutine after the cache has been updated.
func (c *DraftStatusCache) Subscribe(fn func(models.BadgeEvent)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

func (c *DraftStatusCache) publish(event models.BadgeEvent) {
	c.subMu.Lock()
	subs := make([]func(models.BadgeEvent), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()
	for _, fn := range subs {
		fn(event)
	}
}

func normalizeStatus(status models.ResultStatus) models.ResultStatus {
	return models.ResultStatus(strings.TrimSpace(string(status)))
}
