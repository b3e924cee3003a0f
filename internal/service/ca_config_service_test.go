package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-result-desk/internal/models"
	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
)

type caConfigRepoStub struct {
	record    *models.CAConfigRecord
	fetchErr  error
	updateErr error
	updates   []models.CALimits
}

func (s *caConfigRepoStub) First(ctx context.Context) (*models.CAConfigRecord, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if s.record == nil {
		return nil, nil
	}
	rec := *s.record
	return &rec, nil
}

func (s *caConfigRepoStub) Update(ctx context.Context, id int64, limits models.CALimits) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates = append(s.updates, limits)
	v1, v2, v3, v4 := limits.CA1Max, limits.CA2Max, limits.CA3Max, limits.CA4Max
	s.record = &models.CAConfigRecord{ID: id, CASlot1Max: &v1, CASlot2Max: &v2, CASlot3Max: &v3, CASlot4Max: &v4}
	return nil
}

func floatPtr(v float64) *float64 { return &v }

func TestCAConfigManagerNotLoadedHasNoLimits(t *testing.T) {
	m := NewCAConfigManager(&caConfigRepoStub{}, nil, nil)
	assert.Nil(t, m.Limits())
	_, err := m.Set(1, 10)
	assert.ErrorIs(t, err, appErrors.ErrConfigNotLoaded)
}

func TestCAConfigManagerLoadFallsBackToDefaults(t *testing.T) {
	m := NewCAConfigManager(&caConfigRepoStub{}, nil, nil)
	state := m.Load(context.Background())
	assert.True(t, state.Loaded)
	assert.True(t, state.IsDefault)
	assert.False(t, state.Saved)
	assert.Nil(t, state.RecordID)
	assert.Equal(t, models.DefaultCALimits(), *m.Limits())

	_, err := m.Save(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)
}

func TestCAConfigManagerLoadFetchErrorUsesDefaults(t *testing.T) {
	m := NewCAConfigManager(&caConfigRepoStub{fetchErr: errors.New("boom")}, nil, nil)
	state := m.Load(context.Background())
	assert.True(t, state.Loaded)
	assert.True(t, state.IsDefault)
}

func TestCAConfigManagerNullSlotsFallBack(t *testing.T) {
	repo := &caConfigRepoStub{record: &models.CAConfigRecord{ID: 3, CASlot1Max: floatPtr(10), CASlot2Max: nil, CASlot3Max: floatPtr(0), CASlot4Max: floatPtr(15)}}
	m := NewCAConfigManager(repo, nil, nil)
	state := m.Load(context.Background())
	assert.Equal(t, models.CALimits{CA1Max: 10, CA2Max: 20, CA3Max: 20, CA4Max: 15}, state.Limits)
	assert.True(t, state.Saved)
	require.NotNil(t, state.RecordID)
	assert.Equal(t, int64(3), *state.RecordID)
}

func TestCAConfigManagerSetValidatesRange(t *testing.T) {
	m := NewCAConfigManager(&caConfigRepoStub{}, nil, nil)
	m.Load(context.Background())

	_, err := m.Set(2, 41)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	_, err = m.Set(5, 10)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	state, err := m.Set(2, 15)
	require.NoError(t, err)
	assert.True(t, state.Dirty)
	assert.Equal(t, float64(15), state.Limits.CA2Max)
}

func TestCAConfigManagerSaveSuccessClearsDirty(t *testing.T) {
	repo := &caConfigRepoStub{record: &models.CAConfigRecord{ID: 1}}
	m := NewCAConfigManager(repo, nil, nil)
	m.Load(context.Background())
	_, err := m.Set(1, 10)
	require.NoError(t, err)
	require.Error(t, m.ConfirmLeave(false))

	state, err := m.Save(context.Background())
	require.NoError(t, err)
	assert.False(t, state.Dirty)
	assert.True(t, state.Saved)
	require.NotNil(t, state.Notice)
	assert.Equal(t, "CA configuration saved successfully!", state.Notice.Text)
	require.Len(t, repo.updates, 1)
	assert.Equal(t, float64(10), repo.updates[0].CA1Max)
	assert.NoError(t, m.ConfirmLeave(false))
}

func TestCAConfigManagerSaveFailureKeepsEdits(t *testing.T) {
	repo := &caConfigRepoStub{record: &models.CAConfigRecord{ID: 1}}
	m := NewCAConfigManager(repo, nil, nil)
	m.Load(context.Background())
	_, err := m.Set(4, 5)
	require.NoError(t, err)

	repo.updateErr = errors.New("network down")
	state, err := m.Save(context.Background())
	require.Error(t, err)
	assert.True(t, state.Dirty)
	assert.Equal(t, float64(5), state.Limits.CA4Max)
	require.NotNil(t, state.Notice)
	assert.Equal(t, models.NoticeError, state.Notice.Kind)
	assert.Equal(t, "Failed to save CA configuration.", state.Notice.Text)
}

func TestCAConfigManagerNoticeExpires(t *testing.T) {
	repo := &caConfigRepoStub{record: &models.CAConfigRecord{ID: 1}}
	m := NewCAConfigManager(repo, nil, nil)
	current := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }
	m.Load(context.Background())

	state, err := m.Save(context.Background())
	require.NoError(t, err)
	require.NotNil(t, state.Notice)

	current = current.Add(3 * time.Second)
	assert.Nil(t, m.State().Notice)
}

func TestCAConfigManagerResetDiscardsEdits(t *testing.T) {
	repo := &caConfigRepoStub{record: &models.CAConfigRecord{ID: 1, CASlot1Max: floatPtr(12)}}
	m := NewCAConfigManager(repo, nil, nil)
	m.Load(context.Background())
	_, err := m.Set(1, 30)
	require.NoError(t, err)

	state := m.Reset(context.Background())
	assert.Equal(t, float64(12), state.Limits.CA1Max)
	assert.False(t, state.Dirty)
	assert.NoError(t, m.ConfirmLeave(false))
}

func TestCAConfigManagerForcedLeave(t *testing.T) {
	m := NewCAConfigManager(&caConfigRepoStub{}, nil, nil)
	m.Load(context.Background())
	_, err := m.Set(1, 10)
	require.NoError(t, err)

	err = m.ConfirmLeave(false)
	require.Error(t, err)
	assert.Equal(t, "You have unsaved CA configuration changes. Are you sure you want to leave?", appErrors.FromError(err).Message)
	assert.NoError(t, m.ConfirmLeave(true))
}
