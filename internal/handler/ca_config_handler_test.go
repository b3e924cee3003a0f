package handler

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-result-desk/internal/models"
	appErrors "github.com/noah-isme/sma-result-desk/pkg/errors"
)

type caConfigMock struct {
	state     models.CAConfigState
	slot      int
	value     float64
	dirty     bool
	saveErr   error
	forceSeen bool
}

func (m *caConfigMock) State() models.CAConfigState { return m.state }

func (m *caConfigMock) Set(slot int, value float64) (models.CAConfigState, error) {
	m.slot, m.value = slot, value
	if value > 40 {
		return models.CAConfigState{}, appErrors.Clone(appErrors.ErrValidation, "CA1 maximum must be between 0 and 40")
	}
	m.state.Limits = m.state.Limits.WithSlot(slot, value)
	m.dirty = true
	return m.state, nil
}

func (m *caConfigMock) Save(ctx context.Context) (models.CAConfigState, error) {
	if m.saveErr != nil {
		return m.state, m.saveErr
	}
	m.dirty = false
	m.state.Notice = &models.Notice{Kind: models.NoticeSuccess, Text: "CA configuration saved successfully!"}
	return m.state, nil
}

func (m *caConfigMock) Reset(ctx context.Context) models.CAConfigState { return m.state }

func (m *caConfigMock) ConfirmLeave(force bool) error {
	m.forceSeen = force
	if m.dirty && !force {
		return appErrors.ErrUnsavedChanges
	}
	return nil
}

func buildCAConfigRouter(cfg *caConfigMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewCAConfigHandler(cfg)
	router.GET("/ca-config", h.Get)
	router.PUT("/ca-config/slots/:slot", h.SetSlot)
	router.POST("/ca-config/save", h.Save)
	router.POST("/ca-config/leave", h.Leave)
	return router
}

func TestCAConfigHandlerSetSlotThenLeave(t *testing.T) {
	cfg := &caConfigMock{state: models.CAConfigState{Loaded: true, Limits: models.DefaultCALimits()}}
	router := buildCAConfigRouter(cfg)

	req, _ := http.NewRequest(http.MethodPut, "/ca-config/slots/2", bytes.NewReader([]byte(`{"value":15}`)))
	req.Header.Set("Content-Type", "application/json")
	w := performRequest(router, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, cfg.slot)
	assert.Equal(t, float64(15), cfg.value)

	req, _ = http.NewRequest(http.MethodPost, "/ca-config/leave", nil)
	w = performRequest(router, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	req, _ = http.NewRequest(http.MethodPost, "/ca-config/leave?force=true", nil)
	w = performRequest(router, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, cfg.forceSeen)
}

func TestCAConfigHandlerSetSlotRequiresValue(t *testing.T) {
	router := buildCAConfigRouter(&caConfigMock{})
	req, _ := http.NewRequest(http.MethodPut, "/ca-config/slots/1", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := performRequest(router, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCAConfigHandlerSetSlotOutOfRange(t *testing.T) {
	router := buildCAConfigRouter(&caConfigMock{})
	req, _ := http.NewRequest(http.MethodPut, "/ca-config/slots/1", bytes.NewReader([]byte(`{"value":41}`)))
	req.Header.Set("Content-Type", "application/json")
	w := performRequest(router, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCAConfigHandlerSaveShowsNotice(t *testing.T) {
	cfg := &caConfigMock{state: models.CAConfigState{Loaded: true}}
	router := buildCAConfigRouter(cfg)

	req, _ := http.NewRequest(http.MethodPost, "/ca-config/save", nil)
	w := performRequest(router, req)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Notice)
	assert.Equal(t, "CA configuration saved successfully!", env.Notice.Text)
}
