package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/service"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type settingsServiceMock struct {
	currentErr error
	updated    dto.UpdateRegistrationSettingsRequest
}

func (m *settingsServiceMock) Current(ctx context.Context) (*dto.RegistrationSettings, error) {
	if m.currentErr != nil {
		return nil, m.currentErr
	}
	return &dto.RegistrationSettings{RetakePolicy: models.RetakeLatestAttemptOnly}, nil
}

func (m *settingsServiceMock) Update(ctx context.Context, req dto.UpdateRegistrationSettingsRequest, actor models.Actor) (*dto.RegistrationSettings, error) {
	m.updated = req
	return &dto.RegistrationSettings{RetakePolicy: models.RetakeAllAttempts}, nil
}

func TestSettingsHandlerGetMisconfigured(t *testing.T) {
	handler := NewSettingsHandler(&settingsServiceMock{currentErr: appErrors.Clone(appErrors.ErrBadRequest, "misconfigured calendar settings: registration window end before start")})
	c, w := newTestContext(http.MethodGet, "/admin/registration-settings", nil, adminActor())

	handler.Get(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsHandlerUpdate(t *testing.T) {
	svc := &settingsServiceMock{}
	handler := NewSettingsHandler(svc)
	c, w := newTestContext(http.MethodPut, "/admin/registration-settings", []byte(`{"retake_policy":"ALL_ATTEMPTS"}`), adminActor())

	handler.Update(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ALL_ATTEMPTS", svc.updated.RetakePolicy)
}

func TestMetricsHandlerReady(t *testing.T) {
	healthy := NewMetricsHandler(service.NewMetricsService(), map[string]Pinger{"postgres": pingStub{}})
	c, w := newTestContext(http.MethodGet, "/ready", nil, nil)
	healthy.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	degraded := NewMetricsHandler(nil, map[string]Pinger{"postgres": pingStub{}, "redis": pingStub{err: errBoom}})
	c, w = newTestContext(http.MethodGet, "/ready", nil, nil)
	degraded.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "boom")

	c, w = newTestContext(http.MethodGet, "/metrics", nil, nil)
	degraded.Prometheus(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
