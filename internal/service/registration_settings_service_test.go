package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/pkg/config"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

func storeSetting(w *memoryWorld, key, value string) {
	w.configs[key] = models.Configuration{Key: key, Value: value}
}

func TestRegistrationSettingsDefaults(t *testing.T) {
	w := newMemoryWorld()
	svc := NewRegistrationSettingsService(configFake{w: w}, config.RegistrationConfig{}, nil, nil, nil)

	settings, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.False(t, settings.RegistrationWindow.Configured())
	assert.False(t, settings.WithdrawWindow.Configured())
	assert.Equal(t, models.DefaultRetakePolicy, settings.RetakePolicy)
	assert.Equal(t, "not configured", describeWindow(settings.RegistrationWindow))
}

func TestRegistrationSettingsStoredValuesOverrideDefaults(t *testing.T) {
	w := newMemoryWorld()
	storeSetting(w, models.SettingRegistrationStart, "2024-08-01")
	storeSetting(w, models.SettingRegistrationEnd, "2024-08-20")
	storeSetting(w, models.SettingRetakePolicy, "all_attempts")
	svc := NewRegistrationSettingsService(configFake{w: w}, openCalendar, nil, nil, nil)

	settings, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-08-01 to 2024-08-20", describeWindow(settings.RegistrationWindow))
	assert.Equal(t, "2024-03-01 to 2024-03-15", describeWindow(settings.WithdrawWindow))
	assert.Equal(t, models.RetakeAllAttempts, settings.RetakePolicy)
	assert.Equal(t, models.RetakeAllAttempts, svc.RetakePolicy(context.Background()))
}

func TestRegistrationWindowIsInclusiveOfEndDay(t *testing.T) {
	window, err := parseWindow("registration", "2024-08-01", "2024-08-20")
	require.NoError(t, err)

	assert.True(t, window.Contains(time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, window.Contains(time.Date(2024, time.August, 20, 23, 59, 0, 0, time.UTC)))
	assert.False(t, window.Contains(time.Date(2024, time.August, 21, 0, 0, 0, 0, time.UTC)))
	assert.False(t, window.Contains(time.Date(2024, time.July, 31, 23, 59, 0, 0, time.UTC)))
}

func TestParseWindowAcceptsTimestamps(t *testing.T) {
	window, err := parseWindow("withdraw", "2024-03-01T08:00:00Z", "2024-03-01T17:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 15, window.End.Hour())
	assert.False(t, window.Contains(time.Date(2024, time.March, 1, 16, 0, 0, 0, time.UTC)))
}

func TestParseWindowMisconfigured(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
		message    string
	}{
		{"missing end", "2024-01-01", "", "misconfigured calendar settings: registration window needs both start and end"},
		{"bad start", "01/01/2024", "2024-01-31", `misconfigured calendar settings: registration start "01/01/2024"`},
		{"bad end", "2024-01-01", "soon", `misconfigured calendar settings: registration end "soon"`},
		{"reversed", "2024-02-01", "2024-01-01", "misconfigured calendar settings: registration window ends before it starts"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseWindow("registration", tc.start, tc.end)
			assertAppError(t, err, appErrors.ErrBadRequest, tc.message)
		})
	}
}

func TestRegistrationSettingsUnknownPolicyFallsBack(t *testing.T) {
	w := newMemoryWorld()
	storeSetting(w, models.SettingRetakePolicy, "BEST_ATTEMPT")
	svc := NewRegistrationSettingsService(configFake{w: w}, config.RegistrationConfig{}, nil, nil, nil)

	assert.Equal(t, models.DefaultRetakePolicy, svc.RetakePolicy(context.Background()))
}

func TestRegistrationSettingsReadFailure(t *testing.T) {
	svc := NewRegistrationSettingsService(configFake{w: newMemoryWorld(), err: errors.New("db down")}, config.RegistrationConfig{}, nil, nil, nil)

	_, err := svc.Current(context.Background())
	assertAppError(t, err, appErrors.ErrInternal, "failed to load registration settings")
	assert.Equal(t, models.DefaultRetakePolicy, svc.RetakePolicy(context.Background()))
}

func TestRegistrationSettingsUpdate(t *testing.T) {
	w := newMemoryWorld()
	svc := NewRegistrationSettingsService(configFake{w: w}, openCalendar, auditFake{w: w}, nil, nil)
	admin := models.Actor{UserID: "admin-1", Role: models.RoleAdmin}

	settings, err := svc.Update(context.Background(), dto.UpdateRegistrationSettingsRequest{
		WithdrawStart: "2024-04-01",
		WithdrawEnd:   "2024-04-10",
		RetakePolicy:  "all_attempts",
	}, admin)
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01 to 2024-04-10", describeWindow(settings.WithdrawWindow))
	assert.Equal(t, "2024-01-01 to 2024-01-31", describeWindow(settings.RegistrationWindow))
	assert.Equal(t, models.RetakeAllAttempts, settings.RetakePolicy)

	stored := w.configs[models.SettingRetakePolicy]
	assert.Equal(t, "ALL_ATTEMPTS", stored.Value)
	assert.Equal(t, models.ConfigurationTypeEnum, stored.Type)
	require.NotNil(t, stored.UpdatedBy)
	assert.Equal(t, "admin-1", *stored.UpdatedBy)
	assert.Equal(t, models.ConfigurationTypeDate, w.configs[models.SettingWithdrawEnd].Type)
	assert.NotContains(t, w.configs, models.SettingRegistrationStart)
	assert.Equal(t, []string{models.AuditActionSettingsUpdate}, w.auditActions())
}

func TestRegistrationSettingsUpdateRejectsInvalidWindow(t *testing.T) {
	w := newMemoryWorld()
	svc := NewRegistrationSettingsService(configFake{w: w}, openCalendar, nil, nil, nil)
	admin := models.Actor{UserID: "admin-1", Role: models.RoleAdmin}

	_, err := svc.Update(context.Background(), dto.UpdateRegistrationSettingsRequest{RegistrationEnd: "2023-12-01"}, admin)
	assertAppError(t, err, appErrors.ErrBadRequest, "misconfigured calendar settings: registration window ends before it starts")
	assert.Empty(t, w.configs)
}

func TestRegistrationSettingsUpdateGuards(t *testing.T) {
	w := newMemoryWorld()
	svc := NewRegistrationSettingsService(configFake{w: w}, openCalendar, nil, nil, nil)

	_, err := svc.Update(context.Background(), dto.UpdateRegistrationSettingsRequest{RetakePolicy: "ALL_ATTEMPTS"}, models.Actor{UserID: "u", Role: models.RoleStudent})
	assertAppError(t, err, appErrors.ErrForbidden, "")

	admin := models.Actor{UserID: "admin-1", Role: models.RoleSuperAdmin}
	_, err = svc.Update(context.Background(), dto.UpdateRegistrationSettingsRequest{}, admin)
	assertAppError(t, err, appErrors.ErrBadRequest, "no settings provided")

	_, err = svc.Update(context.Background(), dto.UpdateRegistrationSettingsRequest{RetakePolicy: "BEST"}, admin)
	assertAppError(t, err, appErrors.ErrValidation, "")
}
