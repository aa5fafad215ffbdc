package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/pkg/config"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type configurationRepository interface {
	ListByKeys(ctx context.Context, keys []string) ([]models.Configuration, error)
	BulkUpsert(ctx context.Context, cfgs []models.Configuration) error
}

var registrationSettingKeys = []string{
	models.SettingRegistrationStart,
	models.SettingRegistrationEnd,
	models.SettingWithdrawStart,
	models.SettingWithdrawEnd,
	models.SettingRetakePolicy,
}

var settingDescriptions = map[string]string{
	models.SettingRegistrationStart: "First day students may add and drop sections",
	models.SettingRegistrationEnd:   "Last day students may add and drop sections",
	models.SettingWithdrawStart:     "First day of the withdraw period",
	models.SettingWithdrawEnd:       "Last day of the withdraw period",
	models.SettingRetakePolicy:      "Which attempts of a retaken course count toward GPA",
}

var settingDateLayouts = []string{"2006-01-02", time.RFC3339}

// RetakePolicyListener is told about a stored change of the retake policy.
type RetakePolicyListener func(ctx context.Context, policy models.RetakePolicy)

// RegistrationSettingsService resolves calendar windows and the retake policy.
// Values are read from the configurations table on every call and fall back to
// the process configuration when a key was never stored.
type RegistrationSettingsService struct {
	repo           configurationRepository
	defaults       config.RegistrationConfig
	audit          sideEffects
	validator      *validator.Validate
	logger         *zap.Logger
	policyListener RetakePolicyListener
}

// NewRegistrationSettingsService constructs the service.
func NewRegistrationSettingsService(repo configurationRepository, defaults config.RegistrationConfig, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *RegistrationSettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationSettingsService{
		repo:      repo,
		defaults:  defaults,
		audit:     sideEffects{audit: audit, logger: logger},
		validator: validate,
		logger:    logger,
	}
}

// OnRetakePolicyChange registers fn to run after Update stores a different
// retake policy.
func (s *RegistrationSettingsService) OnRetakePolicyChange(fn RetakePolicyListener) {
	s.policyListener = fn
}

// Current returns the settings in force right now.
func (s *RegistrationSettingsService) Current(ctx context.Context) (*dto.RegistrationSettings, error) {
	raw, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolve(raw)
}

// RetakePolicy returns the configured policy, or the default when unset or unreadable.
func (s *RegistrationSettingsService) RetakePolicy(ctx context.Context) models.RetakePolicy {
	raw, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("falling back to default retake policy", zap.Error(err))
		return models.DefaultRetakePolicy
	}
	return s.retakePolicy(raw[models.SettingRetakePolicy])
}

// Update stores the provided settings. Empty fields keep their current value.
func (s *RegistrationSettingsService) Update(ctx context.Context, req dto.UpdateRegistrationSettingsRequest, actor models.Actor) (*dto.RegistrationSettings, error) {
	if !CanApprove(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators may change registration settings")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration settings payload")
	}

	raw, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	previousPolicy := s.retakePolicy(raw[models.SettingRetakePolicy])
	changes := map[string]string{
		models.SettingRegistrationStart: req.RegistrationStart,
		models.SettingRegistrationEnd:   req.RegistrationEnd,
		models.SettingWithdrawStart:     req.WithdrawStart,
		models.SettingWithdrawEnd:       req.WithdrawEnd,
		models.SettingRetakePolicy:      strings.ToUpper(req.RetakePolicy),
	}
	var entries []models.Configuration
	for _, key := range registrationSettingKeys {
		value := strings.TrimSpace(changes[key])
		if value == "" {
			continue
		}
		raw[key] = value
		entries = append(entries, s.entry(key, value, actor))
	}
	if len(entries) == 0 {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "no settings provided")
	}

	settings, err := s.resolve(raw)
	if err != nil {
		return nil, err
	}
	if err := s.repo.BulkUpsert(ctx, entries); err != nil {
		return nil, appErrors.Internal(err, "failed to store registration settings")
	}
	s.audit.record(ctx, actor, models.AuditActionSettingsUpdate, "registration_settings", "")
	if settings.RetakePolicy != previousPolicy && s.policyListener != nil {
		s.logger.Info("retake policy changed", zap.String("from", string(previousPolicy)), zap.String("to", string(settings.RetakePolicy)))
		s.policyListener(ctx, settings.RetakePolicy)
	}
	return settings, nil
}

func (s *RegistrationSettingsService) entry(key, value string, actor models.Actor) models.Configuration {
	description := settingDescriptions[key]
	cfgType := models.ConfigurationTypeDate
	if key == models.SettingRetakePolicy {
		cfgType = models.ConfigurationTypeEnum
	}
	entry := models.Configuration{Key: key, Value: value, Type: cfgType, Description: &description}
	if actor.UserID != "" {
		updatedBy := actor.UserID
		entry.UpdatedBy = &updatedBy
	}
	return entry
}

func (s *RegistrationSettingsService) load(ctx context.Context) (map[string]string, error) {
	raw := map[string]string{
		models.SettingRegistrationStart: s.defaults.RegistrationStart,
		models.SettingRegistrationEnd:   s.defaults.RegistrationEnd,
		models.SettingWithdrawStart:     s.defaults.WithdrawStart,
		models.SettingWithdrawEnd:       s.defaults.WithdrawEnd,
		models.SettingRetakePolicy:      s.defaults.RetakePolicy,
	}
	stored, err := s.repo.ListByKeys(ctx, registrationSettingKeys)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load registration settings")
	}
	for _, cfg := range stored {
		raw[cfg.Key] = strings.TrimSpace(cfg.Value)
	}
	return raw, nil
}

func (s *RegistrationSettingsService) resolve(raw map[string]string) (*dto.RegistrationSettings, error) {
	registration, err := parseWindow("registration", raw[models.SettingRegistrationStart], raw[models.SettingRegistrationEnd])
	if err != nil {
		return nil, err
	}
	withdraw, err := parseWindow("withdraw", raw[models.SettingWithdrawStart], raw[models.SettingWithdrawEnd])
	if err != nil {
		return nil, err
	}
	return &dto.RegistrationSettings{
		RegistrationWindow: registration,
		WithdrawWindow:     withdraw,
		RetakePolicy:       s.retakePolicy(raw[models.SettingRetakePolicy]),
	}, nil
}

func (s *RegistrationSettingsService) retakePolicy(raw string) models.RetakePolicy {
	if raw == "" {
		return models.DefaultRetakePolicy
	}
	policy, ok := models.ParseRetakePolicy(raw)
	if !ok {
		s.logger.Warn("unknown retake policy configured, using default", zap.String("value", raw))
		return models.DefaultRetakePolicy
	}
	return policy
}

// parseWindow turns stored bounds into a window. Both bounds empty means not
// configured; a date-only end covers the whole day.
func parseWindow(name, rawStart, rawEnd string) (dto.DateWindow, error) {
	if rawStart == "" && rawEnd == "" {
		return dto.DateWindow{}, nil
	}
	if rawStart == "" || rawEnd == "" {
		return dto.DateWindow{}, appErrors.Clonef(appErrors.ErrBadRequest, "misconfigured calendar settings: %s window needs both start and end", name)
	}
	start, _, err := parseSettingDate(rawStart)
	if err != nil {
		return dto.DateWindow{}, appErrors.Clonef(appErrors.ErrBadRequest, "misconfigured calendar settings: %s start %q", name, rawStart)
	}
	end, dateOnly, err := parseSettingDate(rawEnd)
	if err != nil {
		return dto.DateWindow{}, appErrors.Clonef(appErrors.ErrBadRequest, "misconfigured calendar settings: %s end %q", name, rawEnd)
	}
	if dateOnly {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	if end.Before(start) {
		return dto.DateWindow{}, appErrors.Clonef(appErrors.ErrBadRequest, "misconfigured calendar settings: %s window ends before it starts", name)
	}
	return dto.DateWindow{Start: &start, End: &end}, nil
}

func parseSettingDate(raw string) (time.Time, bool, error) {
	for i, layout := range settingDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), i == 0, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unsupported date %q", raw)
}

// describeWindow renders a window for error messages.
func describeWindow(w dto.DateWindow) string {
	if !w.Configured() {
		return "not configured"
	}
	return fmt.Sprintf("%s to %s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}
