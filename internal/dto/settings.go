package dto

import (
	"time"

	"github.com/noah-isme/course-registration-api/internal/models"
)

// DateWindow is an inclusive calendar window. Nil bounds mean "not configured".
type DateWindow struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Configured reports whether both bounds are set.
func (w DateWindow) Configured() bool {
	return w.Start != nil && w.End != nil
}

// Contains reports whether at falls inside the window.
func (w DateWindow) Contains(at time.Time) bool {
	if !w.Configured() {
		return false
	}
	return !at.Before(*w.Start) && !at.After(*w.End)
}

// RegistrationSettings is the resolved calendar and policy configuration.
type RegistrationSettings struct {
	RegistrationWindow DateWindow          `json:"registration_window"`
	WithdrawWindow     DateWindow          `json:"withdraw_window"`
	RetakePolicy       models.RetakePolicy `json:"retake_policy"`
}

// UpdateRegistrationSettingsRequest patches persisted settings. Empty fields are left unchanged.
type UpdateRegistrationSettingsRequest struct {
	RegistrationStart string `json:"registration_start" validate:"omitempty"`
	RegistrationEnd   string `json:"registration_end" validate:"omitempty"`
	WithdrawStart     string `json:"withdraw_start" validate:"omitempty"`
	WithdrawEnd       string `json:"withdraw_end" validate:"omitempty"`
	RetakePolicy      string `json:"retake_policy" validate:"omitempty,oneof=ALL_ATTEMPTS LATEST_ATTEMPT_ONLY all_attempts latest_attempt_only"`
}
