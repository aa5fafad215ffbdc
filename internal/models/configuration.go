package models

import "time"

// ConfigurationType defines supported types for configuration values.
type ConfigurationType string

const (
	ConfigurationTypeString ConfigurationType = "STRING"
	ConfigurationTypeDate   ConfigurationType = "DATE"
	ConfigurationTypeEnum   ConfigurationType = "ENUM"
)

// Registration setting keys stored in the configurations table.
const (
	SettingRegistrationStart = "registration_start"
	SettingRegistrationEnd   = "registration_end"
	SettingWithdrawStart     = "withdraw_start"
	SettingWithdrawEnd       = "withdraw_end"
	SettingRetakePolicy      = "retake_policy"
)

// Configuration represents a persisted configuration entry.
type Configuration struct {
	Key         string            `db:"key" json:"key"`
	Value       string            `db:"value" json:"value"`
	Type        ConfigurationType `db:"type" json:"type"`
	Description *string           `db:"description" json:"description,omitempty"`
	UpdatedBy   *string           `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}
