package types

import "time"

// SettingType declares how a setting value is interpreted.
type SettingType string

const (
	SettingText    SettingType = "text"
	SettingBoolean SettingType = "boolean"
	SettingNumber  SettingType = "number"
)

// Setting is an admin-configurable key/value row.
type Setting struct {
	ID          int         `json:"id" db:"id"`
	Key         string      `json:"key" db:"key"`
	Value       string      `json:"value" db:"value"`
	Type        SettingType `json:"type" db:"type"`
	Category    string      `json:"category" db:"category"`
	Description string      `json:"description" db:"description"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
	UpdatedBy   *int        `json:"updated_by" db:"updated_by"`
}

// DefaultSettings are inserted by the settings seed when missing.
var DefaultSettings = []Setting{
	{Key: "site_name", Value: "Job Portal", Type: SettingText, Category: "general", Description: "The name of the website"},
	{Key: "site_description", Value: "Find your dream job", Type: SettingText, Category: "general", Description: "Meta description for SEO"},
	{Key: "contact_email", Value: "support@example.com", Type: SettingText, Category: "general", Description: "Public contact email"},
	{Key: "maintenance_mode", Value: "false", Type: SettingBoolean, Category: "general", Description: "Enable maintenance mode"},
	{Key: "enable_registrations", Value: "true", Type: SettingBoolean, Category: "features", Description: "Allow new users to sign up"},
	{Key: "require_email_verification", Value: "false", Type: SettingBoolean, Category: "features", Description: "Require email verification"},
	{Key: "job_approval_required", Value: "false", Type: SettingBoolean, Category: "jobs", Description: "Require admin approval for new jobs"},
	{Key: "max_jobs_per_employer", Value: "10", Type: SettingNumber, Category: "jobs", Description: "Max active jobs per employer"},
}
