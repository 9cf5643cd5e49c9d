package types

import "time"

// Job represents a posting owned by exactly one employer account.
type Job struct {
	// ID is the unique identifier of the job.
	ID int `json:"id" db:"id"`

	// EmployerID identifies the user account that owns the posting.
	EmployerID int `json:"employer_id" db:"employer_id"`

	// CategoryID references the category the job is listed under.
	CategoryID int `json:"category_id" db:"category_id"`

	// Title is the human-readable job title.
	Title string `json:"title" db:"title"`

	// Slug is the unique URL identifier of the job.
	Slug string `json:"slug" db:"slug"`

	// Description contains the full job description.
	Description string `json:"description" db:"description"`

	// JobType is one of the JobType* codes.
	JobType string `json:"job_type" db:"job_type"`

	// Location is a free-form location string.
	Location string `json:"location" db:"location"`

	// SalaryMin and SalaryMax bound the advertised salary in whole currency units.
	// Zero means unspecified.
	SalaryMin int64 `json:"salary_min" db:"salary_min"`
	SalaryMax int64 `json:"salary_max" db:"salary_max"`

	// IsActive is false for postings hidden from the public catalogue.
	IsActive bool `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Joined, read-only fields populated by listing queries.
	CompanyName      string `json:"company_name,omitempty"`
	EmployerName     string `json:"employer_name,omitempty"`
	CategoryName     string `json:"category_name,omitempty"`
	CategorySlug     string `json:"category_slug,omitempty"`
	ApplicationCount int    `json:"application_count"`
}

// Supported job type codes.
const (
	JobTypeFullTime   = "FT"
	JobTypePartTime   = "PT"
	JobTypeContract   = "CT"
	JobTypeFreelance  = "FL"
	JobTypeInternship = "IN"
	JobTypeRemote     = "RM"
)

// JobTypeLabels maps job type codes to display labels.
var JobTypeLabels = map[string]string{
	JobTypeFullTime:   "Full-time",
	JobTypePartTime:   "Part-time",
	JobTypeContract:   "Contract",
	JobTypeFreelance:  "Freelance",
	JobTypeInternship: "Internship",
	JobTypeRemote:     "Remote",
}

// JobFilter narrows job listings.
type JobFilter struct {
	// Active restricts by is_active when non-nil.
	Active     *bool
	JobType    string
	CategoryID int
	// CategorySlug restricts by category slug when set.
	CategorySlug string
	EmployerID   int
	// Query is matched case-insensitively against title, description and location.
	Query string
}
