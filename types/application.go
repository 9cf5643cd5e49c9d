package types

import "time"

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

// Supported application statuses. New applications start as Pending.
const (
	StatusPending  ApplicationStatus = "Pending"
	StatusReview   ApplicationStatus = "Review"
	StatusReviewed ApplicationStatus = "Reviewed"
	StatusAccepted ApplicationStatus = "Accepted"
	StatusRejected ApplicationStatus = "Rejected"
)

// Valid reports whether s is one of the supported statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReview, StatusReviewed, StatusAccepted, StatusRejected:
		return true
	default:
		return false
	}
}

// ResumeType identifies how a resume was supplied.
type ResumeType string

const (
	ResumePDF  ResumeType = "pdf"
	ResumeJSON ResumeType = "json"
	ResumeText ResumeType = "text"
)

// Application joins an applicant to a job.
// At most one application exists per (job, applicant) pair and per (job, email).
type Application struct {
	// ID is the unique identifier of the application.
	ID int `json:"id" db:"id"`

	// JobID identifies the job applied to.
	JobID int `json:"job_id" db:"job_id"`

	// ApplicantID identifies the applicant's account. Nil for anonymous applications.
	ApplicantID *int `json:"applicant_id" db:"applicant_id"`

	// ApplicantName and ApplicantEmail are recorded for every application.
	ApplicantName  string `json:"applicant_name" db:"applicant_name"`
	ApplicantEmail string `json:"applicant_email" db:"applicant_email"`

	// Status is the current review state.
	Status ApplicationStatus `json:"status" db:"status"`

	// ResumeType records which form the resume was supplied in.
	ResumeType ResumeType `json:"resume_type" db:"resume_type"`

	// ResumeText is the canonical text of the resume.
	ResumeText string `json:"resume_text" db:"resume_text"`

	// ResumeObjectKey is the object storage key of the archived upload, if any.
	ResumeObjectKey string `json:"resume_object_key,omitempty" db:"resume_object_key"`

	// CoverLetter is optional free text.
	CoverLetter string `json:"cover_letter" db:"cover_letter"`

	// ProfileSnapshot is the applicant's profile at submission time.
	// Nil for anonymous applications.
	ProfileSnapshot *ProfileSnapshot `json:"profile_snapshot,omitempty" db:"profile_snapshot"`

	// AppliedAt is assigned by the server at submission.
	AppliedAt time.Time `json:"applied_at" db:"applied_at"`
}

// ApplicationDetail is an application joined with its job and category,
// as returned by listings.
type ApplicationDetail struct {
	Application
	JobTitle     string `json:"job_title"`
	JobSlug      string `json:"job_slug"`
	CategoryName string `json:"category_name,omitempty"`
	CompanyName  string `json:"company_name,omitempty"`
}

// ApplicationFilter narrows admin application listings.
type ApplicationFilter struct {
	Status      ApplicationStatus
	CategoryID  int
	JobID       int
	ApplicantID int
}

// StatusChange describes a status transition to notify the applicant about.
type StatusChange struct {
	ApplicationID  int               `json:"application_id"`
	ApplicantName  string            `json:"applicant_name"`
	ApplicantEmail string            `json:"applicant_email"`
	JobTitle       string            `json:"job_title"`
	Status         ApplicationStatus `json:"status"`
}
