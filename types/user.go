package types

import "time"

// User represents an account in the system.
// It contains identity, role, profile, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address. Unique, compared case-insensitively.
	Email string `json:"email" db:"email"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Role is the user's position in the role hierarchy
	// (applicant, employer, admin, superadmin, owner).
	Role string `json:"role" db:"role"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// IsActive is false for disabled accounts, which cannot authenticate.
	IsActive bool `json:"is_active" db:"is_active"`

	// Profile holds the contact, education, professional and company details.
	Profile

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Profile holds the free-form profile fields of an account.
type Profile struct {
	FirstName   string `json:"first_name" db:"first_name"`
	LastName    string `json:"last_name" db:"last_name"`
	Phone       string `json:"phone" db:"phone"`
	DateOfBirth string `json:"date_of_birth" db:"date_of_birth"`
	Address     string `json:"address" db:"address"`
	City        string `json:"city" db:"city"`
	State       string `json:"state" db:"state"`
	Country     string `json:"country" db:"country"`
	PostalCode  string `json:"postal_code" db:"postal_code"`

	HighestQualification string `json:"highest_qualification" db:"highest_qualification"`
	CollegeName          string `json:"college_name" db:"college_name"`
	Major                string `json:"major" db:"major"`
	GraduationYear       string `json:"graduation_year" db:"graduation_year"`
	GPA                  string `json:"gpa" db:"gpa"`

	YearsOfExperience string `json:"years_of_experience" db:"years_of_experience"`
	CurrentJobTitle   string `json:"current_job_title" db:"current_job_title"`
	LinkedIn          string `json:"linkedin" db:"linkedin"`
	Portfolio         string `json:"portfolio" db:"portfolio"`
	Skills            string `json:"skills" db:"skills"`

	// CompanyName, when set, marks the account as an employer in company listings.
	CompanyName string `json:"company_name" db:"company_name"`
	Description string `json:"description" db:"description"`
	Website     string `json:"website" db:"website"`
}

// Merge returns p with every non-empty field of patch applied.
// Empty fields in patch keep the stored value.
func (p Profile) Merge(patch Profile) Profile {
	set := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	set(&p.FirstName, patch.FirstName)
	set(&p.LastName, patch.LastName)
	set(&p.Phone, patch.Phone)
	set(&p.DateOfBirth, patch.DateOfBirth)
	set(&p.Address, patch.Address)
	set(&p.City, patch.City)
	set(&p.State, patch.State)
	set(&p.Country, patch.Country)
	set(&p.PostalCode, patch.PostalCode)
	set(&p.HighestQualification, patch.HighestQualification)
	set(&p.CollegeName, patch.CollegeName)
	set(&p.Major, patch.Major)
	set(&p.GraduationYear, patch.GraduationYear)
	set(&p.GPA, patch.GPA)
	set(&p.YearsOfExperience, patch.YearsOfExperience)
	set(&p.CurrentJobTitle, patch.CurrentJobTitle)
	set(&p.LinkedIn, patch.LinkedIn)
	set(&p.Portfolio, patch.Portfolio)
	set(&p.Skills, patch.Skills)
	set(&p.CompanyName, patch.CompanyName)
	set(&p.Description, patch.Description)
	set(&p.Website, patch.Website)
	return p
}

// ProfileSnapshot is the point-in-time copy of an applicant's profile stored
// with an application. Later profile edits never change it.
type ProfileSnapshot struct {
	UserID   int       `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	Profile  Profile   `json:"profile"`
	TakenAt  time.Time `json:"taken_at"`
}

// UserFilter narrows admin user listings.
type UserFilter struct {
	// Type is "employer", "seeker" or empty.
	Type string
	// Role restricts to a single role when set.
	Role string
	// Active restricts by is_active when non-nil.
	Active *bool
}

// Company is an employer account as shown in company listings.
type Company struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	Description string `json:"description"`
	Website     string `json:"website"`
	City        string `json:"city"`
	Country     string `json:"country"`
	OpenJobs    int    `json:"open_jobs"`
	TotalJobs   int    `json:"total_jobs"`
}
