package types

// Category is a named grouping for jobs with a unique slug.
type Category struct {
	ID          int    `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Slug        string `json:"slug" db:"slug"`
	Description string `json:"description" db:"description"`

	// JobCount is the number of active jobs in the category, filled by listings.
	JobCount int `json:"job_count"`
}

// CategoryUsage reports how many jobs reference a category.
type CategoryUsage struct {
	CategoryID int `json:"category_id"`
	Count      int `json:"count"`
}
