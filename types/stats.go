package types

import "time"

// DashboardStats is the admin dashboard payload.
type DashboardStats struct {
	Trend        []DailyCount   `json:"trend"`
	Distribution []NamedCount   `json:"distribution"`
	Activity     []ActivityItem `json:"activity"`
	Totals       Totals         `json:"stats"`
}

// DailyCount is the number of applications submitted on a day (YYYY-MM-DD).
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ActivityItem is a recent application shown on the dashboard.
type ActivityItem struct {
	Type   string    `json:"type"`
	ID     int       `json:"id"`
	User   string    `json:"user"`
	Target string    `json:"target"`
	Time   time.Time `json:"time"`
}

type Totals struct {
	ActiveJobs        int `json:"active_jobs"`
	TotalApplications int `json:"total_applications"`
	TotalEmployers    int `json:"total_employers"`
	TotalSeekers      int `json:"total_seekers"`
}
