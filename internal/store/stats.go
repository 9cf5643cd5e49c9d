package store

import (
	"context"
	"database/sql"

	"github.com/jobportal/apiserver/types"
)

const (
	trendDays         = 30
	topCategories     = 5
	recentActivityLen = 10
)

// StatsRepository answers the admin dashboard aggregate queries.
type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) Dashboard(ctx context.Context) (types.DashboardStats, error) {
	var (
		stats types.DashboardStats
		err   error
	)
	if stats.Trend, err = r.trend(ctx); err != nil {
		return types.DashboardStats{}, err
	}
	if stats.Distribution, err = r.distribution(ctx); err != nil {
		return types.DashboardStats{}, err
	}
	if stats.Activity, err = r.activity(ctx); err != nil {
		return types.DashboardStats{}, err
	}
	if stats.Totals, err = r.totals(ctx); err != nil {
		return types.DashboardStats{}, err
	}
	return stats, nil
}

// trend returns one entry per day for the last 30 days, zero-filled.
func (r *StatsRepository) trend(ctx context.Context) ([]types.DailyCount, error) {
	const query = `
		SELECT to_char(d.day, 'YYYY-MM-DD'), COUNT(a.id)
		FROM generate_series(CURRENT_DATE - ($1::int - 1), CURRENT_DATE, INTERVAL '1 day') AS d(day)
		LEFT JOIN applications a ON a.applied_at::date = d.day::date
		GROUP BY d.day
		ORDER BY d.day`
	rows, err := r.db.QueryContext(ctx, query, trendDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trend := make([]types.DailyCount, 0, trendDays)
	for rows.Next() {
		var c types.DailyCount
		if err := rows.Scan(&c.Date, &c.Count); err != nil {
			return nil, err
		}
		trend = append(trend, c)
	}
	return trend, rows.Err()
}

func (r *StatsRepository) distribution(ctx context.Context) ([]types.NamedCount, error) {
	const query = `
		SELECT c.name, COUNT(j.id)
		FROM categories c
		JOIN jobs j ON j.category_id = c.id AND j.is_active = TRUE
		GROUP BY c.id
		ORDER BY COUNT(j.id) DESC, c.name
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, topCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dist := make([]types.NamedCount, 0, topCategories)
	for rows.Next() {
		var c types.NamedCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, err
		}
		dist = append(dist, c)
	}
	return dist, rows.Err()
}

func (r *StatsRepository) activity(ctx context.Context) ([]types.ActivityItem, error) {
	const query = `
		SELECT a.id, a.applicant_name, j.title, a.applied_at
		FROM applications a
		JOIN jobs j ON j.id = a.job_id
		ORDER BY a.applied_at DESC, a.id DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, recentActivityLen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]types.ActivityItem, 0, recentActivityLen)
	for rows.Next() {
		item := types.ActivityItem{Type: "application"}
		if err := rows.Scan(&item.ID, &item.User, &item.Target, &item.Time); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *StatsRepository) totals(ctx context.Context) (types.Totals, error) {
	const query = `
		SELECT
			(SELECT COUNT(1) FROM jobs WHERE is_active = TRUE),
			(SELECT COUNT(1) FROM applications),
			(SELECT COUNT(1) FROM users WHERE role = 'employer' OR company_name <> ''),
			(SELECT COUNT(1) FROM users WHERE role = 'applicant')`
	var t types.Totals
	err := r.db.QueryRowContext(ctx, query).Scan(&t.ActiveJobs, &t.TotalApplications, &t.TotalEmployers, &t.TotalSeekers)
	return t, err
}
