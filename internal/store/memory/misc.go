package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

type SettingRepository struct {
	db *DB
}

func (r *SettingRepository) List(_ context.Context) ([]types.Setting, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	settings := make([]types.Setting, 0, len(r.db.settings))
	for _, s := range r.db.settings {
		settings = append(settings, s)
	}
	sort.Slice(settings, func(i, j int) bool {
		if settings[i].Category != settings[j].Category {
			return settings[i].Category < settings[j].Category
		}
		return settings[i].Key < settings[j].Key
	})
	return settings, nil
}

func (r *SettingRepository) Get(_ context.Context, key string) (types.Setting, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.settings[key]
	if !ok {
		return types.Setting{}, store.ErrNotFound
	}
	return s, nil
}

func (r *SettingRepository) UpdateValue(_ context.Context, key, value string, updatedBy int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.settings[key]
	if !ok {
		return store.ErrNotFound
	}
	s.Value = value
	s.UpdatedAt = time.Now()
	s.UpdatedBy = &updatedBy
	r.db.settings[key] = s
	return nil
}

func (r *SettingRepository) InsertIfMissing(_ context.Context, s types.Setting) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.settings[s.Key]; ok {
		return false, nil
	}
	s.ID = r.db.id()
	s.UpdatedAt = time.Now()
	r.db.settings[s.Key] = s
	return true, nil
}

type NewsletterRepository struct {
	db *DB
}

func (r *NewsletterRepository) Subscribe(_ context.Context, email string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := strings.ToLower(email)
	if _, ok := r.db.subscribers[key]; ok {
		return false, nil
	}
	r.db.subscribers[key] = time.Now()
	return true, nil
}

type StatsRepository struct {
	db *DB
}

func (r *StatsRepository) Dashboard(_ context.Context) (types.DashboardStats, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var stats types.DashboardStats

	today := time.Now().Truncate(24 * time.Hour)
	perDay := make(map[string]int)
	for _, app := range r.db.applications {
		perDay[app.AppliedAt.Format(time.DateOnly)]++
	}
	for i := 29; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format(time.DateOnly)
		stats.Trend = append(stats.Trend, types.DailyCount{Date: day, Count: perDay[day]})
	}

	perCategory := make(map[int]int)
	for _, job := range r.db.jobs {
		if job.IsActive {
			perCategory[job.CategoryID]++
			stats.Totals.ActiveJobs++
		}
	}
	for id, n := range perCategory {
		stats.Distribution = append(stats.Distribution, types.NamedCount{Name: r.db.categories[id].Name, Count: n})
	}
	sort.Slice(stats.Distribution, func(i, j int) bool {
		if stats.Distribution[i].Count != stats.Distribution[j].Count {
			return stats.Distribution[i].Count > stats.Distribution[j].Count
		}
		return stats.Distribution[i].Name < stats.Distribution[j].Name
	})
	if len(stats.Distribution) > 5 {
		stats.Distribution = stats.Distribution[:5]
	}

	apps := make([]types.Application, 0, len(r.db.applications))
	for _, app := range r.db.applications {
		apps = append(apps, app)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].ID > apps[j].ID })
	for i, app := range apps {
		if i == 10 {
			break
		}
		stats.Activity = append(stats.Activity, types.ActivityItem{
			Type:   "application",
			ID:     app.ID,
			User:   app.ApplicantName,
			Target: r.db.jobs[app.JobID].Title,
			Time:   app.AppliedAt,
		})
	}

	stats.Totals.TotalApplications = len(r.db.applications)
	for _, u := range r.db.users {
		if isCompany(u) {
			stats.Totals.TotalEmployers++
		}
		if u.Role == "applicant" {
			stats.Totals.TotalSeekers++
		}
	}
	return stats, nil
}
