package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

type ApplicationRepository struct {
	db *DB
}

func (r *ApplicationRepository) detailLocked(app types.Application) types.ApplicationDetail {
	detail := types.ApplicationDetail{Application: app}
	if job, ok := r.db.jobs[app.JobID]; ok {
		detail.JobTitle = job.Title
		detail.JobSlug = job.Slug
		if c, ok := r.db.categories[job.CategoryID]; ok {
			detail.CategoryName = c.Name
		}
		if u, ok := r.db.users[job.EmployerID]; ok {
			detail.CompanyName = u.CompanyName
		}
	}
	return detail
}

func (r *ApplicationRepository) Create(_ context.Context, app types.Application) (types.Application, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.jobs[app.JobID]; !ok {
		return types.Application{}, store.ErrReferenced
	}
	for _, other := range r.db.applications {
		if other.JobID != app.JobID {
			continue
		}
		if strings.EqualFold(other.ApplicantEmail, app.ApplicantEmail) {
			return types.Application{}, store.ErrConflict
		}
		if app.ApplicantID != nil && other.ApplicantID != nil && *app.ApplicantID == *other.ApplicantID {
			return types.Application{}, store.ErrConflict
		}
	}
	if app.Status == "" {
		app.Status = types.StatusPending
	}
	app.ID = r.db.id()
	r.db.applications[app.ID] = app
	return app, nil
}

func (r *ApplicationRepository) Get(_ context.Context, id int) (types.ApplicationDetail, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	app, ok := r.db.applications[id]
	if !ok {
		return types.ApplicationDetail{}, store.ErrNotFound
	}
	return r.detailLocked(app), nil
}

func (r *ApplicationRepository) List(_ context.Context, filter types.ApplicationFilter) ([]types.ApplicationDetail, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	apps := make([]types.ApplicationDetail, 0)
	for _, app := range r.db.applications {
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		if filter.JobID > 0 && app.JobID != filter.JobID {
			continue
		}
		if filter.ApplicantID > 0 && (app.ApplicantID == nil || *app.ApplicantID != filter.ApplicantID) {
			continue
		}
		if filter.CategoryID > 0 && r.db.jobs[app.JobID].CategoryID != filter.CategoryID {
			continue
		}
		apps = append(apps, r.detailLocked(app))
	}
	sort.Slice(apps, func(i, j int) bool {
		if !apps[i].AppliedAt.Equal(apps[j].AppliedAt) {
			return apps[i].AppliedAt.After(apps[j].AppliedAt)
		}
		return apps[i].ID > apps[j].ID
	})
	return apps, nil
}

func (r *ApplicationRepository) UpdateStatus(_ context.Context, ids []int, status types.ApplicationStatus) ([]int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	updated := make([]int, 0, len(ids))
	for _, id := range sortedIDs(idSet(ids)) {
		app, ok := r.db.applications[id]
		if !ok {
			continue
		}
		app.Status = status
		r.db.applications[id] = app
		updated = append(updated, id)
	}
	return updated, nil
}

func (r *ApplicationRepository) Delete(_ context.Context, ids []int) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	deleted := 0
	for id := range idSet(ids) {
		if _, ok := r.db.applications[id]; ok {
			delete(r.db.applications, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *ApplicationRepository) StatusChanges(_ context.Context, ids []int) ([]types.StatusChange, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	changes := make([]types.StatusChange, 0, len(ids))
	for _, id := range sortedIDs(idSet(ids)) {
		app, ok := r.db.applications[id]
		if !ok {
			continue
		}
		changes = append(changes, types.StatusChange{
			ApplicationID:  app.ID,
			ApplicantName:  app.ApplicantName,
			ApplicantEmail: app.ApplicantEmail,
			JobTitle:       r.db.jobs[app.JobID].Title,
			Status:         app.Status,
		})
	}
	return changes, nil
}
