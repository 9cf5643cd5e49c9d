package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

type JobRepository struct {
	db *DB
}

// joinLocked fills the read-only joined fields of job.
func (r *JobRepository) joinLocked(job types.Job) types.Job {
	if u, ok := r.db.users[job.EmployerID]; ok {
		job.CompanyName = u.CompanyName
		job.EmployerName = u.Name
	}
	if c, ok := r.db.categories[job.CategoryID]; ok {
		job.CategoryName = c.Name
		job.CategorySlug = c.Slug
	}
	job.ApplicationCount = 0
	for _, app := range r.db.applications {
		if app.JobID == job.ID {
			job.ApplicationCount++
		}
	}
	return job
}

func (r *JobRepository) List(_ context.Context, filter types.JobFilter, offset, limit int) ([]types.Job, int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	matched := make([]types.Job, 0)
	for _, job := range r.db.jobs {
		job = r.joinLocked(job)
		if filter.Active != nil && job.IsActive != *filter.Active {
			continue
		}
		if filter.JobType != "" && job.JobType != filter.JobType {
			continue
		}
		if filter.CategoryID > 0 && job.CategoryID != filter.CategoryID {
			continue
		}
		if filter.CategorySlug != "" && job.CategorySlug != filter.CategorySlug {
			continue
		}
		if filter.EmployerID > 0 && job.EmployerID != filter.EmployerID {
			continue
		}
		if q := strings.TrimSpace(filter.Query); q != "" &&
			!containsFold(job.Title, q) && !containsFold(job.Description, q) && !containsFold(job.Location, q) {
			continue
		}
		matched = append(matched, job)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *JobRepository) Get(_ context.Context, id int) (types.Job, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	job, ok := r.db.jobs[id]
	if !ok {
		return types.Job{}, store.ErrNotFound
	}
	return r.joinLocked(job), nil
}

func (r *JobRepository) GetBySlug(_ context.Context, slug string) (types.Job, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, job := range r.db.jobs {
		if job.Slug == slug {
			return r.joinLocked(job), nil
		}
	}
	return types.Job{}, store.ErrNotFound
}

func (r *JobRepository) SlugExists(_ context.Context, slug string) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, job := range r.db.jobs {
		if job.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *JobRepository) checkLocked(job types.Job) error {
	if _, ok := r.db.users[job.EmployerID]; !ok {
		return store.ErrReferenced
	}
	if _, ok := r.db.categories[job.CategoryID]; !ok {
		return store.ErrReferenced
	}
	for _, other := range r.db.jobs {
		if other.ID != job.ID && other.Slug == job.Slug {
			return store.ErrConflict
		}
	}
	return nil
}

func (r *JobRepository) Create(_ context.Context, job types.Job) (types.Job, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.checkLocked(job); err != nil {
		return types.Job{}, err
	}
	job.ID = r.db.id()
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt
	r.db.jobs[job.ID] = job
	return job, nil
}

func (r *JobRepository) Update(_ context.Context, job types.Job) (types.Job, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	current, ok := r.db.jobs[job.ID]
	if !ok {
		return types.Job{}, store.ErrNotFound
	}
	job.Slug = current.Slug
	job.EmployerID = current.EmployerID
	job.CreatedAt = current.CreatedAt
	if err := r.checkLocked(job); err != nil {
		return types.Job{}, err
	}
	job.UpdatedAt = time.Now()
	r.db.jobs[job.ID] = job
	return job, nil
}

func (r *JobRepository) SetActive(_ context.Context, ids []int, active bool) ([]int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	updated := make([]int, 0, len(ids))
	for _, id := range sortedIDs(idSet(ids)) {
		job, ok := r.db.jobs[id]
		if !ok {
			continue
		}
		job.IsActive = active
		job.UpdatedAt = time.Now()
		r.db.jobs[id] = job
		updated = append(updated, id)
	}
	return updated, nil
}

func (r *JobRepository) DeleteCascade(_ context.Context, ids []int) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.deleteJobsLocked(idSet(ids)), nil
}
