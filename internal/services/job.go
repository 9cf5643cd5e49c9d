package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jobportal/apiserver/internal/roles"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

const maxSlugAttempts = 100

// JobRepository defines persistence operations for jobs.
type JobRepository interface {
	List(ctx context.Context, filter types.JobFilter, offset, limit int) ([]types.Job, int, error)
	Get(ctx context.Context, id int) (types.Job, error)
	GetBySlug(ctx context.Context, slug string) (types.Job, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, job types.Job) (types.Job, error)
	Update(ctx context.Context, job types.Job) (types.Job, error)
	SetActive(ctx context.Context, ids []int, active bool) ([]int, error)
	DeleteCascade(ctx context.Context, ids []int) (int, error)
}

// JobService encapsulates job posting use-cases.
type JobService struct {
	repo JobRepository
}

func NewJobService(repo JobRepository) *JobService {
	return &JobService{repo: repo}
}

// List returns a page of jobs. Limits are clamped to [1, 100].
func (s *JobService) List(ctx context.Context, filter types.JobFilter, offset, limit int) ([]types.Job, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, filter, offset, limit)
}

// ListPublic lists active jobs only.
func (s *JobService) ListPublic(ctx context.Context, filter types.JobFilter, offset, limit int) ([]types.Job, int, error) {
	active := true
	filter.Active = &active
	filter.EmployerID = 0
	return s.List(ctx, filter, offset, limit)
}

func (s *JobService) Get(ctx context.Context, id int) (types.Job, error) {
	return s.repo.Get(ctx, id)
}

// GetPublic returns an active job by slug. Inactive jobs are not found.
func (s *JobService) GetPublic(ctx context.Context, slug string) (types.Job, error) {
	job, err := s.repo.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return types.Job{}, err
	}
	if !job.IsActive {
		return types.Job{}, store.ErrNotFound
	}
	return job, nil
}

// GetBySlug returns a job regardless of its active flag.
func (s *JobService) GetBySlug(ctx context.Context, slug string) (types.Job, error) {
	return s.repo.GetBySlug(ctx, strings.TrimSpace(slug))
}

// JobInput creates or edits a job. Zero values leave fields unchanged on edit.
type JobInput struct {
	Title       string
	Slug        string
	Description string
	CategoryID  int
	JobType     string
	Location    string
	SalaryMin   *int64
	SalaryMax   *int64
	IsActive    *bool
	// EmployerID lets admins post on behalf of an employer.
	EmployerID int
}

// Create posts a job owned by actor (or by in.EmployerID when actor is an admin).
func (s *JobService) Create(ctx context.Context, actor types.User, in JobInput) (types.Job, error) {
	if !roles.IsEmployerOrAbove(actor.Role) {
		return types.Job{}, roles.ErrInsufficientRole
	}

	job := types.Job{
		EmployerID: actor.ID,
		JobType:    types.JobTypeFullTime,
		IsActive:   true,
	}
	if in.EmployerID > 0 && in.EmployerID != actor.ID {
		if !roles.IsAdminOrAbove(actor.Role) {
			return types.Job{}, forbidden("only admins can post for another employer")
		}
		job.EmployerID = in.EmployerID
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" || in.CategoryID < 1 {
		return types.Job{}, validationError("title, description and category are required")
	}
	job, err := applyJobInput(job, in)
	if err != nil {
		return types.Job{}, err
	}

	base := Slugify(in.Slug)
	if base == "" {
		base = Slugify(job.Title)
	}
	if base == "" {
		return types.Job{}, validationError("title must contain letters or digits")
	}
	if job.Slug, err = s.uniqueSlug(ctx, base); err != nil {
		return types.Job{}, err
	}

	created, err := s.repo.Create(ctx, job)
	if errors.Is(err, store.ErrReferenced) {
		return types.Job{}, validationError("category or employer not found")
	}
	return created, err
}

// uniqueSlug returns base, or base-1, base-2, ... for the first unused slug.
func (s *JobService) uniqueSlug(ctx context.Context, base string) (string, error) {
	slug := base
	for i := 1; i <= maxSlugAttempts; i++ {
		exists, err := s.repo.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("%w: no free slug for %q", store.ErrConflict, base)
}

// Update edits a job owned by actor, or any job when actor is an admin.
func (s *JobService) Update(ctx context.Context, actor types.User, id int, in JobInput) (types.Job, error) {
	job, err := s.owned(ctx, actor, id)
	if err != nil {
		return types.Job{}, err
	}
	if job, err = applyJobInput(job, in); err != nil {
		return types.Job{}, err
	}
	updated, err := s.repo.Update(ctx, job)
	if errors.Is(err, store.ErrReferenced) {
		return types.Job{}, validationError("category not found")
	}
	return updated, err
}

// Delete removes a job owned by actor and its applications.
func (s *JobService) Delete(ctx context.Context, actor types.User, id int) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	deleted, err := s.repo.DeleteCascade(ctx, []int{id})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteMany removes the jobs in ids and all their applications in one
// transaction. It returns the number of jobs deleted.
func (s *JobService) DeleteMany(ctx context.Context, ids []int) (int, error) {
	ids, err := requireIDs(ids)
	if err != nil {
		return 0, err
	}
	return s.repo.DeleteCascade(ctx, ids)
}

// SetActive toggles the active flag of many jobs at once.
func (s *JobService) SetActive(ctx context.Context, ids []int, active bool) (types.BatchReport, error) {
	ids, err := requireIDs(ids)
	if err != nil {
		return types.BatchReport{}, err
	}
	updated, err := s.repo.SetActive(ctx, ids, active)
	if err != nil {
		return types.BatchReport{}, err
	}
	return types.NewBatchReport(ids, updated), nil
}

func (s *JobService) owned(ctx context.Context, actor types.User, id int) (types.Job, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Job{}, err
	}
	if job.EmployerID != actor.ID && !roles.IsAdminOrAbove(actor.Role) {
		return types.Job{}, forbidden("you do not own this job")
	}
	return job, nil
}

func applyJobInput(job types.Job, in JobInput) (types.Job, error) {
	if v := strings.TrimSpace(in.Title); v != "" {
		job.Title = v
	}
	if v := strings.TrimSpace(in.Description); v != "" {
		job.Description = v
	}
	if in.CategoryID > 0 {
		job.CategoryID = in.CategoryID
	}
	if v := strings.ToUpper(strings.TrimSpace(in.JobType)); v != "" {
		if _, ok := types.JobTypeLabels[v]; !ok {
			return types.Job{}, validationError("unknown job type %q", in.JobType)
		}
		job.JobType = v
	}
	if v := strings.TrimSpace(in.Location); v != "" {
		job.Location = v
	}
	if in.SalaryMin != nil {
		job.SalaryMin = *in.SalaryMin
	}
	if in.SalaryMax != nil {
		job.SalaryMax = *in.SalaryMax
	}
	if in.IsActive != nil {
		job.IsActive = *in.IsActive
	}
	if job.SalaryMin < 0 || job.SalaryMax < 0 {
		return types.Job{}, validationError("salary cannot be negative")
	}
	if job.SalaryMin > 0 && job.SalaryMax > 0 && job.SalaryMin > job.SalaryMax {
		return types.Job{}, validationError("salary_min cannot exceed salary_max")
	}
	return job, nil
}
