package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jobportal/apiserver/types"
	"github.com/lib/pq"
)

const jobSelect = `
	SELECT j.id, j.employer_id, j.category_id, j.title, j.slug, j.description, j.job_type,
	       j.location, j.salary_min, j.salary_max, j.is_active, j.created_at, j.updated_at,
	       u.company_name, u.name, c.name, c.slug,
	       (SELECT COUNT(1) FROM applications a WHERE a.job_id = j.id)
	FROM jobs j
	JOIN users u ON u.id = j.employer_id
	JOIN categories c ON c.id = j.category_id`

// JobRepository handles persistence for jobs.
type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

func scanJob(row rowScanner) (types.Job, error) {
	var job types.Job
	err := row.Scan(
		&job.ID,
		&job.EmployerID,
		&job.CategoryID,
		&job.Title,
		&job.Slug,
		&job.Description,
		&job.JobType,
		&job.Location,
		&job.SalaryMin,
		&job.SalaryMax,
		&job.IsActive,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.CompanyName,
		&job.EmployerName,
		&job.CategoryName,
		&job.CategorySlug,
		&job.ApplicationCount,
	)
	return job, err
}

func jobConditions(filter types.JobFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conditions = append(conditions, fmt.Sprintf("j.is_active = $%d", len(args)))
	}
	if filter.JobType != "" {
		args = append(args, filter.JobType)
		conditions = append(conditions, fmt.Sprintf("j.job_type = $%d", len(args)))
	}
	if filter.CategoryID > 0 {
		args = append(args, filter.CategoryID)
		conditions = append(conditions, fmt.Sprintf("j.category_id = $%d", len(args)))
	}
	if filter.CategorySlug != "" {
		args = append(args, filter.CategorySlug)
		conditions = append(conditions, fmt.Sprintf("c.slug = $%d", len(args)))
	}
	if filter.EmployerID > 0 {
		args = append(args, filter.EmployerID)
		conditions = append(conditions, fmt.Sprintf("j.employer_id = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(j.title ILIKE $%d OR j.description ILIKE $%d OR j.location ILIKE $%d)", n, n, n))
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// List returns a page of jobs matching filter, newest first, and the total
// number of matches.
func (r *JobRepository) List(ctx context.Context, filter types.JobFilter, offset, limit int) ([]types.Job, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	where, args := jobConditions(filter)

	countQuery := `SELECT COUNT(1) FROM jobs j JOIN categories c ON c.id = j.category_id` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := jobSelect + where + fmt.Sprintf(" ORDER BY j.created_at DESC, j.id DESC OFFSET $%d LIMIT $%d", len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, listQuery, append(args, offset, limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	jobs := make([]types.Job, 0, limit)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}

func (r *JobRepository) getOne(ctx context.Context, where string, arg any) (types.Job, error) {
	job, err := scanJob(r.db.QueryRowContext(ctx, jobSelect+" WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Job{}, ErrNotFound
		}
		return types.Job{}, err
	}
	return job, nil
}

func (r *JobRepository) Get(ctx context.Context, id int) (types.Job, error) {
	return r.getOne(ctx, "j.id = $1", id)
}

func (r *JobRepository) GetBySlug(ctx context.Context, slug string) (types.Job, error) {
	return r.getOne(ctx, "j.slug = $1", slug)
}

func (r *JobRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM jobs WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

func (r *JobRepository) Create(ctx context.Context, job types.Job) (types.Job, error) {
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now

	const query = `
		INSERT INTO jobs (employer_id, category_id, title, slug, description, job_type, location,
		                  salary_min, salary_max, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		job.EmployerID,
		job.CategoryID,
		job.Title,
		job.Slug,
		job.Description,
		job.JobType,
		job.Location,
		job.SalaryMin,
		job.SalaryMax,
		job.IsActive,
		job.CreatedAt,
		job.UpdatedAt,
	).Scan(&job.ID); err != nil {
		return types.Job{}, mapError(err)
	}

	return job, nil
}

// Update writes the editable fields of job. The slug and employer are fixed
// at creation.
func (r *JobRepository) Update(ctx context.Context, job types.Job) (types.Job, error) {
	job.UpdatedAt = time.Now()

	const query = `
		UPDATE jobs
		SET category_id = $1,
			title = $2,
			description = $3,
			job_type = $4,
			location = $5,
			salary_min = $6,
			salary_max = $7,
			is_active = $8,
			updated_at = $9
		WHERE id = $10`
	result, err := r.db.ExecContext(
		ctx,
		query,
		job.CategoryID,
		job.Title,
		job.Description,
		job.JobType,
		job.Location,
		job.SalaryMin,
		job.SalaryMax,
		job.IsActive,
		job.UpdatedAt,
		job.ID,
	)
	if err != nil {
		return types.Job{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Job{}, err
	}
	if affected == 0 {
		return types.Job{}, ErrNotFound
	}

	return job, nil
}

// SetActive sets is_active on every job in ids and returns the ids that
// existed and were updated.
func (r *JobRepository) SetActive(ctx context.Context, ids []int, active bool) ([]int, error) {
	const query = `UPDATE jobs SET is_active = $1, updated_at = $2 WHERE id = ANY($3) RETURNING id`
	rows, err := r.db.QueryContext(ctx, query, active, time.Now(), pq.Int64Array(int64s(ids)))
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

// DeleteCascade removes the jobs in ids and every application to them in a
// single transaction. It returns the number of jobs deleted.
func (r *JobRepository) DeleteCascade(ctx context.Context, ids []int) (int, error) {
	var deleted int
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		arg := pq.Int64Array(int64s(ids))
		if _, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE job_id = ANY($1)`, arg); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = ANY($1)`, arg)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		deleted = int(affected)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
