package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jobportal/apiserver/types"
	"github.com/lib/pq"
)

const applicationSelect = `
	SELECT a.id, a.job_id, a.applicant_id, a.applicant_name, a.applicant_email, a.status,
	       a.resume_type, a.resume_text, a.resume_object_key, a.cover_letter, a.profile_snapshot,
	       a.applied_at, j.title, j.slug, c.name, u.company_name
	FROM applications a
	JOIN jobs j ON j.id = a.job_id
	JOIN categories c ON c.id = j.category_id
	JOIN users u ON u.id = j.employer_id`

// ApplicationRepository handles persistence for applications.
type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func scanApplication(row rowScanner) (types.ApplicationDetail, error) {
	var (
		detail      types.ApplicationDetail
		applicantID sql.NullInt64
		snapshot    []byte
	)
	app := &detail.Application
	if err := row.Scan(
		&app.ID,
		&app.JobID,
		&applicantID,
		&app.ApplicantName,
		&app.ApplicantEmail,
		&app.Status,
		&app.ResumeType,
		&app.ResumeText,
		&app.ResumeObjectKey,
		&app.CoverLetter,
		&snapshot,
		&app.AppliedAt,
		&detail.JobTitle,
		&detail.JobSlug,
		&detail.CategoryName,
		&detail.CompanyName,
	); err != nil {
		return types.ApplicationDetail{}, err
	}

	if applicantID.Valid {
		id := int(applicantID.Int64)
		app.ApplicantID = &id
	}
	if len(snapshot) > 0 {
		var s types.ProfileSnapshot
		if err := json.Unmarshal(snapshot, &s); err == nil {
			app.ProfileSnapshot = &s
		}
	}
	return detail, nil
}

// Create inserts a new application. A second application for the same job
// by the same account or email yields ErrConflict.
func (r *ApplicationRepository) Create(ctx context.Context, app types.Application) (types.Application, error) {
	if app.AppliedAt.IsZero() {
		app.AppliedAt = time.Now()
	}
	if app.Status == "" {
		app.Status = types.StatusPending
	}

	var snapshot []byte
	if app.ProfileSnapshot != nil {
		var err error
		if snapshot, err = json.Marshal(app.ProfileSnapshot); err != nil {
			return types.Application{}, err
		}
	}

	var applicantID sql.NullInt64
	if app.ApplicantID != nil {
		applicantID = sql.NullInt64{Int64: int64(*app.ApplicantID), Valid: true}
	}

	const query = `
		INSERT INTO applications (job_id, applicant_id, applicant_name, applicant_email, status,
		                          resume_type, resume_text, resume_object_key, cover_letter,
		                          profile_snapshot, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		app.JobID,
		applicantID,
		app.ApplicantName,
		app.ApplicantEmail,
		app.Status,
		app.ResumeType,
		app.ResumeText,
		app.ResumeObjectKey,
		app.CoverLetter,
		snapshot,
		app.AppliedAt,
	).Scan(&app.ID); err != nil {
		return types.Application{}, mapError(err)
	}

	return app, nil
}

func (r *ApplicationRepository) Get(ctx context.Context, id int) (types.ApplicationDetail, error) {
	detail, err := scanApplication(r.db.QueryRowContext(ctx, applicationSelect+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.ApplicationDetail{}, ErrNotFound
		}
		return types.ApplicationDetail{}, err
	}
	return detail, nil
}

// List returns applications matching filter, most recent first.
func (r *ApplicationRepository) List(ctx context.Context, filter types.ApplicationFilter) ([]types.ApplicationDetail, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if filter.CategoryID > 0 {
		args = append(args, filter.CategoryID)
		conditions = append(conditions, fmt.Sprintf("j.category_id = $%d", len(args)))
	}
	if filter.JobID > 0 {
		args = append(args, filter.JobID)
		conditions = append(conditions, fmt.Sprintf("a.job_id = $%d", len(args)))
	}
	if filter.ApplicantID > 0 {
		args = append(args, filter.ApplicantID)
		conditions = append(conditions, fmt.Sprintf("a.applicant_id = $%d", len(args)))
	}

	query := applicationSelect
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY a.applied_at DESC, a.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := make([]types.ApplicationDetail, 0)
	for rows.Next() {
		detail, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return apps, nil
}

// UpdateStatus sets status on every application in ids and returns the ids
// that existed and were updated.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, ids []int, status types.ApplicationStatus) ([]int, error) {
	const query = `UPDATE applications SET status = $1 WHERE id = ANY($2) RETURNING id`
	rows, err := r.db.QueryContext(ctx, query, status, pq.Int64Array(int64s(ids)))
	if err != nil {
		return nil, err
	}
	return collectIDs(rows)
}

// Delete removes the applications in ids and returns how many existed.
func (r *ApplicationRepository) Delete(ctx context.Context, ids []int) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE id = ANY($1)`, pq.Int64Array(int64s(ids)))
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// StatusChanges loads the notification payload for the given applications.
func (r *ApplicationRepository) StatusChanges(ctx context.Context, ids []int) ([]types.StatusChange, error) {
	const query = `
		SELECT a.id, a.applicant_name, a.applicant_email, j.title, a.status
		FROM applications a
		JOIN jobs j ON j.id = a.job_id
		WHERE a.id = ANY($1)
		ORDER BY a.id`
	rows, err := r.db.QueryContext(ctx, query, pq.Int64Array(int64s(ids)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := make([]types.StatusChange, 0, len(ids))
	for rows.Next() {
		var c types.StatusChange
		if err := rows.Scan(&c.ApplicationID, &c.ApplicantName, &c.ApplicantEmail, &c.JobTitle, &c.Status); err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return changes, nil
}
