package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/jobportal/apiserver/internal/logger"
	"github.com/jobportal/apiserver/internal/mq"
	"github.com/jobportal/apiserver/internal/resume"
	"github.com/jobportal/apiserver/internal/roles"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/jobportal/apiserver/types"
)

// ErrAlreadyApplied is returned for a second application to the same job by
// the same account or email address.
var ErrAlreadyApplied = errors.New("you have already applied to this job")

// ApplicationRepository defines persistence operations for applications.
type ApplicationRepository interface {
	Create(ctx context.Context, app types.Application) (types.Application, error)
	Get(ctx context.Context, id int) (types.ApplicationDetail, error)
	List(ctx context.Context, filter types.ApplicationFilter) ([]types.ApplicationDetail, error)
	UpdateStatus(ctx context.Context, ids []int, status types.ApplicationStatus) ([]int, error)
	Delete(ctx context.Context, ids []int) (int, error)
	StatusChanges(ctx context.Context, ids []int) ([]types.StatusChange, error)
}

// JobLookup resolves the job an application refers to.
type JobLookup interface {
	Get(ctx context.Context, id int) (types.Job, error)
	GetBySlug(ctx context.Context, slug string) (types.Job, error)
}

// ResumeArchive keeps the original uploaded resume files.
type ResumeArchive interface {
	ArchiveResume(ctx context.Context, filename, contentType string, data []byte) (string, error)
	OpenResume(ctx context.Context, key string) (io.ReadCloser, error)
	DeleteResume(ctx context.Context, key string) error
}

// EventPublisher publishes application events.
type EventPublisher interface {
	PublishJSON(ctx context.Context, channel string, payload any) (string, error)
}

// ApplicationService encapsulates application submission and review.
type ApplicationService struct {
	repo    ApplicationRepository
	jobs    JobLookup
	archive ResumeArchive
	events  EventPublisher
	now     func() time.Time
}

// NewApplicationService constructs an ApplicationService. archive and events
// are optional and may be nil.
func NewApplicationService(repo ApplicationRepository, jobs JobLookup, archive ResumeArchive, events EventPublisher) *ApplicationService {
	return &ApplicationService{
		repo:    repo,
		jobs:    jobs,
		archive: archive,
		events:  events,
		now:     time.Now,
	}
}

// Resume form fields.
const (
	ResumeFieldFile = "file"
	ResumeFieldJSON = "json"
	ResumeFieldText = "text"
)

// ResumeUpload is the resume part of a submission.
type ResumeUpload struct {
	// Field is the form field the resume arrived in: ResumeFieldFile,
	// ResumeFieldJSON or ResumeFieldText.
	Field string
	// Declared is the client-declared type, empty to detect it.
	Declared    string
	Filename    string
	ContentType string
	Data        []byte
}

// SubmitInput is an application submission.
type SubmitInput struct {
	JobSlug        string
	ApplicantName  string
	ApplicantEmail string
	CoverLetter    string
	Resume         *ResumeUpload
}

// Submit stores a new application. actor is nil for anonymous applicants,
// who must then supply a name and an email. Authenticated applicants have
// their stored identity used and their profile snapshotted.
func (s *ApplicationService) Submit(ctx context.Context, actor *types.User, in SubmitInput) (types.Application, error) {
	slug := strings.TrimSpace(in.JobSlug)
	if slug == "" {
		return types.Application{}, validationError("missing required fields")
	}

	app := types.Application{
		CoverLetter: strings.TrimSpace(in.CoverLetter),
		Status:      types.StatusPending,
	}
	if actor != nil {
		id := actor.ID
		app.ApplicantID = &id
		app.ApplicantName = actor.Name
		app.ApplicantEmail = actor.Email
		app.ProfileSnapshot = &types.ProfileSnapshot{
			UserID:   actor.ID,
			Name:     actor.Name,
			Email:    actor.Email,
			Username: actor.Username,
			Profile:  actor.Profile,
			TakenAt:  s.now(),
		}
	} else {
		app.ApplicantName = strings.TrimSpace(in.ApplicantName)
		if app.ApplicantName == "" || strings.TrimSpace(in.ApplicantEmail) == "" {
			return types.Application{}, validationError("missing required fields")
		}
		email, err := normalizeEmail(in.ApplicantEmail)
		if err != nil {
			return types.Application{}, err
		}
		app.ApplicantEmail = email
	}

	job, err := s.jobs.GetBySlug(ctx, slug)
	if err != nil {
		return types.Application{}, err
	}
	if !job.IsActive {
		return types.Application{}, store.ErrNotFound
	}
	app.JobID = job.ID

	if in.Resume == nil || len(in.Resume.Data) == 0 {
		return types.Application{}, ErrResumeRequired
	}
	parsed, err := s.parseUpload(in.Resume)
	if err != nil {
		return types.Application{}, err
	}
	if parsed.Failed {
		logger.Warningf("resume text extraction failed for job %s: %v", job.Slug, parsed.Cause)
	}
	app.ResumeType = parsed.Type
	app.ResumeText = parsed.Text

	if in.Resume.Field == ResumeFieldFile && s.archive != nil {
		key, err := s.archive.ArchiveResume(ctx, in.Resume.Filename, in.Resume.ContentType, in.Resume.Data)
		if err != nil {
			logger.Warningf("resume archive failed for job %s: %v", job.Slug, err)
		} else {
			app.ResumeObjectKey = key
		}
	}

	app.AppliedAt = s.now()
	created, err := s.repo.Create(ctx, app)
	if err != nil {
		s.discardArchived(ctx, app.ResumeObjectKey)
		if errors.Is(err, store.ErrConflict) {
			return types.Application{}, ErrAlreadyApplied
		}
		if errors.Is(err, store.ErrReferenced) {
			return types.Application{}, store.ErrNotFound
		}
		return types.Application{}, fmt.Errorf("create application: %w", err)
	}

	s.publish(ctx, mq.ApplicationSubmitted, mq.SubmittedEvent{
		ApplicationID:  created.ID,
		JobID:          job.ID,
		JobSlug:        job.Slug,
		JobTitle:       job.Title,
		ApplicantName:  created.ApplicantName,
		ApplicantEmail: created.ApplicantEmail,
		ResumeType:     string(created.ResumeType),
		AppliedAt:      created.AppliedAt,
	})
	return created, nil
}

func (s *ApplicationService) parseUpload(up *ResumeUpload) (resume.Result, error) {
	if len(up.Data) > resume.MaxUploadSize {
		return resume.Result{}, validationError("resume file is too large")
	}

	kind, err := resume.ParseType(up.Declared)
	if err != nil {
		return resume.Result{}, validationError("unsupported resume type")
	}
	if kind == "" {
		switch up.Field {
		case ResumeFieldJSON:
			kind = types.ResumeJSON
		case ResumeFieldText:
			kind = types.ResumeText
		default:
			kind = resume.DetectFileType(up.Filename, up.ContentType, up.Data)
		}
	}

	parsed, err := resume.Parse(kind, up.Data)
	switch {
	case errors.Is(err, resume.ErrInvalidJSON):
		return resume.Result{}, validationError("invalid resume json")
	case errors.Is(err, resume.ErrEmpty):
		return resume.Result{}, ErrResumeRequired
	case err != nil:
		return resume.Result{}, validationError("%s", err.Error())
	}
	return parsed, nil
}

func (s *ApplicationService) discardArchived(ctx context.Context, key string) {
	if key == "" || s.archive == nil {
		return
	}
	if err := s.archive.DeleteResume(ctx, key); err != nil {
		logger.Warningf("failed to remove archived resume %s: %v", key, err)
	}
}

func (s *ApplicationService) publish(ctx context.Context, channel string, payload any) {
	if s.events == nil {
		return
	}
	if _, err := s.events.PublishJSON(ctx, channel, payload); err != nil {
		logger.Warningf("publish %s failed: %v", channel, err)
	}
}

// ParseResume converts an uploaded file without storing anything.
// fileType must be pdf, json or text.
func (s *ApplicationService) ParseResume(fileType string, data []byte) (resume.Result, error) {
	kind, err := resume.ParseType(fileType)
	if err != nil || kind == "" {
		return resume.Result{}, validationError("unsupported file type")
	}
	if len(data) == 0 {
		return resume.Result{}, validationError("file is required")
	}
	if len(data) > resume.MaxUploadSize {
		return resume.Result{}, validationError("resume file is too large")
	}
	parsed, err := resume.Parse(kind, data)
	switch {
	case errors.Is(err, resume.ErrInvalidJSON):
		return resume.Result{}, validationError("invalid resume json")
	case err != nil:
		return resume.Result{}, validationError("%s", err.Error())
	}
	return parsed, nil
}

// ListForJob returns the applications to the job with the given slug.
// Only the job's employer and admins may see them.
func (s *ApplicationService) ListForJob(ctx context.Context, actor types.User, jobSlug string) ([]types.ApplicationDetail, error) {
	jobSlug = strings.TrimSpace(jobSlug)
	if jobSlug == "" {
		return nil, validationError("jobSlug is required")
	}
	job, err := s.jobs.GetBySlug(ctx, jobSlug)
	if err != nil {
		return nil, err
	}
	if job.EmployerID != actor.ID && !roles.IsAdminOrAbove(actor.Role) {
		return nil, forbidden("you do not own this job")
	}
	return s.repo.List(ctx, types.ApplicationFilter{JobID: job.ID})
}

// ListMine returns the actor's own applications.
func (s *ApplicationService) ListMine(ctx context.Context, actor types.User) ([]types.ApplicationDetail, error) {
	return s.repo.List(ctx, types.ApplicationFilter{ApplicantID: actor.ID})
}

// List returns applications for the admin console.
func (s *ApplicationService) List(ctx context.Context, filter types.ApplicationFilter) ([]types.ApplicationDetail, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, validationError("invalid status %q", filter.Status)
	}
	return s.repo.List(ctx, filter)
}

// OpenResume streams the archived resume file of an application to the
// job's employer or an admin.
func (s *ApplicationService) OpenResume(ctx context.Context, actor types.User, id int) (io.ReadCloser, string, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !roles.IsAdminOrAbove(actor.Role) {
		job, err := s.jobs.Get(ctx, app.JobID)
		if err != nil {
			return nil, "", err
		}
		if job.EmployerID != actor.ID {
			return nil, "", forbidden("you do not own this job")
		}
	}
	if app.ResumeObjectKey == "" || s.archive == nil {
		return nil, "", store.ErrNotFound
	}
	rc, err := s.archive.OpenResume(ctx, app.ResumeObjectKey)
	if err != nil {
		return nil, "", err
	}
	return rc, path.Base(app.ResumeObjectKey), nil
}

// UpdateStatus sets status on every application in ids in one statement
// and notifies each affected applicant.
func (s *ApplicationService) UpdateStatus(ctx context.Context, actor types.User, ids []int, status types.ApplicationStatus) (types.BatchReport, error) {
	ids, err := requireIDs(ids)
	if err != nil {
		return types.BatchReport{}, err
	}
	if !status.Valid() {
		return types.BatchReport{}, validationError("invalid status %q", status)
	}

	updated, err := s.repo.UpdateStatus(ctx, ids, status)
	if err != nil {
		return types.BatchReport{}, err
	}
	report := types.NewBatchReport(ids, updated)

	if s.events != nil && len(updated) > 0 {
		changes, err := s.repo.StatusChanges(ctx, updated)
		if err != nil {
			logger.Warningf("load status changes: %v", err)
			return report, nil
		}
		changedAt := s.now()
		for _, change := range changes {
			s.publish(ctx, mq.ApplicationStatusChanged, mq.StatusChangedEvent{
				StatusChange: change,
				ChangedBy:    actor.ID,
				ChangedAt:    changedAt,
			})
		}
	}
	return report, nil
}

// SetStatus updates a single application.
func (s *ApplicationService) SetStatus(ctx context.Context, actor types.User, id int, status types.ApplicationStatus) (types.ApplicationDetail, error) {
	report, err := s.UpdateStatus(ctx, actor, []int{id}, status)
	if err != nil {
		return types.ApplicationDetail{}, err
	}
	if len(report.Succeeded) == 0 {
		return types.ApplicationDetail{}, store.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Delete removes the applications in ids and returns how many existed.
func (s *ApplicationService) Delete(ctx context.Context, ids []int) (int, error) {
	ids, err := requireIDs(ids)
	if err != nil {
		return 0, err
	}
	return s.repo.Delete(ctx, ids)
}
