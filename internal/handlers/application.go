package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jobportal/apiserver/internal/logger"
	"github.com/jobportal/apiserver/internal/resume"
	"github.com/jobportal/apiserver/internal/roles"
	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/types"
)

const (
	maxMultipartMemory = 32 << 20
	maxSubmissionBytes = resume.MaxUploadSize + 1<<20

	formJobSlug        = "jobSlug"
	formApplicantName  = "applicantName"
	formApplicantEmail = "applicantEmail"
	formCoverLetter    = "coverLetter"
	formResumeFile     = "resumeFile"
	formResumeJSON     = "resumeJson"
	formResumeText     = "resumeText"
	formResumeType     = "resumeType"
	formParseFile      = "file"
	formParseFileType  = "fileType"
)

// ApplicationHandler provides HTTP handlers for job applications.
type ApplicationHandler struct {
	applications *services.ApplicationService
}

func NewApplicationHandler(applications *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

// ApplicationRouter registers the public application routes.
func ApplicationRouter(r chi.Router, applications *services.ApplicationService, auth *Authenticator) {
	h := NewApplicationHandler(applications)

	r.With(auth.OptionalAuth).Post("/", h.Submit)
	r.With(auth.RequireAuth, auth.RequireRole(roles.Employer)).Get("/", h.ListForJob)
}

// AdminApplicationRouter registers the application routes of the admin console.
func AdminApplicationRouter(r chi.Router, applications *services.ApplicationService) {
	h := NewApplicationHandler(applications)

	r.Get("/", h.AdminList)
	r.Put("/", h.SetStatus)
	r.Delete("/", h.Delete)
	r.Put("/status", h.BulkStatus)
	r.Get("/{id}/resume", h.DownloadResume)
}

// SubmitResponse acknowledges a stored application.
type SubmitResponse struct {
	ID      int                     `json:"id"`
	Status  types.ApplicationStatus `json:"status"`
	Message string                  `json:"message"`
}

type StatusRequest struct {
	ID     int                     `json:"id"`
	IDs    []int                   `json:"ids"`
	Status types.ApplicationStatus `json:"status"`
}

func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "resume file is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	upload, err := resumeFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var actor *types.User
	if user, ok := actorFromContext(r.Context()); ok {
		actor = &user
	}

	app, err := h.applications.Submit(r.Context(), actor, services.SubmitInput{
		JobSlug:        r.FormValue(formJobSlug),
		ApplicantName:  r.FormValue(formApplicantName),
		ApplicantEmail: r.FormValue(formApplicantEmail),
		CoverLetter:    r.FormValue(formCoverLetter),
		Resume:         upload,
	})
	if err != nil {
		writeServiceError(w, r, err, "job")
		return
	}

	writeJSON(w, http.StatusCreated, SubmitResponse{
		ID:      app.ID,
		Status:  app.Status,
		Message: "application submitted",
	})
}

// resumeFromForm picks the resume from whichever form field carries one.
// A file takes precedence over JSON, which takes precedence over text.
func resumeFromForm(r *http.Request) (*services.ResumeUpload, error) {
	declared := r.FormValue(formResumeType)

	if r.MultipartForm != nil {
		if files := r.MultipartForm.File[formResumeFile]; len(files) > 0 {
			header := files[0]
			file, err := header.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to read resume file: %w", err)
			}
			data, err := readFileLimited(file, resume.MaxUploadSize)
			_ = file.Close()
			if err != nil {
				return nil, err
			}
			return &services.ResumeUpload{
				Field:       services.ResumeFieldFile,
				Declared:    declared,
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        data,
			}, nil
		}
	}

	if v := r.FormValue(formResumeJSON); strings.TrimSpace(v) != "" {
		return &services.ResumeUpload{Field: services.ResumeFieldJSON, Declared: declared, Data: []byte(v)}, nil
	}
	if v := r.FormValue(formResumeText); v != "" {
		return &services.ResumeUpload{Field: services.ResumeFieldText, Declared: declared, Data: []byte(v)}, nil
	}
	return nil, nil
}

func (h *ApplicationHandler) ListForJob(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	apps, err := h.applications.ListForJob(r.Context(), actor, r.URL.Query().Get("jobSlug"))
	if err != nil {
		writeServiceError(w, r, err, "job")
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	apps, err := h.applications.ListMine(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err, "application")
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// ParseResume converts an uploaded resume without storing it.
func (h *ApplicationHandler) ParseResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile(formParseFile)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	data, err := readFileLimited(file, resume.MaxUploadSize)
	_ = file.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.applications.ParseResume(r.FormValue(formParseFileType), data)
	if err != nil {
		writeServiceError(w, r, err, "resume")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ApplicationHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	categoryID, err := parseOptionalInt(r.URL.Query().Get("categoryId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid categoryId")
		return
	}

	apps, err := h.applications.List(r.Context(), types.ApplicationFilter{
		Status:     types.ApplicationStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
		CategoryID: categoryID,
	})
	if err != nil {
		writeServiceError(w, r, err, "application")
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *ApplicationHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var req StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ID < 1 {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	app, err := h.applications.SetStatus(r.Context(), actor, req.ID, req.Status)
	if err != nil {
		writeServiceError(w, r, err, "application")
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) BulkStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var req StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := h.applications.UpdateStatus(r.Context(), actor, req.IDs, req.Status)
	if err != nil {
		writeServiceError(w, r, err, "application")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *ApplicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req IDsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deleted, err := h.applications.Delete(r.Context(), req.IDs)
	if err != nil {
		writeServiceError(w, r, err, "application")
		return
	}
	writeJSON(w, http.StatusOK, DeletedResponse{Success: true, DeletedCount: deleted})
}

func (h *ApplicationHandler) DownloadResume(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rc, name, err := h.applications.OpenResume(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err, "resume")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := io.Copy(w, rc); err != nil {
		logger.Warningf("stream resume %d: %v", id, err)
	}
}
