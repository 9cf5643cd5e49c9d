package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jobportal/apiserver/internal/roles"
	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/types"
)

// JobHandler provides HTTP handlers for job postings.
type JobHandler struct {
	jobs *services.JobService
}

func NewJobHandler(jobs *services.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// JobRouter registers the public job routes and the employer mutations.
// {job} is a slug on GET and a numeric id on PATCH and DELETE.
func JobRouter(r chi.Router, jobs *services.JobService, auth *Authenticator) {
	h := NewJobHandler(jobs)

	r.Get("/", h.ListPublic)
	r.Get("/{job}", h.GetPublic)
	r.With(auth.RequireAuth, auth.RequireRole(roles.Employer)).Post("/", h.Create)
	r.With(auth.RequireAuth).Patch("/{job}", h.Update)
	r.With(auth.RequireAuth).Delete("/{job}", h.Delete)
}

// AdminJobRouter registers the job routes of the admin console.
func AdminJobRouter(r chi.Router, jobs *services.JobService) {
	h := NewJobHandler(jobs)

	r.Get("/", h.AdminList)
	r.Post("/", h.Create)
	r.Delete("/", h.DeleteMany)
	r.Put("/status", h.BulkActive)
	r.Route("/{job}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Patch("/", h.SetActive)
		r.Delete("/", h.Delete)
	})
}

// JobRequest creates or edits a job. Omitted fields keep stored values on edit.
type JobRequest struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	CategoryID  int    `json:"categoryId"`
	JobType     string `json:"jobType"`
	Location    string `json:"location"`
	SalaryMin   *int64 `json:"salaryMin"`
	SalaryMax   *int64 `json:"salaryMax"`
	IsActive    *bool  `json:"isActive"`
	EmployerID  int    `json:"employerId"`
}

func (req JobRequest) input() services.JobInput {
	return services.JobInput{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		JobType:     req.JobType,
		Location:    req.Location,
		SalaryMin:   req.SalaryMin,
		SalaryMax:   req.SalaryMax,
		IsActive:    req.IsActive,
		EmployerID:  req.EmployerID,
	}
}

type ActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

type BulkActiveRequest struct {
	IDs      []int `json:"ids"`
	IsActive *bool `json:"isActive"`
}

func jobFilterFromQuery(r *http.Request) (types.JobFilter, error) {
	q := r.URL.Query()
	filter := types.JobFilter{
		JobType: strings.ToUpper(strings.TrimSpace(q.Get("jobType"))),
		Query:   strings.TrimSpace(q.Get("q")),
	}

	if category := strings.TrimSpace(q.Get("category")); category != "" {
		if id, err := strconv.Atoi(category); err == nil {
			filter.CategoryID = id
		} else {
			filter.CategorySlug = category
		}
	}
	categoryID, err := parseOptionalInt(q.Get("categoryId"))
	if err != nil {
		return types.JobFilter{}, err
	}
	if categoryID > 0 {
		filter.CategoryID = categoryID
	}
	return filter, nil
}

func (h *JobHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := jobFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}

	items, total, err := h.jobs.ListPublic(r.Context(), filter, offset, limit)
	if err != nil {
		writeServiceError(w, r, err, "job")
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[types.Job]{Items: items, Page: page, Limit: limit, Total: total})
}

func (h *JobHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetPublic(r.Context(), chi.URLParam(r, "job"))
	if err != nil {
		writeServiceError(w, r, err, "job")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *JobHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter, err := jobFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid categoryId")
		return
	}
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))) {
	case "":
	case "active":
		active := true
		filter.Active = &active
	case "inactive":
		active := false
		filter.Active = &active
	default:
		writeError(w, http.StatusBadRequest, "status must be active or inactive")
		return
	}
	if filter.EmployerID, err = parseOptionalInt(r.URL.Query().Get("employerId")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid employerId")
		return
	}

	items, total, err := h.jobs.List(r.Context(), filter, offset, limit)
	if err != nil {
		writeServiceError(w, r, err, "job")
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[types.Job]{Items: items, Page: page, Limit: limit, Total: total})
}

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "job")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "job")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var req JobRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	job, err := h.jobs.Create(r.Context(), actor, req.input())
	if err != nil {
		writeServiceError(w, r, err, "job")
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	id, err := parseIDParam(r, "job")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req JobRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	job, err := h.jobs.Update(r.Context(), actor, id, req.input())
	if err != nil {
		writeServiceError(w, r, err, "job")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *JobHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "job")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsActive == nil {
		writeError(w, http.StatusBadRequest, "is_active is required")
		return
	}

	report, err := h.jobs.SetActive(r.Context(), []int{id}, *req.IsActive)
	if err != nil {
		writeServiceError(w, r, err, "job")
		return
	}
	if len(report.Succeeded) == 0 {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "job")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *JobHandler) BulkActive(w http.ResponseWriter, r *http.Request) {
	var req BulkActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsActive == nil {
		writeError(w, http.StatusBadRequest, "isActive is required")
		return
	}

	report, err := h.jobs.SetActive(r.Context(), req.IDs, *req.IsActive)
	if err != nil {
		writeServiceError(w, r, err, "job")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	id, err := parseIDParam(r, "job")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.jobs.Delete(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err, "job")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JobHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	var req IDsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deleted, err := h.jobs.DeleteMany(r.Context(), req.IDs)
	if err != nil {
		writeServiceError(w, r, err, "job")
		return
	}
	writeJSON(w, http.StatusOK, DeletedResponse{Success: true, DeletedCount: deleted})
}
