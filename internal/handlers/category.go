package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/types"
)

type CategoryHandler struct {
	categories *services.CategoryService
}

// CategoryRouter registers the public category listing.
func CategoryRouter(r chi.Router, categories *services.CategoryService) {
	h := &CategoryHandler{categories: categories}
	r.Get("/", h.List)
}

// AdminCategoryRouter registers the category routes of the admin console.
func AdminCategoryRouter(r chi.Router, categories *services.CategoryService) {
	h := &CategoryHandler{categories: categories}

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/", h.Delete)
	r.Put("/{id}", h.Update)
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "category")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.categories.Create(r.Context(), types.Category{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err, "category")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.categories.Update(r.Context(), types.Category{
		ID:          id,
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, r, err, "category")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes a batch of categories, or none of them when any still has jobs.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req IDsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deleted, err := h.categories.Delete(r.Context(), req.IDs)
	if err != nil {
		writeServiceError(w, r, err, "category")
		return
	}
	writeJSON(w, http.StatusOK, DeletedResponse{Success: true, DeletedCount: deleted})
}
