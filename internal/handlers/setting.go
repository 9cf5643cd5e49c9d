package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jobportal/apiserver/internal/services"
)

type SettingHandler struct {
	settings *services.SettingService
}

// SettingRouter registers the site settings routes. Callers restrict them
// to owner and superadmin.
func SettingRouter(r chi.Router, settings *services.SettingService) {
	h := &SettingHandler{settings: settings}

	r.Get("/", h.List)
	r.Put("/", h.Update)
	r.Post("/seed", h.Seed)
}

type SettingsRequest struct {
	Settings []services.SettingValue `json:"settings"`
}

type SeedResponse struct {
	Success       bool `json:"success"`
	InsertedCount int  `json:"insertedCount"`
}

func (h *SettingHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "setting")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var req SettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	settings, err := h.settings.Update(r.Context(), actor, req.Settings)
	if err != nil {
		writeServiceError(w, r, err, "setting")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingHandler) Seed(w http.ResponseWriter, r *http.Request) {
	inserted, err := h.settings.Seed(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "setting")
		return
	}
	writeJSON(w, http.StatusOK, SeedResponse{Success: true, InsertedCount: inserted})
}
