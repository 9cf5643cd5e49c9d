package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/types"
)

// ProfileHandler serves the self-service profile of the authenticated user.
type ProfileHandler struct {
	users *services.UserService
}

// ProfileRouter registers profile routes. All of them require authentication.
func ProfileRouter(r chi.Router, users *services.UserService, auth *Authenticator) {
	h := &ProfileHandler{users: users}

	r.Use(auth.RequireAuth)
	r.Get("/", h.Get)
	r.Put("/", h.Update)
}

// ProfileRequest is a partial profile edit. Empty fields keep stored values.
type ProfileRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
	types.Profile
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	writeJSON(w, http.StatusOK, actor)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())

	var req ProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), actor, services.ProfileUpdate{
		Name:    req.Name,
		Role:    req.Role,
		Profile: req.Profile,
	})
	if err != nil {
		writeServiceError(w, r, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
