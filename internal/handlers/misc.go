package handlers

import (
	"net/http"

	"github.com/jobportal/apiserver/internal/services"
)

type NewsletterHandler struct {
	newsletter *services.NewsletterService
}

func NewNewsletterHandler(newsletter *services.NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{newsletter: newsletter}
}

type NewsletterRequest struct {
	Email string `json:"email"`
}

type NewsletterResponse struct {
	Success    bool `json:"success"`
	Subscribed bool `json:"subscribed"`
}

// Subscribe is idempotent: subscribing an address twice succeeds.
func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req NewsletterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	added, err := h.newsletter.Subscribe(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, r, err, "subscriber")
		return
	}
	writeJSON(w, http.StatusOK, NewsletterResponse{Success: true, Subscribed: added})
}

type StatsHandler struct {
	stats *services.StatsService
}

func NewStatsHandler(stats *services.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
