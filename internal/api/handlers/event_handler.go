package handlers

import (
	"net/http"
	"strconv"

	"github.com/isdelr/civic-ideas-be/internal/services"
	"github.com/rs/zerolog/log"
)

// EventHandler handles HTTP requests related to moderation events.
type EventHandler struct {
	service services.EventServiceProvider
	audit   services.AuditServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider, audit services.AuditServiceProvider) *EventHandler {
	return &EventHandler{service: service, audit: audit}
}

// GetRecent handles the request to get recent events.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 20 // Default limit
	}

	events, err := h.service.GetRecentEvents(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve events")
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// RunAudit compares cached scores with the ledger now and reports drift.
func (h *EventHandler) RunAudit(w http.ResponseWriter, r *http.Request) {
	drift, err := h.audit.AuditScores(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Score audit failed")
		WriteError(w, err)
		return
	}
	if drift == nil {
		drift = []services.ScoreDrift{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"drift": drift})
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
