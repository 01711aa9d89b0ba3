package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/civic-ideas-be/internal/auth"
	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/isdelr/civic-ideas-be/internal/services"
	"github.com/rs/zerolog/log"
)

// IdeaHandler handles HTTP requests for ideas.
type IdeaHandler struct {
	service services.IdeaServiceProvider
}

// NewIdeaHandler creates a new IdeaHandler.
func NewIdeaHandler(service services.IdeaServiceProvider) *IdeaHandler {
	return &IdeaHandler{service: service}
}

// Create handles idea submission.
func (h *IdeaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.NewIdea
	if !decodeJSON(w, r, &payload) {
		return
	}

	actor, _ := auth.UserFromContext(r.Context())
	idea, err := h.service.CreateIdea(r.Context(), actor, payload)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create idea")
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idea)
}

// List pages through ideas with ?skip=&limit=.
func (h *IdeaHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, ok := queryInt(w, r, "skip")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	ideas, err := h.service.ListIdeas(r.Context(), skip, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list ideas")
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ideas)
}

// Get handles retrieving a single idea.
func (h *IdeaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := models.IdeaID(chi.URLParam(r, "id"))
	idea, err := h.service.GetIdea(r.Context(), id)
	if err != nil {
		log.Warn().Err(err).Str("idea_id", id.String()).Msg("Failed to get idea")
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

// Update applies a partial content edit. Creator only.
func (h *IdeaHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.IdeaPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	actor, _ := auth.UserFromContext(r.Context())
	id := models.IdeaID(chi.URLParam(r, "id"))
	idea, err := h.service.UpdateIdea(r.Context(), actor, id, patch)
	if err != nil {
		log.Warn().Err(err).Str("idea_id", id.String()).Msg("Failed to update idea")
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

// UpdateStatus moves an idea through the workflow. Admin only.
func (h *IdeaHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	actor, _ := auth.UserFromContext(r.Context())
	id := models.IdeaID(chi.URLParam(r, "id"))
	idea, err := h.service.UpdateStatus(r.Context(), actor, id, payload.Status)
	if err != nil {
		log.Warn().Err(err).Str("idea_id", id.String()).Msg("Failed to update idea status")
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

// Delete removes an idea with its votes and comments. Admin only.
func (h *IdeaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())
	id := models.IdeaID(chi.URLParam(r, "id"))
	if err := h.service.DeleteIdea(r.Context(), actor, id); err != nil {
		log.Warn().Err(err).Str("idea_id", id.String()).Msg("Failed to delete idea")
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// queryInt reads an optional integer query parameter; absent means 0.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		WriteError(w, models.Invalidf("%s must be an integer", name))
		return 0, false
	}
	return n, true
}
