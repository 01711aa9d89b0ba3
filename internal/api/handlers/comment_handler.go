package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/civic-ideas-be/internal/auth"
	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/isdelr/civic-ideas-be/internal/services"
	"github.com/rs/zerolog/log"
)

// CommentHandler handles HTTP requests for comments.
type CommentHandler struct {
	service services.CommentServiceProvider
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(service services.CommentServiceProvider) *CommentHandler {
	return &CommentHandler{service: service}
}

// Create adds a comment to an idea.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	actor, _ := auth.UserFromContext(r.Context())
	id := models.IdeaID(chi.URLParam(r, "id"))
	comment, err := h.service.AddComment(r.Context(), actor, id, payload.Content)
	if err != nil {
		log.Warn().Err(err).Str("idea_id", id.String()).Msg("Failed to add comment")
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// List returns an idea's comments, oldest first.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	id := models.IdeaID(chi.URLParam(r, "id"))
	comments, err := h.service.ListComments(r.Context(), id)
	if err != nil {
		log.Warn().Err(err).Str("idea_id", id.String()).Msg("Failed to list comments")
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}
