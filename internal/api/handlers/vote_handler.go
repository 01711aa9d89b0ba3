package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/civic-ideas-be/internal/auth"
	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/isdelr/civic-ideas-be/internal/services"
	"github.com/rs/zerolog/log"
)

// VoteHandler handles HTTP requests for votes.
type VoteHandler struct {
	service services.VoteServiceProvider
}

// NewVoteHandler creates a new VoteHandler.
func NewVoteHandler(service services.VoteServiceProvider) *VoteHandler {
	return &VoteHandler{service: service}
}

// Cast records the caller's vote. The type comes from the voteType query
// parameter or a {"voteType": ...} body.
func (h *VoteHandler) Cast(w http.ResponseWriter, r *http.Request) {
	voteType := r.URL.Query().Get("voteType")
	if voteType == "" {
		var payload struct {
			VoteType string `json:"voteType"`
		}
		if !decodeJSON(w, r, &payload) {
			return
		}
		voteType = payload.VoteType
	}

	actor, _ := auth.UserFromContext(r.Context())
	id := models.IdeaID(chi.URLParam(r, "id"))
	res, err := h.service.CastVote(r.Context(), actor, id, voteType)
	if err != nil {
		log.Warn().Err(err).Str("idea_id", id.String()).Msg("Failed to cast vote")
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Get returns the caller's vote on an idea, with a null vote if they have none.
func (h *VoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())
	id := models.IdeaID(chi.URLParam(r, "id"))
	vote, err := h.service.GetVote(r.Context(), actor, id)
	if err != nil {
		log.Warn().Err(err).Str("idea_id", id.String()).Msg("Failed to get vote")
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vote": vote})
}
