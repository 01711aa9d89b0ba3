package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/civic-ideas-be/internal/auth"
	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/isdelr/civic-ideas-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for accounts and sessions.
type UserHandler struct {
	service       services.UserServiceProvider
	ideas         services.IdeaServiceProvider
	secureCookies bool
}

// NewUserHandler creates a new UserHandler. secureCookies sets the Secure
// flag on the session cookie.
func NewUserHandler(service services.UserServiceProvider, ideas services.IdeaServiceProvider, secureCookies bool) *UserHandler {
	return &UserHandler{service: service, ideas: ideas, secureCookies: secureCookies}
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload models.Registration
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.service.Register(r.Context(), payload)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login authenticates with a JSON body, or with an OAuth2 password form
// (username, password), and returns a bearer token. The token is also set
// as a cookie.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			writeBadRequest(w, "invalid form body")
			return
		}
		payload.Email = r.PostForm.Get("username")
		payload.Password = r.PostForm.Get("password")
	} else if !decodeJSON(w, r, &payload) {
		return
	}

	res, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
		WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    res.AccessToken,
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
	writeJSON(w, http.StatusOK, res)
}

// Logout clears the session cookie. Tokens stay valid until they expire.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
	w.WriteHeader(http.StatusNoContent)
}

// GetMe returns the authenticated user.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user from context")
		WriteError(w, models.Unauthenticated("not authenticated"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Get handles retrieving a user by their ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := models.UserID(chi.URLParam(r, "id"))
	user, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		log.Warn().Err(err).Str("user_id", id.String()).Msg("Failed to get user by ID")
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetIdeas lists the ideas a user created, newest first.
func (h *UserHandler) GetIdeas(w http.ResponseWriter, r *http.Request) {
	id := models.UserID(chi.URLParam(r, "id"))
	ideas, err := h.ideas.ListIdeasByCreator(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("user_id", id.String()).Msg("Failed to list user ideas")
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ideas)
}

// List returns every user. Admin only.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())
	users, err := h.service.ListUsers(r.Context(), actor)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// SetAdmin grants or revokes admin rights. Admin only.
func (h *UserHandler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		IsAdmin *bool `json:"isAdmin"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if payload.IsAdmin == nil {
		WriteError(w, models.Invalid("isAdmin is required"))
		return
	}

	actor, _ := auth.UserFromContext(r.Context())
	id := models.UserID(chi.URLParam(r, "id"))
	user, err := h.service.SetAdmin(r.Context(), actor, id, *payload.IsAdmin)
	if err != nil {
		log.Warn().Err(err).Str("user_id", id.String()).Msg("Failed to change admin flag")
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Delete removes a user with their ideas and votes. Admin only.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())
	id := models.UserID(chi.URLParam(r, "id"))
	if err := h.service.DeleteUser(r.Context(), actor, id); err != nil {
		log.Warn().Err(err).Str("user_id", id.String()).Msg("Failed to delete user")
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
