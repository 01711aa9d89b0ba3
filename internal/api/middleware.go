package api

import (
	"net/http"

	"github.com/isdelr/civic-ideas-be/internal/api/handlers"
	"github.com/isdelr/civic-ideas-be/internal/auth"
	"github.com/rs/zerolog/log"
)

// Authenticator resolves the bearer token to the live user record and
// stores it in the request context.
func Authenticator(guard *auth.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := guard.Authenticate(r.Context(), auth.TokenFromRequest(r))
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected request")
				handlers.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), user)))
		})
	}
}

// AdminOnly rejects users whose live record is not an admin. It must run
// after Authenticator.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := auth.UserFromContext(r.Context())
		if err := auth.RequireAdmin(user); err != nil {
			handlers.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
