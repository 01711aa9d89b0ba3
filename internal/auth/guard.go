package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/isdelr/civic-ideas-be/internal/models"
)

// TokenCookieName is the cookie set at login and accepted when no bearer header is present.
const TokenCookieName = "token"

const bearerPrefix = "bearer "

// UserLookup resolves the live user record for a token subject. It returns an
// error matching models.ErrNotFound when the user no longer exists.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// FailureRecorder counts rejected authentications by reason.
type FailureRecorder interface {
	RecordAuthFailure(reason string)
}

// Guard turns a bearer token into the requesting user's live record and
// enforces role and ownership rules against it.
type Guard struct {
	tokens  *TokenService
	users   UserLookup
	metrics FailureRecorder
}

// NewGuard creates a Guard. metrics may be nil.
func NewGuard(tokens *TokenService, users UserLookup, metrics FailureRecorder) *Guard {
	return &Guard{tokens: tokens, users: users, metrics: metrics}
}

// Authenticate validates token and loads the current user it names.
func (g *Guard) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		g.fail("missing_token")
		return nil, models.Unauthenticated("missing auth token")
	}
	claims, err := g.tokens.Validate(token)
	if err != nil {
		g.fail("invalid_token")
		return nil, models.Unauthenticated("could not validate credentials")
	}
	user, err := g.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			g.fail("unknown_subject")
			return nil, models.Unauthenticated("could not validate credentials")
		}
		return nil, fmt.Errorf("resolve token subject: %w", err)
	}
	return user, nil
}

func (g *Guard) fail(reason string) {
	if g.metrics != nil {
		g.metrics.RecordAuthFailure(reason)
	}
}

// RequireAdmin checks the live record's admin flag; the token claim is never consulted.
func RequireAdmin(user *models.User) error {
	if user == nil {
		return models.Unauthenticated("not authenticated")
	}
	if !user.IsAdmin {
		return models.Forbidden("you do not have permission to access this resource")
	}
	return nil
}

// CanEditContent allows only the creator to change a resource's content. Admins get no bypass here.
func CanEditContent(user *models.User, creator models.UserID) error {
	if user == nil {
		return models.Unauthenticated("not authenticated")
	}
	if user.ID != creator {
		return models.Forbidden("not authorized to edit this resource")
	}
	return nil
}

// TokenFromRequest reads the bearer token from the Authorization header,
// falling back to the token cookie.
func TokenFromRequest(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			return strings.TrimSpace(header[len(bearerPrefix):])
		}
		return ""
	}
	if cookie, err := r.Cookie(TokenCookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
