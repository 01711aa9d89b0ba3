package auth

import (
	"context"

	"github.com/isdelr/civic-ideas-be/internal/models"
)

type contextKey string

// userContextKey is the context key for the authenticated user record.
const userContextKey = contextKey("authUser")

// ContextWithUser attaches the live user record resolved by the Guard.
func ContextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the user attached by ContextWithUser.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}
