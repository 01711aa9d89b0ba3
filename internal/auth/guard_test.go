package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	byEmail map[string]*models.User
	err     error
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, models.NotFound("user not found")
	}
	return u, nil
}

type countingRecorder struct {
	reasons []string
}

func (c *countingRecorder) RecordAuthFailure(reason string) {
	c.reasons = append(c.reasons, reason)
}

func TestGuardAuthenticate(t *testing.T) {
	tokens := newTestTokenService(t)
	alice := &models.User{ID: "u-1", Email: "alice@example.com", FullName: "Alice"}
	users := &fakeUsers{byEmail: map[string]*models.User{alice.Email: alice}}
	rec := &countingRecorder{}
	guard := NewGuard(tokens, users, rec)

	token, _, err := tokens.IssueFor(alice.Email, false)
	require.NoError(t, err)

	got, err := guard.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = guard.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	_, err = guard.Authenticate(context.Background(), token+"x")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	expired, _, err := tokens.Issue(alice.Email, false, -time.Minute)
	require.NoError(t, err)
	_, err = guard.Authenticate(context.Background(), expired)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	assert.Equal(t, []string{"missing_token", "invalid_token", "invalid_token"}, rec.reasons)
}

func TestGuardDeletedUserWithStaleToken(t *testing.T) {
	tokens := newTestTokenService(t)
	guard := NewGuard(tokens, &fakeUsers{byEmail: map[string]*models.User{}}, nil)

	token, _, err := tokens.IssueFor("gone@example.com", true)
	require.NoError(t, err)

	_, err = guard.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestGuardStorageFailureIsNotUnauthenticated(t *testing.T) {
	tokens := newTestTokenService(t)
	boom := errors.New("storage down")
	guard := NewGuard(tokens, &fakeUsers{err: boom}, nil)

	token, _, err := tokens.IssueFor("alice@example.com", false)
	require.NoError(t, err)

	_, err = guard.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, models.ErrUnauthenticated)
}

func TestAdminCheckUsesLiveRecordNotClaim(t *testing.T) {
	tokens := newTestTokenService(t)
	// Token still claims admin, but the admin flag has since been revoked.
	demoted := &models.User{ID: "u-2", Email: "bob@example.com", IsAdmin: false}
	guard := NewGuard(tokens, &fakeUsers{byEmail: map[string]*models.User{demoted.Email: demoted}}, nil)

	token, _, err := tokens.IssueFor(demoted.Email, true)
	require.NoError(t, err)

	user, err := guard.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.ErrorIs(t, RequireAdmin(user), models.ErrForbidden)

	demoted.IsAdmin = true
	assert.NoError(t, RequireAdmin(user))
}

func TestOwnershipRules(t *testing.T) {
	creator := &models.User{ID: "creator"}
	stranger := &models.User{ID: "stranger"}
	admin := &models.User{ID: "admin", IsAdmin: true}

	assert.NoError(t, CanEditContent(creator, "creator"))
	assert.ErrorIs(t, CanEditContent(stranger, "creator"), models.ErrForbidden)
	assert.ErrorIs(t, CanEditContent(admin, "creator"), models.ErrForbidden)
	assert.ErrorIs(t, CanEditContent(nil, "creator"), models.ErrUnauthenticated)
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", TokenFromRequest(r))

	r.Header.Set("Authorization", "Bearer abc.def.ghi")
	assert.Equal(t, "abc.def.ghi", TokenFromRequest(r))

	r.Header.Set("Authorization", "bearer   spaced ")
	assert.Equal(t, "spaced", TokenFromRequest(r))

	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	assert.Equal(t, "", TokenFromRequest(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", TokenFromRequest(r))
}
