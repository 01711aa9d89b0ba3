package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/isdelr/civic-ideas-be/internal/api/handlers"
	"github.com/isdelr/civic-ideas-be/internal/auth"
	"github.com/isdelr/civic-ideas-be/internal/database"
	"github.com/isdelr/civic-ideas-be/internal/metrics"
	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/isdelr/civic-ideas-be/internal/repository/sqlite"
	"github.com/isdelr/civic-ideas-be/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	handler http.Handler
	users   *services.UserService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	store := sqlite.New(db)
	t.Cleanup(func() { store.Close(context.Background()) })

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	tokens, err := auth.NewTokenService("router-secret", time.Hour)
	require.NoError(t, err)

	events := services.NewEventService(store.Events())
	users := services.NewUserService(store.Users(), auth.NewPasswordHasher(bcrypt.MinCost), tokens, events)
	ideas := services.NewIdeaService(store.Ideas(), nil, events)

	h := NewRouter(Dependencies{
		Users:       users,
		Ideas:       ideas,
		Votes:       services.NewVoteService(store.Votes(), store.Ideas(), collector),
		Comments:    services.NewCommentService(store.Comments(), store.Ideas()),
		Events:      events,
		Audit:       services.NewAuditService(store.Ideas(), store.Votes(), events),
		Guard:       auth.NewGuard(tokens, store.Users(), collector),
		Metrics:     collector,
		Gatherer:    reg,
		CORSOrigins: []string{"http://localhost:3000"},
	})
	return &testServer{handler: h, users: users}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) registerAndLogin(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/register", "", models.Registration{
		Email: email, FullName: "User " + email, Password: "password1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return s.login(t, email, "password1")
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/login", "", handlers.AuthPayload{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[services.LoginResult](t, rec)
	return res.AccessToken
}

func (s *testServer) createIdea(t *testing.T, token string) models.Idea {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/ideas", token, models.NewIdea{
		Title: "Fix the pothole", Description: "Big pothole on Main Street", Category: "potholes", Location: "Main Street",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Idea](t, rec)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/register", "", models.Registration{
		Email: "alice@example.com", FullName: "Alice", Password: "password1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(t, http.MethodPost, "/api/auth/register", "", models.Registration{
		Email: "ALICE@example.com", FullName: "Alice again", Password: "password1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decode[handlers.ErrorResponse](t, rec).Code)

	rec = s.do(t, http.MethodPost, "/api/auth/register", "", models.Registration{
		Email: "not-an-email", FullName: "X", Password: "password1",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", handlers.AuthPayload{Email: "alice@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", handlers.AuthPayload{Email: "alice@example.com", Password: "password1"})
	require.Equal(t, http.StatusOK, rec.Code)
	for _, key := range []string{`"access_token"`, `"token_type"`, `"expiresAt"`, `"user"`} {
		assert.Contains(t, rec.Body.String(), key)
	}
	res := decode[services.LoginResult](t, rec)
	assert.Equal(t, "bearer", res.TokenType)
	assert.False(t, res.ExpiresAt.IsZero())
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.TokenCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, res.AccessToken, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	rec = s.do(t, http.MethodGet, "/api/users/me", res.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice@example.com", decode[models.User](t, rec).Email)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/users/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	rec = s.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFormLogin(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLogin(t, "bob@example.com")

	form := url.Values{"username": {"bob@example.com"}, "password": {"password1"}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode[services.LoginResult](t, rec).AccessToken)
}

func TestIdeaVoteCommentFlow(t *testing.T) {
	s := newTestServer(t)
	alice := s.registerAndLogin(t, "alice@example.com")
	bob := s.registerAndLogin(t, "bob@example.com")

	rec := s.do(t, http.MethodPost, "/api/ideas", "", models.NewIdea{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	idea := s.createIdea(t, alice)
	assert.Equal(t, models.StatusRead, idea.Status)
	assert.Nil(t, idea.Latitude)
	base := "/api/ideas/" + idea.ID.String()

	rec = s.do(t, http.MethodPost, base+"/vote", bob, map[string]string{"voteType": "upvote"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	vr := decode[models.VoteResult](t, rec)
	assert.Equal(t, models.VoteCreated, vr.Outcome)
	assert.Equal(t, 1, vr.VoteScore)

	rec = s.do(t, http.MethodPost, base+"/vote?voteType=downvote", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -1, decode[models.VoteResult](t, rec).VoteScore)

	rec = s.do(t, http.MethodPost, base+"/vote", bob, map[string]string{"voteType": "meh"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, http.MethodGet, base+"/vote", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"voteType":"downvote"`)
	rec = s.do(t, http.MethodGet, base+"/vote", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"vote":null}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -1, decode[models.Idea](t, rec).VoteScore)

	newTitle := "Fix the big pothole"
	rec = s.do(t, http.MethodPatch, base, bob, models.IdeaPatch{Title: &newTitle})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodPatch, base, alice, models.IdeaPatch{Title: &newTitle})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, newTitle, decode[models.Idea](t, rec).Title)

	rec = s.do(t, http.MethodPost, base+"/comments", bob, map[string]string{"content": "Agreed"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, http.MethodGet, base+"/comments", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	comments := decode[[]models.Comment](t, rec)
	require.Len(t, comments, 1)
	assert.Equal(t, "User bob@example.com", comments[0].UserName)

	rec = s.do(t, http.MethodGet, "/api/ideas?limit=abc", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/ideas?skip=0&limit=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Idea](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/api/ideas/"+models.NewIdeaID().String(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRoutesUseLiveRecord(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	alice := s.registerAndLogin(t, "alice@example.com")
	_, err := s.users.EnsureAdmin(ctx, models.Registration{Email: "admin@example.com", FullName: "Admin", Password: "password1"})
	require.NoError(t, err)
	admin := s.login(t, "admin@example.com", "password1")

	idea := s.createIdea(t, alice)

	rec := s.do(t, http.MethodDelete, "/api/admin/ideas/"+idea.ID.String(), alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodPatch, "/api/admin/ideas/"+idea.ID.String()+"/status", alice, map[string]string{"status": "resolved"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/users/me", alice, nil)
	me := decode[models.User](t, rec)

	// Promotion applies to alice's existing token.
	rec = s.do(t, http.MethodPatch, "/api/admin/users/"+me.ID.String()+"/admin", admin, map[string]bool{"isAdmin": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPatch, "/api/admin/ideas/"+idea.ID.String()+"/status", alice, map[string]string{"status": "work_in_progress"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusWorkInProgress, decode[models.Idea](t, rec).Status)

	// Revocation is just as immediate.
	rec = s.do(t, http.MethodPatch, "/api/admin/users/"+me.ID.String()+"/admin", admin, map[string]bool{"isAdmin": false})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/admin/users", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/admin/ideas/"+idea.ID.String(), admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/ideas/"+idea.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/admin/events", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[[]models.Event](t, rec))

	rec = s.do(t, http.MethodPost, "/api/admin/audit", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"drift":[]}`, rec.Body.String())

	rec = s.do(t, http.MethodDelete, "/api/admin/users/"+me.ID.String(), admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/users/me", alice, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthMetricsAndNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.do(t, http.MethodGet, "/api/users/me", "bad", nil)
	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `civic_auth_failures_total{reason="invalid_token"} 1`)
	assert.Contains(t, rec.Body.String(), "civic_http_request_duration_seconds")

	rec = s.do(t, http.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[handlers.ErrorResponse](t, rec).Code)
}
