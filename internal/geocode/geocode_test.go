package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resultRecorder struct{ results []string }

func (r *resultRecorder) RecordGeocode(result string) { r.results = append(r.results, result) }

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *resultRecorder) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	rec := &resultRecorder{}
	c, err := New(Config{BaseURL: srv.URL + "/search", UserAgent: "test-agent"},
		WithHTTPClient(srv.Client()), WithRecorder(rec))
	require.NoError(t, err)
	return c, rec
}

func TestLookup(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "Main Street", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{"lat":"52.5200","lon":"13.4050","display_name":"Berlin"}]`))
	})

	coords, err := c.Lookup(context.Background(), "Main Street")
	require.NoError(t, err)
	assert.InDelta(t, 52.52, coords.Latitude, 1e-9)
	assert.InDelta(t, 13.405, coords.Longitude, 1e-9)
	assert.Equal(t, []string{"ok"}, rec.results)
}

func TestLookupNoResult(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := c.Lookup(context.Background(), "Nowhere")
	assert.ErrorIs(t, err, ErrNoResult)
	assert.Equal(t, []string{"no_result"}, rec.results)
}

func TestLookupFailures(t *testing.T) {
	tests := []struct {
		name string
		h    http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) }},
		{"bad json", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{`)) }},
		{"bad latitude", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`[{"lat":"north","lon":"1"}]`)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestClient(t, tt.h)
			coords, err := c.Lookup(context.Background(), "Somewhere")
			assert.Error(t, err)
			assert.Nil(t, coords)
			assert.Equal(t, []string{"error"}, rec.results)
		})
	}
}

func TestDefaultClientBlocksLoopback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"1","lon":"1"}]`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, Timeout: time.Second})
	require.NoError(t, err)
	_, err = c.Lookup(context.Background(), "Main Street")
	assert.Error(t, err)
}

func TestNewRejectsBadScheme(t *testing.T) {
	_, err := New(Config{BaseURL: "ftp://example.com/search"})
	assert.Error(t, err)
}

func TestLookupHonoursContext(t *testing.T) {
	c, err := New(Config{BaseURL: "http://example.invalid/search", Rate: 0.001})
	require.NoError(t, err)
	// Consume the single burst token, then cancel the wait for the next.
	c.limiter.Allow()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Lookup(ctx, "Main Street")
	assert.Error(t, err)
}
