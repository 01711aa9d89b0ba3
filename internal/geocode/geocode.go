// Package geocode resolves free-form locations to coordinates through a
// Nominatim-compatible search endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/doyensec/safeurl"
	"github.com/isdelr/civic-ideas-be/internal/models"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org/search"
	DefaultUserAgent = "CivicIdeaPlatform/1.0"

	maxResponseSize = 1 << 20
)

// ErrNoResult is returned when the service knows no place by that name.
var ErrNoResult = errors.New("geocode: no result")

// Recorder receives one outcome label per lookup: ok, no_result or error.
type Recorder interface {
	RecordGeocode(result string)
}

type nopRecorder struct{}

func (nopRecorder) RecordGeocode(string) {}

// Config describes the upstream service.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// Rate is the number of lookups allowed per second. Zero means unlimited.
	Rate float64
}

// Client looks up coordinates. It is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	recorder  Recorder
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the SSRF-guarded client, e.g. for tests against
// a loopback server.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRecorder reports lookup outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// New builds a client for cfg. Unset fields take the package defaults.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid geocoder URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid geocoder URL scheme %q", base.Scheme)
	}

	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}

	safeCfg := safeurl.GetConfigBuilder().
		SetTimeout(cfg.Timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	c := &Client{
		baseURL:   base,
		userAgent: cfg.UserAgent,
		http:      safeurl.Client(safeCfg).Client,
		limiter:   rate.NewLimiter(limit, 1),
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Lookup returns the best match for location.
func (c *Client) Lookup(ctx context.Context, location string) (*models.Coordinates, error) {
	coords, err := c.lookup(ctx, location)
	switch {
	case err == nil:
		c.recorder.RecordGeocode("ok")
	case errors.Is(err, ErrNoResult):
		c.recorder.RecordGeocode("no_result")
	default:
		c.recorder.RecordGeocode("error")
	}
	return coords, err
}

func (c *Client) lookup(ctx context.Context, location string) (*models.Coordinates, error) {
	if location == "" {
		return nil, ErrNoResult
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := *c.baseURL
	q := u.Query()
	q.Set("q", location)
	q.Set("format", "json")
	q.Set("limit", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode request: unexpected status %d", resp.StatusCode)
	}

	var places []place
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&places); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(places) == 0 {
		return nil, ErrNoResult
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", places[0].Lon, err)
	}
	return &models.Coordinates{Latitude: lat, Longitude: lon}, nil
}
