// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services report to.
type Recorder interface {
	RecordVote(outcome models.VoteOutcome)
	RecordAuthFailure(reason string)
	RecordGeocode(result string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordVote(models.VoteOutcome) {}
func (Nop) RecordAuthFailure(string)      {}
func (Nop) RecordGeocode(string)          {}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	votes        *prometheus.CounterVec
	authFailures *prometheus.CounterVec
	geocodes     *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewCollector registers the collectors on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_votes_total",
			Help: "Votes cast, by outcome.",
		}, []string{"outcome"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_auth_failures_total",
			Help: "Rejected authentications, by reason.",
		}, []string{"reason"}),
		geocodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "civic_geocode_lookups_total",
			Help: "Geocoder lookups, by result.",
		}, []string{"result"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "civic_http_request_duration_seconds",
			Help:    "HTTP request latency, by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(c.votes, c.authFailures, c.geocodes, c.httpDuration)
	return c
}

func (c *Collector) RecordVote(outcome models.VoteOutcome) {
	c.votes.WithLabelValues(string(outcome)).Inc()
}

func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordGeocode(result string) {
	c.geocodes.WithLabelValues(result).Inc()
}

// Instrument observes request latency labelled by the matched chi route
// pattern, so path parameters do not blow up cardinality.
func (c *Collector) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.httpDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// Handler serves the scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
