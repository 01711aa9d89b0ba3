package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/civic-ideas-be/internal/api/handlers"
	"github.com/isdelr/civic-ideas-be/internal/auth"
	"github.com/isdelr/civic-ideas-be/internal/metrics"
	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/isdelr/civic-ideas-be/internal/services"
	"github.com/prometheus/client_golang/prometheus"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Users    services.UserServiceProvider
	Ideas    services.IdeaServiceProvider
	Votes    services.VoteServiceProvider
	Comments services.CommentServiceProvider
	Events   services.EventServiceProvider
	Audit    services.AuditServiceProvider
	Guard    *auth.Guard

	// Metrics and Gatherer are optional; /metrics is served only when Gatherer is set.
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer

	CORSOrigins   []string
	SecureCookies bool
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Instrument)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(d.Users, d.Ideas, d.SecureCookies)
	ideaHandler := handlers.NewIdeaHandler(d.Ideas)
	voteHandler := handlers.NewVoteHandler(d.Votes)
	commentHandler := handlers.NewCommentHandler(d.Comments)
	eventHandler := handlers.NewEventHandler(d.Events, d.Audit)
	requireUser := Authenticator(d.Guard)

	if d.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(d.Gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
			r.Post("/token", userHandler.Login)
			r.Post("/logout", userHandler.Logout)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(requireUser).Get("/me", userHandler.GetMe)
			r.Get("/{id}", userHandler.Get)
			r.Get("/{id}/ideas", userHandler.GetIdeas)
		})

		r.Route("/ideas", func(r chi.Router) {
			r.Get("/", ideaHandler.List)
			r.With(requireUser).Post("/", ideaHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", ideaHandler.Get)
				r.Get("/comments", commentHandler.List)

				r.Group(func(r chi.Router) {
					r.Use(requireUser)
					r.Patch("/", ideaHandler.Update)
					r.Post("/vote", voteHandler.Cast)
					r.Get("/vote", voteHandler.Get)
					r.Post("/comments", commentHandler.Create)
				})
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireUser)
			r.Use(AdminOnly)

			r.Get("/users", userHandler.List)
			r.Delete("/users/{id}", userHandler.Delete)
			r.Patch("/users/{id}/admin", userHandler.SetAdmin)
			r.Delete("/ideas/{id}", ideaHandler.Delete)
			r.Patch("/ideas/{id}/status", ideaHandler.UpdateStatus)
			r.Get("/events", eventHandler.GetRecent)
			r.Post("/audit", eventHandler.RunAudit)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, models.NotFound("route not found"))
	})

	return r
}
