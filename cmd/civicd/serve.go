package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/civic-ideas-be/internal/api"
	"github.com/isdelr/civic-ideas-be/internal/auth"
	"github.com/isdelr/civic-ideas-be/internal/config"
	"github.com/isdelr/civic-ideas-be/internal/geocode"
	"github.com/isdelr/civic-ideas-be/internal/metrics"
	"github.com/isdelr/civic-ideas-be/internal/monitoring"
	"github.com/isdelr/civic-ideas-be/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd.Context(), configFromContext(cmd.Context()))
		},
	}
}

func serveRun(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("Failed to close store")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, auth.WithIssuer(cfg.JWTIssuer))
	if err != nil {
		return err
	}
	geocoder, err := geocode.New(geocode.Config{
		BaseURL:   cfg.GeocoderURL,
		UserAgent: cfg.GeocoderUserAgent,
		Timeout:   cfg.GeocoderTimeout,
		Rate:      cfg.GeocoderRate,
	}, geocode.WithRecorder(collector))
	if err != nil {
		return err
	}

	// Set up services
	eventService := services.NewEventService(store.Events())
	userService := services.NewUserService(store.Users(), auth.NewPasswordHasher(cfg.BcryptCost), tokens, eventService)
	ideaService := services.NewIdeaService(store.Ideas(), geocoder, eventService)
	voteService := services.NewVoteService(store.Votes(), store.Ideas(), collector)
	commentService := services.NewCommentService(store.Comments(), store.Ideas())
	auditService := services.NewAuditService(store.Ideas(), store.Votes(), eventService)

	// Set up and run the background scheduler
	scheduler, err := monitoring.NewScheduler(cfg.ScoreAuditSchedule, auditService, eventService)
	if err != nil {
		return err
	}
	scheduler.Start()

	router := api.NewRouter(api.Dependencies{
		Users:         userService,
		Ideas:         ideaService,
		Votes:         voteService,
		Comments:      commentService,
		Events:        eventService,
		Audit:         auditService,
		Guard:         auth.NewGuard(tokens, store.Users(), collector),
		Metrics:       collector,
		Gatherer:      reg,
		CORSOrigins:   cfg.CORSOrigins,
		SecureCookies: !cfg.IsDevelopment(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		scheduler.Stop(context.Background())
		return fmt.Errorf("ListenAndServe: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("Server exiting")
	return nil
}
