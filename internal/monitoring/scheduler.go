package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/civic-ideas-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultAuditSchedule runs the score audit hourly.
const DefaultAuditSchedule = "@hourly"

const auditTimeout = 2 * time.Minute

// Scheduler runs the periodic score audit.
type Scheduler struct {
	auditSvc services.AuditServiceProvider
	eventSvc services.EventServiceProvider
	cron     *cron.Cron
}

// NewScheduler creates a scheduler that audits on spec, a standard cron
// expression or descriptor such as "@every 30m".
func NewScheduler(spec string, auditSvc services.AuditServiceProvider, eventSvc services.EventServiceProvider) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultAuditSchedule
	}
	s := &Scheduler{
		auditSvc: auditSvc,
		eventSvc: eventSvc,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
	if _, err := s.cron.AddFunc(spec, s.runAudit); err != nil {
		return nil, fmt.Errorf("invalid audit schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	log.Info().Msg("Starting background scheduler...")
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running audit to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		log.Info().Msg("Stopped background scheduler.")
	case <-ctx.Done():
		log.Warn().Msg("Background scheduler did not stop in time")
	}
}

// runAudit performs one audit pass.
func (s *Scheduler) runAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()

	drift, err := s.auditSvc.AuditScores(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: score audit failed")
		if s.eventSvc != nil {
			msg := fmt.Sprintf("Score audit failed: %v", err)
			if err := s.eventSvc.CreateEvent(ctx, services.EventScoreAuditFail, "error", msg, nil); err != nil {
				log.Error().Err(err).Msg("Scheduler: failed to record audit failure")
			}
		}
		return
	}
	if len(drift) > 0 {
		log.Warn().Int("ideas", len(drift)).Msg("Scheduler: cached vote scores drift from the ledger")
		return
	}
	log.Debug().Msg("Scheduler: vote scores match the ledger")
}
