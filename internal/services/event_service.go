package services

import (
	"context"
	"time"

	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/isdelr/civic-ideas-be/internal/repository"
	"github.com/rs/zerolog/log"
)

// Event types recorded by the services.
const (
	EventIdeaDeleted    = "idea.delete"
	EventIdeaStatus     = "idea.status"
	EventUserDeleted    = "user.delete"
	EventUserAdmin      = "user.admin"
	EventScoreDrift     = "idea.score.drift"
	EventScoreAuditFail = "idea.score.audit.fail"
)

const maxRecentEvents = 200

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, ideaID *models.IdeaID) error
	GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
}

// EventService records moderation actions and audit findings.
type EventService struct {
	events repository.EventRepository
	now    func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(events repository.EventRepository) *EventService {
	return &EventService{events: events, now: time.Now}
}

// CreateEvent logs a new event.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, ideaID *models.IdeaID) error {
	event := models.Event{
		ID:        models.NewEventID(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		IdeaID:    ideaID,
		CreatedAt: s.now().UTC(),
	}
	return s.events.Create(ctx, &event)
}

// GetRecentEvents returns the newest events first. limit is clamped to [1, 200].
func (s *EventService) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	if limit <= 0 || limit > maxRecentEvents {
		limit = maxRecentEvents
	}
	return s.events.Recent(ctx, limit)
}

// record writes an event and only logs if that fails; the action it
// describes has already happened.
func record(ctx context.Context, events EventServiceProvider, eventType, level, message string, ideaID *models.IdeaID) {
	if events == nil {
		return
	}
	if err := events.CreateEvent(ctx, eventType, level, message, ideaID); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("Failed to record event")
	}
}
