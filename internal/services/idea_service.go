package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/civic-ideas-be/internal/auth"
	"github.com/isdelr/civic-ideas-be/internal/geocode"
	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/isdelr/civic-ideas-be/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Geocoder resolves a location string to coordinates.
type Geocoder interface {
	Lookup(ctx context.Context, location string) (*models.Coordinates, error)
}

// IdeaServiceProvider defines the interface for idea services.
type IdeaServiceProvider interface {
	CreateIdea(ctx context.Context, actor *models.User, in models.NewIdea) (*models.Idea, error)
	GetIdea(ctx context.Context, id models.IdeaID) (*models.Idea, error)
	ListIdeas(ctx context.Context, skip, limit int) ([]models.Idea, error)
	ListIdeasByCreator(ctx context.Context, creator models.UserID) ([]models.Idea, error)
	UpdateIdea(ctx context.Context, actor *models.User, id models.IdeaID, patch models.IdeaPatch) (*models.Idea, error)
	UpdateStatus(ctx context.Context, actor *models.User, id models.IdeaID, status string) (*models.Idea, error)
	DeleteIdea(ctx context.Context, actor *models.User, id models.IdeaID) error
}

// IdeaService provides business logic for ideas.
type IdeaService struct {
	ideas    repository.IdeaRepository
	geocoder Geocoder
	events   EventServiceProvider
	now      func() time.Time
}

// NewIdeaService creates a new IdeaService. geocoder may be nil, in which
// case ideas are stored without coordinates.
func NewIdeaService(ideas repository.IdeaRepository, geocoder Geocoder, events EventServiceProvider) *IdeaService {
	return &IdeaService{ideas: ideas, geocoder: geocoder, events: events, now: time.Now}
}

// CreateIdea stores a new idea owned by actor. New ideas start in the
// "read" status with a zero score.
func (s *IdeaService) CreateIdea(ctx context.Context, actor *models.User, in models.NewIdea) (*models.Idea, error) {
	if actor == nil {
		return nil, models.Unauthenticated("not authenticated")
	}
	category, err := in.Validate()
	if err != nil {
		return nil, err
	}

	idea := &models.Idea{
		ID:          models.NewIdeaID(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    category,
		Location:    strings.TrimSpace(in.Location),
		CreatorID:   actor.ID,
		CreatorName: actor.FullName,
		Status:      models.StatusRead,
		CreatedAt:   s.now().UTC(),
	}
	idea.SetCoordinates(s.locate(ctx, idea.Location))

	if err := s.ideas.Create(ctx, idea); err != nil {
		return nil, fmt.Errorf("create idea: %w", err)
	}
	return idea, nil
}

// locate returns nil when the location cannot be resolved for any reason.
func (s *IdeaService) locate(ctx context.Context, location string) *models.Coordinates {
	if s.geocoder == nil || location == "" {
		return nil
	}
	coords, err := s.geocoder.Lookup(ctx, location)
	if err != nil {
		if errors.Is(err, geocode.ErrNoResult) {
			log.Debug().Str("location", location).Msg("No geocoding match")
		} else {
			log.Warn().Err(err).Str("location", location).Msg("Geocoding failed, storing idea without coordinates")
		}
		return nil
	}
	return coords
}

// GetIdea retrieves a single idea.
func (s *IdeaService) GetIdea(ctx context.Context, id models.IdeaID) (*models.Idea, error) {
	return s.ideas.GetByID(ctx, id)
}

// ListIdeas pages through ideas, newest first. A zero limit means
// DefaultPageSize; larger limits are capped at MaxPageSize.
func (s *IdeaService) ListIdeas(ctx context.Context, skip, limit int) ([]models.Idea, error) {
	if skip < 0 {
		return nil, models.Invalid("skip must not be negative")
	}
	switch {
	case limit < 0:
		return nil, models.Invalid("limit must not be negative")
	case limit == 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	return s.ideas.List(ctx, skip, limit)
}

// ListIdeasByCreator returns a user's ideas, newest first.
func (s *IdeaService) ListIdeasByCreator(ctx context.Context, creator models.UserID) ([]models.Idea, error) {
	return s.ideas.ListByCreator(ctx, creator)
}

// UpdateIdea changes the supplied content fields. Only the creator may do
// this; a changed location is geocoded again. Fields the patch leaves out are
// not written, so concurrent edits to other fields survive.
func (s *IdeaService) UpdateIdea(ctx context.Context, actor *models.User, id models.IdeaID, patch models.IdeaPatch) (*models.Idea, error) {
	idea, err := s.ideas.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.CanEditContent(actor, idea.CreatorID); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return idea, nil
	}

	update, err := patch.Changes()
	if err != nil {
		return nil, err
	}
	if update.Location != nil && *update.Location != idea.Location {
		update.Relocate(s.locate(ctx, *update.Location))
	}

	if err := s.ideas.UpdateContent(ctx, id, update); err != nil {
		return nil, err
	}
	return s.ideas.GetByID(ctx, id)
}

// UpdateStatus moves an idea through the workflow. Admin only.
func (s *IdeaService) UpdateStatus(ctx context.Context, actor *models.User, id models.IdeaID, status string) (*models.Idea, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	st, err := models.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	if err := s.ideas.SetStatus(ctx, id, st); err != nil {
		return nil, err
	}
	record(ctx, s.events, EventIdeaStatus, "info",
		fmt.Sprintf("Status set to %s by %s", st, actor.Email), &id)
	return s.ideas.GetByID(ctx, id)
}

// DeleteIdea removes an idea with its votes and comments. Admin only.
func (s *IdeaService) DeleteIdea(ctx context.Context, actor *models.User, id models.IdeaID) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	if err := s.ideas.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Str("idea_id", id.String()).Str("admin", actor.Email).Msg("Idea deleted")
	record(ctx, s.events, EventIdeaDeleted, "warn",
		fmt.Sprintf("Idea %s deleted by %s", id, actor.Email), &id)
	return nil
}
