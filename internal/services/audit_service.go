package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/isdelr/civic-ideas-be/internal/repository"
)

// ScoreDrift is an idea whose cached score differs from its ledger tally.
type ScoreDrift struct {
	IdeaID models.IdeaID `json:"ideaId"`
	Cached int           `json:"cached"`
	Tally  int           `json:"tally"`
}

// AuditServiceProvider defines the interface for the score audit.
type AuditServiceProvider interface {
	AuditScores(ctx context.Context) ([]ScoreDrift, error)
}

// AuditService compares cached idea scores against the vote ledger. It
// reports drift but never rewrites a score.
type AuditService struct {
	ideas  repository.IdeaRepository
	votes  repository.VoteRepository
	events EventServiceProvider
}

// NewAuditService creates a new AuditService.
func NewAuditService(ideas repository.IdeaRepository, votes repository.VoteRepository, events EventServiceProvider) *AuditService {
	return &AuditService{ideas: ideas, votes: votes, events: events}
}

// AuditScores returns every drifting idea, ordered by ID, and records an
// event for each.
func (s *AuditService) AuditScores(ctx context.Context) ([]ScoreDrift, error) {
	scores, err := s.ideas.ListScores(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	tallies, err := s.votes.Tallies(ctx)
	if err != nil {
		return nil, fmt.Errorf("tally votes: %w", err)
	}

	var drift []ScoreDrift
	for id, cached := range scores {
		if tally := tallies[id]; tally != cached {
			drift = append(drift, ScoreDrift{IdeaID: id, Cached: cached, Tally: tally})
		}
	}
	sort.Slice(drift, func(i, j int) bool { return drift[i].IdeaID < drift[j].IdeaID })

	for _, d := range drift {
		id := d.IdeaID
		record(ctx, s.events, EventScoreDrift, "warn",
			fmt.Sprintf("Cached score %d differs from ledger tally %d", d.Cached, d.Tally), &id)
	}
	return drift, nil
}
