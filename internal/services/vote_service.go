package services

import (
	"context"
	"errors"
	"time"

	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/isdelr/civic-ideas-be/internal/repository"
	"github.com/rs/zerolog/log"
)

// VoteRecorder counts cast votes by outcome.
type VoteRecorder interface {
	RecordVote(outcome models.VoteOutcome)
}

// VoteServiceProvider defines the interface for the vote ledger.
type VoteServiceProvider interface {
	CastVote(ctx context.Context, actor *models.User, ideaID models.IdeaID, voteType string) (*models.VoteResult, error)
	GetVote(ctx context.Context, actor *models.User, ideaID models.IdeaID) (*models.Vote, error)
}

// VoteService keeps each idea's cached score in step with its vote ledger.
type VoteService struct {
	votes   repository.VoteRepository
	ideas   repository.IdeaRepository
	metrics VoteRecorder
	now     func() time.Time
}

// NewVoteService creates a new VoteService. metrics may be nil.
func NewVoteService(votes repository.VoteRepository, ideas repository.IdeaRepository, metrics VoteRecorder) *VoteService {
	return &VoteService{votes: votes, ideas: ideas, metrics: metrics, now: time.Now}
}

// CastVote records actor's vote on an idea:
//
//	no prior vote   -> insert, score += weight
//	same type       -> nothing changes
//	different type  -> update, score += new weight - old weight
//
// The ledger write and the score change commit together. If a concurrent
// first vote by the same user wins the insert, the cast is retried once and
// then sees that vote.
func (s *VoteService) CastVote(ctx context.Context, actor *models.User, ideaID models.IdeaID, voteType string) (*models.VoteResult, error) {
	if actor == nil {
		return nil, models.Unauthenticated("not authenticated")
	}
	vt, err := models.ParseVoteType(voteType)
	if err != nil {
		return nil, err
	}

	result, err := s.cast(ctx, actor.ID, ideaID, vt)
	if errors.Is(err, repository.ErrConflict) {
		log.Debug().Str("idea_id", ideaID.String()).Str("user_id", actor.ID.String()).Msg("Vote insert raced, retrying")
		result, err = s.cast(ctx, actor.ID, ideaID, vt)
	}
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordVote(result.Outcome)
	}
	return result, nil
}

func (s *VoteService) cast(ctx context.Context, userID models.UserID, ideaID models.IdeaID, vt models.VoteType) (*models.VoteResult, error) {
	var result models.VoteResult
	err := s.votes.WithinTx(ctx, func(tx repository.VoteTx) error {
		score, err := tx.Score(ideaID)
		if err != nil {
			return err
		}

		existing, err := tx.Find(ideaID, userID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			vote := models.Vote{
				ID:        models.NewVoteID(),
				IdeaID:    ideaID,
				UserID:    userID,
				Type:      vt,
				CreatedAt: s.now().UTC(),
			}
			if err := tx.Insert(&vote); err != nil {
				return err
			}
			delta := models.ScoreDelta(nil, vt)
			if err := tx.AdjustScore(ideaID, delta); err != nil {
				return err
			}
			result = models.VoteResult{Outcome: models.VoteCreated, Vote: vote, VoteScore: score + delta}
			return nil
		case err != nil:
			return err
		}

		if existing.Type == vt {
			result = models.VoteResult{Outcome: models.VoteUnchanged, Vote: *existing, VoteScore: score}
			return nil
		}

		delta := models.ScoreDelta(&existing.Type, vt)
		if err := tx.UpdateType(existing.ID, vt); err != nil {
			return err
		}
		if err := tx.AdjustScore(ideaID, delta); err != nil {
			return err
		}
		existing.Type = vt
		result = models.VoteResult{Outcome: models.VoteSwitched, Vote: *existing, VoteScore: score + delta}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetVote returns actor's vote on an idea, or nil if they have not voted.
func (s *VoteService) GetVote(ctx context.Context, actor *models.User, ideaID models.IdeaID) (*models.Vote, error) {
	if actor == nil {
		return nil, models.Unauthenticated("not authenticated")
	}
	if _, err := s.ideas.GetByID(ctx, ideaID); err != nil {
		return nil, err
	}
	vote, err := s.votes.Find(ctx, ideaID, actor.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return vote, err
}
