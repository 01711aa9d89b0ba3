// Package repository defines persistence interfaces shared by the sqlite and mongo backends.
package repository

import (
	"context"

	"github.com/isdelr/civic-ideas-be/internal/models"
)

// UserRepository persists user accounts.
type UserRepository interface {
	// Create inserts user. Returns an error matching ErrConflict if the email is taken.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id models.UserID) (*models.User, error)
	// GetByEmail includes the password hash.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	SetAdmin(ctx context.Context, id models.UserID, isAdmin bool) error
	// Delete removes the user, the ideas they created (with those ideas' votes
	// and comments) and every vote they cast. Scores of other ideas are left as-is.
	Delete(ctx context.Context, id models.UserID) error
}

// IdeaRepository persists ideas.
type IdeaRepository interface {
	Create(ctx context.Context, idea *models.Idea) error
	GetByID(ctx context.Context, id models.IdeaID) (*models.Idea, error)
	List(ctx context.Context, skip, limit int) ([]models.Idea, error)
	// ListByCreator returns newest first.
	ListByCreator(ctx context.Context, creator models.UserID) ([]models.Idea, error)
	// ListScores returns every idea's cached score, keyed by ID.
	ListScores(ctx context.Context) (map[models.IdeaID]int, error)
	// UpdateContent writes only the fields set in update, leaving the rest of
	// the stored idea untouched.
	UpdateContent(ctx context.Context, id models.IdeaID, update models.IdeaUpdate) error
	SetStatus(ctx context.Context, id models.IdeaID, status models.Status) error
	// Delete removes the idea with its votes and comments.
	Delete(ctx context.Context, id models.IdeaID) error
}

// VoteTx is the ledger as seen from inside one transaction. Its methods run
// in the transaction's context.
type VoteTx interface {
	// Score returns the idea's cached score, or ErrNotFound if the idea is gone.
	Score(ideaID models.IdeaID) (int, error)
	// Find returns the (idea, user) vote or ErrNotFound.
	Find(ideaID models.IdeaID, userID models.UserID) (*models.Vote, error)
	// Insert returns ErrConflict if a vote for (idea, user) already exists and
	// ErrNotFound if the idea does not.
	Insert(vote *models.Vote) error
	UpdateType(id models.VoteID, voteType models.VoteType) error
	// AdjustScore adds delta to the idea's cached score.
	AdjustScore(ideaID models.IdeaID, delta int) error
}

// VoteRepository persists the vote ledger.
type VoteRepository interface {
	// WithinTx runs fn in a transaction that commits only if fn returns nil.
	WithinTx(ctx context.Context, fn func(tx VoteTx) error) error
	Find(ctx context.Context, ideaID models.IdeaID, userID models.UserID) (*models.Vote, error)
	// Tallies sums the ledger per idea. Ideas with no votes are omitted.
	Tallies(ctx context.Context) (map[models.IdeaID]int, error)
}

// CommentRepository persists comments.
type CommentRepository interface {
	// Create returns an error matching ErrNotFound if the idea no longer
	// exists, including when it is deleted concurrently.
	Create(ctx context.Context, comment *models.Comment) error
	// ListByIdea returns oldest first.
	ListByIdea(ctx context.Context, ideaID models.IdeaID) ([]models.Comment, error)
}

// EventRepository persists moderation and audit events.
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	Recent(ctx context.Context, limit int) ([]models.Event, error)
}

// Store bundles every repository of one backend.
type Store interface {
	Users() UserRepository
	Ideas() IdeaRepository
	Votes() VoteRepository
	Comments() CommentRepository
	Events() EventRepository
	Close(ctx context.Context) error
}
