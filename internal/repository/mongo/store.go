// Package mongo implements the repositories on MongoDB.
package mongo

import (
	"context"
	"errors"

	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/isdelr/civic-ideas-be/internal/repository"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	usersCollection    = "users"
	ideasCollection    = "ideas"
	votesCollection    = "votes"
	commentsCollection = "comments"
	eventsCollection   = "events"
)

// Store implements repository.Store on a MongoDB database. Multi-document
// writes use transactions, so the server must run as a replica set.
type Store struct {
	client   *mongo.Client
	users    *UserRepo
	ideas    *IdeaRepo
	votes    *VoteRepo
	comments *CommentRepo
	events   *EventRepo
}

// New wraps db. Indexes are created by database.EnsureMongoIndexes.
func New(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client:   client,
		users:    &UserRepo{client: client, db: db},
		ideas:    &IdeaRepo{client: client, db: db},
		votes:    &VoteRepo{client: client, db: db},
		comments: &CommentRepo{client: client, db: db},
		events:   &EventRepo{db: db},
	}
}

func (s *Store) Users() repository.UserRepository       { return s.users }
func (s *Store) Ideas() repository.IdeaRepository       { return s.ideas }
func (s *Store) Votes() repository.VoteRepository       { return s.votes }
func (s *Store) Comments() repository.CommentRepository { return s.comments }
func (s *Store) Events() repository.EventRepository     { return s.events }

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

// withTransaction runs fn in a session transaction.
func withTransaction(ctx context.Context, client *mongo.Client, fn func(sc mongo.SessionContext) error) error {
	session, err := client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NotFound(what + " not found")
	}
	return err
}
