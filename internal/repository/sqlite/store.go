// Package sqlite implements the repositories on an SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/isdelr/civic-ideas-be/internal/repository"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store implements repository.Store on a migrated *sql.DB.
type Store struct {
	db       *sql.DB
	users    *UserRepo
	ideas    *IdeaRepo
	votes    *VoteRepo
	comments *CommentRepo
	events   *EventRepo
}

// New wraps db. The schema must already be migrated.
func New(db *sql.DB) *Store {
	return &Store{
		db:       db,
		users:    &UserRepo{db: db},
		ideas:    &IdeaRepo{db: db},
		votes:    &VoteRepo{db: db},
		comments: &CommentRepo{db: db},
		events:   &EventRepo{db: db},
	}
}

func (s *Store) Users() repository.UserRepository       { return s.users }
func (s *Store) Ideas() repository.IdeaRepository       { return s.ideas }
func (s *Store) Votes() repository.VoteRepository       { return s.votes }
func (s *Store) Comments() repository.CommentRepository { return s.comments }
func (s *Store) Events() repository.EventRepository     { return s.events }

// Close closes the underlying database.
func (s *Store) Close(context.Context) error { return s.db.Close() }

type scanner interface {
	Scan(dest ...interface{}) error
}

// withTx runs fn in a transaction, rolling back on error or panic.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

// expectOne maps a zero-row update/delete onto notFound.
func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func wrapNotFound(what string) error {
	return models.NotFound(what + " not found")
}
