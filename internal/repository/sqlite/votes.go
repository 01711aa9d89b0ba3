package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/isdelr/civic-ideas-be/internal/repository"
)

// VoteRepo persists the vote ledger.
type VoteRepo struct {
	db *sql.DB
}

// WithinTx runs fn inside a BEGIN IMMEDIATE transaction, so the vote write and
// the score adjustment commit together or not at all.
func (r *VoteRepo) WithinTx(ctx context.Context, fn func(tx repository.VoteTx) error) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&voteTx{ctx: ctx, tx: tx})
	})
}

func (r *VoteRepo) Find(ctx context.Context, ideaID models.IdeaID, userID models.UserID) (*models.Vote, error) {
	return findVote(ctx, r.db.QueryRowContext, ideaID, userID)
}

func (r *VoteRepo) Tallies(ctx context.Context) (map[models.IdeaID]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT idea_id, SUM(CASE vote_type WHEN 'upvote' THEN 1 WHEN 'downvote' THEN -1 ELSE 0 END)
		FROM votes GROUP BY idea_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tallies := make(map[models.IdeaID]int)
	for rows.Next() {
		var id models.IdeaID
		var sum int
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, err
		}
		tallies[id] = sum
	}
	return tallies, rows.Err()
}

type voteTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *voteTx) Score(ideaID models.IdeaID) (int, error) {
	var score int
	err := t.tx.QueryRowContext(t.ctx, "SELECT vote_score FROM ideas WHERE id = ?", ideaID).Scan(&score)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, wrapNotFound(fmt.Sprintf("idea with ID %s", ideaID))
		}
		return 0, err
	}
	return score, nil
}

func (t *voteTx) Find(ideaID models.IdeaID, userID models.UserID) (*models.Vote, error) {
	return findVote(t.ctx, t.tx.QueryRowContext, ideaID, userID)
}

func (t *voteTx) Insert(vote *models.Vote) error {
	_, err := t.tx.ExecContext(t.ctx,
		"INSERT INTO votes (id, idea_id, user_id, vote_type, created_at) VALUES (?, ?, ?, ?, ?)",
		vote.ID, vote.IdeaID, vote.UserID, vote.Type, vote.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Conflict("already voted on this idea")
		}
		if isForeignKeyViolation(err) {
			return wrapNotFound(fmt.Sprintf("idea with ID %s", vote.IdeaID))
		}
		return err
	}
	return nil
}

func (t *voteTx) UpdateType(id models.VoteID, voteType models.VoteType) error {
	res, err := t.tx.ExecContext(t.ctx, "UPDATE votes SET vote_type = ? WHERE id = ?", voteType, id)
	if err != nil {
		return err
	}
	return expectOne(res, wrapNotFound(fmt.Sprintf("vote with ID %s", id)))
}

func (t *voteTx) AdjustScore(ideaID models.IdeaID, delta int) error {
	res, err := t.tx.ExecContext(t.ctx, "UPDATE ideas SET vote_score = vote_score + ? WHERE id = ?", delta, ideaID)
	if err != nil {
		return err
	}
	return expectOne(res, wrapNotFound(fmt.Sprintf("idea with ID %s", ideaID)))
}

type queryRowFunc func(ctx context.Context, query string, args ...interface{}) *sql.Row

func findVote(ctx context.Context, queryRow queryRowFunc, ideaID models.IdeaID, userID models.UserID) (*models.Vote, error) {
	var v models.Vote
	var voteType string
	err := queryRow(ctx,
		"SELECT id, idea_id, user_id, vote_type, created_at FROM votes WHERE idea_id = ? AND user_id = ?",
		ideaID, userID).Scan(&v.ID, &v.IdeaID, &v.UserID, &voteType, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wrapNotFound("vote")
		}
		return nil, err
	}
	if v.Type, err = models.ParseVoteType(voteType); err != nil {
		return nil, models.Invalidf("stored vote %s: %v", v.ID, err)
	}
	return &v, nil
}
