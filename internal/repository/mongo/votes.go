package mongo

import (
	"context"
	"fmt"

	"github.com/isdelr/civic-ideas-be/internal/models"
	"github.com/isdelr/civic-ideas-be/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// VoteRepo persists the vote ledger.
type VoteRepo struct {
	client *mongo.Client
	db     *mongo.Database
}

// WithinTx runs fn in a session transaction. The unique (idea_id, user_id)
// index turns a racing second insert into a duplicate-key error.
func (r *VoteRepo) WithinTx(ctx context.Context, fn func(tx repository.VoteTx) error) error {
	return withTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		return fn(&voteTx{ctx: sc, db: r.db})
	})
}

func (r *VoteRepo) Find(ctx context.Context, ideaID models.IdeaID, userID models.UserID) (*models.Vote, error) {
	return findVote(ctx, r.db, ideaID, userID)
}

func (r *VoteRepo) Tallies(ctx context.Context) (map[models.IdeaID]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id": "$idea_id",
			"score": bson.M{"$sum": bson.M{"$switch": bson.M{
				"branches": bson.A{
					bson.M{"case": bson.M{"$eq": bson.A{"$vote_type", string(models.Upvote)}}, "then": 1},
					bson.M{"case": bson.M{"$eq": bson.A{"$vote_type", string(models.Downvote)}}, "then": -1},
				},
				"default": 0,
			}}},
		}}},
	}
	cursor, err := r.db.Collection(votesCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		IdeaID string `bson:"_id"`
		Score  int    `bson:"score"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	tallies := make(map[models.IdeaID]int, len(rows))
	for _, row := range rows {
		tallies[models.IdeaID(row.IdeaID)] = row.Score
	}
	return tallies, nil
}

type voteTx struct {
	ctx mongo.SessionContext
	db  *mongo.Database
}

func (t *voteTx) Score(ideaID models.IdeaID) (int, error) {
	var doc struct {
		VoteScore int `bson:"vote_score"`
	}
	err := t.db.Collection(ideasCollection).FindOne(t.ctx, bson.M{"_id": ideaID.String()}).Decode(&doc)
	if err != nil {
		return 0, notFoundOr(err, fmt.Sprintf("idea with ID %s", ideaID))
	}
	return doc.VoteScore, nil
}

func (t *voteTx) Find(ideaID models.IdeaID, userID models.UserID) (*models.Vote, error) {
	return findVote(t.ctx, t.db, ideaID, userID)
}

func (t *voteTx) Insert(vote *models.Vote) error {
	_, err := t.db.Collection(votesCollection).InsertOne(t.ctx, voteDoc{
		ID:        vote.ID.String(),
		IdeaID:    vote.IdeaID.String(),
		UserID:    vote.UserID.String(),
		VoteType:  string(vote.Type),
		CreatedAt: vote.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return models.Conflict("already voted on this idea")
	}
	return err
}

func (t *voteTx) UpdateType(id models.VoteID, voteType models.VoteType) error {
	res, err := t.db.Collection(votesCollection).UpdateOne(t.ctx,
		bson.M{"_id": id.String()}, bson.M{"$set": bson.M{"vote_type": string(voteType)}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.NotFound(fmt.Sprintf("vote with ID %s not found", id))
	}
	return nil
}

func (t *voteTx) AdjustScore(ideaID models.IdeaID, delta int) error {
	res, err := t.db.Collection(ideasCollection).UpdateOne(t.ctx,
		bson.M{"_id": ideaID.String()}, bson.M{"$inc": bson.M{"vote_score": delta}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.NotFound(fmt.Sprintf("idea with ID %s not found", ideaID))
	}
	return nil
}

func findVote(ctx context.Context, db *mongo.Database, ideaID models.IdeaID, userID models.UserID) (*models.Vote, error) {
	var doc voteDoc
	err := db.Collection(votesCollection).
		FindOne(ctx, bson.M{"idea_id": ideaID.String(), "user_id": userID.String()}).
		Decode(&doc)
	if err != nil {
		return nil, notFoundOr(err, "vote")
	}
	return doc.model()
}
