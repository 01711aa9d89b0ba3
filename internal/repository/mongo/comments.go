package mongo

import (
	"context"
	"fmt"

	"github.com/isdelr/civic-ideas-be/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentRepo persists comments.
type CommentRepo struct {
	client *mongo.Client
	db     *mongo.Database
}

func (r *CommentRepo) Create(ctx context.Context, c *models.Comment) error {
	return withTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		// Writing the idea makes a concurrent delete of it conflict with this insert.
		res, err := r.db.Collection(ideasCollection).UpdateOne(sc,
			bson.M{"_id": c.IdeaID.String()}, bson.M{"$inc": bson.M{"comment_count": 1}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return models.NotFound(fmt.Sprintf("idea with ID %s not found", c.IdeaID))
		}
		_, err = r.db.Collection(commentsCollection).InsertOne(sc, commentDoc{
			ID:        c.ID.String(),
			IdeaID:    c.IdeaID.String(),
			UserID:    c.UserID.String(),
			UserName:  c.UserName,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
		})
		return err
	})
}

func (r *CommentRepo) ListByIdea(ctx context.Context, ideaID models.IdeaID) ([]models.Comment, error) {
	cursor, err := r.db.Collection(commentsCollection).Find(ctx,
		bson.M{"idea_id": ideaID.String()},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []commentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	comments := make([]models.Comment, 0, len(docs))
	for _, d := range docs {
		comments = append(comments, models.Comment{
			ID:        models.CommentID(d.ID),
			IdeaID:    models.IdeaID(d.IdeaID),
			UserID:    models.UserID(d.UserID),
			UserName:  d.UserName,
			Content:   d.Content,
			CreatedAt: d.CreatedAt,
		})
	}
	return comments, nil
}
