package mongo

import (
	"context"
	"fmt"

	"github.com/isdelr/civic-ideas-be/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IdeaRepo persists ideas.
type IdeaRepo struct {
	client *mongo.Client
	db     *mongo.Database
}

func (r *IdeaRepo) coll() *mongo.Collection { return r.db.Collection(ideasCollection) }

func (r *IdeaRepo) Create(ctx context.Context, idea *models.Idea) error {
	_, err := r.coll().InsertOne(ctx, newIdeaDoc(idea))
	return err
}

func (r *IdeaRepo) GetByID(ctx context.Context, id models.IdeaID) (*models.Idea, error) {
	var doc ideaDoc
	if err := r.coll().FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("idea with ID %s", id))
	}
	return doc.model()
}

func (r *IdeaRepo) List(ctx context.Context, skip, limit int) ([]models.Idea, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{}, opts)
}

func (r *IdeaRepo) ListByCreator(ctx context.Context, creator models.UserID) ([]models.Idea, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"creator_id": creator.String()}, opts)
}

func (r *IdeaRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Idea, error) {
	cursor, err := r.coll().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []ideaDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ideas := make([]models.Idea, 0, len(docs))
	for _, d := range docs {
		idea, err := d.model()
		if err != nil {
			return nil, err
		}
		ideas = append(ideas, *idea)
	}
	return ideas, nil
}

func (r *IdeaRepo) ListScores(ctx context.Context) (map[models.IdeaID]int, error) {
	cursor, err := r.coll().Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1, "vote_score": 1}))
	if err != nil {
		return nil, err
	}
	var docs []struct {
		ID        string `bson:"_id"`
		VoteScore int    `bson:"vote_score"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	scores := make(map[models.IdeaID]int, len(docs))
	for _, d := range docs {
		scores[models.IdeaID(d.ID)] = d.VoteScore
	}
	return scores, nil
}

func (r *IdeaRepo) UpdateContent(ctx context.Context, id models.IdeaID, u models.IdeaUpdate) error {
	set := bson.M{}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Category != nil {
		set["category"] = string(*u.Category)
	}
	if u.Location != nil {
		set["location"] = *u.Location
	}
	if u.Relocated {
		set["latitude"], set["longitude"] = nil, nil
		if u.Coordinates != nil {
			set["latitude"], set["longitude"] = u.Coordinates.Latitude, u.Coordinates.Longitude
		}
	}
	if len(set) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}

	res, err := r.coll().UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.NotFound(fmt.Sprintf("idea with ID %s not found", id))
	}
	return nil
}

func (r *IdeaRepo) SetStatus(ctx context.Context, id models.IdeaID, status models.Status) error {
	res, err := r.coll().UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": bson.M{"status": string(status)}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.NotFound(fmt.Sprintf("idea with ID %s not found", id))
	}
	return nil
}

func (r *IdeaRepo) Delete(ctx context.Context, id models.IdeaID) error {
	return withTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		byIdea := bson.M{"idea_id": id.String()}
		if _, err := r.db.Collection(votesCollection).DeleteMany(sc, byIdea); err != nil {
			return err
		}
		if _, err := r.db.Collection(commentsCollection).DeleteMany(sc, byIdea); err != nil {
			return err
		}
		res, err := r.coll().DeleteOne(sc, bson.M{"_id": id.String()})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return models.NotFound(fmt.Sprintf("idea with ID %s not found", id))
		}
		return nil
	})
}
