package mongo

import (
	"context"
	"fmt"

	"github.com/isdelr/civic-ideas-be/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepo persists users.
type UserRepo struct {
	client *mongo.Client
	db     *mongo.Database
}

func (r *UserRepo) coll() *mongo.Collection { return r.db.Collection(usersCollection) }

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	_, err := r.coll().InsertOne(ctx, newUserDoc(user))
	if mongo.IsDuplicateKeyError(err) {
		return models.Conflict(fmt.Sprintf("email %s is already registered", user.Email))
	}
	return err
}

func (r *UserRepo) GetByID(ctx context.Context, id models.UserID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()}, fmt.Sprintf("user with ID %s", id))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, fmt.Sprintf("user with email %s", email))
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M, what string) (*models.User, error) {
	var doc userDoc
	if err := r.coll().FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFoundOr(err, what)
	}
	return doc.model()
}

func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	cursor, err := r.coll().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(docs))
	for _, d := range docs {
		u, err := d.model()
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

func (r *UserRepo) SetAdmin(ctx context.Context, id models.UserID, isAdmin bool) error {
	res, err := r.coll().UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": bson.M{"is_admin": isAdmin}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.NotFound(fmt.Sprintf("user with ID %s not found", id))
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id models.UserID) error {
	return withTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		ideas := r.db.Collection(ideasCollection)
		cursor, err := ideas.Find(sc, bson.M{"creator_id": id.String()}, options.Find().SetProjection(bson.M{"_id": 1}))
		if err != nil {
			return err
		}
		var owned []struct {
			ID string `bson:"_id"`
		}
		if err := cursor.All(sc, &owned); err != nil {
			return err
		}
		ideaIDs := make([]string, 0, len(owned))
		for _, o := range owned {
			ideaIDs = append(ideaIDs, o.ID)
		}

		if len(ideaIDs) > 0 {
			inOwned := bson.M{"idea_id": bson.M{"$in": ideaIDs}}
			if _, err := r.db.Collection(votesCollection).DeleteMany(sc, inOwned); err != nil {
				return err
			}
			if _, err := r.db.Collection(commentsCollection).DeleteMany(sc, inOwned); err != nil {
				return err
			}
			if _, err := ideas.DeleteMany(sc, bson.M{"creator_id": id.String()}); err != nil {
				return err
			}
		}
		// Votes on other ideas are removed without touching those ideas' scores.
		if _, err := r.db.Collection(votesCollection).DeleteMany(sc, bson.M{"user_id": id.String()}); err != nil {
			return err
		}
		res, err := r.coll().DeleteOne(sc, bson.M{"_id": id.String()})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return models.NotFound(fmt.Sprintf("user with ID %s not found", id))
		}
		return nil
	})
}
