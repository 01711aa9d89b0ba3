package mongo

import (
	"context"

	"github.com/isdelr/civic-ideas-be/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EventRepo persists moderation and audit events.
type EventRepo struct {
	db *mongo.Database
}

func (r *EventRepo) Create(ctx context.Context, e *models.Event) error {
	doc := eventDoc{
		ID:        e.ID.String(),
		Type:      e.Type,
		Level:     e.Level,
		Message:   e.Message,
		CreatedAt: e.CreatedAt,
	}
	if e.IdeaID != nil {
		id := e.IdeaID.String()
		doc.IdeaID = &id
	}
	_, err := r.db.Collection(eventsCollection).InsertOne(ctx, doc)
	return err
}

func (r *EventRepo) Recent(ctx context.Context, limit int) ([]models.Event, error) {
	cursor, err := r.db.Collection(eventsCollection).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	var docs []eventDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	events := make([]models.Event, 0, len(docs))
	for _, d := range docs {
		e := models.Event{
			ID:        models.EventID(d.ID),
			Type:      d.Type,
			Level:     d.Level,
			Message:   d.Message,
			CreatedAt: d.CreatedAt,
		}
		if d.IdeaID != nil {
			id := models.IdeaID(*d.IdeaID)
			e.IdeaID = &id
		}
		events = append(events, e)
	}
	return events, nil
}
