package sqlite

import (
	"context"
	"database/sql"

	"github.com/isdelr/civic-ideas-be/internal/models"
)

// EventRepo persists moderation and audit events.
type EventRepo struct {
	db *sql.DB
}

func (r *EventRepo) Create(ctx context.Context, e *models.Event) error {
	stmt, err := r.db.PrepareContext(ctx, "INSERT INTO events (id, type, level, message, idea_id, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, e.ID, e.Type, e.Level, e.Message, e.IdeaID, e.CreatedAt)
	return err
}

func (r *EventRepo) Recent(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, type, level, message, idea_id, created_at FROM events ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Type, &e.Level, &e.Message, &e.IdeaID, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
