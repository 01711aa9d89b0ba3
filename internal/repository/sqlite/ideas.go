package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/isdelr/civic-ideas-be/internal/models"
)

const ideaColumns = "id, title, description, category, location, latitude, longitude, creator_id, creator_name, status, vote_score, created_at"

// IdeaRepo persists ideas.
type IdeaRepo struct {
	db *sql.DB
}

func (r *IdeaRepo) Create(ctx context.Context, idea *models.Idea) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ideas (id, title, description, category, location, latitude, longitude, creator_id, creator_name, status, vote_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		idea.ID, idea.Title, idea.Description, idea.Category, idea.Location,
		nullFloat(idea.Latitude), nullFloat(idea.Longitude),
		idea.CreatorID, idea.CreatorName, idea.Status, idea.VoteScore, idea.CreatedAt)
	return err
}

func (r *IdeaRepo) GetByID(ctx context.Context, id models.IdeaID) (*models.Idea, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+ideaColumns+" FROM ideas WHERE id = ?", id)
	return scanIdea(row, fmt.Sprintf("idea with ID %s", id))
}

func (r *IdeaRepo) List(ctx context.Context, skip, limit int) ([]models.Idea, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+ideaColumns+" FROM ideas ORDER BY created_at DESC, id LIMIT ? OFFSET ?", limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIdeas(rows)
}

func (r *IdeaRepo) ListByCreator(ctx context.Context, creator models.UserID) ([]models.Idea, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+ideaColumns+" FROM ideas WHERE creator_id = ? ORDER BY created_at DESC, id", creator)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIdeas(rows)
}

func (r *IdeaRepo) ListScores(ctx context.Context) (map[models.IdeaID]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, vote_score FROM ideas")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make(map[models.IdeaID]int)
	for rows.Next() {
		var id models.IdeaID
		var score int
		if err := rows.Scan(&id, &score); err != nil {
			return nil, err
		}
		scores[id] = score
	}
	return scores, rows.Err()
}

func (r *IdeaRepo) UpdateContent(ctx context.Context, id models.IdeaID, u models.IdeaUpdate) error {
	var sets []string
	var args []interface{}
	set := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if u.Title != nil {
		set("title", *u.Title)
	}
	if u.Description != nil {
		set("description", *u.Description)
	}
	if u.Category != nil {
		set("category", *u.Category)
	}
	if u.Location != nil {
		set("location", *u.Location)
	}
	if u.Relocated {
		var lat, lon sql.NullFloat64
		if u.Coordinates != nil {
			lat = sql.NullFloat64{Float64: u.Coordinates.Latitude, Valid: true}
			lon = sql.NullFloat64{Float64: u.Coordinates.Longitude, Valid: true}
		}
		set("latitude", lat)
		set("longitude", lon)
	}
	if len(sets) == 0 {
		// Nothing to write; still report a missing idea.
		_, err := r.GetByID(ctx, id)
		return err
	}

	args = append(args, id)
	res, err := r.db.ExecContext(ctx, "UPDATE ideas SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return err
	}
	return expectOne(res, wrapNotFound(fmt.Sprintf("idea with ID %s", id)))
}

func (r *IdeaRepo) SetStatus(ctx context.Context, id models.IdeaID, status models.Status) error {
	res, err := r.db.ExecContext(ctx, "UPDATE ideas SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return err
	}
	return expectOne(res, wrapNotFound(fmt.Sprintf("idea with ID %s", id)))
}

func (r *IdeaRepo) Delete(ctx context.Context, id models.IdeaID) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM votes WHERE idea_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE idea_id = ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM ideas WHERE id = ?", id)
		if err != nil {
			return err
		}
		return expectOne(res, wrapNotFound(fmt.Sprintf("idea with ID %s", id)))
	})
}

func scanIdeas(rows *sql.Rows) ([]models.Idea, error) {
	ideas := []models.Idea{}
	for rows.Next() {
		idea, err := scanIdea(rows, "idea")
		if err != nil {
			return nil, err
		}
		ideas = append(ideas, *idea)
	}
	return ideas, rows.Err()
}

// scanIdea decodes a row and rejects records whose enums are not ones we write.
func scanIdea(s scanner, what string) (*models.Idea, error) {
	var (
		idea                models.Idea
		category, status    string
		latitude, longitude sql.NullFloat64
	)
	err := s.Scan(&idea.ID, &idea.Title, &idea.Description, &category, &idea.Location,
		&latitude, &longitude, &idea.CreatorID, &idea.CreatorName, &status, &idea.VoteScore, &idea.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wrapNotFound(what)
		}
		return nil, err
	}
	if idea.Category, err = models.ParseCategory(category); err != nil {
		return nil, models.Invalidf("stored idea %s: %v", idea.ID, err)
	}
	if idea.Status, err = models.ParseStatus(status); err != nil {
		return nil, models.Invalidf("stored idea %s: %v", idea.ID, err)
	}
	if latitude.Valid && longitude.Valid {
		idea.SetCoordinates(&models.Coordinates{Latitude: latitude.Float64, Longitude: longitude.Float64})
	}
	return &idea, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
