package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/isdelr/civic-ideas-be/internal/models"
)

// CommentRepo persists comments.
type CommentRepo struct {
	db *sql.DB
}

func (r *CommentRepo) Create(ctx context.Context, c *models.Comment) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO comments (id, idea_id, user_id, user_name, content, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		c.ID, c.IdeaID, c.UserID, c.UserName, c.Content, c.CreatedAt)
	if isForeignKeyViolation(err) {
		return wrapNotFound(fmt.Sprintf("idea with ID %s", c.IdeaID))
	}
	return err
}

func (r *CommentRepo) ListByIdea(ctx context.Context, ideaID models.IdeaID) ([]models.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, idea_id, user_id, user_name, content, created_at
		FROM comments WHERE idea_id = ? ORDER BY created_at, id`, ideaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.IdeaID, &c.UserID, &c.UserName, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
