package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/isdelr/civic-ideas-be/internal/models"
)

const userColumns = "id, email, full_name, password_hash, is_admin, created_at"

// UserRepo persists users.
type UserRepo struct {
	db *sql.DB
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, email, full_name, password_hash, is_admin, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.Email, user.FullName, user.PasswordHash, user.IsAdmin, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Conflict(fmt.Sprintf("email %s is already registered", user.Email))
		}
		return err
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id models.UserID) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row, fmt.Sprintf("user with ID %s", id))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row, fmt.Sprintf("user with email %s", email))
}

func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows, "user")
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepo) SetAdmin(ctx context.Context, id models.UserID, isAdmin bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET is_admin = ? WHERE id = ?", isAdmin, id)
	if err != nil {
		return err
	}
	return expectOne(res, wrapNotFound(fmt.Sprintf("user with ID %s", id)))
}

func (r *UserRepo) Delete(ctx context.Context, id models.UserID) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		// Ideas the user created go with everything attached to them.
		for _, stmt := range []string{
			"DELETE FROM votes WHERE idea_id IN (SELECT id FROM ideas WHERE creator_id = ?)",
			"DELETE FROM comments WHERE idea_id IN (SELECT id FROM ideas WHERE creator_id = ?)",
			"DELETE FROM ideas WHERE creator_id = ?",
			// Votes on other ideas are removed without touching those ideas' scores.
			"DELETE FROM votes WHERE user_id = ?",
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
		if err != nil {
			return err
		}
		return expectOne(res, wrapNotFound(fmt.Sprintf("user with ID %s", id)))
	})
}

func scanUser(s scanner, what string) (*models.User, error) {
	var u models.User
	err := s.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wrapNotFound(what)
		}
		return nil, err
	}
	if u.ID == "" || u.Email == "" {
		return nil, models.Invalidf("stored user %q is missing required fields", u.ID)
	}
	return &u, nil
}
