package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"taskboard/internal/models"
)

// CreateUser inserts a new account. Fails with ErrConflict when the email
// is already registered.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash, name string) (models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || passwordHash == "" {
		return models.User{}, fmt.Errorf("email and password are required")
	}

	if _, err := s.UserByEmail(ctx, email); err == nil {
		return models.User{}, fmt.Errorf("user %s already exists: %w", email, ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return models.User{}, err
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO users(email, password_hash, name) VALUES(?, ?, ?)`,
		email, passwordHash, strings.TrimSpace(name))
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("user id: %w", err)
	}
	return s.UserByID(ctx, id)
}

// UserByEmail fetches an account by its unique email.
func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `SELECT id, email, password_hash, name, created_at FROM users WHERE email = ?`,
		strings.TrimSpace(strings.ToLower(email))).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UserByID fetches an account by id.
func (s *Store) UserByID(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, `SELECT id, email, password_hash, name, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
