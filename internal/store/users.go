package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kjstillabower/solawi/internal/models"
)

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var (
		u       models.User
		changed sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &changed); err != nil {
		return models.User{}, err
	}
	if changed.Valid {
		t := changed.Time
		u.PasswordChangedAt = &t
	}
	return u, nil
}

// GetUser returns the user with id.
func (c *conn) GetUser(ctx context.Context, id int64) (models.User, error) {
	u, err := scanUser(c.queryRowContext(ctx,
		"SELECT id, email, password_hash, password_changed_at FROM users WHERE id = ?", id))
	if err != nil {
		return models.User{}, fmt.Errorf("get user %d: %w", id, notFound(err))
	}
	return u, nil
}

// GetUserByEmail returns the user registered with email.
func (c *conn) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(c.queryRowContext(ctx,
		"SELECT id, email, password_hash, password_changed_at FROM users WHERE email = ?", email))
	if err != nil {
		return models.User{}, fmt.Errorf("get user %q: %w", email, notFound(err))
	}
	return u, nil
}

// ListUsers returns id and email of all users.
func (c *conn) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	rows, err := c.queryContext(ctx, "SELECT id, email FROM users ORDER BY email")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	users := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateUser inserts a user with a password hash. The password counts as unchanged.
func (c *conn) CreateUser(ctx context.Context, email, passwordHash string) (int64, error) {
	id, err := c.insert(ctx, "INSERT INTO users (email, password_hash) VALUES (?, ?)", email, passwordHash)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// SetPassword stores a new password hash and the time it was changed.
func (c *conn) SetPassword(ctx context.Context, id int64, passwordHash string, changedAt time.Time) error {
	err := c.execOne(ctx, "UPDATE users SET password_hash = ?, password_changed_at = ? WHERE id = ?",
		passwordHash, changedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("set password for user %d: %w", id, err)
	}
	return nil
}
