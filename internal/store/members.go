package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kjstillabower/solawi/internal/models"
)

const memberColumns = "id, name, email, phone, share_id"

func scanMember(row interface{ Scan(...any) error }) (models.Member, error) {
	var (
		m            models.Member
		email, phone sql.NullString
	)
	if err := row.Scan(&m.ID, &m.Name, &email, &phone, &m.ShareID); err != nil {
		return models.Member{}, err
	}
	m.Email = stringPtr(email)
	m.Phone = stringPtr(phone)
	return m, nil
}

func (c *conn) queryMembers(ctx context.Context, query string, args ...any) ([]models.Member, error) {
	rows, err := c.queryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()
	members := []models.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListMembers returns all members ordered by id.
func (c *conn) ListMembers(ctx context.Context) ([]models.Member, error) {
	return c.queryMembers(ctx, "SELECT "+memberColumns+" FROM members ORDER BY id")
}

// MembersForShare returns the members holding share.
func (c *conn) MembersForShare(ctx context.Context, shareID int64) ([]models.Member, error) {
	return c.queryMembers(ctx, "SELECT "+memberColumns+" FROM members WHERE share_id = ? ORDER BY id", shareID)
}

// GetMember returns the member with id.
func (c *conn) GetMember(ctx context.Context, id int64) (models.Member, error) {
	m, err := scanMember(c.queryRowContext(ctx, "SELECT "+memberColumns+" FROM members WHERE id = ?", id))
	if err != nil {
		return models.Member{}, fmt.Errorf("get member %d: %w", id, notFound(err))
	}
	return m, nil
}

// CreateMember inserts m and returns its id.
func (c *conn) CreateMember(ctx context.Context, m models.Member) (int64, error) {
	id, err := c.insert(ctx,
		"INSERT INTO members (name, email, phone, share_id) VALUES (?, ?, ?, ?)",
		m.Name, nullString(m.Email), nullString(m.Phone), m.ShareID)
	if err != nil {
		return 0, fmt.Errorf("create member: %w", err)
	}
	return id, nil
}

// UpdateMember writes all fields of m.
func (c *conn) UpdateMember(ctx context.Context, m models.Member) error {
	err := c.execOne(ctx,
		"UPDATE members SET name = ?, email = ?, phone = ?, share_id = ? WHERE id = ?",
		m.Name, nullString(m.Email), nullString(m.Phone), m.ShareID, m.ID)
	if err != nil {
		return fmt.Errorf("update member %d: %w", m.ID, err)
	}
	return nil
}

// DeleteMember removes the member with id.
func (c *conn) DeleteMember(ctx context.Context, id int64) error {
	if err := c.execOne(ctx, "DELETE FROM members WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete member %d: %w", id, err)
	}
	return nil
}

// MoveMembers reassigns every member of share from to share to.
func (c *conn) MoveMembers(ctx context.Context, from, to int64) error {
	if _, err := c.ExecContext(ctx, "UPDATE members SET share_id = ? WHERE share_id = ?", to, from); err != nil {
		return fmt.Errorf("move members: %w", err)
	}
	return nil
}
