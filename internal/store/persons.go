package store

import (
	"context"
	"fmt"

	"github.com/kjstillabower/solawi/internal/models"
)

// GetPerson returns the person with id, without deposits.
func (c *conn) GetPerson(ctx context.Context, id int64) (models.Person, error) {
	var p models.Person
	err := c.queryRowContext(ctx, "SELECT id, name, share_id FROM persons WHERE id = ?", id).
		Scan(&p.ID, &p.Name, &p.ShareID)
	if err != nil {
		return models.Person{}, fmt.Errorf("get person %d: %w", id, notFound(err))
	}
	return p, nil
}

// FindPersonByName returns the first person whose name matches exactly.
func (c *conn) FindPersonByName(ctx context.Context, name string) (models.Person, error) {
	var p models.Person
	err := c.queryRowContext(ctx, "SELECT id, name, share_id FROM persons WHERE name = ? ORDER BY id LIMIT 1", name).
		Scan(&p.ID, &p.Name, &p.ShareID)
	if err != nil {
		return models.Person{}, fmt.Errorf("find person %q: %w", name, notFound(err))
	}
	return p, nil
}

// CreatePerson inserts p and returns its id.
func (c *conn) CreatePerson(ctx context.Context, p models.Person) (int64, error) {
	id, err := c.insert(ctx, "INSERT INTO persons (name, share_id) VALUES (?, ?)", p.Name, p.ShareID)
	if err != nil {
		return 0, fmt.Errorf("create person: %w", err)
	}
	return id, nil
}

// MovePersons reassigns every person of share from to share to.
func (c *conn) MovePersons(ctx context.Context, from, to int64) error {
	if _, err := c.ExecContext(ctx, "UPDATE persons SET share_id = ? WHERE share_id = ?", to, from); err != nil {
		return fmt.Errorf("move persons: %w", err)
	}
	return nil
}
