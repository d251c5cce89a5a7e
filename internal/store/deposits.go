package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kjstillabower/solawi/internal/models"
)

const depositSelect = `SELECT d.id, d.amount, d."timestamp", d.title, d.person_id, p.name,
	d."ignore", d.is_security, d.added_by, p.share_id
	FROM deposits d JOIN persons p ON p.id = d.person_id`

// shareDeposit is a deposit together with the share its person belongs to.
type shareDeposit struct {
	models.Deposit
	shareID int64
}

func (c *conn) queryDeposits(ctx context.Context, query string, args ...any) ([]shareDeposit, error) {
	rows, err := c.queryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query deposits: %w", err)
	}
	defer rows.Close()
	var out []shareDeposit
	for rows.Next() {
		var (
			d       shareDeposit
			addedBy sql.NullInt64
		)
		err := rows.Scan(&d.ID, &d.Amount, &d.Timestamp, &d.Title, &d.PersonID, &d.PersonName,
			&d.Ignore, &d.IsSecurity, &addedBy, &d.shareID)
		if err != nil {
			return nil, fmt.Errorf("scan deposit: %w", err)
		}
		d.AddedBy = intPtr(addedBy)
		out = append(out, d)
	}
	return out, rows.Err()
}

func plainDeposits(in []shareDeposit) []models.Deposit {
	out := make([]models.Deposit, 0, len(in))
	for _, d := range in {
		out = append(out, d.Deposit)
	}
	return out
}

// DepositsForShare returns all deposits of persons belonging to share, oldest first.
func (c *conn) DepositsForShare(ctx context.Context, shareID int64) ([]models.Deposit, error) {
	rows, err := c.queryDeposits(ctx, depositSelect+` WHERE p.share_id = ? ORDER BY d."timestamp", d.id`, shareID)
	if err != nil {
		return nil, err
	}
	return plainDeposits(rows), nil
}

// DepositsForPerson returns the deposits of person, oldest first.
func (c *conn) DepositsForPerson(ctx context.Context, personID int64) ([]models.Deposit, error) {
	rows, err := c.queryDeposits(ctx, depositSelect+` WHERE d.person_id = ? ORDER BY d."timestamp", d.id`, personID)
	if err != nil {
		return nil, err
	}
	return plainDeposits(rows), nil
}

// DepositsByShare returns every deposit grouped by share id.
func (c *conn) DepositsByShare(ctx context.Context) (map[int64][]models.Deposit, error) {
	rows, err := c.queryDeposits(ctx, depositSelect+` ORDER BY d."timestamp", d.id`)
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]models.Deposit)
	for _, d := range rows {
		out[d.shareID] = append(out[d.shareID], d.Deposit)
	}
	return out, nil
}

// GetDeposit returns the deposit with id.
func (c *conn) GetDeposit(ctx context.Context, id int64) (models.Deposit, error) {
	rows, err := c.queryDeposits(ctx, depositSelect+" WHERE d.id = ?", id)
	if err != nil {
		return models.Deposit{}, err
	}
	if len(rows) == 0 {
		return models.Deposit{}, fmt.Errorf("get deposit %d: %w", id, ErrNotFound)
	}
	return rows[0].Deposit, nil
}

// CreateDeposit inserts d and returns its id.
func (c *conn) CreateDeposit(ctx context.Context, d models.Deposit) (int64, error) {
	id, err := c.insert(ctx,
		`INSERT INTO deposits (amount, "timestamp", title, person_id, "ignore", is_security, added_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.Amount, d.Timestamp, d.Title, d.PersonID, d.Ignore, d.IsSecurity, nullInt(d.AddedBy))
	if err != nil {
		return 0, fmt.Errorf("create deposit: %w", err)
	}
	return id, nil
}

// UpdateDeposit writes the mutable flags and booking fields of d.
func (c *conn) UpdateDeposit(ctx context.Context, d models.Deposit) error {
	err := c.execOne(ctx,
		`UPDATE deposits SET amount = ?, "timestamp" = ?, title = ?, person_id = ?, "ignore" = ?, is_security = ?
		WHERE id = ?`,
		d.Amount, d.Timestamp, d.Title, d.PersonID, d.Ignore, d.IsSecurity, d.ID)
	if err != nil {
		return fmt.Errorf("update deposit %d: %w", d.ID, err)
	}
	return nil
}
