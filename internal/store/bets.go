package store

import (
	"context"
	"fmt"

	"github.com/kjstillabower/solawi/internal/models"
)

const betColumns = "id, share_id, value, start_date, end_date"

func scanBet(row interface{ Scan(...any) error }) (models.Bet, error) {
	var (
		b   models.Bet
		end models.NullDate
	)
	if err := row.Scan(&b.ID, &b.ShareID, &b.Value, &b.StartDate, &end); err != nil {
		return models.Bet{}, err
	}
	b.EndDate = end.Ptr()
	return b, nil
}

func (c *conn) queryBets(ctx context.Context, query string, args ...any) ([]models.Bet, error) {
	rows, err := c.queryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bets: %w", err)
	}
	defer rows.Close()
	bets := []models.Bet{}
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bet: %w", err)
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

// ListBets returns all bets ordered by start date.
func (c *conn) ListBets(ctx context.Context) ([]models.Bet, error) {
	return c.queryBets(ctx, "SELECT "+betColumns+" FROM bets ORDER BY start_date, id")
}

// BetsForShare returns the bets of share ordered by start date.
func (c *conn) BetsForShare(ctx context.Context, shareID int64) ([]models.Bet, error) {
	return c.queryBets(ctx, "SELECT "+betColumns+" FROM bets WHERE share_id = ? ORDER BY start_date, id", shareID)
}

// GetBet returns the bet with id.
func (c *conn) GetBet(ctx context.Context, id int64) (models.Bet, error) {
	b, err := scanBet(c.queryRowContext(ctx, "SELECT "+betColumns+" FROM bets WHERE id = ?", id))
	if err != nil {
		return models.Bet{}, fmt.Errorf("get bet %d: %w", id, notFound(err))
	}
	return b, nil
}

// CreateBet inserts b and returns its id.
func (c *conn) CreateBet(ctx context.Context, b models.Bet) (int64, error) {
	id, err := c.insert(ctx,
		"INSERT INTO bets (share_id, value, start_date, end_date) VALUES (?, ?, ?, ?)",
		b.ShareID, b.Value, b.StartDate, models.NullDateFrom(b.EndDate))
	if err != nil {
		return 0, fmt.Errorf("create bet: %w", err)
	}
	return id, nil
}

// UpdateBet writes all fields of b.
func (c *conn) UpdateBet(ctx context.Context, b models.Bet) error {
	err := c.execOne(ctx,
		"UPDATE bets SET share_id = ?, value = ?, start_date = ?, end_date = ? WHERE id = ?",
		b.ShareID, b.Value, b.StartDate, models.NullDateFrom(b.EndDate), b.ID)
	if err != nil {
		return fmt.Errorf("update bet %d: %w", b.ID, err)
	}
	return nil
}

// DeleteBet removes the bet with id.
func (c *conn) DeleteBet(ctx context.Context, id int64) error {
	if err := c.execOne(ctx, "DELETE FROM bets WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete bet %d: %w", id, err)
	}
	return nil
}

// MoveBets reassigns every bet of share from to share to.
func (c *conn) MoveBets(ctx context.Context, from, to int64) error {
	if _, err := c.ExecContext(ctx, "UPDATE bets SET share_id = ? WHERE share_id = ?", to, from); err != nil {
		return fmt.Errorf("move bets: %w", err)
	}
	return nil
}
