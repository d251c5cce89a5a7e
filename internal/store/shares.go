package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kjstillabower/solawi/internal/models"
)

const shareColumns = "id, name, station_id, note, archived"

func scanShare(row interface{ Scan(...any) error }) (models.Share, error) {
	var (
		s       models.Share
		station sql.NullInt64
		note    sql.NullString
	)
	if err := row.Scan(&s.ID, &s.Name, &station, &note, &s.Archived); err != nil {
		return models.Share{}, err
	}
	s.StationID = intPtr(station)
	s.Note = stringPtr(note)
	s.Bets = []models.Bet{}
	s.Members = []models.Member{}
	return s, nil
}

// ListShares returns all shares with their bets and members.
func (c *conn) ListShares(ctx context.Context) ([]models.Share, error) {
	rows, err := c.queryContext(ctx, "SELECT "+shareColumns+" FROM shares ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	shares := []models.Share{}
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan share: %w", err)
		}
		shares = append(shares, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list shares: %w", err)
	}
	rows.Close()

	bets, err := c.ListBets(ctx)
	if err != nil {
		return nil, err
	}
	members, err := c.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[int64]int, len(shares))
	for i, s := range shares {
		index[s.ID] = i
	}
	for _, b := range bets {
		if i, ok := index[b.ShareID]; ok {
			shares[i].Bets = append(shares[i].Bets, b)
		}
	}
	for _, m := range members {
		if i, ok := index[m.ShareID]; ok {
			shares[i].Members = append(shares[i].Members, m)
		}
	}
	return shares, nil
}

// GetShare returns the share with id including bets and members.
func (c *conn) GetShare(ctx context.Context, id int64) (models.Share, error) {
	s, err := scanShare(c.queryRowContext(ctx, "SELECT "+shareColumns+" FROM shares WHERE id = ?", id))
	if err != nil {
		return models.Share{}, fmt.Errorf("get share %d: %w", id, notFound(err))
	}
	if s.Bets, err = c.BetsForShare(ctx, id); err != nil {
		return models.Share{}, err
	}
	if s.Members, err = c.MembersForShare(ctx, id); err != nil {
		return models.Share{}, err
	}
	return s, nil
}

// CreateShare inserts share and returns its id.
func (c *conn) CreateShare(ctx context.Context, s models.Share) (int64, error) {
	id, err := c.insert(ctx,
		"INSERT INTO shares (name, station_id, note, archived) VALUES (?, ?, ?, ?)",
		s.Name, nullInt(s.StationID), nullString(s.Note), s.Archived)
	if err != nil {
		return 0, fmt.Errorf("create share: %w", err)
	}
	return id, nil
}

// UpdateShare writes the scalar fields of s.
func (c *conn) UpdateShare(ctx context.Context, s models.Share) error {
	err := c.execOne(ctx,
		"UPDATE shares SET name = ?, station_id = ?, note = ?, archived = ? WHERE id = ?",
		s.Name, nullInt(s.StationID), nullString(s.Note), s.Archived, s.ID)
	if err != nil {
		return fmt.Errorf("update share %d: %w", s.ID, err)
	}
	return nil
}

// DeleteShare removes the share row. Dependent rows must be moved or deleted first.
func (c *conn) DeleteShare(ctx context.Context, id int64) error {
	if err := c.execOne(ctx, "DELETE FROM shares WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete share %d: %w", id, err)
	}
	return nil
}

// StationNames returns station names keyed by id.
func (c *conn) StationNames(ctx context.Context) (map[int64]string, error) {
	stations, err := c.ListStations(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(stations))
	for _, st := range stations {
		names[st.ID] = st.Name
	}
	return names, nil
}
