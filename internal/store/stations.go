package store

import (
	"context"
	"fmt"

	"github.com/kjstillabower/solawi/internal/models"
)

// ListStations returns all stations ordered by name.
func (c *conn) ListStations(ctx context.Context) ([]models.Station, error) {
	rows, err := c.queryContext(ctx, "SELECT id, name FROM stations ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	defer rows.Close()
	stations := []models.Station{}
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// CreateStation inserts a station and returns it with its id.
func (c *conn) CreateStation(ctx context.Context, name string) (models.Station, error) {
	id, err := c.insert(ctx, "INSERT INTO stations (name) VALUES (?)", name)
	if err != nil {
		return models.Station{}, fmt.Errorf("create station: %w", err)
	}
	return models.Station{ID: id, Name: name}, nil
}

// GetStation returns the station with id.
func (c *conn) GetStation(ctx context.Context, id int64) (models.Station, error) {
	var st models.Station
	err := c.queryRowContext(ctx, "SELECT id, name FROM stations WHERE id = ?", id).Scan(&st.ID, &st.Name)
	if err != nil {
		return models.Station{}, fmt.Errorf("get station %d: %w", id, notFound(err))
	}
	return st, nil
}
