// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package station

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/dublinbikes/internal/platform/database/schema"
	"github.com/taibuivan/dublinbikes/internal/platform/dberr"
)

// # Definitions & Constructors

// PostgresRepository implements [Repository] on the bikes schema.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a new [PostgresRepository].
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// # Queries

/*
ListStations retrieves every station.

Returns:
  - []*Station: ordered by number ascending
  - error: Internal on query or scan failures
*/
func (repository *PostgresRepository) ListStations(ctx context.Context) ([]*Station, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY %s ASC;
	`,
		strings.Join(schema.BikesStation.Columns(), ", "),
		schema.BikesStation.Table,
		schema.BikesStation.Number,
	)

	rows, err := repository.db.Query(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(err, "postgres_station_list")
	}
	defer rows.Close()

	stations := make([]*Station, 0)
	for rows.Next() {
		s := &Station{}
		if err := rows.Scan(
			&s.Number, &s.ContractName, &s.Name, &s.Address, &s.Latitude,
			&s.Longitude, &s.Banking, &s.Bonus, &s.BikeStands,
		); err != nil {
			return nil, dberr.Wrap(err, "postgres_station_scan")
		}
		stations = append(stations, s)
	}

	return stations, dberr.Wrap(rows.Err(), "postgres_station_list")
}

/*
Exists reports whether a station with the given number is stored.
*/
func (repository *PostgresRepository) Exists(ctx context.Context, number int) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1);`,
		schema.BikesStation.Table,
		schema.BikesStation.Number,
	)

	var exists bool
	if err := repository.db.QueryRow(ctx, query, number).Scan(&exists); err != nil {
		return false, dberr.Wrap(err, "postgres_station_exists")
	}
	return exists, nil
}

/*
ListAvailabilitySince retrieves the snapshots of one station requested at or after since.

Returns:
  - []*Availability: ordered by requested_at ascending, timestamps in UTC
  - error: Internal on query or scan failures
*/
func (repository *PostgresRepository) ListAvailabilitySince(ctx context.Context, number int, since time.Time) ([]*Availability, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s >= $2
		ORDER BY %s ASC;
	`,
		strings.Join(schema.BikesAvailability.Columns(), ", "),
		schema.BikesAvailability.Table,
		schema.BikesAvailability.Number,
		schema.BikesAvailability.RequestedAt,
		schema.BikesAvailability.RequestedAt,
	)

	rows, err := repository.db.Query(ctx, query, number, since)
	if err != nil {
		return nil, dberr.Wrap(err, "postgres_availability_list")
	}
	defer rows.Close()

	history := make([]*Availability, 0)
	for rows.Next() {
		a := &Availability{}
		if err := rows.Scan(
			&a.Number, &a.AvailableBikes, &a.AvailableBikeStands, &a.Status,
			&a.LastUpdate, &a.Timestamp, &a.RequestedAt,
		); err != nil {
			return nil, dberr.Wrap(err, "postgres_availability_scan")
		}
		a.Timestamp = a.Timestamp.UTC()
		a.RequestedAt = a.RequestedAt.UTC()
		history = append(history, a)
	}

	return history, dberr.Wrap(rows.Err(), "postgres_availability_list")
}
