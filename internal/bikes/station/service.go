// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package station

import (
	"context"
	"log/slog"

	"github.com/taibuivan/dublinbikes/internal/platform/apperr"
	"github.com/taibuivan/dublinbikes/internal/platform/clock"
)

// # Service Layer

// Service serves the station catalogue and its availability history.
//
// # Time
//
// The history window is measured from the injected [clock.Clock], so tests can
// pin "now" without touching the stored snapshots.
type Service struct {
	repo   Repository
	clock  clock.Clock
	logger *slog.Logger
}

// NewService constructs a new [Service] with its repository dependency.
func NewService(repo Repository, clk clock.Clock, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		clock:  clk,
		logger: logger.With(slog.String("component", "station")),
	}
}

/*
ListStations returns every station ordered by number.

Returns:
  - []*Station: possibly empty, never nil
  - error: storage failures
*/
func (service *Service) ListStations(ctx context.Context) ([]*Station, error) {
	stations, err := service.repo.ListStations(ctx)
	if err != nil {
		service.logStorageFailure(ctx, "station_list_failed", err)
		return nil, err
	}
	return stations, nil
}

/*
RecentAvailability returns the last day of snapshots for one station.

Description: The station must exist; an empty history for a known station is
a valid result.

Returns:
  - []*Availability: ordered by requested_at ascending
  - error: ErrStationNotFound or storage failures
*/
func (service *Service) RecentAvailability(ctx context.Context, number int) ([]*Availability, error) {
	exists, err := service.repo.Exists(ctx, number)
	if err != nil {
		service.logStorageFailure(ctx, "station_lookup_failed", err, slog.Int("number", number))
		return nil, err
	}
	if !exists {
		return nil, ErrStationNotFound
	}

	since := service.clock.Now().Add(-HistoryWindow)
	history, err := service.repo.ListAvailabilitySince(ctx, number, since)
	if err != nil {
		service.logStorageFailure(ctx, "station_availability_failed", err, slog.Int("number", number))
		return nil, err
	}
	return history, nil
}

// logStorageFailure records the cause of a storage error; clients only see the code.
func (service *Service) logStorageFailure(ctx context.Context, event string, err error, attrs ...any) {
	cause := err
	if appErr := apperr.As(err); appErr != nil && appErr.Cause != nil {
		cause = appErr.Cause
	}
	service.logger.ErrorContext(ctx, event, append(attrs, slog.Any("error", cause))...)
}
