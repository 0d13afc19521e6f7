// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package station

import (
	"context"
	"time"
)

// Repository defines the data access contract.
type Repository interface {
	ListStations(ctx context.Context) ([]*Station, error)

	// Exists reports whether a station with the given number is stored.
	Exists(ctx context.Context, number int) (bool, error)

	// ListAvailabilitySince returns snapshots with requested_at >= since, oldest first.
	ListAvailabilitySince(ctx context.Context, number int, since time.Time) ([]*Availability, error)
}
