// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package station serves the read-only station catalogue and its recent
// availability history. Rows are written by an external collector.
package station

import (
	"time"

	"github.com/taibuivan/dublinbikes/internal/platform/apperr"
)

// Station is one docking station of the scheme.
type Station struct {
	Number       int     `json:"number"`
	ContractName string  `json:"contract_name"`
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Banking      bool    `json:"banking"`
	Bonus        bool    `json:"bonus"`
	BikeStands   int     `json:"bike_stands"`
}

// Availability is one snapshot of a station taken by the collector.
type Availability struct {
	Number              int       `json:"number"`
	AvailableBikes      int       `json:"available_bikes"`
	AvailableBikeStands int       `json:"available_bike_stands"`
	Status              string    `json:"status"`
	LastUpdate          int64     `json:"last_update"`
	Timestamp           time.Time `json:"timestamp"`
	RequestedAt         time.Time `json:"requested_at"`
}

// HistoryWindow is how far back availability history reaches.
const HistoryWindow = 24 * time.Hour

// CodeStationNotFound is returned when the station number is unknown.
const CodeStationNotFound = 40402

// ErrStationNotFound is returned for unknown station numbers.
var ErrStationNotFound = apperr.NotFound(CodeStationNotFound, "Station")
