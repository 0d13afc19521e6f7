// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// BikesAvailabilityTable represents the 'bikes.availability' table
type BikesAvailabilityTable struct {
	Table               string
	ID                  string
	Number              string
	AvailableBikes      string
	AvailableBikeStands string
	Status              string
	LastUpdate          string
	Timestamp           string
	RequestedAt         string
}

// BikesAvailability is the schema definition for bikes.availability
var BikesAvailability = BikesAvailabilityTable{
	Table:               "bikes.availability",
	ID:                  "id",
	Number:              "number",
	AvailableBikes:      "available_bikes",
	AvailableBikeStands: "available_bike_stands",
	Status:              "status",
	LastUpdate:          "last_update",
	Timestamp:           `"timestamp"`,
	RequestedAt:         "requested_at",
}

// Columns omits the surrogate id, which is never exposed.
func (t BikesAvailabilityTable) Columns() []string {
	return []string{
		t.Number, t.AvailableBikes, t.AvailableBikeStands, t.Status,
		t.LastUpdate, t.Timestamp, t.RequestedAt,
	}
}
