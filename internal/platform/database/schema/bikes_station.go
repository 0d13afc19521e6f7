// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema holds table and column names of the bikes schema so queries
// never repeat string literals.
package schema

// BikesStationTable represents the 'bikes.station' table
type BikesStationTable struct {
	Table        string
	Number       string
	ContractName string
	Name         string
	Address      string
	Latitude     string
	Longitude    string
	Banking      string
	Bonus        string
	BikeStands   string
}

// BikesStation is the schema definition for bikes.station
var BikesStation = BikesStationTable{
	Table:        "bikes.station",
	Number:       "number",
	ContractName: "contract_name",
	Name:         "name",
	Address:      "address",
	Latitude:     "latitude",
	Longitude:    "longitude",
	Banking:      "banking",
	Bonus:        "bonus",
	BikeStands:   "bike_stands",
}

func (t BikesStationTable) Columns() []string {
	return []string{
		t.Number, t.ContractName, t.Name, t.Address, t.Latitude,
		t.Longitude, t.Banking, t.Bonus, t.BikeStands,
	}
}
