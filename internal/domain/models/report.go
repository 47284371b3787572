package models

import "time"

// DeliveryStats aggregates delivery reports over a period.
type DeliveryStats struct {
	Since    time.Time      `bson:"since" json:"since"`
	Total    int            `bson:"total" json:"total"`
	ByStatus map[string]int `bson:"by_status" json:"by_status"`
	Inbound  int            `bson:"inbound" json:"inbound"`
	Invalid  int            `bson:"invalid" json:"invalid"`
}

// Delivered returns the count of reports with a final successful status.
func (s DeliveryStats) Delivered() int {
	return s.ByStatus["Success"]
}

// Failed returns the count of reports that will not be delivered.
func (s DeliveryStats) Failed() int {
	return s.ByStatus["Failed"] + s.ByStatus["Rejected"]
}
