package model

import "time"

// DailyReport is the report-ready event emitted once per day: every task
// created or updated within the window. The core emits it to a
// dispatcher; mail transport is external.
type DailyReport struct {
	// Day is the start of the reported day (UTC midnight).
	Day time.Time `json:"day"`

	// Tasks changed within [Day, Day+24h).
	Tasks []Task `json:"tasks"`

	GeneratedAt time.Time `json:"generated_at"`
}
