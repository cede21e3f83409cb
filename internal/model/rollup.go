package model

import "time"

// CourseRollup is one appended daily record of view counts for a course.
// Records for the same date are not merged on write; readers aggregate
// by date.
type CourseRollup struct {
	CourseID string `json:"course_id"`
	Date     string `json:"date"` // YYYY-MM-DD
	Views    int64  `json:"views"`
}

// UserRollup is one appended daily record of engagement for a user:
// the number of distinct courses touched by any action that day.
type UserRollup struct {
	UserID  string `json:"user_id"`
	Date    string `json:"date"` // YYYY-MM-DD
	Courses int64  `json:"courses"`
}

// RollupPoint is a date-aggregated read of rollup records.
type RollupPoint struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

// DailySummary reports the outcome of a daily aggregation pass.
type DailySummary struct {
	ProcessedEvents int       `json:"processed_events"`
	CourseRollups   int       `json:"course_rollups"`
	UserRollups     int       `json:"user_rollups"`
	PrunedEvents    int64     `json:"pruned_events"`
	Errors          int       `json:"errors"`
	RanAt           time.Time `json:"ran_at"`
}
