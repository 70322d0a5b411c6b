package model

import "time"

// ChoreAssignment pins a child to a cleaning zone for one rotation week.
type ChoreAssignment struct {
	ID      int64  `json:"id"`
	ChildID int64  `json:"child_id"`
	Week    string `json:"week"`
	Zone    string `json:"zone"`
}

// RotationState is a singleton: which of the three rotation weeks is active.
type RotationState struct {
	ActiveWeek string     `json:"active_week"`
	RotatedAt  *time.Time `json:"rotated_at,omitempty"`
}

// ChoreRoom maps (zone, weekday) to a room and its checklist. Weekday follows
// time.Weekday numbering (Sunday = 0).
type ChoreRoom struct {
	ID        int64    `json:"id"`
	Zone      string   `json:"zone"`
	Weekday   int      `json:"weekday"`
	Room      string   `json:"room"`
	Checklist []string `json:"checklist"`
}

// ChoreCompletion records a child's daily-chore outcome for one date.
// One row per (child, date), maintained by upsert.
type ChoreCompletion struct {
	ID        int64     `json:"id"`
	ChildID   int64     `json:"child_id"`
	Date      string    `json:"date"`
	Room      string    `json:"room"`
	Completed bool      `json:"completed"`
	Notes     string    `json:"notes"`
	UpdatedAt time.Time `json:"updated_at"`
}
