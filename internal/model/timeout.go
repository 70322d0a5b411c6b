package model

import "time"

// ViolationRule maps a violation kind to its base timeout minutes and
// category. Rules are immutable configuration, not user-editable data.
type ViolationRule struct {
	Kind     string `json:"kind"`
	Minutes  int    `json:"minutes"`
	Category string `json:"category"`
}

type TimeoutStatus string

const (
	TimeoutOpen      TimeoutStatus = "open"
	TimeoutServing   TimeoutStatus = "serving"
	TimeoutServed    TimeoutStatus = "served"
	TimeoutCompleted TimeoutStatus = "completed"
	TimeoutDismissed TimeoutStatus = "dismissed"
)

// Terminal reports whether the record can no longer be mutated.
func (s TimeoutStatus) Terminal() bool {
	return s == TimeoutCompleted || s == TimeoutDismissed
}

type TimeoutRecord struct {
	ID             int64         `json:"id"`
	ChildID        int64         `json:"child_id"`
	Kind           string        `json:"kind"`
	Category       string        `json:"category"`
	BaseMinutes    int           `json:"base_minutes"`
	ResetCount     int           `json:"reset_count"`
	Doubled        bool          `json:"doubled"`
	Status         TimeoutStatus `json:"status"`
	StartedAt      time.Time     `json:"started_at"`
	ServingStarted *time.Time    `json:"serving_started,omitempty"`
	ServedAt       *time.Time    `json:"served_at,omitempty"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
}
