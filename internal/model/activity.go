package model

import "time"

// ActivityEntry is a human-readable event line. Written fire-and-forget;
// the engine never reads it back as part of any decision.
type ActivityEntry struct {
	ID        int64     `json:"id"`
	ChildID   *int64    `json:"child_id,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
