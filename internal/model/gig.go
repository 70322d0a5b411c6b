package model

import "time"

type Gig struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Tier       int       `json:"tier"`
	Stars      int       `json:"stars"`
	Checklist  []string  `json:"checklist"`
	Active     bool      `json:"active"`
	AIReview   bool      `json:"ai_review"`
	AICriteria string    `json:"ai_criteria"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "claimed"
	ClaimApproved ClaimStatus = "approved"
	ClaimRejected ClaimStatus = "rejected"
)

type ClaimedGig struct {
	ID           int64       `json:"id"`
	GigID        int64       `json:"gig_id"`
	ChildID      int64       `json:"child_id"`
	Status       ClaimStatus `json:"status"`
	Inspector    string      `json:"inspector,omitempty"`
	StarsAwarded int         `json:"stars_awarded"`
	ClaimedAt    time.Time   `json:"claimed_at"`
	InspectedAt  *time.Time  `json:"inspected_at,omitempty"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
}

// StarHistoryEntry is one append-only ledger row. BalanceAfter snapshots the
// child's balance as of this entry; the running sum of Stars is authoritative.
type StarHistoryEntry struct {
	ID           int64     `json:"id"`
	ChildID      int64     `json:"child_id"`
	Stars        int       `json:"stars"`
	Reason       string    `json:"reason"`
	BalanceAfter int       `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}
