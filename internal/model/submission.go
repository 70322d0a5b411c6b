package model

import "time"

type SubmissionStatus string

const (
	SubmissionAIReviewing   SubmissionStatus = "ai_reviewing"
	SubmissionPendingReview SubmissionStatus = "pending_review"
	SubmissionApproved      SubmissionStatus = "approved"
	SubmissionNeedsRevision SubmissionStatus = "needs_revision"
	SubmissionRejected      SubmissionStatus = "rejected"
)

// Terminal reports whether no further transitions are legal.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionApproved || s == SubmissionRejected
}

type EntityType string

const (
	EntityGig         EntityType = "gig"
	EntityChore       EntityType = "chore"
	EntityExpectation EntityType = "expectation"
)

// CompletionSubmission is one photo/attestation attempt. Resubmission creates
// a new row for the same (entity, child) with Attempt incremented; prior rows
// are never modified, preserving the chain for audit.
type CompletionSubmission struct {
	ID         int64            `json:"id"`
	EntityType EntityType       `json:"entity_type"`
	EntityID   int64            `json:"entity_id"`
	ChildID    int64            `json:"child_id"`
	StorageKey string           `json:"storage_key"`
	Note       string           `json:"note"`
	Status     SubmissionStatus `json:"status"`
	Attempt    int              `json:"attempt"`
	Escalated  bool             `json:"escalated"`
	AIFeedback string           `json:"ai_feedback,omitempty"`
	ReviewedBy string           `json:"reviewed_by,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}
