package verify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/ai"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/domain"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/store"
)

// Pipeline drives the photo/attestation state machine shared by chores,
// gigs, and daily expectations.
//
// First submission starts at ai_reviewing (AI enabled) or pending_review
// (AI disabled). The AI verdict moves it to approved or needs_revision; a
// human verdict is terminal. From needs_revision the child either resubmits
// (new row, attempt+1, chain preserved) or escalates to a human.
type Pipeline struct {
	submissions *store.SubmissionStore
	evaluator   ai.Evaluator
	logger      *slog.Logger
}

func NewPipeline(submissions *store.SubmissionStore, evaluator ai.Evaluator, logger *slog.Logger) *Pipeline {
	return &Pipeline{submissions: submissions, evaluator: evaluator, logger: logger}
}

// SubmitParams describes a first submission or a resubmission.
type SubmitParams struct {
	EntityType model.EntityType
	EntityID   int64
	ChildID    int64
	Note       string
	AIEnabled  bool
}

// Submit records a new attempt. The storage key is minted here; the actual
// photo upload happens out-of-band against that key.
func (p *Pipeline) Submit(params SubmitParams, now time.Time) (*model.CompletionSubmission, error) {
	status := model.SubmissionPendingReview
	if params.AIEnabled && p.evaluator != nil {
		status = model.SubmissionAIReviewing
	}

	key := uuid.NewString()
	sub, err := p.submissions.Create(params.EntityType, params.EntityID, params.ChildID, key, params.Note, status, now)
	if err != nil {
		return nil, err
	}
	p.logger.Info("submission created",
		"submission_id", sub.ID, "entity", sub.EntityType, "entity_id", sub.EntityID,
		"child_id", sub.ChildID, "attempt", sub.Attempt, "status", sub.Status)
	return sub, nil
}

// Resubmit creates the next attempt after a needs_revision verdict. The prior
// row is left untouched; the chain is the audit trail. The caller passes the
// entity's current AI setting, so turning review off on a gig takes effect on
// the very next attempt.
func (p *Pipeline) Resubmit(submissionID, childID int64, note string, aiEnabled bool, now time.Time) (*model.CompletionSubmission, error) {
	prev, err := p.owned(submissionID, childID)
	if err != nil {
		return nil, err
	}
	if prev.Status != model.SubmissionNeedsRevision {
		return nil, fmt.Errorf("%w: can only resubmit after needs_revision, submission is %s", domain.ErrInvalidState, prev.Status)
	}

	return p.Submit(SubmitParams{
		EntityType: prev.EntityType,
		EntityID:   prev.EntityID,
		ChildID:    childID,
		Note:       note,
		AIEnabled:  aiEnabled,
	}, now)
}

// RunAIReview asks the evaluator for a verdict and applies it. On evaluator
// failure the submission stays in ai_reviewing for a later retry or
// escalation; failure is never turned into a verdict.
func (p *Pipeline) RunAIReview(ctx context.Context, submissionID int64, criteria string, now time.Time) (*model.CompletionSubmission, error) {
	sub, err := p.submissions.GetByID(submissionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: submission %d", domain.ErrNotFound, submissionID)
	}
	if sub.Status != model.SubmissionAIReviewing {
		return nil, fmt.Errorf("%w: submission %d is %s, not awaiting AI review", domain.ErrInvalidState, submissionID, sub.Status)
	}
	if p.evaluator == nil {
		return nil, fmt.Errorf("%w: no evaluator configured", domain.ErrUnavailable)
	}

	verdict, err := p.evaluator.Evaluate(ctx, submissionID, criteria)
	if err != nil {
		p.logger.Warn("ai review unavailable", "submission_id", submissionID, "error", err)
		return nil, err
	}

	status := model.SubmissionNeedsRevision
	if verdict.Status == "approved" {
		status = model.SubmissionApproved
	}
	return p.submissions.SetAIResult(submissionID, status, verdict.Feedback, now)
}

// Escalate lets the child skip (further) AI review and force human judgment.
// Legal only from ai_reviewing or needs_revision.
func (p *Pipeline) Escalate(submissionID, childID int64, now time.Time) (*model.CompletionSubmission, error) {
	sub, err := p.owned(submissionID, childID)
	if err != nil {
		return nil, err
	}
	if sub.Status.Terminal() || sub.Status == model.SubmissionPendingReview {
		return nil, fmt.Errorf("%w: cannot escalate submission in status %s", domain.ErrInvalidState, sub.Status)
	}
	escalated, err := p.submissions.Escalate(submissionID, now)
	if err != nil {
		return nil, err
	}
	p.logger.Info("submission escalated", "submission_id", submissionID, "child_id", childID)
	return escalated, nil
}

// Review records a human verdict. Terminal; approving or rejecting an
// already-decided submission is a conflict surfaced as InvalidState.
func (p *Pipeline) Review(submissionID int64, approve bool, reviewer string, now time.Time) (*model.CompletionSubmission, error) {
	status := model.SubmissionRejected
	if approve {
		status = model.SubmissionApproved
	}
	sub, err := p.submissions.HumanReview(submissionID, status, reviewer, now)
	if err != nil {
		return nil, err
	}
	p.logger.Info("submission reviewed", "submission_id", submissionID, "status", sub.Status, "reviewer", reviewer)
	return sub, nil
}

// Chain returns every attempt for the entity a submission belongs to.
func (p *Pipeline) Chain(submissionID int64) ([]model.CompletionSubmission, error) {
	sub, err := p.submissions.GetByID(submissionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: submission %d", domain.ErrNotFound, submissionID)
	}
	return p.submissions.ListChain(sub.EntityType, sub.EntityID, sub.ChildID)
}

// owned loads a submission and checks the acting child owns it.
func (p *Pipeline) owned(submissionID, childID int64) (*model.CompletionSubmission, error) {
	sub, err := p.submissions.GetByID(submissionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: submission %d", domain.ErrNotFound, submissionID)
	}
	if sub.ChildID != childID {
		return nil, fmt.Errorf("%w: submission %d belongs to another child", domain.ErrForbidden, submissionID)
	}
	return sub, nil
}
