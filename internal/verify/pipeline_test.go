package verify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/ai"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/database"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/domain"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/store"
)

// fakeEvaluator returns a fixed verdict or error.
type fakeEvaluator struct {
	verdict ai.Verdict
	err     error
	calls   int
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, submissionID int64, criteria string) (ai.Verdict, error) {
	f.calls++
	if f.err != nil {
		return ai.Verdict{}, f.err
	}
	return f.verdict, nil
}

func setupPipeline(t *testing.T, eval ai.Evaluator) (*Pipeline, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	children := store.NewChildStore(db)
	child, err := children.Create("Ada", 10, 60, 120)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPipeline(store.NewSubmissionStore(db), eval, logger), child.ID
}

func TestSubmitInitialStatus(t *testing.T) {
	now := time.Now()

	// With an evaluator and AI enabled, the submission enters AI review.
	p, childID := setupPipeline(t, &fakeEvaluator{})
	sub, err := p.Submit(SubmitParams{EntityType: model.EntityGig, EntityID: 1, ChildID: childID, AIEnabled: true}, now)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Status != model.SubmissionAIReviewing {
		t.Errorf("status = %q, want ai_reviewing", sub.Status)
	}
	if sub.StorageKey == "" {
		t.Error("expected a storage key to be minted")
	}

	// AI disabled on the entity: straight to the human queue.
	sub, err = p.Submit(SubmitParams{EntityType: model.EntityGig, EntityID: 2, ChildID: childID, AIEnabled: false}, now)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Status != model.SubmissionPendingReview {
		t.Errorf("status = %q, want pending_review", sub.Status)
	}

	// No evaluator configured: AI flag is moot.
	p2, childID2 := setupPipeline(t, nil)
	sub, err = p2.Submit(SubmitParams{EntityType: model.EntityGig, EntityID: 1, ChildID: childID2, AIEnabled: true}, now)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Status != model.SubmissionPendingReview {
		t.Errorf("status = %q without evaluator, want pending_review", sub.Status)
	}
}

func TestAIReviewVerdicts(t *testing.T) {
	now := time.Now()
	ctx := context.Background()

	eval := &fakeEvaluator{verdict: ai.Verdict{Status: "needs_revision", Feedback: "bed not made"}}
	p, childID := setupPipeline(t, eval)

	sub, err := p.Submit(SubmitParams{EntityType: model.EntityGig, EntityID: 1, ChildID: childID, AIEnabled: true}, now)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	reviewed, err := p.RunAIReview(ctx, sub.ID, "bed made, floor clear", now)
	if err != nil {
		t.Fatalf("run ai review: %v", err)
	}
	if reviewed.Status != model.SubmissionNeedsRevision {
		t.Errorf("status = %q, want needs_revision", reviewed.Status)
	}
	if reviewed.AIFeedback != "bed not made" {
		t.Errorf("feedback = %q", reviewed.AIFeedback)
	}
	if eval.calls != 1 {
		t.Errorf("evaluator calls = %d, want 1", eval.calls)
	}

	// The submission is no longer awaiting AI; another run is illegal.
	if _, err := p.RunAIReview(ctx, sub.ID, "", now); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("second ai review: err = %v, want InvalidState", err)
	}
}

func TestAIFailureLeavesStateUntouched(t *testing.T) {
	now := time.Now()
	ctx := context.Background()

	eval := &fakeEvaluator{err: domain.ErrUnavailable}
	p, childID := setupPipeline(t, eval)

	sub, err := p.Submit(SubmitParams{EntityType: model.EntityGig, EntityID: 1, ChildID: childID, AIEnabled: true}, now)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := p.RunAIReview(ctx, sub.ID, "", now); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("ai review: err = %v, want Unavailable", err)
	}

	// Still awaiting AI review: retry and escalation both remain open.
	chain, err := p.Chain(sub.ID)
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	if chain[0].Status != model.SubmissionAIReviewing {
		t.Errorf("status = %q after failure, want ai_reviewing", chain[0].Status)
	}
	if _, err := p.Escalate(sub.ID, childID, now); err != nil {
		t.Errorf("escalate after ai failure: %v", err)
	}
}

func TestResubmitExtendsChain(t *testing.T) {
	now := time.Now()
	ctx := context.Background()

	eval := &fakeEvaluator{verdict: ai.Verdict{Status: "needs_revision", Feedback: "try again"}}
	p, childID := setupPipeline(t, eval)

	first, err := p.Submit(SubmitParams{EntityType: model.EntityChore, EntityID: 4, ChildID: childID, AIEnabled: true}, now)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := p.RunAIReview(ctx, first.ID, "", now); err != nil {
		t.Fatalf("ai review: %v", err)
	}

	// Resubmitting before a needs_revision verdict is illegal.
	early, err := p.Submit(SubmitParams{EntityType: model.EntityChore, EntityID: 5, ChildID: childID, AIEnabled: true}, now)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := p.Resubmit(early.ID, childID, "", true, now); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("resubmit from ai_reviewing: err = %v, want InvalidState", err)
	}

	second, err := p.Resubmit(first.ID, childID, "redid it", true, now)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if second.Attempt != 2 {
		t.Errorf("attempt = %d, want 2", second.Attempt)
	}
	if second.Status != model.SubmissionAIReviewing {
		t.Errorf("status = %q, want ai_reviewing on resubmit", second.Status)
	}
	if second.StorageKey == first.StorageKey {
		t.Error("resubmission must mint a fresh storage key")
	}

	// The first attempt survives untouched as the audit trail.
	chain, err := p.Chain(second.ID)
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	if len(chain) != 2 {
		t.Fatalf("chain length = %d, want 2", len(chain))
	}
	if chain[0].Status != model.SubmissionNeedsRevision || chain[0].AIFeedback != "try again" {
		t.Error("prior attempt must keep its verdict and feedback")
	}
}

func TestResubmitFollowsCurrentAISetting(t *testing.T) {
	now := time.Now()
	ctx := context.Background()

	eval := &fakeEvaluator{verdict: ai.Verdict{Status: "needs_revision", Feedback: "missed a spot"}}
	p, childID := setupPipeline(t, eval)

	first, err := p.Submit(SubmitParams{EntityType: model.EntityGig, EntityID: 1, ChildID: childID, AIEnabled: true}, now)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := p.RunAIReview(ctx, first.ID, "", now); err != nil {
		t.Fatalf("ai review: %v", err)
	}

	// AI review turned off on the gig since the first attempt: the next
	// attempt goes straight to the human queue.
	second, err := p.Resubmit(first.ID, childID, "redid it", false, now)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if second.Status != model.SubmissionPendingReview {
		t.Errorf("status = %q, want pending_review with AI disabled", second.Status)
	}
}

func TestEscalateOwnershipAndLegality(t *testing.T) {
	now := time.Now()

	p, childID := setupPipeline(t, &fakeEvaluator{})
	sub, err := p.Submit(SubmitParams{EntityType: model.EntityGig, EntityID: 1, ChildID: childID, AIEnabled: true}, now)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Another child cannot escalate someone else's submission.
	if _, err := p.Escalate(sub.ID, childID+1, now); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("escalate by non-owner: err = %v, want Forbidden", err)
	}

	escalated, err := p.Escalate(sub.ID, childID, now)
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if escalated.Status != model.SubmissionPendingReview || !escalated.Escalated {
		t.Error("expected pending_review with escalated flag")
	}

	// Terminal after a human verdict; nothing further is legal.
	if _, err := p.Review(sub.ID, true, "Dad", now); err != nil {
		t.Fatalf("review: %v", err)
	}
	if _, err := p.Escalate(sub.ID, childID, now); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("escalate after verdict: err = %v, want InvalidState", err)
	}
	if _, err := p.Review(sub.ID, false, "Mom", now); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("second verdict: err = %v, want InvalidState", err)
	}
}

func TestReviewRejection(t *testing.T) {
	now := time.Now()

	p, childID := setupPipeline(t, nil)
	sub, err := p.Submit(SubmitParams{EntityType: model.EntityExpectation, EntityID: 9, ChildID: childID}, now)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	reviewed, err := p.Review(sub.ID, false, "Mom", now)
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != model.SubmissionRejected {
		t.Errorf("status = %q, want rejected", reviewed.Status)
	}
	if reviewed.ReviewedBy != "Mom" {
		t.Errorf("reviewed_by = %q, want Mom", reviewed.ReviewedBy)
	}
}
