package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/store"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/verify"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/websocket"
)

type SubmissionHandler struct {
	pipeline    *verify.Pipeline
	submissions *store.SubmissionStore
	gigs        *store.GigStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewSubmissionHandler(p *verify.Pipeline, ss *store.SubmissionStore, gs *store.GigStore, hub *websocket.Hub, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{pipeline: p, submissions: ss, gigs: gs, hub: hub, logger: logger}
}

func (h *SubmissionHandler) broadcast(e websocket.Event) {
	if h.hub != nil {
		h.hub.Broadcast(e)
	}
}

// Submit files a new completion proof. For gigs, AI review follows the gig's
// own setting; chores and expectations go straight to the human queue.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EntityType string `json:"entity_type"`
		EntityID   int64  `json:"entity_id"`
		ChildID    int64  `json:"child_id"`
		Note       string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	entityType := model.EntityType(req.EntityType)
	switch entityType {
	case model.EntityGig, model.EntityChore, model.EntityExpectation:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "entity_type must be gig, chore, or expectation"})
		return
	}

	aiEnabled := false
	if entityType == model.EntityGig {
		gig, err := h.gigs.GetByID(req.EntityID)
		if err != nil {
			writeError(w, h.logger, err, "failed to get gig")
			return
		}
		if gig == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "gig not found"})
			return
		}
		aiEnabled = gig.AIReview
	}

	sub, err := h.pipeline.Submit(verify.SubmitParams{
		EntityType: entityType,
		EntityID:   req.EntityID,
		ChildID:    req.ChildID,
		Note:       strings.TrimSpace(req.Note),
		AIEnabled:  aiEnabled,
	}, time.Now())
	if err != nil {
		writeError(w, h.logger, err, "failed to create submission")
		return
	}

	h.broadcast(websocket.NewEvent("submission", "created", sub.ID, sub.ChildID, map[string]any{"status": sub.Status}))
	writeJSON(w, http.StatusCreated, sub)
}

// Resubmit files the next attempt after a needs_revision verdict. For gigs
// the new attempt follows the gig's current AI setting, not the one in force
// when the chain started.
func (h *SubmissionHandler) Resubmit(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		ChildID int64  `json:"child_id"`
		Note    string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	prev, err := h.submissions.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get submission")
		return
	}
	if prev == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "submission not found"})
		return
	}

	aiEnabled := false
	if prev.EntityType == model.EntityGig {
		gig, err := h.gigs.GetByID(prev.EntityID)
		if err != nil {
			writeError(w, h.logger, err, "failed to get gig")
			return
		}
		aiEnabled = gig != nil && gig.AIReview
	}

	sub, err := h.pipeline.Resubmit(id, req.ChildID, strings.TrimSpace(req.Note), aiEnabled, time.Now())
	if err != nil {
		writeError(w, h.logger, err, "failed to resubmit")
		return
	}

	h.broadcast(websocket.NewEvent("submission", "resubmitted", sub.ID, sub.ChildID, map[string]any{"attempt": sub.Attempt}))
	writeJSON(w, http.StatusCreated, sub)
}

// RunAIReview triggers the evaluator for a submission awaiting AI review. For
// gigs the criteria come from the gig; otherwise the evaluator works from the
// photo alone.
func (h *SubmissionHandler) RunAIReview(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	sub, err := h.submissions.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get submission")
		return
	}
	if sub == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "submission not found"})
		return
	}

	criteria := ""
	if sub.EntityType == model.EntityGig {
		gig, err := h.gigs.GetByID(sub.EntityID)
		if err == nil && gig != nil {
			criteria = gig.AICriteria
		}
	}

	reviewed, err := h.pipeline.RunAIReview(r.Context(), id, criteria, time.Now())
	if err != nil {
		writeError(w, h.logger, err, "failed to run AI review")
		return
	}

	h.broadcast(websocket.NewEvent("submission", "ai_reviewed", reviewed.ID, reviewed.ChildID, map[string]any{"status": reviewed.Status}))
	writeJSON(w, http.StatusOK, reviewed)
}

// Escalate skips AI review and forces human judgment.
func (h *SubmissionHandler) Escalate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		ChildID int64 `json:"child_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	sub, err := h.pipeline.Escalate(id, req.ChildID, time.Now())
	if err != nil {
		writeError(w, h.logger, err, "failed to escalate")
		return
	}

	h.broadcast(websocket.NewEvent("submission", "escalated", sub.ID, sub.ChildID, nil))
	writeJSON(w, http.StatusOK, sub)
}

// Review records the human verdict. Terminal either way.
func (h *SubmissionHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		Approve  bool   `json:"approve"`
		Reviewer string `json:"reviewer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Reviewer = strings.TrimSpace(req.Reviewer)
	if req.Reviewer == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reviewer is required"})
		return
	}

	sub, err := h.pipeline.Review(id, req.Approve, req.Reviewer, time.Now())
	if err != nil {
		writeError(w, h.logger, err, "failed to review submission")
		return
	}

	h.broadcast(websocket.NewEvent("submission", "reviewed", sub.ID, sub.ChildID, map[string]any{"status": sub.Status}))
	writeJSON(w, http.StatusOK, sub)
}

// Chain returns every attempt for the submission's entity, oldest first.
func (h *SubmissionHandler) Chain(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	chain, err := h.pipeline.Chain(id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get submission chain")
		return
	}
	writeJSON(w, http.StatusOK, chain)
}

// Queue lists submissions awaiting human review, oldest first.
func (h *SubmissionHandler) Queue(w http.ResponseWriter, r *http.Request) {
	subs, err := h.submissions.ListByStatus(model.SubmissionPendingReview)
	if err != nil {
		writeError(w, h.logger, err, "failed to list review queue")
		return
	}
	if subs == nil {
		subs = []model.CompletionSubmission{}
	}
	writeJSON(w, http.StatusOK, subs)
}
