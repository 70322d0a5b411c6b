package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/activity"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/ledger"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/screentime"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/store"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/websocket"
)

type GigHandler struct {
	store      *store.GigStore
	children   *store.ChildStore
	ledger     *store.LedgerStore
	screenTime *store.ScreenTimeStore
	activity   *activity.Logger
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewGigHandler(gs *store.GigStore, cs *store.ChildStore, ls *store.LedgerStore, ss *store.ScreenTimeStore, act *activity.Logger, hub *websocket.Hub, logger *slog.Logger) *GigHandler {
	return &GigHandler{store: gs, children: cs, ledger: ls, screenTime: ss, activity: act, hub: hub, logger: logger}
}

func (h *GigHandler) broadcast(e websocket.Event) {
	if h.hub != nil {
		h.hub.Broadcast(e)
	}
}

// --- Catalog ---

type gigRequest struct {
	Title      string   `json:"title"`
	Tier       int      `json:"tier"`
	Stars      int      `json:"stars"`
	Checklist  []string `json:"checklist"`
	Active     bool     `json:"active"`
	AIReview   bool     `json:"ai_review"`
	AICriteria string   `json:"ai_criteria"`
}

func (r *gigRequest) validate() string {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return "title is required"
	}
	if r.Tier < 1 || r.Tier > 5 {
		return "tier must be between 1 and 5"
	}
	if r.Stars < 0 {
		return "stars must be >= 0"
	}
	return ""
}

func (h *GigHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req gigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	gig, err := h.store.Create(req.Title, req.Tier, req.Stars, req.Checklist, req.Active, req.AIReview, req.AICriteria)
	if err != nil {
		writeError(w, h.logger, err, "failed to create gig")
		return
	}

	h.broadcast(websocket.NewEvent("gig", "created", gig.ID, 0, nil))
	writeJSON(w, http.StatusCreated, gig)
}

func (h *GigHandler) List(w http.ResponseWriter, r *http.Request) {
	gigs, err := h.store.List()
	if err != nil {
		writeError(w, h.logger, err, "failed to list gigs")
		return
	}
	if gigs == nil {
		gigs = []model.Gig{}
	}
	writeJSON(w, http.StatusOK, gigs)
}

// Claimable lists active gigs at or below the child's tier.
func (h *GigHandler) Claimable(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	child, err := h.children.GetByID(childID)
	if err != nil {
		writeError(w, h.logger, err, "failed to get child")
		return
	}
	if child == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "child not found"})
		return
	}

	gigs, err := h.store.ListClaimable(child.MaxGigTier)
	if err != nil {
		writeError(w, h.logger, err, "failed to list claimable gigs")
		return
	}
	if gigs == nil {
		gigs = []model.Gig{}
	}
	writeJSON(w, http.StatusOK, gigs)
}

func (h *GigHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get gig")
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "gig not found"})
		return
	}

	var req gigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	gig, err := h.store.Update(id, req.Title, req.Tier, req.Stars, req.Checklist, req.Active, req.AIReview, req.AICriteria)
	if err != nil {
		writeError(w, h.logger, err, "failed to update gig")
		return
	}

	h.broadcast(websocket.NewEvent("gig", "updated", id, 0, nil))
	writeJSON(w, http.StatusOK, gig)
}

func (h *GigHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get gig")
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "gig not found"})
		return
	}

	if err := h.store.Delete(id); err != nil {
		writeError(w, h.logger, err, "failed to delete gig")
		return
	}

	h.broadcast(websocket.NewEvent("gig", "deleted", id, 0, nil))
	w.WriteHeader(http.StatusNoContent)
}

// --- Claims ---

// Claim reserves a gig for a child. The store enforces every guard in one
// transaction; this layer just shapes the request and response.
func (h *GigHandler) Claim(w http.ResponseWriter, r *http.Request) {
	gigID, err := parseIDParam(r)
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

	claim, err := h.store.Claim(gigID, req.ChildID, time.Now())
	if err != nil {
		writeError(w, h.logger, err, "failed to claim gig")
		return
	}

	h.broadcast(websocket.NewEvent("gig", "claimed", gigID, req.ChildID, nil))
	writeJSON(w, http.StatusCreated, claim)
}

// Approve accepts the completed work. Stars land in the ledger, milestone
// crossings are announced, and today's screen-time bonus is re-derived.
func (h *GigHandler) Approve(w http.ResponseWriter, r *http.Request) {
	claimID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		Inspector string `json:"inspector"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Inspector = strings.TrimSpace(req.Inspector)
	if req.Inspector == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "inspector is required"})
		return
	}

	now := time.Now()
	claim, entry, err := h.store.Approve(claimID, req.Inspector, now)
	if err != nil {
		writeError(w, h.logger, err, "failed to approve claim")
		return
	}

	h.broadcast(websocket.NewEvent("gig", "approved", claim.GigID, claim.ChildID, map[string]any{
		"stars":         entry.Stars,
		"balance_after": entry.BalanceAfter,
	}))

	child, err := h.children.GetByID(claim.ChildID)
	if err == nil && child != nil {
		h.activity.Record(claim.ChildID, "%s earned %d stars (%s)", child.Name, entry.Stars, entry.Reason)
	}

	if crossed := ledger.MilestonesCrossed(entry.BalanceAfter-entry.Stars, entry.BalanceAfter); crossed > 0 {
		prog := ledger.MilestoneProgress(entry.BalanceAfter)
		h.broadcast(websocket.NewEvent("milestone", "reached", int64(prog.MilestoneIndex), claim.ChildID, map[string]any{
			"crossed": crossed,
			"total":   entry.BalanceAfter,
		}))
		if child != nil {
			h.activity.Record(claim.ChildID, "%s hit star milestone %d!", child.Name, prog.MilestoneIndex)
		}
	}

	// Keep an already-unlocked session's bonus current with today's approvals.
	h.refreshTodayBonus(claim.ChildID, now)

	writeJSON(w, http.StatusOK, map[string]any{"claim": claim, "ledger_entry": entry})
}

// Reject sends the work back. No stars move and the gig is claimable again at
// full value.
func (h *GigHandler) Reject(w http.ResponseWriter, r *http.Request) {
	claimID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		Inspector string `json:"inspector"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Inspector = strings.TrimSpace(req.Inspector)
	if req.Inspector == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "inspector is required"})
		return
	}

	claim, err := h.store.Reject(claimID, req.Inspector, time.Now())
	if err != nil {
		writeError(w, h.logger, err, "failed to reject claim")
		return
	}

	h.broadcast(websocket.NewEvent("gig", "rejected", claim.GigID, claim.ChildID, nil))
	writeJSON(w, http.StatusOK, claim)
}

func (h *GigHandler) ClaimsByChild(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	claims, err := h.store.ListClaimsByChild(childID)
	if err != nil {
		writeError(w, h.logger, err, "failed to list claims")
		return
	}
	if claims == nil {
		claims = []model.ClaimedGig{}
	}
	writeJSON(w, http.StatusOK, claims)
}

// --- Stars ---

func (h *GigHandler) StarHistory(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	entries, err := h.ledger.ListByChild(childID)
	if err != nil {
		writeError(w, h.logger, err, "failed to list star history")
		return
	}
	if entries == nil {
		entries = []model.StarHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// AdjustStars posts a manual signed delta with a reason.
func (h *GigHandler) AdjustStars(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		Stars  int    `json:"stars"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reason is required"})
		return
	}
	if req.Stars == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "stars must be non-zero"})
		return
	}

	entry, err := h.ledger.Adjust(childID, req.Stars, req.Reason, time.Now())
	if err != nil {
		writeError(w, h.logger, err, "failed to adjust stars")
		return
	}

	h.broadcast(websocket.NewEvent("stars", "adjusted", entry.ID, childID, map[string]any{
		"stars":         entry.Stars,
		"balance_after": entry.BalanceAfter,
	}))
	writeJSON(w, http.StatusOK, entry)
}

// MilestoneProgress reports where the child's balance sits between milestones.
func (h *GigHandler) MilestoneProgress(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	child, err := h.children.GetByID(childID)
	if err != nil {
		writeError(w, h.logger, err, "failed to get child")
		return
	}
	if child == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "child not found"})
		return
	}

	writeJSON(w, http.StatusOK, ledger.MilestoneProgress(child.TotalStars))
}

// ReconcileStars recomputes the balance from the ledger sum.
func (h *GigHandler) ReconcileStars(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	balance, fixed, err := h.ledger.Reconcile(childID)
	if err != nil {
		writeError(w, h.logger, err, "failed to reconcile")
		return
	}
	if fixed {
		h.logger.Warn("star balance reconciled from ledger", "child_id", childID, "balance", balance)
	}
	writeJSON(w, http.StatusOK, map[string]any{"balance": balance, "corrected": fixed})
}

func (h *GigHandler) refreshTodayBonus(childID int64, now time.Time) {
	child, err := h.children.GetByID(childID)
	if err != nil || child == nil {
		return
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	approved, err := h.store.ApprovedCountBetween(childID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		h.logger.Warn("failed to count approved gigs", "child_id", childID, "error", err)
		return
	}
	allowance := screentime.ComputeAllowance(*child, screentime.IsWeekend(now), approved)
	if _, err := h.screenTime.RederiveBonus(childID, screentime.DateKey(now), allowance.Bonus); err != nil {
		h.logger.Warn("failed to refresh screen-time bonus", "child_id", childID, "error", err)
	}
}
