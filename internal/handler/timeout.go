package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/activity"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/store"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/timeout"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/websocket"
)

type TimeoutHandler struct {
	store    *store.TimeoutStore
	children *store.ChildStore
	rules    timeout.Rules
	activity *activity.Logger
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewTimeoutHandler(s *store.TimeoutStore, cs *store.ChildStore, rules timeout.Rules, act *activity.Logger, hub *websocket.Hub, logger *slog.Logger) *TimeoutHandler {
	return &TimeoutHandler{store: s, children: cs, rules: rules, activity: act, hub: hub, logger: logger}
}

func (h *TimeoutHandler) broadcast(e websocket.Event) {
	if h.hub != nil {
		h.hub.Broadcast(e)
	}
}

// timeoutView decorates a record with its derived owed and remaining minutes.
type timeoutView struct {
	model.TimeoutRecord
	ActualMinutes    int `json:"actual_minutes"`
	RemainingMinutes int `json:"remaining_minutes"`
}

func viewOf(rec model.TimeoutRecord, now time.Time) timeoutView {
	return timeoutView{
		TimeoutRecord:    rec,
		ActualMinutes:    timeout.ActualDuration(rec.BaseMinutes, rec.ResetCount, rec.Doubled),
		RemainingMinutes: timeout.Remaining(rec, now),
	}
}

// Log records a new violation against a child. The minutes come from the rule
// table, never from the request; the caller only picks the kind and whether
// the timeout is doubled.
func (h *TimeoutHandler) Log(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		Kind    string `json:"kind"`
		Doubled bool   `json:"doubled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	rule, err := h.rules.Lookup(req.Kind)
	if err != nil {
		writeError(w, h.logger, err, "failed to look up violation kind")
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

	now := time.Now()
	rec, err := h.store.Create(childID, rule.Kind, rule.Category, rule.Minutes, req.Doubled, now)
	if err != nil {
		writeError(w, h.logger, err, "failed to log violation")
		return
	}

	h.activity.Record(childID, "%s got a %d minute timeout for %s", child.Name, timeout.ActualDuration(rec.BaseMinutes, 0, rec.Doubled), rec.Kind)
	h.broadcast(websocket.NewEvent("timeout", "logged", rec.ID, childID, nil))
	writeJSON(w, http.StatusCreated, viewOf(*rec, now))
}

// Kinds lists the violation kinds the rule table knows about.
func (h *TimeoutHandler) Kinds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"kinds": h.rules.Kinds()})
}

// Current returns the child's open timeout, if any.
func (h *TimeoutHandler) Current(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	rec, err := h.store.GetOpenByChild(childID)
	if err != nil {
		writeError(w, h.logger, err, "failed to get open timeout")
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusOK, map[string]any{"timeout": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"timeout": viewOf(*rec, time.Now())})
}

func (h *TimeoutHandler) History(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	records, err := h.store.ListByChild(childID)
	if err != nil {
		writeError(w, h.logger, err, "failed to list timeouts")
		return
	}

	now := time.Now()
	views := make([]timeoutView, 0, len(records))
	for _, rec := range records {
		views = append(views, viewOf(rec, now))
	}
	writeJSON(w, http.StatusOK, views)
}

// Reset restarts a timeout after continued misbehavior. Each reset re-bases
// the owed minutes upward.
func (h *TimeoutHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reset", h.store.Reset)
}

func (h *TimeoutHandler) StartServing(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "serving", h.store.StartServing)
}

func (h *TimeoutHandler) MarkServed(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "served", h.store.MarkServed)
}

func (h *TimeoutHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "completed", h.store.Complete)
}

func (h *TimeoutHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "dismissed", h.store.Dismiss)
}

func (h *TimeoutHandler) transition(w http.ResponseWriter, r *http.Request, action string, op func(int64, time.Time) (*model.TimeoutRecord, error)) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	now := time.Now()
	rec, err := op(id, now)
	if err != nil {
		writeError(w, h.logger, err, "failed to "+action+" timeout")
		return
	}

	h.broadcast(websocket.NewEvent("timeout", action, rec.ID, rec.ChildID, nil))
	writeJSON(w, http.StatusOK, viewOf(*rec, now))
}
