package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/activity"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/screentime"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/store"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/websocket"
)

type ScreenTimeHandler struct {
	store    *store.ScreenTimeStore
	children *store.ChildStore
	gigs     *store.GigStore
	activity *activity.Logger
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewScreenTimeHandler(s *store.ScreenTimeStore, cs *store.ChildStore, gs *store.GigStore, act *activity.Logger, hub *websocket.Hub, logger *slog.Logger) *ScreenTimeHandler {
	return &ScreenTimeHandler{store: s, children: cs, gigs: gs, activity: act, hub: hub, logger: logger}
}

func (h *ScreenTimeHandler) broadcast(e websocket.Event) {
	if h.hub != nil {
		h.hub.Broadcast(e)
	}
}

// UpsertExpectation records the day's four expectation flags for a child.
func (h *ScreenTimeHandler) UpsertExpectation(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		Date       string `json:"date"`
		Exercise   bool   `json:"exercise"`
		Reading    bool   `json:"reading"`
		TidyUp     bool   `json:"tidy_up"`
		DailyChore bool   `json:"daily_chore"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Date == "" {
		req.Date = screentime.DateKey(time.Now())
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
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

	exp, err := h.store.UpsertExpectation(childID, req.Date, req.Exercise, req.Reading, req.TidyUp, req.DailyChore)
	if err != nil {
		writeError(w, h.logger, err, "failed to save expectations")
		return
	}

	h.broadcast(websocket.NewEvent("expectation", "updated", exp.ID, childID, map[string]any{"date": req.Date}))
	writeJSON(w, http.StatusOK, exp)
}

// Status reports today's eligibility, derived allowance, and session for a
// child, whether or not screen time has been unlocked yet.
func (h *ScreenTimeHandler) Status(w http.ResponseWriter, r *http.Request) {
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

	now := time.Now()
	date := screentime.DateKey(now)

	exp, err := h.store.GetExpectation(childID, date)
	if err != nil {
		writeError(w, h.logger, err, "failed to get expectations")
		return
	}
	eligible := exp != nil && screentime.Eligible(*exp)

	allowance, err := h.deriveAllowance(*child, now)
	if err != nil {
		writeError(w, h.logger, err, "failed to derive allowance")
		return
	}

	sess, err := h.store.GetSession(childID, date)
	if err != nil {
		writeError(w, h.logger, err, "failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":         date,
		"eligible":     eligible,
		"expectations": exp,
		"allowance":    allowance,
		"session":      sess,
	})
}

// Unlock opens today's screen time. All four expectations must hold; the
// allowance is derived fresh from the child's base minutes and today's
// approved gigs.
func (h *ScreenTimeHandler) Unlock(w http.ResponseWriter, r *http.Request) {
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

	now := time.Now()
	date := screentime.DateKey(now)

	exp, err := h.store.GetExpectation(childID, date)
	if err != nil {
		writeError(w, h.logger, err, "failed to get expectations")
		return
	}
	if exp == nil || !screentime.Eligible(*exp) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "daily expectations are not all complete"})
		return
	}

	allowance, err := h.deriveAllowance(*child, now)
	if err != nil {
		writeError(w, h.logger, err, "failed to derive allowance")
		return
	}

	sess, err := h.store.UnlockSession(childID, date, allowance.Base, allowance.Bonus, screentime.IsWeekend(now), now)
	if err != nil {
		writeError(w, h.logger, err, "failed to unlock screen time")
		return
	}

	h.activity.Record(childID, "%s unlocked %d minutes of screen time", child.Name, sess.TotalMinutes)
	h.broadcast(websocket.NewEvent("screen_time", "unlocked", sess.ID, childID, map[string]any{"total_minutes": sess.TotalMinutes}))
	writeJSON(w, http.StatusOK, sess)
}

// Lock closes today's session, for cutoff time or parental decision.
func (h *ScreenTimeHandler) Lock(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	now := time.Now()
	date := screentime.DateKey(now)
	sess, err := h.store.LockSession(childID, date, now)
	if err != nil {
		writeError(w, h.logger, err, "failed to lock screen time")
		return
	}
	if sess == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no session for today"})
		return
	}

	h.broadcast(websocket.NewEvent("screen_time", "locked", sess.ID, childID, nil))
	writeJSON(w, http.StatusOK, sess)
}

// AddUsage records minutes consumed against today's budget.
func (h *ScreenTimeHandler) AddUsage(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		Minutes int `json:"minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Minutes <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "minutes must be > 0"})
		return
	}

	date := screentime.DateKey(time.Now())
	sess, err := h.store.AddUsage(childID, date, req.Minutes)
	if err != nil {
		writeError(w, h.logger, err, "failed to record usage")
		return
	}
	if sess == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no session for today"})
		return
	}

	if sess.MinutesUsed >= sess.TotalMinutes {
		h.broadcast(websocket.NewEvent("screen_time", "exhausted", sess.ID, childID, nil))
	}
	writeJSON(w, http.StatusOK, sess)
}

// ParentBonus grants extra minutes outside the derived allowance. Requires
// the child's parent-override PIN when one is set.
func (h *ScreenTimeHandler) ParentBonus(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		Minutes int    `json:"minutes"`
		PIN     string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Minutes <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "minutes must be > 0"})
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

	if child.HasPIN {
		hash, err := h.children.GetPINHash(childID)
		if err != nil {
			writeError(w, h.logger, err, "failed to get PIN")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.PIN)); err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "incorrect PIN"})
			return
		}
	}

	now := time.Now()
	base := child.WeekdayScreenMinutes
	if screentime.IsWeekend(now) {
		base = child.WeekendScreenMinutes
	}
	sess, err := h.store.AddParentBonus(childID, screentime.DateKey(now), base, req.Minutes, screentime.IsWeekend(now), now)
	if err != nil {
		writeError(w, h.logger, err, "failed to add bonus")
		return
	}

	h.activity.Record(childID, "%s received %d bonus screen minutes", child.Name, req.Minutes)
	h.broadcast(websocket.NewEvent("screen_time", "bonus_added", sess.ID, childID, map[string]any{"minutes": req.Minutes}))
	writeJSON(w, http.StatusOK, sess)
}

func (h *ScreenTimeHandler) deriveAllowance(child model.Child, now time.Time) (screentime.Allowance, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	approved, err := h.gigs.ApprovedCountBetween(child.ID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return screentime.Allowance{}, err
	}
	return screentime.ComputeAllowance(child, screentime.IsWeekend(now), approved), nil
}
