package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/activity"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/store"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/websocket"
)

type ChildHandler struct {
	store    *store.ChildStore
	activity *activity.Logger
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewChildHandler(s *store.ChildStore, act *activity.Logger, hub *websocket.Hub, logger *slog.Logger) *ChildHandler {
	return &ChildHandler{store: s, activity: act, hub: hub, logger: logger}
}

func (h *ChildHandler) broadcast(e websocket.Event) {
	if h.hub != nil {
		h.hub.Broadcast(e)
	}
}

func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	children, err := h.store.List()
	if err != nil {
		writeError(w, h.logger, err, "failed to list children")
		return
	}
	if children == nil {
		children = []model.Child{}
	}
	writeJSON(w, http.StatusOK, children)
}

func (h *ChildHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	child, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get child")
		return
	}
	if child == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "child not found"})
		return
	}
	writeJSON(w, http.StatusOK, child)
}

type childRequest struct {
	Name                 string `json:"name"`
	Age                  int    `json:"age"`
	WeekdayScreenMinutes int    `json:"weekday_screen_minutes"`
	WeekendScreenMinutes int    `json:"weekend_screen_minutes"`
}

func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req childRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.Age < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "age must be >= 0"})
		return
	}
	if req.WeekdayScreenMinutes <= 0 {
		req.WeekdayScreenMinutes = 60
	}
	if req.WeekendScreenMinutes <= 0 {
		req.WeekendScreenMinutes = 120
	}

	child, err := h.store.Create(req.Name, req.Age, req.WeekdayScreenMinutes, req.WeekendScreenMinutes)
	if err != nil {
		writeError(w, h.logger, err, "failed to create child")
		return
	}

	h.broadcast(websocket.NewEvent("child", "created", child.ID, child.ID, nil))
	writeJSON(w, http.StatusCreated, child)
}

func (h *ChildHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get child")
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "child not found"})
		return
	}

	var req childRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	child, err := h.store.Update(id, req.Name, req.Age)
	if err != nil {
		writeError(w, h.logger, err, "failed to update child")
		return
	}

	h.broadcast(websocket.NewEvent("child", "updated", id, id, nil))
	writeJSON(w, http.StatusOK, child)
}

// UpdateTier raises or lowers the highest gig tier the child may claim.
func (h *ChildHandler) UpdateTier(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		MaxGigTier int `json:"max_gig_tier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.MaxGigTier < 1 || req.MaxGigTier > 5 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "max_gig_tier must be between 1 and 5"})
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get child")
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "child not found"})
		return
	}

	child, err := h.store.UpdateTier(id, req.MaxGigTier)
	if err != nil {
		writeError(w, h.logger, err, "failed to update tier")
		return
	}

	h.activity.Record(id, "%s can now take tier %d gigs", child.Name, child.MaxGigTier)
	h.broadcast(websocket.NewEvent("child", "tier_updated", id, id, nil))
	writeJSON(w, http.StatusOK, child)
}

// UpdateScreenTime sets base minutes and evening cutoffs.
func (h *ChildHandler) UpdateScreenTime(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		WeekdayScreenMinutes int    `json:"weekday_screen_minutes"`
		WeekendScreenMinutes int    `json:"weekend_screen_minutes"`
		WeekdayCutoff        string `json:"weekday_cutoff"`
		WeekendCutoff        string `json:"weekend_cutoff"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.WeekdayScreenMinutes < 0 || req.WeekendScreenMinutes < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "screen minutes must be >= 0"})
		return
	}
	if req.WeekdayCutoff == "" {
		req.WeekdayCutoff = "20:00"
	}
	if req.WeekendCutoff == "" {
		req.WeekendCutoff = "21:00"
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get child")
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "child not found"})
		return
	}

	child, err := h.store.UpdateScreenTime(id, req.WeekdayScreenMinutes, req.WeekendScreenMinutes, req.WeekdayCutoff, req.WeekendCutoff)
	if err != nil {
		writeError(w, h.logger, err, "failed to update screen time settings")
		return
	}
	writeJSON(w, http.StatusOK, child)
}

func (h *ChildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get child")
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "child not found"})
		return
	}

	if err := h.store.Delete(id); err != nil {
		writeError(w, h.logger, err, "failed to delete child")
		return
	}

	h.broadcast(websocket.NewEvent("child", "deleted", id, id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// SetPIN stores the parent-override PIN for actions on this child's behalf.
func (h *ChildHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get child")
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "child not found"})
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if len(req.PIN) != 4 || !isDigits(req.PIN) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "PIN must be exactly 4 digits"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, h.logger, err, "failed to hash PIN")
		return
	}
	if err := h.store.SetPIN(id, string(hash)); err != nil {
		writeError(w, h.logger, err, "failed to set PIN")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "pin set"})
}

func (h *ChildHandler) ClearPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if err := h.store.SetPIN(id, ""); err != nil {
		writeError(w, h.logger, err, "failed to clear PIN")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "pin cleared"})
}

func (h *ChildHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	hash, err := h.store.GetPINHash(id)
	if err != nil {
		writeError(w, h.logger, err, "failed to get PIN")
		return
	}
	if hash == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no PIN set for this child"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.PIN)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "incorrect PIN"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}
