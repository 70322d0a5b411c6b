package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/activity"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/rotation"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/screentime"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/store"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/websocket"
)

type RotationHandler struct {
	store    *store.RotationStore
	children *store.ChildStore
	activity *activity.Logger
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewRotationHandler(s *store.RotationStore, cs *store.ChildStore, act *activity.Logger, hub *websocket.Hub, logger *slog.Logger) *RotationHandler {
	return &RotationHandler{store: s, children: cs, activity: act, hub: hub, logger: logger}
}

func (h *RotationHandler) broadcast(e websocket.Event) {
	if h.hub != nil {
		h.hub.Broadcast(e)
	}
}

func (h *RotationHandler) State(w http.ResponseWriter, r *http.Request) {
	state, err := h.store.GetState()
	if err != nil {
		writeError(w, h.logger, err, "failed to get rotation state")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Rotate advances the week cycle. Without a body it rotates only if a new
// Monday-anchored week has begun since the last rotation; with an explicit
// week it forces that week.
func (h *RotationHandler) Rotate(w http.ResponseWriter, r *http.Request) {
	state, err := h.store.GetState()
	if err != nil {
		writeError(w, h.logger, err, "failed to get rotation state")
		return
	}

	var req struct {
		Week string `json:"week"`
	}
	// Body is optional for the automatic path.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.Week = ""
	}

	now := time.Now()
	var target rotation.Week
	if req.Week != "" {
		target, err = rotation.ParseWeek(req.Week)
		if err != nil {
			writeError(w, h.logger, err, "failed to parse week")
			return
		}
	} else {
		if !rotation.ShouldRotate(state.RotatedAt, now) {
			writeJSON(w, http.StatusOK, map[string]any{"rotated": false, "state": state})
			return
		}
		current, err := rotation.ParseWeek(state.ActiveWeek)
		if err != nil {
			writeError(w, h.logger, err, "rotation state is corrupt")
			return
		}
		target = rotation.NextWeek(current)
	}

	updated, err := h.store.SetActiveWeek(string(target), now)
	if err != nil {
		writeError(w, h.logger, err, "failed to rotate")
		return
	}

	h.activity.RecordSystem("chore rotation moved to week %s", updated.ActiveWeek)
	h.broadcast(websocket.NewEvent("rotation", "rotated", 0, 0, map[string]any{"week": updated.ActiveWeek}))
	writeJSON(w, http.StatusOK, map[string]any{"rotated": true, "state": updated})
}

func (h *RotationHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.store.ListAssignments()
	if err != nil {
		writeError(w, h.logger, err, "failed to list assignments")
		return
	}
	if assignments == nil {
		assignments = []model.ChoreAssignment{}
	}
	writeJSON(w, http.StatusOK, assignments)
}

// UpsertAssignment pins a child to a zone for one rotation week.
func (h *RotationHandler) UpsertAssignment(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		Week string `json:"week"`
		Zone string `json:"zone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	week, err := rotation.ParseWeek(req.Week)
	if err != nil {
		writeError(w, h.logger, err, "failed to parse week")
		return
	}
	req.Zone = strings.TrimSpace(req.Zone)
	if req.Zone == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "zone is required"})
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

	a, err := h.store.UpsertAssignment(childID, string(week), req.Zone)
	if err != nil {
		writeError(w, h.logger, err, "failed to save assignment")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *RotationHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.store.ListRooms()
	if err != nil {
		writeError(w, h.logger, err, "failed to list rooms")
		return
	}
	if rooms == nil {
		rooms = []model.ChoreRoom{}
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *RotationHandler) UpsertRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Zone      string   `json:"zone"`
		Weekday   int      `json:"weekday"`
		Room      string   `json:"room"`
		Checklist []string `json:"checklist"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Zone = strings.TrimSpace(req.Zone)
	req.Room = strings.TrimSpace(req.Room)
	if req.Zone == "" || req.Room == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "zone and room are required"})
		return
	}
	if req.Weekday < 0 || req.Weekday > 6 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "weekday must be 0 (Sunday) through 6 (Saturday)"})
		return
	}

	room, err := h.store.UpsertRoom(req.Zone, req.Weekday, req.Room, req.Checklist)
	if err != nil {
		writeError(w, h.logger, err, "failed to save room")
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *RotationHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	if err := h.store.DeleteRoom(id); err != nil {
		writeError(w, h.logger, err, "failed to delete room")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TodayChore resolves the child's chore for today: active week → zone →
// today's room, overlaid with any recorded completion. A day with no room
// scheduled is a valid "no chore today".
func (h *RotationHandler) TodayChore(w http.ResponseWriter, r *http.Request) {
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

	state, err := h.store.GetState()
	if err != nil {
		writeError(w, h.logger, err, "failed to get rotation state")
		return
	}
	zone, err := h.store.GetZone(childID, state.ActiveWeek)
	if err != nil {
		writeError(w, h.logger, err, "failed to get zone")
		return
	}

	now := time.Now()
	resp := map[string]any{
		"week":       state.ActiveWeek,
		"zone":       zone,
		"room":       nil,
		"completion": nil,
	}

	if zone != "" {
		rooms, err := h.store.ListRooms()
		if err != nil {
			writeError(w, h.logger, err, "failed to list rooms")
			return
		}
		if room := rotation.ResolveTodayRoom(zone, now.Weekday(), rooms); room != nil {
			resp["room"] = room
		}
	}

	completion, err := h.store.GetCompletion(childID, screentime.DateKey(now))
	if err != nil {
		writeError(w, h.logger, err, "failed to get completion")
		return
	}
	if completion != nil {
		resp["completion"] = completion
	}
	writeJSON(w, http.StatusOK, resp)
}

// RecordCompletion marks today's chore outcome for a child.
func (h *RotationHandler) RecordCompletion(w http.ResponseWriter, r *http.Request) {
	childID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		Room      string `json:"room"`
		Completed bool   `json:"completed"`
		Notes     string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
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

	completion, err := h.store.UpsertCompletion(childID, screentime.DateKey(time.Now()), req.Room, req.Completed, req.Notes)
	if err != nil {
		writeError(w, h.logger, err, "failed to record completion")
		return
	}

	if completion.Completed {
		h.activity.Record(childID, "%s finished their chore: %s", child.Name, completion.Room)
	}
	h.broadcast(websocket.NewEvent("chore", "completion_recorded", completion.ID, childID, nil))
	writeJSON(w, http.StatusOK, completion)
}
