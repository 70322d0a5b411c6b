package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/activity"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
)

type ActivityHandler struct {
	activity *activity.Logger
	logger   *slog.Logger
}

func NewActivityHandler(act *activity.Logger, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{activity: act, logger: logger}
}

// Recent returns the newest activity lines. ?limit=N caps the count.
func (h *ActivityHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	entries, err := h.activity.Recent(limit)
	if err != nil {
		writeError(w, h.logger, err, "failed to list activity")
		return
	}
	if entries == nil {
		entries = []model.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
