// internal/activity/handler.go
//
// Feed endpoint: GET /api/activity?limit=N for the resolved tenant.
package activity

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/tallyhq/tally/internal/tenant"
)

// Handler serves the dashboard activity feed.
type Handler struct {
	Recorder *Recorder
}

func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	ten := tenant.FromContext(r.Context())
	if ten == nil {
		http.Error(w, "no tenant", http.StatusBadRequest)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.Recorder.Recent(r.Context(), ten.ID, limit)
	if err != nil {
		zap.L().Error("activity feed query failed",
			zap.String("tenant_id", ten.ID), zap.Error(err))
		http.Error(w, "feed unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"activities": rows})
}
