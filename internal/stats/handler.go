// internal/stats/handler.go
//
// GET /api/tenant/usage for the resolved tenant.
package stats

import (
	"encoding/json"
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/tallyhq/tally/internal/tenant"
)

// Handler serves the usage report.
type Handler struct {
	DB *sqlx.DB
}

func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	ten := tenant.FromContext(r.Context())
	if ten == nil {
		http.Error(w, "no tenant", http.StatusBadRequest)
		return
	}

	u, err := Collect(r.Context(), h.DB, ten)
	if err != nil {
		zap.L().Error("usage aggregation failed",
			zap.String("tenant_id", ten.ID), zap.Error(err))
		http.Error(w, "usage unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(u)
}
