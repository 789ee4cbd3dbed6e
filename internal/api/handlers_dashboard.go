package api

import (
	"net/http"

	"github.com/lumera/insight-engine/internal/pkg/httputil"
	"github.com/lumera/insight-engine/internal/pkg/metrics"
)

// GetDashboard returns the full KPI dashboard for one month.
//
//	GET /api/insights/dashboard?month=YYYY-MM
//
// month defaults to the current month. Months with no data return a valid
// zero-valued dashboard, not an error.
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := identity(w, r)
	if !ok {
		return
	}

	raw := r.URL.Query().Get("month")
	if raw == "" {
		raw = string(h.currentMonth())
	}
	month, ok := monthParam(w, raw)
	if !ok {
		return
	}

	dash, err := h.insights.Dashboard(r.Context(), userID, month)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	metrics.DashboardBuilds.Inc()
	httputil.OK(w, dash)
}
