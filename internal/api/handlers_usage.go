package api

import (
	"net/http"

	"github.com/lumera/insight-engine/internal/domain"
	"github.com/lumera/insight-engine/internal/pkg/httputil"
)

// GetUsage returns the current month's AI usage counter.
//
//	GET /api/usage?month=YYYY-MM
func (h *Handlers) GetUsage(w http.ResponseWriter, r *http.Request) {
	userID, tier, ok := identity(w, r)
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

	if h.usage == nil {
		// No Redis configured: report an untouched counter.
		httputil.OK(w, domain.UsageCounter{
			UserID: userID,
			Month:  month,
			Tier:   tier,
			Limit:  tier.Limit(),
		})
		return
	}

	counter, err := h.usage.Usage(r.Context(), userID, tier, month)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, counter)
}
