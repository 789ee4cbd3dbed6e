package api

import (
	"net/http"
	"time"

	"github.com/lumera/insight-engine/internal/domain"
	"github.com/lumera/insight-engine/internal/insights"
	"github.com/lumera/insight-engine/internal/pkg/httputil"
	"github.com/lumera/insight-engine/internal/quota"
	"github.com/lumera/insight-engine/internal/review"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	insights *insights.Service
	reviews  *review.Service
	usage    *quota.Tracker

	// loc is the timezone the default "current month" is resolved in.
	loc *time.Location

	// bedrockEnabled gates AI generation for the whole deployment.
	bedrockEnabled bool
}

// NewHandlers creates a new Handlers instance. usage may be nil when no
// Redis is configured; the usage endpoint then reports zeros.
func NewHandlers(insightSvc *insights.Service, reviewSvc *review.Service, usage *quota.Tracker, loc *time.Location, bedrockEnabled bool) *Handlers {
	if loc == nil {
		loc = time.UTC
	}
	return &Handlers{
		insights:       insightSvc,
		reviews:        reviewSvc,
		usage:          usage,
		loc:            loc,
		bedrockEnabled: bedrockEnabled,
	}
}

// currentMonth resolves the default month for endpoints that accept an
// optional month parameter.
func (h *Handlers) currentMonth() domain.Month {
	return domain.MonthOf(time.Now(), h.loc)
}

// Identity is resolved by the gateway in front of this service and passed
// down in headers; this service performs no authentication itself.
const (
	headerUserID   = "X-User-ID"
	headerPlanTier = "X-Plan-Tier"
)

// identity extracts the caller's user id and plan tier. A missing user id
// writes a 401 and returns ok=false.
func identity(w http.ResponseWriter, r *http.Request) (userID string, tier domain.PlanTier, ok bool) {
	userID = r.Header.Get(headerUserID)
	if userID == "" {
		httputil.Error(w, http.StatusUnauthorized, "missing user identity")
		return "", "", false
	}
	tier = domain.PlanTier(r.Header.Get(headerPlanTier))
	if tier == "" {
		tier = domain.TierBasic
	}
	return userID, tier, true
}

// monthParam parses and validates a YYYY-MM value. Writes a 400 and
// returns ok=false on bad input.
func monthParam(w http.ResponseWriter, raw string) (domain.Month, bool) {
	month, err := domain.ParseMonth(raw)
	if err != nil {
		httputil.BadRequest(w, "invalid month, want YYYY-MM: "+raw)
		return "", false
	}
	return month, true
}
