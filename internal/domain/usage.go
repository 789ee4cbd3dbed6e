package domain

import "time"

// PlanTier is a billing plan tier. Each tier maps to a monthly cap on
// AI-assisted output consumption.
type PlanTier string

const (
	TierBasic     PlanTier = "basic"
	TierStandard  PlanTier = "standard"
	TierPro       PlanTier = "pro"
	TierUnlimited PlanTier = "unlimited"
)

// Limit returns the monthly AI usage cap for the tier, or nil for
// unlimited. Unknown tiers default to the lowest cap.
func (t PlanTier) Limit() *int {
	var n int
	switch t {
	case TierStandard:
		n = 20
	case TierPro:
		n = 50
	case TierUnlimited:
		return nil
	default: // basic and anything unrecognized
		n = 10
	}
	return &n
}

// UsageCounter is the per-(user, month) AI usage state. Count never exceeds
// a non-nil Limit; the counter resets implicitly each month because the key
// includes the month.
type UsageCounter struct {
	UserID    string         `json:"user_id"`
	Month     Month          `json:"month"`
	Tier      PlanTier       `json:"tier"`
	Limit     *int           `json:"limit"`
	Count     int            `json:"count"`
	Breakdown map[string]int `json:"breakdown"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Remaining returns the units left this month, or nil for unlimited plans.
func (u UsageCounter) Remaining() *int {
	if u.Limit == nil {
		return nil
	}
	r := *u.Limit - u.Count
	if r < 0 {
		r = 0
	}
	return &r
}
