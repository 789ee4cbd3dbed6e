package insights

import (
	"github.com/lumera/insight-engine/internal/domain"
)

// KpiTotals holds the additive per-metric sums for one month. Only flows
// belong here; the point-in-time follower count is carried separately on
// MonthlyAggregate because it is a gauge.
type KpiTotals struct {
	Likes            int64 `json:"likes"`
	Comments         int64 `json:"comments"`
	Shares           int64 `json:"shares"`
	Saves            int64 `json:"saves"`
	Reach            int64 `json:"reach"`
	FollowerIncrease int64 `json:"follower_increase"`
	ProfileVisits    int64 `json:"profile_visits"`
	ExternalLinkTaps int64 `json:"external_link_taps"`
}

// Add accumulates one entry's counters.
func (t *KpiTotals) Add(e domain.AnalyticsEntry) {
	t.Likes += e.Likes
	t.Comments += e.Comments
	t.Shares += e.Shares
	t.Saves += e.Saves
	t.Reach += e.Reach
	t.FollowerIncrease += e.FollowerIncrease
	t.ProfileVisits += e.ProfileVisits
	t.ExternalLinkTaps += e.ExternalLinkTaps
}

// Engagement is likes+comments+shares+saves.
func (t KpiTotals) Engagement() int64 {
	return t.Likes + t.Comments + t.Shares + t.Saves
}

// KpiChanges holds the month-over-month percentage delta per metric.
// A nil field means "undefined": the previous value was zero, so no
// comparable ratio exists. Never NaN or Inf.
type KpiChanges struct {
	Likes            *float64 `json:"likes"`
	Comments         *float64 `json:"comments"`
	Shares           *float64 `json:"shares"`
	Saves            *float64 `json:"saves"`
	Reach            *float64 `json:"reach"`
	FollowerIncrease *float64 `json:"follower_increase"`
	ProfileVisits    *float64 `json:"profile_visits"`
	ExternalLinkTaps *float64 `json:"external_link_taps"`
}

// ReachSourceAnalysis is the percentage split of reach by reported origin,
// computed only over entries that report at least one source field.
type ReachSourceAnalysis struct {
	Profile    float64 `json:"profile"`
	Feed       float64 `json:"feed"`
	Search     float64 `json:"search"`
	Other      float64 `json:"other"`
	SampleSize int     `json:"sample_size"`
}

// PostTypeStats aggregates one post type in isolation. Types never mix:
// every entry contributes to exactly one PostTypeStats.
type PostTypeStats struct {
	PostCount int       `json:"post_count"`
	Totals    KpiTotals `json:"totals"`

	// Averages over posts with a known positive follower count; nil when
	// no post qualifies.
	AvgReachFollowerRate       *float64 `json:"avg_reach_follower_rate"`
	AvgInteractionFollowerRate *float64 `json:"avg_interaction_follower_rate"`

	Sources *ReachSourceAnalysis `json:"sources"`

	// Audience is the reach-weighted average of per-post audience splits
	// across posts reporting audience data; nil when none do.
	Audience *domain.AudienceSplit `json:"audience"`

	// Reel-only averages; nil for other types.
	AvgPlayTimeSeconds *float64 `json:"avg_play_time_seconds,omitempty"`
	AvgSkipRate        *float64 `json:"avg_skip_rate,omitempty"`
}

// SlotSplit is the per-post-type slice of a time slot.
type SlotSplit struct {
	PostCount     int      `json:"post_count"`
	AvgEngagement *float64 `json:"avg_engagement"`
}

// TimeSlotStat is one fixed posting-time bucket.
type TimeSlotStat struct {
	Slot          string    `json:"slot"`
	StartHour     int       `json:"start_hour"`
	EndHour       int       `json:"end_hour"`
	PostCount     int       `json:"post_count"`
	Engagement    int64     `json:"engagement"`
	Reach         int64     `json:"reach"`
	AvgEngagement *float64  `json:"avg_engagement"`
	Feed          SlotSplit `json:"feed"`
	Reel          SlotSplit `json:"reel"`
}

// EngagementRate returns (engagement/reach)*100 for the slot, or nil when
// the slot has no reach to divide by.
func (s TimeSlotStat) EngagementRate() *float64 {
	if s.Reach <= 0 {
		return nil
	}
	r := float64(s.Engagement) / float64(s.Reach) * 100
	return &r
}

// DailyPoint is one day of the charting time series.
type DailyPoint struct {
	Date             string `json:"date"`
	PostCount        int    `json:"post_count"`
	Likes            int64  `json:"likes"`
	Comments         int64  `json:"comments"`
	Shares           int64  `json:"shares"`
	Saves            int64  `json:"saves"`
	Reach            int64  `json:"reach"`
	FollowerIncrease int64  `json:"follower_increase"`
}

// HashtagCount is one hashtag's frequency for the month.
type HashtagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// MonthlyAggregate is the full aggregation output for one (user, month).
type MonthlyAggregate struct {
	Month         domain.Month `json:"month"`
	AnalyzedCount int          `json:"analyzed_count"`

	// FirstMonth is true when no prior-month data exists at all. Percentage
	// changes are suppressed entirely and CurrentFollowers doubles as the
	// baseline display value.
	FirstMonth bool `json:"first_month"`

	Totals                KpiTotals   `json:"totals"`
	Changes               *KpiChanges `json:"changes"`
	PreviousTotals        *KpiTotals  `json:"previous_totals,omitempty"`
	PreviousAnalyzedCount int         `json:"previous_analyzed_count"`

	// CurrentFollowers is the point-in-time follower count (a gauge).
	CurrentFollowers  int64  `json:"current_followers"`
	PreviousFollowers *int64 `json:"previous_followers,omitempty"`

	Sources *ReachSourceAnalysis `json:"sources"`

	Feed  *PostTypeStats `json:"feed"`
	Reel  *PostTypeStats `json:"reel"`
	Story *PostTypeStats `json:"story"`

	TimeSlots []TimeSlotStat `json:"time_slots"`
	Hashtags  []HashtagCount `json:"hashtags"`
	Daily     []DailyPoint   `json:"daily"`
}

// percentChange returns the percentage delta from previous to current, or
// nil ("undefined") when previous is zero. Downstream cards render nil as
// "no comparable data" rather than 0.
func percentChange(current, previous int64) *float64 {
	if previous == 0 {
		return nil
	}
	v := (float64(current) - float64(previous)) / float64(previous) * 100
	return &v
}
