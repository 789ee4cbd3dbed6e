package domain

import "time"

// PostType classifies a post for breakdown purposes. A post belongs to
// exactly one type; breakdown categories never mix types.
type PostType string

const (
	PostFeed  PostType = "feed"
	PostReel  PostType = "reel"
	PostStory PostType = "story"
)

// SnapshotStatus tags a post as a standout example (gold), an
// underperformer (negative), or neither. Read-only lookup owned upstream.
type SnapshotStatus string

const (
	SnapshotGold     SnapshotStatus = "gold"
	SnapshotNegative SnapshotStatus = "negative"
	SnapshotNormal   SnapshotStatus = "normal"
)

// ReachSources holds the platform-reported origin split of a post's reach.
// Fields are nil when the platform did not report that source for the post.
type ReachSources struct {
	Profile *int64 `json:"profile" db:"reach_from_profile"`
	Feed    *int64 `json:"feed" db:"reach_from_feed"`
	Search  *int64 `json:"search" db:"reach_from_search"`
	Other   *int64 `json:"other" db:"reach_from_other"`
}

// Reported returns true if at least one source field is present.
func (r ReachSources) Reported() bool {
	return r.Profile != nil || r.Feed != nil || r.Search != nil || r.Other != nil
}

// Total sums the reported source counts.
func (r ReachSources) Total() int64 {
	var sum int64
	for _, v := range []*int64{r.Profile, r.Feed, r.Search, r.Other} {
		if v != nil {
			sum += *v
		}
	}
	return sum
}

// AudienceSplit holds the percentage composition of a post's audience.
// Keys are platform-reported buckets (gender: "male"/"female"/"other",
// age: "13-17", "18-24", ...). Values are percentages in [0,100].
type AudienceSplit struct {
	Gender map[string]float64 `json:"gender"`
	Age    map[string]float64 `json:"age"`
}

// AnalyticsEntry is one post's raw engagement metrics for one period.
// Entries are append-only and owned by the upstream collector.
type AnalyticsEntry struct {
	PostID           string    `json:"post_id" db:"post_id"`
	PostType         PostType  `json:"post_type" db:"post_type"`
	PublishedAt      time.Time `json:"published_at" db:"published_at"`
	Likes            int64     `json:"likes" db:"likes"`
	Comments         int64     `json:"comments" db:"comments"`
	Shares           int64     `json:"shares" db:"shares"`
	Saves            int64     `json:"saves" db:"saves"`
	Reach            int64     `json:"reach" db:"reach"`
	FollowerIncrease int64     `json:"follower_increase" db:"follower_increase"`
	ProfileVisits    int64     `json:"profile_visits" db:"profile_visits"`
	ExternalLinkTaps int64     `json:"external_link_taps" db:"external_link_taps"`

	Sources ReachSources `json:"reach_sources"`

	// Reel-only metrics; nil for feed and story posts.
	AvgPlayTimeSeconds *float64 `json:"avg_play_time_seconds,omitempty" db:"avg_play_time_seconds"`
	SkipRate           *float64 `json:"skip_rate,omitempty" db:"skip_rate"`

	// Audience is nil when the platform reported no audience data.
	Audience *AudienceSplit `json:"audience,omitempty"`

	Hashtags []string `json:"hashtags,omitempty"`

	// Followers at publish time, when known. Used for reach/follower and
	// interaction/follower rates.
	FollowerCount *int64 `json:"follower_count,omitempty" db:"follower_count"`
}

// Engagement is the additive engagement total for one entry.
func (e AnalyticsEntry) Engagement() int64 {
	return e.Likes + e.Comments + e.Shares + e.Saves
}

// FollowerCountEntry is the monthly snapshot of account-level counters:
// the point-in-time follower count (a gauge, not a flow) plus profile
// visits and link taps not attributable to any single post.
type FollowerCountEntry struct {
	UserID           string `json:"user_id" db:"user_id"`
	Month            Month  `json:"month" db:"month"`
	Platform         string `json:"platform" db:"platform"`
	Followers        int64  `json:"followers" db:"followers"`
	ProfileVisits    int64  `json:"profile_visits" db:"profile_visits"`
	ExternalLinkTaps int64  `json:"external_link_taps" db:"external_link_taps"`
}

// Sentiment classifies a feedback submission.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// GoalProspect is the submitter's assessment of goal achievement.
// When present it overrides the raw sentiment field (high wins over a
// negative sentiment, low over a positive one).
type GoalProspect string

const (
	ProspectHigh   GoalProspect = "high"
	ProspectMedium GoalProspect = "medium"
	ProspectLow    GoalProspect = "low"
)

// FeedbackEntry is one qualitative submission tied to a post.
type FeedbackEntry struct {
	PostID                  string       `json:"post_id" db:"post_id"`
	Sentiment               Sentiment    `json:"sentiment,omitempty" db:"sentiment"`
	GoalAchievementProspect GoalProspect `json:"goal_achievement_prospect,omitempty" db:"goal_achievement_prospect"`
	Comment                 string       `json:"comment" db:"comment"`
	SubmittedAt             time.Time    `json:"submitted_at" db:"submitted_at"`
}

// Classify resolves the effective sentiment using the override rules.
func (f FeedbackEntry) Classify() Sentiment {
	switch f.GoalAchievementProspect {
	case ProspectHigh:
		return SentimentPositive
	case ProspectLow:
		return SentimentNegative
	}
	switch f.Sentiment {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return f.Sentiment
	}
	return SentimentNeutral
}
