package domain

import "time"

// KpiKey identifies the metric an action plan is evaluated against.
type KpiKey string

const (
	KpiLikes            KpiKey = "likes"
	KpiComments         KpiKey = "comments"
	KpiShares           KpiKey = "shares"
	KpiSaves            KpiKey = "saves"
	KpiReach            KpiKey = "reach"
	KpiFollowerIncrease KpiKey = "followerIncrease"
)

// Valid reports whether k is one of the six enumerated keys.
func (k KpiKey) Valid() bool {
	switch k {
	case KpiLikes, KpiComments, KpiShares, KpiSaves, KpiReach, KpiFollowerIncrease:
		return true
	}
	return false
}

// Label returns the display label for the key.
func (k KpiKey) Label() string {
	switch k {
	case KpiLikes:
		return "Likes"
	case KpiComments:
		return "Comments"
	case KpiShares:
		return "Shares"
	case KpiSaves:
		return "Saves"
	case KpiReach:
		return "Reach"
	case KpiFollowerIncrease:
		return "Follower growth"
	}
	return string(k)
}

// EvalIncreaseVsPreviousMonth is the only evaluation rule currently issued
// for action plans.
const EvalIncreaseVsPreviousMonth = "increase_vs_previous_month"

// ActionPlan is a structured next step extracted from a generated monthly
// narrative.
type ActionPlan struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Action         string `json:"action"`
	KpiKey         KpiKey `json:"kpi_key"`
	KpiLabel       string `json:"kpi_label"`
	EvaluationRule string `json:"evaluation_rule"`
}

// ReviewKind tags the persisted state of a monthly review record.
// Modeling the record as a tagged union (rather than nullable text plus a
// boolean) keeps the orchestrator's state machine exhaustive.
type ReviewKind string

const (
	// ReviewMissing means no record exists for the (user, month) key.
	ReviewMissing ReviewKind = "missing"
	// ReviewFallback is a deterministic, non-AI narrative persisted after a
	// generation failure. It is retried, never reused as final.
	ReviewFallback ReviewKind = "fallback"
	// ReviewGenerated is a completed AI-authored review, reused verbatim.
	ReviewGenerated ReviewKind = "generated"
)

// StoredReview is the persisted monthly review for a (user, month) key.
// ActionPlans are only meaningful for ReviewGenerated records.
type StoredReview struct {
	Kind          ReviewKind   `json:"kind"`
	Review        string       `json:"review"`
	ActionPlans   []ActionPlan `json:"action_plans"`
	AnalyzedCount int          `json:"analyzed_count"`
	GeneratedAt   time.Time    `json:"generated_at"`
}

// HasPlan reports whether at least one action plan was parsed.
func (r StoredReview) HasPlan() bool { return len(r.ActionPlans) > 0 }

// AiDirection is the next-month guidance derived from this month's action
// plans. Written only by the review orchestrator; read by content-generation
// surfaces outside this system.
type AiDirection struct {
	Month              Month     `json:"month"`
	MainTheme          string    `json:"main_theme"`
	AvoidFocus         []string  `json:"avoid_focus"`
	PriorityKPI        string    `json:"priority_kpi"`
	PostingRules       []string  `json:"posting_rules"`
	OptimalPostingTime *string   `json:"optimal_posting_time"`
	LockedAt           time.Time `json:"locked_at"`
}
