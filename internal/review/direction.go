package review

import (
	"regexp"
	"strings"
	"time"

	"github.com/lumera/insight-engine/internal/domain"
	"github.com/lumera/insight-engine/internal/insights"
)

// Priority KPI values carried on a direction. Looser-grained than KpiKey:
// content generation steers by theme, not by a single counter.
const (
	PrioritySaves          = "saves"
	PriorityReach          = "reach"
	PriorityFollowerGrowth = "follower_growth"
	PriorityEngagementRate = "engagement_rate"
)

// Defaults used when the plans yield nothing extractable.
const (
	defaultMainTheme   = "continuous improvement"
	defaultAvoidItem   = "drastic changes to the posting style that worked this month"
	defaultPostingRule = "keep a steady posting cadence"
)

var avoidPattern = regexp.MustCompile(`(?i)\b(?:avoid|refrain from)\s+([^.;\n]+)`)

// DeriveDirection carries this month's action plans forward into next-month
// guidance. month is the month the direction applies to (i.e. the month
// after the reviewed one); slots are the reviewed month's time-slot stats.
func DeriveDirection(month domain.Month, plans []domain.ActionPlan, slots []insights.TimeSlotStat, now time.Time) domain.AiDirection {
	dir := domain.AiDirection{
		Month:     month,
		MainTheme: defaultMainTheme,
		LockedAt:  now.UTC(),
	}

	if len(plans) > 0 && strings.TrimSpace(plans[0].Title) != "" {
		dir.MainTheme = strings.TrimSpace(plans[0].Title)
	}

	dir.AvoidFocus = extractAvoidPhrases(plans)
	if len(dir.AvoidFocus) == 0 {
		dir.AvoidFocus = []string{defaultAvoidItem}
	}

	dir.PriorityKPI = priorityFromPlans(plans)

	for _, p := range plans {
		if action := strings.TrimSpace(p.Action); action != "" {
			dir.PostingRules = append(dir.PostingRules, action)
		}
	}
	if len(dir.PostingRules) == 0 {
		dir.PostingRules = []string{defaultPostingRule}
	}

	if best := insights.BestPostingSlot(slots); best != nil {
		slot := best.Slot
		dir.OptimalPostingTime = &slot
	}

	return dir
}

func extractAvoidPhrases(plans []domain.ActionPlan) []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range plans {
		for _, m := range avoidPattern.FindAllStringSubmatch(p.Description, -1) {
			phrase := strings.TrimSpace(strings.Trim(m[1], " ,"))
			if phrase == "" || seen[phrase] {
				continue
			}
			seen[phrase] = true
			out = append(out, phrase)
		}
	}
	return out
}

// priorityFromPlans keyword-matches the combined plan text. Saves-related
// terms win over reach, reach over follower growth; the default is
// engagement rate.
func priorityFromPlans(plans []domain.ActionPlan) string {
	var sb strings.Builder
	for _, p := range plans {
		sb.WriteString(p.Title)
		sb.WriteString(" ")
		sb.WriteString(p.Description)
		sb.WriteString(" ")
		sb.WriteString(p.Action)
		sb.WriteString(" ")
	}
	text := strings.ToLower(sb.String())

	contains := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(text, w) {
				return true
			}
		}
		return false
	}

	switch {
	case contains("save", "bookmark"):
		return PrioritySaves
	case contains("reach", "impression", "explore", "visibility"):
		return PriorityReach
	case contains("follower", "follow", "audience"):
		return PriorityFollowerGrowth
	default:
		return PriorityEngagementRate
	}
}
