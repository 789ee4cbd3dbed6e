package review

import (
	"regexp"
	"strings"

	"github.com/lumera/insight-engine/internal/domain"
)

// Heuristic extraction of structured action plans from free narrative text.
// The generator is instructed to emit a recognizable "Action Plans" section,
// but narratives drift; everything here tolerates missing or mangled
// sections and returns an empty list rather than an error.

const maxActionPlans = 5

var (
	sectionPattern = regexp.MustCompile(`(?im)^#{0,4}\s*(?:\d+[.)]\s*)?action plans?\b.*$`)
	headingPattern = regexp.MustCompile(`(?m)^#{1,4}\s+\S`)
	itemPattern    = regexp.MustCompile(`(?m)^\s*(?:\d+[.)]|[-*])\s+`)
	labelPattern   = regexp.MustCompile(`(?i)^(title|description|action)\s*[:：]\s*(.*)$`)
	boldPattern    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

// ParseActionPlans extracts action plans from a generated narrative.
// Parse failure of any shape yields zero plans, never an error.
func ParseActionPlans(text string) []domain.ActionPlan {
	section := actionPlanSection(text)
	if strings.TrimSpace(section) == "" {
		return nil
	}

	locs := itemPattern.FindAllStringIndex(section, -1)
	if len(locs) == 0 {
		return nil
	}

	var plans []domain.ActionPlan
	for i, loc := range locs {
		end := len(section)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		item := section[loc[1]:end]
		if plan, ok := parseItem(item); ok {
			plans = append(plans, plan)
			if len(plans) == maxActionPlans {
				break
			}
		}
	}
	return plans
}

// actionPlanSection returns the text between the action-plans heading and
// the next heading (or end of text). Without a heading the whole text is
// scanned so bare numbered lists still parse.
func actionPlanSection(text string) string {
	loc := sectionPattern.FindStringIndex(text)
	if loc == nil {
		return text
	}
	rest := text[loc[1]:]
	if next := headingPattern.FindStringIndex(rest); next != nil {
		rest = rest[:next[0]]
	}
	return rest
}

func parseItem(item string) (domain.ActionPlan, bool) {
	var plan domain.ActionPlan
	var extra []string

	for _, line := range strings.Split(item, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := labelPattern.FindStringSubmatch(line); m != nil {
			val := strings.TrimSpace(m[2])
			switch strings.ToLower(m[1]) {
			case "title":
				plan.Title = cleanText(val)
			case "description":
				plan.Description = cleanText(val)
			case "action":
				plan.Action = cleanText(val)
			}
			continue
		}
		extra = append(extra, cleanText(line))
	}

	// Unlabeled items: first line is the title, the rest the description.
	if plan.Title == "" && len(extra) > 0 {
		plan.Title = extra[0]
		extra = extra[1:]
	}
	if plan.Description == "" && len(extra) > 0 {
		plan.Description = strings.Join(extra, " ")
	}
	if plan.Title == "" {
		return domain.ActionPlan{}, false
	}

	return Normalize(plan), true
}

// Normalize fills in the derived fields of a plan: the inferred kpiKey (also
// applied retroactively to legacy records missing it), its label, and the
// fixed evaluation rule.
func Normalize(plan domain.ActionPlan) domain.ActionPlan {
	if !plan.KpiKey.Valid() {
		plan.KpiKey = InferKpiKey(plan.Title, plan.Description, plan.Action)
	}
	plan.KpiLabel = plan.KpiKey.Label()
	plan.EvaluationRule = domain.EvalIncreaseVsPreviousMonth
	return plan
}

// kpiKeywords are scanned in precedence order; the first group with a hit
// wins, and likes is the default.
var kpiKeywords = []struct {
	key   domain.KpiKey
	words []string
}{
	{domain.KpiSaves, []string{"save", "bookmark", "keep for later"}},
	{domain.KpiComments, []string{"comment", "replies", "reply", "conversation", "discussion"}},
	{domain.KpiShares, []string{"share", "repost", "forward"}},
	{domain.KpiReach, []string{"reach", "impression", "visibility", "explore", "views"}},
	{domain.KpiFollowerIncrease, []string{"follower", "follow", "audience growth"}},
}

// InferKpiKey keyword-scans the given text fragments and returns the
// matched KPI, defaulting to likes.
func InferKpiKey(parts ...string) domain.KpiKey {
	text := strings.ToLower(strings.Join(parts, " "))
	for _, group := range kpiKeywords {
		for _, w := range group.words {
			if strings.Contains(text, w) {
				return group.key
			}
		}
	}
	return domain.KpiLikes
}

func cleanText(s string) string {
	s = boldPattern.ReplaceAllString(s, "$1")
	return strings.Trim(strings.TrimSpace(s), "\"")
}
