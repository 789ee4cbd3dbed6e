package review

import (
	"testing"

	"github.com/lumera/insight-engine/internal/domain"
)

const labeledNarrative = `## Monthly Review

Strong month overall.

## Action Plans

1. Title: **Drive more saves**
   Description: Avoid single-image posts without a takeaway.
   Action: Publish two carousel recaps per week.
2. Title: Spark conversations
   Description: End captions with a question.
   Action: Reply to every comment within a day.

## Looking Ahead

Keep the momentum going.
`

func TestParseActionPlansLabeled(t *testing.T) {
	plans := ParseActionPlans(labeledNarrative)
	if len(plans) != 2 {
		t.Fatalf("plans = %d, want 2", len(plans))
	}

	if plans[0].Title != "Drive more saves" {
		t.Errorf("title = %q, bold markers should be stripped", plans[0].Title)
	}
	if plans[0].Action != "Publish two carousel recaps per week." {
		t.Errorf("action = %q", plans[0].Action)
	}
	if plans[0].KpiKey != domain.KpiSaves {
		t.Errorf("kpi = %s, want saves", plans[0].KpiKey)
	}
	if plans[0].KpiLabel == "" || plans[0].EvaluationRule != domain.EvalIncreaseVsPreviousMonth {
		t.Errorf("derived fields = %+v", plans[0])
	}

	if plans[1].KpiKey != domain.KpiComments {
		t.Errorf("kpi = %s, want comments", plans[1].KpiKey)
	}

	// Text after the section's closing heading is never parsed as a plan.
	for _, p := range plans {
		if p.Title == "Keep the momentum going." {
			t.Error("trailing section leaked into the plans")
		}
	}
}

func TestParseActionPlansUnlabeled(t *testing.T) {
	text := `### Action Plans
- Grow your reach with trending audio
  Lean into reels while the format is boosted.
- Post consistently
`
	plans := ParseActionPlans(text)
	if len(plans) != 2 {
		t.Fatalf("plans = %d, want 2", len(plans))
	}
	if plans[0].Title != "Grow your reach with trending audio" {
		t.Errorf("title = %q", plans[0].Title)
	}
	if plans[0].Description != "Lean into reels while the format is boosted." {
		t.Errorf("description = %q", plans[0].Description)
	}
	if plans[0].KpiKey != domain.KpiReach {
		t.Errorf("kpi = %s, want reach", plans[0].KpiKey)
	}
	if plans[1].Description != "" {
		t.Errorf("single-line item description = %q, want empty", plans[1].Description)
	}
}

func TestParseActionPlansNoSectionScansWholeText(t *testing.T) {
	text := `1) Title: Win back followers
   Action: Run a weekly Q&A story.`
	plans := ParseActionPlans(text)
	if len(plans) != 1 {
		t.Fatalf("plans = %d, want 1", len(plans))
	}
	if plans[0].KpiKey != domain.KpiFollowerIncrease {
		t.Errorf("kpi = %s", plans[0].KpiKey)
	}
}

func TestParseActionPlansEmptyAndGarbage(t *testing.T) {
	if plans := ParseActionPlans(""); plans != nil {
		t.Errorf("plans = %v, want nil for empty text", plans)
	}
	if plans := ParseActionPlans("## Action Plans\n\nnothing enumerable here"); plans != nil {
		t.Errorf("plans = %v, want nil without list items", plans)
	}
}

func TestParseActionPlansCap(t *testing.T) {
	text := "## Action Plans\n"
	for _, title := range []string{"One", "Two", "Three", "Four", "Five", "Six", "Seven"} {
		text += "- " + title + "\n"
	}
	plans := ParseActionPlans(text)
	if len(plans) != maxActionPlans {
		t.Errorf("plans = %d, want capped at %d", len(plans), maxActionPlans)
	}
}

func TestInferKpiKeyPrecedence(t *testing.T) {
	cases := []struct {
		text string
		want domain.KpiKey
	}{
		// Saves wins even when reach terms are present too.
		{"boost saves and reach", domain.KpiSaves},
		{"start a discussion in the comments", domain.KpiComments},
		{"encourage reposts", domain.KpiShares},
		{"get onto the explore page", domain.KpiReach},
		{"convert viewers into followers", domain.KpiFollowerIncrease},
		{"make people smile", domain.KpiLikes},
	}
	for _, tc := range cases {
		if got := InferKpiKey(tc.text); got != tc.want {
			t.Errorf("InferKpiKey(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestNormalizeKeepsExplicitKpi(t *testing.T) {
	plan := Normalize(domain.ActionPlan{Title: "talk about saves", KpiKey: domain.KpiShares})
	if plan.KpiKey != domain.KpiShares {
		t.Errorf("kpi = %s, a valid explicit key must be kept", plan.KpiKey)
	}
	if plan.KpiLabel != domain.KpiShares.Label() {
		t.Errorf("label = %q", plan.KpiLabel)
	}
}
