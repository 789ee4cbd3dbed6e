package review

import (
	"testing"
	"time"

	"github.com/lumera/insight-engine/internal/domain"
	"github.com/lumera/insight-engine/internal/insights"
)

func TestDeriveDirectionFromPlans(t *testing.T) {
	now := time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC)
	plans := []domain.ActionPlan{
		{
			Title:       "Drive more saves",
			Description: "Avoid single-image posts without a takeaway. Avoid posting late at night.",
			Action:      "Publish two carousel recaps per week.",
		},
		{
			Title:  "Spark conversations",
			Action: "End captions with a question.",
		},
	}

	dir := DeriveDirection(domain.Month("2026-09"), plans, nil, now)

	if dir.Month != "2026-09" {
		t.Errorf("month = %s", dir.Month)
	}
	if dir.MainTheme != "Drive more saves" {
		t.Errorf("theme = %q, want first plan title", dir.MainTheme)
	}
	if dir.PriorityKPI != PrioritySaves {
		t.Errorf("priority = %s", dir.PriorityKPI)
	}
	if len(dir.AvoidFocus) != 2 {
		t.Fatalf("avoid = %v, want both avoid phrases", dir.AvoidFocus)
	}
	if dir.AvoidFocus[0] != "single-image posts without a takeaway" {
		t.Errorf("avoid[0] = %q", dir.AvoidFocus[0])
	}
	if len(dir.PostingRules) != 2 || dir.PostingRules[0] != "Publish two carousel recaps per week." {
		t.Errorf("rules = %v", dir.PostingRules)
	}
	if dir.OptimalPostingTime != nil {
		t.Errorf("posting time = %v, want nil without slot data", dir.OptimalPostingTime)
	}
	if !dir.LockedAt.Equal(now) {
		t.Errorf("locked at = %v", dir.LockedAt)
	}
}

func TestDeriveDirectionDefaults(t *testing.T) {
	dir := DeriveDirection(domain.Month("2026-09"), nil, nil, time.Now())

	if dir.MainTheme != "continuous improvement" {
		t.Errorf("theme = %q", dir.MainTheme)
	}
	if dir.PriorityKPI != PriorityEngagementRate {
		t.Errorf("priority = %s", dir.PriorityKPI)
	}
	if len(dir.AvoidFocus) != 1 || len(dir.PostingRules) != 1 {
		t.Errorf("defaults = avoid %v rules %v", dir.AvoidFocus, dir.PostingRules)
	}
}

func TestDeriveDirectionOptimalSlot(t *testing.T) {
	slots := []insights.TimeSlotStat{
		{Slot: "6-9", PostCount: 2, Engagement: 10, Reach: 100},
		{Slot: "18-21", PostCount: 3, Engagement: 60, Reach: 200},
	}
	dir := DeriveDirection(domain.Month("2026-09"), nil, slots, time.Now())
	if dir.OptimalPostingTime == nil || *dir.OptimalPostingTime != "18-21" {
		t.Errorf("posting time = %v, want 18-21", dir.OptimalPostingTime)
	}
}

func TestDeriveDirectionDedupesAvoidPhrases(t *testing.T) {
	plans := []domain.ActionPlan{
		{Title: "a", Description: "Avoid clickbait captions."},
		{Title: "b", Description: "Again: avoid clickbait captions."},
	}
	dir := DeriveDirection(domain.Month("2026-09"), plans, nil, time.Now())
	if len(dir.AvoidFocus) != 1 {
		t.Errorf("avoid = %v, want deduped", dir.AvoidFocus)
	}
}
