package review

import (
	"strings"
	"testing"

	"github.com/lumera/insight-engine/internal/domain"
	"github.com/lumera/insight-engine/internal/insights"
)

func TestBuildFallbackReview(t *testing.T) {
	change := 12.5
	agg := &insights.MonthlyAggregate{
		Month:            domain.Month("2026-08"),
		AnalyzedCount:    14,
		Totals:           insights.KpiTotals{Likes: 400, Comments: 30, Shares: 10, Saves: 60, Reach: 9000, FollowerIncrease: 25},
		CurrentFollowers: 1225,
		Changes:          &insights.KpiChanges{Likes: &change},
		TimeSlots: []insights.TimeSlotStat{
			{Slot: "18-21", PostCount: 3, Engagement: 60, Reach: 200},
		},
		Hashtags: []insights.HashtagCount{
			{Tag: "coffee", Count: 5},
			{Tag: "latteart", Count: 3},
		},
	}

	text := BuildFallbackReview(agg)

	for _, want := range []string{
		"Monthly summary for 2026-08",
		"You published 14 posts",
		"400 likes, 30 comments, 10 shares, 60 saves, 9000 reach",
		"Follower growth: +25 (current followers: 1225)",
		"- Likes: +12.5%",
		"- Comments: no comparable data",
		"strongest posting window was 18-21",
		"#coffee, #latteart",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("fallback missing %q:\n%s", want, text)
		}
	}

	// Identical input always yields identical output.
	if text != BuildFallbackReview(agg) {
		t.Error("fallback must be deterministic")
	}
}

func TestBuildFallbackReviewFirstMonth(t *testing.T) {
	agg := &insights.MonthlyAggregate{
		Month:         domain.Month("2026-08"),
		AnalyzedCount: 10,
		FirstMonth:    true,
	}
	text := BuildFallbackReview(agg)
	if !strings.Contains(text, "first analyzed month") {
		t.Errorf("first-month note missing:\n%s", text)
	}
	if strings.Contains(text, "Month-over-month") {
		t.Error("first month must not show change lines")
	}
}
