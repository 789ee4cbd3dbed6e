package insights

import (
	"strings"
	"testing"
	"time"

	"github.com/lumera/insight-engine/internal/domain"
)

func cardByKey(cards []BreakdownCard, key string) *BreakdownCard {
	for i := range cards {
		if cards[i].Key == key {
			return &cards[i]
		}
	}
	return nil
}

func augEntries() []domain.AnalyticsEntry {
	return []domain.AnalyticsEntry{
		entry("p1", domain.PostFeed, time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC), 100, 10, 2, 30, 1500),
		entry("p2", domain.PostReel, time.Date(2026, 8, 10, 19, 0, 0, 0, time.UTC), 300, 40, 8, 90, 5000),
		entry("p3", domain.PostFeed, time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC), 50, 5, 1, 10, 800),
		entry("p4", domain.PostStory, time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC), 20, 2, 0, 0, 400),
	}
}

func TestBuildBreakdownCardOrder(t *testing.T) {
	agg := Aggregate(Input{Month: domain.Month("2026-08"), Current: augEntries()})
	cards := BuildBreakdown(agg, augEntries(), nil)

	want := []string{"reach", "saves", "followers", "engagement", "total_interaction", "external_links", "profile_visits", "current_followers"}
	if len(cards) != len(want) {
		t.Fatalf("cards = %d, want %d", len(cards), len(want))
	}
	for i, key := range want {
		if cards[i].Key != key {
			t.Errorf("card[%d] = %s, want %s", i, cards[i].Key, key)
		}
	}
}

func TestBuildBreakdownTopPosts(t *testing.T) {
	agg := Aggregate(Input{Month: domain.Month("2026-08"), Current: augEntries()})
	statuses := map[string]domain.SnapshotStatus{"p2": domain.SnapshotGold}
	cards := BuildBreakdown(agg, augEntries(), statuses)

	reach := cardByKey(cards, "reach")
	if len(reach.TopPosts) != 3 {
		t.Fatalf("top posts = %d, want 3", len(reach.TopPosts))
	}
	if reach.TopPosts[0].PostID != "p2" || reach.TopPosts[0].Value != 5000 {
		t.Errorf("top = %+v", reach.TopPosts[0])
	}
	if reach.TopPosts[0].Status != domain.SnapshotGold {
		t.Errorf("status = %s, want gold", reach.TopPosts[0].Status)
	}
	if reach.TopPosts[1].Status != domain.SnapshotNormal {
		t.Errorf("unknown posts default to normal, got %s", reach.TopPosts[1].Status)
	}

	// Saves card skips the zero-saves story post.
	saves := cardByKey(cards, "saves")
	for _, p := range saves.TopPosts {
		if p.PostID == "p4" {
			t.Error("zero-value post must not be ranked")
		}
	}
}

func TestBuildBreakdownEngagementCards(t *testing.T) {
	prev := []domain.AnalyticsEntry{
		entry("q1", domain.PostFeed, time.Date(2026, 7, 3, 10, 0, 0, 0, time.UTC), 400, 57, 10, 100, 7000),
	}
	agg := Aggregate(Input{Month: domain.Month("2026-08"), Current: augEntries(), Previous: prev})
	cards := BuildBreakdown(agg, augEntries(), nil)

	eng := cardByKey(cards, "engagement")
	if eng.Value != 527 { // 470 likes + 57 comments
		t.Errorf("engagement value = %d, want 527", eng.Value)
	}
	if len(eng.Segments) != 2 {
		t.Errorf("segments = %d, want likes+comments", len(eng.Segments))
	}
	// 527 vs 457 previous
	if eng.Change == nil {
		t.Fatal("engagement change missing")
	}

	ti := cardByKey(cards, "total_interaction")
	if ti.Value != agg.Totals.Engagement() {
		t.Errorf("interaction value = %d, want %d", ti.Value, agg.Totals.Engagement())
	}
	if len(ti.Segments) != 4 {
		t.Errorf("segments = %d, want 4", len(ti.Segments))
	}
}

func TestBuildBreakdownFollowerGaugeBaseline(t *testing.T) {
	agg := Aggregate(Input{
		Month:            domain.Month("2026-08"),
		Current:          augEntries(),
		InitialFollowers: 5000,
	})
	cards := BuildBreakdown(agg, augEntries(), nil)

	gauge := cardByKey(cards, "current_followers")
	if gauge.Change != nil {
		t.Errorf("change = %v, want nil in the first month", *gauge.Change)
	}
	if !strings.Contains(gauge.Insight, "baseline") {
		t.Errorf("insight = %q, want baseline wording", gauge.Insight)
	}
}

func TestBuildBreakdownFollowerGaugeTrend(t *testing.T) {
	prevFollowers := int64(1000)
	agg := Aggregate(Input{
		Month:             domain.Month("2026-08"),
		Current:           augEntries(),
		Previous:          []domain.AnalyticsEntry{entry("q1", domain.PostFeed, time.Date(2026, 7, 3, 10, 0, 0, 0, time.UTC), 1, 0, 0, 0, 10)},
		CurrentFollowers:  &domain.FollowerCountEntry{Month: "2026-08", Followers: 1200},
		PreviousFollowers: &domain.FollowerCountEntry{Month: "2026-07", Followers: prevFollowers},
	})
	cards := BuildBreakdown(agg, augEntries(), nil)

	gauge := cardByKey(cards, "current_followers")
	if gauge.Value != 1200 {
		t.Errorf("gauge = %d, want snapshot value", gauge.Value)
	}
	if gauge.Change == nil || *gauge.Change != 20 {
		t.Errorf("change = %v, want 20", gauge.Change)
	}
	if !strings.Contains(gauge.Insight, "up 20.0%") {
		t.Errorf("insight = %q", gauge.Insight)
	}
}

func TestBuildBreakdownInsights(t *testing.T) {
	prev := []domain.AnalyticsEntry{
		entry("q1", domain.PostFeed, time.Date(2026, 7, 3, 10, 0, 0, 0, time.UTC), 0, 0, 0, 130, 10000),
	}
	agg := Aggregate(Input{Month: domain.Month("2026-08"), Current: augEntries(), Previous: prev})
	cards := BuildBreakdown(agg, augEntries(), nil)

	// Reach 7700 vs 10000: down.
	reach := cardByKey(cards, "reach")
	if !strings.Contains(reach.Insight, "down") {
		t.Errorf("reach insight = %q", reach.Insight)
	}
	// Saves 130 vs 130: flat.
	saves := cardByKey(cards, "saves")
	if !strings.Contains(saves.Insight, "held steady") {
		t.Errorf("saves insight = %q", saves.Insight)
	}
	// Follower increase had a zero previous value: no comparable data.
	followers := cardByKey(cards, "followers")
	if !strings.Contains(followers.Insight, "no comparable data") {
		t.Errorf("followers insight = %q", followers.Insight)
	}
}

func TestBuildBreakdownReachSegments(t *testing.T) {
	entries := augEntries()
	entries[0].Sources = domain.ReachSources{Profile: i64(500), Feed: i64(1000)}
	agg := Aggregate(Input{Month: domain.Month("2026-08"), Current: entries})
	cards := BuildBreakdown(agg, entries, nil)

	reach := cardByKey(cards, "reach")
	if len(reach.Segments) != 4 {
		t.Fatalf("segments = %d, want 4", len(reach.Segments))
	}
	if reach.Segments[1].Key != "feed" || reach.Segments[1].Value < 66 || reach.Segments[1].Value > 67 {
		t.Errorf("feed segment = %+v", reach.Segments[1])
	}
}
