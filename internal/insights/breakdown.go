package insights

import (
	"fmt"
	"sort"
	"time"

	"github.com/osteele/liquid"

	"github.com/lumera/insight-engine/internal/domain"
)

// Segment is one labeled slice of a breakdown card's value.
type Segment struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// RankedPost is one entry of a card's top-posts list, tagged with its
// snapshot status.
type RankedPost struct {
	PostID      string                `json:"post_id"`
	PostType    domain.PostType       `json:"post_type"`
	Value       int64                 `json:"value"`
	PublishedAt time.Time             `json:"published_at"`
	Status      domain.SnapshotStatus `json:"status"`
}

// BreakdownCard is a single named KPI summary unit: value, trend, optional
// segments and top posts, and a templated one-line insight.
type BreakdownCard struct {
	Key      string       `json:"key"`
	Label    string       `json:"label"`
	Value    int64        `json:"value"`
	Change   *float64     `json:"change"`
	Segments []Segment    `json:"segments,omitempty"`
	TopPosts []RankedPost `json:"top_posts,omitempty"`
	Insight  string       `json:"insight"`
}

const topPostLimit = 3

// Insight line templates. Rendered with the shared liquid engine; a render
// failure degrades to a plain formatted line rather than an error.
const (
	insightUpTpl       = `{{ label }} reached {{ value }} this month, up {{ change }}% from last month.`
	insightDownTpl     = `{{ label }} came in at {{ value }}, down {{ change }}% from last month.`
	insightFlatTpl     = `{{ label }} held steady at {{ value }} month over month.`
	insightNoBaseTpl   = `{{ label }} totaled {{ value }} this month; no comparable data from last month.`
	insightBaselineTpl = `Follower baseline established at {{ value }}. Next month unlocks trend tracking.`
)

var insightEngine = liquid.NewEngine()

// BuildBreakdown turns the monthly aggregate into the ordered list of
// display-ready cards. Entries must be the same month-scoped set the
// aggregate was built from; statuses maps post id to its snapshot tag.
func BuildBreakdown(agg *MonthlyAggregate, entries []domain.AnalyticsEntry, statuses map[string]domain.SnapshotStatus) []BreakdownCard {
	top := func(metric func(domain.AnalyticsEntry) int64) []RankedPost {
		return rankPosts(entries, statuses, metric)
	}
	prev := agg.PreviousTotals

	cards := make([]BreakdownCard, 0, 8)

	reach := BreakdownCard{
		Key:      "reach",
		Label:    "Reach",
		Value:    agg.Totals.Reach,
		Change:   changeField(agg, func(c *KpiChanges) *float64 { return c.Reach }),
		TopPosts: top(func(e domain.AnalyticsEntry) int64 { return e.Reach }),
	}
	if agg.Sources != nil {
		reach.Segments = []Segment{
			{Key: "profile", Label: "Profile", Value: agg.Sources.Profile},
			{Key: "feed", Label: "Feed / Explore", Value: agg.Sources.Feed},
			{Key: "search", Label: "Search", Value: agg.Sources.Search},
			{Key: "other", Label: "Other", Value: agg.Sources.Other},
		}
	}
	cards = append(cards, reach)

	cards = append(cards, BreakdownCard{
		Key:      "saves",
		Label:    "Saves",
		Value:    agg.Totals.Saves,
		Change:   changeField(agg, func(c *KpiChanges) *float64 { return c.Saves }),
		TopPosts: top(func(e domain.AnalyticsEntry) int64 { return e.Saves }),
	})

	cards = append(cards, BreakdownCard{
		Key:      "followers",
		Label:    "Follower growth",
		Value:    agg.Totals.FollowerIncrease,
		Change:   changeField(agg, func(c *KpiChanges) *float64 { return c.FollowerIncrease }),
		TopPosts: top(func(e domain.AnalyticsEntry) int64 { return e.FollowerIncrease }),
	})

	engagement := BreakdownCard{
		Key:   "engagement",
		Label: "Engagement",
		Value: agg.Totals.Likes + agg.Totals.Comments,
		Segments: []Segment{
			{Key: "likes", Label: "Likes", Value: float64(agg.Totals.Likes)},
			{Key: "comments", Label: "Comments", Value: float64(agg.Totals.Comments)},
		},
		TopPosts: top(func(e domain.AnalyticsEntry) int64 { return e.Likes + e.Comments }),
	}
	if prev != nil {
		engagement.Change = percentChange(agg.Totals.Likes+agg.Totals.Comments, prev.Likes+prev.Comments)
	}
	cards = append(cards, engagement)

	interaction := BreakdownCard{
		Key:   "total_interaction",
		Label: "Total interactions",
		Value: agg.Totals.Engagement(),
		Segments: []Segment{
			{Key: "likes", Label: "Likes", Value: float64(agg.Totals.Likes)},
			{Key: "comments", Label: "Comments", Value: float64(agg.Totals.Comments)},
			{Key: "shares", Label: "Shares", Value: float64(agg.Totals.Shares)},
			{Key: "saves", Label: "Saves", Value: float64(agg.Totals.Saves)},
		},
		TopPosts: top(domain.AnalyticsEntry.Engagement),
	}
	if prev != nil {
		interaction.Change = percentChange(agg.Totals.Engagement(), prev.Engagement())
	}
	cards = append(cards, interaction)

	cards = append(cards, BreakdownCard{
		Key:      "external_links",
		Label:    "External link taps",
		Value:    agg.Totals.ExternalLinkTaps,
		Change:   changeField(agg, func(c *KpiChanges) *float64 { return c.ExternalLinkTaps }),
		TopPosts: top(func(e domain.AnalyticsEntry) int64 { return e.ExternalLinkTaps }),
	})

	cards = append(cards, BreakdownCard{
		Key:      "profile_visits",
		Label:    "Profile visits",
		Value:    agg.Totals.ProfileVisits,
		Change:   changeField(agg, func(c *KpiChanges) *float64 { return c.ProfileVisits }),
		TopPosts: top(func(e domain.AnalyticsEntry) int64 { return e.ProfileVisits }),
	})

	// current_followers is a gauge: always the latest point-in-time count,
	// never a sum over posts.
	gauge := BreakdownCard{
		Key:   "current_followers",
		Label: "Current followers",
		Value: agg.CurrentFollowers,
	}
	if !agg.FirstMonth && agg.PreviousFollowers != nil {
		gauge.Change = percentChange(agg.CurrentFollowers, *agg.PreviousFollowers)
	}
	cards = append(cards, gauge)

	for i := range cards {
		c := &cards[i]
		if c.Key == "current_followers" && agg.FirstMonth {
			c.Insight = renderInsight(insightBaselineTpl, c.Label, c.Value, nil)
			continue
		}
		c.Insight = trendInsight(c.Label, c.Value, c.Change)
	}
	return cards
}

func changeField(agg *MonthlyAggregate, pick func(*KpiChanges) *float64) *float64 {
	if agg.Changes == nil {
		return nil
	}
	return pick(agg.Changes)
}

// rankPosts sorts descending by metric, breaking ties by most recent
// publish time, and keeps the top few. Posts with a zero metric are skipped.
func rankPosts(entries []domain.AnalyticsEntry, statuses map[string]domain.SnapshotStatus, metric func(domain.AnalyticsEntry) int64) []RankedPost {
	ranked := make([]RankedPost, 0, len(entries))
	for _, e := range entries {
		v := metric(e)
		if v <= 0 {
			continue
		}
		status, ok := statuses[e.PostID]
		if !ok {
			status = domain.SnapshotNormal
		}
		ranked = append(ranked, RankedPost{
			PostID:      e.PostID,
			PostType:    e.PostType,
			Value:       v,
			PublishedAt: e.PublishedAt,
			Status:      status,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Value != ranked[j].Value {
			return ranked[i].Value > ranked[j].Value
		}
		return ranked[i].PublishedAt.After(ranked[j].PublishedAt)
	})
	if len(ranked) > topPostLimit {
		ranked = ranked[:topPostLimit]
	}
	return ranked
}

func trendInsight(label string, value int64, change *float64) string {
	switch {
	case change == nil:
		return renderInsight(insightNoBaseTpl, label, value, nil)
	case *change > 0.05:
		return renderInsight(insightUpTpl, label, value, change)
	case *change < -0.05:
		return renderInsight(insightDownTpl, label, value, change)
	default:
		return renderInsight(insightFlatTpl, label, value, nil)
	}
}

func renderInsight(tpl, label string, value int64, change *float64) string {
	bindings := liquid.Bindings{
		"label": label,
		"value": value,
	}
	if change != nil {
		c := *change
		if c < 0 {
			c = -c
		}
		bindings["change"] = fmt.Sprintf("%.1f", c)
	}
	out, err := insightEngine.ParseAndRenderString(tpl, bindings)
	if err != nil {
		return fmt.Sprintf("%s: %d this month.", label, value)
	}
	return out
}
