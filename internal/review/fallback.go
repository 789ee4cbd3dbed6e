package review

import (
	"fmt"
	"strings"

	"github.com/lumera/insight-engine/internal/insights"
)

// BuildFallbackReview assembles a deterministic numeric narrative from the
// monthly aggregate. It is used whenever AI generation fails so the caller
// still receives a useful payload; the record is persisted with
// Kind=Fallback so a later call retries generation.
func BuildFallbackReview(agg *insights.MonthlyAggregate) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Monthly summary for %s\n\n", agg.Month)
	fmt.Fprintf(&b, "You published %d posts this month.\n", agg.AnalyzedCount)
	fmt.Fprintf(&b, "Totals: %d likes, %d comments, %d shares, %d saves, %d reach.\n",
		agg.Totals.Likes, agg.Totals.Comments, agg.Totals.Shares, agg.Totals.Saves, agg.Totals.Reach)
	fmt.Fprintf(&b, "Follower growth: %+d (current followers: %d).\n",
		agg.Totals.FollowerIncrease, agg.CurrentFollowers)

	if agg.FirstMonth {
		b.WriteString("\nThis is the first analyzed month, so month-over-month comparisons are not available yet.\n")
	} else if agg.Changes != nil {
		b.WriteString("\nMonth-over-month changes:\n")
		writeChange(&b, "Likes", agg.Changes.Likes)
		writeChange(&b, "Comments", agg.Changes.Comments)
		writeChange(&b, "Saves", agg.Changes.Saves)
		writeChange(&b, "Reach", agg.Changes.Reach)
		writeChange(&b, "Follower growth", agg.Changes.FollowerIncrease)
	}

	if best := insights.BestPostingSlot(agg.TimeSlots); best != nil {
		fmt.Fprintf(&b, "\nYour strongest posting window was %s o'clock (avg engagement rate %.1f%%).\n",
			best.Slot, derefRate(best.EngagementRate()))
	}

	if len(agg.Hashtags) > 0 {
		top := agg.Hashtags
		if len(top) > 3 {
			top = top[:3]
		}
		tags := make([]string, len(top))
		for i, h := range top {
			tags[i] = "#" + h.Tag
		}
		fmt.Fprintf(&b, "Most used hashtags: %s.\n", strings.Join(tags, ", "))
	}

	b.WriteString("\nA full AI-written review was not available for this run; the numbers above are exact and a complete narrative will be generated on the next attempt.\n")
	return b.String()
}

func writeChange(b *strings.Builder, label string, change *float64) {
	if change == nil {
		fmt.Fprintf(b, "- %s: no comparable data\n", label)
		return
	}
	fmt.Fprintf(b, "- %s: %+.1f%%\n", label, *change)
}

func derefRate(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
