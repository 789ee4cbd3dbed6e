package review

import (
	"fmt"

	"github.com/osteele/liquid"

	"github.com/lumera/insight-engine/internal/insights"
)

var promptEngine = liquid.NewEngine()

// reviewPromptTpl renders the main-narrative prompt. The Action Plans
// section format is what ParseActionPlans expects back.
const reviewPromptTpl = `You are the analytics copilot of a social media marketing team. Using the numbers below, write this month's performance review for the account owner. Be concrete, reference the numbers, and keep a constructive tone.

## This month ({{ month }})
- Posts analyzed: {{ analyzed_count }}
- Likes: {{ likes }}
- Comments: {{ comments }}
- Shares: {{ shares }}
- Saves: {{ saves }}
- Reach: {{ reach }}
- Follower growth: {{ follower_increase }}
- Current followers: {{ current_followers }}
{% if first_month %}- This is the first analyzed month; no month-over-month comparison exists yet.{% endif %}
{% if best_slot != "" %}- Strongest posting window: {{ best_slot }} o'clock{% endif %}
{% if business_context != "" %}
## Account context
{{ business_context }}
{% endif %}
Respond with exactly two sections:

## Monthly Review
Three to five paragraphs analyzing what worked and what did not.

## Action Plans
Up to three numbered items, each formatted as:
1. Title: <short imperative title>
   Description: <one or two sentences, note anything to avoid>
   Action: <one concrete posting rule>`

// proposalPromptTpl renders the month-ahead proposal prompt (stage two).
const proposalPromptTpl = `Based on the same account's numbers for {{ month }} ({{ analyzed_count }} posts, {{ reach }} reach, {{ follower_increase }} follower growth), write a short "Looking ahead" section for next month: two paragraphs proposing content themes and a posting rhythm. Do not repeat the numbers back verbatim.
{% if business_context != "" %}
Account context:
{{ business_context }}
{% endif %}`

// BuildReviewPrompt renders the stage-one prompt from the aggregate plus
// the opaque business-profile context string.
func BuildReviewPrompt(agg *insights.MonthlyAggregate, businessContext string) (string, error) {
	out, err := promptEngine.ParseAndRenderString(reviewPromptTpl, promptBindings(agg, businessContext))
	if err != nil {
		return "", fmt.Errorf("render review prompt: %w", err)
	}
	return out, nil
}

// BuildProposalPrompt renders the stage-two month-ahead prompt.
func BuildProposalPrompt(agg *insights.MonthlyAggregate, businessContext string) (string, error) {
	out, err := promptEngine.ParseAndRenderString(proposalPromptTpl, promptBindings(agg, businessContext))
	if err != nil {
		return "", fmt.Errorf("render proposal prompt: %w", err)
	}
	return out, nil
}

func promptBindings(agg *insights.MonthlyAggregate, businessContext string) liquid.Bindings {
	bestSlot := ""
	if best := insights.BestPostingSlot(agg.TimeSlots); best != nil {
		bestSlot = best.Slot
	}
	return liquid.Bindings{
		"month":             agg.Month.String(),
		"analyzed_count":    agg.AnalyzedCount,
		"likes":             agg.Totals.Likes,
		"comments":          agg.Totals.Comments,
		"shares":            agg.Totals.Shares,
		"saves":             agg.Totals.Saves,
		"reach":             agg.Totals.Reach,
		"follower_increase": agg.Totals.FollowerIncrease,
		"current_followers": agg.CurrentFollowers,
		"first_month":       agg.FirstMonth,
		"best_slot":         bestSlot,
		"business_context":  businessContext,
	}
}
