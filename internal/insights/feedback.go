package insights

import (
	"sort"
	"strings"
	"time"

	"github.com/lumera/insight-engine/internal/domain"
)

const (
	highlightLimit    = 3
	feedbackPostLimit = 6
)

// FeedbackInput bundles the month window, the raw submissions, and the
// post lookups the analyzer annotates results with.
type FeedbackInput struct {
	Month    domain.Month
	Location *time.Location
	Entries  []domain.FeedbackEntry
	Posts    map[string]domain.AnalyticsEntry
	Statuses map[string]domain.SnapshotStatus
}

// CommentHighlight is one surfaced free-text comment.
type CommentHighlight struct {
	PostID      string    `json:"post_id"`
	Comment     string    `json:"comment"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// CommentHighlights holds the most recent positive and negative comments.
type CommentHighlights struct {
	Positive []CommentHighlight `json:"positive"`
	Negative []CommentHighlight `json:"negative"`
}

// FeedbackPost is the per-post sentiment rollup.
type FeedbackPost struct {
	PostID   string                `json:"post_id"`
	PostType domain.PostType       `json:"post_type,omitempty"`
	Total    int                   `json:"total"`
	Positive int                   `json:"positive"`
	Negative int                   `json:"negative"`
	Neutral  int                   `json:"neutral"`
	Score    int                   `json:"score"`
	Status   domain.SnapshotStatus `json:"status"`
}

// FeedbackSummary is the month's qualitative-feedback rollup.
type FeedbackSummary struct {
	Total            int               `json:"total"`
	Positive         int               `json:"positive"`
	Negative         int               `json:"negative"`
	Neutral          int               `json:"neutral"`
	PositiveRate     float64           `json:"positive_rate"`
	WithCommentCount int               `json:"with_comment_count"`
	Highlights       CommentHighlights `json:"comment_highlights"`
	Posts            []FeedbackPost    `json:"posts"`
}

// AnalyzeFeedback classifies the month's feedback submissions and rolls
// them up. Entries outside the half-open month window are excluded; with
// zero in-range entries the result is nil, not an empty summary.
func AnalyzeFeedback(in FeedbackInput) *FeedbackSummary {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	start, end := in.Month.Window(loc)

	var inRange []domain.FeedbackEntry
	for _, e := range in.Entries {
		if !e.SubmittedAt.Before(start) && e.SubmittedAt.Before(end) {
			inRange = append(inRange, e)
		}
	}
	if len(inRange) == 0 {
		return nil
	}

	sum := &FeedbackSummary{Total: len(inRange)}
	byPost := map[string]*FeedbackPost{}
	var positiveComments, negativeComments []CommentHighlight

	for _, e := range inRange {
		cls := e.Classify()
		post, ok := byPost[e.PostID]
		if !ok {
			post = &FeedbackPost{PostID: e.PostID, Status: domain.SnapshotNormal}
			if meta, found := in.Posts[e.PostID]; found {
				post.PostType = meta.PostType
			}
			if st, found := in.Statuses[e.PostID]; found {
				post.Status = st
			}
			byPost[e.PostID] = post
		}
		post.Total++

		comment := strings.TrimSpace(e.Comment)
		if comment != "" {
			sum.WithCommentCount++
		}

		switch cls {
		case domain.SentimentPositive:
			sum.Positive++
			post.Positive++
			if comment != "" {
				positiveComments = append(positiveComments, CommentHighlight{PostID: e.PostID, Comment: comment, SubmittedAt: e.SubmittedAt})
			}
		case domain.SentimentNegative:
			sum.Negative++
			post.Negative++
			if comment != "" {
				negativeComments = append(negativeComments, CommentHighlight{PostID: e.PostID, Comment: comment, SubmittedAt: e.SubmittedAt})
			}
		default:
			sum.Neutral++
			post.Neutral++
		}
	}

	sum.PositiveRate = float64(sum.Positive) / float64(sum.Total) * 100
	sum.Highlights.Positive = topByRecency(positiveComments)
	sum.Highlights.Negative = topByRecency(negativeComments)

	posts := make([]FeedbackPost, 0, len(byPost))
	for _, p := range byPost {
		p.Score = p.Positive - p.Negative
		posts = append(posts, *p)
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].Score != posts[j].Score {
			return posts[i].Score > posts[j].Score
		}
		if posts[i].Total != posts[j].Total {
			return posts[i].Total > posts[j].Total
		}
		return posts[i].PostID < posts[j].PostID
	})
	if len(posts) > feedbackPostLimit {
		posts = posts[:feedbackPostLimit]
	}
	sum.Posts = posts

	return sum
}

func topByRecency(comments []CommentHighlight) []CommentHighlight {
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].SubmittedAt.After(comments[j].SubmittedAt)
	})
	if len(comments) > highlightLimit {
		comments = comments[:highlightLimit]
	}
	return comments
}
