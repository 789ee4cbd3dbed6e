package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/lumera/insight-engine/internal/domain"
)

// ReadModel defines the data access contract for the insight service.
// All rows are already scoped to a single user; implementations must be
// safe for concurrent use.
type ReadModel interface {
	// ListEntries returns analytics rows published in [start, end).
	ListEntries(ctx context.Context, userID string, start, end time.Time) ([]domain.AnalyticsEntry, error)

	// GetFollowerCount returns the monthly snapshot, or (nil, nil) when the
	// month has none.
	GetFollowerCount(ctx context.Context, userID string, month domain.Month) (*domain.FollowerCountEntry, error)

	// SnapshotStatuses resolves post ids to gold/negative/normal tags.
	// Missing ids are simply absent from the result.
	SnapshotStatuses(ctx context.Context, userID string, postIDs []string) (map[string]domain.SnapshotStatus, error)

	// ListFeedback returns feedback rows submitted in [start, end).
	ListFeedback(ctx context.Context, userID string, start, end time.Time) ([]domain.FeedbackEntry, error)

	// InitialFollowers returns the account's registered follower baseline.
	InitialFollowers(ctx context.Context, userID string) (int64, error)
}

// Service assembles the KPI dashboard. Stateless, request-scoped: all
// computation is a pure transform over data fetched at call time.
type Service struct {
	repo ReadModel
	loc  *time.Location
}

// NewService creates an insight service reading through the given model.
// loc is the timezone all month windows are interpreted in.
func NewService(repo ReadModel, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc}
}

// Dashboard is the full KPI dashboard payload for one month.
type Dashboard struct {
	Month       domain.Month      `json:"month"`
	GeneratedAt time.Time         `json:"generated_at"`
	Aggregate   *MonthlyAggregate `json:"aggregate"`
	Cards       []BreakdownCard   `json:"cards"`
	Risks       []RiskAlert       `json:"risks"`
	Feedback    *FeedbackSummary  `json:"feedback"`
}

// Dashboard fetches one month of raw data plus the prior month and builds
// the aggregate, breakdown cards, risk alerts, and feedback summary.
func (s *Service) Dashboard(ctx context.Context, userID string, month domain.Month) (*Dashboard, error) {
	agg, current, err := s.aggregate(ctx, userID, month)
	if err != nil {
		return nil, err
	}

	postIDs := make([]string, 0, len(current))
	posts := make(map[string]domain.AnalyticsEntry, len(current))
	for _, e := range current {
		postIDs = append(postIDs, e.PostID)
		posts[e.PostID] = e
	}
	statuses, err := s.repo.SnapshotStatuses(ctx, userID, postIDs)
	if err != nil {
		return nil, fmt.Errorf("snapshot statuses: %w", err)
	}

	start, end := month.Window(s.loc)
	feedback, err := s.repo.ListFeedback(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}

	dash := &Dashboard{
		Month:       month,
		GeneratedAt: time.Now().UTC(),
		Aggregate:   agg,
		Cards:       BuildBreakdown(agg, current, statuses),
		Risks:       DetectRisks(snapshotOf(agg.Totals, agg.AnalyzedCount), previousSnapshot(agg)),
		Feedback: AnalyzeFeedback(FeedbackInput{
			Month:    month,
			Location: s.loc,
			Entries:  feedback,
			Posts:    posts,
			Statuses: statuses,
		}),
	}
	return dash, nil
}

// AggregateMonth builds just the monthly aggregate. The review orchestrator
// uses it for prompts, fallback narratives, and direction derivation.
func (s *Service) AggregateMonth(ctx context.Context, userID string, month domain.Month) (*MonthlyAggregate, error) {
	agg, _, err := s.aggregate(ctx, userID, month)
	return agg, err
}

func (s *Service) aggregate(ctx context.Context, userID string, month domain.Month) (*MonthlyAggregate, []domain.AnalyticsEntry, error) {
	curStart, curEnd := month.Window(s.loc)
	prevStart, prevEnd := month.Prev().Window(s.loc)

	current, err := s.repo.ListEntries(ctx, userID, curStart, curEnd)
	if err != nil {
		return nil, nil, fmt.Errorf("list entries %s: %w", month, err)
	}
	previous, err := s.repo.ListEntries(ctx, userID, prevStart, prevEnd)
	if err != nil {
		return nil, nil, fmt.Errorf("list entries %s: %w", month.Prev(), err)
	}
	curFC, err := s.repo.GetFollowerCount(ctx, userID, month)
	if err != nil {
		return nil, nil, fmt.Errorf("follower count %s: %w", month, err)
	}
	prevFC, err := s.repo.GetFollowerCount(ctx, userID, month.Prev())
	if err != nil {
		return nil, nil, fmt.Errorf("follower count %s: %w", month.Prev(), err)
	}
	baseline, err := s.repo.InitialFollowers(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("initial followers: %w", err)
	}

	agg := Aggregate(Input{
		Month:             month,
		Location:          s.loc,
		Current:           current,
		Previous:          previous,
		CurrentFollowers:  curFC,
		PreviousFollowers: prevFC,
		InitialFollowers:  baseline,
	})
	return agg, current, nil
}

func snapshotOf(t KpiTotals, analyzed int) MonthSnapshot {
	return MonthSnapshot{
		AnalyzedCount:         analyzed,
		TotalLikes:            t.Likes,
		TotalReach:            t.Reach,
		TotalComments:         t.Comments,
		TotalFollowerIncrease: t.FollowerIncrease,
	}
}

func previousSnapshot(agg *MonthlyAggregate) MonthSnapshot {
	if agg.PreviousTotals == nil {
		return MonthSnapshot{}
	}
	return snapshotOf(*agg.PreviousTotals, agg.PreviousAnalyzedCount)
}
