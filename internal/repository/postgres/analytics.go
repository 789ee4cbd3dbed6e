// Package postgres holds the SQL-backed repositories. All queries are
// scoped by user_id; schemas live in migrations owned by the platform.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/lumera/insight-engine/internal/domain"
)

// AnalyticsRepo implements insights.ReadModel against PostgreSQL.
type AnalyticsRepo struct{ db *sql.DB }

// NewAnalyticsRepo creates a Postgres-backed analytics read model.
func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo { return &AnalyticsRepo{db: db} }

func (r *AnalyticsRepo) ListEntries(ctx context.Context, userID string, start, end time.Time) ([]domain.AnalyticsEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT post_id, post_type, published_at,
		       likes, comments, shares, saves, reach, follower_increase,
		       profile_visits, external_link_taps,
		       reach_from_profile, reach_from_feed, reach_from_search, reach_from_other,
		       avg_play_time_seconds, skip_rate,
		       audience, hashtags, follower_count
		FROM analytics_entries
		WHERE user_id = $1 AND published_at >= $2 AND published_at < $3
		ORDER BY published_at
	`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list analytics entries: %w", err)
	}
	defer rows.Close()

	var out []domain.AnalyticsEntry
	for rows.Next() {
		var (
			e            domain.AnalyticsEntry
			audienceJSON []byte
			followers    sql.NullInt64
		)
		if err := rows.Scan(
			&e.PostID, &e.PostType, &e.PublishedAt,
			&e.Likes, &e.Comments, &e.Shares, &e.Saves, &e.Reach, &e.FollowerIncrease,
			&e.ProfileVisits, &e.ExternalLinkTaps,
			&e.Sources.Profile, &e.Sources.Feed, &e.Sources.Search, &e.Sources.Other,
			&e.AvgPlayTimeSeconds, &e.SkipRate,
			&audienceJSON, pq.Array(&e.Hashtags), &followers,
		); err != nil {
			return nil, fmt.Errorf("scan analytics entry: %w", err)
		}
		if len(audienceJSON) > 0 {
			var split domain.AudienceSplit
			if err := json.Unmarshal(audienceJSON, &split); err != nil {
				return nil, fmt.Errorf("decode audience for post %s: %w", e.PostID, err)
			}
			e.Audience = &split
		}
		if followers.Valid {
			v := followers.Int64
			e.FollowerCount = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) GetFollowerCount(ctx context.Context, userID string, month domain.Month) (*domain.FollowerCountEntry, error) {
	fc := &domain.FollowerCountEntry{}
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, month, COALESCE(platform,''), followers,
		       COALESCE(profile_visits,0), COALESCE(external_link_taps,0)
		FROM follower_counts
		WHERE user_id = $1 AND month = $2
	`, userID, string(month)).Scan(
		&fc.UserID, &fc.Month, &fc.Platform, &fc.Followers,
		&fc.ProfileVisits, &fc.ExternalLinkTaps,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get follower count: %w", err)
	}
	return fc, nil
}

func (r *AnalyticsRepo) SnapshotStatuses(ctx context.Context, userID string, postIDs []string) (map[string]domain.SnapshotStatus, error) {
	out := make(map[string]domain.SnapshotStatus, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT post_id, status
		FROM post_snapshots
		WHERE user_id = $1 AND post_id = ANY($2)
	`, userID, pq.Array(postIDs))
	if err != nil {
		return nil, fmt.Errorf("list snapshot statuses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var status domain.SnapshotStatus
		if err := rows.Scan(&id, &status); err != nil {
			return nil, fmt.Errorf("scan snapshot status: %w", err)
		}
		out[id] = status
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) ListFeedback(ctx context.Context, userID string, start, end time.Time) ([]domain.FeedbackEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT post_id, COALESCE(sentiment,''), COALESCE(goal_achievement_prospect,''),
		       COALESCE(comment,''), submitted_at
		FROM post_feedback
		WHERE user_id = $1 AND submitted_at >= $2 AND submitted_at < $3
		ORDER BY submitted_at
	`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var out []domain.FeedbackEntry
	for rows.Next() {
		var f domain.FeedbackEntry
		if err := rows.Scan(&f.PostID, &f.Sentiment, &f.GoalAchievementProspect, &f.Comment, &f.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepo) InitialFollowers(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(initial_followers, 0) FROM account_profiles WHERE user_id = $1
	`, userID).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("initial followers: %w", err)
	}
	return n, nil
}
