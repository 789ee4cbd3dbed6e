package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/lumera/insight-engine/internal/domain"
)

// ReviewRepo implements review.Repository against PostgreSQL. One row per
// (user, month) in monthly_reviews and ai_directions; writes are upserts,
// so concurrent regeneration is last-writer-wins.
type ReviewRepo struct{ db *sql.DB }

// NewReviewRepo creates a Postgres-backed review repository.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

func (r *ReviewRepo) GetReview(ctx context.Context, userID string, month domain.Month) (domain.StoredReview, error) {
	var (
		rec       domain.StoredReview
		plansJSON []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT kind, review, action_plans, analyzed_count, generated_at
		FROM monthly_reviews
		WHERE user_id = $1 AND month = $2
	`, userID, string(month)).Scan(
		&rec.Kind, &rec.Review, &plansJSON, &rec.AnalyzedCount, &rec.GeneratedAt,
	)
	if err == sql.ErrNoRows {
		return domain.StoredReview{Kind: domain.ReviewMissing}, nil
	}
	if err != nil {
		return domain.StoredReview{}, fmt.Errorf("get review: %w", err)
	}
	if len(plansJSON) > 0 {
		if err := json.Unmarshal(plansJSON, &rec.ActionPlans); err != nil {
			return domain.StoredReview{}, fmt.Errorf("decode action plans: %w", err)
		}
	}
	return rec, nil
}

func (r *ReviewRepo) SaveReview(ctx context.Context, userID string, month domain.Month, rec domain.StoredReview) error {
	plansJSON, err := json.Marshal(rec.ActionPlans)
	if err != nil {
		return fmt.Errorf("encode action plans: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO monthly_reviews
			(user_id, month, kind, review, action_plans, analyzed_count, generated_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id, month) DO UPDATE SET
			kind = EXCLUDED.kind,
			review = EXCLUDED.review,
			action_plans = EXCLUDED.action_plans,
			analyzed_count = EXCLUDED.analyzed_count,
			generated_at = EXCLUDED.generated_at,
			updated_at = NOW()
	`, userID, string(month), rec.Kind, rec.Review, plansJSON, rec.AnalyzedCount, rec.GeneratedAt)
	if err != nil {
		return fmt.Errorf("save review: %w", err)
	}
	return nil
}

func (r *ReviewRepo) SaveDirection(ctx context.Context, userID string, dir domain.AiDirection) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ai_directions
			(user_id, month, main_theme, avoid_focus, priority_kpi,
			 posting_rules, optimal_posting_time, locked_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (user_id, month) DO UPDATE SET
			main_theme = EXCLUDED.main_theme,
			avoid_focus = EXCLUDED.avoid_focus,
			priority_kpi = EXCLUDED.priority_kpi,
			posting_rules = EXCLUDED.posting_rules,
			optimal_posting_time = EXCLUDED.optimal_posting_time,
			locked_at = EXCLUDED.locked_at,
			updated_at = NOW()
	`, userID, string(dir.Month), dir.MainTheme, pq.Array(dir.AvoidFocus),
		dir.PriorityKPI, pq.Array(dir.PostingRules), dir.OptimalPostingTime, dir.LockedAt)
	if err != nil {
		return fmt.Errorf("save direction: %w", err)
	}
	return nil
}

func (r *ReviewRepo) GetDirection(ctx context.Context, userID string, month domain.Month) (*domain.AiDirection, error) {
	dir := &domain.AiDirection{}
	err := r.db.QueryRowContext(ctx, `
		SELECT month, main_theme, avoid_focus, priority_kpi,
		       posting_rules, optimal_posting_time, locked_at
		FROM ai_directions
		WHERE user_id = $1 AND month = $2
	`, userID, string(month)).Scan(
		&dir.Month, &dir.MainTheme, pq.Array(&dir.AvoidFocus), &dir.PriorityKPI,
		pq.Array(&dir.PostingRules), &dir.OptimalPostingTime, &dir.LockedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get direction: %w", err)
	}
	return dir, nil
}
