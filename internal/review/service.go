package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lumera/insight-engine/internal/domain"
	"github.com/lumera/insight-engine/internal/insights"
	"github.com/lumera/insight-engine/internal/pkg/logger"
	"github.com/lumera/insight-engine/internal/pkg/metrics"
	"github.com/lumera/insight-engine/internal/quota"
)

// FeatureMonthlyReview is the usage-gate feature key charged per generation.
const FeatureMonthlyReview = "monthly_review"

// Orchestrator states surfaced to the API layer.
const (
	StateLocked    = "locked"    // not enough analyzed posts yet
	StateReady     = "ready"     // unlockable; no AI narrative stored (or fallback only)
	StateGenerated = "generated" // AI narrative stored and returned
)

const defaultRequiredPosts = 10

// Config tunes the orchestrator.
type Config struct {
	// RequiredPosts is the minimum analyzed-post count before a review can
	// be generated. Zero means the default of 10.
	RequiredPosts int
}

// Service orchestrates monthly review generation: the unlock gate, the
// usage quota, the two-stage LLM calls, parsing, persistence, and the
// deterministic fallback.
type Service struct {
	repo    Repository
	gen     Generator
	usage   UsageGate
	archive Archiver
	locks   LockProvider

	required int
	now      func() time.Time
}

// NewService wires the orchestrator. gen, usage, and archive may be nil:
// a nil generator disables AI output entirely, a nil gate means no quota,
// a nil archiver skips long-term copies.
func NewService(repo Repository, gen Generator, usage UsageGate, archive Archiver, cfg Config) *Service {
	required := cfg.RequiredPosts
	if required <= 0 {
		required = defaultRequiredPosts
	}
	return &Service{
		repo:     repo,
		gen:      gen,
		usage:    usage,
		archive:  archive,
		required: required,
		now:      time.Now,
	}
}

// WithLocks enables cross-host serialization of generation runs. Without
// it, concurrent regeneration for the same (user, month) is last-writer-wins
// and may charge the quota more than once.
func (s *Service) WithLocks(locks LockProvider) *Service {
	s.locks = locks
	return s
}

// GenerateInput carries one generation request.
type GenerateInput struct {
	UserID string
	Month  domain.Month
	Tier   domain.PlanTier

	// ForceRegenerate bypasses the stored-review cache and produces a fresh
	// narrative, charging the quota again.
	ForceRegenerate bool

	// AllowAIGeneration gates LLM calls. When false the service serves
	// cached content or the state only, never calling the generator or the
	// usage gate.
	AllowAIGeneration bool

	// Aggregate is the reviewed month's computed aggregate. Required.
	Aggregate *insights.MonthlyAggregate

	// BusinessContext is free-form account context folded into the prompts.
	BusinessContext string
}

// Result is the orchestrator's answer for both Generate and Get.
type Result struct {
	State       string             `json:"state"`
	Review      string             `json:"review,omitempty"`
	ActionPlans []domain.ActionPlan `json:"action_plans,omitempty"`
	HasPlan     bool               `json:"has_plan"`
	IsFallback  bool               `json:"is_fallback"`

	AnalyzedCount  int `json:"analyzed_count"`
	RequiredCount  int `json:"required_count"`
	RemainingCount int `json:"remaining_count"`
}

// Generate runs the full pipeline for one (user, month). The quota is
// charged only when an LLM call is actually about to happen; cached
// reviews and fallbacks are free. A *quota.ExceededError is returned
// unwrapped so the API layer can map it to 429.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (*Result, error) {
	if !in.Month.Valid() {
		return nil, ErrInvalidMonth
	}
	if in.Aggregate == nil {
		return nil, ErrMissingAggregate
	}

	res := &Result{
		State:         StateLocked,
		AnalyzedCount: in.Aggregate.AnalyzedCount,
		RequiredCount: s.required,
	}
	if remaining := s.required - in.Aggregate.AnalyzedCount; remaining > 0 {
		res.RemainingCount = remaining
		return res, nil
	}
	res.State = StateReady

	stored, err := s.repo.GetReview(ctx, in.UserID, in.Month)
	if err != nil {
		return nil, fmt.Errorf("load stored review: %w", err)
	}

	// A completed AI review is served verbatim unless regeneration was
	// explicitly requested. This is what keeps repeat fetches free.
	if stored.Kind == domain.ReviewGenerated && !in.ForceRegenerate {
		fillFromStored(res, stored)
		res.State = StateGenerated
		return res, nil
	}

	if s.gen != nil && in.AllowAIGeneration {
		return s.generate(ctx, in, res)
	}

	// AI output is off. A previously stored fallback is still worth
	// returning over nothing.
	if stored.Kind == domain.ReviewFallback {
		fillFromStored(res, stored)
		res.IsFallback = true
	}
	return res, nil
}

// Get returns the current state without generating anything.
func (s *Service) Get(ctx context.Context, userID string, month domain.Month, agg *insights.MonthlyAggregate) (*Result, error) {
	if !month.Valid() {
		return nil, ErrInvalidMonth
	}
	if agg == nil {
		return nil, ErrMissingAggregate
	}

	res := &Result{
		State:         StateLocked,
		AnalyzedCount: agg.AnalyzedCount,
		RequiredCount: s.required,
	}
	if remaining := s.required - agg.AnalyzedCount; remaining > 0 {
		res.RemainingCount = remaining
		return res, nil
	}
	res.State = StateReady

	stored, err := s.repo.GetReview(ctx, userID, month)
	if err != nil {
		return nil, fmt.Errorf("load stored review: %w", err)
	}
	switch stored.Kind {
	case domain.ReviewGenerated:
		fillFromStored(res, stored)
		res.State = StateGenerated
	case domain.ReviewFallback:
		fillFromStored(res, stored)
		res.IsFallback = true
	}
	return res, nil
}

func (s *Service) generate(ctx context.Context, in GenerateInput, res *Result) (*Result, error) {
	if s.locks != nil {
		lock := s.locks.Lock(generationLockKey(in.UserID, in.Month))
		held, err := lock.Acquire(ctx)
		if err != nil {
			// Locking is protection against concurrent double-charges, not a
			// prerequisite; a broken lock backend must not block generation.
			logger.Warn("generation lock unavailable, proceeding unlocked",
				"user_id", in.UserID, "month", in.Month, "error", err)
		} else if !held {
			return nil, ErrGenerationInProgress
		} else {
			defer func() {
				if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
					logger.Warn("generation lock release failed",
						"user_id", in.UserID, "month", in.Month, "error", err)
				}
			}()
		}
	}

	if s.usage != nil {
		if _, err := s.usage.Consume(ctx, in.UserID, in.Tier, in.Month, FeatureMonthlyReview); err != nil {
			var exceeded *quota.ExceededError
			if errors.As(err, &exceeded) {
				return nil, err
			}
			// The gate itself failed (e.g. Redis down). Denying the user a
			// review over a metering outage is the wrong trade; degrade to
			// the fallback narrative instead.
			logger.Error("usage gate unavailable, serving fallback",
				"user_id", in.UserID, "month", in.Month, "error", err)
			return s.fallback(ctx, in, res)
		}
	}

	narrative, genErr := s.runGeneration(ctx, in)
	if genErr != nil {
		logger.Error("review generation failed, serving fallback",
			"user_id", in.UserID, "month", in.Month, "error", genErr)
		return s.fallback(ctx, in, res)
	}

	plans := ParseActionPlans(narrative)

	rec := domain.StoredReview{
		Kind:          domain.ReviewGenerated,
		Review:        narrative,
		ActionPlans:   plans,
		AnalyzedCount: in.Aggregate.AnalyzedCount,
		GeneratedAt:   s.now().UTC(),
	}
	if err := s.repo.SaveReview(ctx, in.UserID, in.Month, rec); err != nil {
		return nil, fmt.Errorf("save generated review: %w", err)
	}
	metrics.ReviewsGenerated.Inc()

	if rec.HasPlan() {
		dir := DeriveDirection(in.Month.Next(), plans, in.Aggregate.TimeSlots, s.now())
		if err := s.repo.SaveDirection(ctx, in.UserID, dir); err != nil {
			// The review itself is saved; the direction can be rebuilt on
			// the next generation.
			logger.Error("direction save failed", "user_id", in.UserID, "month", dir.Month, "error", err)
		}
	}

	if s.archive != nil {
		if err := s.archive.ArchiveReview(ctx, in.UserID, in.Month, rec); err != nil {
			logger.Warn("review archive failed", "user_id", in.UserID, "month", in.Month, "error", err)
		}
	}

	fillFromStored(res, rec)
	res.State = StateGenerated
	return res, nil
}

// runGeneration performs the two LLM calls and joins the results. Either
// call failing fails the whole generation.
func (s *Service) runGeneration(ctx context.Context, in GenerateInput) (string, error) {
	reviewPrompt, err := BuildReviewPrompt(in.Aggregate, in.BusinessContext)
	if err != nil {
		return "", err
	}
	proposalPrompt, err := BuildProposalPrompt(in.Aggregate, in.BusinessContext)
	if err != nil {
		return "", err
	}

	start := s.now()
	body, err := s.gen.Complete(ctx, reviewPrompt)
	metrics.ObserveLLMDuration(start)
	if err != nil {
		return "", fmt.Errorf("review completion: %w", err)
	}

	start = s.now()
	proposal, err := s.gen.Complete(ctx, proposalPrompt)
	metrics.ObserveLLMDuration(start)
	if err != nil {
		return "", fmt.Errorf("proposal completion: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(body))
	if p := strings.TrimSpace(proposal); p != "" {
		sb.WriteString("\n\n## Looking Ahead\n\n")
		sb.WriteString(p)
	}
	return sb.String(), nil
}

func (s *Service) fallback(ctx context.Context, in GenerateInput, res *Result) (*Result, error) {
	rec := domain.StoredReview{
		Kind:          domain.ReviewFallback,
		Review:        BuildFallbackReview(in.Aggregate),
		AnalyzedCount: in.Aggregate.AnalyzedCount,
		GeneratedAt:   s.now().UTC(),
	}
	if err := s.repo.SaveReview(ctx, in.UserID, in.Month, rec); err != nil {
		return nil, fmt.Errorf("save fallback review: %w", err)
	}
	metrics.ReviewsFallback.Inc()

	fillFromStored(res, rec)
	res.State = StateReady
	res.IsFallback = true
	return res, nil
}

func generationLockKey(userID string, month domain.Month) string {
	return fmt.Sprintf("review_generate:%s:%s", userID, month)
}

func fillFromStored(res *Result, rec domain.StoredReview) {
	res.Review = rec.Review
	res.ActionPlans = rec.ActionPlans
	res.HasPlan = rec.HasPlan()
	res.AnalyzedCount = rec.AnalyzedCount
}
