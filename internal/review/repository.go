package review

import (
	"context"

	"github.com/lumera/insight-engine/internal/domain"
)

// Repository defines the persistence contract for monthly reviews and the
// derived next-month directions. Implementations must be safe for
// concurrent use. Concurrent writers for the same (user, month) key are
// last-writer-wins; regeneration is idempotent in effect.
type Repository interface {
	// GetReview returns the stored review for (user, month). When no record
	// exists the result has Kind ReviewMissing and a nil error.
	GetReview(ctx context.Context, userID string, month domain.Month) (domain.StoredReview, error)

	// SaveReview creates or overwrites the record for (user, month).
	SaveReview(ctx context.Context, userID string, month domain.Month, rec domain.StoredReview) error

	// SaveDirection creates or overwrites the guidance for (user, dir.Month).
	SaveDirection(ctx context.Context, userID string, dir domain.AiDirection) error

	// GetDirection returns the stored guidance, or (nil, nil) when absent.
	GetDirection(ctx context.Context, userID string, month domain.Month) (*domain.AiDirection, error)
}

// Generator is the LLM boundary: one fully rendered prompt in, free-form
// narrative text out. No retry policy here; timeouts belong to the caller's
// context.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// UsageGate meters AI-assisted output consumption. Consume is transactional:
// under concurrent calls for one (user, month) at most the plan limit
// succeed.
type UsageGate interface {
	Consume(ctx context.Context, userID string, tier domain.PlanTier, month domain.Month, feature string) (domain.UsageCounter, error)
}

// Archiver persists a copy of generated reviews to long-term storage.
// Best-effort: failures are logged, never surfaced.
type Archiver interface {
	ArchiveReview(ctx context.Context, userID string, month domain.Month, rec domain.StoredReview) error
}

// Lock is a non-blocking, single-use mutex guarding one generation run.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// LockProvider hands out a fresh Lock per key.
type LockProvider interface {
	Lock(key string) Lock
}
