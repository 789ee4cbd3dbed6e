package quota

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/lumera/insight-engine/internal/domain"
)

func setupTestTracker(t *testing.T) (*Tracker, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	tracker := New(client)

	return tracker, func() {
		client.Close()
		mr.Close()
	}
}

func TestConsumeWithinLimit(t *testing.T) {
	tracker, cleanup := setupTestTracker(t)
	defer cleanup()
	ctx := context.Background()

	month := domain.Month("2026-08")
	for i := 1; i <= 10; i++ {
		counter, err := tracker.Consume(ctx, "user-1", domain.TierBasic, month, "monthly_review")
		if err != nil {
			t.Fatalf("consume %d failed: %v", i, err)
		}
		if counter.Count != i {
			t.Errorf("consume %d: count = %d, want %d", i, counter.Count, i)
		}
	}

	// Eleventh consume exceeds the basic limit of 10.
	_, err := tracker.Consume(ctx, "user-1", domain.TierBasic, month, "monthly_review")
	var exceeded *ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected ExceededError, got %v", err)
	}
	if exceeded.Limit != 10 || exceeded.Used != 10 {
		t.Errorf("exceeded = %d/%d, want 10/10", exceeded.Used, exceeded.Limit)
	}
	if exceeded.Remaining() != 0 {
		t.Errorf("remaining = %d, want 0", exceeded.Remaining())
	}
}

func TestConsumeUnlimitedTier(t *testing.T) {
	tracker, cleanup := setupTestTracker(t)
	defer cleanup()
	ctx := context.Background()

	month := domain.Month("2026-08")
	for i := 1; i <= 100; i++ {
		if _, err := tracker.Consume(ctx, "user-1", domain.TierUnlimited, month, "monthly_review"); err != nil {
			t.Fatalf("unlimited consume %d failed: %v", i, err)
		}
	}
}

func TestConsumeDeniedLeavesCounterUntouched(t *testing.T) {
	tracker, cleanup := setupTestTracker(t)
	defer cleanup()
	ctx := context.Background()

	month := domain.Month("2026-08")
	for i := 0; i < 10; i++ {
		if _, err := tracker.Consume(ctx, "user-1", domain.TierBasic, month, "monthly_review"); err != nil {
			t.Fatalf("consume failed: %v", err)
		}
	}
	for i := 0; i < 5; i++ {
		if _, err := tracker.Consume(ctx, "user-1", domain.TierBasic, month, "monthly_review"); err == nil {
			t.Fatal("expected denial")
		}
	}

	counter, err := tracker.Usage(ctx, "user-1", domain.TierBasic, month)
	if err != nil {
		t.Fatalf("usage failed: %v", err)
	}
	if counter.Count != 10 {
		t.Errorf("count after denials = %d, want 10", counter.Count)
	}
}

func TestConsumeConcurrent(t *testing.T) {
	tracker, cleanup := setupTestTracker(t)
	defer cleanup()
	ctx := context.Background()

	month := domain.Month("2026-08")
	const attempts = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tracker.Consume(ctx, "user-1", domain.TierBasic, month, "monthly_review"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Exactly the basic limit must succeed regardless of interleaving.
	if succeeded != 10 {
		t.Errorf("concurrent successes = %d, want 10", succeeded)
	}

	counter, err := tracker.Usage(ctx, "user-1", domain.TierBasic, month)
	if err != nil {
		t.Fatalf("usage failed: %v", err)
	}
	if counter.Count != 10 {
		t.Errorf("final count = %d, want 10", counter.Count)
	}
}

func TestMonthsAreIndependent(t *testing.T) {
	tracker, cleanup := setupTestTracker(t)
	defer cleanup()
	ctx := context.Background()

	august := domain.Month("2026-08")
	september := domain.Month("2026-09")

	for i := 0; i < 10; i++ {
		if _, err := tracker.Consume(ctx, "user-1", domain.TierBasic, august, "monthly_review"); err != nil {
			t.Fatalf("consume failed: %v", err)
		}
	}
	if _, err := tracker.Consume(ctx, "user-1", domain.TierBasic, august, "monthly_review"); err == nil {
		t.Fatal("expected august to be exhausted")
	}

	// A new month starts from zero.
	counter, err := tracker.Consume(ctx, "user-1", domain.TierBasic, september, "monthly_review")
	if err != nil {
		t.Fatalf("september consume failed: %v", err)
	}
	if counter.Count != 1 {
		t.Errorf("september count = %d, want 1", counter.Count)
	}
}

func TestUsageBreakdown(t *testing.T) {
	tracker, cleanup := setupTestTracker(t)
	defer cleanup()
	ctx := context.Background()

	month := domain.Month("2026-08")
	for i := 0; i < 3; i++ {
		if _, err := tracker.Consume(ctx, "user-1", domain.TierStandard, month, "monthly_review"); err != nil {
			t.Fatalf("consume failed: %v", err)
		}
	}
	if _, err := tracker.Consume(ctx, "user-1", domain.TierStandard, month, "caption_draft"); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	counter, err := tracker.Usage(ctx, "user-1", domain.TierStandard, month)
	if err != nil {
		t.Fatalf("usage failed: %v", err)
	}
	if counter.Count != 4 {
		t.Errorf("count = %d, want 4", counter.Count)
	}
	if counter.Breakdown["monthly_review"] != 3 {
		t.Errorf("monthly_review breakdown = %d, want 3", counter.Breakdown["monthly_review"])
	}
	if counter.Breakdown["caption_draft"] != 1 {
		t.Errorf("caption_draft breakdown = %d, want 1", counter.Breakdown["caption_draft"])
	}
	if counter.Limit == nil || *counter.Limit != 20 {
		t.Errorf("limit = %v, want 20", counter.Limit)
	}
	if r := counter.Remaining(); r == nil || *r != 16 {
		t.Errorf("remaining = %v, want 16", r)
	}
}

func TestUsageEmptyMonth(t *testing.T) {
	tracker, cleanup := setupTestTracker(t)
	defer cleanup()

	counter, err := tracker.Usage(context.Background(), "user-1", domain.TierPro, domain.Month("2026-08"))
	if err != nil {
		t.Fatalf("usage failed: %v", err)
	}
	if counter.Count != 0 {
		t.Errorf("count = %d, want 0", counter.Count)
	}
	if counter.Limit == nil || *counter.Limit != 50 {
		t.Errorf("limit = %v, want 50", counter.Limit)
	}
}

func TestUsersAreIndependent(t *testing.T) {
	tracker, cleanup := setupTestTracker(t)
	defer cleanup()
	ctx := context.Background()

	month := domain.Month("2026-08")
	for i := 0; i < 10; i++ {
		if _, err := tracker.Consume(ctx, "user-1", domain.TierBasic, month, "monthly_review"); err != nil {
			t.Fatalf("consume failed: %v", err)
		}
	}

	counter, err := tracker.Consume(ctx, "user-2", domain.TierBasic, month, "monthly_review")
	if err != nil {
		t.Fatalf("user-2 consume failed: %v", err)
	}
	if counter.Count != 1 {
		t.Errorf("user-2 count = %d, want 1", counter.Count)
	}
}

func TestAssertAvailable(t *testing.T) {
	tracker, cleanup := setupTestTracker(t)
	defer cleanup()
	ctx := context.Background()

	month := domain.Month("2026-08")
	if err := tracker.AssertAvailable(ctx, "user-1", domain.TierBasic, month); err != nil {
		t.Fatalf("fresh month should be available: %v", err)
	}

	for i := 0; i < 10; i++ {
		if _, err := tracker.Consume(ctx, "user-1", domain.TierBasic, month, "monthly_review"); err != nil {
			t.Fatalf("consume failed: %v", err)
		}
	}

	err := tracker.AssertAvailable(ctx, "user-1", domain.TierBasic, month)
	var exceeded *ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected ExceededError, got %v", err)
	}

	// Unlimited tiers are always available.
	if err := tracker.AssertAvailable(ctx, "user-1", domain.TierUnlimited, month); err != nil {
		t.Fatalf("unlimited should be available: %v", err)
	}
}
