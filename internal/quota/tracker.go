// Package quota enforces the per-user monthly cap on AI-assisted output
// consumption. The counter lives in Redis keyed by (user, month), so it
// resets implicitly each billing month, and the check-and-increment runs
// as a Lua script so the count can never exceed a non-nil limit even under
// concurrent consumers.
package quota

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lumera/insight-engine/internal/domain"
	"github.com/lumera/insight-engine/internal/pkg/logger"
	"github.com/lumera/insight-engine/internal/pkg/metrics"
)

// ExceededError reports a denied consume or a failed availability check.
// Callers must not retry until the next billing month.
type ExceededError struct {
	Month domain.Month
	Limit int
	Used  int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("ai usage quota exceeded for %s: %d/%d used", e.Month, e.Used, e.Limit)
}

// Remaining returns the units left, never negative.
func (e *ExceededError) Remaining() int {
	if r := e.Limit - e.Used; r > 0 {
		return r
	}
	return 0
}

// consumeLuaScript atomically checks the counter against the limit and only
// increments when the new count would still fit. A plain GET-check-INCR
// sequence would let concurrent consumers race past the limit.
const consumeLuaScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local feature = ARGV[2]
local ttl = tonumber(ARGV[3])

local count = tonumber(redis.call("HGET", key, "count") or "0")

if limit >= 0 and count + 1 > limit then
    return {0, count}
end

local new = redis.call("HINCRBY", key, "count", 1)
redis.call("HINCRBY", key, "feature:" .. feature, 1)
if new == 1 then
    redis.call("EXPIRE", key, ttl)
end

return {1, new}
`

// Tracker is the transactional monthly usage counter.
type Tracker struct {
	redis         *redis.Client
	consumeScript *redis.Script
}

// New creates a tracker on an existing Redis client.
func New(client *redis.Client) *Tracker {
	return &Tracker{
		redis:         client,
		consumeScript: redis.NewScript(consumeLuaScript),
	}
}

// NewFromURL creates a tracker by connecting to Redis and verifying the
// connection.
func NewFromURL(redisURL string) (*Tracker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("quota tracker connected", "redis", opts.Addr)
	return New(client), nil
}

func key(userID string, month domain.Month) string {
	return fmt.Sprintf("ai_usage:%s:%s", userID, month)
}

// expiry returns when the counter key should lapse: a grace period past the
// end of its month so support can still inspect last month's usage.
func expiry(month domain.Month) time.Time {
	_, end := month.Window(time.UTC)
	return end.Add(31 * 24 * time.Hour)
}

func ttlSeconds(month domain.Month) int64 {
	ttl := time.Until(expiry(month))
	if ttl < time.Hour {
		ttl = time.Hour
	}
	return int64(ttl.Seconds())
}

// AssertAvailable checks the current counter without mutating it. Returns
// an *ExceededError when the plan limit is already reached.
func (t *Tracker) AssertAvailable(ctx context.Context, userID string, tier domain.PlanTier, month domain.Month) error {
	limit := tier.Limit()
	if limit == nil {
		return nil
	}
	count, err := t.redis.HGet(ctx, key(userID, month), "count").Int()
	if err == redis.Nil {
		count = 0
	} else if err != nil {
		return fmt.Errorf("read usage counter: %w", err)
	}
	if count >= *limit {
		return &ExceededError{Month: month, Limit: *limit, Used: count}
	}
	return nil
}

// Consume atomically spends one unit for the given feature. Under N
// concurrent calls for the same (user, month), at most the plan limit
// succeed; denied calls leave the counter untouched and return an
// *ExceededError.
func (t *Tracker) Consume(ctx context.Context, userID string, tier domain.PlanTier, month domain.Month, feature string) (domain.UsageCounter, error) {
	limitArg := int64(-1) // unlimited
	limit := tier.Limit()
	if limit != nil {
		limitArg = int64(*limit)
	}

	result, err := t.consumeScript.Run(ctx, t.redis,
		[]string{key(userID, month)},
		limitArg, feature, ttlSeconds(month),
	).Slice()
	if err != nil {
		return domain.UsageCounter{}, fmt.Errorf("consume usage: %w", err)
	}

	allowed := result[0].(int64) == 1
	count := int(result[1].(int64))

	if !allowed {
		metrics.QuotaDenials.WithLabelValues(feature).Inc()
		return domain.UsageCounter{}, &ExceededError{Month: month, Limit: *limit, Used: count}
	}

	return domain.UsageCounter{
		UserID:    userID,
		Month:     month,
		Tier:      tier,
		Limit:     limit,
		Count:     count,
		ExpiresAt: expiry(month),
	}, nil
}

// Usage returns the full counter state including the per-feature breakdown.
// A month with no consumption yields a zeroed counter, not an error.
func (t *Tracker) Usage(ctx context.Context, userID string, tier domain.PlanTier, month domain.Month) (domain.UsageCounter, error) {
	fields, err := t.redis.HGetAll(ctx, key(userID, month)).Result()
	if err != nil {
		return domain.UsageCounter{}, fmt.Errorf("read usage counter: %w", err)
	}

	counter := domain.UsageCounter{
		UserID:    userID,
		Month:     month,
		Tier:      tier,
		Limit:     tier.Limit(),
		Breakdown: map[string]int{},
		ExpiresAt: expiry(month),
	}
	for field, raw := range fields {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil {
			continue
		}
		if field == "count" {
			counter.Count = n
			continue
		}
		if feature, ok := strings.CutPrefix(field, "feature:"); ok {
			counter.Breakdown[feature] = n
		}
	}
	return counter, nil
}

// Client exposes the underlying Redis client for health checks.
func (t *Tracker) Client() *redis.Client {
	return t.redis
}

// Close closes the underlying Redis connection.
func (t *Tracker) Close() error {
	return t.redis.Close()
}
