package cache

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"photopick/internal/domain/quota"
	"photopick/internal/shared/logger"
)

const (
	statusKeyPrefix = "quota:status:"

	fieldPlan           = "plan"
	fieldStatus         = "status"
	fieldUsedCount      = "used_count"
	fieldLimit          = "limit"
	fieldRemaining      = "remaining"
	fieldAcceptsUploads = "accepts_uploads"
	fieldPeriodEnd      = "period_end"
	fieldVersion        = "version"
)

// setStatusScript writes a snapshot unless the entry already holds a newer
// version (a snapshot or an invalidation floor).
// KEYS[1] = status hash key
// ARGV[1] = snapshot version, ARGV[2] = TTL in milliseconds, ARGV[3..] = field/value pairs
// Returns 1 if written, 0 if skipped
var setStatusScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'version')
if current and tonumber(current) > tonumber(ARGV[1]) then
    return 0
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], 'version', ARGV[1], unpack(ARGV, 3))
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

// invalidateStatusScript replaces the snapshot with a floor holding only the
// committed version, so slower readers cannot cache an older snapshot.
// KEYS[1] = status hash key
// ARGV[1] = committed version, ARGV[2] = TTL in milliseconds
// Returns 1 if the floor was written, 0 if a newer entry was kept
var invalidateStatusScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'version')
if current and tonumber(current) > tonumber(ARGV[1]) then
    return 0
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], 'version', ARGV[1])
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

// RedisLedgerStatusCache keeps display snapshots of ledgers in Redis hashes.
// Entries expire after ttl plus up to 25% jitter. Every committed ledger write
// replaces the entry with a version floor; snapshots older than the floor are
// never written back.
type RedisLedgerStatusCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Interface
}

// NewRedisLedgerStatusCache creates a Redis-based ledger status cache
func NewRedisLedgerStatusCache(client *redis.Client, ttl time.Duration, log logger.Interface) *RedisLedgerStatusCache {
	return &RedisLedgerStatusCache{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

func (c *RedisLedgerStatusCache) key(ownerID string) string {
	return statusKeyPrefix + ownerID
}

// Get returns nil, nil on a miss.
func (c *RedisLedgerStatusCache) Get(ctx context.Context, ownerID string) (*quota.LedgerStatus, error) {
	result, err := c.client.HGetAll(ctx, c.key(ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger status from cache: %w", err)
	}
	if len(result) == 0 {
		return nil, nil
	}

	status := &quota.LedgerStatus{
		OwnerID:        ownerID,
		Plan:           quota.Plan(result[fieldPlan]),
		Status:         quota.Status(result[fieldStatus]),
		AcceptsUploads: result[fieldAcceptsUploads] == "1",
	}
	if _, err := quota.ParsePlan(string(status.Plan)); err != nil {
		// invalidation floor or foreign entry
		return nil, nil
	}

	status.UsedCount, _ = strconv.Atoi(result[fieldUsedCount])
	status.Limit, _ = strconv.Atoi(result[fieldLimit])
	status.Remaining, _ = strconv.Atoi(result[fieldRemaining])
	status.Version, _ = strconv.Atoi(result[fieldVersion])

	if raw := result[fieldPeriodEnd]; raw != "" && raw != "0" {
		if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
			end := time.Unix(unix, 0).UTC()
			status.CurrentPeriodEnd = &end
		}
	}

	return status, nil
}

func (c *RedisLedgerStatusCache) Set(ctx context.Context, status *quota.LedgerStatus) error {
	key := c.key(status.OwnerID)

	var periodEnd int64
	if status.CurrentPeriodEnd != nil {
		periodEnd = status.CurrentPeriodEnd.Unix()
	}

	args := []interface{}{
		status.Version,
		c.ttlWithJitter().Milliseconds(),
		fieldPlan, status.Plan.String(),
		fieldStatus, status.Status.String(),
		fieldUsedCount, status.UsedCount,
		fieldLimit, status.Limit,
		fieldRemaining, status.Remaining,
		fieldAcceptsUploads, boolToInt(status.AcceptsUploads),
		fieldPeriodEnd, periodEnd,
	}

	written, err := setStatusScript.Run(ctx, c.client, []string{key}, args...).Int()
	if err != nil {
		return fmt.Errorf("failed to set ledger status in cache: %w", err)
	}
	if written == 0 {
		c.logger.Debugw("stale ledger status not cached",
			"owner_id", status.OwnerID,
			"version", status.Version,
		)
		return nil
	}

	c.logger.Debugw("ledger status cached",
		"owner_id", status.OwnerID,
		"used_count", status.UsedCount,
		"limit", status.Limit,
		"version", status.Version,
	)
	return nil
}

func (c *RedisLedgerStatusCache) Invalidate(ctx context.Context, ownerID string, version int) error {
	err := invalidateStatusScript.Run(ctx, c.client, []string{c.key(ownerID)},
		version, c.ttlWithJitter().Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to invalidate ledger status: %w", err)
	}
	return nil
}

func (c *RedisLedgerStatusCache) ttlWithJitter() time.Duration {
	ttl := c.ttl
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	jitter := ttl / 4
	if jitter <= 0 {
		return ttl
	}
	return ttl + time.Duration(rand.Int64N(int64(jitter)))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
