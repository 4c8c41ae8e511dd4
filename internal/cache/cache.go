// Package cache provides a Redis-backed cache for the daily report
// aggregate. The aggregate walks every session, addon order, booking
// and consignment movement of a day, so recomputing it on every poll
// is wasteful. A missing or unreachable Redis server disables caching
// and callers fall back to computing reports directly.
package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReportCache stores serialized daily report payloads keyed by date.
// A nil client disables all operations, so the zero-Redis deployment
// works without any code path changes.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache connects to Redis at the given URL. An empty URL or a
// failed ping returns a disabled cache rather than an error.
func NewReportCache(redisURL string, ttl time.Duration) *ReportCache {
	if redisURL == "" {
		return &ReportCache{ttl: ttl}
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("ERROR: invalid REDIS_URL, report caching disabled: %v", err)
		return &ReportCache{ttl: ttl}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("ERROR: redis unreachable, report caching disabled: %v", err)
		return &ReportCache{ttl: ttl}
	}
	return &ReportCache{client: client, ttl: ttl}
}

// Enabled reports whether a live Redis connection backs this cache.
func (c *ReportCache) Enabled() bool {
	return c != nil && c.client != nil
}

func key(day string) string {
	return "report:" + day
}

// Get returns the cached report JSON for a day, or nil on miss.
func (c *ReportCache) Get(ctx context.Context, day string) []byte {
	if !c.Enabled() {
		return nil
	}
	data, err := c.client.Get(ctx, key(day)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("ERROR: report cache get: %v", err)
		}
		return nil
	}
	return data
}

// Set stores the report JSON for a day with the configured TTL.
func (c *ReportCache) Set(ctx context.Context, day string, data []byte) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Set(ctx, key(day), data, c.ttl).Err(); err != nil {
		log.Printf("ERROR: report cache set: %v", err)
	}
}

// Invalidate drops the cached report for a day. Called after any write
// that feeds the aggregate (sessions, orders, balances, denominations).
func (c *ReportCache) Invalidate(ctx context.Context, day string) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Del(ctx, key(day)).Err(); err != nil {
		log.Printf("ERROR: report cache invalidate: %v", err)
	}
}
