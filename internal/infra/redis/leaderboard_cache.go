package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const leaderboardKey = "contest:leaderboard"

// RowSource computes leaderboard rows from the backing store on cache miss.
type RowSource interface {
	LeaderboardRows(ctx context.Context) ([]domain.LeaderboardRow, error)
}

// LeaderboardCache is a read-through Redis cache for the leaderboard
// projection. Misses are filled through singleflight so a cold cache under
// load issues one aggregation query, not one per request. The TTL gets up to
// 10% jitter to spread expirations; new solves invalidate the key directly.
type LeaderboardCache struct {
	client *redis.Client
	source RowSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewLeaderboardCache(client *redis.Client, source RowSource, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *LeaderboardCache) LeaderboardRows(ctx context.Context) ([]domain.LeaderboardRow, error) {
	if rows, ok := c.cached(ctx); ok {
		return rows, nil
	}

	result, err, _ := c.sf.Do(leaderboardKey, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		if rows, ok := c.cached(ctx); ok {
			return rows, nil
		}

		rows, err := c.source.LeaderboardRows(ctx)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(rows); err == nil {
			_ = c.client.Set(ctx, leaderboardKey, data, c.ttlWithJitter()).Err()
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.LeaderboardRow), nil
}

// Invalidate drops the cached snapshot so the next read recomputes.
func (c *LeaderboardCache) Invalidate(ctx context.Context) {
	_ = c.client.Del(ctx, leaderboardKey).Err()
}

func (c *LeaderboardCache) cached(ctx context.Context) ([]domain.LeaderboardRow, bool) {
	data, err := c.client.Get(ctx, leaderboardKey).Bytes()
	if err != nil {
		return nil, false
	}
	var rows []domain.LeaderboardRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
