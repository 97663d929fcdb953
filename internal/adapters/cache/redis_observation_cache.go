// Package cache provides the Redis-backed read-through cache for
// historical weather observations. Keys are (lat, lon, day) triples;
// historical data never changes, so entries only expire to bound
// memory, not for correctness.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ItaiMaoz/wnwd/internal/domain"
)

const defaultTTL = 7 * 24 * time.Hour

// RedisObservationCache caches weather observations in Redis.
type RedisObservationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisObservationCache(client *redis.Client) *RedisObservationCache {
	return &RedisObservationCache{client: client, ttl: defaultTTL}
}

// Key normalization: four decimals keeps distinct ports apart while
// letting near-identical coordinates share an entry.
func observationKey(lat, lon float64, day string) string {
	return fmt.Sprintf("wx:%.4f:%.4f:%s", lat, lon, day)
}

// Get fetches a cached observation. The second return reports whether
// the key was present; a miss is not an error.
func (c *RedisObservationCache) Get(ctx context.Context, lat, lon float64, day string) (domain.WeatherObservation, bool, error) {
	if c.client == nil {
		return domain.WeatherObservation{}, false, errors.New("observation cache: client is nil")
	}

	raw, err := c.client.Get(ctx, observationKey(lat, lon, day)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.WeatherObservation{}, false, nil
	}
	if err != nil {
		return domain.WeatherObservation{}, false, fmt.Errorf("get observation cache: %w", err)
	}

	var obs domain.WeatherObservation
	if err := json.Unmarshal([]byte(raw), &obs); err != nil {
		return domain.WeatherObservation{}, false, fmt.Errorf("get observation cache: decode entry: %w", err)
	}

	return obs, true, nil
}

// Put stores one observation under its coordinate/day key.
func (c *RedisObservationCache) Put(ctx context.Context, lat, lon float64, day string, obs domain.WeatherObservation) error {
	if c.client == nil {
		return errors.New("observation cache: client is nil")
	}

	raw, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("put observation cache: encode entry: %w", err)
	}

	if err := c.client.Set(ctx, observationKey(lat, lon, day), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("put observation cache: %w", err)
	}

	return nil
}
