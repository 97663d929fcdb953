package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ItaiMaoz/wnwd/internal/domain"
)

func newTestCache(t *testing.T) *RedisObservationCache {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisObservationCache(client)
}

func TestObservationCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	temp := 8.4
	wind := 5.25
	obs := domain.WeatherObservation{Temperature: &temp, WindSpeed: &wind}

	if err := c.Put(ctx, 53.5511, 9.9937, "2024-03-10", obs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := c.Get(ctx, 53.5511, 9.9937, "2024-03-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected a cache hit")
	}
	if got.Temperature == nil || *got.Temperature != temp {
		t.Fatalf("temperature = %v, want %v", got.Temperature, temp)
	}
	if got.WindSpeed == nil || *got.WindSpeed != wind {
		t.Fatalf("wind speed = %v, want %v", got.WindSpeed, wind)
	}
	if got.WindDirection != nil {
		t.Fatalf("wind direction = %v, want absent", *got.WindDirection)
	}
}

func TestObservationCacheMiss(t *testing.T) {
	c := newTestCache(t)

	_, ok, err := c.Get(context.Background(), 1, 2, "2024-01-01")
	if err != nil {
		t.Fatalf("a miss must not be an error: %v", err)
	}
	if ok {
		t.Fatalf("expected a miss")
	}
}

func TestObservationCacheKeysAreCoordinateScoped(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	temp := 20.0
	if err := c.Put(ctx, 10, 10, "2024-01-01", domain.WeatherObservation{Temperature: &temp}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok, _ := c.Get(ctx, 10, 11, "2024-01-01"); ok {
		t.Fatalf("different coordinates must not share an entry")
	}
	if _, ok, _ := c.Get(ctx, 10, 10, "2024-01-02"); ok {
		t.Fatalf("different days must not share an entry")
	}
}
