package weather

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ItaiMaoz/wnwd/internal/adapters/cache"
	"github.com/ItaiMaoz/wnwd/internal/domain"
	"github.com/ItaiMaoz/wnwd/internal/retry"
)

var testPolicy = retry.Policy{
	MaxRetries:   2,
	BaseDelay:    time.Millisecond,
	MaxDelay:     2 * time.Millisecond,
	JitterFactor: 0,
}

const archiveBody = `{
	"hourly": {
		"time": ["2024-03-10T13:00", "2024-03-10T14:00", "2024-03-10T15:00"],
		"temperature_2m": [11.9, 12.34, 12.8],
		"wind_speed_10m": [9.0, 10.8, 14.4],
		"wind_direction_10m": [180, 190, 200]
	}
}`

func TestGetWeatherSelectsNearestHourAndConvertsUnits(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if got := r.URL.Query().Get("start_date"); got != "2024-03-10" {
			t.Errorf("start_date = %q, want 2024-03-10", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(archiveBody))
	}))
	defer srv.Close()

	c := NewOpenMeteoClient(srv.URL, testPolicy, nil)
	at := time.Date(2024, 3, 10, 14, 10, 0, 0, time.UTC)

	out := c.GetWeather(context.Background(), 53.55, 9.99, at)
	if out.Status != domain.WeatherSuccess {
		t.Fatalf("status = %s (err=%v), want SUCCESS", out.Status, out.Err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}

	if out.Temperature == nil || *out.Temperature != 12.34 {
		t.Fatalf("temperature = %v, want the 14:00 slot value 12.34", out.Temperature)
	}
	// 10.8 km/h -> 3.0 m/s at the source boundary.
	if out.WindSpeed == nil || math.Abs(*out.WindSpeed-3.0) > 1e-9 {
		t.Fatalf("wind speed = %v, want 3.0 m/s", out.WindSpeed)
	}
}

func TestGetWeatherFutureDateShortCircuits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("future-dated lookup must not reach the network")
	}))
	defer srv.Close()

	c := NewOpenMeteoClient(srv.URL, testPolicy, nil)
	out := c.GetWeather(context.Background(), 10, 10, time.Now().UTC().Add(48*time.Hour))

	if out.Status != domain.WeatherNoData {
		t.Fatalf("status = %s, want NO_DATA_AVAILABLE", out.Status)
	}
}

func TestGetWeatherServerErrorsExhaustRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewOpenMeteoClient(srv.URL, testPolicy, nil)
	out := c.GetWeather(context.Background(), 10, 10, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	if out.Status != domain.WeatherRetryExhausted {
		t.Fatalf("status = %s, want RETRY_EXHAUSTED", out.Status)
	}
	if out.Err == nil {
		t.Fatalf("exhausted outcome must carry the underlying error")
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want MaxRetries+1 = 3", calls.Load())
	}
}

func TestGetWeatherClientErrorIsFatalWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "invalid coordinates", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewOpenMeteoClient(srv.URL, testPolicy, nil)
	out := c.GetWeather(context.Background(), 10, 10, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	if out.Status != domain.WeatherFatalError {
		t.Fatalf("status = %s, want FATAL_ERROR", out.Status)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1 (4xx is not retryable)", calls.Load())
	}
}

func TestGetWeatherOutOfRangeCoordinatesFailFast(t *testing.T) {
	c := NewOpenMeteoClient("http://127.0.0.1:0", testPolicy, nil)
	out := c.GetWeather(context.Background(), 91, 0, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if out.Status != domain.WeatherFatalError {
		t.Fatalf("status = %s, want FATAL_ERROR", out.Status)
	}
}

func TestGetWeatherEmptyArchiveMeansNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hourly": {"time": []}}`))
	}))
	defer srv.Close()

	c := NewOpenMeteoClient(srv.URL, testPolicy, nil)
	out := c.GetWeather(context.Background(), 10, 10, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	if out.Status != domain.WeatherNoData {
		t.Fatalf("status = %s, want NO_DATA_AVAILABLE", out.Status)
	}
}

func TestGetWeatherServesRepeatLookupsFromCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(archiveBody))
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewOpenMeteoClient(srv.URL, testPolicy, cache.NewRedisObservationCache(client))
	at := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

	first := c.GetWeather(context.Background(), 53.55, 9.99, at)
	second := c.GetWeather(context.Background(), 53.55, 9.99, at)

	if first.Status != domain.WeatherSuccess || second.Status != domain.WeatherSuccess {
		t.Fatalf("statuses = %s/%s, want SUCCESS twice", first.Status, second.Status)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1 (second lookup served from cache)", calls.Load())
	}
	if second.Temperature == nil || *second.Temperature != 12.34 {
		t.Fatalf("cached temperature = %v, want 12.34", second.Temperature)
	}
}
