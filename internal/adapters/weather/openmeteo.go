// Package weather implements the WeatherSource port against the
// Open-Meteo historical archive API.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ItaiMaoz/wnwd/internal/adapters/cache"
	"github.com/ItaiMaoz/wnwd/internal/domain"
	"github.com/ItaiMaoz/wnwd/internal/retry"
)

// errNoData marks a completed archive call that has no observations for
// the requested day. Expected outcome, never retried.
var errNoData = errors.New("no archive data for requested day")

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// OpenMeteoClient fetches historical weather with bounded retries and a
// circuit breaker, consulting a Redis observation cache first when one
// is configured. Wind speed is converted from the API's km/h to m/s at
// this boundary; values are returned unrounded.
//
// The client is safe for concurrent use.
type OpenMeteoClient struct {
	session      *http.Client
	baseURL      string
	policy       retry.Policy
	circuit      *gobreaker.CircuitBreaker
	observations *cache.RedisObservationCache
	now          func() time.Time
}

// NewOpenMeteoClient builds a client for the archive API. observations
// may be nil to run without caching.
func NewOpenMeteoClient(baseURL string, policy retry.Policy, observations *cache.RedisObservationCache) *OpenMeteoClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://archive-api.open-meteo.com"
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "open-meteo-archive",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenMeteoClient{
		session:      &http.Client{Timeout: 10 * time.Second},
		baseURL:      strings.TrimRight(baseURL, "/"),
		policy:       policy,
		circuit:      cb,
		observations: observations,
		now:          time.Now,
	}
}

// GetWeather resolves historical weather for one point and timestamp,
// folding every failure mode into the outcome union.
func (c *OpenMeteoClient) GetWeather(ctx context.Context, lat, lon float64, at time.Time) domain.WeatherOutcome {
	loc := domain.GeoLocation{Latitude: lat, Longitude: lon}
	if !loc.Valid() {
		return domain.WeatherFailed(fmt.Errorf("coordinates out of range: lat=%v lon=%v", lat, lon))
	}

	day := at.UTC().Format("2006-01-02")
	today := c.now().UTC().Format("2006-01-02")

	// Historical lookups cannot serve future dates; date-only
	// comparison, time-of-day ignored.
	if day > today {
		return domain.WeatherUnavailable(fmt.Errorf("arrival date %s is in the future", day))
	}

	if c.observations != nil {
		obs, ok, err := c.observations.Get(ctx, lat, lon, day)
		if err != nil {
			log.Printf("op=weather.cache.get err=%v", err)
		} else if ok {
			return domain.WeatherSucceeded(obs.Temperature, obs.WindSpeed, obs.WindDirection)
		}
	}

	obs, err := retry.Do(ctx, c.policy, func(ctx context.Context) (domain.WeatherObservation, error) {
		return c.fetchArchiveDay(ctx, lat, lon, at)
	}, isRetryable)

	if err != nil {
		if errors.Is(err, errNoData) {
			return domain.WeatherUnavailable(err)
		}
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			return domain.WeatherExhausted(err)
		}
		return domain.WeatherFailed(err)
	}

	if c.observations != nil {
		if err := c.observations.Put(ctx, lat, lon, day, obs); err != nil {
			log.Printf("op=weather.cache.put err=%v", err)
		}
	}

	return domain.WeatherSucceeded(obs.Temperature, obs.WindSpeed, obs.WindDirection)
}

// Retryability: network-class errors and 429/5xx responses are worth
// another attempt; 4xx responses and everything else are not.
func isRetryable(err error) bool {
	var he *httpStatusError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

type archiveResponse struct {
	Hourly struct {
		Time             []string   `json:"time"`
		Temperature2m    []*float64 `json:"temperature_2m"`
		WindSpeed10m     []*float64 `json:"wind_speed_10m"`
		WindDirection10m []*float64 `json:"wind_direction_10m"`
	} `json:"hourly"`
}

// fetchArchiveDay performs one archive API call through the circuit
// breaker and selects the observation closest to the arrival hour.
func (c *OpenMeteoClient) fetchArchiveDay(ctx context.Context, lat, lon float64, at time.Time) (domain.WeatherObservation, error) {
	day := at.UTC().Format("2006-01-02")

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("start_date", day)
	q.Set("end_date", day)
	q.Set("hourly", "temperature_2m,wind_speed_10m,wind_direction_10m")
	q.Set("wind_speed_unit", "kmh")
	q.Set("timezone", "UTC")

	endpoint := fmt.Sprintf("%s/v1/archive?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.WeatherObservation{}, fmt.Errorf("create archive request: %w", err)
	}

	result, err := c.circuit.Execute(func() (any, error) {
		resp, err := c.session.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 400 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			resp.Body.Close()
			return nil, &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		}
		return resp, nil
	})
	if err != nil {
		return domain.WeatherObservation{}, fmt.Errorf("archive request: %w", err)
	}

	resp := result.(*http.Response)
	defer resp.Body.Close()

	var decoded archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.WeatherObservation{}, fmt.Errorf("decode archive response: %w", err)
	}

	if len(decoded.Hourly.Time) == 0 {
		return domain.WeatherObservation{}, errNoData
	}

	idx := nearestHourIndex(decoded.Hourly.Time, at.UTC())

	obs := domain.WeatherObservation{}
	if idx < len(decoded.Hourly.Temperature2m) {
		obs.Temperature = decoded.Hourly.Temperature2m[idx]
	}
	if idx < len(decoded.Hourly.WindSpeed10m) && decoded.Hourly.WindSpeed10m[idx] != nil {
		// API reports km/h; the port contract is m/s.
		ms := *decoded.Hourly.WindSpeed10m[idx] / 3.6
		obs.WindSpeed = &ms
	}
	if idx < len(decoded.Hourly.WindDirection10m) {
		obs.WindDirection = decoded.Hourly.WindDirection10m[idx]
	}

	return obs, nil
}

// nearestHourIndex picks the hourly slot closest to the target time.
// Slots that fail to parse are skipped.
func nearestHourIndex(times []string, target time.Time) int {
	best := 0
	bestDiff := time.Duration(1<<63 - 1)

	for i, raw := range times {
		ts, err := time.Parse("2006-01-02T15:04", raw)
		if err != nil {
			continue
		}
		diff := target.Sub(ts.UTC())
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			bestDiff = diff
			best = i
		}
	}

	return best
}
