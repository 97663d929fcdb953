package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ItaiMaoz/wnwd/internal/adapters/cache"
	"github.com/ItaiMaoz/wnwd/internal/adapters/classify"
	"github.com/ItaiMaoz/wnwd/internal/adapters/events"
	"github.com/ItaiMaoz/wnwd/internal/adapters/repositories"
	"github.com/ItaiMaoz/wnwd/internal/adapters/sources"
	"github.com/ItaiMaoz/wnwd/internal/adapters/weather"
	"github.com/ItaiMaoz/wnwd/internal/api"
	"github.com/ItaiMaoz/wnwd/internal/config"
	"github.com/ItaiMaoz/wnwd/internal/platform/db"
	"github.com/ItaiMaoz/wnwd/internal/ports"
	"github.com/ItaiMaoz/wnwd/internal/retry"
	"github.com/ItaiMaoz/wnwd/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (HTTP sources or Postgres, Open-Meteo,
// LLM or heuristic classifier, Redis, Kafka) behind ports and starts
// the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	policy := cfg.RetryPolicy()

	shipments, tracking, cleanup, err := buildSources(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	classifier := buildClassifier(cfg)
	weatherSource := buildWeather(cfg, policy)

	analyzer, err := services.NewAnalyzer(shipments, tracking, weatherSource, classifier, cfg.BatchSize)
	if err != nil {
		log.Fatal(err)
	}

	var publisher ports.Publisher
	if strings.TrimSpace(cfg.KafkaBroker) != "" {
		kp := events.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		log.Printf("Kafka publisher enabled broker=%s topic=%s", cfg.KafkaBroker, cfg.KafkaTopic)
	}

	router := api.NewRouter(analyzer, publisher)

	// Write timeout covers worst-case runs: 50 shipments with retried
	// upstream calls.
	log.Printf("Server listening addr=:%s", cfg.Port)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      300 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// buildSources picks Postgres-backed sources when DATABASE_URL is set,
// the upstream HTTP APIs otherwise.
func buildSources(ctx context.Context, cfg config.AppConfig) (ports.ShipmentSource, ports.TrackingSource, func(), error) {
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		pool, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Println("Using Postgres shipment and tracking sources")
		return repositories.NewPostgresShipmentSource(pool),
			repositories.NewPostgresTrackingSource(pool),
			func() { pool.Close() },
			nil
	}

	policy := cfg.RetryPolicy()
	shipments, err := sources.NewShipmentAPIClient(cfg.ShipmentAPIBaseURL, cfg.ShipmentAPIKey, policy)
	if err != nil {
		return nil, nil, nil, err
	}
	tracking, err := sources.NewTrackingAPIClient(cfg.TrackingAPIBaseURL, cfg.TrackingAPIKey, policy)
	if err != nil {
		return nil, nil, nil, err
	}
	return shipments, tracking, func() {}, nil
}

// buildClassifier prefers the LLM with a heuristic fallback; without an
// API key the heuristic runs alone.
func buildClassifier(cfg config.AppConfig) ports.DelayClassifier {
	heuristic := classify.NewHeuristicClassifier()
	if strings.TrimSpace(cfg.LLMAPIKey) == "" {
		log.Println("LLM_API_KEY not set, using heuristic classifier only")
		return heuristic
	}

	llm, err := classify.NewLLMClassifier(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMMaxTokens)
	if err != nil {
		log.Printf("LLM classifier unavailable (%v), using heuristic classifier only", err)
		return heuristic
	}
	return classify.NewFallbackClassifier(llm, heuristic)
}

func buildWeather(cfg config.AppConfig, policy retry.Policy) *weather.OpenMeteoClient {
	var observations *cache.RedisObservationCache
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		observations = cache.NewRedisObservationCache(client)
		log.Printf("Weather observation cache enabled addr=%s", cfg.RedisAddr)
	}
	return weather.NewOpenMeteoClient(cfg.WeatherBaseURL, policy, observations)
}
