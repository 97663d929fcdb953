// Package config loads application settings from the environment, with
// an optional .env file for local runs.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/ItaiMaoz/wnwd/internal/retry"
)

type AppConfig struct {
	Port string `validate:"required"`

	// Upstream HTTP backends. The shipment and tracking APIs are the
	// default sources; DatabaseURL switches both to Postgres when set.
	ShipmentAPIBaseURL string `validate:"required_without=DatabaseURL"`
	ShipmentAPIKey     string
	TrackingAPIBaseURL string `validate:"required_without=DatabaseURL"`
	TrackingAPIKey     string
	DatabaseURL        string

	WeatherBaseURL string
	RedisAddr      string

	// LLM classifier; when the key is empty the heuristic classifier
	// runs alone.
	LLMBaseURL   string
	LLMAPIKey    string
	LLMModel     string
	LLMMaxTokens int `validate:"gt=0"`

	KafkaBroker string
	KafkaTopic  string `validate:"required_with=KafkaBroker"`

	BatchSize int `validate:"min=1,max=50"`

	MaxRetries   int     `validate:"gte=0"`
	BaseDelayMS  int     `validate:"gt=0"`
	MaxDelayMS   int     `validate:"gt=0"`
	JitterFactor float64 `validate:"gte=0,lte=1"`
}

// RetryPolicy converts the raw delay settings into a retry policy.
func (c AppConfig) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxRetries:   c.MaxRetries,
		BaseDelay:    time.Duration(c.BaseDelayMS) * time.Millisecond,
		MaxDelay:     time.Duration(c.MaxDelayMS) * time.Millisecond,
		JitterFactor: c.JitterFactor,
	}
}

// Load reads the environment (and .env, when present) into a validated
// AppConfig.
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg := AppConfig{
		Port:               Get("PORT", "8080"),
		ShipmentAPIBaseURL: os.Getenv("SHIPMENT_API_BASE_URL"),
		ShipmentAPIKey:     os.Getenv("SHIPMENT_API_KEY"),
		TrackingAPIBaseURL: os.Getenv("TRACKING_API_BASE_URL"),
		TrackingAPIKey:     os.Getenv("TRACKING_API_KEY"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		WeatherBaseURL:     os.Getenv("WEATHER_BASE_URL"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		LLMBaseURL:         Get("LLM_BASE_URL", "https://api.openai.com"),
		LLMAPIKey:          os.Getenv("LLM_API_KEY"),
		LLMModel:           Get("LLM_MODEL", "gpt-4o-mini"),
		KafkaBroker:        os.Getenv("KAFKA_BROKER"),
		KafkaTopic:         os.Getenv("KAFKA_TOPIC"),
	}

	var err error
	if cfg.LLMMaxTokens, err = getInt("LLM_MAX_TOKENS", 500); err != nil {
		return AppConfig{}, err
	}
	if cfg.BatchSize, err = getInt("BATCH_SIZE", 10); err != nil {
		return AppConfig{}, err
	}
	if cfg.MaxRetries, err = getInt("MAX_RETRIES", 2); err != nil {
		return AppConfig{}, err
	}
	if cfg.BaseDelayMS, err = getInt("BASE_DELAY_MS", 1000); err != nil {
		return AppConfig{}, err
	}
	if cfg.MaxDelayMS, err = getInt("MAX_DELAY_MS", 10000); err != nil {
		return AppConfig{}, err
	}
	if cfg.JitterFactor, err = getFloat("JITTER_FACTOR", 0.2); err != nil {
		return AppConfig{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return AppConfig{}, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("load config: %s=%q is not an integer: %w", key, raw, err)
	}
	return v, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("load config: %s=%q is not a number: %w", key, raw, err)
	}
	return v, nil
}
