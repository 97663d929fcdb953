package ports

import (
	"context"
	"time"

	"github.com/ItaiMaoz/wnwd/internal/domain"
)

// Port: historical weather lookups for a point in time and space.
//
// Implementations own their retry discipline and fold every failure
// mode into the returned outcome union. They must short-circuit
// future-dated timestamps to NO_DATA_AVAILABLE without a network call
// (date-only comparison) and convert wind speed to m/s at this
// boundary.
type WeatherSource interface {
	GetWeather(ctx context.Context, lat, lon float64, at time.Time) domain.WeatherOutcome
}
