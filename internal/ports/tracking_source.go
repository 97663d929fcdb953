package ports

import (
	"context"

	"github.com/ItaiMaoz/wnwd/internal/domain"
)

// Port: a boundary for retrieving container tracking state from the
// tracking system, keyed by container number.
type TrackingSource interface {
	// Look up tracking state for one container.
	GetByContainer(ctx context.Context, containerNumber string) Result[domain.Tracking]
}
