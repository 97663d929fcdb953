package ports

import (
	"context"

	"github.com/ItaiMaoz/wnwd/internal/domain"
)

// Port: classify a free-text delay reason as weather-related or not.
// Calls are independent; implementations keep no cross-call state and
// never retry for confidence reasons (that policy belongs to the
// orchestrator's confidence gate).
type DelayClassifier interface {
	Classify(ctx context.Context, reason string) (domain.DelayClassification, error)
}
