// Package classify provides the delay-reason classification strategies:
// a deterministic keyword heuristic, an LLM-backed classifier, and a
// fallback chain composing the two behind one contract.
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/ItaiMaoz/wnwd/internal/domain"
)

// Fixed vocabulary of weather-indicative terms. Substring match, so
// "windy", "rainfall" and "storms" all hit.
var weatherTerms = []string{
	"fog", "storm", "wind", "rain", "snow", "ice", "hail", "sleet",
	"wave", "swell", "hurricane", "typhoon", "cyclone", "gale",
	"blizzard", "monsoon", "squall", "lightning", "thunder", "flood",
	"frost", "mist", "visibility", "precipitation", "meteorological",
	"atmospheric", "weather",
}

// Fixed confidence constants per outcome: a keyword hit is suggestive
// but not certain; a clean miss over the whole vocabulary is stronger
// evidence of a non-weather cause.
const (
	matchedConfidence   = 0.7
	unmatchedConfidence = 0.9
)

// HeuristicClassifier is the deterministic, dependency-free strategy:
// case-insensitive substring match against the fixed vocabulary.
type HeuristicClassifier struct{}

func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

func (h *HeuristicClassifier) Classify(_ context.Context, reason string) (domain.DelayClassification, error) {
	lower := strings.ToLower(reason)

	for _, term := range weatherTerms {
		if strings.Contains(lower, term) {
			return domain.DelayClassification{
				IsWeatherRelated: true,
				Reasoning:        fmt.Sprintf("matched weather term %q", term),
				Confidence:       matchedConfidence,
			}, nil
		}
	}

	return domain.DelayClassification{
		IsWeatherRelated: false,
		Reasoning:        "no weather-indicative terms found",
		Confidence:       unmatchedConfidence,
	}, nil
}
