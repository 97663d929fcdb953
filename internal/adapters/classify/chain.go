package classify

import (
	"context"
	"log"

	"github.com/ItaiMaoz/wnwd/internal/domain"
	"github.com/ItaiMaoz/wnwd/internal/ports"
)

// FallbackClassifier composes a primary and a fallback strategy behind
// the single Classify contract. Callers cannot tell whether fallback
// occurred; any primary failure (transport, parse, validation, refusal)
// delegates to the fallback instead of failing the analysis.
type FallbackClassifier struct {
	primary  ports.DelayClassifier
	fallback ports.DelayClassifier
}

func NewFallbackClassifier(primary, fallback ports.DelayClassifier) *FallbackClassifier {
	return &FallbackClassifier{primary: primary, fallback: fallback}
}

func (f *FallbackClassifier) Classify(ctx context.Context, reason string) (domain.DelayClassification, error) {
	verdict, err := f.primary.Classify(ctx, reason)
	if err == nil {
		return verdict, nil
	}

	log.Printf("op=classify.fallback err=%v", err)
	return f.fallback.Classify(ctx, reason)
}
