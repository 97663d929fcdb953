package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/ItaiMaoz/wnwd/internal/domain"
	"github.com/ItaiMaoz/wnwd/internal/platform/obs"
	"github.com/ItaiMaoz/wnwd/internal/ports"
)

// confidenceThreshold gates classifier verdicts: below it, a reason is
// re-classified exactly once, then discarded from the weather
// determination entirely.
const confidenceThreshold = 0.8

const (
	minBatchSize = 1
	maxBatchSize = 50
)

// Analyzer drives the per-shipment, per-container analysis pipeline:
// fetch shipment, fan out containers, fetch tracking, classify delay
// reasons under the confidence gate, and conditionally enrich with
// historical weather. A failure in any stage degrades to a recorded
// AnalysisError plus a best-effort record; it never aborts siblings or
// the batch.
type Analyzer struct {
	shipments  ports.ShipmentSource
	tracking   ports.TrackingSource
	weather    ports.WeatherSource
	classifier ports.DelayClassifier
	batchSize  int
	now        func() time.Time
}

// NewAnalyzer wires the four collaborators. batchSize bounds the number
// of shipment-level tasks running at once and must be within [1, 50].
func NewAnalyzer(
	shipments ports.ShipmentSource,
	tracking ports.TrackingSource,
	weather ports.WeatherSource,
	classifier ports.DelayClassifier,
	batchSize int,
) (*Analyzer, error) {
	if shipments == nil || tracking == nil || weather == nil || classifier == nil {
		return nil, fmt.Errorf("new analyzer: all collaborators must be non-nil")
	}
	if batchSize < minBatchSize || batchSize > maxBatchSize {
		return nil, fmt.Errorf("new analyzer: batch size %d out of range [%d, %d]", batchSize, minBatchSize, maxBatchSize)
	}

	return &Analyzer{
		shipments:  shipments,
		tracking:   tracking,
		weather:    weather,
		classifier: classifier,
		batchSize:  batchSize,
		now:        time.Now,
	}, nil
}

type shipmentOutcome struct {
	records []domain.AnalysisRecord
	errors  []domain.AnalysisError
}

type containerOutcome struct {
	record domain.AnalysisRecord
	errors []domain.AnalysisError
}

// Analyze runs one analysis pass over the given shipment identifiers.
//
// Input IDs are processed in fixed-size chunks; chunks run
// sequentially, IDs within a chunk run concurrently. Every input ID is
// accounted for: an unresolved shipment yields exactly one placeholder
// record, a resolved one yields one record per container. Business
// failures surface through the report, never through the error return,
// which only reports context cancellation.
func (a *Analyzer) Analyze(ctx context.Context, shipmentIDs []string) (_ *domain.AnalysisReport, err error) {
	defer obs.Time(ctx, "analysis.Analyze")(&err)

	report := &domain.AnalysisReport{
		Records: []domain.AnalysisRecord{},
		Errors:  []domain.AnalysisError{},
	}

	for start := 0; start < len(shipmentIDs); start += a.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + a.batchSize
		if end > len(shipmentIDs) {
			end = len(shipmentIDs)
		}
		chunk := shipmentIDs[start:end]

		// Indexed slots keep output order tied to input order no matter
		// how task completion interleaves.
		outcomes := make([]shipmentOutcome, len(chunk))
		var wg sync.WaitGroup
		for i, id := range chunk {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						outcomes[i] = shipmentOutcome{errors: []domain.AnalysisError{{
							ContainerNumber: domain.UnknownContainer,
							ErrorType:       domain.ErrShipmentFetch,
							Message:         fmt.Sprintf("shipment %s: unexpected failure: %v", id, r),
						}}}
					}
				}()
				outcomes[i] = a.analyzeShipment(ctx, id)
			}(i, id)
		}
		wg.Wait()

		for _, out := range outcomes {
			report.Records = append(report.Records, out.records...)
			report.Errors = append(report.Errors, out.errors...)
		}
	}

	attachErrorSummaries(report.Records, report.Errors)

	return report, nil
}

// analyzeShipment resolves one shipment and fans out over its containers.
func (a *Analyzer) analyzeShipment(ctx context.Context, shipmentID string) shipmentOutcome {
	res := a.shipments.GetByID(ctx, shipmentID)

	switch res.State() {
	case ports.LookupNotFound:
		return a.placeholder(shipmentID, domain.ErrShipmentNotFound,
			fmt.Sprintf("shipment %s not found", shipmentID))
	case ports.LookupFailed:
		return a.placeholder(shipmentID, domain.ErrShipmentFetch,
			fmt.Sprintf("fetch shipment %s: %v", shipmentID, res.Err()))
	}

	shipment := res.Value()

	outcomes := make([]containerOutcome, len(shipment.Containers))
	var wg sync.WaitGroup
	for i, c := range shipment.Containers {
		wg.Add(1)
		go func(i int, c domain.Container) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = containerOutcome{
						record: a.baseRecord(shipment, c.ContainerNumber),
						errors: []domain.AnalysisError{{
							ContainerNumber: c.ContainerNumber,
							ErrorType:       domain.ErrTrackingFetch,
							Message:         fmt.Sprintf("container %s: unexpected failure: %v", c.ContainerNumber, r),
						}},
					}
				}
			}()
			outcomes[i] = a.analyzeContainer(ctx, shipment, c)
		}(i, c)
	}
	wg.Wait()

	out := shipmentOutcome{records: make([]domain.AnalysisRecord, 0, len(outcomes))}
	for _, co := range outcomes {
		out.records = append(out.records, co.record)
		out.errors = append(out.errors, co.errors...)
	}
	return out
}

// analyzeContainer joins tracking data onto one container record and
// applies the delay-classification and weather-enrichment policies.
func (a *Analyzer) analyzeContainer(ctx context.Context, shipment domain.Shipment, c domain.Container) containerOutcome {
	out := containerOutcome{record: a.baseRecord(shipment, c.ContainerNumber)}

	res := a.tracking.GetByContainer(ctx, c.ContainerNumber)
	switch res.State() {
	case ports.LookupFailed:
		// Keep the base record: shipment-level fields only.
		out.errors = append(out.errors, domain.AnalysisError{
			ContainerNumber: c.ContainerNumber,
			ErrorType:       domain.ErrTrackingFetch,
			Message:         fmt.Sprintf("fetch tracking for container %s: %v", c.ContainerNumber, res.Err()),
		})
		return out
	case ports.LookupNotFound:
		// Not found is an expected outcome, not an error.
		return out
	}

	tracking := res.Value()
	eta := tracking.EstimatedArrival
	out.record.SCAC = tracking.SCAC
	out.record.EstimatedArrival = &eta
	out.record.ActualArrival = tracking.ActualArrival
	out.record.DelayReasons = strings.Join(tracking.DelayReasons, "; ")

	if len(tracking.DelayReasons) == 0 {
		return out
	}

	weatherRelated, gateErrs := a.classifyDelayReasons(ctx, c.ContainerNumber, tracking.DelayReasons)
	out.errors = append(out.errors, gateErrs...)
	if !weatherRelated {
		return out
	}

	a.enrichWithWeather(ctx, &out, tracking)
	return out
}

// classifyDelayReasons walks the reasons in source order under the
// confidence gate. The container has a weather-related delay the moment
// any reason yields an accepted true verdict; remaining reasons are not
// classified. A reason still below threshold after the single gated
// retry is excluded from the determination altogether.
func (a *Analyzer) classifyDelayReasons(ctx context.Context, containerNumber string, reasons []string) (bool, []domain.AnalysisError) {
	var errs []domain.AnalysisError

	for _, reason := range reasons {
		verdict, accepted := a.classifyWithGate(ctx, reason)
		if !accepted {
			errs = append(errs, domain.AnalysisError{
				ContainerNumber: containerNumber,
				ErrorType:       domain.ErrDelayAnalysisLowConfidence,
				Message: fmt.Sprintf("delay reason %q discarded: confidence %.2f below %.2f after retry",
					reason, verdict.Confidence, confidenceThreshold),
			})
			continue
		}
		if verdict.IsWeatherRelated {
			return true, errs
		}
	}

	return false, errs
}

// classifyWithGate classifies one reason at most twice and reports
// whether the final verdict met the confidence threshold. A classifier
// failure counts as a zero-confidence verdict so it flows through the
// same retry-then-discard policy.
func (a *Analyzer) classifyWithGate(ctx context.Context, reason string) (domain.DelayClassification, bool) {
	verdict := a.classifyOnce(ctx, reason)
	if verdict.Confidence >= confidenceThreshold {
		return verdict, true
	}

	verdict = a.classifyOnce(ctx, reason)
	return verdict, verdict.Confidence >= confidenceThreshold
}

func (a *Analyzer) classifyOnce(ctx context.Context, reason string) domain.DelayClassification {
	verdict, err := a.classifier.Classify(ctx, reason)
	if err != nil {
		return domain.DelayClassification{Reasoning: fmt.Sprintf("classification failed: %v", err)}
	}
	return verdict
}

// enrichWithWeather populates the weather status and measurements for a
// record whose container was determined to have a weather-related
// delay. Missing port or arrival short-circuits to NO_DATA_AVAILABLE
// with no network call and no error entry.
func (a *Analyzer) enrichWithWeather(ctx context.Context, out *containerOutcome, tracking domain.Tracking) {
	if tracking.DestinationPort == nil || tracking.ActualArrival == nil {
		status := domain.WeatherNoData
		out.record.WeatherFetchStatus = &status
		return
	}

	outcome := a.weather.GetWeather(ctx,
		tracking.DestinationPort.Latitude,
		tracking.DestinationPort.Longitude,
		*tracking.ActualArrival,
	)

	status := outcome.Status
	out.record.WeatherFetchStatus = &status

	switch outcome.Status {
	case domain.WeatherSuccess:
		out.record.TemperatureC = roundTenth(outcome.Temperature)
		out.record.WindSpeedMS = roundTenth(outcome.WindSpeed)
	case domain.WeatherRetryExhausted, domain.WeatherFatalError:
		out.errors = append(out.errors, domain.AnalysisError{
			ContainerNumber: out.record.ContainerNumber,
			ErrorType:       domain.ErrWeatherFetch,
			Message:         fmt.Sprintf("fetch weather for container %s: %v", out.record.ContainerNumber, outcome.Err),
		})
	}
}

func (a *Analyzer) baseRecord(shipment domain.Shipment, containerNumber string) domain.AnalysisRecord {
	return domain.AnalysisRecord{
		ShipmentID:      shipment.ShipmentID,
		CustomerName:    shipment.CustomerName,
		ShipperName:     shipment.ShipperName,
		ContainerNumber: containerNumber,
		LastUpdated:     a.now(),
	}
}

// placeholder accounts for a shipment that never resolved: one record
// with empty business fields plus one typed error keyed by the
// shipment id.
func (a *Analyzer) placeholder(shipmentID string, errType domain.ErrorType, msg string) shipmentOutcome {
	return shipmentOutcome{
		records: []domain.AnalysisRecord{{
			ShipmentID:  shipmentID,
			LastUpdated: a.now(),
		}},
		errors: []domain.AnalysisError{{
			ContainerNumber: shipmentID,
			ErrorType:       errType,
			Message:         msg,
		}},
	}
}

// roundTenth rounds to one decimal place, preserving absence.
func roundTenth(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v*10) / 10
	return &r
}
