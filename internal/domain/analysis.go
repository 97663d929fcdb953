package domain

import "time"

// ErrorType classifies a non-fatal failure captured during analysis.
type ErrorType string

const (
	ErrShipmentNotFound           ErrorType = "SHIPMENT_NOT_FOUND"
	ErrShipmentFetch              ErrorType = "SHIPMENT_FETCH_ERROR"
	ErrTrackingFetch              ErrorType = "TRACKING_FETCH_ERROR"
	ErrDelayAnalysisLowConfidence ErrorType = "DELAY_ANALYSIS_LOW_CONFIDENCE"
	ErrWeatherFetch               ErrorType = "WEATHER_FETCH_ERROR"
)

// UnknownContainer keys error entries for failures that escaped a
// concurrent task before any container was resolved.
const UnknownContainer = "unknown"

// AnalysisError is one captured failure. ContainerNumber falls back to
// the shipment id when the failure precedes container resolution.
// The list is append-only; position does not correlate with records.
type AnalysisError struct {
	ContainerNumber string    `json:"container_number"`
	ErrorType       ErrorType `json:"error_type"`
	Message         string    `json:"message"`
}

// AnalysisRecord is the final per-(shipment, container) output unit, or
// a placeholder with empty business fields when the shipment itself
// could not be resolved. Created once per pass and never mutated after
// emission, except for the error-summary enrichment step.
//
// Weather fields are pointers so "absent" (not applicable) stays
// distinct from an explicit zero or NO_DATA_AVAILABLE status.
type AnalysisRecord struct {
	ShipmentID      string `json:"shipment_id"`
	CustomerName    string `json:"customer_name"`
	ShipperName     string `json:"shipper_name"`
	ContainerNumber string `json:"container_number"`

	SCAC             string     `json:"scac,omitempty"`
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty"`
	ActualArrival    *time.Time `json:"actual_arrival,omitempty"`
	DelayReasons     string     `json:"delay_reasons,omitempty"`

	WeatherFetchStatus *WeatherStatus `json:"weather_fetch_status,omitempty"`
	TemperatureC       *float64       `json:"temperature_c,omitempty"`
	WindSpeedMS        *float64       `json:"wind_speed_ms,omitempty"`

	LastUpdated time.Time `json:"last_updated"`
	Error       string    `json:"error,omitempty"`
}

// AnalysisReport is the complete, always-well-formed result of one
// analysis pass. Business-level failures are reported through Errors
// and each record's own Error field, never as a failed call.
type AnalysisReport struct {
	Records []AnalysisRecord `json:"records"`
	Errors  []AnalysisError  `json:"errors"`
}
