package dto

import (
	"time"

	"github.com/ItaiMaoz/wnwd/internal/domain"
)

type AnalyzeRequest struct {
	ShipmentIDs []string `json:"shipment_ids"`
}

type AnalysisErrorResponse struct {
	ContainerNumber string `json:"container_number"`
	ErrorType       string `json:"error_type"`
	Message         string `json:"message"`
}

type AnalysisRecordResponse struct {
	ShipmentID      string `json:"shipment_id"`
	CustomerName    string `json:"customer_name"`
	ShipperName     string `json:"shipper_name"`
	ContainerNumber string `json:"container_number"`

	SCAC             string     `json:"scac,omitempty"`
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty"`
	ActualArrival    *time.Time `json:"actual_arrival,omitempty"`
	DelayReasons     string     `json:"delay_reasons,omitempty"`

	WeatherFetchStatus string   `json:"weather_fetch_status,omitempty"`
	TemperatureC       *float64 `json:"temperature_c,omitempty"`
	WindSpeedMS        *float64 `json:"wind_speed_ms,omitempty"`

	LastUpdated time.Time `json:"last_updated"`
	Error       string    `json:"error,omitempty"`
}

type AnalyzeResponse struct {
	RunID   string                   `json:"run_id"`
	Records []AnalysisRecordResponse `json:"records"`
	Errors  []AnalysisErrorResponse  `json:"errors"`
}

// FromReport maps a finished analysis report onto the wire shape.
func FromReport(runID string, report *domain.AnalysisReport) AnalyzeResponse {
	res := AnalyzeResponse{
		RunID:   runID,
		Records: make([]AnalysisRecordResponse, 0, len(report.Records)),
		Errors:  make([]AnalysisErrorResponse, 0, len(report.Errors)),
	}

	for _, rec := range report.Records {
		out := AnalysisRecordResponse{
			ShipmentID:       rec.ShipmentID,
			CustomerName:     rec.CustomerName,
			ShipperName:      rec.ShipperName,
			ContainerNumber:  rec.ContainerNumber,
			SCAC:             rec.SCAC,
			EstimatedArrival: rec.EstimatedArrival,
			ActualArrival:    rec.ActualArrival,
			DelayReasons:     rec.DelayReasons,
			TemperatureC:     rec.TemperatureC,
			WindSpeedMS:      rec.WindSpeedMS,
			LastUpdated:      rec.LastUpdated,
			Error:            rec.Error,
		}
		if rec.WeatherFetchStatus != nil {
			out.WeatherFetchStatus = string(*rec.WeatherFetchStatus)
		}
		res.Records = append(res.Records, out)
	}

	for _, e := range report.Errors {
		res.Errors = append(res.Errors, AnalysisErrorResponse{
			ContainerNumber: e.ContainerNumber,
			ErrorType:       string(e.ErrorType),
			Message:         e.Message,
		})
	}

	return res
}
