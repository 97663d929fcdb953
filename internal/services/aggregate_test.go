package services

import (
	"testing"

	"github.com/ItaiMaoz/wnwd/internal/domain"
)

func TestAttachErrorSummaries(t *testing.T) {
	records := []domain.AnalysisRecord{
		{ShipmentID: "S1", ContainerNumber: "C1"},
		{ShipmentID: "S1", ContainerNumber: "C2"},
		{ShipmentID: "S2"}, // placeholder, keyed by shipment id
	}
	errs := []domain.AnalysisError{
		{ContainerNumber: "C1", ErrorType: domain.ErrTrackingFetch, Message: "tracking down"},
		{ContainerNumber: "C1", ErrorType: domain.ErrWeatherFetch, Message: "weather down"},
		{ContainerNumber: "S2", ErrorType: domain.ErrShipmentNotFound, Message: "shipment S2 not found"},
	}

	attachErrorSummaries(records, errs)

	if records[0].Error != "tracking down; weather down" {
		t.Fatalf("record C1 error = %q, want joined messages in order", records[0].Error)
	}
	if records[1].Error != "" {
		t.Fatalf("record C2 error = %q, want absent", records[1].Error)
	}
	if records[2].Error != "shipment S2 not found" {
		t.Fatalf("placeholder error = %q, want shipment-keyed match", records[2].Error)
	}
}

func TestAttachErrorSummariesNoErrors(t *testing.T) {
	records := []domain.AnalysisRecord{{ShipmentID: "S1", ContainerNumber: "C1"}}
	attachErrorSummaries(records, nil)
	if records[0].Error != "" {
		t.Fatalf("error = %q, want untouched", records[0].Error)
	}
}
