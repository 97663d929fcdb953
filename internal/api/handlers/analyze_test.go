package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ItaiMaoz/wnwd/internal/domain"
	"github.com/ItaiMaoz/wnwd/internal/ports"
	"github.com/ItaiMaoz/wnwd/internal/services"
)

type stubShipments struct{ data map[string]domain.Shipment }

func (s *stubShipments) GetByID(_ context.Context, id string) ports.Result[domain.Shipment] {
	if sh, ok := s.data[id]; ok {
		return ports.Found(sh)
	}
	return ports.NotFound[domain.Shipment]()
}

type stubTracking struct{}

func (stubTracking) GetByContainer(context.Context, string) ports.Result[domain.Tracking] {
	return ports.NotFound[domain.Tracking]()
}

type stubWeather struct{}

func (stubWeather) GetWeather(context.Context, float64, float64, time.Time) domain.WeatherOutcome {
	return domain.WeatherUnavailable(nil)
}

type stubClassifier struct{}

func (stubClassifier) Classify(context.Context, string) (domain.DelayClassification, error) {
	return domain.DelayClassification{IsWeatherRelated: false, Confidence: 1}, nil
}

type capturingPublisher struct {
	keys []string
}

func (p *capturingPublisher) Publish(_ context.Context, key string, _ any) error {
	p.keys = append(p.keys, key)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func newTestHandler(t *testing.T, pub ports.Publisher) *AnalyzeHandler {
	t.Helper()

	shipments := &stubShipments{data: map[string]domain.Shipment{
		"SHP-1": {
			ShipmentID:   "SHP-1",
			CustomerName: "Acme",
			ShipperName:  "Oceanic",
			Containers:   []domain.Container{{ContainerNumber: "C1"}},
		},
	}}

	analyzer, err := services.NewAnalyzer(shipments, stubTracking{}, stubWeather{}, stubClassifier{}, 10)
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	return &AnalyzeHandler{Analyzer: analyzer, Publisher: pub}
}

func TestAnalyzeRejectsNonPost(t *testing.T) {
	h := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/analyze", nil)
	rec := httptest.NewRecorder()
	h.Analyze(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if got := rec.Header().Get("Allow"); got != http.MethodPost {
		t.Fatalf("Allow = %q, want POST", got)
	}
}

func TestAnalyzeRejectsEmptyIDList(t *testing.T) {
	h := newTestHandler(t, nil)

	body := strings.NewReader(`{"shipment_ids": ["  ", ""]}`)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	rec := httptest.NewRecorder()
	h.Analyze(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAnalyzeRejectsUnknownFields(t *testing.T) {
	h := newTestHandler(t, nil)

	body := strings.NewReader(`{"shipment_ids": ["SHP-1"], "extra": true}`)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	rec := httptest.NewRecorder()
	h.Analyze(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAnalyzeReturnsReportAndPublishes(t *testing.T) {
	pub := &capturingPublisher{}
	h := newTestHandler(t, pub)

	body := strings.NewReader(`{"shipment_ids": ["SHP-1", "SHP-404"]}`)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	rec := httptest.NewRecorder()
	h.Analyze(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res struct {
		Records []struct {
			ShipmentID string `json:"shipment_id"`
		} `json:"records"`
		Errors []struct {
			ErrorType string `json:"error_type"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	// SHP-1 resolves to one container record; SHP-404 yields a
	// placeholder record plus a not-found error.
	if len(res.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(res.Records))
	}
	if res.Records[0].ShipmentID != "SHP-1" || res.Records[1].ShipmentID != "SHP-404" {
		t.Fatalf("record order = %q/%q", res.Records[0].ShipmentID, res.Records[1].ShipmentID)
	}
	if len(res.Errors) != 1 || res.Errors[0].ErrorType != "SHIPMENT_NOT_FOUND" {
		t.Fatalf("errors = %+v", res.Errors)
	}

	if len(pub.keys) != 1 {
		t.Fatalf("published events = %d, want 1", len(pub.keys))
	}
}
