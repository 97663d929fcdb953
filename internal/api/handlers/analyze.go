package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/ItaiMaoz/wnwd/internal/adapters/events"
	"github.com/ItaiMaoz/wnwd/internal/api/dto"
	"github.com/ItaiMaoz/wnwd/internal/domain"
	"github.com/ItaiMaoz/wnwd/internal/platform/obs"
	"github.com/ItaiMaoz/wnwd/internal/ports"
	"github.com/ItaiMaoz/wnwd/internal/services"
)

type AnalyzeHandler struct {
	Analyzer *services.Analyzer

	// Publisher is optional; when nil no completion event is emitted.
	Publisher ports.Publisher
}

// Analyze runs one weather-delay analysis pass over the submitted
// shipment ids and returns the full report.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.AnalyzeRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	ids := make([]string, 0, len(req.ShipmentIDs))
	for _, id := range req.ShipmentIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	if len(ids) == 0 {
		writeError(w, r, http.StatusBadRequest, "shipment_ids must contain at least one id")
		return
	}

	ctx := r.Context()
	report, err := h.Analyzer.Analyze(ctx, ids)
	if err != nil {
		log.Printf("analysis failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	runID := obs.RunID(ctx)
	h.publishCompletion(r, runID, ids, report)

	writeJSON(w, r, http.StatusOK, dto.FromReport(runID, report))
}

func (h *AnalyzeHandler) publishCompletion(r *http.Request, runID string, ids []string, report *domain.AnalysisReport) {
	if h.Publisher == nil {
		return
	}

	event := events.NewAnalysisCompleted(runID, ids, *report)
	if err := h.Publisher.Publish(r.Context(), runID, event); err != nil {
		// Event delivery is best-effort; the report already succeeded.
		log.Printf("publish completion event failed: %v", err)
	}
}
