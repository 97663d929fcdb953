package api

import (
	"net/http"

	"github.com/ItaiMaoz/wnwd/internal/api/handlers"
	"github.com/ItaiMaoz/wnwd/internal/ports"
	"github.com/ItaiMaoz/wnwd/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(analyzer *services.Analyzer, publisher ports.Publisher) http.Handler {
	mux := http.NewServeMux()

	analyzeHandler := &handlers.AnalyzeHandler{
		Analyzer:  analyzer,
		Publisher: publisher,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/analyze", analyzeHandler.Analyze)

	// Run id is stamped first so the request log line carries it.
	return runIDMiddleware(loggingMiddleware(mux))
}
