// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/doorlog/internal/app"
	"github.com/okian/doorlog/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the monitor implementation.
type Dependencies interface {
	StatusProvider
	RecordsProvider
	TargetSetter
}

// Snapshot mirrors the display state returned by GET /status.
type Snapshot = service.Snapshot

// StatusProvider exposes the live display state.
type StatusProvider interface {
	Snapshot(ctx context.Context) Snapshot
}

// RecordsProvider exposes persisted telemetry.
type RecordsProvider interface {
	Records(ctx context.Context) ([]model.TelemetryRecord, error)
}

// TargetSetter selects the sensor target preset.
type TargetSetter interface {
	SetTarget(indicator string) error
	Indicator() string
}

// Server wires HTTP routes for the monitor API.
type Server struct {
	healthHandler    *HealthHandler
	statusHandler    *StatusHandler
	reportHandler    *ReportHandler
	targetHandler    *TargetHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statusHandler:    NewStatusHandler(deps),
		reportHandler:    NewReportHandler(deps),
		targetHandler:    NewTargetHandler(deps),
		dashboardHandler: newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/status", MetricsMiddleware(s.statusHandler.HandleStatus, "status"))
	mux.HandleFunc("/report", MetricsMiddleware(s.reportHandler.HandleReport, "report"))
	mux.HandleFunc("/target", MetricsMiddleware(s.targetHandler.HandleTarget, "target"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
