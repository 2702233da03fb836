package api

import (
	"bytes"
	"net/http"

	"github.com/okian/doorlog/internal/report"
)

// ReportHandler runs segmentation over the persisted telemetry.
type ReportHandler struct {
	records RecordsProvider
}

// NewReportHandler creates a new report handler.
func NewReportHandler(records RecordsProvider) *ReportHandler {
	return &ReportHandler{records: records}
}

// HandleReport handles GET /report?format=text|json|yaml requests.
func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_report"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	records, err := h.records.Records(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", wrapKind(op, ErrInternal, err))
		return
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, report.Build(records), format); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", wrapKind(op, ErrInternal, err))
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
