package interfaces

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	analyticsapp "evcharge-manager/internal/analytics/application"
	analytics "evcharge-manager/internal/analytics/domain"
	"evcharge-manager/internal/observability/metrics"
)

// ReportHandler serves downloadable yearly reports.
type ReportHandler struct {
	projection *analyticsapp.ProjectionService
}

// NewReportHandler constructs a handler.
func NewReportHandler(projection *analyticsapp.ProjectionService) (*ReportHandler, error) {
	if projection == nil {
		return nil, errors.New("report handler: nil projection service")
	}
	return &ReportHandler{projection: projection}, nil
}

// ServeHTTP handles GET /api/v1/reports/monthly.{xlsx,pdf}.
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var format string
	switch r.URL.Path {
	case "/api/v1/reports/monthly.xlsx":
		format = "xlsx"
	case "/api/v1/reports/monthly.pdf":
		format = "pdf"
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	year := r.URL.Query().Get("year")
	if year == "" {
		year = strconv.Itoa(time.Now().Year())
	}

	start := time.Now()
	result, err := h.projection.Derived(r.Context())
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	months := analytics.SummarizeByMonth(result.Derived, year)

	var payload []byte
	var contentType string
	switch format {
	case "xlsx":
		payload, err = BuildYearReportXLSX(year, months, result.Derived)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		payload, err = BuildYearReportPDF(year, months, result.Derived)
		contentType = "application/pdf"
	}
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	metrics.ObserveExport(format, metrics.ResultSuccess, time.Since(start))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=ev-charge-report-%s.%s", year, format))
	_, _ = w.Write(payload)
}
