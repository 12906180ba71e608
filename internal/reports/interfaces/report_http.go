package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"

	"trade-ledger/internal/reports/application"
)

// ReportHandler serves profit and loss reports.
type ReportHandler struct {
	service *application.ProfitLossService
}

// NewReportHandler constructs a handler.
func NewReportHandler(service *application.ProfitLossService) (*ReportHandler, error) {
	if service == nil {
		return nil, errors.New("report handler: nil service")
	}
	return &ReportHandler{service: service}, nil
}

// ServeHTTP handles GET /api/v1/reports/profit-loss.
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	report, err := h.service.Build(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}
