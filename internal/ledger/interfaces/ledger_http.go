package interfaces

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"trade-ledger/internal/ledger/application"
	ledger "trade-ledger/internal/ledger/domain"
	"trade-ledger/internal/observability/metrics"
)

// XLSXBuilder renders ledger entries as a workbook.
type XLSXBuilder func(entries []ledger.Entry) ([]byte, error)

// LedgerHandler serves ledger listings, balances and entity summaries.
type LedgerHandler struct {
	service *application.Service
}

// NewLedgerHandler constructs a handler.
func NewLedgerHandler(service *application.Service) (*LedgerHandler, error) {
	if service == nil {
		return nil, errors.New("ledger handler: nil service")
	}
	return &LedgerHandler{service: service}, nil
}

// ServeHTTP handles ledger routes.
func (h *LedgerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/v1/ledger":
		h.handleList(w, r)
	case "/api/v1/entities":
		h.handleEntities(w, r)
	case "/api/v1/entities/balance":
		h.handleBalance(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *LedgerHandler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	entries, err := h.service.AllEntries(r.Context(), filter)
	if err != nil {
		http.Error(w, "list ledger error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

func (h *LedgerHandler) handleEntities(w http.ResponseWriter, r *http.Request) {
	entityType := ledger.EntityType(r.URL.Query().Get("entity_type"))
	summaries, err := h.service.EntitySummaries(r.Context(), entityType)
	if err != nil {
		http.Error(w, "list entities error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summaries)
}

func (h *LedgerHandler) handleBalance(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	due, advance, err := h.service.Balance(r.Context(), name)
	if err != nil {
		http.Error(w, "balance error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int64{"due": due, "advance": advance})
}

// ExportLedgerCSVHandler serves ledger CSV exports.
type ExportLedgerCSVHandler struct {
	service *application.Service
}

// NewExportLedgerCSVHandler constructs a handler.
func NewExportLedgerCSVHandler(service *application.Service) *ExportLedgerCSVHandler {
	return &ExportLedgerCSVHandler{service: service}
}

// ServeHTTP handles GET /api/v1/exports/ledger.csv.
func (h *ExportLedgerCSVHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("csv", result, time.Since(start))
	}()

	filter, err := filterFromQuery(r)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	entries, err := h.service.AllEntries(r.Context(), filter)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "list ledger error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"date",
		"entity_name",
		"entity_type",
		"kind",
		"description",
		"amount",
		"payment_amount",
		"payment_mode",
		"balance",
	})
	for _, entry := range entries {
		_ = writer.Write([]string{
			entry.Date,
			entry.EntityName,
			string(entry.EntityType),
			string(entry.Kind),
			entry.Description,
			strconv.FormatInt(entry.Amount, 10),
			strconv.FormatInt(entry.PaymentAmount, 10),
			string(entry.PaymentMode),
			strconv.FormatInt(entry.Balance, 10),
		})
	}
	writer.Flush()
}

// ExportLedgerXLSXHandler serves ledger XLSX exports.
type ExportLedgerXLSXHandler struct {
	service *application.Service
	build   XLSXBuilder
}

// NewExportLedgerXLSXHandler constructs a handler around a workbook builder.
func NewExportLedgerXLSXHandler(service *application.Service, build XLSXBuilder) *ExportLedgerXLSXHandler {
	return &ExportLedgerXLSXHandler{service: service, build: build}
}

// ServeHTTP handles GET /api/v1/exports/ledger.xlsx.
func (h *ExportLedgerXLSXHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.service == nil || h.build == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("xlsx", result, time.Since(start))
	}()

	filter, err := filterFromQuery(r)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	entries, err := h.service.AllEntries(r.Context(), filter)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "list ledger error", http.StatusInternalServerError)
		return
	}
	data, err := h.build(entries)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export xlsx error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func filterFromQuery(r *http.Request) (ledger.Filter, error) {
	filter := ledger.Filter{
		Kind:         ledger.Kind(r.URL.Query().Get("kind")),
		Date:         r.URL.Query().Get("date"),
		NameContains: r.URL.Query().Get("name"),
	}
	if value := r.URL.Query().Get("entity_type"); value != "" {
		entityType := ledger.EntityType(value)
		if entityType != ledger.EntityCustomer && entityType != ledger.EntityVendor {
			return ledger.Filter{}, errors.New("entity_type must be customer or vendor")
		}
		filter.EntityType = entityType
	}
	if filter.Date != "" && !ledger.ValidDate(filter.Date) {
		return ledger.Filter{}, errors.New("date must be YYYY-MM-DD")
	}
	return filter, nil
}
