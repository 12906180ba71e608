package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trade-ledger/internal/audit"
	"trade-ledger/internal/auth"
	cagelock "trade-ledger/internal/cagelock/domain"
	"trade-ledger/internal/documents/application"
	documents "trade-ledger/internal/documents/domain"
	"trade-ledger/internal/observability/metrics"
)

// DocumentHandler handles challan and invoice APIs.
type DocumentHandler struct {
	service     *application.IssueService
	repo        documents.Repository
	auditLogger audit.Logger
}

// NewDocumentHandler constructs a handler.
func NewDocumentHandler(service *application.IssueService, repo documents.Repository, auditLogger audit.Logger) (*DocumentHandler, error) {
	if service == nil || repo == nil {
		return nil, errors.New("document handler: nil service")
	}
	return &DocumentHandler{service: service, repo: repo, auditLogger: auditLogger}, nil
}

// ServeHTTP handles document routes under /api/v1.
func (h *DocumentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/challans" && r.Method == http.MethodPost:
		h.handleIssueChallan(w, r)
	case path == "/api/v1/challans" && r.Method == http.MethodGet:
		h.handleListChallans(w, r)
	case path == "/api/v1/invoices" && r.Method == http.MethodPost:
		h.handleIssueInvoice(w, r)
	case path == "/api/v1/invoices" && r.Method == http.MethodGet:
		h.handleListInvoices(w, r)
	case strings.HasPrefix(path, "/api/v1/invoices/"):
		h.handleInvoiceByID(w, r, strings.TrimPrefix(path, "/api/v1/invoices/"))
	case path == "/api/v1/cages/available" && r.Method == http.MethodGet:
		h.handleAvailableUnits(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type challanRequest struct {
	Date         string               `json:"date"`
	VendorName   string               `json:"vendorName"`
	RatePerKg    decimal.Decimal      `json:"ratePerKg"`
	Cages        []documents.CageLine `json:"cages"`
	CageText     string               `json:"cageText"`
	AmountPaying decimal.Decimal      `json:"amountPaying"`
	CashPaid     decimal.Decimal      `json:"cashPaid"`
	OnlinePaid   decimal.Decimal      `json:"onlinePaid"`
	Overwrite    bool                 `json:"overwrite"`
}

func (h *DocumentHandler) handleIssueChallan(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveIssue("challan", result, time.Since(start))
	}()

	var req challanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		result = metrics.ResultError
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	challan, err := h.service.IssuePurchase(r.Context(), application.PurchaseInput{
		Date:         req.Date,
		VendorName:   req.VendorName,
		RatePerKg:    req.RatePerKg,
		Cages:        req.Cages,
		CageText:     req.CageText,
		AmountPaying: req.AmountPaying,
		CashPaid:     req.CashPaid,
		OnlinePaid:   req.OnlinePaid,
		Overwrite:    req.Overwrite,
	})
	if err != nil {
		result = metrics.ResultError
		respondIssueError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(challan)
	h.logAudit(r, "challan", challan.ID, "challan.issue", map[string]any{
		"vendor":    challan.VendorName,
		"date":      challan.Date,
		"total":     challan.TotalAmount,
		"overwrite": req.Overwrite,
	})
}

func (h *DocumentHandler) handleListChallans(w http.ResponseWriter, r *http.Request) {
	var (
		challans []documents.Challan
		err      error
	)
	if date := r.URL.Query().Get("date"); date != "" {
		challans, err = h.repo.ChallansByDate(r.Context(), date)
	} else {
		challans, err = h.repo.ListChallans(r.Context())
	}
	if err != nil {
		http.Error(w, "list challans error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(challans)
}

type invoiceRequest struct {
	Date         string                  `json:"date"`
	CustomerName string                  `json:"customerName"`
	SellRate     decimal.Decimal         `json:"sellRate"`
	Cages        []documents.InvoiceLine `json:"cages"`
	AmountPaying decimal.Decimal         `json:"amountPaying"`
	CashPaid     decimal.Decimal         `json:"cashPaid"`
	OnlinePaid   decimal.Decimal         `json:"onlinePaid"`
}

func (h *DocumentHandler) handleIssueInvoice(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveIssue("invoice", result, time.Since(start))
	}()

	var req invoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		result = metrics.ResultError
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	invoice, err := h.service.IssueSale(r.Context(), application.SaleInput{
		Date:         req.Date,
		CustomerName: req.CustomerName,
		SellRate:     req.SellRate,
		Cages:        req.Cages,
		AmountPaying: req.AmountPaying,
		CashPaid:     req.CashPaid,
		OnlinePaid:   req.OnlinePaid,
	})
	if err != nil {
		result = metrics.ResultError
		if errors.Is(err, cagelock.ErrAlreadyLocked) {
			metrics.IncLockConflict()
		}
		respondIssueError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(invoice)
	h.logAudit(r, "invoice", invoice.ID, "invoice.issue", map[string]any{
		"customer": invoice.CustomerName,
		"number":   invoice.InvoiceNumber,
		"total":    invoice.TotalAmount,
	})
}

func (h *DocumentHandler) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.repo.ListInvoices(r.Context())
	if err != nil {
		http.Error(w, "list invoices error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(invoices)
}

func (h *DocumentHandler) handleInvoiceByID(w http.ResponseWriter, r *http.Request, rest string) {
	if r.Method != http.MethodGet || rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	invoice, err := h.repo.GetInvoice(r.Context(), id)
	if err != nil {
		if errors.Is(err, documents.ErrInvoiceNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "get invoice error", http.StatusInternalServerError)
		return
	}
	if len(parts) == 1 {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(invoice)
		return
	}
	if len(parts) == 2 && parts[1] == "pdf" {
		h.handleInvoicePDF(w, r, invoice)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *DocumentHandler) handleInvoicePDF(w http.ResponseWriter, r *http.Request, invoice *documents.Invoice) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("pdf", result, time.Since(start))
	}()

	data, err := BuildInvoicePDF(invoice)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export pdf error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, "invoice", invoice.ID, "invoice.export", map[string]any{"format": "pdf"})
}

func (h *DocumentHandler) handleAvailableUnits(w http.ResponseWriter, r *http.Request) {
	sourceDate := r.URL.Query().Get("source_date")
	if sourceDate == "" {
		http.Error(w, "source_date is required", http.StatusBadRequest)
		return
	}
	units, err := h.service.ListAvailableUnits(r.Context(), sourceDate)
	if err != nil {
		respondIssueError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(units)
}

func (h *DocumentHandler) logAudit(r *http.Request, resourceType, resourceID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

// respondIssueError maps workflow errors onto HTTP statuses: bad input is
// 400, contested state is 409, anything else is 500.
func respondIssueError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if documents.IsValidation(err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var conflict *cagelock.ConflictError
	if errors.As(err, &conflict) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":      conflict.Error(),
			"cageNo":     conflict.Key.CageNo,
			"sourceDate": conflict.Key.SourceDate,
			"heldBy":     conflict.HeldBy,
		})
		return
	}
	if errors.Is(err, documents.ErrChallanExists) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if errors.Is(err, cagelock.ErrEmptyCageNo) || errors.Is(err, cagelock.ErrInvalidSourceDate) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, "issue document error", http.StatusInternalServerError)
}
