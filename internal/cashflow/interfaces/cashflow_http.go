package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"

	"trade-ledger/internal/audit"
	"trade-ledger/internal/auth"
	"trade-ledger/internal/cashflow/application"
	cashflow "trade-ledger/internal/cashflow/domain"
	"trade-ledger/internal/observability/metrics"
)

// CashFlowHandler serves the liquidity account and manual adjustments.
type CashFlowHandler struct {
	service     *application.Service
	auditLogger audit.Logger
}

// NewCashFlowHandler constructs a handler.
func NewCashFlowHandler(service *application.Service, auditLogger audit.Logger) (*CashFlowHandler, error) {
	if service == nil {
		return nil, errors.New("cashflow handler: nil service")
	}
	return &CashFlowHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles cash flow routes.
func (h *CashFlowHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/cashflow" && r.Method == http.MethodGet:
		h.handleRead(w, r)
	case r.URL.Path == "/api/v1/cashflow/adjust" && r.Method == http.MethodPost:
		h.handleAdjust(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *CashFlowHandler) handleRead(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.Read(r.Context())
	if err != nil {
		http.Error(w, "read cash flow error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(account)
}

func (h *CashFlowHandler) handleAdjust(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bucket    string `json:"bucket"`
		Direction string `json:"direction"`
		Amount    int64  `json:"amount"`
		Reason    string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	account, err := h.service.AdjustManually(r.Context(), application.Adjustment{
		Bucket:    cashflow.Bucket(req.Bucket),
		Direction: cashflow.Direction(req.Direction),
		Amount:    req.Amount,
		Reason:    req.Reason,
	})
	if err != nil {
		respondAdjustError(w, err)
		return
	}
	metrics.IncCashAdjust(req.Direction)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(account)

	if h.auditLogger != nil {
		payload, _ := json.Marshal(map[string]any{
			"bucket":    req.Bucket,
			"direction": req.Direction,
			"amount":    req.Amount,
			"reason":    req.Reason,
		})
		_ = h.auditLogger.Log(r.Context(), audit.Entry{
			Actor:        auth.SubjectFromContext(r.Context()),
			Role:         string(auth.RoleFromContext(r.Context())),
			Action:       "cashflow.adjust",
			ResourceType: "cashflow",
			ResourceID:   "current",
			Metadata:     payload,
			IP:           audit.ClientIP(r),
			UserAgent:    r.UserAgent(),
		})
	}
}

func respondAdjustError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cashflow.ErrNegativeAmount),
		errors.Is(err, cashflow.ErrInvalidBucket),
		errors.Is(err, cashflow.ErrInvalidDirection),
		errors.Is(err, cashflow.ErrBlankReason):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "adjust cash flow error", http.StatusInternalServerError)
	}
}
