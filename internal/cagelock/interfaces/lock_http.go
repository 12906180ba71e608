package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"

	"trade-ledger/internal/cagelock/application"
)

// LockHandler serves the cage lock table.
type LockHandler struct {
	manager *application.Manager
}

// NewLockHandler constructs a handler.
func NewLockHandler(manager *application.Manager) (*LockHandler, error) {
	if manager == nil {
		return nil, errors.New("lock handler: nil manager")
	}
	return &LockHandler{manager: manager}, nil
}

// ServeHTTP handles GET /api/v1/cages/locks.
func (h *LockHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	locks, err := h.manager.Locks(r.Context())
	if err != nil {
		http.Error(w, "list locks error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(locks)
}
