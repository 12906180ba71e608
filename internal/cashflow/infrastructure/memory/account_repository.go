package memory

import (
	"context"
	"sync"

	cashflow "trade-ledger/internal/cashflow/domain"
)

// AccountRepository holds the singleton account in memory. The mutex makes
// each credit or debit a single atomic step.
type AccountRepository struct {
	mu      sync.Mutex
	account cashflow.Account
}

// NewAccountRepository constructs a repository with a zeroed account.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{}
}

// Get returns the current account snapshot.
func (r *AccountRepository) Get(ctx context.Context) (cashflow.Account, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.account, nil
}

// Credit adds received money to the buckets.
func (r *AccountRepository) Credit(ctx context.Context, cash, online int64) (cashflow.Account, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.account = r.account.Credit(cash, online)
	return r.account, nil
}

// Debit removes paid-out money, clamping each bucket at zero.
func (r *AccountRepository) Debit(ctx context.Context, cash, online int64) (cashflow.Account, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.account = r.account.Debit(cash, online)
	return r.account, nil
}
