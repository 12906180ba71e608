package memory

import (
	"context"
	"sort"
	"sync"

	cagelock "trade-ledger/internal/cagelock/domain"
)

// LockRepository is an in-memory lock table. The single mutex is the point
// of serialization that makes Insert decide races.
type LockRepository struct {
	mu    sync.Mutex
	locks map[string]cagelock.Lock
}

// NewLockRepository constructs a repository.
func NewLockRepository() *LockRepository {
	return &LockRepository{locks: make(map[string]cagelock.Lock)}
}

// Insert stores the lock if the key is free and reports whether it won.
func (r *LockRepository) Insert(ctx context.Context, lock cagelock.Lock) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	key := lock.Key.String()
	if _, held := r.locks[key]; held {
		return false, nil
	}
	r.locks[key] = lock
	return true, nil
}

// Get returns the lock for a key, or nil.
func (r *LockRepository) Get(ctx context.Context, key cagelock.Key) (*cagelock.Lock, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, held := r.locks[key.String()]
	if !held {
		return nil, nil
	}
	copied := lock
	return &copied, nil
}

// Delete releases one key.
func (r *LockRepository) Delete(ctx context.Context, key cagelock.Key) error {
	_ = ctx
	r.mu.Lock()
	delete(r.locks, key.String())
	r.mu.Unlock()
	return nil
}

// DeleteByInvoice releases every key held by the invoice.
func (r *LockRepository) DeleteByInvoice(ctx context.Context, invoiceID string) error {
	_ = ctx
	r.mu.Lock()
	for key, lock := range r.locks {
		if lock.InvoiceID == invoiceID {
			delete(r.locks, key)
		}
	}
	r.mu.Unlock()
	return nil
}

// List returns all locks ordered by key.
func (r *LockRepository) List(ctx context.Context) ([]cagelock.Lock, error) {
	_ = ctx
	r.mu.Lock()
	locks := make([]cagelock.Lock, 0, len(r.locks))
	for _, lock := range r.locks {
		locks = append(locks, lock)
	}
	r.mu.Unlock()

	sort.Slice(locks, func(i, j int) bool { return locks[i].Key.String() < locks[j].Key.String() })
	return locks, nil
}
