package memory

import (
	"context"
	"sort"
	"sync"

	ledger "trade-ledger/internal/ledger/domain"
)

// LedgerRepository is an in-memory ledger store for tests and demos.
type LedgerRepository struct {
	mu      sync.RWMutex
	entries map[string]ledger.Entry
}

// NewLedgerRepository constructs a repository.
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{entries: make(map[string]ledger.Entry)}
}

// Save upserts an entry by id.
func (r *LedgerRepository) Save(ctx context.Context, entry ledger.Entry) error {
	_ = ctx
	if entry.ID == "" {
		return ledger.ErrEmptyID
	}
	r.mu.Lock()
	r.entries[entry.ID] = entry
	r.mu.Unlock()
	return nil
}

// SumAmounts sums the entity's amounts, skipping excludeID.
func (r *LedgerRepository) SumAmounts(ctx context.Context, entityName, excludeID string) (int64, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sum int64
	for _, entry := range r.entries {
		if entry.EntityName != entityName || entry.ID == excludeID {
			continue
		}
		sum += entry.Amount
	}
	return sum, nil
}

// ListByEntity returns the entity's entries, newest first.
func (r *LedgerRepository) ListByEntity(ctx context.Context, entityName string) ([]ledger.Entry, error) {
	_ = ctx
	r.mu.RLock()
	matched := make([]ledger.Entry, 0)
	for _, entry := range r.entries {
		if entry.EntityName == entityName {
			matched = append(matched, entry)
		}
	}
	r.mu.RUnlock()

	sortNewestFirst(matched)
	return matched, nil
}

// List returns filtered entries, newest first.
func (r *LedgerRepository) List(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	_ = ctx
	r.mu.RLock()
	matched := make([]ledger.Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		if filter.Matches(entry) {
			matched = append(matched, entry)
		}
	}
	r.mu.RUnlock()

	sortNewestFirst(matched)
	return matched, nil
}

// DeleteByReference removes every entry tied to a source document.
func (r *LedgerRepository) DeleteByReference(ctx context.Context, referenceID string) error {
	_ = ctx
	if referenceID == "" {
		return nil
	}
	r.mu.Lock()
	for id, entry := range r.entries {
		if entry.ReferenceID == referenceID {
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()
	return nil
}

func sortNewestFirst(entries []ledger.Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[j].Before(entries[i]) })
}
