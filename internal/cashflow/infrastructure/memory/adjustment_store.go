package memory

import (
	"context"
	"errors"
	"sync"

	cashflow "trade-ledger/internal/cashflow/domain"
	ledger "trade-ledger/internal/ledger/domain"
)

// AdjustmentStore commits a manual adjustment and its synthetic ledger
// entry together. The entry lands first; if the account movement then
// fails, the entry is removed again by its reference so no half of the
// adjustment survives.
type AdjustmentStore struct {
	mu      sync.Mutex
	entries ledger.Repository
	cash    cashflow.Repository
}

// NewAdjustmentStore wires the store to the ledger and account
// repositories that share its fate at commit time.
func NewAdjustmentStore(entries ledger.Repository, cash cashflow.Repository) (*AdjustmentStore, error) {
	if entries == nil || cash == nil {
		return nil, errors.New("adjustment store: nil repositories")
	}
	return &AdjustmentStore{entries: entries, cash: cash}, nil
}

// CommitAdjustment applies the signed bucket deltas and the paired entry
// as one unit. The entry's balance snapshot is derived from the entity's
// amount sum inside the same critical section.
func (s *AdjustmentStore) CommitAdjustment(ctx context.Context, cashDelta, onlineDelta int64, entry ledger.Entry) (cashflow.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := entry.Validate(); err != nil {
		return cashflow.Account{}, err
	}
	sum, err := s.entries.SumAmounts(ctx, entry.EntityName, entry.ID)
	if err != nil {
		return cashflow.Account{}, err
	}
	entry.Balance = sum + entry.Amount
	if err := s.entries.Save(ctx, entry); err != nil {
		return cashflow.Account{}, err
	}

	account, err := s.applyDeltas(ctx, cashDelta, onlineDelta)
	if err != nil {
		_ = s.entries.DeleteByReference(ctx, entry.ReferenceID)
		return cashflow.Account{}, err
	}
	return account, nil
}

func (s *AdjustmentStore) applyDeltas(ctx context.Context, cashDelta, onlineDelta int64) (cashflow.Account, error) {
	if cashDelta < 0 || onlineDelta < 0 {
		return s.cash.Debit(ctx, -cashDelta, -onlineDelta)
	}
	return s.cash.Credit(ctx, cashDelta, onlineDelta)
}
