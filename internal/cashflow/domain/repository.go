package cashflow

import (
	"context"

	ledger "trade-ledger/internal/ledger/domain"
)

// Repository persists the singleton account. Get returns a zeroed account
// on first access. All writes are relative: each call folds its delta into
// the stored balances in one atomic step, so callers serialized by
// different locks cannot overwrite each other's updates.
type Repository interface {
	Get(ctx context.Context) (Account, error)
	// Credit atomically adds received money to the buckets.
	Credit(ctx context.Context, cash, online int64) (Account, error)
	// Debit atomically removes paid-out money, clamping each bucket at zero.
	Debit(ctx context.Context, cash, online int64) (Account, error)
}

// AdjustmentStore applies a manual adjustment and its synthetic ledger
// entry as one unit of work: both become visible together or not at all.
// Deltas are signed per bucket; a negative delta clamps the bucket at zero.
type AdjustmentStore interface {
	CommitAdjustment(ctx context.Context, cashDelta, onlineDelta int64, entry ledger.Entry) (Account, error)
}
