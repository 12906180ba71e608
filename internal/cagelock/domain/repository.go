package cagelock

import "context"

// Repository persists cage locks. Insert must decide a race between two
// claimants for the same key with exactly one winner; implementations back
// this with a mutex or a primary-key constraint, never read-then-write.
type Repository interface {
	// Insert stores the lock if the key is free and reports whether it won.
	Insert(ctx context.Context, lock Lock) (bool, error)
	// Get returns the lock for a key, or nil when the key is available.
	Get(ctx context.Context, key Key) (*Lock, error)
	// Delete releases one key.
	Delete(ctx context.Context, key Key) error
	// DeleteByInvoice releases every key held by the invoice.
	DeleteByInvoice(ctx context.Context, invoiceID string) error
	// List returns all locks.
	List(ctx context.Context) ([]Lock, error)
}
