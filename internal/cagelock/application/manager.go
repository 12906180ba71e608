package application

import (
	"context"
	"errors"
	"time"

	cagelock "trade-ledger/internal/cagelock/domain"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Manager is the cage lock registry: it maps a physical inventory unit to
// the single invoice that has claimed it, so no batch of birds is sold
// twice.
type Manager struct {
	repo  cagelock.Repository
	clock Clock
}

// NewManager constructs the lock manager.
func NewManager(repo cagelock.Repository, clock Clock) (*Manager, error) {
	if repo == nil {
		return nil, errors.New("cagelock manager: nil repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Manager{repo: repo, clock: clock}, nil
}

// TryLock claims the key for the invoice. When another invoice holds the
// key it fails with a ConflictError matching ErrAlreadyLocked; a repeat
// claim by the same invoice returns the existing lock. Two racing calls for
// one free key resolve to exactly one winner.
func (m *Manager) TryLock(ctx context.Context, key cagelock.Key, invoiceID, customerName string) (cagelock.Lock, error) {
	if invoiceID == "" {
		return cagelock.Lock{}, cagelock.ErrEmptyInvoiceID
	}
	validated, err := cagelock.NewKey(key.CageNo, key.SourceDate)
	if err != nil {
		return cagelock.Lock{}, err
	}

	lock := cagelock.Lock{
		Key:          validated,
		InvoiceID:    invoiceID,
		CustomerName: customerName,
		LockedAt:     m.clock.Now().UTC(),
	}
	won, err := m.repo.Insert(ctx, lock)
	if err != nil {
		return cagelock.Lock{}, err
	}
	if won {
		return lock, nil
	}

	holder, err := m.repo.Get(ctx, validated)
	if err != nil {
		return cagelock.Lock{}, err
	}
	if holder != nil && holder.InvoiceID == invoiceID {
		return *holder, nil
	}
	heldBy := ""
	if holder != nil {
		heldBy = holder.InvoiceID
	}
	return cagelock.Lock{}, &cagelock.ConflictError{Key: validated, HeldBy: heldBy, Reason: cagelock.ErrAlreadyLocked}
}

// IsLocked reports whether a key is currently held. Never blocks.
func (m *Manager) IsLocked(ctx context.Context, key cagelock.Key) (bool, error) {
	holder, err := m.repo.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return holder != nil, nil
}

// Unlock releases one key. Exposed for void/cancel flows.
func (m *Manager) Unlock(ctx context.Context, key cagelock.Key) error {
	return m.repo.Delete(ctx, key)
}

// UnlockAllForInvoice releases every key held by the invoice.
func (m *Manager) UnlockAllForInvoice(ctx context.Context, invoiceID string) error {
	if invoiceID == "" {
		return cagelock.ErrEmptyInvoiceID
	}
	return m.repo.DeleteByInvoice(ctx, invoiceID)
}

// Locks returns the full lock table.
func (m *Manager) Locks(ctx context.Context) ([]cagelock.Lock, error) {
	return m.repo.List(ctx)
}
