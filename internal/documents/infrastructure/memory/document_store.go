package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	cashflow "trade-ledger/internal/cashflow/domain"
	documents "trade-ledger/internal/documents/domain"
	ledger "trade-ledger/internal/ledger/domain"
)

// DocumentStore keeps challans and invoices in memory and commits them
// together with their ledger entries and cash movement. One mutex covers
// the whole commit, which is the in-memory stand-in for a SQL transaction.
type DocumentStore struct {
	mu       sync.Mutex
	challans map[string]documents.Challan
	invoices map[string]documents.Invoice
	entries  ledger.Repository
	cash     cashflow.Repository
}

// NewDocumentStore wires the store to the ledger and cash flow
// repositories that share its fate at commit time.
func NewDocumentStore(entries ledger.Repository, cash cashflow.Repository) (*DocumentStore, error) {
	if entries == nil || cash == nil {
		return nil, errors.New("document store: nil repositories")
	}
	return &DocumentStore{
		challans: make(map[string]documents.Challan),
		invoices: make(map[string]documents.Invoice),
		entries:  entries,
		cash:     cash,
	}, nil
}

// CommitPurchase applies a challan commit as one unit.
func (s *DocumentStore) CommitPurchase(ctx context.Context, challan documents.Challan, entries []ledger.Entry, delta *documents.CashDelta) (documents.Challan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check the natural key inside the commit's critical section. An
	// overwrite carries the existing id and passes; a second first-issue
	// that raced the lookup does not.
	for _, existing := range s.challans {
		if existing.Date == challan.Date && existing.VendorName == challan.VendorName && existing.ID != challan.ID {
			return documents.Challan{}, documents.ErrChallanExists
		}
	}

	stamped, err := s.appendEntries(ctx, challan.ID, entries)
	if err != nil {
		return documents.Challan{}, err
	}
	challan.PreviousDue = stamped.previous
	challan.NewDue = stamped.final
	if err := s.applyDelta(ctx, delta); err != nil {
		return documents.Challan{}, err
	}
	s.challans[challan.ID] = challan
	return challan, nil
}

// CommitSale applies an invoice commit as one unit.
func (s *DocumentStore) CommitSale(ctx context.Context, invoice documents.Invoice, entries []ledger.Entry, delta *documents.CashDelta) (documents.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamped, err := s.appendEntries(ctx, invoice.ID, entries)
	if err != nil {
		return documents.Invoice{}, err
	}
	invoice.PreviousDue = stamped.previous
	invoice.NewDue = stamped.final
	if err := s.applyDelta(ctx, delta); err != nil {
		return documents.Invoice{}, err
	}
	s.invoices[invoice.ID] = invoice
	return invoice, nil
}

type balanceStamp struct {
	previous int64
	final    int64
}

// appendEntries clears any prior entries for the document, then appends the
// new set with balance snapshots derived from the entity's amount sum.
func (s *DocumentStore) appendEntries(ctx context.Context, documentID string, entries []ledger.Entry) (balanceStamp, error) {
	if err := s.entries.DeleteByReference(ctx, documentID); err != nil {
		return balanceStamp{}, err
	}
	var stamp balanceStamp
	for i, entry := range entries {
		if err := entry.Validate(); err != nil {
			return balanceStamp{}, err
		}
		sum, err := s.entries.SumAmounts(ctx, entry.EntityName, entry.ID)
		if err != nil {
			return balanceStamp{}, err
		}
		entry.Balance = sum + entry.Amount
		if err := s.entries.Save(ctx, entry); err != nil {
			return balanceStamp{}, err
		}
		if i == 0 {
			stamp.previous = entry.Balance - entry.Amount
		}
		stamp.final = entry.Balance
	}
	return stamp, nil
}

func (s *DocumentStore) applyDelta(ctx context.Context, delta *documents.CashDelta) error {
	if delta == nil {
		return nil
	}
	var err error
	switch delta.Direction {
	case documents.CashCredit:
		_, err = s.cash.Credit(ctx, delta.Cash, delta.Online)
	case documents.CashDebit:
		_, err = s.cash.Debit(ctx, delta.Cash, delta.Online)
	default:
		return errors.New("document store: unknown cash direction")
	}
	return err
}

// ListChallans returns all challans, newest date first.
func (s *DocumentStore) ListChallans(ctx context.Context) ([]documents.Challan, error) {
	_ = ctx
	s.mu.Lock()
	challans := make([]documents.Challan, 0, len(s.challans))
	for _, challan := range s.challans {
		challans = append(challans, challan)
	}
	s.mu.Unlock()

	sort.Slice(challans, func(i, j int) bool {
		if challans[i].Date != challans[j].Date {
			return challans[i].Date > challans[j].Date
		}
		return challans[j].CreatedAt.Before(challans[i].CreatedAt)
	})
	return challans, nil
}

// ChallansByDate returns the challans issued on one date.
func (s *DocumentStore) ChallansByDate(ctx context.Context, date string) ([]documents.Challan, error) {
	all, err := s.ListChallans(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]documents.Challan, 0)
	for _, challan := range all {
		if challan.Date == date {
			matched = append(matched, challan)
		}
	}
	return matched, nil
}

// FindChallanByVendorAndDate resolves the natural key, or nil.
func (s *DocumentStore) FindChallanByVendorAndDate(ctx context.Context, date, vendorName string) (*documents.Challan, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, challan := range s.challans {
		if challan.Date == date && challan.VendorName == vendorName {
			copied := challan
			return &copied, nil
		}
	}
	return nil, nil
}

// ListInvoices returns all invoices, newest date first.
func (s *DocumentStore) ListInvoices(ctx context.Context) ([]documents.Invoice, error) {
	_ = ctx
	s.mu.Lock()
	invoices := make([]documents.Invoice, 0, len(s.invoices))
	for _, invoice := range s.invoices {
		invoices = append(invoices, invoice)
	}
	s.mu.Unlock()

	sort.Slice(invoices, func(i, j int) bool {
		if invoices[i].Date != invoices[j].Date {
			return invoices[i].Date > invoices[j].Date
		}
		return invoices[j].CreatedAt.Before(invoices[i].CreatedAt)
	})
	return invoices, nil
}

// GetInvoice returns one invoice or ErrInvoiceNotFound.
func (s *DocumentStore) GetInvoice(ctx context.Context, id string) (*documents.Invoice, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	invoice, ok := s.invoices[id]
	if !ok {
		return nil, documents.ErrInvoiceNotFound
	}
	return &invoice, nil
}
