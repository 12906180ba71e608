package documents

import (
	"context"

	ledger "trade-ledger/internal/ledger/domain"
)

// CashDirection says which way a commit moves liquidity.
type CashDirection string

const (
	// CashCredit records money received from a customer.
	CashCredit CashDirection = "credit"
	// CashDebit records money paid out to a vendor; buckets clamp at zero.
	CashDebit CashDirection = "debit"
)

// CashDelta is the liquidity change a document commit carries.
type CashDelta struct {
	Cash      int64
	Online    int64
	Direction CashDirection
}

// Repository reads persisted documents.
type Repository interface {
	ListChallans(ctx context.Context) ([]Challan, error)
	ChallansByDate(ctx context.Context, date string) ([]Challan, error)
	// FindChallanByVendorAndDate resolves the natural key, or nil.
	FindChallanByVendorAndDate(ctx context.Context, date, vendorName string) (*Challan, error)
	ListInvoices(ctx context.Context) ([]Invoice, error)
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
}

// CommitStore applies one document issuance as a single unit of work:
// document, ledger entries and cash flow delta all become visible together
// or not at all. The store derives each entry's balance snapshot from the
// entity's amount sum at commit time and stamps the entity's balance before
// and after the commit into the document's PreviousDue and NewDue.
type CommitStore interface {
	CommitPurchase(ctx context.Context, challan Challan, entries []ledger.Entry, delta *CashDelta) (Challan, error)
	CommitSale(ctx context.Context, invoice Invoice, entries []ledger.Entry, delta *CashDelta) (Invoice, error)
}
