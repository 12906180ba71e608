package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	documents "trade-ledger/internal/documents/domain"
	ledger "trade-ledger/internal/ledger/domain"
)

// DocumentStore persists challans and invoices in Postgres. Each commit
// runs in a single transaction covering the document row, its ledger
// entries and the cash flow row.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore constructs a store.
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// CommitPurchase applies a challan commit in one transaction.
func (s *DocumentStore) CommitPurchase(ctx context.Context, challan documents.Challan, entries []ledger.Entry, delta *documents.CashDelta) (documents.Challan, error) {
	if s == nil || s.db == nil {
		return documents.Challan{}, errors.New("document store: nil db")
	}
	cages, err := json.Marshal(challan.Cages)
	if err != nil {
		return documents.Challan{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return documents.Challan{}, err
	}
	// Serialize commits on the challan's natural key, then re-check it.
	// Two first-issues racing for the same vendor and date would otherwise
	// both pass the pre-commit lookup; an overwrite carries the existing
	// id and passes the check.
	if err := lockKeyTx(ctx, tx, challan.Date+"|"+challan.VendorName); err != nil {
		_ = tx.Rollback()
		return documents.Challan{}, err
	}
	var existingID string
	err = tx.QueryRowContext(ctx, `
SELECT id
FROM delivery_challans
WHERE challan_date = $1 AND vendor_name = $2 AND id <> $3
LIMIT 1`, challan.Date, challan.VendorName, challan.ID).Scan(&existingID)
	if err == nil {
		_ = tx.Rollback()
		return documents.Challan{}, documents.ErrChallanExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return documents.Challan{}, err
	}
	stamp, err := appendEntriesTx(ctx, tx, challan.ID, entries)
	if err != nil {
		_ = tx.Rollback()
		return documents.Challan{}, err
	}
	challan.PreviousDue = stamp.previous
	challan.NewDue = stamp.final

	_, err = tx.ExecContext(ctx, `
INSERT INTO delivery_challans (
	id, challan_date, vendor_name, rate_per_kg, cages,
	total_birds, total_weight_kg, total_amount, previous_due,
	amount_paying, payment_mode, cash_amount, online_amount, new_due,
	created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
ON CONFLICT (id) DO UPDATE SET
	challan_date = EXCLUDED.challan_date,
	vendor_name = EXCLUDED.vendor_name,
	rate_per_kg = EXCLUDED.rate_per_kg,
	cages = EXCLUDED.cages,
	total_birds = EXCLUDED.total_birds,
	total_weight_kg = EXCLUDED.total_weight_kg,
	total_amount = EXCLUDED.total_amount,
	previous_due = EXCLUDED.previous_due,
	amount_paying = EXCLUDED.amount_paying,
	payment_mode = EXCLUDED.payment_mode,
	cash_amount = EXCLUDED.cash_amount,
	online_amount = EXCLUDED.online_amount,
	new_due = EXCLUDED.new_due,
	updated_at = EXCLUDED.updated_at`,
		challan.ID, challan.Date, challan.VendorName, challan.RatePerKg.String(), cages,
		challan.TotalBirds, challan.TotalWeightKg.String(), challan.TotalAmount, challan.PreviousDue,
		challan.AmountPaying, string(challan.PaymentMode), challan.CashAmount, challan.OnlineAmount, challan.NewDue,
		challan.CreatedAt, challan.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return documents.Challan{}, err
	}

	if err := applyDeltaTx(ctx, tx, delta); err != nil {
		_ = tx.Rollback()
		return documents.Challan{}, err
	}
	if err := tx.Commit(); err != nil {
		return documents.Challan{}, err
	}
	return challan, nil
}

// CommitSale applies an invoice commit in one transaction.
func (s *DocumentStore) CommitSale(ctx context.Context, invoice documents.Invoice, entries []ledger.Entry, delta *documents.CashDelta) (documents.Invoice, error) {
	if s == nil || s.db == nil {
		return documents.Invoice{}, errors.New("document store: nil db")
	}
	cages, err := json.Marshal(invoice.Cages)
	if err != nil {
		return documents.Invoice{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return documents.Invoice{}, err
	}
	stamp, err := appendEntriesTx(ctx, tx, invoice.ID, entries)
	if err != nil {
		_ = tx.Rollback()
		return documents.Invoice{}, err
	}
	invoice.PreviousDue = stamp.previous
	invoice.NewDue = stamp.final

	_, err = tx.ExecContext(ctx, `
INSERT INTO invoices (
	id, invoice_number, invoice_date, customer_name, cages,
	total_birds, total_weight_kg, sell_rate, total_amount, previous_due,
	payment_mode, cash_payment, online_payment, total_payment, new_due,
	profit_loss, purchase_rate, version, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		invoice.ID, invoice.InvoiceNumber, invoice.Date, invoice.CustomerName, cages,
		invoice.TotalBirds, invoice.TotalWeightKg.String(), invoice.SellRate.String(), invoice.TotalAmount, invoice.PreviousDue,
		string(invoice.PaymentMode), invoice.CashPayment, invoice.OnlinePayment, invoice.TotalPayment, invoice.NewDue,
		invoice.ProfitLoss, invoice.PurchaseRate.String(), invoice.Version, invoice.CreatedAt, invoice.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return documents.Invoice{}, err
	}

	if err := applyDeltaTx(ctx, tx, delta); err != nil {
		_ = tx.Rollback()
		return documents.Invoice{}, err
	}
	if err := tx.Commit(); err != nil {
		return documents.Invoice{}, err
	}
	return invoice, nil
}

type balanceStamp struct {
	previous int64
	final    int64
}

// appendEntriesTx clears prior entries for the document, then inserts the
// new set with balances derived from the entity's amount sum inside the
// transaction.
func appendEntriesTx(ctx context.Context, tx *sql.Tx, documentID string, entries []ledger.Entry) (balanceStamp, error) {
	// Serialize per entity before reading the running sum. Without the lock,
	// two READ COMMITTED transactions for the same entity would both read
	// the pre-commit sum and persist stale balance snapshots. Locks are
	// taken in sorted order so multi-entity commits cannot deadlock.
	for _, name := range sortedEntityNames(entries) {
		if err := lockKeyTx(ctx, tx, name); err != nil {
			return balanceStamp{}, err
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_entries WHERE reference_id = $1`, documentID); err != nil {
		return balanceStamp{}, err
	}
	var stamp balanceStamp
	for i, entry := range entries {
		if err := entry.Validate(); err != nil {
			return balanceStamp{}, err
		}
		var sum sql.NullInt64
		err := tx.QueryRowContext(ctx, `
SELECT SUM(amount)
FROM ledger_entries
WHERE entity_name = $1 AND id <> $2`, entry.EntityName, entry.ID).Scan(&sum)
		if err != nil {
			return balanceStamp{}, err
		}
		entry.Balance = sum.Int64 + entry.Amount

		_, err = tx.ExecContext(ctx, `
INSERT INTO ledger_entries (
	id, entry_date, entity_name, entity_type, kind, description,
	amount, payment_amount, payment_mode, balance, reference_id, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			entry.ID, entry.Date, entry.EntityName, string(entry.EntityType), string(entry.Kind), entry.Description,
			entry.Amount, entry.PaymentAmount, string(entry.PaymentMode), entry.Balance, entry.ReferenceID, entry.CreatedAt)
		if err != nil {
			return balanceStamp{}, err
		}
		if i == 0 {
			stamp.previous = entry.Balance - entry.Amount
		}
		stamp.final = entry.Balance
	}
	return stamp, nil
}

// lockKeyTx takes a transaction-scoped advisory lock on a string key. The
// lock releases at commit or rollback.
func lockKeyTx(ctx context.Context, tx *sql.Tx, key string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key)
	return err
}

func sortedEntityNames(entries []ledger.Entry) []string {
	seen := make(map[string]bool, len(entries))
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !seen[entry.EntityName] {
			seen[entry.EntityName] = true
			names = append(names, entry.EntityName)
		}
	}
	sort.Strings(names)
	return names
}

// applyDeltaTx folds the cash movement into the singleton cash flow row.
// Debits clamp each bucket at zero in SQL.
func applyDeltaTx(ctx context.Context, tx *sql.Tx, delta *documents.CashDelta) error {
	if delta == nil {
		return nil
	}
	var query string
	switch delta.Direction {
	case documents.CashCredit:
		query = `
INSERT INTO cash_flow (id, cash_balance, online_balance, total_balance, updated_at)
VALUES ('current', $1, $2, $1 + $2, NOW())
ON CONFLICT (id) DO UPDATE SET
	cash_balance = cash_flow.cash_balance + $1,
	online_balance = cash_flow.online_balance + $2,
	total_balance = cash_flow.cash_balance + $1 + cash_flow.online_balance + $2,
	updated_at = NOW()`
	case documents.CashDebit:
		query = `
INSERT INTO cash_flow (id, cash_balance, online_balance, total_balance, updated_at)
VALUES ('current', 0, 0, 0, NOW())
ON CONFLICT (id) DO UPDATE SET
	cash_balance = GREATEST(0, cash_flow.cash_balance - $1),
	online_balance = GREATEST(0, cash_flow.online_balance - $2),
	total_balance = GREATEST(0, cash_flow.cash_balance - $1) + GREATEST(0, cash_flow.online_balance - $2),
	updated_at = NOW()`
	default:
		return errors.New("document store: unknown cash direction")
	}
	_, err := tx.ExecContext(ctx, query, delta.Cash, delta.Online)
	return err
}

const challanColumns = `id, challan_date, vendor_name, rate_per_kg, cages,
	total_birds, total_weight_kg, total_amount, previous_due,
	amount_paying, payment_mode, cash_amount, online_amount, new_due,
	created_at, updated_at`

// ListChallans returns all challans, newest date first.
func (s *DocumentStore) ListChallans(ctx context.Context) ([]documents.Challan, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("document store: nil db")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT `+challanColumns+`
FROM delivery_challans
ORDER BY challan_date DESC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChallans(rows)
}

// ChallansByDate returns the challans issued on one date.
func (s *DocumentStore) ChallansByDate(ctx context.Context, date string) ([]documents.Challan, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("document store: nil db")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT `+challanColumns+`
FROM delivery_challans
WHERE challan_date = $1
ORDER BY created_at DESC`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChallans(rows)
}

// FindChallanByVendorAndDate resolves the natural key, or nil.
func (s *DocumentStore) FindChallanByVendorAndDate(ctx context.Context, date, vendorName string) (*documents.Challan, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("document store: nil db")
	}
	row := s.db.QueryRowContext(ctx, `
SELECT `+challanColumns+`
FROM delivery_challans
WHERE challan_date = $1 AND vendor_name = $2
LIMIT 1`, date, vendorName)
	challan, err := scanChallan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &challan, nil
}

const invoiceColumns = `id, invoice_number, invoice_date, customer_name, cages,
	total_birds, total_weight_kg, sell_rate, total_amount, previous_due,
	payment_mode, cash_payment, online_payment, total_payment, new_due,
	profit_loss, purchase_rate, version, created_at, updated_at`

// ListInvoices returns all invoices, newest date first.
func (s *DocumentStore) ListInvoices(ctx context.Context) ([]documents.Invoice, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("document store: nil db")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT `+invoiceColumns+`
FROM invoices
ORDER BY invoice_date DESC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := make([]documents.Invoice, 0)
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

// GetInvoice returns one invoice or ErrInvoiceNotFound.
func (s *DocumentStore) GetInvoice(ctx context.Context, id string) (*documents.Invoice, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("document store: nil db")
	}
	row := s.db.QueryRowContext(ctx, `
SELECT `+invoiceColumns+`
FROM invoices
WHERE id = $1`, id)
	invoice, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, documents.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChallan(row rowScanner) (documents.Challan, error) {
	var challan documents.Challan
	var rate, weight, mode string
	var cages []byte
	err := row.Scan(
		&challan.ID, &challan.Date, &challan.VendorName, &rate, &cages,
		&challan.TotalBirds, &weight, &challan.TotalAmount, &challan.PreviousDue,
		&challan.AmountPaying, &mode, &challan.CashAmount, &challan.OnlineAmount, &challan.NewDue,
		&challan.CreatedAt, &challan.UpdatedAt)
	if err != nil {
		return documents.Challan{}, err
	}
	if challan.RatePerKg, err = decimal.NewFromString(rate); err != nil {
		return documents.Challan{}, err
	}
	if challan.TotalWeightKg, err = decimal.NewFromString(weight); err != nil {
		return documents.Challan{}, err
	}
	challan.PaymentMode = ledger.PaymentMode(mode)
	if err := json.Unmarshal(cages, &challan.Cages); err != nil {
		return documents.Challan{}, err
	}
	return challan, nil
}

func scanChallans(rows *sql.Rows) ([]documents.Challan, error) {
	challans := make([]documents.Challan, 0)
	for rows.Next() {
		challan, err := scanChallan(rows)
		if err != nil {
			return nil, err
		}
		challans = append(challans, challan)
	}
	return challans, rows.Err()
}

func scanInvoice(row rowScanner) (documents.Invoice, error) {
	var invoice documents.Invoice
	var weight, sellRate, purchaseRate, mode string
	var cages []byte
	err := row.Scan(
		&invoice.ID, &invoice.InvoiceNumber, &invoice.Date, &invoice.CustomerName, &cages,
		&invoice.TotalBirds, &weight, &sellRate, &invoice.TotalAmount, &invoice.PreviousDue,
		&mode, &invoice.CashPayment, &invoice.OnlinePayment, &invoice.TotalPayment, &invoice.NewDue,
		&invoice.ProfitLoss, &purchaseRate, &invoice.Version, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return documents.Invoice{}, err
	}
	if invoice.TotalWeightKg, err = decimal.NewFromString(weight); err != nil {
		return documents.Invoice{}, err
	}
	if invoice.SellRate, err = decimal.NewFromString(sellRate); err != nil {
		return documents.Invoice{}, err
	}
	if invoice.PurchaseRate, err = decimal.NewFromString(purchaseRate); err != nil {
		return documents.Invoice{}, err
	}
	invoice.PaymentMode = ledger.PaymentMode(mode)
	if err := json.Unmarshal(cages, &invoice.Cages); err != nil {
		return documents.Invoice{}, err
	}
	return invoice, nil
}
