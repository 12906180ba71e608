package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	ledger "trade-ledger/internal/ledger/domain"
)

// LedgerRepository persists ledger entries in Postgres.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository constructs a repository.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

const entryColumns = `id, entry_date, entity_name, entity_type, kind, description,
	amount, payment_amount, payment_mode, balance, reference_id, created_at`

// Save upserts an entry by id.
func (r *LedgerRepository) Save(ctx context.Context, entry ledger.Entry) error {
	if r == nil || r.db == nil {
		return errors.New("ledger repo: nil db")
	}
	if entry.ID == "" {
		return ledger.ErrEmptyID
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO ledger_entries (
	id, entry_date, entity_name, entity_type, kind, description,
	amount, payment_amount, payment_mode, balance, reference_id, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
	entry_date = EXCLUDED.entry_date,
	entity_name = EXCLUDED.entity_name,
	entity_type = EXCLUDED.entity_type,
	kind = EXCLUDED.kind,
	description = EXCLUDED.description,
	amount = EXCLUDED.amount,
	payment_amount = EXCLUDED.payment_amount,
	payment_mode = EXCLUDED.payment_mode,
	balance = EXCLUDED.balance,
	reference_id = EXCLUDED.reference_id,
	created_at = EXCLUDED.created_at`,
		entry.ID, entry.Date, entry.EntityName, string(entry.EntityType), string(entry.Kind), entry.Description,
		entry.Amount, entry.PaymentAmount, string(entry.PaymentMode), entry.Balance, entry.ReferenceID, entry.CreatedAt)
	return err
}

// SumAmounts sums the entity's amounts, skipping excludeID.
func (r *LedgerRepository) SumAmounts(ctx context.Context, entityName, excludeID string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("ledger repo: nil db")
	}
	var sum sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
SELECT SUM(amount)
FROM ledger_entries
WHERE entity_name = $1 AND id <> $2`, entityName, excludeID).Scan(&sum)
	if err != nil {
		return 0, err
	}
	if !sum.Valid {
		return 0, nil
	}
	return sum.Int64, nil
}

// ListByEntity returns the entity's entries, newest first.
func (r *LedgerRepository) ListByEntity(ctx context.Context, entityName string) ([]ledger.Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ledger repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+entryColumns+`
FROM ledger_entries
WHERE entity_name = $1
ORDER BY entry_date DESC, created_at DESC`, entityName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// List returns filtered entries, newest first.
func (r *LedgerRepository) List(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("ledger repo: nil db")
	}

	clauses := make([]string, 0, 4)
	args := make([]any, 0, 4)
	addClause := func(expr string, value any) {
		args = append(args, value)
		clauses = append(clauses, strings.Replace(expr, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if filter.EntityType != "" {
		addClause("entity_type = ?", string(filter.EntityType))
	}
	if filter.Kind != "" {
		addClause("kind = ?", string(filter.Kind))
	}
	if filter.Date != "" {
		addClause("entry_date = ?", filter.Date)
	}
	if filter.NameContains != "" {
		addClause("entity_name ILIKE ?", "%"+filter.NameContains+"%")
	}

	query := `SELECT ` + entryColumns + ` FROM ledger_entries`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY entry_date DESC, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// DeleteByReference removes every entry tied to a source document.
func (r *LedgerRepository) DeleteByReference(ctx context.Context, referenceID string) error {
	if r == nil || r.db == nil {
		return errors.New("ledger repo: nil db")
	}
	if referenceID == "" {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE reference_id = $1`, referenceID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (ledger.Entry, error) {
	var entry ledger.Entry
	var entityType, kind, paymentMode string
	err := row.Scan(
		&entry.ID, &entry.Date, &entry.EntityName, &entityType, &kind, &entry.Description,
		&entry.Amount, &entry.PaymentAmount, &paymentMode, &entry.Balance, &entry.ReferenceID, &entry.CreatedAt)
	if err != nil {
		return ledger.Entry{}, err
	}
	entry.EntityType = ledger.EntityType(entityType)
	entry.Kind = ledger.Kind(kind)
	entry.PaymentMode = ledger.PaymentMode(paymentMode)
	return entry, nil
}

func scanEntries(rows *sql.Rows) ([]ledger.Entry, error) {
	entries := make([]ledger.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
