package postgres

import (
	"context"
	"database/sql"
	"errors"

	cagelock "trade-ledger/internal/cagelock/domain"
)

// LockRepository persists cage locks in Postgres. The (cage_no, source_date)
// primary key is the single point of serialization: of two racing inserts
// exactly one row lands.
type LockRepository struct {
	db *sql.DB
}

// NewLockRepository constructs a repository.
func NewLockRepository(db *sql.DB) *LockRepository {
	return &LockRepository{db: db}
}

// Insert stores the lock if the key is free and reports whether it won.
func (r *LockRepository) Insert(ctx context.Context, lock cagelock.Lock) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("cagelock repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
INSERT INTO cage_locks (cage_no, source_date, invoice_id, customer_name, locked_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (cage_no, source_date) DO NOTHING`,
		lock.Key.CageNo, lock.Key.SourceDate, lock.InvoiceID, lock.CustomerName, lock.LockedAt)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Get returns the lock for a key, or nil.
func (r *LockRepository) Get(ctx context.Context, key cagelock.Key) (*cagelock.Lock, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("cagelock repo: nil db")
	}
	lock := cagelock.Lock{}
	err := r.db.QueryRowContext(ctx, `
SELECT cage_no, source_date, invoice_id, customer_name, locked_at
FROM cage_locks
WHERE cage_no = $1 AND source_date = $2`, key.CageNo, key.SourceDate).
		Scan(&lock.Key.CageNo, &lock.Key.SourceDate, &lock.InvoiceID, &lock.CustomerName, &lock.LockedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

// Delete releases one key.
func (r *LockRepository) Delete(ctx context.Context, key cagelock.Key) error {
	if r == nil || r.db == nil {
		return errors.New("cagelock repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `
DELETE FROM cage_locks WHERE cage_no = $1 AND source_date = $2`, key.CageNo, key.SourceDate)
	return err
}

// DeleteByInvoice releases every key held by the invoice.
func (r *LockRepository) DeleteByInvoice(ctx context.Context, invoiceID string) error {
	if r == nil || r.db == nil {
		return errors.New("cagelock repo: nil db")
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM cage_locks WHERE invoice_id = $1`, invoiceID)
	return err
}

// List returns all locks ordered by key.
func (r *LockRepository) List(ctx context.Context) ([]cagelock.Lock, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("cagelock repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT cage_no, source_date, invoice_id, customer_name, locked_at
FROM cage_locks
ORDER BY cage_no, source_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locks := make([]cagelock.Lock, 0)
	for rows.Next() {
		lock := cagelock.Lock{}
		if err := rows.Scan(&lock.Key.CageNo, &lock.Key.SourceDate, &lock.InvoiceID, &lock.CustomerName, &lock.LockedAt); err != nil {
			return nil, err
		}
		locks = append(locks, lock)
	}
	return locks, rows.Err()
}
