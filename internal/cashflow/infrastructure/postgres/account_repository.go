package postgres

import (
	"context"
	"database/sql"
	"errors"

	cashflow "trade-ledger/internal/cashflow/domain"
	ledger "trade-ledger/internal/ledger/domain"
)

// accountRowID is the fixed key of the singleton cash flow row.
const accountRowID = "current"

// AccountRepository persists the singleton account in Postgres. Every write
// is a single relative statement, so concurrent writers under different
// serialization (document commits, manual adjustments) cannot lose each
// other's updates.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository constructs a repository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Get returns the account, zeroed when the row does not exist yet.
func (r *AccountRepository) Get(ctx context.Context) (cashflow.Account, error) {
	if r == nil || r.db == nil {
		return cashflow.Account{}, errors.New("cashflow repo: nil db")
	}
	var account cashflow.Account
	err := r.db.QueryRowContext(ctx, `
SELECT cash_balance, online_balance, total_balance
FROM cash_flow
WHERE id = $1`, accountRowID).Scan(&account.CashBalance, &account.OnlineBalance, &account.TotalBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return cashflow.Account{}, nil
	}
	if err != nil {
		return cashflow.Account{}, err
	}
	return account, nil
}

// Credit adds received money to the buckets.
func (r *AccountRepository) Credit(ctx context.Context, cash, online int64) (cashflow.Account, error) {
	if r == nil || r.db == nil {
		return cashflow.Account{}, errors.New("cashflow repo: nil db")
	}
	return applyDelta(ctx, r.db, cash, online)
}

// Debit removes paid-out money, clamping each bucket at zero.
func (r *AccountRepository) Debit(ctx context.Context, cash, online int64) (cashflow.Account, error) {
	if r == nil || r.db == nil {
		return cashflow.Account{}, errors.New("cashflow repo: nil db")
	}
	return applyDelta(ctx, r.db, -cash, -online)
}

// CommitAdjustment inserts the synthetic ledger entry and folds the bucket
// deltas into the account in one transaction.
func (r *AccountRepository) CommitAdjustment(ctx context.Context, cashDelta, onlineDelta int64, entry ledger.Entry) (cashflow.Account, error) {
	if r == nil || r.db == nil {
		return cashflow.Account{}, errors.New("cashflow repo: nil db")
	}
	if err := entry.Validate(); err != nil {
		return cashflow.Account{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return cashflow.Account{}, err
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, entry.EntityName); err != nil {
		_ = tx.Rollback()
		return cashflow.Account{}, err
	}

	var sum sql.NullInt64
	err = tx.QueryRowContext(ctx, `
SELECT SUM(amount)
FROM ledger_entries
WHERE entity_name = $1 AND id <> $2`, entry.EntityName, entry.ID).Scan(&sum)
	if err != nil {
		_ = tx.Rollback()
		return cashflow.Account{}, err
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
		_ = tx.Rollback()
		return cashflow.Account{}, err
	}

	account, err := applyDelta(ctx, tx, cashDelta, onlineDelta)
	if err != nil {
		_ = tx.Rollback()
		return cashflow.Account{}, err
	}
	if err := tx.Commit(); err != nil {
		return cashflow.Account{}, err
	}
	return account, nil
}

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// applyDelta folds signed bucket deltas into the singleton row in one
// statement, clamping each bucket at zero.
func applyDelta(ctx context.Context, db rowQueryer, cashDelta, onlineDelta int64) (cashflow.Account, error) {
	var account cashflow.Account
	err := db.QueryRowContext(ctx, `
INSERT INTO cash_flow (id, cash_balance, online_balance, total_balance, updated_at)
VALUES ($1, GREATEST(0, $2), GREATEST(0, $3), GREATEST(0, $2) + GREATEST(0, $3), NOW())
ON CONFLICT (id) DO UPDATE SET
	cash_balance = GREATEST(0, cash_flow.cash_balance + $2),
	online_balance = GREATEST(0, cash_flow.online_balance + $3),
	total_balance = GREATEST(0, cash_flow.cash_balance + $2) + GREATEST(0, cash_flow.online_balance + $3),
	updated_at = NOW()
RETURNING cash_balance, online_balance, total_balance`,
		accountRowID, cashDelta, onlineDelta).Scan(&account.CashBalance, &account.OnlineBalance, &account.TotalBalance)
	if err != nil {
		return cashflow.Account{}, err
	}
	return account, nil
}
