package integration_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	lockapp "trade-ledger/internal/cagelock/application"
	cagelock "trade-ledger/internal/cagelock/domain"
	lockmem "trade-ledger/internal/cagelock/infrastructure/memory"
	cashapp "trade-ledger/internal/cashflow/application"
	cashflow "trade-ledger/internal/cashflow/domain"
	cashmem "trade-ledger/internal/cashflow/infrastructure/memory"
	docapp "trade-ledger/internal/documents/application"
	documents "trade-ledger/internal/documents/domain"
	docmem "trade-ledger/internal/documents/infrastructure/memory"
	ledgerapp "trade-ledger/internal/ledger/application"
	ledgermem "trade-ledger/internal/ledger/infrastructure/memory"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type tradingDay struct {
	issue  *docapp.IssueService
	ledger *ledgerapp.Service
	cash   *cashapp.Service
	locks  *lockapp.Manager
	store  *docmem.DocumentStore
}

func newTradingDay(t *testing.T, now time.Time) *tradingDay {
	t.Helper()

	entries := ledgermem.NewLedgerRepository()
	cashRepo := cashmem.NewAccountRepository()

	ledgerService, err := ledgerapp.NewService(entries)
	if err != nil {
		t.Fatalf("ledger service: %v", err)
	}
	adjustments, err := cashmem.NewAdjustmentStore(entries, cashRepo)
	if err != nil {
		t.Fatalf("adjustment store: %v", err)
	}
	cashService, err := cashapp.NewService(cashRepo, adjustments, docapp.UUIDGenerator{}, fixedClock{at: now})
	if err != nil {
		t.Fatalf("cash flow service: %v", err)
	}
	store, err := docmem.NewDocumentStore(entries, cashRepo)
	if err != nil {
		t.Fatalf("document store: %v", err)
	}
	locks, err := lockapp.NewManager(lockmem.NewLockRepository(), fixedClock{at: now})
	if err != nil {
		t.Fatalf("lock manager: %v", err)
	}
	issue, err := docapp.NewIssueService(store, store, locks, nil, docapp.UUIDGenerator{},
		fixedClock{at: now}, nil, 1)
	if err != nil {
		t.Fatalf("issue service: %v", err)
	}

	return &tradingDay{issue: issue, ledger: ledgerService, cash: cashService, locks: locks, store: store}
}

// The full loop of one trading day: the owner banks an opening float,
// buys stock from a vendor on a challan, sells one cage on an invoice,
// and every moving part stays consistent with every other.
func TestTradingDayClosedLoop(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	day := newTradingDay(t, now)

	if _, err := day.cash.AdjustManually(ctx, cashapp.Adjustment{
		Bucket:    cashflow.BucketCash,
		Direction: cashflow.DirectionAdd,
		Amount:    5000,
		Reason:    "opening float",
	}); err != nil {
		t.Fatalf("opening float: %v", err)
	}

	challan, err := day.issue.IssuePurchase(ctx, docapp.PurchaseInput{
		Date:       "2024-03-01",
		VendorName: "Raju Poultry",
		RatePerKg:  decimal.NewFromInt(80),
		Cages: []documents.CageLine{
			{CageNo: "C1", BirdCount: 50, WeightKg: decimal.NewFromInt(20)},
			{CageNo: "C2", BirdCount: 40, WeightKg: decimal.NewFromInt(15)},
		},
		AmountPaying: decimal.NewFromInt(1000),
		CashPaid:     decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("issue purchase: %v", err)
	}
	if challan.TotalAmount != 2800 || challan.NewDue != 1800 {
		t.Fatalf("challan totals = %d due %d, want 2800 due 1800", challan.TotalAmount, challan.NewDue)
	}

	account, err := day.cash.Read(ctx)
	if err != nil {
		t.Fatalf("read account: %v", err)
	}
	if account.CashBalance != 4000 {
		t.Fatalf("cash after purchase = %d, want 4000", account.CashBalance)
	}

	due, _, err := day.ledger.Balance(ctx, "Raju Poultry")
	if err != nil {
		t.Fatalf("vendor balance: %v", err)
	}
	if due != 1800 {
		t.Fatalf("vendor due = %d, want 1800", due)
	}

	invoice, err := day.issue.IssueSale(ctx, docapp.SaleInput{
		Date:         "2024-03-01",
		CustomerName: "Anil Chicken Centre",
		SellRate:     decimal.NewFromInt(120),
		Cages: []documents.InvoiceLine{{
			CageNo:        "C1",
			BirdCount:     50,
			WeightKg:      decimal.NewFromInt(20),
			SourceDate:    "2024-03-01",
			FromChallanID: challan.ID,
			PurchaseRate:  decimal.NewFromInt(80),
		}},
		AmountPaying: decimal.NewFromInt(2000),
		OnlinePaid:   decimal.NewFromInt(2000),
	})
	if err != nil {
		t.Fatalf("issue sale: %v", err)
	}
	if invoice.TotalAmount != 2400 || invoice.NewDue != 400 {
		t.Fatalf("invoice totals = %d due %d, want 2400 due 400", invoice.TotalAmount, invoice.NewDue)
	}
	if invoice.ProfitLoss != 800 {
		t.Fatalf("invoice profit = %d, want 800", invoice.ProfitLoss)
	}

	account, err = day.cash.Read(ctx)
	if err != nil {
		t.Fatalf("read account: %v", err)
	}
	if account.CashBalance != 4000 || account.OnlineBalance != 2000 || account.TotalBalance != 6000 {
		t.Fatalf("account after sale = %+v, want 4000/2000/6000", account)
	}

	held, err := day.locks.IsLocked(ctx, cagelock.Key{CageNo: "C1", SourceDate: "2024-03-01"})
	if err != nil {
		t.Fatalf("is locked: %v", err)
	}
	if !held {
		t.Fatal("sold cage C1 should be locked")
	}

	units, err := day.issue.ListAvailableUnits(ctx, "2024-03-01")
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	if len(units) != 1 || units[0].CageNo != "C2" {
		t.Fatalf("available units = %+v, want only C2", units)
	}

	got, err := day.store.GetInvoice(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if got.InvoiceNumber != "I1_AnilChickenCentre_01-03-2024_1" {
		t.Fatalf("invoice number = %q", got.InvoiceNumber)
	}
}

// A second invoice claiming an already sold cage must fail without leaving
// any trace: no ledger entries, no cash movement, no extra locks.
func TestContestedCageLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	day := newTradingDay(t, now)

	if _, err := day.issue.IssuePurchase(ctx, docapp.PurchaseInput{
		Date:       "2024-03-01",
		VendorName: "Raju Poultry",
		RatePerKg:  decimal.NewFromInt(80),
		Cages:      []documents.CageLine{{CageNo: "C1", BirdCount: 50, WeightKg: decimal.NewFromInt(20)}},
	}); err != nil {
		t.Fatalf("issue purchase: %v", err)
	}

	line := documents.InvoiceLine{
		CageNo:     "C1",
		BirdCount:  50,
		WeightKg:   decimal.NewFromInt(20),
		SourceDate: "2024-03-01",
	}
	if _, err := day.issue.IssueSale(ctx, docapp.SaleInput{
		Date:         "2024-03-01",
		CustomerName: "Anil Chicken Centre",
		SellRate:     decimal.NewFromInt(120),
		Cages:        []documents.InvoiceLine{line},
	}); err != nil {
		t.Fatalf("first sale: %v", err)
	}

	_, err := day.issue.IssueSale(ctx, docapp.SaleInput{
		Date:         "2024-03-01",
		CustomerName: "Sunil Traders",
		SellRate:     decimal.NewFromInt(125),
		Cages:        []documents.InvoiceLine{line},
	})
	if !errors.Is(err, cagelock.ErrAlreadyLocked) {
		t.Fatalf("contested sale error = %v, want ErrAlreadyLocked", err)
	}
	var conflict *cagelock.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("contested sale error = %T, want ConflictError", err)
	}
	if conflict.Key.CageNo != "C1" || conflict.HeldBy == "" {
		t.Fatalf("conflict = %+v, want C1 with holder", conflict)
	}

	entries, err := day.ledger.EntriesFor(ctx, "Sunil Traders")
	if err != nil {
		t.Fatalf("loser entries: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("loser has %d ledger entries, want none", len(entries))
	}

	account, err := day.cash.Read(ctx)
	if err != nil {
		t.Fatalf("read account: %v", err)
	}
	if account.TotalBalance != 0 {
		t.Fatalf("account moved on failed sale: %+v", account)
	}

	locks, err := day.locks.Locks(ctx)
	if err != nil {
		t.Fatalf("list locks: %v", err)
	}
	if len(locks) != 1 {
		t.Fatalf("lock count = %d, want 1", len(locks))
	}
}

// Overwriting a challan for the same vendor and date replaces its ledger
// entries instead of stacking a second balance on top.
func TestChallanOverwriteReplacesLedger(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	day := newTradingDay(t, now)

	input := docapp.PurchaseInput{
		Date:       "2024-03-01",
		VendorName: "Raju Poultry",
		RatePerKg:  decimal.NewFromInt(80),
		Cages:      []documents.CageLine{{CageNo: "C1", BirdCount: 50, WeightKg: decimal.NewFromInt(20)}},
	}
	first, err := day.issue.IssuePurchase(ctx, input)
	if err != nil {
		t.Fatalf("first purchase: %v", err)
	}

	if _, err := day.issue.IssuePurchase(ctx, input); !errors.Is(err, documents.ErrChallanExists) {
		t.Fatalf("duplicate purchase error = %v, want ErrChallanExists", err)
	}

	input.Cages = []documents.CageLine{{CageNo: "C1", BirdCount: 60, WeightKg: decimal.NewFromInt(25)}}
	input.Overwrite = true
	second, err := day.issue.IssuePurchase(ctx, input)
	if err != nil {
		t.Fatalf("overwrite purchase: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("overwrite minted new id %s, want %s", second.ID, first.ID)
	}
	if second.TotalAmount != 2000 {
		t.Fatalf("overwrite total = %d, want 2000", second.TotalAmount)
	}

	due, _, err := day.ledger.Balance(ctx, "Raju Poultry")
	if err != nil {
		t.Fatalf("vendor balance: %v", err)
	}
	if due != 2000 {
		t.Fatalf("vendor due after overwrite = %d, want 2000", due)
	}

	entries, err := day.ledger.EntriesFor(ctx, "Raju Poultry")
	if err != nil {
		t.Fatalf("vendor entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("vendor has %d entries after overwrite, want 1", len(entries))
	}
}
