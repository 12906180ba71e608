package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	cashflow "trade-ledger/internal/cashflow/domain"
	"trade-ledger/internal/cashflow/infrastructure/memory"
	ledgerapp "trade-ledger/internal/ledger/application"
	ledger "trade-ledger/internal/ledger/domain"
	ledgermemory "trade-ledger/internal/ledger/infrastructure/memory"
)

type seqIDs struct{ n int64 }

func (s *seqIDs) NewID() string {
	return fmt.Sprintf("id-%03d", atomic.AddInt64(&s.n, 1))
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newFixture(t *testing.T) (*Service, *ledgerapp.Service) {
	t.Helper()
	ledgerRepo := ledgermemory.NewLedgerRepository()
	ledgerService, err := ledgerapp.NewService(ledgerRepo)
	if err != nil {
		t.Fatalf("ledger service: %v", err)
	}
	accountRepo := memory.NewAccountRepository()
	store, err := memory.NewAdjustmentStore(ledgerRepo, accountRepo)
	if err != nil {
		t.Fatalf("adjustment store: %v", err)
	}
	service, err := NewService(accountRepo, store, &seqIDs{},
		fixedClock{now: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("cashflow service: %v", err)
	}
	return service, ledgerService
}

func TestPaymentReceivedCredits(t *testing.T) {
	ctx := context.Background()
	service, _ := newFixture(t)

	account, err := service.ApplyPaymentReceived(ctx, 300, 200)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if account.CashBalance != 300 || account.OnlineBalance != 200 || account.TotalBalance != 500 {
		t.Fatalf("account = %+v, want 300/200/500", account)
	}
}

func TestPaymentMadeClampsAtZero(t *testing.T) {
	ctx := context.Background()
	service, _ := newFixture(t)

	if _, err := service.ApplyPaymentReceived(ctx, 300, 0); err != nil {
		t.Fatalf("seed: %v", err)
	}
	account, err := service.ApplyPaymentMade(ctx, 500, 0)
	if err != nil {
		t.Fatalf("pay vendor: %v", err)
	}
	if account.CashBalance != 0 {
		t.Fatalf("cash = %d, want 0 (clamped, not -200)", account.CashBalance)
	}
	if account.TotalBalance != 0 {
		t.Fatalf("total = %d, want 0", account.TotalBalance)
	}
}

func TestManualAdjustmentPairsLedgerEntry(t *testing.T) {
	ctx := context.Background()
	service, ledgerService := newFixture(t)

	account, err := service.AdjustManually(ctx, Adjustment{
		Bucket:    cashflow.BucketOnline,
		Direction: cashflow.DirectionAdd,
		Amount:    1500,
		Reason:    "bank deposit not captured",
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if account.OnlineBalance != 1500 || account.TotalBalance != 1500 {
		t.Fatalf("account = %+v, want online 1500", account)
	}

	entries, err := ledgerService.EntriesFor(ctx, AdjustmentEntityName)
	if err != nil {
		t.Fatalf("ledger entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1 synthetic entry", len(entries))
	}
	entry := entries[0]
	if entry.Kind != ledger.KindPayment || entry.PaymentAmount != 1500 || entry.PaymentMode != ledger.PayOnline {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.ReferenceID != "adjustment_"+entry.ID {
		t.Fatalf("reference = %q, want adjustment_%s", entry.ReferenceID, entry.ID)
	}
	if entry.Description == "" {
		t.Fatal("description must carry the reason")
	}
}

type brokenCashRepo struct{}

var errAccountUnavailable = errors.New("account row unavailable")

func (brokenCashRepo) Get(ctx context.Context) (cashflow.Account, error) {
	return cashflow.Account{}, nil
}

func (brokenCashRepo) Credit(ctx context.Context, cash, online int64) (cashflow.Account, error) {
	return cashflow.Account{}, errAccountUnavailable
}

func (brokenCashRepo) Debit(ctx context.Context, cash, online int64) (cashflow.Account, error) {
	return cashflow.Account{}, errAccountUnavailable
}

func TestManualAdjustmentFailureLeavesNoEntry(t *testing.T) {
	ctx := context.Background()
	ledgerRepo := ledgermemory.NewLedgerRepository()
	ledgerService, err := ledgerapp.NewService(ledgerRepo)
	if err != nil {
		t.Fatalf("ledger service: %v", err)
	}
	store, err := memory.NewAdjustmentStore(ledgerRepo, brokenCashRepo{})
	if err != nil {
		t.Fatalf("adjustment store: %v", err)
	}
	service, err := NewService(brokenCashRepo{}, store, &seqIDs{},
		fixedClock{now: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("cashflow service: %v", err)
	}

	_, err = service.AdjustManually(ctx, Adjustment{
		Bucket:    cashflow.BucketCash,
		Direction: cashflow.DirectionAdd,
		Amount:    900,
		Reason:    "opening float",
	})
	if !errors.Is(err, errAccountUnavailable) {
		t.Fatalf("adjust err = %v, want account failure", err)
	}

	entries, err := ledgerService.EntriesFor(ctx, AdjustmentEntityName)
	if err != nil {
		t.Fatalf("ledger entries: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %d, want none after a failed adjustment", len(entries))
	}
}

func TestConcurrentMutationsSumExactly(t *testing.T) {
	ctx := context.Background()
	service, ledgerService := newFixture(t)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := service.ApplyPaymentReceived(ctx, 10, 0); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := service.AdjustManually(ctx, Adjustment{
				Bucket:    cashflow.BucketCash,
				Direction: cashflow.DirectionAdd,
				Amount:    5,
				Reason:    "drawer recount",
			}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("mutation: %v", err)
	}

	account, err := service.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if want := int64(workers*10 + workers*5); account.CashBalance != want {
		t.Fatalf("cash = %d, want %d (no update may be lost)", account.CashBalance, want)
	}
	entries, err := ledgerService.EntriesFor(ctx, AdjustmentEntityName)
	if err != nil {
		t.Fatalf("ledger entries: %v", err)
	}
	if len(entries) != workers {
		t.Fatalf("entries = %d, want %d", len(entries), workers)
	}
}

func TestManualAdjustmentValidation(t *testing.T) {
	ctx := context.Background()
	service, _ := newFixture(t)

	cases := []struct {
		name       string
		adjustment Adjustment
		want       error
	}{
		{"zero amount", Adjustment{Bucket: cashflow.BucketCash, Direction: cashflow.DirectionAdd, Reason: "x"}, cashflow.ErrNegativeAmount},
		{"blank reason", Adjustment{Bucket: cashflow.BucketCash, Direction: cashflow.DirectionAdd, Amount: 10, Reason: "  "}, cashflow.ErrBlankReason},
		{"bad bucket", Adjustment{Bucket: "crypto", Direction: cashflow.DirectionAdd, Amount: 10, Reason: "x"}, cashflow.ErrInvalidBucket},
		{"bad direction", Adjustment{Bucket: cashflow.BucketCash, Direction: "halve", Amount: 10, Reason: "x"}, cashflow.ErrInvalidDirection},
	}
	for _, tc := range cases {
		if _, err := service.AdjustManually(ctx, tc.adjustment); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestNegativePartsRejected(t *testing.T) {
	ctx := context.Background()
	service, _ := newFixture(t)

	if _, err := service.ApplyPaymentReceived(ctx, -1, 0); !errors.Is(err, cashflow.ErrNegativeAmount) {
		t.Fatalf("receive: err = %v", err)
	}
	if _, err := service.ApplyPaymentMade(ctx, 0, -1); !errors.Is(err, cashflow.ErrNegativeAmount) {
		t.Fatalf("made: err = %v", err)
	}
}
