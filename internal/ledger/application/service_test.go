package application

import (
	"context"
	"errors"
	"testing"
	"time"

	ledger "trade-ledger/internal/ledger/domain"
	"trade-ledger/internal/ledger/infrastructure/memory"
)

func newService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService(memory.NewLedgerRepository())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func TestAppendTracksRunningBalance(t *testing.T) {
	ctx := context.Background()
	service := newService(t)

	_, err := service.Append(ctx, ledger.Entry{
		ID: "e1", Date: "2024-01-01", EntityName: "Ramesh", EntityType: ledger.EntityVendor,
		Kind: ledger.KindPurchaseDocument, Amount: 5000, ReferenceID: "dc-1",
	})
	if err != nil {
		t.Fatalf("append purchase: %v", err)
	}
	_, err = service.Append(ctx, ledger.Entry{
		ID: "e2", Date: "2024-01-02", EntityName: "Ramesh", EntityType: ledger.EntityVendor,
		Kind: ledger.KindPayment, Amount: -2000, PaymentAmount: 2000, PaymentMode: ledger.PayCash,
		ReferenceID: "dc-1",
	})
	if err != nil {
		t.Fatalf("append payment: %v", err)
	}

	balance, err := service.CurrentBalance(ctx, "Ramesh")
	if err != nil {
		t.Fatalf("current balance: %v", err)
	}
	if balance != 3000 {
		t.Fatalf("balance = %d, want 3000", balance)
	}

	due, advance, err := service.Balance(ctx, "Ramesh")
	if err != nil {
		t.Fatalf("balance split: %v", err)
	}
	if due != 3000 || advance != 0 {
		t.Fatalf("due/advance = %d/%d, want 3000/0", due, advance)
	}
}

func TestDueAndAdvanceNeverBothNonZero(t *testing.T) {
	ctx := context.Background()
	service := newService(t)

	amounts := []int64{5000, -2000, -4000, 500}
	for i, amount := range amounts {
		entry := ledger.Entry{
			ID: "e" + string(rune('a'+i)), Date: "2024-01-01", EntityName: "Sunil",
			EntityType: ledger.EntityCustomer, Kind: ledger.KindSaleDocument, Amount: amount,
			ReferenceID: "inv-1", CreatedAt: time.Date(2024, 1, 1, 10, i, 0, 0, time.UTC),
		}
		if amount < 0 {
			entry.Kind = ledger.KindPayment
			entry.PaymentAmount = -amount
			entry.PaymentMode = ledger.PayOnline
		}
		if _, err := service.Append(ctx, entry); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}

		due, advance, err := service.Balance(ctx, "Sunil")
		if err != nil {
			t.Fatalf("balance split: %v", err)
		}
		if due != 0 && advance != 0 {
			t.Fatalf("due=%d and advance=%d both non-zero after entry %d", due, advance, i)
		}
	}

	// 5000-2000-4000+500 = -500: the business holds an advance.
	due, advance, err := service.Balance(ctx, "Sunil")
	if err != nil {
		t.Fatalf("balance split: %v", err)
	}
	if due != 0 || advance != 500 {
		t.Fatalf("due/advance = %d/%d, want 0/500", due, advance)
	}
}

func TestAppendValidation(t *testing.T) {
	ctx := context.Background()
	service := newService(t)

	cases := []struct {
		name  string
		entry ledger.Entry
		want  error
	}{
		{"blank entity", ledger.Entry{ID: "x", Date: "2024-01-01", Kind: ledger.KindPayment}, ledger.ErrBlankEntityName},
		{"bad date", ledger.Entry{ID: "x", Date: "2024-13-40", EntityName: "A", EntityType: ledger.EntityVendor, Kind: ledger.KindPurchaseDocument}, ledger.ErrInvalidDate},
		{"payment without amount", ledger.Entry{ID: "x", Date: "2024-01-01", EntityName: "A", EntityType: ledger.EntityVendor, Kind: ledger.KindPayment}, ledger.ErrMissingPaymentAmount},
	}
	for _, tc := range cases {
		_, err := service.Append(ctx, tc.entry)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestReappendSameIDOverwritesWithoutDoubleCount(t *testing.T) {
	ctx := context.Background()
	service := newService(t)

	original := ledger.Entry{
		ID: "dc-entry", Date: "2024-01-01", EntityName: "Ramesh", EntityType: ledger.EntityVendor,
		Kind: ledger.KindPurchaseDocument, Amount: 5000, ReferenceID: "dc-1",
	}
	if _, err := service.Append(ctx, original); err != nil {
		t.Fatalf("append: %v", err)
	}

	original.Amount = 6200
	if _, err := service.Append(ctx, original); err != nil {
		t.Fatalf("re-append: %v", err)
	}

	balance, err := service.CurrentBalance(ctx, "Ramesh")
	if err != nil {
		t.Fatalf("current balance: %v", err)
	}
	if balance != 6200 {
		t.Fatalf("balance = %d, want 6200 (no double count)", balance)
	}

	entries, err := service.EntriesFor(ctx, "Ramesh")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entry count = %d, want 1", len(entries))
	}
}

func TestSameDayTieBrokenByCreatedAt(t *testing.T) {
	ctx := context.Background()
	service := newService(t)

	early := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	late := time.Date(2024, 2, 1, 17, 0, 0, 0, time.UTC)

	if _, err := service.Append(ctx, ledger.Entry{
		ID: "m1", Date: "2024-02-01", EntityName: "Kiran", EntityType: ledger.EntityCustomer,
		Kind: ledger.KindSaleDocument, Amount: 1000, ReferenceID: "inv-1", CreatedAt: early,
	}); err != nil {
		t.Fatalf("append morning: %v", err)
	}
	if _, err := service.Append(ctx, ledger.Entry{
		ID: "m2", Date: "2024-02-01", EntityName: "Kiran", EntityType: ledger.EntityCustomer,
		Kind: ledger.KindPayment, Amount: -400, PaymentAmount: 400, PaymentMode: ledger.PayCash,
		ReferenceID: "inv-1", CreatedAt: late,
	}); err != nil {
		t.Fatalf("append evening: %v", err)
	}

	balance, err := service.CurrentBalance(ctx, "Kiran")
	if err != nil {
		t.Fatalf("current balance: %v", err)
	}
	if balance != 600 {
		t.Fatalf("balance = %d, want 600 from the later same-day entry", balance)
	}
}

func TestBackdatedAppendReflectedInCurrentBalance(t *testing.T) {
	ctx := context.Background()
	service := newService(t)

	if _, err := service.Append(ctx, ledger.Entry{
		ID: "b1", Date: "2024-05-10", EntityName: "Ramesh", EntityType: ledger.EntityVendor,
		Kind: ledger.KindPurchaseDocument, Amount: 5000, ReferenceID: "dc-1",
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	// A payment recorded after the fact for an earlier day. The later
	// entry's stored snapshot stays at 5000, but the current balance must
	// still absorb the backdated amount.
	if _, err := service.Append(ctx, ledger.Entry{
		ID: "b2", Date: "2024-05-05", EntityName: "Ramesh", EntityType: ledger.EntityVendor,
		Kind: ledger.KindPayment, Amount: -2000, PaymentAmount: 2000, PaymentMode: ledger.PayCash,
		ReferenceID: "dc-0",
	}); err != nil {
		t.Fatalf("append backdated: %v", err)
	}

	balance, err := service.CurrentBalance(ctx, "Ramesh")
	if err != nil {
		t.Fatalf("current balance: %v", err)
	}
	if balance != 3000 {
		t.Fatalf("balance = %d, want 3000 including the backdated payment", balance)
	}
}

func TestAllEntriesFilterIsPureProjection(t *testing.T) {
	ctx := context.Background()
	service := newService(t)

	seed := []ledger.Entry{
		{ID: "v1", Date: "2024-03-01", EntityName: "Ramesh", EntityType: ledger.EntityVendor, Kind: ledger.KindPurchaseDocument, Amount: 100, ReferenceID: "dc-1"},
		{ID: "c1", Date: "2024-03-01", EntityName: "Sunil", EntityType: ledger.EntityCustomer, Kind: ledger.KindSaleDocument, Amount: 200, ReferenceID: "inv-1"},
		{ID: "c2", Date: "2024-03-02", EntityName: "Sunita", EntityType: ledger.EntityCustomer, Kind: ledger.KindPayment, Amount: -50, PaymentAmount: 50, PaymentMode: ledger.PayCash, ReferenceID: "inv-1"},
	}
	for _, entry := range seed {
		if _, err := service.Append(ctx, entry); err != nil {
			t.Fatalf("append %s: %v", entry.ID, err)
		}
	}

	customers, err := service.AllEntries(ctx, ledger.Filter{EntityType: ledger.EntityCustomer})
	if err != nil {
		t.Fatalf("filter by type: %v", err)
	}
	if len(customers) != 2 {
		t.Fatalf("customer entries = %d, want 2", len(customers))
	}

	named, err := service.AllEntries(ctx, ledger.Filter{NameContains: "sunil"})
	if err != nil {
		t.Fatalf("filter by name: %v", err)
	}
	if len(named) != 1 || named[0].ID != "c1" {
		t.Fatalf("substring filter returned %v", named)
	}

	all, err := service.AllEntries(ctx, ledger.Filter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("entries = %d after filtering, want 3 (filter must not mutate)", len(all))
	}
}

func TestEntitySummaries(t *testing.T) {
	ctx := context.Background()
	service := newService(t)

	seed := []ledger.Entry{
		{ID: "s1", Date: "2024-04-01", EntityName: "Babu", EntityType: ledger.EntityVendor, Kind: ledger.KindPurchaseDocument, Amount: 900, ReferenceID: "dc-1"},
		{ID: "s2", Date: "2024-04-03", EntityName: "Anil", EntityType: ledger.EntityVendor, Kind: ledger.KindPurchaseDocument, Amount: 700, ReferenceID: "dc-2"},
		{ID: "s3", Date: "2024-04-04", EntityName: "Babu", EntityType: ledger.EntityVendor, Kind: ledger.KindPayment, Amount: -1000, PaymentAmount: 1000, PaymentMode: ledger.PayOnline, ReferenceID: "dc-1"},
	}
	for _, entry := range seed {
		if _, err := service.Append(ctx, entry); err != nil {
			t.Fatalf("append %s: %v", entry.ID, err)
		}
	}

	summaries, err := service.EntitySummaries(ctx, ledger.EntityVendor)
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(summaries))
	}
	if summaries[0].Name != "Anil" || summaries[1].Name != "Babu" {
		t.Fatalf("summaries not sorted by name: %v", summaries)
	}
	babu := summaries[1]
	if babu.Due != 0 || babu.Advance != 100 || babu.LastDate != "2024-04-04" {
		t.Fatalf("babu summary = %+v, want advance 100 on 2024-04-04", babu)
	}
}
