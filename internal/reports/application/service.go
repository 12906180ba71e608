package application

import (
	"context"
	"errors"
	"strings"
	"time"

	cashflow "trade-ledger/internal/cashflow/domain"
	documents "trade-ledger/internal/documents/domain"
	ledgerapp "trade-ledger/internal/ledger/application"
	ledger "trade-ledger/internal/ledger/domain"
)

// DocumentReader lists issued documents for report aggregation.
type DocumentReader interface {
	ListChallans(ctx context.Context) ([]documents.Challan, error)
	ListInvoices(ctx context.Context) ([]documents.Invoice, error)
}

// BalanceReader supplies per-entity balances.
type BalanceReader interface {
	EntitySummaries(ctx context.Context, entityType ledger.EntityType) ([]ledgerapp.EntitySummary, error)
}

// AccountReader supplies the liquidity snapshot.
type AccountReader interface {
	Read(ctx context.Context) (cashflow.Account, error)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ProfitLossReport is the trading margin snapshot the owner checks daily.
type ProfitLossReport struct {
	Date  string `json:"date"`
	Month string `json:"month"`

	// DailyProfit is today's sales minus today's purchases.
	DailyProfit int64 `json:"dailyProfit"`
	// PendingProfit sums the unpaid dues of all invoices.
	PendingProfit int64 `json:"pendingProfit"`
	// ProfitInMarket sums current customer dues.
	ProfitInMarket int64 `json:"profitInMarket"`
	// ExpectedProfit is all-time sales minus all-time purchases.
	ExpectedProfit int64 `json:"expectedProfit"`
	// MonthlyProfit is the month's sales minus the month's purchases.
	MonthlyProfit int64 `json:"monthlyProfit"`
	// MonthlyProfitDue sums unpaid dues of the month's invoices.
	MonthlyProfitDue int64 `json:"monthlyProfitDue"`
	// WithdrawableProfit is liquidity beyond what vendors are owed,
	// floored at zero.
	WithdrawableProfit int64 `json:"withdrawableProfit"`
	// WithdrawableAlert is set when withdrawable profit crosses the
	// configured banking threshold.
	WithdrawableAlert bool `json:"withdrawableAlert"`
}

// ProfitLossService aggregates documents, ledger balances and liquidity
// into the profit and loss report.
type ProfitLossService struct {
	docs     DocumentReader
	balances BalanceReader
	account  AccountReader
	clock    Clock
	cfg      Config
}

// NewProfitLossService constructs the report service.
func NewProfitLossService(docs DocumentReader, balances BalanceReader, account AccountReader, clock Clock, cfg Config) (*ProfitLossService, error) {
	if docs == nil || balances == nil || account == nil {
		return nil, errors.New("profit loss service: nil readers")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ProfitLossService{docs: docs, balances: balances, account: account, clock: clock, cfg: cfg}, nil
}

// Build computes the report for the given month (YYYY-MM). An empty month
// defaults to the current one.
func (s *ProfitLossService) Build(ctx context.Context, month string) (ProfitLossReport, error) {
	now := s.clock.Now().UTC()
	today := now.Format(ledger.DateLayout)
	if month == "" {
		month = now.Format("2006-01")
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		return ProfitLossReport{}, errors.New("reports: month must be YYYY-MM")
	}

	challans, err := s.docs.ListChallans(ctx)
	if err != nil {
		return ProfitLossReport{}, err
	}
	invoices, err := s.docs.ListInvoices(ctx)
	if err != nil {
		return ProfitLossReport{}, err
	}

	report := ProfitLossReport{Date: today, Month: month}
	for _, challan := range challans {
		report.ExpectedProfit -= challan.TotalAmount
		if challan.Date == today {
			report.DailyProfit -= challan.TotalAmount
		}
		if strings.HasPrefix(challan.Date, month) {
			report.MonthlyProfit -= challan.TotalAmount
		}
	}
	for _, invoice := range invoices {
		report.ExpectedProfit += invoice.TotalAmount
		if invoice.Date == today {
			report.DailyProfit += invoice.TotalAmount
		}
		if strings.HasPrefix(invoice.Date, month) {
			report.MonthlyProfit += invoice.TotalAmount
			if invoice.NewDue > 0 {
				report.MonthlyProfitDue += invoice.NewDue
			}
		}
		if invoice.NewDue > 0 {
			report.PendingProfit += invoice.NewDue
		}
	}

	customers, err := s.balances.EntitySummaries(ctx, ledger.EntityCustomer)
	if err != nil {
		return ProfitLossReport{}, err
	}
	for _, customer := range customers {
		report.ProfitInMarket += customer.Due
	}

	vendors, err := s.balances.EntitySummaries(ctx, ledger.EntityVendor)
	if err != nil {
		return ProfitLossReport{}, err
	}
	var vendorDues int64
	for _, vendor := range vendors {
		vendorDues += vendor.Due
	}

	account, err := s.account.Read(ctx)
	if err != nil {
		return ProfitLossReport{}, err
	}
	if surplus := account.TotalBalance - vendorDues; surplus > 0 {
		report.WithdrawableProfit = surplus
	}
	report.WithdrawableAlert = s.cfg.WithdrawableAlertThreshold > 0 &&
		report.WithdrawableProfit > s.cfg.WithdrawableAlertThreshold

	return report, nil
}
