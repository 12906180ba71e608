package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	cashflow "trade-ledger/internal/cashflow/domain"
	ledger "trade-ledger/internal/ledger/domain"
)

// AdjustmentEntityName is the ledger entity synthetic adjustment entries are
// recorded under, so every balance-affecting event stays traceable.
const AdjustmentEntityName = "Cash Flow Adjustment"

// IDGenerator mints entry ids.
type IDGenerator interface {
	NewID() string
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Adjustment is a manual out-of-band correction to one bucket.
type Adjustment struct {
	Bucket    cashflow.Bucket
	Direction cashflow.Direction
	Amount    int64
	Reason    string
}

// Service owns the cash flow account. All mutation funnels through it; there
// is no ambient global access to the account. Writes delegate to relative
// repository operations or to the adjustment store's unit of work, so the
// service holds no read-modify-write window of its own.
type Service struct {
	repo        cashflow.Repository
	adjustments cashflow.AdjustmentStore
	ids         IDGenerator
	clock       Clock
}

// NewService constructs the cash flow service.
func NewService(repo cashflow.Repository, adjustments cashflow.AdjustmentStore, ids IDGenerator, clock Clock) (*Service, error) {
	if repo == nil {
		return nil, errors.New("cashflow service: nil repository")
	}
	if adjustments == nil {
		return nil, errors.New("cashflow service: nil adjustment store")
	}
	if ids == nil {
		return nil, errors.New("cashflow service: nil id generator")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{repo: repo, adjustments: adjustments, ids: ids, clock: clock}, nil
}

// Read returns the current account snapshot.
func (s *Service) Read(ctx context.Context) (cashflow.Account, error) {
	account, err := s.repo.Get(ctx)
	if err != nil {
		return cashflow.Account{}, err
	}
	return account.Normalized(), nil
}

// ApplyPaymentReceived credits money a customer paid the business.
func (s *Service) ApplyPaymentReceived(ctx context.Context, cash, online int64) (cashflow.Account, error) {
	if cash < 0 || online < 0 {
		return cashflow.Account{}, cashflow.ErrNegativeAmount
	}
	return s.repo.Credit(ctx, cash, online)
}

// ApplyPaymentMade debits money the business paid a vendor, clamping each
// bucket at zero.
func (s *Service) ApplyPaymentMade(ctx context.Context, cash, online int64) (cashflow.Account, error) {
	if cash < 0 || online < 0 {
		return cashflow.Account{}, cashflow.ErrNegativeAmount
	}
	return s.repo.Debit(ctx, cash, online)
}

// AdjustManually applies an out-of-band correction and records a synthetic
// payment-kind ledger entry carrying the reason. The entry and the account
// movement commit as one unit of work; a failure leaves neither behind.
func (s *Service) AdjustManually(ctx context.Context, adjustment Adjustment) (cashflow.Account, error) {
	if adjustment.Amount <= 0 {
		return cashflow.Account{}, cashflow.ErrNegativeAmount
	}
	if strings.TrimSpace(adjustment.Reason) == "" {
		return cashflow.Account{}, cashflow.ErrBlankReason
	}
	switch adjustment.Bucket {
	case cashflow.BucketCash, cashflow.BucketOnline:
	default:
		return cashflow.Account{}, cashflow.ErrInvalidBucket
	}

	var signed int64
	switch adjustment.Direction {
	case cashflow.DirectionAdd:
		signed = adjustment.Amount
	case cashflow.DirectionSubtract:
		signed = -adjustment.Amount
	default:
		return cashflow.Account{}, cashflow.ErrInvalidDirection
	}

	var cashDelta, onlineDelta int64
	mode := ledger.PayCash
	if adjustment.Bucket == cashflow.BucketOnline {
		mode = ledger.PayOnline
		onlineDelta = signed
	} else {
		cashDelta = signed
	}

	now := s.clock.Now().UTC()
	id := s.ids.NewID()
	sign := "+"
	if adjustment.Direction == cashflow.DirectionSubtract {
		sign = "-"
	}
	entry := ledger.Entry{
		ID:            id,
		Date:          now.Format(ledger.DateLayout),
		EntityName:    AdjustmentEntityName,
		EntityType:    ledger.EntityCustomer,
		Kind:          ledger.KindPayment,
		Description:   fmt.Sprintf("%s%d (%s) - %s", sign, adjustment.Amount, strings.ToUpper(string(adjustment.Bucket)), adjustment.Reason),
		Amount:        signed,
		PaymentAmount: adjustment.Amount,
		PaymentMode:   mode,
		ReferenceID:   "adjustment_" + id,
		CreatedAt:     now,
	}
	return s.adjustments.CommitAdjustment(ctx, cashDelta, onlineDelta, entry)
}
