package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	lockapp "trade-ledger/internal/cagelock/application"
	cagelock "trade-ledger/internal/cagelock/domain"
	documents "trade-ledger/internal/documents/domain"
	ledger "trade-ledger/internal/ledger/domain"
	"trade-ledger/internal/money"
)

// IDGenerator produces document ids.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random UUIDs.
type UUIDGenerator struct{}

// NewID returns a random UUID string.
func (UUIDGenerator) NewID() string { return uuid.NewString() }

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// PurchaseInput is a challan issuance request. Cage lines may arrive
// structured, as pasted bulk text, or both; the two sets concatenate.
type PurchaseInput struct {
	Date         string
	VendorName   string
	RatePerKg    decimal.Decimal
	Cages        []documents.CageLine
	CageText     string
	AmountPaying decimal.Decimal
	CashPaid     decimal.Decimal
	OnlinePaid   decimal.Decimal
	Overwrite    bool
}

// SaleInput is an invoice issuance request.
type SaleInput struct {
	Date         string
	CustomerName string
	SellRate     decimal.Decimal
	Cages        []documents.InvoiceLine
	AmountPaying decimal.Decimal
	CashPaid     decimal.Decimal
	OnlinePaid   decimal.Decimal
}

// AvailableUnit is one purchased cage not yet claimed by any invoice.
type AvailableUnit struct {
	CageNo       string          `json:"cageNo"`
	SourceDate   string          `json:"sourceDate"`
	BirdCount    int             `json:"birdCount"`
	WeightKg     decimal.Decimal `json:"weightKg"`
	VendorName   string          `json:"vendorName"`
	ChallanID    string          `json:"challanId"`
	PurchaseRate decimal.Decimal `json:"purchaseRate"`
}

// IssueService runs the document issuance workflow: validate, total, claim
// inventory locks, then commit document, ledger entries and cash movement
// as one unit. Nothing is persisted before the commit step.
type IssueService struct {
	repo           documents.Repository
	commits        documents.CommitStore
	locks          *lockapp.Manager
	publisher      Publisher
	ids            IDGenerator
	clock          Clock
	logger         *log.Logger
	invoiceVersion int
}

// NewIssueService constructs the workflow. publisher may be nil when no
// event sink is configured.
func NewIssueService(
	repo documents.Repository,
	commits documents.CommitStore,
	locks *lockapp.Manager,
	publisher Publisher,
	ids IDGenerator,
	clock Clock,
	logger *log.Logger,
	invoiceVersion int,
) (*IssueService, error) {
	if repo == nil || commits == nil {
		return nil, errors.New("issue service: nil document store")
	}
	if locks == nil {
		return nil, errors.New("issue service: nil lock manager")
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	if invoiceVersion < 1 {
		invoiceVersion = 1
	}
	return &IssueService{
		repo:           repo,
		commits:        commits,
		locks:          locks,
		publisher:      publisher,
		ids:            ids,
		clock:          clock,
		logger:         logger,
		invoiceVersion: invoiceVersion,
	}, nil
}

// IssuePurchase records an inbound delivery challan. One challan exists per
// vendor per date; a second attempt fails with ErrChallanExists unless
// Overwrite is set, in which case the replacement reuses the original id
// and creation time so the ledger entries keyed to the document supersede
// rather than double-count.
func (s *IssueService) IssuePurchase(ctx context.Context, in PurchaseInput) (documents.Challan, error) {
	lines := collectCageLines(in.Cages, in.CageText)
	if err := validateDocumentInput(in.Date, in.VendorName, in.RatePerKg, len(lines)); err != nil {
		return documents.Challan{}, err
	}
	payment, err := resolvePayment(in.AmountPaying, in.CashPaid, in.OnlinePaid)
	if err != nil {
		return documents.Challan{}, err
	}

	existing, err := s.repo.FindChallanByVendorAndDate(ctx, in.Date, in.VendorName)
	if err != nil {
		return documents.Challan{}, err
	}
	if existing != nil && !in.Overwrite {
		return documents.Challan{}, documents.ErrChallanExists
	}

	now := s.clock.Now().UTC()
	id := "challan-" + s.ids.NewID()
	createdAt := now
	if existing != nil {
		id = existing.ID
		createdAt = existing.CreatedAt
	}

	units := make([]money.WeighedUnit, len(lines))
	for i, line := range lines {
		units[i] = money.WeighedUnit{Count: line.BirdCount, WeightKg: line.WeightKg}
	}
	totals := money.DocumentTotals(units, in.RatePerKg)

	challan := documents.Challan{
		ID:            id,
		Date:          in.Date,
		VendorName:    in.VendorName,
		RatePerKg:     in.RatePerKg,
		Cages:         lines,
		TotalBirds:    totals.Count,
		TotalWeightKg: totals.WeightKg,
		TotalAmount:   totals.Amount,
		AmountPaying:  payment.Total,
		PaymentMode:   payment.Mode,
		CashAmount:    payment.Cash,
		OnlineAmount:  payment.Online,
		CreatedAt:     createdAt,
		UpdatedAt:     now,
	}

	entries := []ledger.Entry{
		{
			ID:          "ledger_dc_" + id,
			Date:        in.Date,
			EntityName:  in.VendorName,
			EntityType:  ledger.EntityVendor,
			Kind:        ledger.KindPurchaseDocument,
			Description: fmt.Sprintf("DC - %d birds, %s kg @ %s/kg", totals.Count, totals.WeightKg.String(), in.RatePerKg.String()),
			Amount:      totals.Amount,
			ReferenceID: id,
			CreatedAt:   now,
		},
	}
	var delta *documents.CashDelta
	if payment.Total > 0 {
		entries = append(entries, ledger.Entry{
			ID:            "ledger_payment_" + id,
			Date:          in.Date,
			EntityName:    in.VendorName,
			EntityType:    ledger.EntityVendor,
			Kind:          ledger.KindPayment,
			Description:   fmt.Sprintf("Payment with DC (%s)", payment.Mode),
			Amount:        -payment.Total,
			PaymentAmount: payment.Total,
			PaymentMode:   payment.Mode,
			ReferenceID:   id,
			CreatedAt:     now.Add(time.Millisecond),
		})
		delta = &documents.CashDelta{Cash: payment.Cash, Online: payment.Online, Direction: documents.CashDebit}
	}

	committed, err := s.commits.CommitPurchase(ctx, challan, entries, delta)
	if err != nil {
		return documents.Challan{}, err
	}

	s.publish(ctx, DocumentIssued{
		Kind:        "challan",
		DocumentID:  committed.ID,
		EntityName:  committed.VendorName,
		Date:        committed.Date,
		TotalAmount: committed.TotalAmount,
		AmountPaid:  committed.AmountPaying,
		OccurredAt:  now,
	})
	return committed, nil
}

// IssueSale records an outbound invoice. Every cage line drawn from a
// recorded challan is locked for this invoice before anything is written;
// a conflict on any line releases the locks this call acquired and returns
// the contested unit, leaving no trace of the attempt.
func (s *IssueService) IssueSale(ctx context.Context, in SaleInput) (documents.Invoice, error) {
	if err := validateDocumentInput(in.Date, in.CustomerName, in.SellRate, len(in.Cages)); err != nil {
		return documents.Invoice{}, err
	}
	for _, line := range in.Cages {
		if !line.Valid() {
			return documents.Invoice{}, documents.Invalid("each cage needs a number, a positive bird count and a positive weight")
		}
	}
	payment, err := resolvePayment(in.AmountPaying, in.CashPaid, in.OnlinePaid)
	if err != nil {
		return documents.Invoice{}, err
	}

	keys, err := lockKeys(in.Cages)
	if err != nil {
		return documents.Invoice{}, err
	}

	now := s.clock.Now().UTC()
	id := "invoice-" + s.ids.NewID()

	acquired := make([]cagelock.Key, 0, len(keys))
	for _, key := range keys {
		if _, err := s.locks.TryLock(ctx, key, id, in.CustomerName); err != nil {
			s.release(ctx, acquired)
			return documents.Invoice{}, err
		}
		acquired = append(acquired, key)
	}

	units := make([]money.WeighedUnit, len(in.Cages))
	rates := make([]decimal.Decimal, 0, len(in.Cages))
	for i, line := range in.Cages {
		units[i] = money.WeighedUnit{Count: line.BirdCount, WeightKg: line.WeightKg}
		if line.PurchaseRate.IsPositive() {
			rates = append(rates, line.PurchaseRate)
		}
	}
	totals := money.DocumentTotals(units, in.SellRate)
	purchaseRate := money.MeanDistinctRate(rates)
	profit := int64(0)
	if len(rates) > 0 {
		profit = money.ProfitLoss(totals.WeightKg, in.SellRate, purchaseRate)
	}

	invoice := documents.Invoice{
		ID:            id,
		InvoiceNumber: documents.InvoiceNumber(in.CustomerName, in.Date, s.invoiceVersion),
		Date:          in.Date,
		CustomerName:  in.CustomerName,
		Cages:         in.Cages,
		TotalBirds:    totals.Count,
		TotalWeightKg: totals.WeightKg,
		SellRate:      in.SellRate,
		TotalAmount:   totals.Amount,
		PaymentMode:   payment.Mode,
		CashPayment:   payment.Cash,
		OnlinePayment: payment.Online,
		TotalPayment:  payment.Total,
		ProfitLoss:    profit,
		PurchaseRate:  purchaseRate,
		Version:       s.invoiceVersion,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	entries := []ledger.Entry{
		{
			ID:          "ledger_invoice_" + id,
			Date:        in.Date,
			EntityName:  in.CustomerName,
			EntityType:  ledger.EntityCustomer,
			Kind:        ledger.KindSaleDocument,
			Description: fmt.Sprintf("Invoice %s - %d birds, %s kg @ %s/kg", invoice.InvoiceNumber, totals.Count, totals.WeightKg.String(), in.SellRate.String()),
			Amount:      totals.Amount,
			ReferenceID: id,
			CreatedAt:   now,
		},
	}
	var delta *documents.CashDelta
	if payment.Total > 0 {
		entries = append(entries, ledger.Entry{
			ID:            "ledger_payment_" + id,
			Date:          in.Date,
			EntityName:    in.CustomerName,
			EntityType:    ledger.EntityCustomer,
			Kind:          ledger.KindPayment,
			Description:   fmt.Sprintf("Payment with invoice (%s)", payment.Mode),
			Amount:        -payment.Total,
			PaymentAmount: payment.Total,
			PaymentMode:   payment.Mode,
			ReferenceID:   id,
			CreatedAt:     now.Add(time.Millisecond),
		})
		delta = &documents.CashDelta{Cash: payment.Cash, Online: payment.Online, Direction: documents.CashCredit}
	}

	committed, err := s.commits.CommitSale(ctx, invoice, entries, delta)
	if err != nil {
		s.release(ctx, acquired)
		return documents.Invoice{}, err
	}

	s.publish(ctx, DocumentIssued{
		Kind:        "invoice",
		DocumentID:  committed.ID,
		EntityName:  committed.CustomerName,
		Date:        committed.Date,
		TotalAmount: committed.TotalAmount,
		AmountPaid:  committed.TotalPayment,
		OccurredAt:  now,
	})
	return committed, nil
}

// ListAvailableUnits returns the cages purchased on sourceDate that no
// invoice has claimed yet.
func (s *IssueService) ListAvailableUnits(ctx context.Context, sourceDate string) ([]AvailableUnit, error) {
	if !ledger.ValidDate(sourceDate) {
		return nil, documents.Invalid("source date must be YYYY-MM-DD")
	}
	challans, err := s.repo.ChallansByDate(ctx, sourceDate)
	if err != nil {
		return nil, err
	}
	locks, err := s.locks.Locks(ctx)
	if err != nil {
		return nil, err
	}
	held := make(map[string]struct{}, len(locks))
	for _, lock := range locks {
		held[lock.Key.String()] = struct{}{}
	}

	units := make([]AvailableUnit, 0)
	for _, challan := range challans {
		for _, cage := range challan.Cages {
			key := cagelock.Key{CageNo: cage.CageNo, SourceDate: challan.Date}
			if _, taken := held[key.String()]; taken {
				continue
			}
			units = append(units, AvailableUnit{
				CageNo:       cage.CageNo,
				SourceDate:   challan.Date,
				BirdCount:    cage.BirdCount,
				WeightKg:     cage.WeightKg,
				VendorName:   challan.VendorName,
				ChallanID:    challan.ID,
				PurchaseRate: challan.RatePerKg,
			})
		}
	}
	return units, nil
}

func (s *IssueService) publish(ctx context.Context, event DocumentIssued) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishDocumentIssued(ctx, event); err != nil {
		s.logger.Printf("documents: publish %s %s: %v", event.Kind, event.DocumentID, err)
	}
}

func (s *IssueService) release(ctx context.Context, keys []cagelock.Key) {
	for _, key := range keys {
		if err := s.locks.Unlock(ctx, key); err != nil {
			s.logger.Printf("documents: release lock %s: %v", key, err)
		}
	}
}

// lockKeys validates and deduplicates the lockable lines. Free lines with
// no source date carry no lock. A repeated unit inside one document fails
// before any lock is taken.
func lockKeys(lines []documents.InvoiceLine) ([]cagelock.Key, error) {
	keys := make([]cagelock.Key, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if line.SourceDate == "" {
			continue
		}
		key, err := cagelock.NewKey(line.CageNo, line.SourceDate)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[key.String()]; dup {
			return nil, &cagelock.ConflictError{Key: key, Reason: cagelock.ErrAlreadyClaimedInSession}
		}
		seen[key.String()] = struct{}{}
		keys = append(keys, key)
	}
	return keys, nil
}

func collectCageLines(structured []documents.CageLine, text string) []documents.CageLine {
	lines := make([]documents.CageLine, 0, len(structured))
	for _, line := range structured {
		if line.Valid() {
			lines = append(lines, line)
		}
	}
	return append(lines, documents.ParseCageLines(text)...)
}

func validateDocumentInput(date, entityName string, rate decimal.Decimal, cageCount int) error {
	if !ledger.ValidDate(date) {
		return documents.Invalid("date must be YYYY-MM-DD")
	}
	if entityName == "" {
		return documents.Invalid("entity name must not be blank")
	}
	if !rate.IsPositive() {
		return documents.Invalid("rate must be positive")
	}
	if cageCount == 0 {
		return documents.Invalid("at least one cage line is required")
	}
	return nil
}

// resolvedPayment is the normalized payment attached to a document.
type resolvedPayment struct {
	Total  int64
	Cash   int64
	Online int64
	Mode   ledger.PaymentMode
}

// resolvePayment normalizes the stated amount and its cash/online parts.
// Parts are authoritative; a stated amount that disagrees with non-zero
// parts beyond the split tolerance is rejected. A stated amount with no
// parts is taken as cash.
func resolvePayment(stated, cash, online decimal.Decimal) (resolvedPayment, error) {
	if cash.IsNegative() || online.IsNegative() || stated.IsNegative() {
		return resolvedPayment{}, documents.Invalid("payment amounts must not be negative")
	}
	if cash.IsZero() && online.IsZero() {
		cash = stated
	} else if stated.IsPositive() && !money.PartsMatchTotal(cash, online, stated) {
		return resolvedPayment{}, documents.Invalid("cash and online parts must sum to the amount paying")
	}

	p := resolvedPayment{
		Cash:   money.RoundRupee(cash),
		Online: money.RoundRupee(online),
	}
	p.Total = p.Cash + p.Online
	switch {
	case p.Cash > 0 && p.Online > 0:
		p.Mode = ledger.PaySplit
	case p.Online > 0:
		p.Mode = ledger.PayOnline
	case p.Cash > 0:
		p.Mode = ledger.PayCash
	}
	return p, nil
}
