package documents

import (
	"time"

	"github.com/shopspring/decimal"

	ledger "trade-ledger/internal/ledger/domain"
)

// InvoiceLine is one sold batch. Lines drawn from a delivery challan carry
// the source document's date and purchase rate; free lines (stock sold
// outside a recorded challan) leave those blank.
type InvoiceLine struct {
	CageNo        string          `json:"cageNo"`
	BirdCount     int             `json:"birdCount"`
	WeightKg      decimal.Decimal `json:"weightKg"`
	SourceDate    string          `json:"sourceDate,omitempty"`
	FromChallanID string          `json:"fromChallanId,omitempty"`
	PurchaseRate  decimal.Decimal `json:"purchaseRate,omitempty"`
}

// Valid reports whether the line names a cage with positive count and weight.
func (l InvoiceLine) Valid() bool {
	return l.CageNo != "" && l.BirdCount > 0 && l.WeightKg.IsPositive()
}

// Invoice is an outbound sale document to a customer.
type Invoice struct {
	ID            string             `json:"id"`
	InvoiceNumber string             `json:"invoiceNumber"`
	Date          string             `json:"date"`
	CustomerName  string             `json:"customerName"`
	Cages         []InvoiceLine      `json:"cages"`
	TotalBirds    int                `json:"totalBirds"`
	TotalWeightKg decimal.Decimal    `json:"totalWeightKg"`
	SellRate      decimal.Decimal    `json:"sellRate"`
	TotalAmount   int64              `json:"totalAmount"`
	PreviousDue   int64              `json:"previousDue"`
	PaymentMode   ledger.PaymentMode `json:"paymentMode,omitempty"`
	CashPayment   int64              `json:"cashPayment"`
	OnlinePayment int64              `json:"onlinePayment"`
	TotalPayment  int64              `json:"totalPayment"`
	NewDue        int64              `json:"newDue"`
	ProfitLoss    int64              `json:"profitLoss"`
	PurchaseRate  decimal.Decimal    `json:"purchaseRate"`
	Version       int                `json:"version"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}
