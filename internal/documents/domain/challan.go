package documents

import (
	"time"

	"github.com/shopspring/decimal"

	ledger "trade-ledger/internal/ledger/domain"
)

// CageLine is one caged batch of birds on a purchase document.
type CageLine struct {
	CageNo    string          `json:"cageNo"`
	BirdCount int             `json:"birdCount"`
	WeightKg  decimal.Decimal `json:"weightKg"`
}

// Valid reports whether the line names a cage with positive count and weight.
func (l CageLine) Valid() bool {
	return l.CageNo != "" && l.BirdCount > 0 && l.WeightKg.IsPositive()
}

// Challan is an inbound delivery challan from a vendor. It is a value
// object: the core hands it to the persistence collaborator and never
// mutates it afterwards, except through the explicit overwrite path which
// replaces the document wholesale under the same id.
type Challan struct {
	ID            string             `json:"id"`
	Date          string             `json:"date"`
	VendorName    string             `json:"vendorName"`
	RatePerKg     decimal.Decimal    `json:"ratePerKg"`
	Cages         []CageLine         `json:"cages"`
	TotalBirds    int                `json:"totalBirds"`
	TotalWeightKg decimal.Decimal    `json:"totalWeightKg"`
	TotalAmount   int64              `json:"totalAmount"`
	PreviousDue   int64              `json:"previousDue"`
	AmountPaying  int64              `json:"amountPaying"`
	PaymentMode   ledger.PaymentMode `json:"paymentMode,omitempty"`
	CashAmount    int64              `json:"cashAmount"`
	OnlineAmount  int64              `json:"onlineAmount"`
	NewDue        int64              `json:"newDue"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}
