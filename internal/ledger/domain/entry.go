package ledger

import "time"

// DateLayout is the calendar-day format used for all business dates. Dates
// carry no time component and compare lexically in this layout.
const DateLayout = "2006-01-02"

// EntityType identifies which side of the trade an entity sits on.
type EntityType string

const (
	EntityCustomer EntityType = "customer"
	EntityVendor   EntityType = "vendor"
)

// Kind classifies a ledger entry.
type Kind string

const (
	KindPurchaseDocument Kind = "purchase-document"
	KindSaleDocument     Kind = "sale-document"
	KindPayment          Kind = "payment"
)

// PaymentMode records how a payment moved.
type PaymentMode string

const (
	PayCash   PaymentMode = "cash"
	PayOnline PaymentMode = "online"
	PaySplit  PaymentMode = "split"
)

// Entry is one immutable financial event for an entity. A positive Amount
// increases what the entity owes the business, a negative one decreases it.
// Balance is the entity's running balance after this entry, snapshotted at
// write time. CreatedAt is only a tie-breaker, never a business date.
type Entry struct {
	ID            string      `json:"id"`
	Date          string      `json:"date"`
	EntityName    string      `json:"entityName"`
	EntityType    EntityType  `json:"entityType"`
	Kind          Kind        `json:"kind"`
	Description   string      `json:"description"`
	Amount        int64       `json:"amount"`
	PaymentAmount int64       `json:"paymentAmount,omitempty"`
	PaymentMode   PaymentMode `json:"paymentMode,omitempty"`
	Balance       int64       `json:"balance"`
	ReferenceID   string      `json:"referenceId"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Validate checks the fields callers control. Balance is assigned by the
// store and is not validated here.
func (e Entry) Validate() error {
	if e.EntityName == "" {
		return ErrBlankEntityName
	}
	if !ValidDate(e.Date) {
		return ErrInvalidDate
	}
	switch e.EntityType {
	case EntityCustomer, EntityVendor:
	default:
		return ErrInvalidEntityType
	}
	switch e.Kind {
	case KindPurchaseDocument, KindSaleDocument:
	case KindPayment:
		if e.PaymentAmount <= 0 {
			return ErrMissingPaymentAmount
		}
	default:
		return ErrInvalidKind
	}
	return nil
}

// ValidDate reports whether value is a real calendar day in DateLayout.
func ValidDate(value string) bool {
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return false
	}
	return parsed.Format(DateLayout) == value
}

// Before orders entries chronologically: by date, ties broken by CreatedAt.
func (e Entry) Before(other Entry) bool {
	if e.Date != other.Date {
		return e.Date < other.Date
	}
	return e.CreatedAt.Before(other.CreatedAt)
}

// DueAdvance splits a raw balance into its due and advance views. At most
// one of the two is non-zero.
func DueAdvance(balance int64) (due, advance int64) {
	if balance > 0 {
		return balance, 0
	}
	return 0, -balance
}
