package ledger

import "errors"

var (
	// ErrBlankEntityName is returned when an entry names no entity.
	ErrBlankEntityName = errors.New("ledger: blank entity name")
	// ErrInvalidDate is returned when the date is not a calendar day.
	ErrInvalidDate = errors.New("ledger: invalid calendar date")
	// ErrInvalidEntityType is returned for an unknown entity type.
	ErrInvalidEntityType = errors.New("ledger: invalid entity type")
	// ErrInvalidKind is returned for an unknown entry kind.
	ErrInvalidKind = errors.New("ledger: invalid entry kind")
	// ErrMissingPaymentAmount is returned for a payment entry without an amount.
	ErrMissingPaymentAmount = errors.New("ledger: payment entry missing payment amount")
	// ErrEmptyID is returned when saving an entry without an id.
	ErrEmptyID = errors.New("ledger: empty entry id")
)
