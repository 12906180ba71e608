package cashflow

import "errors"

var (
	// ErrNegativeAmount is returned when a payment part is negative.
	ErrNegativeAmount = errors.New("cashflow: negative amount")
	// ErrInvalidBucket is returned for an unknown bucket.
	ErrInvalidBucket = errors.New("cashflow: invalid bucket")
	// ErrInvalidDirection is returned for an unknown adjustment direction.
	ErrInvalidDirection = errors.New("cashflow: invalid direction")
	// ErrBlankReason is returned when a manual adjustment has no reason.
	ErrBlankReason = errors.New("cashflow: blank adjustment reason")
)
