package documents

import "errors"

// ErrChallanExists is returned when a challan already exists for the same
// vendor and date and the caller has not chosen to overwrite it.
var ErrChallanExists = errors.New("documents: challan exists for vendor and date")

// ErrInvoiceNotFound is returned when an invoice id is unknown.
var ErrInvoiceNotFound = errors.New("documents: invoice not found")

// ValidationError reports the first violated input rule. Nothing is
// persisted when issuance fails validation.
type ValidationError struct {
	Rule string
}

// Error renders the violated rule.
func (e *ValidationError) Error() string { return "documents: " + e.Rule }

// Invalid builds a ValidationError for a rule.
func Invalid(rule string) error { return &ValidationError{Rule: rule} }

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
