package cagelock

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyLocked is returned when another invoice holds the key.
	ErrAlreadyLocked = errors.New("cagelock: already locked")
	// ErrAlreadyClaimedInSession is returned when one in-progress document
	// selects the same unit twice.
	ErrAlreadyClaimedInSession = errors.New("cagelock: already claimed in this document")
	// ErrEmptyCageNo is returned for a blank cage number.
	ErrEmptyCageNo = errors.New("cagelock: empty cage number")
	// ErrInvalidSourceDate is returned for a malformed source date.
	ErrInvalidSourceDate = errors.New("cagelock: invalid source date")
	// ErrEmptyInvoiceID is returned when no invoice id is given.
	ErrEmptyInvoiceID = errors.New("cagelock: empty invoice id")
)

// ConflictError identifies the contested unit when a lock attempt loses.
// It matches ErrAlreadyLocked or ErrAlreadyClaimedInSession via errors.Is.
type ConflictError struct {
	Key    Key
	HeldBy string
	Reason error
}

// Error renders the contested unit.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: cage %s of %s", e.Reason, e.Key.CageNo, e.Key.SourceDate)
}

// Is matches the underlying conflict reason.
func (e *ConflictError) Is(target error) bool { return errors.Is(e.Reason, target) }

// Unwrap exposes the conflict reason.
func (e *ConflictError) Unwrap() error { return e.Reason }
