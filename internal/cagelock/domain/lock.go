package cagelock

import "time"

// Key identifies one physical inventory unit. Cage numbers are recycled
// daily, so the natural identifier is the pair of cage number and the
// purchase document's date, never the cage number alone.
type Key struct {
	CageNo     string `json:"cageNo"`
	SourceDate string `json:"sourceDate"`
}

// NewKey validates and builds a lock key.
func NewKey(cageNo, sourceDate string) (Key, error) {
	if cageNo == "" {
		return Key{}, ErrEmptyCageNo
	}
	if _, err := time.Parse("2006-01-02", sourceDate); err != nil {
		return Key{}, ErrInvalidSourceDate
	}
	return Key{CageNo: cageNo, SourceDate: sourceDate}, nil
}

// String renders the key for map storage and error messages.
func (k Key) String() string { return k.CageNo + "|" + k.SourceDate }

// Lock is an exclusive claim of one invoice over one inventory unit.
// Created exactly once, never updated; deleted only when the owning invoice
// is voided.
type Lock struct {
	Key          Key       `json:"key"`
	InvoiceID    string    `json:"invoiceId"`
	CustomerName string    `json:"customerName"`
	LockedAt     time.Time `json:"lockedAt"`
}
