package ledger

import "strings"

// Filter narrows ledger listings. Zero fields match everything; filtering is
// a pure projection and never mutates stored entries.
type Filter struct {
	EntityType   EntityType
	Kind         Kind
	Date         string
	NameContains string
}

// Matches reports whether the entry passes every set predicate.
func (f Filter) Matches(entry Entry) bool {
	if f.EntityType != "" && entry.EntityType != f.EntityType {
		return false
	}
	if f.Kind != "" && entry.Kind != f.Kind {
		return false
	}
	if f.Date != "" && entry.Date != f.Date {
		return false
	}
	if f.NameContains != "" &&
		!strings.Contains(strings.ToLower(entry.EntityName), strings.ToLower(f.NameContains)) {
		return false
	}
	return true
}
