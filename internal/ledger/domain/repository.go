package ledger

import "context"

// Repository persists ledger entries. Save is an upsert by id: the only
// caller that rewrites an existing id is the purchase-document overwrite
// path, which supersedes the prior entries for that document wholesale.
type Repository interface {
	Save(ctx context.Context, entry Entry) error
	// SumAmounts sums all amounts for the entity, skipping excludeID so an
	// overwrite does not double-count the entry it replaces. An empty
	// excludeID excludes nothing.
	SumAmounts(ctx context.Context, entityName, excludeID string) (int64, error)
	// ListByEntity returns the entity's entries, newest first.
	ListByEntity(ctx context.Context, entityName string) ([]Entry, error)
	// List returns entries passing the filter, newest first.
	List(ctx context.Context, filter Filter) ([]Entry, error)
	// DeleteByReference removes every entry tied to a source document, so
	// an overwritten document leaves no stale entries behind.
	DeleteByReference(ctx context.Context, referenceID string) error
}
