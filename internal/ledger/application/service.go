package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	ledger "trade-ledger/internal/ledger/domain"
)

// EntitySummary is the per-entity view panels use to pre-fill dues and
// suggest names.
type EntitySummary struct {
	Name     string `json:"name"`
	Due      int64  `json:"due"`
	Advance  int64  `json:"advance"`
	LastDate string `json:"lastDate"`
}

// Service is the ledger store: an append-only record of financial events
// with balance snapshots derived at write time.
type Service struct {
	repo ledger.Repository

	// mu serializes Append so the sum-then-write balance derivation cannot
	// interleave for concurrent callers.
	mu sync.Mutex
}

// NewService constructs the ledger service.
func NewService(repo ledger.Repository) (*Service, error) {
	if repo == nil {
		return nil, errors.New("ledger service: nil repository")
	}
	return &Service{repo: repo}, nil
}

// Append validates and stores an entry, snapshotting the entity's running
// balance after the entry. Re-appending an existing id overwrites it; the
// balance is always derived from the algebraic sum of the entity's amounts
// so an overwrite cannot double-count.
func (s *Service) Append(ctx context.Context, entry ledger.Entry) (ledger.Entry, error) {
	if err := entry.Validate(); err != nil {
		return ledger.Entry{}, err
	}
	if entry.ID == "" {
		return ledger.Entry{}, ledger.ErrEmptyID
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sum, err := s.repo.SumAmounts(ctx, entry.EntityName, entry.ID)
	if err != nil {
		return ledger.Entry{}, err
	}
	entry.Balance = sum + entry.Amount
	if err := s.repo.Save(ctx, entry); err != nil {
		return ledger.Entry{}, err
	}
	return entry, nil
}

// CurrentBalance returns the algebraic sum of the entity's amounts, or zero
// for an unknown entity. The sum is recomputed rather than read off the
// latest entry's snapshot: a backdated append stamps its own balance but
// leaves later snapshots untouched, so only the sum reflects every entry.
func (s *Service) CurrentBalance(ctx context.Context, entityName string) (int64, error) {
	if entityName == "" {
		return 0, ledger.ErrBlankEntityName
	}
	return s.repo.SumAmounts(ctx, entityName, "")
}

// Balance returns the due/advance split of the entity's current balance.
func (s *Service) Balance(ctx context.Context, entityName string) (due, advance int64, err error) {
	balance, err := s.CurrentBalance(ctx, entityName)
	if err != nil {
		return 0, 0, err
	}
	due, advance = ledger.DueAdvance(balance)
	return due, advance, nil
}

// EntriesFor returns the entity's entries, newest first. Each call is a
// fresh query, not a cursor.
func (s *Service) EntriesFor(ctx context.Context, entityName string) ([]ledger.Entry, error) {
	if entityName == "" {
		return nil, ledger.ErrBlankEntityName
	}
	return s.repo.ListByEntity(ctx, entityName)
}

// AllEntries returns filtered entries, newest first.
func (s *Service) AllEntries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	return s.repo.List(ctx, filter)
}

// EntitySummaries lists the entities of one type with their current
// due/advance and last transaction date, sorted by name.
func (s *Service) EntitySummaries(ctx context.Context, entityType ledger.EntityType) ([]EntitySummary, error) {
	entries, err := s.repo.List(ctx, ledger.Filter{EntityType: entityType})
	if err != nil {
		return nil, err
	}

	// Balances are summed across each entity's entries rather than read off
	// the latest snapshot, so backdated entries are always counted.
	type tally struct {
		sum      int64
		lastDate string
	}
	byName := make(map[string]tally)
	for _, entry := range entries {
		agg := byName[entry.EntityName]
		agg.sum += entry.Amount
		if entry.Date > agg.lastDate {
			agg.lastDate = entry.Date
		}
		byName[entry.EntityName] = agg
	}

	summaries := make([]EntitySummary, 0, len(byName))
	for name, agg := range byName {
		due, advance := ledger.DueAdvance(agg.sum)
		summaries = append(summaries, EntitySummary{Name: name, Due: due, Advance: advance, LastDate: agg.lastDate})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries, nil
}
