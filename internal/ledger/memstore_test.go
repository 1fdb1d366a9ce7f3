package ledger

import (
	"context"
	"sync"

	"github.com/credigate/credigate/internal/model"
)

// memStore is an in-memory Store for tests. It honors the same atomicity
// contract as the SQL implementation: insert-if-absent on identity and a
// conditional decrement coupled with the log append under one lock.
type memStore struct {
	mu         sync.Mutex
	byIdentity map[string]*model.Account
	byKey      map[string]*model.Account
	usage      []*model.UsageLogEntry

	// failNextReads injects transient errors into read paths.
	failNextReads int
	readErr       error
}

func newMemStore() *memStore {
	return &memStore{
		byIdentity: make(map[string]*model.Account),
		byKey:      make(map[string]*model.Account),
	}
}

func (s *memStore) InsertAccount(_ context.Context, acct *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byIdentity[acct.Identity]; ok {
		return ErrIdentityExists
	}
	clone := *acct
	s.byIdentity[acct.Identity] = &clone
	s.byKey[acct.APIKey] = &clone
	return nil
}

func (s *memStore) AccountByIdentity(_ context.Context, identity string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.byIdentity[identity]
	if !ok {
		return nil, ErrAccountNotFound
	}
	clone := *acct
	return &clone, nil
}

func (s *memStore) AccountByKey(_ context.Context, apiKey string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNextReads > 0 {
		s.failNextReads--
		return nil, s.readErr
	}

	acct, ok := s.byKey[apiKey]
	if !ok {
		return nil, ErrAccountNotFound
	}
	clone := *acct
	return &clone, nil
}

func (s *memStore) DebitAndLog(_ context.Context, entry *model.UsageLogEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.byKey[entry.APIKey]
	if !ok {
		return 0, ErrAccountNotFound
	}
	if acct.Credits < entry.UnitsConsumed {
		return 0, ErrInsufficientCredits
	}
	acct.Credits -= entry.UnitsConsumed
	clone := *entry
	s.usage = append(s.usage, &clone)
	return acct.Credits, nil
}

func (s *memStore) Credit(_ context.Context, apiKey string, credits int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.byKey[apiKey]
	if !ok {
		return 0, ErrAccountNotFound
	}
	acct.Credits += credits
	return acct.Credits, nil
}

func (s *memStore) UsageByKey(_ context.Context, apiKey string, limit int) ([]*model.UsageLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []*model.UsageLogEntry
	for i := len(s.usage) - 1; i >= 0 && len(entries) < limit; i-- {
		if s.usage[i].APIKey == apiKey {
			clone := *s.usage[i]
			entries = append(entries, &clone)
		}
	}
	return entries, nil
}

func (s *memStore) UsageTotals(_ context.Context, apiKey string) (model.UsageTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var totals model.UsageTotals
	for _, e := range s.usage {
		if e.APIKey == apiKey {
			totals.Calls++
			totals.UnitsTotal += e.UnitsConsumed
		}
	}
	return totals, nil
}

// usageCount reports log entries for a key without the Store interface.
func (s *memStore) usageCount(apiKey string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.usage {
		if e.APIKey == apiKey {
			n++
		}
	}
	return n
}
