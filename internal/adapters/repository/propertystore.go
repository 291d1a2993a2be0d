package repository

import (
	"context"
	"sync"
	"time"

	"github.com/plotcrowd/fairval/internal/domain/model"
	"github.com/plotcrowd/fairval/pkg/metrics"
)

// propertyState is the mutable per-property record.
type propertyState struct {
	official *int64
	asking   *int64
	sale     *int64
	saleAt   time.Time
	guesses  []*GuessRow // submission order
}

// PropertyStore is the in-memory Properties implementation. Guesses are
// indexed both per property (for consensus) and per user in submission
// order (for reputation).
type PropertyStore struct {
	mu     sync.RWMutex
	props  map[string]*propertyState
	byUser map[string][]*GuessRow // submission order per user
}

// NewPropertyStore constructs an empty property store.
func NewPropertyStore() *PropertyStore {
	return &PropertyStore{
		props:  make(map[string]*propertyState),
		byUser: make(map[string][]*GuessRow),
	}
}

// getOrCreate returns the property state, creating it on first touch.
// Callers must hold the write lock.
func (s *PropertyStore) getOrCreate(propertyID string) *propertyState {
	p, ok := s.props[propertyID]
	if !ok {
		p = &propertyState{}
		s.props[propertyID] = p
	}
	return p
}

// UpsertProperty records or updates a property's reference prices.
func (s *PropertyStore) UpsertProperty(_ context.Context, propertyID string, official, asking *int64) error {
	s.mu.Lock()
	p := s.getOrCreate(propertyID)
	if official != nil {
		v := *official
		p.official = &v
	}
	if asking != nil {
		v := *asking
		p.asking = &v
	}
	count := len(s.props)
	s.mu.Unlock()

	metrics.UpdateTrackedProperties(count)
	return nil
}

// AddGuess stores a guess, creating the property implicitly if needed.
func (s *PropertyStore) AddGuess(_ context.Context, row GuessRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.getOrCreate(row.PropertyID)
	stored := row
	p.guesses = append(p.guesses, &stored)
	s.byUser[row.UserID] = append(s.byUser[row.UserID], &stored)
	return nil
}

// RecordSale records the realized price for a property and returns the IDs
// of users whose guesses on it became resolved. A second sale overwrites
// the first; recomputation downstream is idempotent either way.
func (s *PropertyStore) RecordSale(_ context.Context, propertyID string, price int64, at time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.props[propertyID]
	if !ok {
		return nil, ErrUnknownProperty
	}
	p.sale = &price
	p.saleAt = at

	seen := make(map[string]struct{}, len(p.guesses))
	users := make([]string, 0, len(p.guesses))
	for _, g := range p.guesses {
		if g.Meme {
			continue
		}
		if _, dup := seen[g.UserID]; dup {
			continue
		}
		seen[g.UserID] = struct{}{}
		users = append(users, g.UserID)
	}
	return users, nil
}

// Snapshot returns a consistent copy of a property's valuation inputs.
func (s *PropertyStore) Snapshot(_ context.Context, propertyID string) (PropertySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.props[propertyID]
	if !ok {
		return PropertySnapshot{}, ErrUnknownProperty
	}

	snap := PropertySnapshot{Guesses: make([]GuessRow, len(p.guesses))}
	if p.official != nil {
		v := *p.official
		snap.OfficialValue = &v
	}
	if p.asking != nil {
		v := *p.asking
		snap.AskingPrice = &v
	}
	if p.sale != nil {
		v := *p.sale
		snap.SalePrice = &v
	}
	for i, g := range p.guesses {
		snap.Guesses[i] = *g
	}
	return snap, nil
}

// ResolvedHistory assembles a user's resolved, non-meme guesses in
// submission order. The sequence index is the guess's rank among exactly
// these eligible guesses, not a lifetime counter: a user's 50th guess
// overall may carry index 2 when most of their guesses are unresolved.
func (s *PropertyStore) ResolvedHistory(_ context.Context, userID string) (model.ResolvedHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var resolved []model.ResolvedGuess
	for _, g := range s.byUser[userID] {
		if g.Meme {
			continue
		}
		p := s.props[g.PropertyID]
		if p == nil || p.sale == nil {
			continue
		}
		resolved = append(resolved, model.ResolvedGuess{
			GuessedPrice:  g.Price,
			ActualPrice:   *p.sale,
			SequenceIndex: len(resolved),
		})
	}
	return model.NewResolvedHistory(resolved)
}

// UserIDs lists every user that has submitted at least one guess.
func (s *PropertyStore) UserIDs(_ context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.byUser))
	for id := range s.byUser {
		ids = append(ids, id)
	}
	return ids
}

// PropertyCount returns the number of properties tracked.
func (s *PropertyStore) PropertyCount(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.props)
}
