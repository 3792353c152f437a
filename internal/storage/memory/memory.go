// Package memory provides in-memory fact and snapshot stores. They back the
// engine and cache tests and any ephemeral deployment where persistence is
// not wanted.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/duggasco/CET/internal/models"
)

// FactStore is an in-memory implementation of interfaces.FactStore.
type FactStore struct {
	mu    sync.RWMutex
	facts []models.BalanceFact
	links map[string]models.ClientLink
	funds map[string]models.FundInfo
}

// NewFactStore returns an empty in-memory fact store.
func NewFactStore() *FactStore {
	return &FactStore{
		links: make(map[string]models.ClientLink),
		funds: make(map[string]models.FundInfo),
	}
}

// PutFacts appends balance facts.
func (s *FactStore) PutFacts(_ context.Context, facts []models.BalanceFact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range facts {
		f.BalanceDate = models.Day(f.BalanceDate)
		s.facts = append(s.facts, f)
	}
	return nil
}

// PutClientLinks registers account-to-client mappings.
func (s *FactStore) PutClientLinks(_ context.Context, links []models.ClientLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range links {
		s.links[l.AccountID] = l
	}
	return nil
}

// PutFunds registers fund directory entries.
func (s *FactStore) PutFunds(_ context.Context, funds []models.FundInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range funds {
		s.funds[f.FundName] = f
	}
	return nil
}

// FactsAt returns joined rows for facts on the given date matching pred.
func (s *FactStore) FactsAt(ctx context.Context, pred models.Predicate, date time.Time) ([]models.FactRow, error) {
	return s.factsBetween(pred, models.Day(date), models.Day(date))
}

// FactsRange returns joined rows for facts within [from, to] matching pred.
func (s *FactStore) FactsRange(ctx context.Context, pred models.Predicate, from, to time.Time) ([]models.FactRow, error) {
	return s.factsBetween(pred, models.Day(from), models.Day(to))
}

func (s *FactStore) factsBetween(pred models.Predicate, from, to time.Time) ([]models.FactRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	facts := make([]models.BalanceFact, 0, len(s.facts))
	for _, f := range s.facts {
		if f.BalanceDate.Before(from) || f.BalanceDate.After(to) {
			continue
		}
		facts = append(facts, f)
	}

	var links map[string]models.ClientLink
	if pred.NeedsClientLink() {
		links = s.links
	}
	var funds map[string]models.FundInfo
	if pred.NeedsFundInfo() {
		funds = s.funds
	}
	return models.BuildRows(facts, links, funds, pred), nil
}

// ResolveDate returns the latest fact date on or before d.
func (s *FactStore) ResolveDate(_ context.Context, d time.Time) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bound := models.Day(d)
	var best time.Time
	found := false
	for _, f := range s.facts {
		if f.BalanceDate.After(bound) {
			continue
		}
		if !found || f.BalanceDate.After(best) {
			best = f.BalanceDate
			found = true
		}
	}
	return best, found, nil
}

// LatestFactDate returns the latest date carrying any fact.
func (s *FactStore) LatestFactDate(_ context.Context) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best time.Time
	found := false
	for _, f := range s.facts {
		if !found || f.BalanceDate.After(best) {
			best = f.BalanceDate
			found = true
		}
	}
	return best, found, nil
}

// SnapshotStore is an in-memory implementation of interfaces.SnapshotStore.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]models.CacheSnapshot
}

// NewSnapshotStore returns an empty in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snapshots: make(map[string]models.CacheSnapshot)}
}

// Snapshot returns the snapshot for the given date, ok=false when none.
func (s *SnapshotStore) Snapshot(_ context.Context, date time.Time) (*models.CacheSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[date.Format(models.DateFormat)]
	if !ok {
		return nil, false, nil
	}
	return &snap, true, nil
}

// Replace installs the snapshot for its date, discarding any previous one.
func (s *SnapshotStore) Replace(_ context.Context, date time.Time, snap *models.CacheSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[date.Format(models.DateFormat)] = *snap
	return nil
}
