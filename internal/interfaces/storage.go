package interfaces

import (
	"context"
	"time"

	"github.com/duggasco/CET/internal/models"
)

// StorageManager provides access to domain-specific storage interfaces.
// Implementations can be swapped (embedded Badger now, centralised DB later).
type StorageManager interface {
	Facts() FactStore
	Snapshots() SnapshotStore
	Close() error
}

// FactStore is the read-only accessor over balance facts, the account-to-
// client mapping, and the fund directory. Deterministic for a fixed store
// state; all fact writes happen out of the request path.
type FactStore interface {
	// FactsAt returns the joined rows matching pred whose balance date is
	// exactly date. Joins are performed only when pred requires them.
	FactsAt(ctx context.Context, pred models.Predicate, date time.Time) ([]models.FactRow, error)

	// FactsRange returns matching rows with from <= balance date <= to.
	FactsRange(ctx context.Context, pred models.Predicate, from, to time.Time) ([]models.FactRow, error)

	// ResolveDate returns the latest balance date on or before d.
	// ok is false when no fact exists on or before d.
	ResolveDate(ctx context.Context, d time.Time) (snapshot time.Time, ok bool, err error)

	// LatestFactDate returns the latest balance date in the store.
	// ok is false when the store holds no facts.
	LatestFactDate(ctx context.Context) (latest time.Time, ok bool, err error)
}

// SnapshotStore holds one materialized CacheSnapshot per calendar date.
// The request path only reads; the offline warming job replaces a date's
// snapshot wholesale inside a single atomic operation, so a concurrent
// reader never observes a partial date.
type SnapshotStore interface {
	Snapshot(ctx context.Context, date time.Time) (*models.CacheSnapshot, bool, error)
	Replace(ctx context.Context, date time.Time, snap *models.CacheSnapshot) error
}
