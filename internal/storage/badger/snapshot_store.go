package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/duggasco/CET/internal/common"
	"github.com/duggasco/CET/internal/models"
)

// snapshotRecord holds one materialized dashboard, keyed by calendar date.
// The whole snapshot lives in a single record, so Upsert replaces it in one
// transaction and readers never observe a partial write.
type snapshotRecord struct {
	Date     string `badgerhold:"key"`
	Snapshot models.CacheSnapshot
}

// SnapshotStore implements interfaces.SnapshotStore over BadgerDB.
type SnapshotStore struct {
	db     *CETDB
	logger *common.Logger
}

// NewSnapshotStore creates a snapshot store backed by BadgerDB.
func NewSnapshotStore(db *CETDB, logger *common.Logger) *SnapshotStore {
	return &SnapshotStore{
		db:     db,
		logger: logger,
	}
}

// Snapshot returns the materialized dashboard for the given date, ok=false
// when none has been warmed.
func (s *SnapshotStore) Snapshot(_ context.Context, date time.Time) (*models.CacheSnapshot, bool, error) {
	key := date.Format(models.DateFormat)
	var rec snapshotRecord
	err := s.db.Store().Get(key, &rec)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load snapshot %s: %w", key, err)
	}
	snap := rec.Snapshot
	return &snap, true, nil
}

// Replace installs the snapshot for its date, discarding any previous one.
func (s *SnapshotStore) Replace(_ context.Context, date time.Time, snap *models.CacheSnapshot) error {
	key := date.Format(models.DateFormat)
	rec := snapshotRecord{Date: key, Snapshot: *snap}
	if err := s.db.Store().Upsert(key, &rec); err != nil {
		return fmt.Errorf("failed to replace snapshot %s: %w", key, err)
	}
	s.logger.Debug().Str("date", key).Msg("Snapshot replaced")
	return nil
}
