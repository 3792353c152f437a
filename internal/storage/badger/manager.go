package badger

import (
	"github.com/duggasco/CET/internal/common"
	"github.com/duggasco/CET/internal/config"
	"github.com/duggasco/CET/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger.
type Manager struct {
	db        *CETDB
	facts     *FactStore
	snapshots *SnapshotStore
	logger    *common.Logger
}

// NewManager creates a new Badger storage manager.
func NewManager(logger *common.Logger, cfg *config.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewCETDB(logger, cfg)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:        db,
		facts:     NewFactStore(db, logger),
		snapshots: NewSnapshotStore(db, logger),
		logger:    logger,
	}

	logger.Debug().Msg("Badger storage manager initialized")

	return manager, nil
}

// Facts returns the fact store.
func (m *Manager) Facts() interfaces.FactStore {
	return m.facts
}

// Snapshots returns the snapshot store.
func (m *Manager) Snapshots() interfaces.SnapshotStore {
	return m.snapshots
}

// Close closes the database connection.
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
