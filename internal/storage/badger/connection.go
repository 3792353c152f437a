package badger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/timshannon/badgerhold/v4"

	"github.com/duggasco/CET/internal/common"
	"github.com/duggasco/CET/internal/config"
)

// CETDB manages the Badger database connection.
type CETDB struct {
	store  *badgerhold.Store
	logger *common.Logger
	config *config.BadgerConfig
}

// NewCETDB creates a new Badger database connection.
func NewCETDB(logger *common.Logger, cfg *config.BadgerConfig) (*CETDB, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	logger.Debug().Str("path", cfg.Path).Msg("Opening Badger database")

	options := badgerhold.DefaultOptions
	options.Dir = cfg.Path
	options.ValueDir = cfg.Path
	options.Logger = nil // Disable default badger logger
	// JSON, not gob: gob drops pointer fields holding zero values, which
	// would turn a stored 0% change into a null on read.
	options.Encoder = json.Marshal
	options.Decoder = json.Unmarshal

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", cfg.Path).Msg("Badger database initialized")

	return &CETDB{
		store:  store,
		logger: logger,
		config: cfg,
	}, nil
}

// Store returns the underlying badgerhold store.
func (b *CETDB) Store() *badgerhold.Store {
	return b.store
}

// Close closes the database connection.
func (b *CETDB) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}
