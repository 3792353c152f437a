package config

import "github.com/duggasco/CET/internal/common"

// DefaultDownloadMaxRows is the documented export row ceiling.
const DefaultDownloadMaxRows = 1_000_000

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 9095,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/cet",
			},
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Download: DownloadConfig{
			MaxRows: DefaultDownloadMaxRows,
		},
		Logging: common.LoggingConfig{
			Level:   "info",
			Outputs: []string{"console", "file"},
		},
	}
}
