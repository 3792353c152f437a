package app

import (
	"github.com/duggasco/CET/internal/cache"
	"github.com/duggasco/CET/internal/common"
	"github.com/duggasco/CET/internal/config"
	"github.com/duggasco/CET/internal/engine"
	"github.com/duggasco/CET/internal/handlers"
	"github.com/duggasco/CET/internal/interfaces"
	"github.com/duggasco/CET/internal/storage"
)

// App holds all application components and dependencies.
type App struct {
	Config  *config.Config
	Logger  *common.Logger
	Storage interfaces.StorageManager
	Engine  *engine.Service

	// HTTP handlers
	DashboardHandler *handlers.DashboardHandler
	DownloadHandler  *handlers.DownloadHandler
	HealthHandler    *handlers.HealthHandler
	VersionHandler   *handlers.VersionHandler
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		return nil, err
	}
	a.Storage = storageManager

	var gateway *cache.Gateway
	if cfg.Cache.Enabled {
		gateway = cache.NewGateway(storageManager.Snapshots(), logger)
	} else {
		logger.Warn().Msg("Materialized cache disabled, all requests compute live")
	}

	a.Engine = engine.NewService(storageManager.Facts(), gateway, cfg.Download.MaxRows, logger)

	a.DashboardHandler = handlers.NewDashboardHandler(a.Engine, logger)
	a.DownloadHandler = handlers.NewDownloadHandler(a.Engine, cfg.Download.MaxRows, logger)
	a.HealthHandler = handlers.NewHealthHandler(logger)
	a.VersionHandler = handlers.NewVersionHandler(logger)

	logger.Info().Msg("application initialization complete")

	return a, nil
}

// Close releases application resources.
func (a *App) Close() error {
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
