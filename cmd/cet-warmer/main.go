package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/duggasco/CET/internal/common"
	"github.com/duggasco/CET/internal/config"
	"github.com/duggasco/CET/internal/engine"
	"github.com/duggasco/CET/internal/models"
	"github.com/duggasco/CET/internal/storage"
	"github.com/duggasco/CET/internal/warmer"
)

var (
	configFile  = flag.String("config", "", "Configuration file path")
	warmDate    = flag.String("date", "", "Warm this date (YYYY-MM-DD) instead of the latest fact date")
	showVersion = flag.Bool("version", false, "Print version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("cet-warmer version %s\n", config.GetVersion())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	path := *configFile
	if path == "" {
		for _, candidate := range []string{"cet.toml", "docker/cet.toml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)

	storageManager, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("failed to open storage")
		os.Exit(1)
	}
	defer storageManager.Close()

	// The warming service never reads the cache it writes.
	svc := engine.NewService(storageManager.Facts(), nil, cfg.Download.MaxRows, logger)
	w := warmer.New(storageManager.Facts(), storageManager.Snapshots(), svc, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	started := time.Now()
	if *warmDate != "" {
		date, err := engine.ParseDate("date", *warmDate)
		if err != nil {
			logger.Error().Str("error", err.Error()).Msg("invalid -date flag")
			os.Exit(1)
		}
		if err := w.WarmDate(ctx, date); err != nil {
			logger.Error().Str("error", err.Error()).Msg("warming failed")
			os.Exit(1)
		}
	} else {
		date, err := w.Run(ctx)
		if err != nil {
			logger.Error().Str("error", err.Error()).Msg("warming failed")
			os.Exit(1)
		}
		logger.Info().Str("date", date.Format(models.DateFormat)).Msg("warmed latest fact date")
	}

	logger.Info().Str("duration", time.Since(started).String()).Msg("warming complete")
}
