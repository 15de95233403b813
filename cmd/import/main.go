package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/nftzone/registry-indexer/internal/adapter"
	"github.com/nftzone/registry-indexer/internal/config"
	"github.com/nftzone/registry-indexer/internal/indexer"
	"github.com/nftzone/registry-indexer/internal/logger"
	"github.com/nftzone/registry-indexer/internal/reducer"
	"github.com/nftzone/registry-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	eventsDir  = flag.String("events", "", "Directory of event JSON files (overrides config)")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadImportConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	dir := cfg.EventsDir
	if *eventsDir != "" {
		dir = *eventsDir
	}

	// Cancel on interrupt so a long import can stop between files
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "import",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting batch event import", zap.String("dir", dir))

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.AutoMigrate(db); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
	}

	dataStore := store.NewPGStore(db, cfg.Namespace)
	importer := indexer.NewBatchImporter(adapter.NewFileSystem(), dataStore, reducer.New(dataStore))

	counters, err := importer.Run(ctx, dir)
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.String("component", "importer"))
		logger.Flush(2 * time.Second)
		os.Exit(1)
	}

	logger.Info("Import finished",
		zap.Int("applied", counters.Applied),
		zap.Int("rejected", counters.Rejected),
		zap.Int("skipped", counters.Skipped))
}
