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
	"github.com/nftzone/registry-indexer/internal/da"
	"github.com/nftzone/registry-indexer/internal/indexer"
	"github.com/nftzone/registry-indexer/internal/logger"
	"github.com/nftzone/registry-indexer/internal/reducer"
	"github.com/nftzone/registry-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadIndexerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "indexer",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting NFT registry indexer")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	if err := store.AutoMigrate(db); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// Connect to the DA node
	httpClient := adapter.NewHTTPClient(cfg.DA.HTTPTimeout)
	daClient, err := da.NewCelestiaClient(cfg.DA.RPCEndpoint, cfg.DA.AuthToken, cfg.DA.Namespace, httpClient)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create DA client", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to DA node",
		zap.String("endpoint", cfg.DA.RPCEndpoint),
		zap.String("namespace", cfg.DA.Namespace))

	// Assemble the replay driver
	dataStore := store.NewPGStore(db, cfg.DA.Namespace)
	driver := indexer.NewDriver(indexer.Config{
		StartHeight:  cfg.Replay.StartHeight,
		PollInterval: cfg.Replay.PollInterval,
	}, dataStore, reducer.New(dataStore), daClient, adapter.NewClock())

	errCh := make(chan error, 1)
	go func() {
		errCh <- driver.Run(ctx)
	}()

	// Wait for interrupt signal to gracefully shut down
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			logger.ErrorCtx(ctx, err, zap.String("component", "driver"))
			cancel()
			logger.Flush(2 * time.Second)
			os.Exit(1)
		}
	}

	logger.Info("Indexer stopped")
}
