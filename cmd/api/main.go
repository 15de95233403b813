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
	"gorm.io/plugin/dbresolver"

	"github.com/nftzone/registry-indexer/internal/adapter"
	"github.com/nftzone/registry-indexer/internal/api/server"
	"github.com/nftzone/registry-indexer/internal/config"
	"github.com/nftzone/registry-indexer/internal/da"
	"github.com/nftzone/registry-indexer/internal/keyring"
	"github.com/nftzone/registry-indexer/internal/logger"
	"github.com/nftzone/registry-indexer/internal/publisher"
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
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
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
			"service": "api-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting NFT registry API")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	// Route queries to the read replica when one is configured; writes stay on
	// the primary
	if cfg.Database.ReadHost != "" {
		err = db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{postgres.Open(cfg.Database.ReadDSN())},
		}))
		if err != nil {
			logger.FatalCtx(ctx, "Failed to register read replica", zap.Error(err))
		}
		logger.InfoCtx(ctx, "Read replica enabled",
			zap.String("read_host", cfg.Database.ReadHost))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	dataStore := store.NewPGStore(db, cfg.DA.Namespace)

	// The write path needs a DA namespace; without one the API serves reads
	// only and POST /collections reports unavailable
	var pub *publisher.Publisher
	var resolver keyring.AddressResolver
	if cfg.DA.Namespace != "" {
		httpClient := adapter.NewHTTPClient(cfg.DA.HTTPTimeout)
		daClient, err := da.NewCelestiaClient(cfg.DA.RPCEndpoint, cfg.DA.AuthToken, cfg.DA.Namespace, httpClient)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create DA client", zap.Error(err))
		}
		pub = publisher.New(daClient, adapter.NewClock())
		resolver = keyring.NewCLIResolver(cfg.Keyring.Binary, cfg.Keyring.Backend, cfg.Keyring.Home, adapter.NewCommandRunner())
		logger.InfoCtx(ctx, "Write path enabled",
			zap.String("endpoint", cfg.DA.RPCEndpoint),
			zap.String("namespace", cfg.DA.Namespace))
	} else {
		logger.WarnCtx(ctx, "DA namespace not configured, serving reads only")
	}

	srv := server.New(server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		Store:        dataStore,
		Publisher:    pub,
		Reducer:      reducer.New(dataStore),
		Resolver:     resolver,
		DefaultKey:   cfg.Keyring.DefaultKey,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	logger.Info("API server stopped")
}
