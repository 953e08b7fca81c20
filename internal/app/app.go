// Package app wires configuration, storage, upstream clients, and the
// collector into one injectable application object shared by both
// binaries.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielsohn/sieve/internal/clients/krx"
	"github.com/danielsohn/sieve/internal/clients/krxdata"
	"github.com/danielsohn/sieve/internal/clients/naver"
	"github.com/danielsohn/sieve/internal/common"
	"github.com/danielsohn/sieve/internal/interfaces"
	"github.com/danielsohn/sieve/internal/services/collector"
	"github.com/danielsohn/sieve/internal/storage/snapshot"
	"github.com/danielsohn/sieve/internal/storage/surrealdb"
)

// App holds all initialized services, clients, and stores. Created once at
// startup and injected into the HTTP server and the scheduler.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Storage     interfaces.StorageManager // nil when running memory-only
	Snapshot    *snapshot.Store
	Collector   interfaces.Collector
	StartupTime time.Time

	schedulerCancel context.CancelFunc
	schedulerDone   chan struct{}
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, logging, storage, and the collection
// pipeline. configPath may be empty, in which case the default resolution
// logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Local development secrets; absent in production
	godotenv.Load()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	// Load configuration - check provided path, SIEVE_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("SIEVE_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "sieve.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/sieve.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	// Durable storage is optional: without an address the service serves
	// from the in-memory snapshot only.
	var storageManager interfaces.StorageManager
	if config.Storage.Address != "" {
		storageManager, err = surrealdb.NewManager(logger, config)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
	} else {
		logger.Warn().Msg("No storage address configured - running memory-only, no quote history will be kept")
	}

	openHour := config.Collector.MarketOpenHour

	krxClient := krx.NewClient(
		krx.WithBaseURL(config.Clients.KRX.BaseURL),
		krx.WithLogger(logger),
		krx.WithRateLimit(config.Clients.KRX.RateLimit),
		krx.WithTimeout(config.Clients.KRX.GetTimeout()),
		krx.WithMarketOpenHour(openHour),
	)

	naverClient := naver.NewClient(
		naver.WithBaseURL(config.Clients.Naver.BaseURL),
		naver.WithLogger(logger),
		naver.WithRateLimit(config.Clients.Naver.RateLimit),
		naver.WithTimeout(config.Clients.Naver.GetTimeout()),
		naver.WithPageSize(config.Clients.Naver.PageSize),
		naver.WithMaxConcurrency(config.Clients.Naver.MaxConcurrency),
		naver.WithMarketOpenHour(openHour),
	)

	providerClient := krxdata.NewClient(
		krxdata.WithBaseURL(config.Clients.KRXData.BaseURL),
		krxdata.WithLogger(logger),
		krxdata.WithTimeout(config.Clients.KRXData.GetTimeout()),
	)
	fallbackSource := krxdata.NewSource(providerClient,
		krxdata.WithSourceLogger(logger),
		krxdata.WithSourceOpenHour(openHour),
	)

	// Fixed priority order: first non-empty source wins per market
	sources := []interfaces.MarketSource{krxClient, naverClient, fallbackSource}

	snapshotStore := snapshot.NewStore()

	var marketStore interfaces.MarketStore
	if storageManager != nil {
		marketStore = storageManager.MarketStore()
	}
	collectorService := collector.NewService(sources, snapshotStore, marketStore, &config.Collector, logger)

	a := &App{
		Config:      config,
		Logger:      logger,
		Storage:     storageManager,
		Snapshot:    snapshotStore,
		Collector:   collectorService,
		StartupTime: startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
// Shutdown order: stop the scheduler, then close storage.
func (a *App) Close() {
	a.StopScheduler()
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
