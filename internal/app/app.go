// Package app wires configuration, storage, clients and services together.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vrautomations/cryptotrack/internal/clients/coingecko"
	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/interfaces"
	"github.com/vrautomations/cryptotrack/internal/services/auth"
	"github.com/vrautomations/cryptotrack/internal/services/coinsync"
	"github.com/vrautomations/cryptotrack/internal/storage"
)

// App holds all initialized services and clients.
// It is the shared core of cmd/cryptotrack-server.
type App struct {
	Config        *common.Config
	Logger        *common.Logger
	Storage       interfaces.StorageManager
	MarketClient  interfaces.MarketDataClient
	SyncService   interfaces.SyncService
	AuthService   interfaces.AuthService
	StartupTime   time.Time

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

// ResolveConfigPath picks the config file: explicit path, CRYPTOTRACK_CONFIG,
// cryptotrack.toml beside the binary, then config/cryptotrack.toml.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("CRYPTOTRACK_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "cryptotrack.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/cryptotrack.toml"
		}
	}
	return configPath
}

// NewApp loads configuration from configPath (or the default locations) and
// initializes the app. It fails when required settings are missing.
func NewApp(configPath string) (*App, error) {
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(getBinaryDir(), config.Logging.FilePath)
	}

	return NewAppFromConfig(config, common.NewLoggerFromConfig(config.Logging))
}

// NewAppFromConfig initializes storage, the market client and services.
func NewAppFromConfig(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	if missing := config.ValidateRequired(); len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	storageManager, err := storage.NewStorageManager(logger, config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if config.Clients.CoinGecko.APIKey == "" {
		logger.Debug().Msg("CoinGecko API key not configured - using public rate limits")
	}
	marketClient := coingecko.NewClientFromConfig(config.Clients.CoinGecko, logger)

	a := &App{
		Config:       config,
		Logger:       logger,
		Storage:      storageManager,
		MarketClient: marketClient,
		SyncService:  coinsync.NewService(marketClient, storageManager.SnapshotStore(), logger),
		AuthService:  auth.NewService(storageManager.UserStore(), config.Auth.JWTSecret, logger),
		StartupTime:  startupStart,
	}

	logger.Info().
		Str("storage", storageManager.Backend()).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// StartSyncScheduler launches the background sync loop. It runs once
// immediately when sync.on_startup is set, then every sync.interval.
func (a *App) StartSyncScheduler() {
	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel
	a.schedulerDone = make(chan struct{})

	go func() {
		defer close(a.schedulerDone)
		runSyncScheduler(ctx, a.SyncService, a.Logger, a.Config.Sync.GetInterval(), a.Config.Sync.OnStartup)
	}()
}

// Close releases all resources held by the App.
// Shutdown order: stop scheduler, close storage.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		<-a.schedulerDone
		a.schedulerCancel = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
