package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vrautomations/cryptotrack/internal/app"
	"github.com/vrautomations/cryptotrack/internal/common"
	"github.com/vrautomations/cryptotrack/internal/dashboard"
)

// cli carries state shared by all subcommands. It is filled in by the root
// command's PersistentPreRunE.
type cli struct {
	configPath string
	apiBase    string
	cacheDir   string
	logLevel   string

	config *common.Config
	logger *common.Logger
	client *dashboard.Client
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "cryptotrack",
		Short: "Cryptocurrency market dashboard",
		Long: `Terminal dashboard for the cryptotrack API.

Shows the top coins by market cap with search and sorting, the stored
snapshot and per-coin history (optionally as a PNG chart), and manages
the signed-in session. When the market data provider is rate limited the
last successful list is served from the local cache.`,
		Version:       common.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to cryptotrack.toml")
	root.PersistentFlags().StringVar(&c.apiBase, "api", "", "API base URL (default from config, "+dashboard.DefaultAPIBase+")")
	root.PersistentFlags().StringVar(&c.cacheDir, "cache-dir", "", "local cache directory (default from config)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (trace, debug, info, warn, error, disabled)")

	root.AddCommand(
		newCoinsCmd(c),
		newCurrentCmd(c),
		newSnapshotCmd(c),
		newHistoryCmd(c),
		newSignupCmd(c),
		newLoginCmd(c),
		newMeCmd(c),
		newLogoutCmd(c),
	)

	return root
}

func (c *cli) init() error {
	cfg, err := common.LoadConfig(app.ResolveConfigPath(c.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.apiBase != "" {
		cfg.Dashboard.APIBase = c.apiBase
	}
	if c.cacheDir != "" {
		cfg.Dashboard.CachePath = c.cacheDir
	}

	level := c.logLevel
	if level == "" {
		level = "warn"
	}
	cfg.Logging.Level = level

	c.config = cfg
	c.logger = common.NewLogger(level)
	c.client = dashboard.NewClient(cfg.Dashboard.APIBase, dashboard.WithClientLogger(c.logger))
	return nil
}

// openStore opens the local cache. Callers must close it.
func (c *cli) openStore() (*dashboard.BadgerLocalStore, error) {
	return dashboard.OpenLocalStore(c.logger, c.config.Dashboard.CachePath)
}

func (c *cli) refreshInterval() time.Duration {
	return c.config.Dashboard.GetRefreshInterval()
}
