// Package cli provides the command-line interface for gexview.
package cli

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"gexview/internal/chart"
	"gexview/internal/config"
	"gexview/internal/dashboard"
	"gexview/internal/feed"
	"gexview/internal/logging"
	"gexview/internal/models"
	"gexview/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-10-18"
)

// App holds the application dependencies. They are populated from the
// config directory before any command runs.
type App struct {
	ConfigDir string
	Config    *config.Config
	Logger    zerolog.Logger
	Store     store.SnapshotStore

	breaker *feed.Breaker
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	app := &App{Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "gexview",
		Short: "Dealer gamma and vega exposure by strike",
		Long: `gexview fetches delayed option chain snapshots, aggregates dealer gamma
exposure (weighted by open interest) and vega exposure (weighted by volume)
per strike around the current price, and renders them as bar charts.

Charts can be printed once, watched in the terminal, or served over HTTP
with websocket updates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app.Store != nil {
				return app.Store.Close()
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/gexview)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("ticker", "", "underlying ticker (e.g. _SPX, _NDX, SPY)")
	rootCmd.PersistentFlags().String("mode", "", "display mode: net or split")
	rootCmd.PersistentFlags().String("date", "", "front-cycle expiry as YYMMDD")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newChartCmd(app))
	rootCmd.AddCommand(newSummaryCmd(app))
	rootCmd.AddCommand(newWatchCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newProxyCmd(app))
	rootCmd.AddCommand(newCacheCmd(app))

	return rootCmd
}

// setup loads configuration, applies flag overrides and sets up logging.
func (a *App) setup(cmd *cobra.Command) error {
	a.ConfigDir, _ = cmd.Flags().GetString("config")
	if a.ConfigDir == "" {
		a.ConfigDir = config.DefaultConfigDir()
	}

	cfg, err := config.Load(a.ConfigDir)
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetString("ticker"); v != "" {
		cfg.Feed.Ticker = strings.ToUpper(v)
	}
	if v, _ := cmd.Flags().GetString("mode"); v != "" {
		cfg.Chart.Mode = v
	}
	if v, _ := cmd.Flags().GetString("date"); v != "" {
		cfg.Feed.DateCode = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.Config = cfg

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Console = cfg.Logging.Console
	logCfg.File = cfg.Logging.File
	logCfg.FilePath = cfg.Logging.FilePath
	a.Logger = logging.NewLoggerWithConfig(logCfg)

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logging.SetDebugLevel()
		a.Logger = a.Logger.Level(zerolog.DebugLevel)
	}
	return nil
}

// openStore opens the snapshot cache when enabled. A failure is logged and
// the command continues without it.
func (a *App) openStore() store.SnapshotStore {
	if !a.Config.Store.Enabled {
		return nil
	}
	if a.Store != nil {
		return a.Store
	}
	s, err := store.NewSQLiteStore(a.Config.Store.Path)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to open snapshot cache, continuing without it")
		return nil
	}
	a.Store = s
	a.Logger.Debug().Str("path", a.Config.Store.Path).Msg("Snapshot cache opened")
	return s
}

// fetcher returns a circuit-broken client for the configured feed. The raw
// upstream serves "<ticker>.json"; a relay serves "<ticker>".
func (a *App) fetcher() *feed.Breaker {
	if a.breaker != nil {
		return a.breaker
	}
	base := a.Config.Feed.BaseURL
	var opts []feed.ClientOption
	if strings.HasPrefix(base, feed.DefaultUpstream) {
		opts = append(opts, feed.WithSuffix(".json"))
	}
	client := feed.NewClient(base, a.Config.Feed.Timeout, a.Logger, opts...)
	a.breaker = feed.NewBreaker(client, feed.DefaultBreakerConfig(), a.Logger)
	return a.breaker
}

func (a *App) theme() chart.Theme {
	return chart.Theme{
		Positive:  a.Config.Chart.Positive,
		Negative:  a.Config.Chart.Negative,
		PriceLine: a.Config.Chart.Price,
	}
}

func (a *App) dashboardConfig() dashboard.Config {
	return dashboard.Config{
		Ticker:       a.Config.Feed.Ticker,
		DateCode:     a.Config.Feed.DateCode,
		Mode:         a.Config.ChartMode(),
		Interval:     a.Config.Refresh.Interval,
		AutoFetch:    a.Config.Refresh.AutoFetch,
		DiscardStale: a.Config.Refresh.DiscardStale,
		Theme:        a.theme(),
	}
}

// newDashboard builds a dashboard over the configured feed. When the cache
// is enabled, applied snapshots are saved to it.
func (a *App) newDashboard(hosts dashboard.HostFunc, opts ...dashboard.Option) *dashboard.Dashboard {
	if s := a.openStore(); s != nil {
		opts = append(opts, dashboard.WithSnapshotSaver(s))
	}
	return dashboard.New(a.dashboardConfig(), a.fetcher(), hosts, a.Logger, opts...)
}

// refreshOrRestore fetches once and falls back to the cached snapshot when
// the feed is unavailable.
func (a *App) refreshOrRestore(ctx context.Context, d *dashboard.Dashboard, out *Output) error {
	err := d.Refresh(ctx)
	if err == nil {
		return nil
	}
	s := a.openStore()
	if s == nil {
		return err
	}
	if rerr := d.Restore(ctx, s); rerr != nil {
		return err
	}
	out.Warning("Feed unavailable (%v); showing cached snapshot", err)
	return nil
}

func parseTabArg(args []string, fallback models.Tab) (models.Tab, error) {
	if len(args) == 0 {
		return fallback, nil
	}
	tab, ok := models.ParseTab(args[0])
	if !ok {
		return "", errInvalidTab(args[0])
	}
	return tab, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("gexview v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}
