package cli

import (
	"github.com/spf13/cobra"

	"gexview/internal/config"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			path := config.ConfigPath(app.ConfigDir)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": path})
			} else {
				output.Println(path)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Feed")
	output.Printf("  Base URL:      %s\n", cfg.Feed.BaseURL)
	output.Printf("  Ticker:        %s\n", cfg.Feed.Ticker)
	date := cfg.Feed.DateCode
	if date == "" {
		date = "current trading day"
	}
	output.Printf("  Expiry:        %s\n", date)
	output.Printf("  Timeout:       %s\n", cfg.Feed.Timeout)
	output.Println()

	output.Bold("Refresh")
	output.Printf("  Interval:      %s\n", cfg.Refresh.Interval)
	output.Printf("  Auto fetch:    %v\n", cfg.Refresh.AutoFetch)
	output.Printf("  Discard stale: %v\n", cfg.Refresh.DiscardStale)
	output.Println()

	output.Bold("Chart")
	output.Printf("  Mode:          %s\n", cfg.Chart.Mode)
	output.Printf("  Tab:           %s\n", cfg.Chart.Tab)
	output.Printf("  Size:          %dx%d\n", cfg.Chart.Width, cfg.Chart.Height)
	output.Println()

	output.Bold("Server")
	output.Printf("  Address:       %s\n", cfg.Server.Addr)
	output.Printf("  CORS origins:  %v\n", cfg.Server.CORSOrigins)
	output.Println()

	output.Bold("Proxy")
	output.Printf("  Address:       %s\n", cfg.Proxy.Addr)
	output.Printf("  Upstream:      %s\n", cfg.Proxy.Upstream)
	output.Printf("  Rate limit:    %.1f/s, burst %d\n", cfg.Proxy.Rate, cfg.Proxy.Burst)
	output.Println()

	output.Bold("Store")
	output.Printf("  Enabled:       %v\n", cfg.Store.Enabled)
	output.Printf("  Path:          %s\n", cfg.Store.Path)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:         %s\n", cfg.Logging.Level)
	output.Printf("  File:          %s\n", cfg.Logging.FilePath)
}
