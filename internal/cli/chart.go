package cli

import (
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"gexview/internal/chart"
	"gexview/internal/chart/term"
	"gexview/internal/dashboard"
	"gexview/internal/models"
)

// terminalHosts gives every tab its own screen of the configured size.
type terminalHosts struct {
	cols, rows int
	theme      chart.Theme
	screens    map[models.Tab]*term.Screen
}

func newTerminalHosts(cols, rows int, theme chart.Theme) *terminalHosts {
	return &terminalHosts{cols: cols, rows: rows, theme: theme, screens: make(map[models.Tab]*term.Screen)}
}

func (h *terminalHosts) host(tab models.Tab) (chart.Container, chart.BackendFactory) {
	s, ok := h.screens[tab]
	if !ok {
		s = term.NewScreen(h.cols, h.rows, h.theme)
		h.screens[tab] = s
	}
	return s, s.Factory
}

// screen returns the tab's screen with strike labels on the x axis.
func (h *terminalHosts) screen(tab models.Tab, d *dashboard.Dashboard) *term.Screen {
	s := h.screens[tab]
	if s == nil {
		return nil
	}
	if chain := d.Chain(); chain != nil {
		if grid, err := chain.Grid(); err == nil {
			s.SetAxis(func(i int) (string, bool) {
				strike, ok := grid.Strike(i)
				return strconv.Itoa(strike), ok
			})
		}
	}
	return s
}

func newChartCmd(app *App) *cobra.Command {
	var width, height int

	cmd := &cobra.Command{
		Use:   "chart [oi|vol]",
		Short: "Print the exposure chart once",
		Long: `Fetch the current snapshot and print the exposure chart for a tab.

  oi   gamma exposure weighted by open interest (default)
  vol  vega exposure weighted by volume`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			tab, err := parseTabArg(args, app.Config.ChartTab())
			if err != nil {
				return err
			}
			if width <= 0 {
				width = app.Config.Chart.Width
			}
			if height <= 0 {
				height = app.Config.Chart.Height
			}

			hosts := newTerminalHosts(width, height, app.theme())
			d := app.newDashboard(hosts.host)
			if err := d.ShowTab(tab); err != nil {
				return err
			}
			if err := app.refreshOrRestore(cmd.Context(), d, output); err != nil {
				return err
			}

			if output.IsJSON() {
				snap, _ := d.Snapshot()
				return output.JSON(snap)
			}
			return renderDashboard(output, d, hosts, tab)
		},
	}

	cmd.Flags().IntVar(&width, "width", 0, "chart width in columns (default from config)")
	cmd.Flags().IntVar(&height, "height", 0, "chart height in rows (default from config)")
	return cmd
}

func renderDashboard(output *Output, d *dashboard.Dashboard, hosts *terminalHosts, tab models.Tab) error {
	snap, ok := d.Snapshot()
	if !ok {
		output.Warning("No data yet")
		return nil
	}

	title := "Gamma exposure by open interest"
	if tab == models.TabVolume {
		title = "Vega exposure by volume"
	}
	output.Printf("%s  %s  %s\n",
		output.BoldText(snap.Ticker),
		output.BoldText(FormatPrice(snap.CurrentPrice)),
		output.DimText(FormatFeedTime(snap.Timestamp)))
	output.Printf("%s (%s)\n", title, snap.Mode)

	screen := hosts.screen(tab, d)
	if screen == nil {
		return errInvalidTab(string(tab))
	}
	prev := color.NoColor
	color.NoColor = !output.ColorEnabled()
	err := screen.Render(output.Writer())
	color.NoColor = prev
	if err != nil {
		return err
	}

	printSummaryLine(output, snap.Summary, tab)
	if snap.LastTrade != nil {
		output.Dim("Last trade: %s", FormatClock(*snap.LastTrade))
	}
	return nil
}

func printSummaryLine(output *Output, sum models.Summary, tab models.Tab) {
	fs := sum.Gamma
	if tab == models.TabVolume {
		fs = sum.Vega
	}
	switch {
	case fs.Net != nil:
		output.Printf("Net %s   Below %s   Above %s\n",
			output.Signed(fs.Net.Total, FormatExposure(fs.Net.Total)),
			output.Signed(fs.Net.Below, FormatExposure(fs.Net.Below)),
			output.Signed(fs.Net.Above, FormatExposure(fs.Net.Above)))
	case fs.Split != nil:
		output.Printf("Calls %s   Puts %s\n",
			output.Signed(1, FormatExposure(fs.Split.Calls)),
			output.Signed(-1, FormatExposure(fs.Split.Puts)))
	}
}

func newSummaryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print exposure totals around the current price",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			d := app.newDashboard(func(models.Tab) (chart.Container, chart.BackendFactory) {
				return chart.NewMemoryContainer(0, 0), chart.MemoryFactory
			})
			if err := app.refreshOrRestore(cmd.Context(), d, output); err != nil {
				return err
			}
			return printSummary(output, d)
		},
	}
}

func printSummary(output *Output, d *dashboard.Dashboard) error {
	snap, ok := d.Snapshot()
	if !ok {
		output.Warning("No data yet")
		return nil
	}
	if output.IsJSON() {
		return output.JSON(map[string]interface{}{
			"ticker":        snap.Ticker,
			"timestamp":     snap.Timestamp,
			"current_price": snap.CurrentPrice,
			"last_trade":    snap.LastTrade,
			"summary":       snap.Summary,
		})
	}

	output.Bold("%s @ %s", snap.Ticker, FormatPrice(snap.CurrentPrice))
	output.Dim("Snapshot %s", FormatFeedTime(snap.Timestamp))
	output.Println()
	output.Printf("%s", PadRight("GEX (open interest)", 22))
	printSummaryLine(output, snap.Summary, models.TabOpenInterest)
	output.Printf("%s", PadRight("VEX (volume)", 22))
	printSummaryLine(output, snap.Summary, models.TabVolume)
	return nil
}
