package cli

import (
	"time"

	"github.com/spf13/cobra"

	"gexview/internal/dashboard"
	"gexview/internal/models"
	"gexview/internal/stream"
)

// publishFunc adapts a function to dashboard.Publisher.
type publishFunc func(stream.Event)

func (f publishFunc) Publish(ev stream.Event) { f(ev) }

func newWatchCmd(app *App) *cobra.Command {
	var width, height int
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch [oi|vol]",
		Short: "Redraw the exposure chart on every refresh",
		Long: `Fetch a snapshot every refresh interval and redraw the chart in place.
Press Ctrl+C to stop.`,
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
			if interval > 0 {
				app.Config.Refresh.Interval = interval
			}
			app.Config.Refresh.AutoFetch = true

			updates := make(chan stream.Event, 1)
			notify := publishFunc(func(ev stream.Event) {
				select {
				case updates <- ev:
				default:
				}
			})

			hosts := newTerminalHosts(width, height, app.theme())
			d := app.newDashboard(hosts.host, dashboard.WithPublisher(notify))
			if err := d.ShowTab(tab); err != nil {
				return err
			}
			if s := app.openStore(); s != nil {
				if err := d.Restore(cmd.Context(), s); err == nil {
					drawWatch(output, d, hosts, tab, nil)
				}
			}

			ctx := cmd.Context()
			done := make(chan error, 1)
			go func() { done <- d.Run(ctx) }()

			for {
				select {
				case <-ctx.Done():
					return <-done
				case ev := <-updates:
					drawWatch(output, d, hosts, tab, &ev)
				}
			}
		},
	}

	cmd.Flags().IntVar(&width, "width", 0, "chart width in columns (default from config)")
	cmd.Flags().IntVar(&height, "height", 0, "chart height in rows (default from config)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "refresh interval (default from config)")
	return cmd
}

func drawWatch(output *Output, d *dashboard.Dashboard, hosts *terminalHosts, tab models.Tab, ev *stream.Event) {
	if output.IsJSON() {
		if ev != nil {
			output.JSON(ev)
		}
		return
	}
	if ev != nil && ev.Type == stream.EventRefreshError {
		output.Error("Refresh failed: %v", ev.Data)
		return
	}
	if output.ColorEnabled() {
		output.Printf("\033[H\033[2J")
	}
	if err := renderDashboard(output, d, hosts, tab); err != nil {
		output.Error("Render failed: %v", err)
		return
	}
	output.Dim("Updated %s, every %s. Ctrl+C to stop.", FormatClock(time.Now()), FormatDuration(d.Interval()))
}
