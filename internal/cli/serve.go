package cli

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gexview/internal/chart"
	"gexview/internal/dashboard"
	"gexview/internal/errors"
	"gexview/internal/models"
	"gexview/internal/server"
	"gexview/internal/stream"
)

// Pixel size of the headless surfaces behind the HTTP API.
const (
	surfaceWidth  = 1200
	surfaceHeight = 600
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve charts over HTTP and push updates over a websocket",
		Long: `Run the refresh loop and expose the dashboard over HTTP.

Endpoints:
  GET  /api/health            status and stream metrics
  GET  /api/snapshot          full dashboard state
  GET  /api/summary           exposure totals
  GET  /api/chart/{tab}       chart surface for oi or vol
  POST /api/chart/{tab}/show  create and recenter a tab
  POST /api/refresh           refresh now
  POST /api/recenter          recenter every chart
  GET  /api/mode              current display mode
  PUT  /api/mode              {"mode": "net"|"split"}
  GET  /ws                    dashboard.update events`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Config.Server.Addr
			}
			return app.serve(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (a *App) serve(ctx context.Context, addr string) error {
	logger := a.Logger.With().Str("command", "serve").Logger()

	hub := stream.NewHub()
	if err := hub.Start(ctx); err != nil {
		return err
	}
	defer hub.Stop()

	ticker := a.Config.Feed.Ticker
	hosts := func(models.Tab) (chart.Container, chart.BackendFactory) {
		return chart.NewMemoryContainer(surfaceWidth, surfaceHeight), chart.MemoryFactory
	}
	d := a.newDashboard(hosts, dashboard.WithPublisher(hub))
	if err := d.ShowTab(a.Config.ChartTab()); err != nil {
		return err
	}
	if s := a.openStore(); s != nil {
		if err := d.Restore(ctx, s); err != nil && !errors.Is(err, errors.ErrDataNotFound) {
			logger.Warn().Err(err).Msg("Failed to restore cached snapshot")
		}
	}

	srv := server.New(server.Config{
		Addr:        addr,
		CORSOrigins: a.Config.Server.CORSOrigins,
		FeedStats:   a.fetcher().Stats,
	}, d, hub, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx) })
	g.Go(func() error { return d.Run(gctx) })

	logger.Info().Str("addr", addr).Str("ticker", ticker).Dur("interval", a.Config.Refresh.Interval).Msg("Serving dashboard")
	return g.Wait()
}
