package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gexview/internal/feed"
	"gexview/internal/server"
)

func feedProxy(a *App) *feed.Proxy {
	cfg := feed.DefaultProxyConfig()
	cfg.Upstream = a.Config.Proxy.Upstream
	cfg.DefaultTicker = a.Config.Feed.Ticker
	cfg.CacheMaxAge = int(a.Config.Proxy.CacheMaxAge.Seconds())
	cfg.Timeout = a.Config.Feed.Timeout
	cfg.Rate = a.Config.Proxy.Rate
	cfg.Burst = a.Config.Proxy.Burst
	return feed.NewProxy(cfg, a.Logger)
}

func newProxyCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Relay delayed quotes with CORS headers",
		Long: `Serve GET /<ticker> by fetching the upstream delayed quotes JSON and
returning it with permissive CORS headers, so browser dashboards can read it.
An empty path serves the default ticker.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Config.Proxy.Addr
			}
			return app.proxy(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (a *App) proxy(ctx context.Context, addr string) error {
	logger := a.Logger.With().Str("command", "proxy").Logger()

	p := feedProxy(a)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Logging(logger)(p),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: a.Config.Feed.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", addr).Str("upstream", a.Config.Proxy.Upstream).Msg("Relay starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("proxy: listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
