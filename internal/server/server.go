// Package server exposes the dashboard over HTTP and streams updates over a
// websocket.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"gexview/internal/chart"
	"gexview/internal/dashboard"
	"gexview/internal/feed"
	"gexview/internal/models"
	"gexview/internal/stream"
)

// Dashboard is the part of the dashboard the API drives.
type Dashboard interface {
	Ticker() string
	Snapshot() (dashboard.Snapshot, bool)
	Summary() (models.Summary, bool)
	State(tab models.Tab) (chart.SurfaceState, bool)
	Event() (stream.Event, bool)
	Refresh(ctx context.Context) error
	Recenter() error
	Mode() models.Mode
	SetMode(mode models.Mode) error
	ShowTab(tab models.Tab) error
	ActiveTab() models.Tab
}

// Config holds the HTTP server configuration.
type Config struct {
	Addr         string
	CORSOrigins  []string
	RefreshLimit time.Duration // upper bound on a POST /api/refresh
	FeedStats    func() feed.BreakerStats
}

// Server is the HTTP + websocket API.
type Server struct {
	cfg        Config
	dash       Dashboard
	hub        *stream.Hub
	httpServer *http.Server
	logger     zerolog.Logger
	started    time.Time
	refreshes  *refreshTracker
}

// New creates a server with every route registered.
func New(cfg Config, dash Dashboard, hub *stream.Hub, logger zerolog.Logger) *Server {
	if cfg.RefreshLimit <= 0 {
		cfg.RefreshLimit = 30 * time.Second
	}
	s := &Server{
		cfg:     cfg,
		dash:    dash,
		hub:     hub,
		logger:  logger.With().Str("component", "server").Logger(),
		started: time.Now(),
	}
	if hub != nil {
		s.refreshes = &refreshTracker{}
		hub.RegisterConsumer(stream.NewConsumerFunc([]string{dash.Ticker()}, s.refreshes.OnEvent))
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RefreshLimit + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/chart/{tab}", s.handleChart)
	mux.HandleFunc("POST /api/chart/{tab}/show", s.handleShowTab)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/recenter", s.handleRecenter)
	mux.HandleFunc("GET /api/mode", s.handleGetMode)
	mux.HandleFunc("PUT /api/mode", s.handleSetMode)

	if s.hub != nil {
		mux.Handle("GET /ws", stream.NewWSHandler(s.hub, s.dash.Ticker(), s.dash.Event, s.logger))
	}

	var h http.Handler = mux
	h = Logging(s.logger)(h)
	h = CORS(s.cfg.CORSOrigins)(h)
	return h
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Server starting")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server: serve: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info().Msg("Server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return <-errCh
}
