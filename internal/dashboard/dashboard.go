// Package dashboard keeps one chart engine per tab in sync with periodic
// snapshot refreshes.
package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"gexview/internal/chart"
	"gexview/internal/errors"
	"gexview/internal/gex"
	"gexview/internal/logging"
	"gexview/internal/models"
	"gexview/internal/store"
	"gexview/internal/stream"
	"gexview/pkg/utils"
)

// Fetcher retrieves the current snapshot for a ticker.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string) (*models.QuoteFeed, error)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc func(ctx context.Context, ticker string) (*models.QuoteFeed, error)

// Fetch implements Fetcher.
func (f FetchFunc) Fetch(ctx context.Context, ticker string) (*models.QuoteFeed, error) {
	return f(ctx, ticker)
}

// Publisher receives dashboard events.
type Publisher interface {
	Publish(ev stream.Event)
}

// SnapshotSaver persists the last applied snapshot.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, ticker string, feed *models.QuoteFeed, fetchedAt time.Time) error
}

// SnapshotLoader reads a persisted snapshot.
type SnapshotLoader interface {
	LatestSnapshot(ctx context.Context, ticker string) (*store.Snapshot, error)
}

// HostFunc supplies the container and backend factory for a tab's chart.
type HostFunc func(tab models.Tab) (chart.Container, chart.BackendFactory)

// Config holds dashboard settings.
type Config struct {
	Ticker   string
	DateCode string // YYMMDD; empty means the current trading day
	Mode     models.Mode
	Interval time.Duration
	// AutoFetch makes Run refresh every Interval.
	AutoFetch bool
	// DiscardStale drops a refresh that completes after a newer one was
	// applied. When false the last refresh to complete wins.
	DiscardStale bool
	Theme        chart.Theme
}

// DefaultConfig returns the default dashboard configuration.
func DefaultConfig() Config {
	return Config{
		Ticker:       "_SPX",
		Mode:         models.ModeNet,
		Interval:     60 * time.Second,
		AutoFetch:    true,
		DiscardStale: true,
		Theme:        chart.DefaultTheme(),
	}
}

// Dashboard owns the cached chain and the per-tab chart engines.
type Dashboard struct {
	cfg       Config
	fetcher   Fetcher
	hosts     HostFunc
	logger    zerolog.Logger
	publisher Publisher
	saver     SnapshotSaver
	onError   func(error)
	now       func() time.Time

	seq atomic.Uint64

	mu      sync.Mutex
	applied uint64
	chain   *gex.Chain
	grid    *gex.StrikeGrid
	mode    models.Mode
	engines map[models.Tab]*chart.Engine
	active  models.Tab
	updated time.Time
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithPublisher publishes an event for every applied refresh and failure.
func WithPublisher(p Publisher) Option {
	return func(d *Dashboard) { d.publisher = p }
}

// WithSnapshotSaver persists every applied snapshot.
func WithSnapshotSaver(s SnapshotSaver) Option {
	return func(d *Dashboard) { d.saver = s }
}

// WithErrorHandler is called with every failed refresh.
func WithErrorHandler(fn func(error)) Option {
	return func(d *Dashboard) { d.onError = fn }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) { d.now = now }
}

// New creates a dashboard. No chart exists until ShowTab.
func New(cfg Config, fetcher Fetcher, hosts HostFunc, logger zerolog.Logger, opts ...Option) *Dashboard {
	if cfg.Mode == "" {
		cfg.Mode = models.ModeNet
	}
	d := &Dashboard{
		cfg:     cfg,
		fetcher: fetcher,
		hosts:   hosts,
		logger:  logging.WithTicker(logger, cfg.Ticker).With().Str("component", "dashboard").Logger(),
		now:     time.Now,
		mode:    cfg.Mode,
		engines: make(map[models.Tab]*chart.Engine),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Ticker returns the ticker the dashboard follows.
func (d *Dashboard) Ticker() string { return d.cfg.Ticker }

// Interval returns the auto-fetch period.
func (d *Dashboard) Interval() time.Duration { return d.cfg.Interval }

// DateCode returns the expiry code used to select front-cycle contracts.
func (d *Dashboard) DateCode() string {
	if d.cfg.DateCode != "" {
		return d.cfg.DateCode
	}
	return utils.TradingDayCode(d.now())
}

// Refresh fetches a snapshot and applies it to every created chart. Each
// call takes a sequence number before fetching; with DiscardStale a result
// older than the last applied one is dropped. On failure the rendered state
// is left as it was.
func (d *Dashboard) Refresh(ctx context.Context) error {
	seq := d.seq.Add(1)
	start := time.Now()

	feed, err := d.fetcher.Fetch(ctx, d.cfg.Ticker)
	if err != nil {
		d.fail(seq, err)
		return err
	}

	applied, err := d.apply(seq, feed, start)
	if err != nil {
		d.fail(seq, err)
		return err
	}
	if applied && d.saver != nil {
		if err := d.saver.SaveSnapshot(ctx, d.cfg.Ticker, feed, d.now()); err != nil {
			d.logger.Warn().Err(err).Msg("Failed to cache snapshot")
		}
	}
	return nil
}

// Apply renders feed as if it had just been fetched. Failures are reported
// the same way as a failed Refresh.
func (d *Dashboard) Apply(feed *models.QuoteFeed) error {
	seq := d.seq.Add(1)
	if _, err := d.apply(seq, feed, time.Now()); err != nil {
		d.fail(seq, err)
		return err
	}
	return nil
}

// Restore applies the snapshot persisted for the ticker, if any.
func (d *Dashboard) Restore(ctx context.Context, loader SnapshotLoader) error {
	snap, err := loader.LatestSnapshot(ctx, d.cfg.Ticker)
	if err != nil {
		return err
	}
	d.logger.Info().Time("fetched_at", snap.FetchedAt).Msg("Restored cached snapshot")
	return d.Apply(snap.Feed)
}

func (d *Dashboard) apply(seq uint64, feed *models.QuoteFeed, start time.Time) (bool, error) {
	chain := gex.NewChain(feed, d.cfg.Ticker, d.DateCode())
	grid, err := chain.Grid()
	if err != nil {
		return false, err
	}
	if chain.Unparsed > 0 {
		d.logger.Debug().Int("unparsed", chain.Unparsed).Msg("Skipped symbols without type or strike")
	}

	d.mu.Lock()
	mode := d.mode
	d.mu.Unlock()
	series := buildSeries(chain, mode)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cfg.DiscardStale && seq <= d.applied {
		logging.LogRefresh(d.logger, seq, chain.CurrentPrice, len(chain.Records), false, time.Since(start))
		return false, nil
	}
	if d.mode != mode {
		series = buildSeries(chain, d.mode)
	}

	d.chain, d.grid, d.applied, d.updated = chain, grid, seq, d.now()

	var errs []error
	for tab, engine := range d.engines {
		if err := engine.Update(series[tab], grid, chain.CurrentPrice); err != nil {
			errs = append(errs, errors.Wrapf(err, "update %s chart", tab))
		}
	}

	logging.LogRefresh(d.logger, seq, chain.CurrentPrice, len(chain.Records), true, time.Since(start))
	d.publishLocked()
	return true, errors.Join(errs...)
}

func buildSeries(chain *gex.Chain, mode models.Mode) map[models.Tab]models.AggregateSeries {
	out := make(map[models.Tab]models.AggregateSeries, len(models.Tabs))
	for _, tab := range models.Tabs {
		out[tab] = chain.StrikeData(tab.Field(), mode)
	}
	return out
}

func (d *Dashboard) fail(seq uint64, err error) {
	if errors.Is(err, context.Canceled) {
		d.logger.Debug().Uint64("seq", seq).Msg("Refresh cancelled")
		return
	}
	d.logger.Error().Err(err).Uint64("seq", seq).Msg("Refresh failed")
	if d.onError != nil {
		d.onError(err)
	}
	if d.publisher != nil {
		d.publisher.Publish(stream.NewEvent(stream.EventRefreshError, d.cfg.Ticker, seq, map[string]string{"error": err.Error()}))
	}
}

// Run refreshes once and then, when AutoFetch is set, every Interval until
// ctx is done. Ticks do not wait for an earlier refresh to finish.
func (d *Dashboard) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	launch := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Refresh(ctx)
		}()
	}
	defer wg.Wait()

	launch()
	if !d.cfg.AutoFetch || d.cfg.Interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			launch()
		}
	}
}

// Mode returns the current display mode.
func (d *Dashboard) Mode() models.Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// SetMode switches the display mode and redraws every created chart from
// the cached chain.
func (d *Dashboard) SetMode(mode models.Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.mode = mode
	if d.chain == nil {
		return nil
	}

	var errs []error
	for tab, engine := range d.engines {
		series := d.chain.StrikeData(tab.Field(), mode)
		if err := engine.Update(series, d.grid, d.chain.CurrentPrice); err != nil {
			errs = append(errs, errors.Wrapf(err, "update %s chart", tab))
		}
	}
	d.publishLocked()
	return errors.Join(errs...)
}

// ShowTab makes tab active, creating its chart on first use, and recenters it.
func (d *Dashboard) ShowTab(tab models.Tab) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	engine, ok := d.engines[tab]
	if !ok {
		container, factory := d.hosts(tab)
		engine = chart.NewEngine(factory, d.cfg.Theme, logging.WithTab(d.logger, string(tab)))
		if err := engine.Create(container, d.grid, d.mode); err != nil {
			return err
		}
		d.engines[tab] = engine

		if d.chain != nil {
			series := d.chain.StrikeData(tab.Field(), d.mode)
			if err := engine.Update(series, d.grid, d.chain.CurrentPrice); err != nil {
				return err
			}
		}
	}

	d.active = tab
	return engine.Recenter()
}

// ActiveTab returns the last tab shown.
func (d *Dashboard) ActiveTab() models.Tab {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Recenter recenters every created chart on the price.
func (d *Dashboard) Recenter() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for _, engine := range d.engines {
		if err := engine.Recenter(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Resize fits every created chart to its container.
func (d *Dashboard) Resize() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, engine := range d.engines {
		engine.Resize()
	}
}

// Engine returns the chart for tab, or nil before ShowTab.
func (d *Dashboard) Engine(tab models.Tab) *chart.Engine {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.engines[tab]
}

// Chain returns the last applied chain, or nil.
func (d *Dashboard) Chain() *gex.Chain {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.chain
}
