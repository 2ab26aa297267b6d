package dashboard

import (
	"time"

	"gexview/internal/chart"
	"gexview/internal/models"
	"gexview/internal/stream"
)

// Snapshot is the dashboard state published to clients.
type Snapshot struct {
	Ticker       string                            `json:"ticker"`
	Seq          uint64                            `json:"seq"`
	Timestamp    string                            `json:"timestamp"`
	CurrentPrice float64                           `json:"current_price"`
	LastTrade    *time.Time                        `json:"last_trade,omitempty"`
	Mode         models.Mode                       `json:"mode"`
	ActiveTab    models.Tab                        `json:"active_tab,omitempty"`
	Summary      models.Summary                    `json:"summary"`
	Charts       map[models.Tab]chart.SurfaceState `json:"charts,omitempty"`
	UpdatedAt    time.Time                         `json:"updated_at"`
}

// Snapshot returns the current state, or false before the first applied
// refresh.
func (d *Dashboard) Snapshot() (Snapshot, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *Dashboard) snapshotLocked() (Snapshot, bool) {
	if d.chain == nil {
		return Snapshot{}, false
	}

	s := Snapshot{
		Ticker:       d.cfg.Ticker,
		Seq:          d.applied,
		Timestamp:    d.chain.Timestamp,
		CurrentPrice: d.chain.CurrentPrice,
		Mode:         d.mode,
		ActiveTab:    d.active,
		Summary:      d.chain.Summary(d.mode),
		Charts:       make(map[models.Tab]chart.SurfaceState, len(d.engines)),
		UpdatedAt:    d.updated,
	}
	if last := d.chain.LastTradeTime(); !last.IsZero() {
		s.LastTrade = &last
	}
	for tab, engine := range d.engines {
		s.Charts[tab] = engine.State()
	}
	return s, true
}

// Summary returns the legend totals for the current mode.
func (d *Dashboard) Summary() (models.Summary, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.chain == nil {
		return models.Summary{}, false
	}
	return d.chain.Summary(d.mode), true
}

// State returns the surface for tab, or false when the tab was never shown.
func (d *Dashboard) State(tab models.Tab) (chart.SurfaceState, bool) {
	d.mu.Lock()
	engine, ok := d.engines[tab]
	d.mu.Unlock()
	if !ok {
		return chart.SurfaceState{}, false
	}
	return engine.State(), true
}

// Event wraps the current snapshot as a stream event.
func (d *Dashboard) Event() (stream.Event, bool) {
	snap, ok := d.Snapshot()
	if !ok {
		return stream.Event{}, false
	}
	return stream.NewEvent(stream.EventDashboardUpdate, snap.Ticker, snap.Seq, snap), true
}

func (d *Dashboard) publishLocked() {
	if d.publisher == nil {
		return
	}
	if snap, ok := d.snapshotLocked(); ok {
		d.publisher.Publish(stream.NewEvent(stream.EventDashboardUpdate, snap.Ticker, snap.Seq, snap))
	}
}
