package chart

import (
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"gexview/internal/errors"
	"gexview/internal/gex"
	"gexview/internal/models"
)

const (
	// visibleHalfWidth is how many grid indexes are shown either side of
	// the price.
	visibleHalfWidth = 100
	minScale         = 0.1
	priceLineReach   = 100
	autoscalePadding = 1.1
)

// Engine owns one chart surface: the value series, the price line and the
// floating price label. All methods are safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	factory BackendFactory
	theme   Theme
	logger  zerolog.Logger

	container Container
	backend   Backend
	grid      *gex.StrikeGrid
	mode      models.Mode

	values    []loadedSeries
	maxAbs    float64
	priceLine *priceLine
	label     *priceLabel
	centered  bool
	center    int
}

type loadedSeries struct {
	handle Series
	name   string
	color  string
	points []Point
}

type priceLine struct {
	handle    Series
	index     int
	points    []Point
	autoscale AutoscaleRange
}

type priceLabel struct {
	label       Label
	text        string
	price       float64
	unsubscribe func()
}

// NewEngine creates an uninitialized engine. Surfaces are allocated by
// factory on Create.
func NewEngine(factory BackendFactory, theme Theme, logger zerolog.Logger) *Engine {
	return &Engine{
		factory: factory,
		theme:   theme,
		logger:  logger.With().Str("component", "chart").Logger(),
		mode:    models.ModeNet,
	}
}

// Create allocates a surface bound to container. No series are drawn until
// LoadInitial. Calling Create again releases the previous surface first.
func (e *Engine) Create(container Container, grid *gex.StrikeGrid, mode models.Mode) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.backend != nil {
		e.teardown()
		e.dropLabel()
	}

	backend, err := e.factory(container)
	if err != nil {
		return errors.NewBackendOperationError("create", err)
	}

	e.container = container
	e.backend = backend
	e.grid = grid
	e.mode = mode
	e.centered = false

	if container != nil {
		w, h := container.Size()
		backend.Resize(w, h)
	}
	return nil
}

// LoadInitial draws series aligned onto the current grid: one histogram in
// net mode, calls and puts in split mode.
func (e *Engine) LoadInitial(series models.AggregateSeries) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.load(series)
}

func (e *Engine) load(series models.AggregateSeries) error {
	if e.backend == nil || e.grid == nil {
		return errors.ErrNotInitialized
	}

	e.mode = series.Mode
	e.maxAbs = 0

	type side struct {
		name   string
		color  string
		values []models.StrikeValue
	}
	var sides []side
	if series.Mode == models.ModeSplit {
		sides = []side{
			{"calls", e.theme.Positive, series.Calls},
			{"puts", e.theme.Negative, series.Puts},
		}
	} else {
		sides = []side{{"net", "", series.Net}}
	}

	for _, s := range sides {
		points := Align(s.values, e.grid)
		for i := range points {
			if series.Mode != models.ModeSplit {
				points[i].Color = e.barColor(points[i].Value)
			}
			e.maxAbs = math.Max(e.maxAbs, math.Abs(points[i].Value))
		}

		handle, err := e.backend.AddSeries(SeriesOptions{Name: s.name, Kind: KindHistogram, Color: s.color})
		if err != nil {
			return errors.NewBackendOperationError("add series "+s.name, err)
		}
		e.values = append(e.values, loadedSeries{handle: handle, name: s.name, color: s.color, points: points})
		if err := handle.SetData(points); err != nil {
			return errors.NewBackendOperationError("set data "+s.name, err)
		}
	}
	return nil
}

func (e *Engine) barColor(v float64) string {
	if v >= 0 {
		return e.theme.Positive
	}
	return e.theme.Negative
}

// Update adopts grid, replaces every value series and the price line, and
// places the price marker at price.
func (e *Engine) Update(series models.AggregateSeries, grid *gex.StrikeGrid, price float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.backend == nil {
		return errors.ErrNotInitialized
	}
	if grid != nil && !e.grid.Equal(grid) {
		e.logger.Debug().Int("strikes", grid.Len()).Msg("Strike grid changed")
	}
	e.grid = grid
	e.teardown()

	if err := e.load(series); err != nil {
		return err
	}
	return e.placePriceMarker(price)
}

// teardown removes value series and the price line. Removal failures are
// logged and ignored.
func (e *Engine) teardown() {
	for _, s := range e.values {
		if err := e.backend.RemoveSeries(s.handle); err != nil {
			e.logger.Debug().Err(err).Str("series", s.name).Msg("Series removal failed")
		}
	}
	e.values = nil

	if e.priceLine != nil {
		if err := e.backend.RemoveSeries(e.priceLine.handle); err != nil {
			e.logger.Debug().Err(err).Str("series", "price").Msg("Series removal failed")
		}
		e.priceLine = nil
	}
}

func (e *Engine) dropLabel() {
	if e.label == nil {
		return
	}
	if e.label.unsubscribe != nil {
		e.label.unsubscribe()
	}
	e.label.label.Remove()
	e.label = nil
}

// PlacePriceMarker centers the view on the strike nearest to price and draws
// the vertical price line and its label. A non-positive price is ignored.
func (e *Engine) PlacePriceMarker(price float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.placePriceMarker(price)
}

func (e *Engine) placePriceMarker(price float64) error {
	if e.backend == nil {
		return errors.ErrNotInitialized
	}
	if e.grid == nil || e.grid.Len() == 0 || !(price > 0) {
		return nil
	}

	idx := e.grid.Nearest(price)
	e.center = idx
	e.centered = true
	if err := e.backend.SetVisibleRange(centeredRange(idx)); err != nil {
		return errors.NewBackendOperationError("set visible range", err)
	}

	if err := e.addPriceLine(idx); err != nil {
		return err
	}
	e.addPriceLabel(idx, price)
	return nil
}

func centeredRange(idx int) LogicalRange {
	return LogicalRange{From: float64(idx - visibleHalfWidth), To: float64(idx + visibleHalfWidth)}
}

func (e *Engine) addPriceLine(idx int) error {
	if e.priceLine != nil {
		if err := e.backend.RemoveSeries(e.priceLine.handle); err != nil {
			e.logger.Debug().Err(err).Str("series", "price").Msg("Series removal failed")
		}
		e.priceLine = nil
	}

	scale := math.Max(e.maxAbs, minScale)
	autoscale := AutoscaleRange{Min: -scale * autoscalePadding, Max: scale * autoscalePadding}
	handle, err := e.backend.AddSeries(SeriesOptions{
		Name:      "price",
		Kind:      KindLine,
		Color:     e.theme.PriceLine,
		Dashed:    true,
		Autoscale: &autoscale,
	})
	if err != nil {
		return errors.NewBackendOperationError("add series price", err)
	}

	extent := scale * autoscalePadding * priceLineReach
	points := []Point{{Index: idx, Value: -extent}, {Index: idx, Value: extent}}
	e.priceLine = &priceLine{handle: handle, index: idx, points: points, autoscale: autoscale}
	if err := handle.SetData(points); err != nil {
		return errors.NewBackendOperationError("set data price", err)
	}
	return nil
}

func (e *Engine) addPriceLabel(idx int, price float64) {
	e.dropLabel()
	if e.container == nil {
		return
	}

	label := e.container.NewLabel()
	text := fmt.Sprintf("%d", int64(math.Round(price)))
	label.SetText(text)

	backend := e.backend
	position := func() {
		x, ok := backend.LogicalToCoordinate(float64(idx))
		label.SetVisible(ok)
		if ok {
			label.SetLeft(x)
		}
	}
	position()
	unsubscribe := backend.SubscribeVisibleRangeChange(func(LogicalRange) { position() })

	e.label = &priceLabel{label: label, text: text, price: price, unsubscribe: unsubscribe}
}

// Recenter restores the window around the last placed price marker. It does
// nothing when no marker has been placed.
func (e *Engine) Recenter() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.backend == nil || !e.centered {
		return nil
	}
	if err := e.backend.SetVisibleRange(centeredRange(e.center)); err != nil {
		return errors.NewBackendOperationError("set visible range", err)
	}
	return nil
}

// Resize fits the surface to the container. It does nothing before Create.
func (e *Engine) Resize() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.backend == nil || e.container == nil {
		return
	}
	e.backend.Resize(e.container.Size())
}

// Destroy releases the surface. The engine can be created again afterwards.
func (e *Engine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.backend == nil {
		return
	}
	e.teardown()
	e.dropLabel()
	e.backend = nil
	e.container = nil
	e.grid = nil
	e.centered = false
}

// Initialized reports whether Create has succeeded.
func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backend != nil
}
