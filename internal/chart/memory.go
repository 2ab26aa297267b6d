package chart

import (
	"fmt"
	"sync"

	"gexview/internal/errors"
)

// MemoryBackend is a headless Backend that keeps series in memory. It maps
// the visible range linearly onto the container width.
type MemoryBackend struct {
	mu       sync.Mutex
	nextID   int
	series   map[int]*MemorySeries
	visible  LogicalRange
	hasRange bool
	width    int
	height   int
	subs     map[int]func(LogicalRange)
	nextSub  int
}

// MemorySeries is a series held by a MemoryBackend.
type MemorySeries struct {
	id      int
	backend *MemoryBackend
	opts    SeriesOptions
	points  []Point
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		series: make(map[int]*MemorySeries),
		subs:   make(map[int]func(LogicalRange)),
	}
}

// MemoryFactory is a BackendFactory producing MemoryBackends.
func MemoryFactory(Container) (Backend, error) {
	return NewMemoryBackend(), nil
}

func (b *MemoryBackend) AddSeries(opts SeriesOptions) (Series, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	s := &MemorySeries{id: b.nextID, backend: b, opts: opts}
	b.series[s.id] = s
	return s, nil
}

func (b *MemoryBackend) RemoveSeries(s Series) error {
	ms, ok := s.(*MemorySeries)
	if !ok || ms.backend != b {
		return errors.ErrSeriesNotFound
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.series[ms.id]; !ok {
		return fmt.Errorf("series %d: %w", ms.id, errors.ErrSeriesNotFound)
	}
	delete(b.series, ms.id)
	return nil
}

func (b *MemoryBackend) SetVisibleRange(r LogicalRange) error {
	b.mu.Lock()
	b.visible = r
	b.hasRange = true
	subs := make([]func(LogicalRange), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn(r)
	}
	return nil
}

func (b *MemoryBackend) VisibleRange() (LogicalRange, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible, b.hasRange
}

func (b *MemoryBackend) LogicalToCoordinate(index float64) (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return linearCoordinate(b.visible, b.hasRange, b.width, index)
}

// linearCoordinate maps index onto [0, width] across r.
func linearCoordinate(r LogicalRange, hasRange bool, width int, index float64) (float64, bool) {
	span := r.To - r.From
	if !hasRange || width <= 0 || span <= 0 {
		return 0, false
	}
	x := (index - r.From) / span * float64(width)
	if x < 0 || x > float64(width) {
		return 0, false
	}
	return x, true
}

func (b *MemoryBackend) SubscribeVisibleRangeChange(fn func(LogicalRange)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextSub++
	id := b.nextSub
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

func (b *MemoryBackend) Resize(width, height int) {
	b.mu.Lock()
	b.width, b.height = width, height
	b.mu.Unlock()
}

// Size returns the last size passed to Resize.
func (b *MemoryBackend) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

// SeriesCount returns the number of live series.
func (b *MemoryBackend) SeriesCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.series)
}

// Subscribers returns the number of range-change subscriptions.
func (b *MemoryBackend) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (s *MemorySeries) SetData(points []Point) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.points = append([]Point(nil), points...)
	return nil
}

// Options returns the options the series was added with.
func (s *MemorySeries) Options() SeriesOptions { return s.opts }

// Points returns a copy of the series data.
func (s *MemorySeries) Points() []Point {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	return append([]Point(nil), s.points...)
}

// MemoryContainer is a fixed-size host whose labels are plain values.
type MemoryContainer struct {
	mu     sync.Mutex
	width  int
	height int
	labels []*MemoryLabel
}

// NewMemoryContainer returns a container of the given pixel size.
func NewMemoryContainer(width, height int) *MemoryContainer {
	return &MemoryContainer{width: width, height: height}
}

func (c *MemoryContainer) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// SetSize changes the size reported to the next Resize.
func (c *MemoryContainer) SetSize(width, height int) {
	c.mu.Lock()
	c.width, c.height = width, height
	c.mu.Unlock()
}

func (c *MemoryContainer) NewLabel() Label {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := &MemoryLabel{}
	c.labels = append(c.labels, l)
	return l
}

// Labels returns every label that has not been removed.
func (c *MemoryContainer) Labels() []*MemoryLabel {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*MemoryLabel
	for _, l := range c.labels {
		if !l.Removed() {
			out = append(out, l)
		}
	}
	return out
}

// MemoryLabel records what was done to a label.
type MemoryLabel struct {
	mu      sync.Mutex
	text    string
	left    float64
	visible bool
	removed bool
}

func (l *MemoryLabel) SetText(text string) { l.mu.Lock(); l.text = text; l.mu.Unlock() }
func (l *MemoryLabel) SetLeft(x float64)   { l.mu.Lock(); l.left = x; l.mu.Unlock() }
func (l *MemoryLabel) SetVisible(v bool)   { l.mu.Lock(); l.visible = v; l.mu.Unlock() }
func (l *MemoryLabel) Remove()             { l.mu.Lock(); l.removed = true; l.mu.Unlock() }

// Text returns the label text.
func (l *MemoryLabel) Text() string { l.mu.Lock(); defer l.mu.Unlock(); return l.text }

// Left returns the last x position.
func (l *MemoryLabel) Left() float64 { l.mu.Lock(); defer l.mu.Unlock(); return l.left }

// Visible reports whether the label is shown.
func (l *MemoryLabel) Visible() bool { l.mu.Lock(); defer l.mu.Unlock(); return l.visible }

// Removed reports whether the label was removed.
func (l *MemoryLabel) Removed() bool { l.mu.Lock(); defer l.mu.Unlock(); return l.removed }
