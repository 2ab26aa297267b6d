package term

import (
	"math"
	"sync"

	"gexview/internal/chart"
	"gexview/internal/errors"
)

// Canvas is the chart.Backend behind a Screen. One column is one pixel.
type Canvas struct {
	mu       sync.Mutex
	series   []*series
	visible  chart.LogicalRange
	hasRange bool
	cols     int
	rows     int
	subs     map[int]func(chart.LogicalRange)
	nextSub  int
}

type series struct {
	canvas *Canvas
	opts   chart.SeriesOptions
	points []chart.Point
	byIdx  map[int]chart.Point
}

func newCanvas() *Canvas {
	return &Canvas{subs: make(map[int]func(chart.LogicalRange))}
}

func (c *Canvas) AddSeries(opts chart.SeriesOptions) (chart.Series, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &series{canvas: c, opts: opts, byIdx: map[int]chart.Point{}}
	c.series = append(c.series, s)
	return s, nil
}

func (c *Canvas) RemoveSeries(target chart.Series) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.series {
		if s == target {
			c.series = append(c.series[:i], c.series[i+1:]...)
			return nil
		}
	}
	return errors.ErrSeriesNotFound
}

func (c *Canvas) SetVisibleRange(r chart.LogicalRange) error {
	c.mu.Lock()
	c.visible, c.hasRange = r, true
	subs := make([]func(chart.LogicalRange), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(r)
	}
	return nil
}

func (c *Canvas) VisibleRange() (chart.LogicalRange, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible, c.hasRange
}

func (c *Canvas) LogicalToCoordinate(index float64) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	span := c.visible.To - c.visible.From
	if !c.hasRange || c.cols <= 0 || span <= 0 {
		return 0, false
	}
	x := (index - c.visible.From) / span * float64(c.cols)
	if x < 0 || x >= float64(c.cols) {
		return 0, false
	}
	return x, true
}

func (c *Canvas) SubscribeVisibleRangeChange(fn func(chart.LogicalRange)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	id := c.nextSub
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Canvas) Resize(cols, rows int) {
	c.mu.Lock()
	c.cols, c.rows = cols, rows
	c.mu.Unlock()
}

func (s *series) SetData(points []chart.Point) error {
	s.canvas.mu.Lock()
	defer s.canvas.mu.Unlock()
	s.points = append([]chart.Point(nil), points...)
	s.byIdx = make(map[int]chart.Point, len(points))
	for _, p := range points {
		s.byIdx[p.Index] = p
	}
	return nil
}

// peak returns the largest magnitude point with an index in [lo, hi).
func (s *series) peak(lo, hi int) (chart.Point, bool) {
	var best chart.Point
	found := false
	for i := lo; i < hi; i++ {
		p, ok := s.byIdx[i]
		if ok && (!found || math.Abs(p.Value) > math.Abs(best.Value)) {
			best, found = p, true
		}
	}
	return best, found
}

func (s *series) covers(lo, hi int) bool {
	for i := lo; i < hi; i++ {
		if _, ok := s.byIdx[i]; ok {
			return true
		}
	}
	return false
}

type canvasSnapshot struct {
	series   []*series
	visible  chart.LogicalRange
	hasRange bool
	cols     int
	rows     int
}

// snapshot copies the series list so rendering does not hold the lock.
// Series data is replaced, never mutated, by SetData.
func (c *Canvas) snapshot() canvasSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := make([]*series, len(c.series))
	for i, s := range c.series {
		copied[i] = &series{opts: s.opts, points: s.points, byIdx: s.byIdx}
	}
	return canvasSnapshot{
		series:   copied,
		visible:  c.visible,
		hasRange: c.hasRange,
		cols:     c.cols,
		rows:     c.rows,
	}
}

// indexSpan returns the grid indexes [lo, hi) drawn in column col.
func (s canvasSnapshot) indexSpan(col int) (int, int) {
	step := (s.visible.To - s.visible.From) / float64(s.cols)
	lo := int(math.Floor(s.visible.From + float64(col)*step))
	hi := int(math.Floor(s.visible.From + float64(col+1)*step))
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

// scale is the value mapped to a full half-height bar.
func (s canvasSnapshot) scale() float64 {
	for _, sr := range s.series {
		if sr.opts.Autoscale != nil {
			return math.Max(math.Abs(sr.opts.Autoscale.Min), math.Abs(sr.opts.Autoscale.Max))
		}
	}
	maxAbs := 0.0
	for _, sr := range s.series {
		for _, p := range sr.points {
			maxAbs = math.Max(maxAbs, math.Abs(p.Value))
		}
	}
	if maxAbs == 0 {
		return 1
	}
	return maxAbs
}
