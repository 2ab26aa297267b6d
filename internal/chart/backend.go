// Package chart keeps a charting surface in sync with aggregated exposure
// series. The rendering backend and its host are supplied by the caller.
package chart

// LogicalRange is a visible window in grid index units.
type LogicalRange struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// Point is one (grid index, value) sample. Color overrides the series color
// when set.
type Point struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// SeriesKind selects how a series is drawn.
type SeriesKind string

const (
	KindHistogram SeriesKind = "histogram"
	KindLine      SeriesKind = "line"
)

// AutoscaleRange pins the value axis range a series asks for.
type AutoscaleRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SeriesOptions describes a series to add.
type SeriesOptions struct {
	Name      string
	Kind      SeriesKind
	Color     string
	Dashed    bool
	Autoscale *AutoscaleRange
}

// Series is a handle to a series owned by a Backend.
type Series interface {
	SetData(points []Point) error
}

// Backend is the drawing surface. Implementations report coordinates in
// pixels relative to the container's left edge.
type Backend interface {
	AddSeries(opts SeriesOptions) (Series, error)
	RemoveSeries(s Series) error
	SetVisibleRange(r LogicalRange) error
	VisibleRange() (LogicalRange, bool)
	// LogicalToCoordinate maps a grid index to a pixel x coordinate. It
	// returns false when the index has no on-screen position.
	LogicalToCoordinate(index float64) (float64, bool)
	// SubscribeVisibleRangeChange registers fn and returns a function that
	// removes it.
	SubscribeVisibleRangeChange(fn func(LogicalRange)) (unsubscribe func())
	Resize(width, height int)
}

// Label is a floating text overlay placed by the host.
type Label interface {
	SetText(text string)
	SetLeft(x float64)
	SetVisible(visible bool)
	Remove()
}

// Container is the presentation host a surface is bound to.
type Container interface {
	Size() (width, height int)
	NewLabel() Label
}

// BackendFactory allocates a backend bound to a container.
type BackendFactory func(c Container) (Backend, error)
