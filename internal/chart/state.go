package chart

import "gexview/internal/models"

// SurfaceState is a snapshot of what an Engine has drawn.
type SurfaceState struct {
	Initialized  bool            `json:"initialized"`
	Mode         models.Mode     `json:"mode"`
	Strikes      []int           `json:"strikes,omitempty"`
	Series       []SeriesState   `json:"series"`
	PriceLine    *PriceLineState `json:"price_line,omitempty"`
	Label        *LabelState     `json:"label,omitempty"`
	CenterIndex  *int            `json:"center_index,omitempty"`
	VisibleRange *LogicalRange   `json:"visible_range,omitempty"`
}

// SeriesState is one drawn value series.
type SeriesState struct {
	Name   string  `json:"name"`
	Color  string  `json:"color,omitempty"`
	Points []Point `json:"points"`
}

// PriceLineState is the vertical price reference line.
type PriceLineState struct {
	Index     int            `json:"index"`
	Strike    int            `json:"strike"`
	Points    []Point        `json:"points"`
	Autoscale AutoscaleRange `json:"autoscale"`
}

// LabelState is the floating price label.
type LabelState struct {
	Text  string  `json:"text"`
	Price float64 `json:"price"`
}

// State returns a copy of the surface.
func (e *Engine) State() SurfaceState {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := SurfaceState{
		Initialized: e.backend != nil,
		Mode:        e.mode,
		Series:      make([]SeriesState, 0, len(e.values)),
	}
	if e.grid != nil {
		st.Strikes = e.grid.Strikes()
	}
	for _, s := range e.values {
		st.Series = append(st.Series, SeriesState{
			Name:   s.name,
			Color:  s.color,
			Points: append([]Point(nil), s.points...),
		})
	}
	if e.priceLine != nil {
		pl := &PriceLineState{
			Index:     e.priceLine.index,
			Points:    append([]Point(nil), e.priceLine.points...),
			Autoscale: e.priceLine.autoscale,
		}
		if e.grid != nil {
			pl.Strike, _ = e.grid.Strike(e.priceLine.index)
		}
		st.PriceLine = pl
	}
	if e.label != nil {
		st.Label = &LabelState{Text: e.label.text, Price: e.label.price}
	}
	if e.centered {
		center := e.center
		st.CenterIndex = &center
	}
	if e.backend != nil {
		if r, ok := e.backend.VisibleRange(); ok {
			st.VisibleRange = &r
		}
	}
	return st
}
