// Package term renders a chart surface as text for terminal output.
package term

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/fatih/color"

	"gexview/internal/chart"
	"gexview/internal/errors"
)

const (
	minRows    = 6
	axisRows   = 2
	tickSpread = 12
)

// Screen is a fixed-size character grid. It acts as the chart container and
// allocates the Canvas the engine draws on.
type Screen struct {
	mu      sync.Mutex
	cols    int
	rows    int
	palette map[string]*color.Color
	labels  []*label
	canvas  *Canvas
	axis    func(index int) (string, bool)
}

// NewScreen creates a screen of cols x rows characters.
func NewScreen(cols, rows int, theme chart.Theme) *Screen {
	if rows < minRows {
		rows = minRows
	}
	return &Screen{
		cols: cols,
		rows: rows,
		palette: map[string]*color.Color{
			theme.Positive:  color.New(color.FgGreen),
			theme.Negative:  color.New(color.FgRed),
			theme.PriceLine: color.New(color.FgYellow, color.Bold),
		},
	}
}

// Factory is a chart.BackendFactory bound to this screen.
func (s *Screen) Factory(chart.Container) (chart.Backend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canvas = newCanvas()
	return s.canvas, nil
}

// SetAxis sets the function used to label x-axis ticks.
func (s *Screen) SetAxis(fn func(index int) (string, bool)) {
	s.mu.Lock()
	s.axis = fn
	s.mu.Unlock()
}

func (s *Screen) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols, s.rows
}

// SetSize changes the screen size; call the engine's Resize afterwards.
func (s *Screen) SetSize(cols, rows int) {
	if rows < minRows {
		rows = minRows
	}
	s.mu.Lock()
	s.cols, s.rows = cols, rows
	s.mu.Unlock()
}

func (s *Screen) NewLabel() chart.Label {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := &label{}
	s.labels = append(s.labels, l)
	return l
}

type label struct {
	mu      sync.Mutex
	text    string
	left    float64
	visible bool
	removed bool
}

func (l *label) SetText(text string) { l.mu.Lock(); l.text = text; l.mu.Unlock() }
func (l *label) SetLeft(x float64)   { l.mu.Lock(); l.left = x; l.mu.Unlock() }
func (l *label) SetVisible(v bool)   { l.mu.Lock(); l.visible = v; l.mu.Unlock() }
func (l *label) Remove()             { l.mu.Lock(); l.removed = true; l.mu.Unlock() }

type cell struct {
	ch  rune
	hex string
}

// Render writes the current surface to w.
func (s *Screen) Render(w io.Writer) error {
	s.mu.Lock()
	canvas, axis, palette := s.canvas, s.axis, s.palette
	labels := append([]*label(nil), s.labels...)
	s.mu.Unlock()

	if canvas == nil {
		return errors.ErrNotInitialized
	}
	snap := canvas.snapshot()
	if snap.cols <= 0 || !snap.hasRange {
		return errors.ErrNotInitialized
	}

	plotRows := snap.rows - axisRows
	half := plotRows / 2
	cells := make([][]cell, plotRows)
	for r := range cells {
		cells[r] = make([]cell, snap.cols)
	}

	scale := snap.scale()
	for col := 0; col < snap.cols; col++ {
		lo, hi := snap.indexSpan(col)
		for _, sr := range snap.series {
			if sr.opts.Kind == chart.KindLine {
				if sr.covers(lo, hi) {
					for r := range cells {
						if cells[r][col].ch == 0 {
							cells[r][col] = cell{ch: '│', hex: sr.opts.Color}
						}
					}
				}
				continue
			}
			p, ok := sr.peak(lo, hi)
			if !ok || p.Value == 0 {
				continue
			}
			hex := p.Color
			if hex == "" {
				hex = sr.opts.Color
			}
			height := int(math.Round(math.Abs(p.Value) / scale * float64(half)))
			if height > half {
				height = half
			}
			if height == 0 {
				height = 1
			}
			for h := 0; h < height; h++ {
				r := half - 1 - h
				if p.Value < 0 {
					r = half + h
				}
				if r >= 0 && r < plotRows {
					cells[r][col] = cell{ch: '█', hex: hex}
				}
			}
		}
	}

	var b strings.Builder
	for _, row := range cells {
		for _, c := range row {
			if c.ch == 0 {
				b.WriteByte(' ')
				continue
			}
			if col, ok := palette[c.hex]; ok {
				b.WriteString(col.Sprint(string(c.ch)))
			} else {
				b.WriteRune(c.ch)
			}
		}
		b.WriteByte('\n')
	}

	b.WriteString(axisLine(snap, axis))
	b.WriteByte('\n')
	b.WriteString(labelLine(snap.cols, labels, palette[chartPriceColor(snap)]))
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}

func axisLine(snap canvasSnapshot, axis func(int) (string, bool)) string {
	line := []rune(strings.Repeat("─", snap.cols))
	if axis == nil {
		return string(line)
	}
	for col := 0; col < snap.cols; col += tickSpread {
		lo, _ := snap.indexSpan(col)
		text, ok := axis(lo)
		if !ok {
			continue
		}
		for i, ch := range text {
			if col+i < len(line) {
				line[col+i] = ch
			}
		}
	}
	return string(line)
}

func labelLine(cols int, labels []*label, c *color.Color) string {
	line := []rune(strings.Repeat(" ", cols))
	var text string
	start := 0
	for _, l := range labels {
		l.mu.Lock()
		if !l.removed && l.visible {
			text = l.text
			start = int(math.Round(l.left)) - len(text)/2
		}
		l.mu.Unlock()
	}
	if text == "" {
		return string(line)
	}
	if start < 0 {
		start = 0
	}
	if start+len(text) > cols {
		start = cols - len(text)
	}
	if start < 0 {
		return text
	}
	prefix, suffix := string(line[:start]), string(line[start+len(text):])
	if c != nil {
		text = c.Sprint(text)
	}
	return prefix + text + suffix
}

func chartPriceColor(snap canvasSnapshot) string {
	for _, s := range snap.series {
		if s.opts.Kind == chart.KindLine {
			return s.opts.Color
		}
	}
	return ""
}

// String renders the surface, or returns the render error text.
func (s *Screen) String() string {
	var b strings.Builder
	if err := s.Render(&b); err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return b.String()
}
