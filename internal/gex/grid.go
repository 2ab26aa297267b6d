package gex

import (
	"math"

	"gexview/internal/errors"
)

// StrikeStep is the spacing of the strike grid.
const StrikeStep = 5

// StrikeGrid is the ordered set of strikes a chart is indexed by.
// Strikes run from 0 to round(2P/5)*5 in steps of StrikeStep.
type StrikeGrid struct {
	strikes []int
	index   map[int]int
}

// MaxPrice bounds the underlying price a grid is built for. Above it the
// grid would hold more than a million strikes.
const MaxPrice = 2_500_000

// BuildGrid builds the strike grid for price. It fails with
// *errors.InvalidPriceError when price is not a positive finite number
// no larger than MaxPrice.
func BuildGrid(price float64) (*StrikeGrid, error) {
	if !(price > 0) || price > MaxPrice {
		return nil, errors.NewInvalidPriceError(price)
	}

	maxStrike := int(math.Round(price*2/StrikeStep)) * StrikeStep
	n := maxStrike/StrikeStep + 1

	g := &StrikeGrid{
		strikes: make([]int, n),
		index:   make(map[int]int, n),
	}
	for i := 0; i < n; i++ {
		strike := i * StrikeStep
		g.strikes[i] = strike
		g.index[strike] = i
	}
	return g, nil
}

// Len returns the number of strikes.
func (g *StrikeGrid) Len() int { return len(g.strikes) }

// Strikes returns a copy of the strikes in ascending order.
func (g *StrikeGrid) Strikes() []int {
	out := make([]int, len(g.strikes))
	copy(out, g.strikes)
	return out
}

// Strike returns the strike at index i, or false when out of range.
func (g *StrikeGrid) Strike(i int) (int, bool) {
	if i < 0 || i >= len(g.strikes) {
		return 0, false
	}
	return g.strikes[i], true
}

// Index returns the grid index of strike.
func (g *StrikeGrid) Index(strike int) (int, bool) {
	i, ok := g.index[strike]
	return i, ok
}

// Nearest returns the index of the strike closest to price. On a tie the
// lower strike wins.
func (g *StrikeGrid) Nearest(price float64) int {
	best := 0
	for i := 1; i < len(g.strikes); i++ {
		if math.Abs(float64(g.strikes[i])-price) < math.Abs(float64(g.strikes[best])-price) {
			best = i
		}
	}
	return best
}

// Equal reports whether two grids hold the same strikes.
func (g *StrikeGrid) Equal(other *StrikeGrid) bool {
	if g == nil || other == nil {
		return g == other
	}
	if len(g.strikes) != len(other.strikes) {
		return false
	}
	for i := range g.strikes {
		if g.strikes[i] != other.strikes[i] {
			return false
		}
	}
	return true
}
