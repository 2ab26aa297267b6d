package chart

import (
	"gexview/internal/gex"
	"gexview/internal/models"
)

// Align spreads values over every index of grid. Strikes without a value
// become zero; values at strikes the grid does not carry are dropped.
func Align(values []models.StrikeValue, grid *gex.StrikeGrid) []Point {
	byStrike := make(map[int]float64, len(values))
	for _, v := range values {
		byStrike[v.Strike] += v.Value
	}

	points := make([]Point, grid.Len())
	for i := range points {
		strike, _ := grid.Strike(i)
		points[i] = Point{Index: i, Value: byStrike[strike]}
	}
	return points
}
