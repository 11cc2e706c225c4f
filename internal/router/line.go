package router

import (
	"math"

	"github.com/sells-group/ecoflow/internal/grid"
)

// Line rasterizes the straight segment from a to b as integer grid steps.
// The step count is max(|dRow|, |dCol|), each intermediate cell is the
// rounded linear interpolation, both axes are treated symmetrically, the
// starting cell is always included, and a == b yields a single-point path.
func Line(a, b grid.Cell) []grid.Cell {
	dr := b.Row - a.Row
	dc := b.Col - a.Col
	steps := max(abs(dr), abs(dc))
	if steps == 0 {
		return []grid.Cell{a}
	}
	cells := make([]grid.Cell, 0, steps+1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		cells = append(cells, grid.Cell{
			Row: a.Row + int(math.Round(t*float64(dr))),
			Col: a.Col + int(math.Round(t*float64(dc))),
		})
	}
	return cells
}

// meanAlong samples g at each path cell and returns the arithmetic mean.
func meanAlong(g *grid.Grid, cells []grid.Cell) float64 {
	if len(cells) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range cells {
		sum += g.At(c.Row, c.Col)
	}
	return sum / float64(len(cells))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
