// Package grid provides the raster primitive shared by every stage of the
// flow engine: a rectangular float64 matrix with a fixed cell size. All
// supply, demand, resistance, terrain, and output layers in one analysis are
// Grids with identical dimensions and cell size.
package grid

import (
	"math"

	"github.com/sells-group/ecoflow/internal/ecoerr"
)

// Cell addresses a single raster cell by row and column.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Neighbors8 lists the eight neighbor offsets {dRow, dCol} in the fixed scan
// order E, SE, S, SW, W, NW, N, NE. Routers index into this table, so the
// order is load-bearing: it defines direction codes and tie-breaking.
var Neighbors8 = [8][2]int{
	{0, 1}, {1, 1}, {1, 0}, {1, -1},
	{0, -1}, {-1, -1}, {-1, 0}, {-1, 1},
}

// Grid is a rows×cols raster with square-ish cells of CellWidth×CellHeight
// (meters). The backing slice is row-major and owned by the Grid.
type Grid struct {
	cells      []float64
	rows, cols int
	cellW      float64
	cellH      float64
}

// New returns a zero-filled rows×cols grid.
func New(rows, cols int, cellW, cellH float64) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ecoerr.Errorf(ecoerr.KindInvalidParameter, "grid: dimensions %dx%d must be positive", rows, cols)
	}
	if cellW <= 0 || cellH <= 0 {
		return nil, ecoerr.Errorf(ecoerr.KindInvalidParameter, "grid: cell size %gx%g must be positive", cellW, cellH)
	}
	return &Grid{
		cells: make([]float64, rows*cols),
		rows:  rows,
		cols:  cols,
		cellW: cellW,
		cellH: cellH,
	}, nil
}

// FromValues builds a grid from a 2D slice, deep-copying the input. The
// slice must be non-empty and rectangular.
func FromValues(values [][]float64, cellW, cellH float64) (*Grid, error) {
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, ecoerr.New(ecoerr.KindMissingData, "grid: empty input")
	}
	cols := len(values[0])
	for i, row := range values {
		if len(row) != cols {
			return nil, ecoerr.Errorf(ecoerr.KindDimensionMismatch, "grid: row %d has %d cols, want %d", i, len(row), cols)
		}
	}
	g, err := New(len(values), cols, cellW, cellH)
	if err != nil {
		return nil, err
	}
	for r, row := range values {
		copy(g.cells[r*cols:(r+1)*cols], row)
	}
	return g, nil
}

// Rows returns the row count.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the column count.
func (g *Grid) Cols() int { return g.cols }

// CellWidth returns the horizontal cell size in meters.
func (g *Grid) CellWidth() float64 { return g.cellW }

// CellHeight returns the vertical cell size in meters.
func (g *Grid) CellHeight() float64 { return g.cellH }

// At returns the value at (row, col). Bounds are the caller's problem.
func (g *Grid) At(row, col int) float64 {
	return g.cells[row*g.cols+col]
}

// Set writes the value at (row, col).
func (g *Grid) Set(row, col int, v float64) {
	g.cells[row*g.cols+col] = v
}

// AddAt accumulates v onto the value at (row, col).
func (g *Grid) AddAt(row, col int, v float64) {
	g.cells[row*g.cols+col] += v
}

// InBounds reports whether (row, col) lies within the grid.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

// SameShape reports whether o has identical dimensions and cell size.
func (g *Grid) SameShape(o *Grid) bool {
	return o != nil && g.rows == o.rows && g.cols == o.cols &&
		g.cellW == o.cellW && g.cellH == o.cellH
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	c := &Grid{
		cells: make([]float64, len(g.cells)),
		rows:  g.rows,
		cols:  g.cols,
		cellW: g.cellW,
		cellH: g.cellH,
	}
	copy(c.cells, g.cells)
	return c
}

// Empty returns a zero-filled grid with the same shape as g.
func (g *Grid) Empty() *Grid {
	return &Grid{
		cells: make([]float64, len(g.cells)),
		rows:  g.rows,
		cols:  g.cols,
		cellW: g.cellW,
		cellH: g.cellH,
	}
}

// Fill sets every cell to v.
func (g *Grid) Fill(v float64) {
	for i := range g.cells {
		g.cells[i] = v
	}
}

// Add accumulates o into g element-wise.
func (g *Grid) Add(o *Grid) error {
	if !g.SameShape(o) {
		return ecoerr.Errorf(ecoerr.KindDimensionMismatch,
			"grid: add %dx%d onto %dx%d", o.rows, o.cols, g.rows, g.cols)
	}
	for i := range g.cells {
		g.cells[i] += o.cells[i]
	}
	return nil
}

// Scale multiplies every cell by f.
func (g *Grid) Scale(f float64) {
	for i := range g.cells {
		g.cells[i] *= f
	}
}

// ClampMin raises every cell below floor up to floor.
func (g *Grid) ClampMin(floor float64) {
	for i, v := range g.cells {
		if v < floor {
			g.cells[i] = floor
		}
	}
}

// Finite reports whether every cell holds a finite value.
func (g *Grid) Finite() bool {
	for _, v := range g.cells {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Total returns the sum over all cells.
func (g *Grid) Total() float64 {
	sum := 0.0
	for _, v := range g.cells {
		sum += v
	}
	return sum
}

// Mean returns the arithmetic mean over all cells.
func (g *Grid) Mean() float64 {
	return g.Total() / float64(len(g.cells))
}

// Max returns the maximum cell value.
func (g *Grid) Max() float64 {
	m := math.Inf(-1)
	for _, v := range g.cells {
		if v > m {
			m = v
		}
	}
	return m
}

// Min returns the minimum cell value.
func (g *Grid) Min() float64 {
	m := math.Inf(1)
	for _, v := range g.cells {
		if v < m {
			m = v
		}
	}
	return m
}

// Std returns the population standard deviation over all cells.
func (g *Grid) Std() float64 {
	mean := g.Mean()
	ss := 0.0
	for _, v := range g.cells {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(g.cells)))
}

// Cells returns every cell whose value satisfies pred, in raster scan order.
func (g *Grid) Cells(pred func(v float64) bool) []Cell {
	var out []Cell
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if pred(g.cells[r*g.cols+c]) {
				out = append(out, Cell{Row: r, Col: c})
			}
		}
	}
	return out
}

// Distance returns the Euclidean distance between cell centers in meters.
func (g *Grid) Distance(a, b Cell) float64 {
	dy := float64(a.Row-b.Row) * g.cellH
	dx := float64(a.Col-b.Col) * g.cellW
	return math.Hypot(dx, dy)
}

// Values returns a deep copy of the grid as a 2D slice, for export.
func (g *Grid) Values() [][]float64 {
	out := make([][]float64, g.rows)
	for r := 0; r < g.rows; r++ {
		out[r] = make([]float64, g.cols)
		copy(out[r], g.cells[r*g.cols:(r+1)*g.cols])
	}
	return out
}

// CheckCoRegistered verifies that all given grids share g's shape. Nil grids
// are reported as missing data.
func (g *Grid) CheckCoRegistered(others ...*Grid) error {
	for _, o := range others {
		if o == nil {
			return ecoerr.New(ecoerr.KindMissingData, "grid: nil layer in co-registration check")
		}
		if !g.SameShape(o) {
			return ecoerr.Errorf(ecoerr.KindDimensionMismatch,
				"grid: layer %dx%d (cell %gx%g) not co-registered with %dx%d (cell %gx%g)",
				o.rows, o.cols, o.cellW, o.cellH, g.rows, g.cols, g.cellW, g.cellH)
		}
	}
	return nil
}
