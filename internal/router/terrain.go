package router

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/ecoflow/internal/ecoerr"
	"github.com/sells-group/ecoflow/internal/grid"
)

// TerrainRouter derives an 8-direction flow-direction grid from elevation by
// steepest descent, then accumulates each cell's unit contribution downhill.
// Used by the surface-water, flood, sediment, and carbon models, whose
// physical transforms consume the accumulation surface directly.
type TerrainRouter struct{}

// Kind returns KindTerrain.
func (TerrainRouter) Kind() Kind { return KindTerrain }

// Route computes the direction and accumulation grids. The elevation layer
// is read-only; both outputs are fresh grids.
func (TerrainRouter) Route(ctx context.Context, in Inputs) (*Result, error) {
	if in.Elevation == nil {
		return nil, ecoerr.New(ecoerr.KindMissingData, "router: elevation grid is required for terrain routing")
	}
	if in.MaxDistance <= 0 {
		return nil, ecoerr.Errorf(ecoerr.KindInvalidParameter, "router: max distance %g must be > 0", in.MaxDistance)
	}
	if err := ctx.Err(); err != nil {
		return &Result{Partial: true}, nil
	}

	dir := FlowDirections(in.Elevation)
	acc := Accumulate(dir, in.MaxDistance)

	zap.L().Debug("router: terrain pass complete",
		zap.Float64("max_accumulation", acc.Max()),
	)
	return &Result{Direction: dir, Accumulation: acc}, nil
}

// FlowDirections computes the D8 direction grid: each cell points to the
// in-bounds neighbor with the largest strictly positive elevation drop.
// Codes are 1..8 indexing grid.Neighbors8 (E, SE, S, SW, W, NW, N, NE);
// 0 marks pits and flats. Ties go to the first neighbor in scan order, which
// keeps the result deterministic.
func FlowDirections(elev *grid.Grid) *grid.Grid {
	dir := elev.Empty()
	for r := 0; r < elev.Rows(); r++ {
		for c := 0; c < elev.Cols(); c++ {
			here := elev.At(r, c)
			bestDrop := 0.0
			bestCode := 0
			for i, off := range grid.Neighbors8 {
				nr, nc := r+off[0], c+off[1]
				if !elev.InBounds(nr, nc) {
					continue
				}
				if drop := here - elev.At(nr, nc); drop > bestDrop {
					bestDrop = drop
					bestCode = i + 1
				}
			}
			dir.Set(r, c, float64(bestCode))
		}
	}
	return dir
}

// Accumulate computes flow accumulation from a direction grid: each cell
// contributes one unit to itself and to every cell on its downstream flow
// path, until the cumulative travel distance along the path exceeds
// maxDistance. On an acyclic direction grid with an unbounded cutoff this
// equals the classic 1 + Σ upstream accumulations.
//
// Each contribution is an iterative walk down the direction codes, never
// recursion. The walk keeps a generation-stamped visited array indexed by
// position and stops when it revisits a cell, which guards corrupt direction
// grids containing cycles.
func Accumulate(dir *grid.Grid, maxDistance float64) *grid.Grid {
	rows, cols := dir.Rows(), dir.Cols()
	cw, ch := dir.CellWidth(), dir.CellHeight()

	acc := dir.Empty()
	stamp := make([]int32, rows*cols)
	walk := int32(0)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			walk++
			stamp[r*cols+c] = walk
			acc.AddAt(r, c, 1)

			cr, cc := r, c
			dist := 0.0
			for {
				code := int(dir.At(cr, cc))
				if code < 1 || code > 8 {
					break
				}
				off := grid.Neighbors8[code-1]
				nr, nc := cr+off[0], cc+off[1]
				if !dir.InBounds(nr, nc) {
					break
				}
				dist += math.Hypot(float64(off[1])*cw, float64(off[0])*ch)
				if dist > maxDistance {
					break
				}
				if stamp[nr*cols+nc] == walk {
					break
				}
				stamp[nr*cols+nc] = walk
				acc.AddAt(nr, nc, 1)
				cr, cc = nr, nc
			}
		}
	}
	return acc
}
