// Package resistance turns a raw resistance layer into the surfaces the
// routers consume: a factor-weighted grid, a [0,1] normalized grid, and a
// cumulative prefix-sum surface used as a cheap global friction estimate.
package resistance

import (
	"go.uber.org/zap"

	"github.com/sells-group/ecoflow/internal/ecoerr"
	"github.com/sells-group/ecoflow/internal/grid"
)

// Field is the immutable output of Build.
type Field struct {
	// Weighted is raw × factor, clamped to >= 0.
	Weighted *grid.Grid
	// Normalized is Weighted rescaled into [0,1] by its maximum.
	Normalized *grid.Grid
	// Cumulative is the 2D prefix sum of Weighted (rows then columns).
	Cumulative *grid.Grid
}

// Build constructs a Field from a raw resistance grid and a resistance
// factor. Pure: the input grid is not modified.
func Build(raw *grid.Grid, factor float64) (*Field, error) {
	if raw == nil {
		return nil, ecoerr.New(ecoerr.KindMissingData, "resistance: raw grid is required")
	}
	if factor < 0 {
		return nil, ecoerr.Errorf(ecoerr.KindInvalidParameter, "resistance: factor %g must be >= 0", factor)
	}

	weighted := raw.Clone()
	weighted.Scale(factor)
	weighted.ClampMin(0)

	normalized := weighted.Clone()
	if max := normalized.Max(); max > 0 {
		normalized.Scale(1 / max)
	}

	cumulative := prefixSum(weighted)

	zap.L().Debug("resistance: field built",
		zap.Float64("factor", factor),
		zap.Float64("weighted_max", weighted.Max()),
		zap.Float64("cumulative_total", cumulative.At(cumulative.Rows()-1, cumulative.Cols()-1)),
	)

	return &Field{Weighted: weighted, Normalized: normalized, Cumulative: cumulative}, nil
}

// MeanRect returns the mean weighted resistance over the axis-aligned
// rectangle spanned by cells a and b, answered in O(1) from the cumulative
// surface. For a pair sharing a row or a column the rectangle is one cell
// wide and the mean equals the mean along the straight line between them,
// so routers can use it in place of per-cell sampling; for any other pair
// it is the friction estimate over the bounding box.
func (f *Field) MeanRect(a, b grid.Cell) float64 {
	r1, r2 := min(a.Row, b.Row), max(a.Row, b.Row)
	c1, c2 := min(a.Col, b.Col), max(a.Col, b.Col)
	sum := f.cumAt(r2, c2) - f.cumAt(r1-1, c2) - f.cumAt(r2, c1-1) + f.cumAt(r1-1, c1-1)
	return sum / float64((r2-r1+1)*(c2-c1+1))
}

func (f *Field) cumAt(r, c int) float64 {
	if r < 0 || c < 0 {
		return 0
	}
	return f.Cumulative.At(r, c)
}

// prefixSum computes the 2D inclusive prefix sum: a pass along rows followed
// by a pass down columns, so cum(r,c) = Σ weighted over the rectangle
// [0..r, 0..c].
func prefixSum(g *grid.Grid) *grid.Grid {
	cum := g.Clone()
	for r := 0; r < cum.Rows(); r++ {
		for c := 1; c < cum.Cols(); c++ {
			cum.AddAt(r, c, cum.At(r, c-1))
		}
	}
	for c := 0; c < cum.Cols(); c++ {
		for r := 1; r < cum.Rows(); r++ {
			cum.AddAt(r, c, cum.At(r-1, c))
		}
	}
	return cum
}
