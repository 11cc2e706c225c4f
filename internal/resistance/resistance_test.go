package resistance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ecoflow/internal/ecoerr"
	"github.com/sells-group/ecoflow/internal/grid"
)

func TestBuild_NilGrid(t *testing.T) {
	_, err := Build(nil, 1)
	require.Error(t, err)
	assert.Equal(t, ecoerr.KindMissingData, ecoerr.KindOf(err))
}

func TestBuild_NegativeFactor(t *testing.T) {
	g, _ := grid.New(2, 2, 1, 1)
	_, err := Build(g, -1)
	assert.Equal(t, ecoerr.KindInvalidParameter, ecoerr.KindOf(err))
}

func TestBuild_WeightedAndClamped(t *testing.T) {
	g, err := grid.FromValues([][]float64{
		{1, -2},
		{3, 4},
	}, 1, 1)
	require.NoError(t, err)

	f, err := Build(g, 2)
	require.NoError(t, err)

	assert.Equal(t, 2.0, f.Weighted.At(0, 0))
	// -2 * 2 = -4, clamped to 0
	assert.Equal(t, 0.0, f.Weighted.At(0, 1))
	assert.Equal(t, 8.0, f.Weighted.At(1, 1))
	// input untouched
	assert.Equal(t, 1.0, g.At(0, 0))
}

func TestBuild_Normalized(t *testing.T) {
	g, _ := grid.FromValues([][]float64{{2, 4}, {8, 0}}, 1, 1)
	f, err := Build(g, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, f.Normalized.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, f.Normalized.At(1, 0), 1e-12)
	assert.GreaterOrEqual(t, f.Normalized.Min(), 0.0)
	assert.LessOrEqual(t, f.Normalized.Max(), 1.0)
}

func TestBuild_NormalizedAllZero(t *testing.T) {
	g, _ := grid.New(3, 3, 1, 1)
	f, err := Build(g, 5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, f.Normalized.Max())
}

func TestBuild_CumulativePrefixSum(t *testing.T) {
	g, _ := grid.FromValues([][]float64{
		{1, 2},
		{3, 4},
	}, 1, 1)
	f, err := Build(g, 1)
	require.NoError(t, err)
	// cum(r,c) = sum of rectangle [0..r, 0..c]
	assert.Equal(t, 1.0, f.Cumulative.At(0, 0))
	assert.Equal(t, 3.0, f.Cumulative.At(0, 1)) // 1+2
	assert.Equal(t, 4.0, f.Cumulative.At(1, 0)) // 1+3
	assert.Equal(t, 10.0, f.Cumulative.At(1, 1))
}

func TestMeanRect(t *testing.T) {
	g, _ := grid.FromValues([][]float64{
		{1, 2},
		{3, 4},
	}, 1, 1)
	f, err := Build(g, 1)
	require.NoError(t, err)

	// single cell
	assert.InDelta(t, 4.0, f.MeanRect(grid.Cell{Row: 1, Col: 1}, grid.Cell{Row: 1, Col: 1}), 1e-12)
	// row run: (1+2)/2
	assert.InDelta(t, 1.5, f.MeanRect(grid.Cell{Row: 0, Col: 0}, grid.Cell{Row: 0, Col: 1}), 1e-12)
	// column run: (1+3)/2
	assert.InDelta(t, 2.0, f.MeanRect(grid.Cell{Row: 0, Col: 0}, grid.Cell{Row: 1, Col: 0}), 1e-12)
	// full grid: 10/4
	assert.InDelta(t, 2.5, f.MeanRect(grid.Cell{Row: 0, Col: 0}, grid.Cell{Row: 1, Col: 1}), 1e-12)
	// corner order does not matter
	assert.InDelta(t, 2.5, f.MeanRect(grid.Cell{Row: 1, Col: 1}, grid.Cell{Row: 0, Col: 0}), 1e-12)
}

func TestBuild_NonNegative(t *testing.T) {
	g, _ := grid.FromValues([][]float64{{-5, -1}, {0, 2}}, 1, 1)
	f, err := Build(g, 3)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, f.Weighted.Min(), 0.0)
	assert.GreaterOrEqual(t, f.Cumulative.Min(), 0.0)
}
