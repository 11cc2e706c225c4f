package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ecoflow/internal/ecoerr"
	"github.com/sells-group/ecoflow/internal/grid"
)

func uniform(t *testing.T, rows, cols int, v float64) *grid.Grid {
	t.Helper()
	g, err := grid.New(rows, cols, 1, 1)
	require.NoError(t, err)
	g.Fill(v)
	return g
}

func TestNew_RejectsInvalidParameters(t *testing.T) {
	p := DefaultParameters()
	p.Alpha = -1
	_, err := New(p, nil)
	require.Error(t, err)
	assert.Equal(t, ecoerr.KindInvalidParameter, ecoerr.KindOf(err))
}

func TestAnalyze_UnsupportedModel(t *testing.T) {
	a, err := New(DefaultParameters(), nil)
	require.NoError(t, err)
	res, err := a.Analyze(context.Background(), Inputs{}, ModelKey("teleportation"))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, ecoerr.KindUnsupportedModel, ecoerr.KindOf(err))
}

func TestAnalyze_MissingLayer(t *testing.T) {
	a, err := New(DefaultParameters(), nil)
	require.NoError(t, err)
	in := Inputs{
		Supply:     uniform(t, 2, 2, 1),
		Demand:     uniform(t, 2, 2, 1),
		Resistance: uniform(t, 2, 2, 1),
		// Spatial absent
	}
	_, err = a.Analyze(context.Background(), in, ModelLineOfSight)
	require.Error(t, err)
	assert.Equal(t, ecoerr.KindMissingData, ecoerr.KindOf(err))
}

func TestAnalyze_ValidationBlocksNegativeSupply(t *testing.T) {
	a, err := New(DefaultParameters(), nil)
	require.NoError(t, err)

	supply := uniform(t, 2, 2, 1)
	supply.Set(0, 0, -1)
	in := Inputs{
		Supply:     supply,
		Demand:     uniform(t, 2, 2, 1),
		Resistance: uniform(t, 2, 2, 1),
		Spatial:    uniform(t, 2, 2, 0),
	}

	res, err := a.Analyze(context.Background(), in, ModelLineOfSight)
	require.Error(t, err)
	assert.Equal(t, ecoerr.KindValidation, ecoerr.KindOf(err))
	// the diagnostic report still comes back with the failed run
	require.NotNil(t, res)
	require.NotNil(t, res.Validation)
	require.NotNil(t, res.Validation.FirstFailure())
	assert.Equal(t, "supply_nonnegative", res.Validation.FirstFailure().Name)
	assert.Nil(t, res.FlowField)
}

func TestAnalyze_ValidationBlocksDimensionMismatch(t *testing.T) {
	a, err := New(DefaultParameters(), nil)
	require.NoError(t, err)

	in := Inputs{
		Supply:     uniform(t, 2, 3, 1),
		Demand:     uniform(t, 2, 2, 1),
		Resistance: uniform(t, 2, 3, 1),
		Spatial:    uniform(t, 2, 3, 0),
	}
	res, err := a.Analyze(context.Background(), in, ModelLineOfSight)
	require.Error(t, err)
	assert.Equal(t, ecoerr.KindValidation, ecoerr.KindOf(err))
	require.NotNil(t, res)
	assert.Equal(t, "co_registered", res.Validation.FirstFailure().Name)
}

// One source of supply 2 at a corner, one sink of demand 1 at the opposite
// corner, uniform resistance. The single diagonal path has cost
// 1 × 2√2 and intensity 2·exp(-0.5·2√2) = 2·exp(-√2).
func TestAnalyze_DirectWorkedExample(t *testing.T) {
	p := DefaultParameters()
	// supply 2 vs demand 1 is a 0.5 relative imbalance
	p.ValidationThreshold = 0.6
	a, err := New(p, nil)
	require.NoError(t, err)

	supply := uniform(t, 3, 3, 0)
	supply.Set(0, 0, 2)
	demand := uniform(t, 3, 3, 0)
	demand.Set(2, 2, 1)
	in := Inputs{
		Supply:     supply,
		Demand:     demand,
		Resistance: uniform(t, 3, 3, 1),
		Spatial:    uniform(t, 3, 3, 0),
	}

	res, err := a.Analyze(context.Background(), in, ModelLineOfSight)
	require.NoError(t, err)
	require.NotNil(t, res)

	intensity := 2 * math.Exp(-math.Sqrt2) // ≈ 0.486
	assert.NotEmpty(t, res.RunID)
	assert.True(t, res.Validation.Passed)
	assert.False(t, res.Partial)
	assert.Zero(t, res.Unreachable)

	// the one path deposits its intensity on all three diagonal cells
	assert.Equal(t, 1, res.Stats.PathCount)
	assert.InDelta(t, intensity, res.FlowField.At(0, 0), 1e-12)
	assert.InDelta(t, intensity, res.FlowField.At(1, 1), 1e-12)
	assert.InDelta(t, intensity, res.FlowField.At(2, 2), 1e-12)
	assert.Zero(t, res.FlowField.At(0, 1))
	assert.InDelta(t, 3*intensity, res.Stats.TotalFlow, 1e-12)

	// theoretical max = min(2, 1) = 1
	assert.InDelta(t, intensity, res.Stats.Efficiency, 1e-12)

	// capacity typology: the source cell keeps min(flow, supply) = flow;
	// off-source cells are capped at supply 0
	require.NotNil(t, res.Breakdown)
	assert.InDelta(t, intensity, res.Breakdown.Actual.At(0, 0), 1e-12)
	assert.Zero(t, res.Breakdown.Actual.At(1, 1))
	assert.InDelta(t, intensity, res.Breakdown.Actual.Total(), 1e-12)

	// uniform resistance weights every crossed cell equally
	assert.Len(t, res.Bottlenecks, 3)
	require.NotNil(t, res.Uncertainty)
	assert.Nil(t, res.Accessibility)
}

// Surface water on an east-descending ramp: every cell drains east, so the
// accumulation surface grows 1, 2, 3 along each row.
func TestAnalyze_TerrainSurfaceWater(t *testing.T) {
	p := DefaultParameters()
	p.SinkType = CapacityInfinite
	p.UseType = CapacityInfinite
	p.BenefitType = BenefitNonRival
	a, err := New(p, nil)
	require.NoError(t, err)

	elev := mk(t, [][]float64{
		{3, 2, 1},
		{3, 2, 1},
		{3, 2, 1},
	})
	in := Inputs{
		Supply:     uniform(t, 3, 3, 1),
		Demand:     uniform(t, 3, 3, 1),
		Resistance: uniform(t, 3, 3, 1),
		Spatial:    elev,
	}

	res, err := a.Analyze(context.Background(), in, ModelSurfaceWater)
	require.NoError(t, err)

	// flow field is the accumulation surface under directional routing
	for r := 0; r < 3; r++ {
		assert.Equal(t, 1.0, res.FlowField.At(r, 0))
		assert.Equal(t, 2.0, res.FlowField.At(r, 1))
		assert.Equal(t, 3.0, res.FlowField.At(r, 2))
	}
	assert.Equal(t, 18.0, res.Stats.TotalFlow)
	assert.Equal(t, 3.0, res.Stats.MaxFlow)
	assert.Zero(t, res.Stats.PathCount)

	// discharge = supply × accumulation, capped by supply 1 per cell:
	// total actual 9 over theoretical min(9, 9) = 9
	assert.Equal(t, 9.0, res.Breakdown.Actual.Total())
	assert.InDelta(t, 1.0, res.Stats.Efficiency, 1e-12)
	assert.True(t, res.Validation.Passed)
}

// Least-cost proximity on a 1×3 strip: uniform unit cost gives cumulative
// cost 0, 1, 2 and accessibility exp(-0.5·cost).
func TestAnalyze_CostDistanceProximity(t *testing.T) {
	a, err := New(DefaultParameters(), nil)
	require.NoError(t, err)

	supply := uniform(t, 1, 3, 0)
	supply.Set(0, 0, 1)
	demand := uniform(t, 1, 3, 0)
	demand.Set(0, 2, 1)
	in := Inputs{
		Supply:     supply,
		Demand:     demand,
		Resistance: uniform(t, 1, 3, 1),
		Spatial:    uniform(t, 1, 3, 0),
	}

	res, err := a.Analyze(context.Background(), in, ModelProximity)
	require.NoError(t, err)

	// path cost 2, intensity 1·1·exp(-0.5·2) = exp(-1)
	intensity := math.Exp(-1)
	assert.Equal(t, 1, res.Stats.PathCount)
	assert.Zero(t, res.Unreachable)
	assert.InDelta(t, intensity, res.FlowField.At(0, 2), 1e-12)
	assert.InDelta(t, intensity, res.Stats.Efficiency, 1e-12)

	require.NotNil(t, res.Accessibility)
	assert.InDelta(t, 1.0, res.Accessibility.At(0, 0), 1e-12)
	assert.InDelta(t, math.Exp(-0.5), res.Accessibility.At(0, 1), 1e-12)
	assert.InDelta(t, intensity, res.Accessibility.At(0, 2), 1e-12)
}
