package engine

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ecoflow/internal/ecoerr"
	"github.com/sells-group/ecoflow/internal/resistance"
	"github.com/sells-group/ecoflow/internal/router"
)

func TestModels_CompleteAndSorted(t *testing.T) {
	keys := Models()
	assert.Len(t, keys, 8)
	assert.True(t, sort.SliceIsSorted(keys, func(i, j int) bool { return keys[i] < keys[j] }))
	assert.Contains(t, keys, ModelSurfaceWater)
	assert.Contains(t, keys, ModelCoastal)
}

func TestRouterKind_Dispatch(t *testing.T) {
	cases := map[ModelKey]router.Kind{
		ModelSurfaceWater: router.KindTerrain,
		ModelFlood:        router.KindTerrain,
		ModelSediment:     router.KindTerrain,
		ModelCarbon:       router.KindTerrain,
		ModelLineOfSight:  router.KindDirect,
		ModelFisheries:    router.KindDirect,
		ModelProximity:    router.KindCostDistance,
		ModelCoastal:      router.KindCostDistance,
	}
	for key, want := range cases {
		got, err := RouterKind(key)
		require.NoError(t, err)
		assert.Equal(t, want, got, "model %s", key)
	}
}

func TestDescribe_UnknownModel(t *testing.T) {
	_, err := Describe(ModelKey("teleportation"))
	require.Error(t, err)
	assert.Equal(t, ecoerr.KindUnsupportedModel, ecoerr.KindOf(err))
}

func TestTransform_SurfaceWater(t *testing.T) {
	supply := mk(t, [][]float64{{2, 0}, {0, 3}})
	acc := mk(t, [][]float64{{1, 4}, {2, 5}})

	spec, err := lookup(ModelSurfaceWater)
	require.NoError(t, err)
	out := spec.transform(TransformContext{
		Supply:       supply,
		Routing:      &router.Result{Accumulation: acc},
		Coefficients: map[string]float64{"runoff_coefficient": 0.5},
	})
	// supply × accumulation × coefficient; non-source cells stay zero
	assert.Equal(t, 2*1*0.5, out.At(0, 0))
	assert.Equal(t, 0.0, out.At(0, 1))
	assert.Equal(t, 3*5*0.5, out.At(1, 1))
}

func TestTransform_FloodUsesAbsorptionComplement(t *testing.T) {
	supply := mk(t, [][]float64{{4}})
	acc := mk(t, [][]float64{{2}})
	raw := mk(t, [][]float64{{0.25}})
	field, err := resistance.Build(raw, 1)
	require.NoError(t, err)
	// single cell normalizes to 1, so the absorption complement is 0
	require.Equal(t, 1.0, field.Normalized.At(0, 0))

	spec, err := lookup(ModelFlood)
	require.NoError(t, err)
	out := spec.transform(TransformContext{
		Supply:     supply,
		Resistance: field,
		Routing:    &router.Result{Accumulation: acc},
	})
	assert.Equal(t, 0.0, out.At(0, 0))
}

func TestTransform_CarbonSkipsAccumulation(t *testing.T) {
	supply := mk(t, [][]float64{{10, 10}})
	raw := mk(t, [][]float64{{1, 4}})
	field, err := resistance.Build(raw, 1)
	require.NoError(t, err)
	// normalized resistance = 0.25 and 1.0

	spec, err := lookup(ModelCarbon)
	require.NoError(t, err)
	out := spec.transform(TransformContext{
		Supply:       supply,
		Resistance:   field,
		Coefficients: map[string]float64{"sequestration_rate": 2},
	})
	// 10 × (1 - 0.25) × 2 = 15; fully disturbed cell sequesters nothing
	assert.InDelta(t, 15.0, out.At(0, 0), 1e-12)
	assert.Equal(t, 0.0, out.At(0, 1))
}

func TestTransform_PairwiseScalesFlowField(t *testing.T) {
	flow := mk(t, [][]float64{{0.5, 1.5}})
	for _, key := range []ModelKey{ModelLineOfSight, ModelFisheries, ModelProximity, ModelCoastal} {
		spec, err := lookup(key)
		require.NoError(t, err)
		out := spec.transform(TransformContext{FlowField: flow})
		// default coefficient is 1: pass-through
		assert.Equal(t, 0.5, out.At(0, 0), "model %s", key)
		assert.Equal(t, 1.5, out.At(0, 1), "model %s", key)
	}
}

func TestTransform_DefaultCoefficient(t *testing.T) {
	tc := TransformContext{Coefficients: map[string]float64{"set": 3}}
	assert.Equal(t, 3.0, tc.coeff("set", 7))
	assert.Equal(t, 7.0, tc.coeff("missing", 7))
}
