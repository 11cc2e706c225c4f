package decay

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ecoflow/internal/ecoerr"
)

func TestNew_UnknownCurve(t *testing.T) {
	_, err := New("logistic", 1)
	require.Error(t, err)
	assert.Equal(t, ecoerr.KindInvalidParameter, ecoerr.KindOf(err))
}

func TestNew_NegativeCoefficient(t *testing.T) {
	_, err := New(CurveExponential, -0.1)
	assert.Equal(t, ecoerr.KindInvalidParameter, ecoerr.KindOf(err))
}

func TestNew_GaussianZeroWidth(t *testing.T) {
	_, err := New(CurveGaussian, 0)
	assert.Equal(t, ecoerr.KindInvalidParameter, ecoerr.KindOf(err))
}

func TestExponential(t *testing.T) {
	f, err := New(CurveExponential, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1.0, f(0))
	// exp(-0.5 * 2.828) ≈ 0.2431
	assert.InDelta(t, math.Exp(-0.5*2.828), f(2.828), 1e-12)
}

func TestLinear_FloorsAtZero(t *testing.T) {
	f, err := New(CurveLinear, 0.25)
	require.NoError(t, err)
	assert.Equal(t, 1.0, f(0))
	assert.InDelta(t, 0.5, f(2), 1e-12)
	assert.Equal(t, 0.0, f(10))
}

func TestPower(t *testing.T) {
	f, err := New(CurvePower, 2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, f(0))
	// (1+1)^-2 = 0.25
	assert.InDelta(t, 0.25, f(1), 1e-12)
}

func TestGaussian(t *testing.T) {
	f, err := New(CurveGaussian, 2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, f(0))
	// exp(-(2/2)^2 / 2) = exp(-0.5)
	assert.InDelta(t, math.Exp(-0.5), f(2), 1e-12)
}

func TestNone(t *testing.T) {
	f, err := New(CurveNone, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, f(0))
	assert.Equal(t, 1.0, f(1e9))
}

// Attenuation must never increase with cost, for any curve.
func TestMonotoneNonIncreasing(t *testing.T) {
	for _, curve := range Curves() {
		k := 0.7
		if curve == CurveGaussian {
			k = 3
		}
		f, err := New(curve, k)
		require.NoError(t, err, curve)
		prev := f(0)
		assert.LessOrEqual(t, prev, 1.0, curve)
		for cost := 0.25; cost <= 50; cost += 0.25 {
			cur := f(cost)
			assert.LessOrEqual(t, cur, prev, "curve %s at cost %g", curve, cost)
			assert.GreaterOrEqual(t, cur, 0.0, curve)
			prev = cur
		}
	}
}
