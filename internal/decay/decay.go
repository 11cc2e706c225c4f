// Package decay holds the distance-decay function library. Every curve maps
// a non-negative cost to an attenuation factor in [0,1] and is monotone
// non-increasing in cost.
package decay

import (
	"math"

	"github.com/sells-group/ecoflow/internal/ecoerr"
)

// Supported curve names.
const (
	CurveExponential = "exponential"
	CurveLinear      = "linear"
	CurvePower       = "power"
	CurveGaussian    = "gaussian"
	CurveNone        = "none"
)

// Func maps a cumulative cost to an attenuation factor in [0,1].
type Func func(cost float64) float64

// New builds a decay function for the named curve with coefficient k.
// Unknown curves and negative coefficients are invalid-parameter errors.
func New(curve string, k float64) (Func, error) {
	if k < 0 {
		return nil, ecoerr.Errorf(ecoerr.KindInvalidParameter, "decay: coefficient %g must be >= 0", k)
	}
	switch curve {
	case CurveExponential:
		return func(cost float64) float64 {
			return clamp01(math.Exp(-k * cost))
		}, nil
	case CurveLinear:
		return func(cost float64) float64 {
			return clamp01(1 - k*cost)
		}, nil
	case CurvePower:
		// (1+cost)^-k: finite at zero, strictly decreasing for k>0.
		return func(cost float64) float64 {
			return clamp01(math.Pow(1+cost, -k))
		}, nil
	case CurveGaussian:
		if k == 0 {
			return nil, ecoerr.New(ecoerr.KindInvalidParameter, "decay: gaussian width must be > 0")
		}
		return func(cost float64) float64 {
			z := cost / k
			return clamp01(math.Exp(-z * z / 2))
		}, nil
	case CurveNone:
		return func(float64) float64 { return 1 }, nil
	default:
		return nil, ecoerr.Errorf(ecoerr.KindInvalidParameter, "decay: unknown curve %q", curve)
	}
}

// Curves lists the supported curve names.
func Curves() []string {
	return []string{CurveExponential, CurveLinear, CurvePower, CurveGaussian, CurveNone}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
