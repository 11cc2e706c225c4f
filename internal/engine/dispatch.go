package engine

import (
	"math"

	"github.com/sells-group/ecoflow/internal/decay"
	"github.com/sells-group/ecoflow/internal/grid"
)

// FlowBreakdown is the per-cell outcome of the capacity typology: how much
// of the theoretical flow survives source, sink, and use constraints.
type FlowBreakdown struct {
	// Theoretical is the transform output before any capacity limit.
	Theoretical *grid.Grid
	// Actual is what remains after source capping, sink blocking, and
	// (when rival) beneficiary use.
	Actual *grid.Grid
	// Blocked is the flow absorbed by finite sinks.
	Blocked *grid.Grid
	// Used is the flow captured by beneficiaries.
	Used *grid.Grid
}

// applyCapacity runs the source/sink/use typology over a theoretical flow
// grid. Sink capacity is the demand layer attenuated by the Beta demand-side
// decay over normalized resistance: demand sitting behind high resistance
// absorbs less.
func applyCapacity(theoretical, supply, demand, normRes *grid.Grid, p Parameters) (*FlowBreakdown, error) {
	betaDecay, err := decay.New(p.DistanceDecay, p.Beta)
	if err != nil {
		return nil, err
	}

	actual := theoretical.Clone()
	if p.SourceType == CapacityFinite {
		eachCell(actual, func(r, c int, v float64) float64 {
			return math.Min(v, supply.At(r, c))
		})
	}

	blocked := theoretical.Empty()
	if p.SinkType == CapacityFinite {
		eachCell(blocked, func(r, c int, _ float64) float64 {
			cap := demand.At(r, c) * betaDecay(normRes.At(r, c))
			return math.Min(actual.At(r, c), cap)
		})
		eachCell(actual, func(r, c int, v float64) float64 {
			return v - blocked.At(r, c)
		})
	}

	used := theoretical.Empty()
	eachCell(used, func(r, c int, _ float64) float64 {
		if p.UseType == CapacityFinite {
			return math.Min(actual.At(r, c), demand.At(r, c))
		}
		return actual.At(r, c)
	})
	if p.BenefitType == BenefitRival {
		eachCell(actual, func(r, c int, v float64) float64 {
			return v - used.At(r, c)
		})
	}

	actual.ClampMin(0)
	return &FlowBreakdown{
		Theoretical: theoretical,
		Actual:      actual,
		Blocked:     blocked,
		Used:        used,
	}, nil
}

func eachCell(g *grid.Grid, f func(r, c int, v float64) float64) {
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			g.Set(r, c, f(r, c, g.At(r, c)))
		}
	}
}
