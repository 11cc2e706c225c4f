// Package router implements the three path-routing strategies of the flow
// engine: direct line-of-sight sampling, terrain-driven directional
// accumulation, and cost-distance search. All strategies share one Inputs
// record and produce one Result record, so the engine can swap them per
// domain model.
package router

import (
	"context"

	"github.com/sells-group/ecoflow/internal/decay"
	"github.com/sells-group/ecoflow/internal/ecoerr"
	"github.com/sells-group/ecoflow/internal/grid"
	"github.com/sells-group/ecoflow/internal/resistance"
)

// Kind names a routing strategy.
type Kind string

const (
	KindDirect       Kind = "direct"
	KindTerrain      Kind = "terrain"
	KindCostDistance Kind = "cost-distance"
)

// Inputs bundles the immutable layers a strategy reads. Nothing in Inputs is
// mutated during routing.
type Inputs struct {
	Supply     *grid.Grid
	Demand     *grid.Grid
	Resistance *resistance.Field
	// Elevation is required by the terrain strategy only.
	Elevation *grid.Grid
	// Decay attenuates intensity with accumulated cost.
	Decay decay.Func
	// MaxDistance is a hard cutoff: Euclidean distance for the direct
	// strategy, travel distance along the flow path for the terrain
	// strategy, cumulative cost for the cost-distance strategy.
	MaxDistance float64
	// Workers bounds the routing fan-out; 0 means GOMAXPROCS.
	Workers int
}

// Path is one realized source-to-sink route.
type Path struct {
	Cells []grid.Cell
	// Intensity = supply × demand × decay(cost), always >= 0.
	Intensity float64
	// Distance is the Euclidean source-sink distance in meters.
	Distance float64
	// Resistance is the mean normalized resistance sampled along the path.
	Resistance float64
}

// Result is the immutable output of one routing pass. Pairwise strategies
// fill Paths; the terrain strategy fills Direction and Accumulation; the
// cost-distance strategy fills Paths and Cost.
type Result struct {
	Paths []Path
	// Direction holds D8 codes: 0 = pit/flat, 1..8 index grid.Neighbors8.
	Direction *grid.Grid
	// Accumulation holds upstream contribution counts per cell.
	Accumulation *grid.Grid
	// Cost is the per-cell minimum cumulative cost over all sources;
	// +Inf where no source reaches the cell.
	Cost *grid.Grid
	// Unreachable counts source-sink pairs the cost-distance search could
	// not connect. Recovered locally, never fatal.
	Unreachable int
	// Partial is true when the run was cancelled and Paths holds only the
	// pairs completed so far.
	Partial bool
}

// Strategy is one interchangeable routing algorithm.
type Strategy interface {
	Kind() Kind
	Route(ctx context.Context, in Inputs) (*Result, error)
}

// ForKind returns the strategy registered under k.
func ForKind(k Kind) (Strategy, error) {
	switch k {
	case KindDirect:
		return DirectRouter{}, nil
	case KindTerrain:
		return TerrainRouter{}, nil
	case KindCostDistance:
		return CostDistanceRouter{}, nil
	default:
		return nil, ecoerr.Errorf(ecoerr.KindInvalidParameter, "router: unknown strategy %q", k)
	}
}

func (in Inputs) checkPairwise() error {
	if in.Supply == nil || in.Demand == nil {
		return ecoerr.New(ecoerr.KindMissingData, "router: supply and demand grids are required")
	}
	if in.Resistance == nil || in.Resistance.Normalized == nil {
		return ecoerr.New(ecoerr.KindMissingData, "router: resistance field is required")
	}
	if in.Decay == nil {
		return ecoerr.New(ecoerr.KindMissingData, "router: decay function is required")
	}
	if in.MaxDistance <= 0 {
		return ecoerr.Errorf(ecoerr.KindInvalidParameter, "router: max distance %g must be > 0", in.MaxDistance)
	}
	return in.Supply.CheckCoRegistered(in.Demand, in.Resistance.Normalized)
}
