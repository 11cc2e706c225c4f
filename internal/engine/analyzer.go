// Package engine orchestrates one service-flow analysis: validation gating,
// resistance preprocessing, domain dispatch, routing, accumulation, and the
// bottleneck/uncertainty evaluation layers. Every stage returns a fresh
// value; no intermediate state survives an Analyze call.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/ecoflow/internal/accumulate"
	"github.com/sells-group/ecoflow/internal/bottleneck"
	"github.com/sells-group/ecoflow/internal/grid"
	"github.com/sells-group/ecoflow/internal/resistance"
	"github.com/sells-group/ecoflow/internal/router"
	"github.com/sells-group/ecoflow/internal/uncertainty"
	"github.com/sells-group/ecoflow/internal/validate"
)

// Inputs are the four co-registered layers of one analysis.
type Inputs struct {
	Supply     *grid.Grid
	Demand     *grid.Grid
	Resistance *grid.Grid
	// Spatial is the terrain/elevation layer, read-only during routing.
	Spatial *grid.Grid
}

// Result is the complete bundle of one analysis run. Recomputed from
// scratch on every Analyze call; never mutated afterward.
type Result struct {
	RunID string   `json:"run_id"`
	Model ModelKey `json:"model"`

	// FlowField is the primary output: the deposited path field for
	// pairwise models, the accumulation surface for terrain models.
	FlowField *grid.Grid     `json:"-"`
	Breakdown *FlowBreakdown `json:"-"`
	// Accessibility is only set for cost-distance models.
	Accessibility *grid.Grid `json:"-"`
	// Paths holds the retained flow paths; empty under directional routing.
	Paths []router.Path `json:"-"`

	Stats       accumulate.Stats     `json:"stats"`
	Validation  *validate.Report     `json:"validation"`
	Uncertainty *uncertainty.Report  `json:"uncertainty"`
	Bottlenecks []bottleneck.Hotspot `json:"bottlenecks"`

	Unreachable int           `json:"unreachable"`
	Partial     bool          `json:"partial"`
	Duration    time.Duration `json:"duration"`
}

// Analyzer runs analyses under one fixed Parameters record plus scenario
// coefficients for the domain transforms.
type Analyzer struct {
	params Parameters
	coeffs map[string]float64
}

// New validates the parameters and returns an Analyzer.
func New(params Parameters, coeffs map[string]float64) (*Analyzer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{params: params, coeffs: coeffs}, nil
}

// Params returns the analyzer's parameter record.
func (a *Analyzer) Params() Parameters { return a.params }

// Analyze runs the full pipeline for one model. Structural errors abort
// before any computation; validation failures abort before routing but
// still return the diagnostic report inside the Result; unreachable
// cost-distance targets are recovered as zero accessibility and reported in
// the count, never as an error.
func (a *Analyzer) Analyze(ctx context.Context, in Inputs, model ModelKey) (*Result, error) {
	started := time.Now()
	spec, err := lookup(model)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.NewString(), Model: model}
	log := zap.L().With(zap.String("run_id", res.RunID), zap.String("model", string(model)))

	ve := validate.NewEngine()
	vin := validate.Inputs{
		Supply:     in.Supply,
		Demand:     in.Demand,
		Resistance: in.Resistance,
		Spatial:    in.Spatial,
	}
	if err := ve.LoadData(vin); err != nil {
		return nil, err
	}

	field, err := resistance.Build(in.Resistance, a.params.ResistanceFactor)
	if err != nil {
		return nil, err
	}
	vin.Normalized = field.Normalized

	terrainModel := spec.router == router.KindTerrain
	if terrainModel {
		vin.Direction = router.FlowDirections(in.Spatial)
	}

	report, err := ve.Validate(vin, validate.Options{
		ValidationThreshold: a.params.ValidationThreshold,
		SourceFinite:        a.params.SourceType == CapacityFinite,
		SinkFinite:          a.params.SinkType == CapacityFinite,
		TerrainModel:        terrainModel,
	})
	res.Validation = report
	if err != nil {
		log.Warn("engine: validation blocked flow computation")
		return res, err
	}
	if err := ve.MarkPreprocessed(); err != nil {
		return res, err
	}

	decayFn, err := a.params.DecayFunc()
	if err != nil {
		return res, err
	}
	strategy, err := router.ForKind(spec.router)
	if err != nil {
		return res, err
	}

	routing, err := strategy.Route(ctx, router.Inputs{
		Supply:      in.Supply,
		Demand:      in.Demand,
		Resistance:  field,
		Elevation:   in.Spatial,
		Decay:       decayFn,
		MaxDistance: a.params.MaxDistance,
		Workers:     a.params.Workers,
	})
	if err != nil {
		return res, err
	}

	theoretical := accumulate.Theoretical(
		in.Supply.Total(), in.Demand.Total(), a.params.SourceType == CapacityFinite)
	acc, err := accumulate.Accumulate(ctx, routing.Paths, in.Supply, a.params.FlowThreshold, theoretical)
	if err != nil {
		return res, err
	}
	if err := ve.MarkFlowComputed(); err != nil {
		return res, err
	}

	th := spec.transform(TransformContext{
		Supply:       in.Supply,
		Demand:       in.Demand,
		Resistance:   field,
		Routing:      routing,
		FlowField:    acc.Field,
		Coefficients: a.coeffs,
	})
	breakdown, err := applyCapacity(th, in.Supply, in.Demand, field.Normalized, a.params)
	if err != nil {
		return res, err
	}

	res.Breakdown = breakdown
	res.Stats = acc.Stats
	if terrainModel {
		// No discrete paths under directional routing: the accumulation
		// surface is the flow field and the stats describe it.
		res.FlowField = routing.Accumulation
		res.Stats.TotalFlow = res.FlowField.Total()
		res.Stats.MeanFlow = res.FlowField.Mean()
		res.Stats.MaxFlow = res.FlowField.Max()
		res.Stats.StdFlow = res.FlowField.Std()
		if theoretical > 0 {
			res.Stats.Efficiency = breakdown.Actual.Total() / theoretical
		}
	} else {
		res.FlowField = acc.Field
	}
	if routing.Cost != nil {
		res.Accessibility = router.Accessibility(routing.Cost, decayFn)
	}

	res.Paths = acc.Retained
	res.Bottlenecks = bottleneck.Detect(acc.Retained, field.Weighted, a.params.TopBottlenecks)
	res.Uncertainty = uncertainty.Estimate(
		in.Supply, in.Demand, in.Resistance, a.params.UncertaintyThreshold)
	if err := ve.MarkEvaluated(); err != nil {
		return res, err
	}

	res.Unreachable = routing.Unreachable
	res.Partial = routing.Partial
	res.Duration = time.Since(started)

	log.Info("engine: analysis complete",
		zap.Int("paths", res.Stats.PathCount),
		zap.Float64("total_flow", res.Stats.TotalFlow),
		zap.Float64("efficiency", res.Stats.Efficiency),
		zap.Bool("partial", res.Partial),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}
