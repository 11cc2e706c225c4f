// Package accumulate aggregates per-pair path intensities into the flow
// field and computes the run's summary statistics.
package accumulate

import (
	"context"
	"math"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/ecoflow/internal/ecoerr"
	"github.com/sells-group/ecoflow/internal/grid"
	"github.com/sells-group/ecoflow/internal/router"
)

// Stats summarizes one accumulation pass.
type Stats struct {
	TotalFlow float64 `json:"total_flow"`
	MeanFlow  float64 `json:"mean_flow"`
	MaxFlow   float64 `json:"max_flow"`
	StdFlow   float64 `json:"std_flow"`

	PathCount    int     `json:"path_count"`
	DroppedPaths int     `json:"dropped_paths"`
	MeanPathLen  float64 `json:"mean_path_len"`
	MaxPathLen   int     `json:"max_path_len"`

	// Efficiency = realized flow / theoretical max flow, in [0,1] when the
	// theoretical max is honest.
	Efficiency float64 `json:"efficiency"`
}

// Result is the immutable output of Accumulate.
type Result struct {
	Field *grid.Grid
	Stats Stats
	// Retained holds the paths that survived the threshold, for the
	// bottleneck detector.
	Retained []router.Path
}

// Theoretical returns the theoretical max flow: min(total supply, total
// demand) for a finite source, total demand otherwise.
func Theoretical(totalSupply, totalDemand float64, sourceFinite bool) float64 {
	if sourceFinite {
		return math.Min(totalSupply, totalDemand)
	}
	return totalDemand
}

// Accumulate deposits each retained path's intensity onto every cell the
// path crosses. Paths below threshold are dropped BEFORE deposit, so they
// contribute to neither the field nor the path statistics; reported totals
// describe only retained paths. Deposit runs as a reduction over per-worker
// partial grids, the only contended resource being the final sum.
func Accumulate(ctx context.Context, paths []router.Path, ref *grid.Grid, threshold, theoretical float64) (*Result, error) {
	if ref == nil {
		return nil, ecoerr.New(ecoerr.KindMissingData, "accumulate: reference grid is required")
	}
	if threshold < 0 {
		return nil, ecoerr.Errorf(ecoerr.KindInvalidParameter, "accumulate: threshold %g must be >= 0", threshold)
	}

	retained := make([]router.Path, 0, len(paths))
	dropped := 0
	for _, p := range paths {
		if p.Intensity < threshold {
			dropped++
			continue
		}
		retained = append(retained, p)
	}

	field := ref.Empty()
	workers := runtime.GOMAXPROCS(0)
	if workers > len(retained) {
		workers = len(retained)
	}
	if workers > 1 {
		partials := make([]*grid.Grid, workers)
		g, _ := errgroup.WithContext(ctx)
		for w := 0; w < workers; w++ {
			w := w
			g.Go(func() error {
				part := ref.Empty()
				for i := w; i < len(retained); i += workers {
					deposit(part, retained[i])
				}
				partials[w] = part
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		for _, part := range partials {
			if err := field.Add(part); err != nil {
				return nil, err
			}
		}
	} else {
		for _, p := range retained {
			deposit(field, p)
		}
	}

	stats := fieldStats(field, retained, dropped, theoretical)

	zap.L().Debug("accumulate: flow field built",
		zap.Int("paths", stats.PathCount),
		zap.Int("dropped", dropped),
		zap.Float64("total_flow", stats.TotalFlow),
		zap.Float64("efficiency", stats.Efficiency),
	)
	return &Result{Field: field, Stats: stats, Retained: retained}, nil
}

func deposit(field *grid.Grid, p router.Path) {
	for _, c := range p.Cells {
		field.AddAt(c.Row, c.Col, p.Intensity)
	}
}

func fieldStats(field *grid.Grid, retained []router.Path, dropped int, theoretical float64) Stats {
	s := Stats{
		TotalFlow:    field.Total(),
		MeanFlow:     field.Mean(),
		MaxFlow:      field.Max(),
		StdFlow:      field.Std(),
		PathCount:    len(retained),
		DroppedPaths: dropped,
	}
	realized := 0.0
	totalLen := 0
	for _, p := range retained {
		realized += p.Intensity
		totalLen += len(p.Cells)
		if len(p.Cells) > s.MaxPathLen {
			s.MaxPathLen = len(p.Cells)
		}
	}
	if len(retained) > 0 {
		s.MeanPathLen = float64(totalLen) / float64(len(retained))
	}
	if theoretical > 0 {
		s.Efficiency = realized / theoretical
	}
	return s
}
