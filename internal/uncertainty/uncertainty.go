// Package uncertainty scores how trustworthy each input layer is and folds
// the per-layer scores into one combined estimate for the run.
package uncertainty

import (
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/ecoflow/internal/grid"
)

// LayerScore is the uncertainty breakdown of one input layer.
type LayerScore struct {
	Layer string `json:"layer"`
	// CV is the coefficient of variation (std/mean), 0 when the mean is 0.
	CV float64 `json:"cv"`
	// Autocorrelation is the lag-1 spatial autocorrelation peak in [0,1].
	Autocorrelation float64 `json:"autocorrelation"`
	// Score = CV × (1 − autocorrelation), clamped to [0,1].
	Score float64 `json:"score"`
}

// Report is the run's uncertainty summary.
type Report struct {
	Layers []LayerScore `json:"layers"`
	// Combined is the Euclidean norm of the layer scores, clamped to [0,1].
	Combined float64 `json:"combined"`
	// WithinThreshold is false when Combined exceeds the configured bound.
	WithinThreshold bool `json:"within_threshold"`
}

// Estimate scores the supply, demand, and resistance layers. Layers with
// high relative variance and little spatial structure score as uncertain;
// smooth layers score near zero.
func Estimate(supply, demand, res *grid.Grid, threshold float64) *Report {
	rep := &Report{
		Layers: []LayerScore{
			scoreLayer("supply", supply),
			scoreLayer("demand", demand),
			scoreLayer("resistance", res),
		},
	}

	ss := 0.0
	for _, l := range rep.Layers {
		ss += l.Score * l.Score
	}
	rep.Combined = clamp01(math.Sqrt(ss))
	rep.WithinThreshold = rep.Combined <= threshold

	zap.L().Debug("uncertainty: estimated",
		zap.Float64("combined", rep.Combined),
		zap.Bool("within_threshold", rep.WithinThreshold),
	)
	return rep
}

func scoreLayer(name string, g *grid.Grid) LayerScore {
	ls := LayerScore{Layer: name}
	if g == nil {
		return ls
	}
	mean := g.Mean()
	if mean != 0 {
		ls.CV = g.Std() / math.Abs(mean)
	}
	ls.Autocorrelation = clamp01(lag1Autocorrelation(g))
	ls.Score = clamp01(ls.CV * (1 - ls.Autocorrelation))
	return ls
}

// lag1Autocorrelation is the Pearson correlation over all horizontally and
// vertically adjacent cell pairs, the peak of the spatial correlogram at
// lag 1. Constant grids correlate perfectly.
func lag1Autocorrelation(g *grid.Grid) float64 {
	mean := g.Mean()
	variance := 0.0
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			d := g.At(r, c) - mean
			variance += d * d
		}
	}
	if variance == 0 {
		return 1
	}

	cov := 0.0
	pairs := 0
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			d := g.At(r, c) - mean
			if g.InBounds(r, c+1) {
				cov += d * (g.At(r, c+1) - mean)
				pairs++
			}
			if g.InBounds(r+1, c) {
				cov += d * (g.At(r+1, c) - mean)
				pairs++
			}
		}
	}
	if pairs == 0 {
		return 1
	}
	n := float64(g.Rows() * g.Cols())
	return (cov / float64(pairs)) / (variance / n)
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
