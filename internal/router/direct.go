package router

import (
	"context"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DirectRouter routes every (source, sink) pair along the straight line
// between them, sampling resistance along the line. This is the O(S·D·L)
// all-pairs strategy used by proximity-style flows; pairs are evaluated in
// parallel across source partitions since each pair reads only immutable
// inputs.
type DirectRouter struct{}

// Kind returns KindDirect.
func (DirectRouter) Kind() Kind { return KindDirect }

// Route enumerates all source-sink pairs within MaxDistance. Cancellation is
// checked between pair iterations; on cancel the paths completed so far are
// returned with Partial set, not an error, so partial results stay usable
// under a time budget.
func (DirectRouter) Route(ctx context.Context, in Inputs) (*Result, error) {
	if err := in.checkPairwise(); err != nil {
		return nil, err
	}

	sources := in.Supply.Cells(positive)
	sinks := in.Demand.Cells(positive)
	if len(sources) == 0 || len(sinks) == 0 {
		zap.L().Debug("router: no source/sink pairs to route",
			zap.Int("sources", len(sources)),
			zap.Int("sinks", len(sinks)),
		)
		return &Result{}, nil
	}

	workers := in.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(sources) {
		workers = len(sources)
	}

	// Each worker owns one source partition and one private path slice;
	// the only shared state is the cancellation flag.
	parts := make([][]Path, workers)
	var cancelled atomic.Bool

	// For pairs sharing a row or column the summed-area surface yields the
	// line mean in O(1), so those pairs skip per-cell sampling. The surface
	// holds weighted sums; dividing by the weighted maximum recovers the
	// normalized mean the intensity formula expects.
	useRect := in.Resistance.Cumulative != nil && in.Resistance.Weighted != nil
	wmax := 0.0
	if useRect {
		wmax = in.Resistance.Weighted.Max()
	}

	g, _ := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			var paths []Path
			for s := w; s < len(sources); s += workers {
				src := sources[s]
				supply := in.Supply.At(src.Row, src.Col)
				for _, dst := range sinks {
					if ctx.Err() != nil {
						cancelled.Store(true)
						parts[w] = paths
						return nil
					}
					dist := in.Supply.Distance(src, dst)
					if dist > in.MaxDistance {
						continue
					}
					cells := Line(src, dst)
					var res float64
					if useRect && (src.Row == dst.Row || src.Col == dst.Col) {
						if wmax > 0 {
							res = in.Resistance.MeanRect(src, dst) / wmax
						}
					} else {
						res = meanAlong(in.Resistance.Normalized, cells)
					}
					intensity := supply * in.Demand.At(dst.Row, dst.Col) * in.Decay(res*dist)
					if intensity < 0 {
						intensity = 0
					}
					paths = append(paths, Path{
						Cells:      cells,
						Intensity:  intensity,
						Distance:   dist,
						Resistance: res,
					})
				}
			}
			parts[w] = paths
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := &Result{Paths: make([]Path, 0, total), Partial: cancelled.Load()}
	for _, p := range parts {
		out.Paths = append(out.Paths, p...)
	}

	zap.L().Debug("router: direct pass complete",
		zap.Int("sources", len(sources)),
		zap.Int("sinks", len(sinks)),
		zap.Int("paths", len(out.Paths)),
		zap.Bool("partial", out.Partial),
	)
	return out, nil
}

func positive(v float64) bool { return v > 0 }
