package router

import (
	"container/heap"
	"context"
	"math"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/ecoflow/internal/decay"
	"github.com/sells-group/ecoflow/internal/grid"
)

// CostDistanceRouter connects each source to each sink along the least
// cumulative-cost route over the 8-neighborhood, Dijkstra-style. Used by the
// proximity/accessibility and coastal models. Unreachable sinks are recorded
// and mapped to zero accessibility downstream, never treated as fatal.
type CostDistanceRouter struct{}

// Kind returns KindCostDistance.
func (CostDistanceRouter) Kind() Kind { return KindCostDistance }

// Route runs one cost-distance search per source (in parallel, since each
// search only reads shared inputs) and reconstructs the least-cost path to
// every reachable sink. Path intensity = supply × demand × decay(cumulative
// cost). The Result carries the element-wise minimum cost surface over all
// sources for the accessibility transform.
func (CostDistanceRouter) Route(ctx context.Context, in Inputs) (*Result, error) {
	if err := in.checkPairwise(); err != nil {
		return nil, err
	}

	sources := in.Supply.Cells(positive)
	sinks := in.Demand.Cells(positive)
	if len(sources) == 0 || len(sinks) == 0 {
		return &Result{Cost: infGrid(in.Supply)}, nil
	}

	workers := in.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(sources) {
		workers = len(sources)
	}

	type sourceOut struct {
		paths       []Path
		surface     *grid.Grid
		unreachable int
	}
	outs := make([]sourceOut, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for si, src := range sources {
		si, src := si, src
		g.Go(func() error {
			surface, prev := costSearch(gctx, in.Resistance.Weighted, src, in.MaxDistance)
			o := sourceOut{surface: surface}
			supply := in.Supply.At(src.Row, src.Col)
			for _, dst := range sinks {
				cost := surface.At(dst.Row, dst.Col)
				if math.IsInf(cost, 1) {
					o.unreachable++
					continue
				}
				cells := reconstruct(prev, surface, src, dst)
				intensity := supply * in.Demand.At(dst.Row, dst.Col) * in.Decay(cost)
				if intensity < 0 {
					intensity = 0
				}
				o.paths = append(o.paths, Path{
					Cells:      cells,
					Intensity:  intensity,
					Distance:   in.Supply.Distance(src, dst),
					Resistance: meanAlong(in.Resistance.Normalized, cells),
				})
			}
			outs[si] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Cost: infGrid(in.Supply)}
	for _, o := range outs {
		res.Paths = append(res.Paths, o.paths...)
		res.Unreachable += o.unreachable
		minInto(res.Cost, o.surface)
	}
	res.Partial = ctx.Err() != nil

	if res.Unreachable > 0 {
		zap.L().Warn("router: cost-distance left pairs unconnected",
			zap.Int("unreachable", res.Unreachable),
		)
	}
	return res, nil
}

// Accessibility maps a cumulative cost surface to [0,1] accessibility:
// decay(cost) for reached cells, exactly 0 for unreached (+Inf) cells.
func Accessibility(cost *grid.Grid, fn decay.Func) *grid.Grid {
	out := cost.Empty()
	for r := 0; r < cost.Rows(); r++ {
		for c := 0; c < cost.Cols(); c++ {
			v := cost.At(r, c)
			if math.IsInf(v, 1) {
				continue
			}
			out.Set(r, c, fn(v))
		}
	}
	return out
}

// costSearch is a single-source Dijkstra over the 8-neighborhood. Edge cost
// between adjacent cells is move distance × the average of the two cells'
// base cost; cells with +Inf base cost are impassable. Cumulative costs above
// maxCost are never finalized, so the cutoff is hard. Ties pop in insertion
// order via the sequence counter. Cancellation stops the search early,
// leaving remaining cells at +Inf.
func costSearch(ctx context.Context, base *grid.Grid, source grid.Cell, maxCost float64) (*grid.Grid, []int32) {
	rows, cols := base.Rows(), base.Cols()
	n := rows * cols

	dist := make([]float64, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	prev := make([]int32, n)
	for i := range prev {
		prev[i] = -1
	}
	done := make([]bool, n)

	pq := &costPQ{}
	heap.Init(pq)
	start := source.Row*cols + source.Col
	dist[start] = 0
	pq.push(int32(start), 0)

	cellW, cellH := base.CellWidth(), base.CellHeight()

	for pq.Len() > 0 {
		if ctx.Err() != nil {
			break
		}
		it := heap.Pop(pq).(costItem)
		idx := int(it.idx)
		if done[idx] || it.cost > dist[idx] {
			continue
		}
		done[idx] = true
		r, c := idx/cols, idx%cols
		hereCost := base.At(r, c)
		for _, off := range grid.Neighbors8 {
			nr, nc := r+off[0], c+off[1]
			if !base.InBounds(nr, nc) {
				continue
			}
			nbCost := base.At(nr, nc)
			if math.IsInf(nbCost, 1) {
				continue
			}
			move := math.Hypot(float64(off[1])*cellW, float64(off[0])*cellH)
			next := it.cost + move*(hereCost+nbCost)/2
			if next > maxCost {
				continue
			}
			nidx := nr*cols + nc
			if next < dist[nidx] {
				dist[nidx] = next
				prev[nidx] = int32(idx)
				pq.push(int32(nidx), next)
			}
		}
	}

	surface := base.Empty()
	for i, d := range dist {
		surface.Set(i/cols, i%cols, d)
	}
	return surface, prev
}

// reconstruct walks prev pointers from dst back to src and reverses.
func reconstruct(prev []int32, surface *grid.Grid, src, dst grid.Cell) []grid.Cell {
	cols := surface.Cols()
	var rev []grid.Cell
	idx := int32(dst.Row*cols + dst.Col)
	for idx >= 0 {
		rev = append(rev, grid.Cell{Row: int(idx) / cols, Col: int(idx) % cols})
		if int(idx) == src.Row*cols+src.Col {
			break
		}
		idx = prev[idx]
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

func infGrid(ref *grid.Grid) *grid.Grid {
	g := ref.Empty()
	g.Fill(math.Inf(1))
	return g
}

func minInto(dst, src *grid.Grid) {
	for r := 0; r < dst.Rows(); r++ {
		for c := 0; c < dst.Cols(); c++ {
			if v := src.At(r, c); v < dst.At(r, c) {
				dst.Set(r, c, v)
			}
		}
	}
}

// costItem is one priority-queue entry under lazy decrease-key.
type costItem struct {
	idx  int32
	cost float64
	seq  int64
}

type costPQ struct {
	items []costItem
	next  int64
}

func (q *costPQ) push(idx int32, cost float64) {
	heap.Push(q, costItem{idx: idx, cost: cost, seq: q.next})
	q.next++
}

func (q *costPQ) Len() int { return len(q.items) }

func (q *costPQ) Less(i, j int) bool {
	if q.items[i].cost != q.items[j].cost {
		return q.items[i].cost < q.items[j].cost
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *costPQ) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *costPQ) Push(x any) { q.items = append(q.items, x.(costItem)) }

func (q *costPQ) Pop() any {
	old := q.items
	n := len(old)
	it := old[n-1]
	q.items = old[:n-1]
	return it
}
