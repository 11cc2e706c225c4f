// Package bottleneck ranks grid cells by how much they limit the realized
// flow: cells where high resistance coincides with heavy crossing traffic.
package bottleneck

import (
	"sort"

	"github.com/sells-group/ecoflow/internal/grid"
	"github.com/sells-group/ecoflow/internal/router"
)

// DefaultTopN is the number of hotspots reported when the caller asks for 0.
const DefaultTopN = 5

// Hotspot is one ranked bottleneck cell.
type Hotspot struct {
	Cell  grid.Cell `json:"cell"`
	Score float64   `json:"score"`
}

// Detect accumulates intensity × resistance(cell) for every cell each path
// crosses, then returns the topN cells by score descending. Ties break by
// raster scan order (row, then column).
func Detect(paths []router.Path, res *grid.Grid, topN int) []Hotspot {
	if res == nil || len(paths) == 0 {
		return nil
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	scores := res.Empty()
	for _, p := range paths {
		for _, c := range p.Cells {
			scores.AddAt(c.Row, c.Col, p.Intensity*res.At(c.Row, c.Col))
		}
	}

	var spots []Hotspot
	for r := 0; r < scores.Rows(); r++ {
		for c := 0; c < scores.Cols(); c++ {
			if s := scores.At(r, c); s > 0 {
				spots = append(spots, Hotspot{Cell: grid.Cell{Row: r, Col: c}, Score: s})
			}
		}
	}

	// Stable sort on score keeps the raster-scan order for equal scores.
	sort.SliceStable(spots, func(i, j int) bool {
		return spots[i].Score > spots[j].Score
	})
	if len(spots) > topN {
		spots = spots[:topN]
	}
	return spots
}
