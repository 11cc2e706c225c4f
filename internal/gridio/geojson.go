package gridio

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/ecoflow/internal/grid"
	"github.com/sells-group/ecoflow/internal/router"
)

// PathFeatures converts routed flow paths to a GeoJSON feature collection.
// Cell centers map to grid coordinates with row 0 on the north edge; a
// single-cell path becomes a Point, longer paths become LineStrings.
func PathFeatures(paths []router.Path, ref *grid.Grid) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{}
	for i, p := range paths {
		var g geom.T
		if len(p.Cells) == 1 {
			g = geom.NewPointFlat(geom.XY, cellXY(p.Cells[0], ref))
		} else {
			flat := make([]float64, 0, 2*len(p.Cells))
			for _, c := range p.Cells {
				flat = append(flat, cellXY(c, ref)...)
			}
			g = geom.NewLineStringFlat(geom.XY, flat)
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       fmt.Sprintf("path-%d", i),
			Geometry: g,
			Properties: map[string]interface{}{
				"intensity":  p.Intensity,
				"distance":   p.Distance,
				"resistance": p.Resistance,
				"cells":      len(p.Cells),
			},
		})
	}
	return fc
}

// WritePathsGeoJSON writes the flow paths of one run as a GeoJSON file.
func WritePathsGeoJSON(path string, paths []router.Path, ref *grid.Grid) error {
	if ref == nil {
		return eris.New("gridio: reference grid is required")
	}
	data, err := json.Marshal(PathFeatures(paths, ref))
	if err != nil {
		return eris.Wrap(err, "gridio: marshal geojson")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return eris.Wrapf(err, "gridio: write %s", path)
	}
	return nil
}

func cellXY(c grid.Cell, ref *grid.Grid) []float64 {
	x := (float64(c.Col) + 0.5) * ref.CellWidth()
	y := (float64(ref.Rows()-c.Row) - 0.5) * ref.CellHeight()
	return []float64{x, y}
}
