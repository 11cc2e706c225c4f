// Package gridio reads raster layers from CSV and writes analysis outputs
// as CSV grids and GeoJSON feature collections.
package gridio

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ecoflow/internal/ecoerr"
	"github.com/sells-group/ecoflow/internal/grid"
)

// ReadOptions tunes CSV grid loading.
type ReadOptions struct {
	CellWidth  float64
	CellHeight float64
	// NoDataValue cells load as zero.
	NoDataValue float64
}

// ReadCSV loads a rectangular numeric CSV into a grid. Every row must have
// the same number of columns; cells equal to NoDataValue load as zero.
func ReadCSV(path string, opts ReadOptions) (*grid.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		// a layer file that cannot be opened is missing input data
		return nil, ecoerr.Wrap(err, ecoerr.KindMissingData, "gridio: open "+path)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "gridio: parse %s", path)
	}
	if len(records) == 0 {
		return nil, eris.Errorf("gridio: %s is empty", path)
	}

	values := make([][]float64, len(records))
	for r, rec := range records {
		row := make([]float64, len(rec))
		for c, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, eris.Wrapf(err, "gridio: %s row %d col %d", path, r+1, c+1)
			}
			if v == opts.NoDataValue {
				v = 0
			}
			row[c] = v
		}
		values[r] = row
	}

	g, err := grid.FromValues(values, opts.CellWidth, opts.CellHeight)
	if err != nil {
		return nil, eris.Wrapf(err, "gridio: load %s", path)
	}
	return g, nil
}

// WriteCSV writes a grid as numeric CSV, one row per raster row.
func WriteCSV(path string, g *grid.Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "gridio: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	record := make([]string, g.Cols())
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			record[c] = strconv.FormatFloat(g.At(r, c), 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return eris.Wrapf(err, "gridio: write %s", path)
		}
	}
	w.Flush()
	return eris.Wrapf(w.Error(), "gridio: flush %s", path)
}
