// Package validate gates the analysis pipeline. An Engine walks the fixed
// state sequence Uninitialized → DataLoaded → Validated → Preprocessed →
// FlowComputed → Evaluated; each transition requires the prior stage's checks
// to have passed, and any failed check produces a structured error naming
// the failing category plus a full diagnostic Report.
package validate

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/ecoflow/internal/ecoerr"
	"github.com/sells-group/ecoflow/internal/grid"
)

// State is a pipeline stage.
type State int

const (
	Uninitialized State = iota
	DataLoaded
	Validated
	Preprocessed
	FlowComputed
	Evaluated
)

var stateNames = [...]string{
	"uninitialized", "data_loaded", "validated",
	"preprocessed", "flow_computed", "evaluated",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Category names a class of validation check.
type Category string

const (
	CatCompleteness Category = "completeness"
	CatType         Category = "type"
	CatRange        Category = "range"
	CatSpatial      Category = "spatial-consistency"
	CatPhysical     Category = "physical-constraint"
	CatModel        Category = "model-specific"
)

// Check is one named check outcome.
type Check struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Passed   bool     `json:"passed"`
	Detail   string   `json:"detail,omitempty"`
}

// Report collects all check outcomes of one validation pass. Produced once,
// never mutated afterward.
type Report struct {
	Checks []Check `json:"checks"`
	Passed bool    `json:"passed"`
}

// FirstFailure returns the first failed check, or nil when all passed.
func (r *Report) FirstFailure() *Check {
	for i := range r.Checks {
		if !r.Checks[i].Passed {
			return &r.Checks[i]
		}
	}
	return nil
}

func (r *Report) add(name string, cat Category, passed bool, detail string) {
	r.Checks = append(r.Checks, Check{Name: name, Category: cat, Passed: passed, Detail: detail})
	if !passed {
		r.Passed = false
	}
}

// Inputs holds the layers under validation. Normalized is the resistance
// surface after preprocessing; Direction is only set for terrain models.
type Inputs struct {
	Supply     *grid.Grid
	Demand     *grid.Grid
	Resistance *grid.Grid
	Spatial    *grid.Grid
	Normalized *grid.Grid
	Direction  *grid.Grid
}

// Options tunes the validation pass.
type Options struct {
	// ValidationThreshold bounds the relative supply/demand imbalance.
	ValidationThreshold float64
	// Conservation is only checked when both ends are finite.
	SourceFinite bool
	SinkFinite   bool
	// TerrainModel enables the model-specific direction checks.
	TerrainModel bool
}

// Engine is the validation state machine.
type Engine struct {
	state  State
	report *Report
}

// NewEngine returns an Engine in Uninitialized.
func NewEngine() *Engine {
	return &Engine{state: Uninitialized}
}

// State returns the current stage.
func (e *Engine) State() State { return e.state }

// Report returns the report of the last validation pass, nil before one ran.
func (e *Engine) Report() *Report { return e.report }

// LoadData performs the completeness check and moves to DataLoaded.
func (e *Engine) LoadData(in Inputs) error {
	if e.state != Uninitialized {
		return e.wrongState(DataLoaded)
	}
	missing := ""
	switch {
	case in.Supply == nil:
		missing = "supply"
	case in.Demand == nil:
		missing = "demand"
	case in.Resistance == nil:
		missing = "resistance"
	case in.Spatial == nil:
		missing = "spatial"
	}
	if missing != "" {
		return ecoerr.Errorf(ecoerr.KindMissingData, "validate: %s grid absent (category %s)", missing, CatCompleteness)
	}
	e.state = DataLoaded
	return nil
}

// Validate runs the staged checks and moves to Validated when every check
// passes. The Report is produced in full either way; the error names the
// first failing category.
func (e *Engine) Validate(in Inputs, opts Options) (*Report, error) {
	if e.state != DataLoaded {
		return nil, e.wrongState(Validated)
	}

	r := &Report{Passed: true}

	layers := []struct {
		name string
		g    *grid.Grid
	}{
		{"supply", in.Supply},
		{"demand", in.Demand},
		{"resistance", in.Resistance},
		{"spatial", in.Spatial},
	}

	for _, l := range layers {
		r.add(l.name+"_present", CatCompleteness, l.g != nil, "")
	}
	for _, l := range layers {
		if l.g == nil {
			continue
		}
		r.add(l.name+"_finite", CatType, l.g.Finite(), "grid holds NaN or Inf")
	}

	if in.Supply != nil {
		err := in.Supply.CheckCoRegistered(in.Demand, in.Resistance, in.Spatial)
		r.add("co_registered", CatSpatial, err == nil, detail(err))
	}

	if in.Supply != nil {
		r.add("supply_nonnegative", CatRange, in.Supply.Min() >= 0, "")
	}
	if in.Demand != nil {
		r.add("demand_nonnegative", CatRange, in.Demand.Min() >= 0, "")
	}
	if in.Normalized != nil {
		ok := in.Normalized.Min() >= 0 && in.Normalized.Max() <= 1
		r.add("resistance_normalized", CatRange, ok, "normalized resistance outside [0,1]")
	}

	if opts.SourceFinite && opts.SinkFinite && in.Supply != nil && in.Demand != nil {
		r.add("mass_conservation", CatPhysical,
			conservationOK(in.Supply.Total(), in.Demand.Total(), opts.ValidationThreshold),
			fmt.Sprintf("supply/demand imbalance exceeds %g", opts.ValidationThreshold))
	}

	if opts.TerrainModel {
		e.checkTerrain(r, in)
	}

	e.report = r
	if !r.Passed {
		f := r.FirstFailure()
		zap.L().Warn("validate: checks failed",
			zap.String("check", f.Name),
			zap.String("category", string(f.Category)),
		)
		return r, ecoerr.Errorf(ecoerr.KindValidation, "validate: check %s failed (category %s)", f.Name, f.Category)
	}
	e.state = Validated
	return r, nil
}

// MarkPreprocessed, MarkFlowComputed, and MarkEvaluated advance the machine
// one stage each; skipping a stage is an error.
func (e *Engine) MarkPreprocessed() error { return e.advance(Validated, Preprocessed) }

// MarkFlowComputed advances Preprocessed → FlowComputed.
func (e *Engine) MarkFlowComputed() error { return e.advance(Preprocessed, FlowComputed) }

// MarkEvaluated advances FlowComputed → Evaluated.
func (e *Engine) MarkEvaluated() error { return e.advance(FlowComputed, Evaluated) }

func (e *Engine) advance(from, to State) error {
	if e.state != from {
		return e.wrongState(to)
	}
	e.state = to
	return nil
}

func (e *Engine) wrongState(want State) error {
	return ecoerr.Errorf(ecoerr.KindValidation,
		"validate: cannot enter %s from %s", want, e.state)
}

// checkTerrain verifies direction codes are in {0..8} and every nonzero code
// points to a strictly lower elevation cell.
func (e *Engine) checkTerrain(r *Report, in Inputs) {
	if in.Direction == nil || in.Spatial == nil {
		r.add("direction_present", CatModel, false, "terrain model requires direction and elevation grids")
		return
	}
	r.add("direction_present", CatModel, true, "")

	codesOK := true
	downhillOK := true
	dir, elev := in.Direction, in.Spatial
	for row := 0; row < dir.Rows() && codesOK && downhillOK; row++ {
		for col := 0; col < dir.Cols(); col++ {
			code := int(dir.At(row, col))
			if code < 0 || code > 8 {
				codesOK = false
				break
			}
			if code == 0 {
				continue
			}
			off := grid.Neighbors8[code-1]
			nr, nc := row+off[0], col+off[1]
			if !elev.InBounds(nr, nc) || elev.At(nr, nc) >= elev.At(row, col) {
				downhillOK = false
				break
			}
		}
	}
	r.add("direction_codes", CatModel, codesOK, "direction code outside {0..8}")
	r.add("direction_downhill", CatModel, downhillOK, "direction not consistent with descending elevation")
}

func conservationOK(totalSupply, totalDemand, threshold float64) bool {
	den := math.Max(totalSupply, totalDemand)
	if den == 0 {
		return true
	}
	return math.Abs(totalSupply-totalDemand)/den <= threshold
}

func detail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
