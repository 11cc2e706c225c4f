package engine

import (
	"github.com/sells-group/ecoflow/internal/decay"
	"github.com/sells-group/ecoflow/internal/ecoerr"
)

// CapacityType says whether a source/sink/use pool is exhaustible.
type CapacityType string

const (
	CapacityFinite   CapacityType = "finite"
	CapacityInfinite CapacityType = "infinite"
)

// BenefitType says whether use by one beneficiary depletes the service for
// others.
type BenefitType string

const (
	BenefitRival    BenefitType = "rival"
	BenefitNonRival BenefitType = "non-rival"
)

// Parameters is the immutable configuration record of one analysis run.
// Alpha is the distance-decay coefficient applied to path cost, Beta the
// demand-side decay coefficient used when attenuating sink capacity, and
// Gamma a multiplier on resistance when composing path cost.
type Parameters struct {
	Alpha float64 `json:"alpha" yaml:"alpha" mapstructure:"alpha"`
	Beta  float64 `json:"beta" yaml:"beta" mapstructure:"beta"`
	Gamma float64 `json:"gamma" yaml:"gamma" mapstructure:"gamma"`

	MaxDistance      float64 `json:"max_distance" yaml:"max_distance" mapstructure:"max_distance"`
	FlowThreshold    float64 `json:"flow_threshold" yaml:"flow_threshold" mapstructure:"flow_threshold"`
	ResistanceFactor float64 `json:"resistance_factor" yaml:"resistance_factor" mapstructure:"resistance_factor"`
	DistanceDecay    string  `json:"distance_decay" yaml:"distance_decay" mapstructure:"distance_decay"`

	SourceType  CapacityType `json:"source_type" yaml:"source_type" mapstructure:"source_type"`
	SinkType    CapacityType `json:"sink_type" yaml:"sink_type" mapstructure:"sink_type"`
	UseType     CapacityType `json:"use_type" yaml:"use_type" mapstructure:"use_type"`
	BenefitType BenefitType  `json:"benefit_type" yaml:"benefit_type" mapstructure:"benefit_type"`

	CellWidth  float64 `json:"cell_width" yaml:"cell_width" mapstructure:"cell_width"`
	CellHeight float64 `json:"cell_height" yaml:"cell_height" mapstructure:"cell_height"`

	ValidationThreshold  float64 `json:"validation_threshold" yaml:"validation_threshold" mapstructure:"validation_threshold"`
	UncertaintyThreshold float64 `json:"uncertainty_threshold" yaml:"uncertainty_threshold" mapstructure:"uncertainty_threshold"`

	// Workers bounds routing parallelism; 0 means GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
	// TopBottlenecks is the hotspot count reported; 0 means the default.
	TopBottlenecks int `json:"top_bottlenecks" yaml:"top_bottlenecks" mapstructure:"top_bottlenecks"`
}

// DefaultParameters returns the engine defaults.
func DefaultParameters() Parameters {
	return Parameters{
		Alpha:                0.5,
		Beta:                 0.5,
		Gamma:                1,
		MaxDistance:          1000,
		FlowThreshold:        0.001,
		ResistanceFactor:     1,
		DistanceDecay:        decay.CurveExponential,
		SourceType:           CapacityFinite,
		SinkType:             CapacityFinite,
		UseType:              CapacityFinite,
		BenefitType:          BenefitRival,
		CellWidth:            30,
		CellHeight:           30,
		ValidationThreshold:  0.2,
		UncertaintyThreshold: 0.7,
	}
}

// Validate rejects out-of-range parameter values before any computation.
func (p Parameters) Validate() error {
	switch {
	case p.Alpha < 0, p.Beta < 0, p.Gamma < 0:
		return ecoerr.Errorf(ecoerr.KindInvalidParameter,
			"engine: decay coefficients alpha=%g beta=%g gamma=%g must be >= 0", p.Alpha, p.Beta, p.Gamma)
	case p.MaxDistance <= 0:
		return ecoerr.Errorf(ecoerr.KindInvalidParameter, "engine: max_distance %g must be > 0", p.MaxDistance)
	case p.FlowThreshold < 0:
		return ecoerr.Errorf(ecoerr.KindInvalidParameter, "engine: flow_threshold %g must be >= 0", p.FlowThreshold)
	case p.ResistanceFactor < 0:
		return ecoerr.Errorf(ecoerr.KindInvalidParameter, "engine: resistance_factor %g must be >= 0", p.ResistanceFactor)
	case p.CellWidth <= 0 || p.CellHeight <= 0:
		return ecoerr.Errorf(ecoerr.KindInvalidParameter, "engine: cell size %gx%g must be positive", p.CellWidth, p.CellHeight)
	case p.ValidationThreshold < 0 || p.ValidationThreshold > 1:
		return ecoerr.Errorf(ecoerr.KindInvalidParameter, "engine: validation_threshold %g must be in [0,1]", p.ValidationThreshold)
	case p.UncertaintyThreshold < 0 || p.UncertaintyThreshold > 1:
		return ecoerr.Errorf(ecoerr.KindInvalidParameter, "engine: uncertainty_threshold %g must be in [0,1]", p.UncertaintyThreshold)
	}
	if err := validCapacity("source_type", p.SourceType); err != nil {
		return err
	}
	if err := validCapacity("sink_type", p.SinkType); err != nil {
		return err
	}
	if err := validCapacity("use_type", p.UseType); err != nil {
		return err
	}
	if p.BenefitType != BenefitRival && p.BenefitType != BenefitNonRival {
		return ecoerr.Errorf(ecoerr.KindInvalidParameter, "engine: benefit_type %q must be rival or non-rival", p.BenefitType)
	}
	if _, err := decay.New(p.DistanceDecay, p.Alpha); err != nil {
		return err
	}
	return nil
}

// DecayFunc composes the configured decay curve (coefficient Alpha) with the
// Gamma resistance multiplier on the path cost.
func (p Parameters) DecayFunc() (decay.Func, error) {
	fn, err := decay.New(p.DistanceDecay, p.Alpha)
	if err != nil {
		return nil, err
	}
	gamma := p.Gamma
	return func(cost float64) float64 { return fn(gamma * cost) }, nil
}

func validCapacity(name string, v CapacityType) error {
	if v != CapacityFinite && v != CapacityInfinite {
		return ecoerr.Errorf(ecoerr.KindInvalidParameter, "engine: %s %q must be finite or infinite", name, v)
	}
	return nil
}
