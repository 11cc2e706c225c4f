package engine

import (
	"sort"

	"github.com/sells-group/ecoflow/internal/ecoerr"
	"github.com/sells-group/ecoflow/internal/grid"
	"github.com/sells-group/ecoflow/internal/resistance"
	"github.com/sells-group/ecoflow/internal/router"
)

// ModelKey selects a domain flow model.
type ModelKey string

const (
	ModelSurfaceWater ModelKey = "surface-water"
	ModelFlood        ModelKey = "flood"
	ModelSediment     ModelKey = "sediment"
	ModelCarbon       ModelKey = "carbon"
	ModelLineOfSight  ModelKey = "line-of-sight"
	ModelProximity    ModelKey = "proximity"
	ModelCoastal      ModelKey = "coastal"
	ModelFisheries    ModelKey = "fisheries"
)

// TransformContext carries everything a domain transform may read. All
// fields are immutable from the transform's point of view.
type TransformContext struct {
	Supply     *grid.Grid
	Demand     *grid.Grid
	Resistance *resistance.Field
	// Routing is the strategy output: paths for pairwise strategies,
	// direction/accumulation for terrain, cost surface for cost-distance.
	Routing *router.Result
	// FlowField is the deposited path field; zero-filled for the terrain
	// strategy, which produces no discrete paths.
	FlowField *grid.Grid
	// Coefficients are the scenario-injected physical constants.
	Coefficients map[string]float64
}

func (tc TransformContext) coeff(name string, def float64) float64 {
	if v, ok := tc.Coefficients[name]; ok {
		return v
	}
	return def
}

// TransformFunc converts routing output into per-cell theoretical flow.
type TransformFunc func(tc TransformContext) *grid.Grid

type modelSpec struct {
	key         ModelKey
	router      router.Kind
	description string
	transform   TransformFunc
}

// models is the domain dispatch table. Terrain-routed models consume the
// accumulation surface; pairwise models consume the deposited flow field.
var models = map[ModelKey]modelSpec{
	ModelSurfaceWater: {
		key:         ModelSurfaceWater,
		router:      router.KindTerrain,
		description: "Surface water provision: discharge from flow accumulation over precipitation supply.",
		transform: func(tc TransformContext) *grid.Grid {
			return maskedProduct(tc.Supply, tc.Routing.Accumulation, nil, tc.coeff("runoff_coefficient", 1))
		},
	},
	ModelFlood: {
		key:         ModelFlood,
		router:      router.KindTerrain,
		description: "Flood regulation: accumulated runoff attenuated by landscape absorption.",
		transform: func(tc TransformContext) *grid.Grid {
			return maskedProduct(tc.Supply, tc.Routing.Accumulation, complement(tc.Resistance.Normalized), tc.coeff("runoff_coefficient", 1))
		},
	},
	ModelSediment: {
		key:         ModelSediment,
		router:      router.KindTerrain,
		description: "Sediment transport: erosion potential from accumulation and soil erodibility.",
		transform: func(tc TransformContext) *grid.Grid {
			return maskedProduct(tc.Supply, tc.Routing.Accumulation, nil, tc.coeff("erodibility", 1))
		},
	},
	ModelCarbon: {
		key:         ModelCarbon,
		router:      router.KindTerrain,
		description: "Carbon sequestration: vertical flux from vegetation supply, reduced by disturbance.",
		transform: func(tc TransformContext) *grid.Grid {
			return maskedProduct(tc.Supply, nil, complement(tc.Resistance.Normalized), tc.coeff("sequestration_rate", 1))
		},
	},
	ModelLineOfSight: {
		key:         ModelLineOfSight,
		router:      router.KindDirect,
		description: "Viewshed quality: sight lines from scenic sources to viewpoints.",
		transform: func(tc TransformContext) *grid.Grid {
			return scaled(tc.FlowField, tc.coeff("visibility_factor", 1))
		},
	},
	ModelFisheries: {
		key:         ModelFisheries,
		router:      router.KindDirect,
		description: "Fish yield: nursery habitat supply reaching fishing grounds.",
		transform: func(tc TransformContext) *grid.Grid {
			return scaled(tc.FlowField, tc.coeff("yield_factor", 1))
		},
	},
	ModelProximity: {
		key:         ModelProximity,
		router:      router.KindCostDistance,
		description: "Proximity/access: least-cost accessibility from open space to residents.",
		transform: func(tc TransformContext) *grid.Grid {
			return scaled(tc.FlowField, tc.coeff("access_factor", 1))
		},
	},
	ModelCoastal: {
		key:         ModelCoastal,
		router:      router.KindCostDistance,
		description: "Coastal protection: wave attenuation routed through protective habitat.",
		transform: func(tc TransformContext) *grid.Grid {
			return scaled(tc.FlowField, tc.coeff("attenuation_factor", 1))
		},
	},
}

// Models lists the supported model keys, sorted.
func Models() []ModelKey {
	keys := make([]ModelKey, 0, len(models))
	for k := range models {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Describe returns the human description of a model key.
func Describe(key ModelKey) (string, error) {
	spec, err := lookup(key)
	if err != nil {
		return "", err
	}
	return spec.description, nil
}

// RouterKind returns the routing strategy a model uses.
func RouterKind(key ModelKey) (router.Kind, error) {
	spec, err := lookup(key)
	if err != nil {
		return "", err
	}
	return spec.router, nil
}

func lookup(key ModelKey) (modelSpec, error) {
	spec, ok := models[key]
	if !ok {
		return modelSpec{}, ecoerr.Errorf(ecoerr.KindUnsupportedModel, "engine: unsupported flow model %q", key)
	}
	return spec, nil
}

// maskedProduct multiplies supply by the optional factor grids and the
// scalar coefficient, leaving non-source cells at zero (the source mask is
// implicit: supply is zero off-source).
func maskedProduct(supply, a, b *grid.Grid, coeff float64) *grid.Grid {
	out := supply.Clone()
	for r := 0; r < out.Rows(); r++ {
		for c := 0; c < out.Cols(); c++ {
			v := out.At(r, c) * coeff
			if a != nil {
				v *= a.At(r, c)
			}
			if b != nil {
				v *= b.At(r, c)
			}
			out.Set(r, c, v)
		}
	}
	return out
}

// complement returns 1 - g, clamped to >= 0.
func complement(g *grid.Grid) *grid.Grid {
	out := g.Clone()
	out.Scale(-1)
	for r := 0; r < out.Rows(); r++ {
		for c := 0; c < out.Cols(); c++ {
			out.AddAt(r, c, 1)
		}
	}
	out.ClampMin(0)
	return out
}

func scaled(g *grid.Grid, coeff float64) *grid.Grid {
	out := g.Clone()
	out.Scale(coeff)
	return out
}
