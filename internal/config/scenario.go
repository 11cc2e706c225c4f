package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Scenario is the coefficient table for the domain flow models: a global
// defaults block plus per-model overrides.
type Scenario struct {
	Defaults map[string]float64     `yaml:"defaults"`
	Models   map[string]ModelCoeffs `yaml:"models"`
}

// ModelCoeffs holds one model's physical constants.
type ModelCoeffs struct {
	Coefficients map[string]float64 `yaml:"coefficients"`
}

// LoadScenario reads a scenario coefficient file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scenario: read %s", path)
	}

	// The YAML has a top-level "scenario" key
	var wrapper struct {
		Scenario Scenario `yaml:"scenario"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "scenario: parse")
	}
	return &wrapper.Scenario, nil
}

// CoefficientsFor merges the defaults block with a model's overrides. Model
// values win; a nil receiver yields an empty table, so callers never branch.
func (s *Scenario) CoefficientsFor(model string) map[string]float64 {
	merged := map[string]float64{}
	if s == nil {
		return merged
	}
	for k, v := range s.Defaults {
		merged[k] = v
	}
	if mc, ok := s.Models[model]; ok {
		for k, v := range mc.Coefficients {
			merged[k] = v
		}
	}
	return merged
}
