// Package main provides CMA-ES optimization of the genetic training
// parameters.
package main

import (
	"math"

	"github.com/M1ghtyPirate/MicroMouse/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters. Reward
// weights are left out: they define the fitness being compared.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "mutation_chance", Path: "genetic.mutation_chance", Min: 0.005, Max: 0.3, Default: 0.055},
			// Fractions of the population size
			{Name: "best_fraction", Path: "genetic.best_agents", Min: 0.05, Max: 0.6, Default: 20.0 / 85.0},
			{Name: "children_fraction", Path: "genetic.children", Min: 0, Max: 0.6, Default: 20.0 / 85.0},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config. Agent counts are
// rounded and kept inside the population.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	pop := cfg.Genetic.PopulationSize

	cfg.Genetic.MutationChance = clamped[0]
	best := int(math.Round(clamped[1] * float64(pop)))
	cfg.Genetic.BestAgents = min(max(best, 1), pop)
	children := int(math.Round(clamped[2] * float64(pop)))
	cfg.Genetic.Children = min(max(children, 0), pop-cfg.Genetic.BestAgents)
}

// ExtractFromConfig extracts current parameter values from a Config.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	pop := float64(cfg.Genetic.PopulationSize)
	return []float64{
		cfg.Genetic.MutationChance,
		float64(cfg.Genetic.BestAgents) / pop,
		float64(cfg.Genetic.Children) / pop,
	}
}
