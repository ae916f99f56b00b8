package main

import (
	"math"
	"testing"

	"github.com/M1ghtyPirate/MicroMouse/config"
)

func TestParamVectorRoundTrip(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()

	raw := pv.ExtractFromConfig(cfg)
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(raw[i]-back[i]) > 1e-9 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}

	pv.ApplyToConfig(cfg, raw)
	if cfg.Genetic.BestAgents != 20 || cfg.Genetic.Children != 20 {
		t.Errorf("best %d children %d, want 20 and 20", cfg.Genetic.BestAgents, cfg.Genetic.Children)
	}
}

func TestApplyToConfigKeepsCountsInPopulation(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()

	pv.ApplyToConfig(cfg, []float64{5, 10, 10})
	pop := cfg.Genetic.PopulationSize
	if cfg.Genetic.MutationChance != 0.3 {
		t.Errorf("mutation chance = %v, want clamped to 0.3", cfg.Genetic.MutationChance)
	}
	if cfg.Genetic.BestAgents < 1 || cfg.Genetic.BestAgents+cfg.Genetic.Children > pop {
		t.Errorf("best %d + children %d exceed population %d", cfg.Genetic.BestAgents, cfg.Genetic.Children, pop)
	}
	if err := cfg.Finalize(); err != nil {
		t.Errorf("applied config invalid: %v", err)
	}
}

func TestComputeQuality(t *testing.T) {
	tests := []struct {
		name string
		r    runResult
		want float64
	}{
		{"empty", runResult{best: 10}, 0},
		{"no score", runResult{best: 0, top: []float32{1}}, 0},
		{"elite at best", runResult{best: 10, top: []float32{10, 10}}, 1},
		{"half", runResult{best: 10, top: []float32{10, 0}}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeQuality(&tt.r); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("quality = %v, want %v", got, tt.want)
			}
		})
	}
}
