package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeGenerationStats(t *testing.T) {
	// Elite lists arrive best first.
	s := ComputeGenerationStats(4, []float32{9, 7, 5, 3}, 0.055)

	if s.Generation != 4 || s.Elite != 4 || s.MutationChance != 0.055 {
		t.Errorf("header = %+v", s)
	}
	if s.Best != 9 {
		t.Errorf("best = %v, want 9", s.Best)
	}
	if math.Abs(s.Mean-6) > 1e-9 {
		t.Errorf("mean = %v, want 6", s.Mean)
	}
	// Population std dev of {3,5,7,9} is sqrt(5).
	if math.Abs(s.StdDev-math.Sqrt(5)) > 1e-9 {
		t.Errorf("std = %v, want %v", s.StdDev, math.Sqrt(5))
	}
	if math.Abs(s.P50-6) > 1e-9 {
		t.Errorf("p50 = %v, want 6", s.P50)
	}
}

func TestComputeGenerationStatsEmpty(t *testing.T) {
	s := ComputeGenerationStats(1, nil, 0.1)
	if s.Elite != 0 || s.Best != 0 || s.Mean != 0 || s.StdDev != 0 {
		t.Errorf("empty stats = %+v", s)
	}
}
