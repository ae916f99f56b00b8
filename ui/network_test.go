package ui

import (
	"math"
	"testing"

	"github.com/M1ghtyPirate/MicroMouse/neural"
)

func TestOutgoingStrength(t *testing.T) {
	w := neural.Matrix{Rows: 3, Cols: 2, Data: []float32{
		0, 0,
		1, -1,
		-4, 2,
	}}
	got := outgoingStrength(w)
	want := []float64{0.5, 1 / (1 + math.Exp(-1)), 1 / (1 + math.Exp(-3))}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i])-want[i]) > 1e-6 {
			t.Errorf("strength[%d] = %f, want %f", i, got[i], want[i])
		}
	}

	if got := outgoingStrength(neural.Matrix{Rows: 2}); got != nil {
		t.Errorf("empty matrix strength = %v, want nil", got)
	}
}
