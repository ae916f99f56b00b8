package neural

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestNewTopologyInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	tests := []struct {
		name   string
		hidden []LayerBlock
		widths []int
	}{
		{"default", DefaultHidden, []int{9, 9}},
		{"single", []LayerBlock{{Width: 4, Count: 1}}, []int{4}},
		{"mixed", []LayerBlock{{Width: 6, Count: 2}, {Width: 3, Count: 1}}, []int{6, 6, 3}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			nn, err := New(3, 2, tc.hidden, rng)
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			hidden := nn.HiddenLayers()
			if len(hidden) != len(tc.widths) {
				t.Fatalf("hidden layers = %v, want %v", hidden, tc.widths)
			}
			if len(nn.Weights) != len(hidden)+1 || len(nn.Biases) != len(hidden)+1 {
				t.Fatalf("weights %d, biases %d, want %d", len(nn.Weights), len(nn.Biases), len(hidden)+1)
			}

			// Every boundary chains to its neighbours.
			if nn.Weights[0].Rows != 3 {
				t.Errorf("first matrix rows = %d, want 3", nn.Weights[0].Rows)
			}
			if last := nn.Weights[len(nn.Weights)-1]; last.Cols != 2 {
				t.Errorf("last matrix cols = %d, want 2", last.Cols)
			}
			for i := 1; i < len(nn.Weights); i++ {
				if nn.Weights[i].Rows != nn.Weights[i-1].Cols {
					t.Errorf("matrix %d rows %d != matrix %d cols %d", i, nn.Weights[i].Rows, i-1, nn.Weights[i-1].Cols)
				}
			}

			for _, w := range nn.Weights {
				for _, v := range w.Data {
					if v < -1 || v > 1 {
						t.Fatalf("weight %f outside [-1, 1]", v)
					}
				}
			}
		})
	}
}

func TestNewInvalidTopology(t *testing.T) {
	tests := []struct {
		name    string
		in, out int
		hidden  []LayerBlock
	}{
		{"no inputs", 0, 2, DefaultHidden},
		{"one output", 3, 1, DefaultHidden},
		{"zero width", 3, 2, []LayerBlock{{Width: 0, Count: 1}}},
		{"zero count", 3, 2, []LayerBlock{{Width: 4, Count: 0}}},
		{"no hidden", 3, 2, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			nn, err := New(tc.in, tc.out, tc.hidden, rand.New(rand.NewSource(1)))
			if !errors.Is(err, ErrInvalidTopology) {
				t.Fatalf("err = %v, want ErrInvalidTopology", err)
			}
			if nn != nil {
				t.Error("expected nil network on error")
			}
		})
	}
}

func TestEvaluateOutputLength(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	nn, err := New(3, 2, DefaultHidden, rng)
	if err != nil {
		t.Fatal(err)
	}

	out, err := nn.Evaluate([]float32{0.5, -0.25, 1})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("output length = %d, want 2", len(out))
	}
	for _, v := range out {
		if v < -1 || v > 1 {
			t.Errorf("output %f outside tanh range", v)
		}
	}
}

func TestEvaluateDimensionError(t *testing.T) {
	nn, _ := New(3, 2, DefaultHidden, rand.New(rand.NewSource(42)))

	for _, input := range [][]float32{nil, {1, 2}, {1, 2, 3, 4}} {
		if _, err := nn.Evaluate(input); !errors.Is(err, ErrDimension) {
			t.Errorf("Evaluate(%v) err = %v, want ErrDimension", input, err)
		}
	}
}

func TestEvaluateMatchesReference(t *testing.T) {
	nn, _ := New(2, 2, []LayerBlock{{Width: 3, Count: 1}}, rand.New(rand.NewSource(7)))
	input := []float32{0.3, -0.8}

	got, err := nn.Evaluate(input)
	if err != nil {
		t.Fatal(err)
	}

	// Hand-rolled forward pass with a single bias scalar per boundary.
	layer := []float64{math.Tanh(0.3), math.Tanh(-0.8)}
	for b, w := range nn.Weights {
		next := make([]float64, w.Cols)
		for j := 0; j < w.Cols; j++ {
			sum := 0.0
			for i := 0; i < w.Rows; i++ {
				sum += layer[i] * float64(w.At(i, j))
			}
			next[j] = math.Tanh(sum + float64(nn.Biases[b]))
		}
		layer = next
	}

	for i := range got {
		if math.Abs(float64(got[i])-layer[i]) > 1e-5 {
			t.Errorf("output[%d] = %f, want %f", i, got[i], layer[i])
		}
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	nn, _ := New(3, 2, DefaultHidden, rand.New(rand.NewSource(42)))
	input := []float32{0.1, 0.2, 0.3}

	a, _ := nn.Evaluate(input)
	b, _ := nn.Evaluate(input)
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("Evaluate is not deterministic")
		}
	}
}

func TestEvaluateReinitializesStaleWeights(t *testing.T) {
	nn, err := FromParts(3, 2, []int{4}, nil, nil, 5)
	if err != nil {
		t.Fatalf("FromParts: %v", err)
	}

	if _, err := nn.Evaluate([]float32{1, 1, 1}); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(nn.Weights) != 2 || len(nn.Biases) != 2 {
		t.Fatalf("weights %d, biases %d after lazy init", len(nn.Weights), len(nn.Biases))
	}
	if nn.Weights[0].Rows != 3 || nn.Weights[0].Cols != 4 {
		t.Errorf("first matrix shape [%d, %d], want [3, 4]", nn.Weights[0].Rows, nn.Weights[0].Cols)
	}
}

func TestCloneShallow(t *testing.T) {
	nn, _ := New(3, 2, DefaultHidden, rand.New(rand.NewSource(42)))
	nn.Fitness = 12.5

	clone := nn.Clone(false)

	if clone.Fitness != 0 {
		t.Errorf("clone fitness = %f, want 0", clone.Fitness)
	}
	if clone.InputSize() != 3 || clone.OutputSize() != 2 {
		t.Errorf("clone sizes %d/%d", clone.InputSize(), clone.OutputSize())
	}
	if FormatTopology(clone.Structure()) != FormatTopology(nn.Structure()) {
		t.Errorf("clone topology %v, want %v", clone.Structure(), nn.Structure())
	}
	if clone.Weights[0].At(0, 0) != nn.Weights[0].At(0, 0) {
		t.Error("clone has different weights")
	}

	// Modifying clone shouldn't affect original
	original := nn.Weights[0].At(0, 0)
	clone.Weights[0].Set(0, 0, 999)
	clone.Biases[0] = 999
	if nn.Weights[0].At(0, 0) != original {
		t.Error("clone weights are not independent")
	}
	if nn.Biases[0] == 999 {
		t.Error("clone biases are not independent")
	}
}

func TestCloneDeep(t *testing.T) {
	nn, _ := New(3, 2, DefaultHidden, rand.New(rand.NewSource(42)))
	nn.Fitness = 3
	if _, err := nn.Evaluate([]float32{1, 0, -1}); err != nil {
		t.Fatal(err)
	}

	clone := nn.Clone(true)
	if clone.Fitness != 3 {
		t.Errorf("deep clone fitness = %f, want 3", clone.Fitness)
	}
	want := nn.Activations()
	got := clone.Activations()
	for i := range want.Output {
		if got.Output[i] != want.Output[i] {
			t.Errorf("output activation %d = %f, want %f", i, got.Output[i], want.Output[i])
		}
	}
	for l := range want.Hidden {
		for i := range want.Hidden[l] {
			if got.Hidden[l][i] != want.Hidden[l][i] {
				t.Fatalf("hidden activation [%d][%d] differs", l, i)
			}
		}
	}

	shallow := nn.Clone(false)
	for _, v := range shallow.Activations().Output {
		if v != 0 {
			t.Fatal("shallow clone should start with fresh activations")
		}
	}
}

func TestStructureRoundTrip(t *testing.T) {
	hidden := []LayerBlock{{Width: 5, Count: 2}, {Width: 3, Count: 1}, {Width: 5, Count: 1}}
	nn, _ := New(3, 2, hidden, rand.New(rand.NewSource(1)))

	got := nn.Structure()
	if len(got) != len(hidden) {
		t.Fatalf("Structure() = %v, want %v", got, hidden)
	}
	for i := range hidden {
		if got[i] != hidden[i] {
			t.Errorf("block %d = %v, want %v", i, got[i], hidden[i])
		}
	}
}

func BenchmarkEvaluate(b *testing.B) {
	nn, _ := New(3, 2, DefaultHidden, rand.New(rand.NewSource(42)))
	inputs := []float32{0.5, 0.5, 0.5}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		nn.Evaluate(inputs)
	}
}
