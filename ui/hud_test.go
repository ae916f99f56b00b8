package ui

import (
	"testing"

	"github.com/M1ghtyPirate/MicroMouse/episode"
	"github.com/M1ghtyPirate/MicroMouse/maze"
	"github.com/M1ghtyPirate/MicroMouse/neural"
)

func TestGenerationText(t *testing.T) {
	tests := []struct {
		gen, genome, pop int
		want             string
	}{
		{0, 0, 0, ""},
		{1, 1, 85, "1 - 1 / 85"},
		{12, 40, 85, "12 - 40 / 85"},
	}
	for _, tc := range tests {
		if got := GenerationText(tc.gen, tc.genome, tc.pop); got != tc.want {
			t.Errorf("GenerationText(%d, %d, %d) = %q, want %q", tc.gen, tc.genome, tc.pop, got, tc.want)
		}
	}
}

func TestFitnessLines(t *testing.T) {
	got := FitnessLines([]float32{12.4, 7.6, -1})
	want := []string{"12", "8", "-1"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestControlPanelModeDefaults(t *testing.T) {
	c := NewControlPanel(0, 0, 200, ControlDefaults{
		Mode:           episode.ModeAlgorithm,
		Center:         maze.Cell{X: 7, Y: 7},
		TrainingCenter: maze.Cell{X: 1, Y: 0},
		Mutation:       0.055,
		Hidden:         neural.DefaultHidden,
	}, NewOverlayRegistry())

	v := c.Values()
	if v.Mode != episode.ModeAlgorithm || v.Target != (maze.Cell{X: 7, Y: 7}) {
		t.Errorf("initial values = %+v", v)
	}
	if v.Mutation < 0.0549 || v.Mutation > 0.0551 {
		t.Errorf("mutation = %v, want 0.055", v.Mutation)
	}
	if !v.ShowMarkers {
		t.Error("path markers should start enabled")
	}
	if neural.FormatTopology(v.Hidden) != "9x2" {
		t.Errorf("hidden = %v", v.Hidden)
	}

	c.SetMode(episode.ModeNeuralTraining)
	if v := c.Values(); v.Mode != episode.ModeNeuralTraining || v.Target != (maze.Cell{X: 1, Y: 0}) {
		t.Errorf("training values = %+v", v)
	}

	c.hidden = "nine"
	if c.Values().Hidden != nil {
		t.Error("unparseable hidden text should yield nil")
	}
	c.SetHidden([]neural.LayerBlock{{Width: 5, Count: 1}})
	if neural.FormatTopology(c.Values().Hidden) != "5" {
		t.Error("SetHidden should replace the text")
	}
}

func TestOverlayExclusive(t *testing.T) {
	reg := NewOverlayRegistry()
	if !reg.IsEnabled(OverlayPathMarkers) || reg.IsEnabled(OverlayDistanceField) {
		t.Fatal("unexpected initial overlay state")
	}

	if !reg.Toggle(OverlayDistanceField) {
		t.Fatal("toggle should enable the distance field")
	}
	if reg.IsEnabled(OverlayPathMarkers) {
		t.Error("enabling distances should hide path markers")
	}

	id, state, ok := reg.HandleKeyPress(0x4D) // 'M'
	if !ok || id != OverlayPathMarkers || !state {
		t.Errorf("HandleKeyPress(M) = %v, %v, %v", id, state, ok)
	}
	if reg.IsEnabled(OverlayDistanceField) {
		t.Error("enabling path markers should hide distances")
	}

	if _, _, ok := reg.HandleKeyPress(0x51); ok { // 'Q'
		t.Error("unbound key should not toggle")
	}
	if reg.Toggle("missing") {
		t.Error("unknown overlay should stay off")
	}
}
