package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/M1ghtyPirate/MicroMouse/config"
	"github.com/M1ghtyPirate/MicroMouse/storage"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v", om, err)
	}
	// Every method is a no-op on nil.
	if err := om.WriteGeneration(GenerationStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteRun(RunRecord{}); err != nil {
		t.Error(err)
	}
	if err := om.WritePlot(); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	for gen := 1; gen <= 3; gen++ {
		stats := ComputeGenerationStats(gen, []float32{float32(gen * 10), float32(gen)}, 0.05)
		if err := om.WriteGeneration(stats); err != nil {
			t.Fatalf("WriteGeneration: %v", err)
		}
	}
	if err := om.WriteRun(RunRecord{Run: 1, ToX: 7, ToY: 7, Seconds: 12.5, TargetsReached: 30}); err != nil {
		t.Fatalf("WriteRun: %v", err)
	}
	if err := om.WritePerf(NewPerfCollector(1).Stats(), 100); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.WritePlot(); err != nil {
		t.Fatalf("WritePlot: %v", err)
	}

	hof := NewHallOfFame(2)
	hof.Consider(scoredNetwork(t, nil, 3), 1, 0)
	if err := om.WriteHallOfFame(hof); err != nil {
		t.Fatalf("WriteHallOfFame: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	gens, err := os.ReadFile(filepath.Join(dir, "generations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(gens)), "\n")
	if len(lines) != 4 {
		t.Fatalf("generations.csv has %d lines, want header + 3:\n%s", len(lines), gens)
	}
	if !strings.HasPrefix(lines[0], "generation,elite,best,mean") {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Count(string(gens), "generation,") != 1 {
		t.Error("header written more than once")
	}

	runs, err := os.ReadFile(filepath.Join(dir, "runs.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(runs), "1,0,0,7,7,12.5,30") {
		t.Errorf("runs.csv = %s", runs)
	}

	for _, name := range []string{"config.yaml", "fitness.png", "perf.csv"} {
		if info, err := os.Stat(filepath.Join(dir, name)); err != nil || info.Size() == 0 {
			t.Errorf("%s missing or empty: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "hall_of_fame.nnet"))
	if err != nil {
		t.Fatal(err)
	}
	snap, err := storage.DecodeSnapshot(data)
	if err != nil || len(snap.Genomes) != 1 || snap.Genomes[0].Fitness != 3 {
		t.Errorf("hall of fame = %+v, %v", snap, err)
	}
}
