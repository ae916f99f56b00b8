package storage

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/M1ghtyPirate/MicroMouse/neural"
)

func testPopulation(t *testing.T, size int) []*neural.Network {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	pop := make([]*neural.Network, size)
	for i := range pop {
		n, err := neural.New(3, 2, []neural.LayerBlock{{Width: 4, Count: 1}, {Width: 3, Count: 2}}, rng)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := n.Evaluate([]float32{0.1 * float32(i), -0.5, 1}); err != nil {
			t.Fatal(err)
		}
		n.Fitness = float32(i) + 0.25
		pop[i] = n
	}
	return pop
}

func sameNetwork(t *testing.T, want, got *neural.Network) {
	t.Helper()
	if got.InputSize() != want.InputSize() || got.OutputSize() != want.OutputSize() {
		t.Fatalf("io = %d/%d, want %d/%d", got.InputSize(), got.OutputSize(), want.InputSize(), want.OutputSize())
	}
	if neural.FormatTopology(got.Structure()) != neural.FormatTopology(want.Structure()) {
		t.Fatalf("topology = %s, want %s", neural.FormatTopology(got.Structure()), neural.FormatTopology(want.Structure()))
	}
	if got.Fitness != want.Fitness {
		t.Errorf("fitness = %v, want %v", got.Fitness, want.Fitness)
	}
	for i := range want.Weights {
		for j, v := range want.Weights[i].Data {
			if got.Weights[i].Data[j] != v {
				t.Fatalf("weight %d[%d] = %v, want %v", i, j, got.Weights[i].Data[j], v)
			}
		}
	}
	for i, b := range want.Biases {
		if got.Biases[i] != b {
			t.Fatalf("bias %d = %v, want %v", i, got.Biases[i], b)
		}
	}
	wa, ga := want.Activations(), got.Activations()
	for i, v := range wa.Output {
		if ga.Output[i] != v {
			t.Fatalf("output activation %d = %v, want %v", i, ga.Output[i], v)
		}
	}
	for i := range wa.Hidden {
		for j, v := range wa.Hidden[i] {
			if ga.Hidden[i][j] != v {
				t.Fatalf("hidden activation %d[%d] = %v, want %v", i, j, ga.Hidden[i][j], v)
			}
		}
	}
}

func TestCodecRoundTripIsLossless(t *testing.T) {
	pop := testPopulation(t, 3)
	snap := NewSnapshot(pop, 7)

	data, err := EncodeSnapshot(snap)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if back.ID != snap.ID || back.Generation != 7 || !back.CreatedAt.Equal(snap.CreatedAt) {
		t.Errorf("header = %s/%d/%v, want %s/7/%v", back.ID, back.Generation, back.CreatedAt, snap.ID, snap.CreatedAt)
	}
	if len(back.Genomes) != len(pop) {
		t.Fatalf("genomes = %d, want %d", len(back.Genomes), len(pop))
	}
	for i := range pop {
		sameNetwork(t, pop[i], back.Genomes[i])
	}
}

func TestNewSnapshotCopiesGenomes(t *testing.T) {
	pop := testPopulation(t, 2)
	snap := NewSnapshot(pop, 1)
	pop[0].Weights[0].Data[0] = 99
	pop[0].Fitness = -1
	if snap.Genomes[0].Weights[0].Data[0] == 99 || snap.Genomes[0].Fitness == -1 {
		t.Error("snapshot shares storage with the live population")
	}
	if got, want := snap.AverageFitness(), float32(0.75); got != want {
		t.Errorf("average fitness = %v, want %v", got, want)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	good, err := EncodeSnapshot(NewSnapshot(testPopulation(t, 1), 1))
	if err != nil {
		t.Fatal(err)
	}
	shape := regexp.MustCompile(`"rows": 3`).ReplaceAll(good, []byte(`"rows": 5`))

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"garbage", []byte("not json"), ErrMalformed},
		{"version", []byte(`{"codec_version": 99}`), ErrVersionMismatch},
		{"weight shape", shape, ErrMalformed},
		{"missing layers", []byte(`{"codec_version": 1, "genomes": [{"inputs": 3, "outputs": 2, "hidden": [4], "weights": [], "biases": []}]}`), ErrMalformed},
		{"no hidden layers", []byte(`{"codec_version": 1, "genomes": [{"inputs": 1, "outputs": 2, "hidden": [], "weights": [{"rows": 1, "cols": 2, "data": [0, 0]}], "biases": [0]}]}`), ErrMalformed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeSnapshot(tc.data); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	backends := []struct {
		kind string
		path func(dir string) string
	}{
		{"file", func(dir string) string { return filepath.Join(dir, "populations") }},
		{"sqlite", func(dir string) string { return filepath.Join(dir, "micromouse.db") }},
		{"memory", func(string) string { return "" }},
	}

	for _, b := range backends {
		t.Run(b.kind, func(t *testing.T) {
			store, err := NewStore(b.kind, b.path(t.TempDir()))
			if err != nil {
				t.Fatalf("new store: %v", err)
			}
			if err := store.Init(ctx); err != nil {
				t.Fatalf("init: %v", err)
			}
			t.Cleanup(func() { _ = store.Close() })

			if _, ok, err := store.Load(ctx, "missing"); ok || err != nil {
				t.Fatalf("load missing = %v, %v", ok, err)
			}

			pop := testPopulation(t, 4)
			first := NewSnapshot(pop, 3)
			first.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			second := NewSnapshot(pop[:2], 9)
			second.CreatedAt = first.CreatedAt.Add(time.Hour)

			key1, err := store.Save(ctx, first)
			if err != nil {
				t.Fatalf("save: %v", err)
			}
			key2, err := store.Save(ctx, second)
			if err != nil {
				t.Fatalf("save: %v", err)
			}

			loaded, ok, err := store.Load(ctx, key1)
			if err != nil || !ok {
				t.Fatalf("load %s = %v, %v", key1, ok, err)
			}
			if loaded.Generation != 3 || len(loaded.Genomes) != 4 {
				t.Fatalf("loaded generation %d with %d genomes", loaded.Generation, len(loaded.Genomes))
			}
			for i := range pop {
				sameNetwork(t, pop[i], loaded.Genomes[i])
			}

			list, err := store.List(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list) != 2 || list[0].Key != key1 || list[1].Key != key2 {
				t.Fatalf("list = %+v, want keys %s, %s", list, key1, key2)
			}
			if list[1].Generation != 9 || list[1].Size != 2 || list[1].AverageFitness != 0.75 {
				t.Errorf("summary = %+v", list[1])
			}
		})
	}
}

func TestFileStoreNaming(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileStore(dir)
	if err := store.Init(ctx); err != nil {
		t.Fatal(err)
	}

	snap := NewSnapshot(testPopulation(t, 3), 2)
	snap.CreatedAt = time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local)

	first, err := store.Save(ctx, snap)
	if err != nil {
		t.Fatal(err)
	}
	if first != "population_2026-03-04-05-06-07_1.nnet" {
		t.Errorf("file name = %s", first)
	}
	second, err := store.Save(ctx, snap)
	if err != nil {
		t.Fatal(err)
	}
	if second != "population_2026-03-04-05-06-07_1-1.nnet" {
		t.Errorf("second file name = %s", second)
	}

	// A full path loads as well as a bare name.
	if _, ok, err := store.Load(ctx, filepath.Join(dir, first)); !ok || err != nil {
		t.Errorf("load by path = %v, %v", ok, err)
	}
}

func TestFileStoreMalformedFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileStore(dir)
	if err := store.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.nnet"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, ok, err := store.Load(ctx, "broken.nnet")
	if ok || !errors.Is(err, ErrMalformed) {
		t.Errorf("load = %v, %v; want false, ErrMalformed", ok, err)
	}

	if _, err := store.Save(ctx, NewSnapshot(testPopulation(t, 1), 1)); err != nil {
		t.Fatal(err)
	}
	list, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("list = %+v, want only the valid file", list)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "x.db"))
	if _, err := store.Save(context.Background(), Snapshot{}); err == nil {
		t.Error("save before init should fail")
	}
	if err := NewSQLiteStore("").Init(context.Background()); err == nil {
		t.Error("empty path should fail")
	}
}

func TestNewStoreUnsupported(t *testing.T) {
	if _, err := NewStore("redis", ""); err == nil {
		t.Fatal("expected unsupported store error")
	}
}
