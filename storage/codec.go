package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/M1ghtyPirate/MicroMouse/neural"
)

const CurrentCodecVersion = 1

var (
	ErrVersionMismatch = errors.New("record version mismatch")
	ErrMalformed       = errors.New("malformed population record")
)

type matrixRecord struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float32 `json:"data"`
}

type activationRecord struct {
	Input  []float32   `json:"input"`
	Hidden [][]float32 `json:"hidden"`
	Output []float32   `json:"output"`
}

type genomeRecord struct {
	Inputs      int               `json:"inputs"`
	Outputs     int               `json:"outputs"`
	Hidden      []int             `json:"hidden"`
	Topology    string            `json:"topology"`
	Weights     []matrixRecord    `json:"weights"`
	Biases      []float32         `json:"biases"`
	Fitness     float32           `json:"fitness"`
	Activations *activationRecord `json:"activations,omitempty"`
}

type snapshotRecord struct {
	CodecVersion int            `json:"codec_version"`
	ID           string         `json:"id"`
	Generation   int            `json:"generation"`
	CreatedAt    time.Time      `json:"created_at"`
	Genomes      []genomeRecord `json:"genomes"`
}

// EncodeSnapshot writes s as indented JSON. Weights, biases, fitness and
// cached activations survive a round trip bit for bit.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	rec := snapshotRecord{
		CodecVersion: CurrentCodecVersion,
		ID:           s.ID,
		Generation:   s.Generation,
		CreatedAt:    s.CreatedAt,
		Genomes:      make([]genomeRecord, 0, len(s.Genomes)),
	}
	for i, n := range s.Genomes {
		if n == nil {
			return nil, fmt.Errorf("genome %d is nil", i)
		}
		rec.Genomes = append(rec.Genomes, encodeGenome(n))
	}
	return json.MarshalIndent(rec, "", "  ")
}

func encodeGenome(n *neural.Network) genomeRecord {
	g := genomeRecord{
		Inputs:   n.InputSize(),
		Outputs:  n.OutputSize(),
		Hidden:   n.HiddenLayers(),
		Topology: neural.FormatTopology(n.Structure()),
		Weights:  make([]matrixRecord, len(n.Weights)),
		Biases:   append([]float32(nil), n.Biases...),
		Fitness:  n.Fitness,
	}
	for i, w := range n.Weights {
		g.Weights[i] = matrixRecord{Rows: w.Rows, Cols: w.Cols, Data: append([]float32(nil), w.Data...)}
	}
	act := n.Activations()
	g.Activations = &activationRecord{Input: act.Input, Hidden: act.Hidden, Output: act.Output}
	return g
}

// DecodeSnapshot parses data written by EncodeSnapshot. Records whose weight
// shapes do not match their declared topology are rejected with ErrMalformed.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var rec snapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if rec.CodecVersion != CurrentCodecVersion {
		return Snapshot{}, fmt.Errorf("%w: codec %d, want %d", ErrVersionMismatch, rec.CodecVersion, CurrentCodecVersion)
	}

	s := Snapshot{
		ID:         rec.ID,
		Generation: rec.Generation,
		CreatedAt:  rec.CreatedAt,
		Genomes:    make([]*neural.Network, 0, len(rec.Genomes)),
	}
	for i, g := range rec.Genomes {
		n, err := decodeGenome(g)
		if err != nil {
			return Snapshot{}, fmt.Errorf("genome %d: %w", i, err)
		}
		s.Genomes = append(s.Genomes, n)
	}
	return s, nil
}

func decodeGenome(g genomeRecord) (*neural.Network, error) {
	widths := append([]int{g.Inputs}, g.Hidden...)
	widths = append(widths, g.Outputs)
	if len(g.Weights) != len(widths)-1 || len(g.Biases) != len(widths)-1 {
		return nil, fmt.Errorf("%w: %d weight matrices and %d biases for %d layers",
			ErrMalformed, len(g.Weights), len(g.Biases), len(widths))
	}

	weights := make([]neural.Matrix, len(g.Weights))
	for i, w := range g.Weights {
		if w.Rows != widths[i] || w.Cols != widths[i+1] || len(w.Data) != w.Rows*w.Cols {
			return nil, fmt.Errorf("%w: weights %d are %dx%d (%d values), want %dx%d",
				ErrMalformed, i, w.Rows, w.Cols, len(w.Data), widths[i], widths[i+1])
		}
		weights[i] = neural.Matrix{Rows: w.Rows, Cols: w.Cols, Data: w.Data}
	}

	n, err := neural.FromParts(g.Inputs, g.Outputs, g.Hidden, weights, g.Biases, g.Fitness)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if g.Activations != nil {
		n.SetActivations(neural.Activations{
			Input:  g.Activations.Input,
			Hidden: g.Activations.Hidden,
			Output: g.Activations.Output,
		})
	}
	return n, nil
}
