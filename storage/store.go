// Package storage persists trained populations so that training can resume
// and a finished network can be replayed.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/M1ghtyPirate/MicroMouse/neural"
)

// Snapshot is a saved population.
type Snapshot struct {
	ID         string
	Generation int
	CreatedAt  time.Time
	Genomes    []*neural.Network
}

// NewSnapshot deep-copies population into a snapshot with a fresh ID.
func NewSnapshot(population []*neural.Network, generation int) Snapshot {
	genomes := make([]*neural.Network, len(population))
	for i, n := range population {
		genomes[i] = n.Clone(true)
	}
	return Snapshot{
		ID:         uuid.NewString(),
		Generation: generation,
		CreatedAt:  time.Now(),
		Genomes:    genomes,
	}
}

// AverageFitness returns the mean fitness of the genomes, or 0 when empty.
func (s Snapshot) AverageFitness() float32 {
	if len(s.Genomes) == 0 {
		return 0
	}
	var sum float32
	for _, n := range s.Genomes {
		sum += n.Fitness
	}
	return sum / float32(len(s.Genomes))
}

// Summary describes a stored snapshot without its weights.
type Summary struct {
	// Key is what Load accepts: a file name for the file store, the
	// snapshot ID otherwise.
	Key            string
	Generation     int
	CreatedAt      time.Time
	Size           int
	AverageFitness float32
}

// Store saves and restores population snapshots.
type Store interface {
	Init(ctx context.Context) error
	Save(ctx context.Context, s Snapshot) (key string, err error)
	Load(ctx context.Context, key string) (Snapshot, bool, error)
	List(ctx context.Context) ([]Summary, error)
	Close() error
}
