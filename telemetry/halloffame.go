package telemetry

import (
	"sort"

	"github.com/M1ghtyPirate/MicroMouse/neural"
	"github.com/M1ghtyPirate/MicroMouse/storage"
)

// HallEntry is a genome that scored well in a training episode.
type HallEntry struct {
	Network    *neural.Network
	Fitness    float32
	Generation int
	Genome     int
}

// HallOfFame keeps the best genomes seen across all generations, sorted by
// episode fitness. Entries keep the episode score even after the genetic
// manager zeroes the elite fitness.
type HallOfFame struct {
	entries []HallEntry
	maxSize int
}

func NewHallOfFame(maxSize int) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{maxSize: maxSize}
}

// Consider offers a genome after its episode ended. Genomes with no positive
// fitness are ignored. It reports whether the genome was added.
func (hof *HallOfFame) Consider(n *neural.Network, generation, genome int) bool {
	if hof == nil || n == nil || n.Fitness <= 0 {
		return false
	}

	idx := sort.Search(len(hof.entries), func(i int) bool {
		return hof.entries[i].Fitness < n.Fitness
	})
	if idx >= hof.maxSize {
		return false
	}

	entry := HallEntry{Network: n.Clone(true), Fitness: n.Fitness, Generation: generation, Genome: genome}
	hof.entries = append(hof.entries, HallEntry{})
	copy(hof.entries[idx+1:], hof.entries[idx:])
	hof.entries[idx] = entry
	if len(hof.entries) > hof.maxSize {
		hof.entries = hof.entries[:hof.maxSize]
	}
	return true
}

// Size returns the number of entries.
func (hof *HallOfFame) Size() int {
	if hof == nil {
		return 0
	}
	return len(hof.entries)
}

// TopFitness returns the best recorded fitness, or 0 when empty.
func (hof *HallOfFame) TopFitness() float32 {
	if hof.Size() == 0 {
		return 0
	}
	return hof.entries[0].Fitness
}

// Best returns a copy of the best genome, or nil when empty.
func (hof *HallOfFame) Best() *neural.Network {
	if hof.Size() == 0 {
		return nil
	}
	return hof.entries[0].Network.Clone(true)
}

// Snapshot packs the entries, best first, so they can be saved and loaded
// like a population.
func (hof *HallOfFame) Snapshot() storage.Snapshot {
	genomes := make([]*neural.Network, 0, hof.Size())
	generation := 0
	for i := 0; i < hof.Size(); i++ {
		e := hof.entries[i]
		genomes = append(genomes, e.Network)
		generation = max(generation, e.Generation)
	}
	return storage.NewSnapshot(genomes, generation)
}
