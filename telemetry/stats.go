package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// GenerationStats summarizes the elite fitness list of one generation.
type GenerationStats struct {
	Generation int `csv:"generation"`
	Elite      int `csv:"elite"`

	Best   float64 `csv:"best"`
	Mean   float64 `csv:"mean"`
	StdDev float64 `csv:"std"`
	P10    float64 `csv:"p10"`
	P50    float64 `csv:"p50"`
	P90    float64 `csv:"p90"`

	MutationChance float64 `csv:"mutation_chance"`
}

// ComputeGenerationStats builds stats for the generation that was just
// closed. fitness is the elite list as reported by the genetic manager.
func ComputeGenerationStats(generation int, fitness []float32, mutationChance float64) GenerationStats {
	s := GenerationStats{
		Generation:     generation,
		Elite:          len(fitness),
		MutationChance: mutationChance,
	}
	if len(fitness) == 0 {
		return s
	}

	sorted := make([]float64, len(fitness))
	for i, f := range fitness {
		sorted[i] = float64(f)
	}
	sort.Float64s(sorted)

	s.Mean, s.StdDev = stat.PopMeanStdDev(sorted, nil)
	s.Best = sorted[len(sorted)-1]
	s.P10 = Percentile(sorted, 0.10)
	s.P50 = Percentile(sorted, 0.50)
	s.P90 = Percentile(sorted, 0.90)
	return s
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("elite", s.Elite),
		slog.Float64("best", s.Best),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.StdDev),
		slog.Float64("p50", s.P50),
		slog.Float64("mutation_chance", s.MutationChance),
	)
}

// LogStats logs the generation stats using slog.
func (s GenerationStats) LogStats() {
	slog.Info("generation",
		"generation", s.Generation,
		"elite", s.Elite,
		"best", s.Best,
		"mean", s.Mean,
		"std", s.StdDev,
		"p10", s.P10,
		"p50", s.P50,
		"p90", s.P90,
		"mutation_chance", s.MutationChance,
	)
}
