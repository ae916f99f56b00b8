package main

import (
	"math"
	"sync"

	"github.com/M1ghtyPirate/MicroMouse/config"
	"github.com/M1ghtyPirate/MicroMouse/game"
	"github.com/M1ghtyPirate/MicroMouse/storage"
	"github.com/M1ghtyPirate/MicroMouse/telemetry"
)

// FitnessEvaluator runs headless training and scores the result.
type FitnessEvaluator struct {
	params      *ParamVector
	generations int
	maxTicks    int64
	seeds       []int64
	baseConfig  *config.Config

	// Best run tracking
	mu             sync.Mutex
	bestFitness    float64
	bestHallOfFame *telemetry.HallOfFame
	lastQuality    float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, generations int, maxTicks int64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		generations: generations,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (fe *FitnessEvaluator) BestHallOfFame() *telemetry.HallOfFame {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHallOfFame
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the results from a single training run.
type runResult struct {
	best       float64   // best fitness ever scored
	top        []float32 // sorted top fitnesses of the last generation
	hallOfFame *telemetry.HallOfFame
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness    float64
	quality    float64
	hallOfFame *telemetry.HallOfFame
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	// Run all seeds in parallel
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runTraining(x, s)
			results[idx] = seedResult{
				fitness:    computeFitness(result),
				quality:    computeQuality(result),
				hallOfFame: result.hallOfFame,
			}
		}(i, seed)
	}
	wg.Wait()

	// Aggregate results
	var totalFitness, totalQuality float64
	bestSeedFitness := math.Inf(1)
	var bestSeedHallOfFame *telemetry.HallOfFame

	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedHallOfFame = r.hallOfFame
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestHallOfFame = bestSeedHallOfFame
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runTraining trains one population for the configured number of
// generations, or until maxTicks.
func (fe *FitnessEvaluator) runTraining(x []float64, seed int64) *runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{}
	g, err := game.NewGameWithOptions(game.Options{
		Config:         cfg,
		Seed:           seed,
		Headless:       true,
		StepsPerUpdate: 100,
		Mode:           "training",
		MaxGenerations: fe.generations,
		Store:          storage.NewMemoryStore(),
	})
	if err != nil {
		return result
	}
	defer g.Unload()

	if err := g.Start(); err != nil {
		return result
	}
	for !g.Done() && g.Tick() < fe.maxTicks {
		g.UpdateHeadless()
	}

	result.best = float64(g.HallOfFame().TopFitness())
	result.top = g.TopFitnesses()
	result.hallOfFame = g.HallOfFame()
	return result
}

// copyConfig creates a copy of the base config with file output disabled.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Derived.Hidden = append(cfg.Derived.Hidden[:0:0], fe.baseConfig.Derived.Hidden...)
	cfg.Telemetry.OutputDir = ""
	cfg.Telemetry.PerfLogInterval = 0
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(best × (1.0 + 0.2 × quality))
// The best score dominates; quality rewards populations whose elite is close
// to it.
func computeFitness(r *runResult) float64 {
	return -(r.best * (1.0 + 0.2*computeQuality(r)))
}

// computeQuality is the mean of the last generation's top scores relative to
// the best score, in [0, 1].
func computeQuality(r *runResult) float64 {
	if len(r.top) == 0 || r.best <= 0 {
		return 0
	}
	var sum float64
	for _, f := range r.top {
		sum += float64(f)
	}
	return clamp01(sum / float64(len(r.top)) / r.best)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	return min(max(x, 0), 1)
}
