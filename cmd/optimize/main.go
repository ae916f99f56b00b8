// Package main tunes the genetic training parameters with CMA-ES. Every
// evaluation trains fresh populations headless and scores the best genome.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/optimize"

	"github.com/M1ghtyPirate/MicroMouse/config"
	"github.com/M1ghtyPirate/MicroMouse/storage"
)

type options struct {
	configPath  string
	generations int
	maxTicks    int64
	seeds       int
	maxEvals    int
	population  int
	outputDir   string
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.IntVar(&o.generations, "generations", 10, "Generations trained per evaluation")
	flag.Int64Var(&o.maxTicks, "max-ticks", 2000000, "Tick cap per training run")
	flag.IntVar(&o.seeds, "seeds", 3, "Number of seeds per evaluation")
	flag.IntVar(&o.maxEvals, "max-evals", 100, "Maximum number of evaluations")
	flag.IntVar(&o.population, "population", 0, "CMA-ES population size (0 = auto)")
	flag.StringVar(&o.outputDir, "output", "", "Output directory for results")
	flag.Parse()

	if o.outputDir == "" {
		log.Fatal("--output is required")
	}
	// Training logs every generation; only warnings get through.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := run(o); err != nil {
		log.Fatal(err)
	}
}

func run(o options) error {
	if err := os.MkdirAll(o.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	baseCfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	params := NewParamVector()
	evalSeeds := make([]int64, o.seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, o.generations, o.maxTicks, evalSeeds, baseCfg)

	rec, err := newRecorder(filepath.Join(o.outputDir, "optimize_log.csv"), params, evaluator, o.maxEvals)
	if err != nil {
		return err
	}
	defer rec.Close()

	popSize := o.population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(params.Dim())/2.0)
	}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			return rec.Record(raw, evaluator.Evaluate(raw))
		},
	}
	settings := &optimize.Settings{FuncEvaluations: o.maxEvals}
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize}

	fmt.Printf("CMA-ES over %d parameters: population=%d max_evals=%d seeds=%d generations=%d\n",
		params.Dim(), popSize, o.maxEvals, o.seeds, o.generations)

	result, err := optimize.Minimize(problem, params.Normalize(params.ExtractFromConfig(baseCfg)), settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	best := rec.Best()
	if best == nil && result != nil {
		best = params.Clamp(params.Denormalize(result.X))
	}
	if best == nil {
		return fmt.Errorf("no evaluation completed")
	}

	fmt.Printf("\n%d evaluations in %s, best score %.1f\n", rec.Count(), rec.Elapsed(), -rec.BestFitness())
	for i, spec := range params.Specs {
		fmt.Printf("  %-18s %-24s %.6f\n", spec.Name, spec.Path, best[i])
	}

	bestCfg := *baseCfg
	params.ApplyToConfig(&bestCfg, best)
	configOut := filepath.Join(o.outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOut); err != nil {
		return err
	}
	fmt.Println("best config:", configOut)

	// The best run's hall of fame loads like any saved population.
	if hof := evaluator.BestHallOfFame(); hof != nil && hof.Size() > 0 {
		data, err := storage.EncodeSnapshot(hof.Snapshot())
		if err != nil {
			return fmt.Errorf("encoding hall of fame: %w", err)
		}
		hofOut := filepath.Join(o.outputDir, "hall_of_fame.nnet")
		if err := os.WriteFile(hofOut, data, 0644); err != nil {
			return fmt.Errorf("writing hall of fame: %w", err)
		}
		fmt.Println("hall of fame:", hofOut)
	}
	return nil
}
