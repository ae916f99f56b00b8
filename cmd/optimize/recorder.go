package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/gocarina/gocsv"
)

// evalRow is one optimize_log.csv row. Parameter columns follow
// NewParamVector.
type evalRow struct {
	Eval             int     `csv:"eval"`
	Fitness          float64 `csv:"fitness"`
	Quality          float64 `csv:"quality"`
	MutationChance   float64 `csv:"mutation_chance"`
	BestFraction     float64 `csv:"best_fraction"`
	ChildrenFraction float64 `csv:"children_fraction"`
}

// recorder logs every evaluation, prints progress and keeps the best.
type recorder struct {
	file          *os.File
	headerWritten bool
	evaluator     *FitnessEvaluator
	maxEvals      int

	count       int
	bestFitness float64
	best        []float64
	start       time.Time
}

func newRecorder(path string, params *ParamVector, evaluator *FitnessEvaluator, maxEvals int) (*recorder, error) {
	if params.Dim() != 3 {
		return nil, fmt.Errorf("log row holds 3 parameters, vector has %d", params.Dim())
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating log file: %w", err)
	}
	return &recorder{
		file:        f,
		evaluator:   evaluator,
		maxEvals:    maxEvals,
		bestFitness: math.Inf(1),
		start:       time.Now(),
	}, nil
}

// Record logs the evaluation of raw and passes fitness through.
func (r *recorder) Record(raw []float64, fitness float64) float64 {
	r.count++
	if fitness < r.bestFitness {
		r.bestFitness = fitness
		r.best = append(r.best[:0], raw...)
	}

	quality := r.evaluator.LastQuality()
	row := []evalRow{{
		Eval:             r.count,
		Fitness:          fitness,
		Quality:          quality,
		MutationChance:   raw[0],
		BestFraction:     raw[1],
		ChildrenFraction: raw[2],
	}}
	var err error
	if r.headerWritten {
		err = gocsv.MarshalWithoutHeaders(row, r.file)
	} else {
		err = gocsv.Marshal(row, r.file)
		r.headerWritten = err == nil
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to write log row:", err)
	}

	elapsed := r.Elapsed()
	eta := time.Duration(r.maxEvals-r.count) * (elapsed / time.Duration(r.count))
	fmt.Printf("eval %d/%d: score=%.1f quality=%.2f best=%.1f elapsed=%s eta=%s\n",
		r.count, r.maxEvals, -fitness, quality, -r.bestFitness, elapsed, eta.Round(time.Second))
	return fitness
}

// Best returns the best parameters recorded, or nil.
func (r *recorder) Best() []float64 { return r.best }

// BestFitness returns the lowest fitness recorded.
func (r *recorder) BestFitness() float64 { return r.bestFitness }

// Count returns the number of evaluations recorded.
func (r *recorder) Count() int { return r.count }

// Elapsed returns the time since the recorder was created.
func (r *recorder) Elapsed() time.Duration {
	return time.Since(r.start).Round(time.Second)
}

func (r *recorder) Close() error { return r.file.Close() }
