package telemetry

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotFitness draws best and mean elite fitness against generation.
func PlotFitness(gens []GenerationStats, path string) error {
	p := plot.New()
	p.Title.Text = "Elite fitness"
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness"
	p.Add(plotter.NewGrid())

	best := make(plotter.XYs, len(gens))
	mean := make(plotter.XYs, len(gens))
	for i, g := range gens {
		best[i].X = float64(g.Generation)
		best[i].Y = g.Best
		mean[i].X = float64(g.Generation)
		mean[i].Y = g.Mean
	}

	bestLine, err := plotter.NewLine(best)
	if err != nil {
		return fmt.Errorf("best line: %w", err)
	}
	meanLine, err := plotter.NewLine(mean)
	if err != nil {
		return fmt.Errorf("mean line: %w", err)
	}
	meanLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(bestLine, meanLine)
	p.Legend.Add("best", bestLine)
	p.Legend.Add("mean", meanLine)
	p.Legend.Top = true
	p.Legend.Left = true

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving fitness plot: %w", err)
	}
	return nil
}
