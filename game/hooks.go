package game

import (
	"log/slog"

	"github.com/M1ghtyPirate/MicroMouse/episode"
	"github.com/M1ghtyPirate/MicroMouse/genetic"
	"github.com/M1ghtyPirate/MicroMouse/maze"
	"github.com/M1ghtyPirate/MicroMouse/storage"
	"github.com/M1ghtyPirate/MicroMouse/telemetry"
)

// hooks receives controller and population events, forwards them to the view
// and drives training, telemetry and saving.
type hooks struct{ g *Game }

var (
	_ episode.Observer = hooks{}
	_ genetic.Observer = hooks{}
)

// FinalTargetReached closes the open run.
func (h hooks) FinalTargetReached(cell maze.Cell) {
	g := h.g
	if g.view != nil {
		g.view.FinalTargetReached(cell)
	}
	if rec, ok := g.runs.FinalTargetReached(cell); ok {
		slog.Info("run_finished",
			"run", rec.Run,
			"from", [2]int{rec.FromX, rec.FromY},
			"to", [2]int{rec.ToX, rec.ToY},
			"seconds", rec.Seconds,
			"targets_reached", rec.TargetsReached,
		)
		if err := g.outputManager.WriteRun(rec); err != nil {
			slog.Error("failed to write run", "error", err)
		}
	}
	g.runFrom = cell
}

// NeuralDeath scores the genome and moves on. Training asks the manager for
// the next genome; the neural mode restarts the same one.
func (h hooks) NeuralDeath(reason episode.DeathReason) {
	g := h.g
	if g.view != nil {
		g.view.NeuralDeath(reason)
	}

	switch g.mode {
	case episode.ModeNeuralTraining:
		if g.genome != nil {
			g.hof.Consider(g.genome, g.manager.Generation(), g.manager.GenomeIndex())
		}
		if err := g.manager.OnEpisodeEnd(); err != nil {
			slog.Error("failed to advance population", "error", err)
			g.controller.Stop()
		}
	case episode.ModeNeural:
		g.resetEpisode(g.genome)
	}
}

// NoPathFound marks the cell the planner gave up on.
func (h hooks) NoPathFound(cell maze.Cell) {
	if h.g.view != nil {
		h.g.view.NoPathFound(cell)
	}
	slog.Info("no_path", "cell", [2]int{cell.X, cell.Y}, "mode", h.g.mode)
}

// ActivationChanged opens or stops run timing.
func (h hooks) ActivationChanged(active bool) {
	g := h.g
	if g.view != nil {
		g.view.ActivationChanged(active)
	}
	if active {
		g.runFrom = g.cfg.Maze.Start.Cell()
	}
	g.runs.ActivationChanged(active)
	slog.Info("activation_changed", "active", active, "mode", g.mode, "tick", g.tick)
}

// NextAgent implements genetic.Observer.
func (h hooks) NextAgent(generation, index, size int) {
	if h.g.view != nil {
		h.g.view.NextAgent(generation, index, size)
	}
}

// Repopulated records the statistics of the finished generation.
func (h hooks) Repopulated(topFitnesses []float32) {
	g := h.g
	if g.view != nil {
		g.view.Repopulated(topFitnesses)
	}
	g.lastTop = topFitnesses

	stats := telemetry.ComputeGenerationStats(g.manager.Generation()-1, topFitnesses, g.manager.MutationChance())
	stats.LogStats()
	if err := g.outputManager.WriteGeneration(stats); err != nil {
		slog.Error("failed to write generation stats", "error", err)
	}
	g.checkGenerationLimit()
}

// TrainingComplete saves the population while its fitness is still intact
// and stops the mouse.
func (h hooks) TrainingComplete() {
	g := h.g
	if g.view != nil {
		g.view.TrainingComplete()
	}

	snap := storage.NewSnapshot(g.manager.Population(), g.manager.Generation())
	key, err := g.store.Save(g.ctx, snap)
	if err != nil {
		slog.Error("failed to save population", "error", err)
	} else {
		slog.Info("population_saved",
			"key", key,
			"generation", snap.Generation,
			"size", len(snap.Genomes),
			"avg_fitness", snap.AverageFitness(),
		)
	}
	g.refreshSaved()

	g.complete = true
	g.controller.Stop()
}
