package game

import "log/slog"

// logPerf logs the perf window and appends it to perf.csv.
func (g *Game) logPerf() {
	stats := g.perfCollector.Stats()
	stats.LogStats()
	if err := g.outputManager.WritePerf(stats, g.tick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
	slog.Debug("progress",
		"tick", g.tick,
		"mode", g.mode,
		"active", g.controller.Active(),
		"generation", g.manager.Generation(),
		"hall_of_fame_best", g.hof.TopFitness(),
	)
}
