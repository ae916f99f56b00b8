package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/M1ghtyPirate/MicroMouse/config"
	"github.com/M1ghtyPirate/MicroMouse/game"
	"github.com/M1ghtyPirate/MicroMouse/storage"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	mode := flag.String("mode", "", "algorithm, training or neural (empty = use config)")
	load := flag.String("load", "", "Saved population to seed training or the neural mode with")
	list := flag.Bool("list", false, "List saved populations and exit")
	maxGenerations := flag.Int("max-generations", 0, "Finish training after N generations (0 = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *list {
		if err := listPopulations(cfg); err != nil {
			slog.Error("failed to list populations", "error", err)
			os.Exit(1)
		}
		return
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Seed:           rngSeed,
		Headless:       *headless,
		StepsPerUpdate: *stepsPerUpdate,
		OutputDir:      *outputDir,
		Mode:           *mode,
		Load:           *load,
		MaxGenerations: *maxGenerations,
	}

	if *headless {
		// Headless mode - pure CPU simulation, no raylib needed
		g, err := game.NewGameWithOptions(opts)
		if err != nil {
			slog.Error("failed to create game", "error", err)
			os.Exit(1)
		}
		defer g.Unload()

		if err := g.Start(); err != nil {
			slog.Error("failed to start", "error", err)
			return
		}
		slog.Info("starting headless simulation",
			"seed", rngSeed,
			"mode", g.Mode(),
			"max_ticks", *maxTicks,
			"steps_per_update", *stepsPerUpdate,
		)

		for !g.Done() {
			g.UpdateHeadless()

			if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
				slog.Info("max ticks reached", "tick", g.Tick())
				return
			}
		}
		slog.Info("training complete", "tick", g.Tick(), "generation", g.Generation())
		return
	}

	// Graphical mode
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to create game", "error", err)
		return
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			break
		}
	}
}

// listPopulations prints one line per saved population of the configured
// store.
func listPopulations(cfg *config.Config) error {
	ctx := context.Background()
	store, err := storage.NewStore(cfg.Storage.Backend, game.StorePath(cfg))
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		return err
	}

	saved, err := store.List(ctx)
	if err != nil {
		return err
	}
	for _, s := range saved {
		fmt.Printf("%s\tgeneration %d\tsize %d\tavg %.1f\n", s.Key, s.Generation, s.Size, s.AverageFitness)
	}
	return nil
}
