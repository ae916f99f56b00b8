// Package game wires the maze, the episode controller, the genetic manager,
// the simulated mouse, storage and telemetry into one loop, with an optional
// raylib front end.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/M1ghtyPirate/MicroMouse/camera"
	"github.com/M1ghtyPirate/MicroMouse/config"
	"github.com/M1ghtyPirate/MicroMouse/episode"
	"github.com/M1ghtyPirate/MicroMouse/genetic"
	"github.com/M1ghtyPirate/MicroMouse/maze"
	"github.com/M1ghtyPirate/MicroMouse/neural"
	"github.com/M1ghtyPirate/MicroMouse/renderer"
	"github.com/M1ghtyPirate/MicroMouse/sim"
	"github.com/M1ghtyPirate/MicroMouse/storage"
	"github.com/M1ghtyPirate/MicroMouse/telemetry"
	"github.com/M1ghtyPirate/MicroMouse/ui"
)

// Game holds the complete game state.
type Game struct {
	cfg *config.Config
	ctx context.Context
	rng *rand.Rand

	layout     *sim.Layout
	world      *sim.World
	mouse      *sim.Mouse
	model      *maze.Model
	controller *episode.Controller
	manager    *genetic.Manager
	store      storage.Store

	mode     episode.Mode
	hidden   []neural.LayerBlock
	mutation float64
	agent    int

	// loaded is the population selected for seeding; loadedKey is "" when
	// none is.
	loaded    storage.Snapshot
	loadedKey string
	// genome is the network of the running episode. The controller drops its
	// reference when the genome dies, this one survives the callback.
	genome *neural.Network

	hof           *telemetry.HallOfFame
	lastTop       []float32
	runs          *telemetry.RunTracker
	runFrom       maze.Cell
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager

	// Presentation, nil when headless.
	view       *renderer.View
	camera     *camera.Camera
	overlays   *ui.OverlayRegistry
	panel      *ui.ControlPanel
	uiRenderer *ui.Renderer
	bestList   *ui.ListPanel
	runList    *ui.ListPanel
	pending    ui.Controls
	saved      []storage.Summary
	population int // selected entry of saved, 0 = none

	tick           int64
	paused         bool
	headless       bool
	stepsPerUpdate int
	maxGenerations int
	targetFitness  float32
	finishing      bool
	complete       bool
}

// NewGameWithOptions creates a game. The graphical front end needs a raylib
// window to draw but not to be constructed.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	mode := cfg.Derived.Mode
	if opts.Mode != "" {
		m, err := episode.ParseMode(opts.Mode)
		if err != nil {
			return nil, err
		}
		mode = m
	}

	g := &Game{
		cfg:            cfg,
		ctx:            context.Background(),
		rng:            rand.New(rand.NewSource(opts.Seed)),
		mode:           mode,
		hidden:         cfg.Derived.Hidden,
		mutation:       cfg.Genetic.MutationChance,
		headless:       opts.Headless,
		stepsPerUpdate: max(opts.StepsPerUpdate, 1),
		maxGenerations: cfg.Genetic.MaxGenerations,
		targetFitness:  float32(cfg.Genetic.TargetFitness),
		hof:            telemetry.NewHallOfFame(cfg.Telemetry.HallOfFameSize),
		runs:           telemetry.NewRunTracker(),
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
	}
	if opts.MaxGenerations > 0 {
		g.maxGenerations = opts.MaxGenerations
	}

	layout, err := g.buildLayout()
	if err != nil {
		return nil, err
	}
	g.layout = layout
	g.world = sim.NewWorld(simConfig(cfg), layout)
	g.model = maze.NewModel(cfg.Maze.Columns, cfg.Maze.Rows, nil)
	if !g.headless {
		g.view = renderer.NewView(cfg.Maze.Columns, cfg.Maze.Rows)
		g.model.SetObserver(g.view)
	}

	start := cfg.Maze.Start.Cell()
	g.mouse = g.world.NewMouse(episode.Pose{
		X:       float32(start.X),
		Y:       float32(start.Y),
		Heading: float32(cfg.Maze.StartHeading),
	})
	g.mouse.OnCollision(func() { g.controller.NotifyCollision() })
	g.controller = g.newController(mode)
	g.manager = genetic.NewManager(genetic.Config{
		PopulationSize: cfg.Genetic.PopulationSize,
		BestAgents:     cfg.Genetic.BestAgents,
		Children:       cfg.Genetic.Children,
		MutationChance: cfg.Genetic.MutationChance,
		InputSize:      cfg.Network.Inputs,
		OutputSize:     cfg.Network.Outputs,
		Hidden:         cfg.Derived.Hidden,
	}, rand.New(rand.NewSource(g.rng.Int63())), trainingRunner{g}, hooks{g})

	g.store = opts.Store
	if g.store == nil {
		g.store, err = storage.NewStore(cfg.Storage.Backend, StorePath(cfg))
		if err != nil {
			return nil, err
		}
	}
	if err := g.store.Init(g.ctx); err != nil {
		return nil, fmt.Errorf("init population store: %w", err)
	}

	outputDir := cfg.Telemetry.OutputDir
	if opts.OutputDir != "" {
		outputDir = opts.OutputDir
	}
	g.outputManager, err = telemetry.NewOutputManager(outputDir)
	if err != nil {
		g.store.Close()
		return nil, err
	}
	if err := g.outputManager.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	if opts.Load != "" {
		if err := g.selectPopulation(opts.Load); err != nil {
			slog.Error("failed to load population, starting fresh", "key", opts.Load, "error", err)
			_ = g.selectPopulation("")
		}
	}

	if !g.headless {
		g.initPresentation()
	}
	g.resetEpisode(nil)

	slog.Info("game_created",
		"mode", g.mode,
		"columns", cfg.Maze.Columns,
		"rows", cfg.Maze.Rows,
		"store", cfg.Storage.Backend,
		"output_dir", outputDir,
		"loaded", g.loadedKey,
	)
	return g, nil
}

func (g *Game) buildLayout() (*sim.Layout, error) {
	cfg := g.cfg.Maze
	if cfg.LayoutFile != "" {
		data, err := os.ReadFile(cfg.LayoutFile)
		if err != nil {
			return nil, fmt.Errorf("reading layout: %w", err)
		}
		l, err := sim.ParseLayout(string(data))
		if err != nil {
			return nil, err
		}
		if l.Columns() != cfg.Columns || l.Rows() != cfg.Rows {
			return nil, fmt.Errorf("%w: layout is %dx%d, config wants %dx%d",
				sim.ErrLayout, l.Columns(), l.Rows(), cfg.Columns, cfg.Rows)
		}
		return l, nil
	}

	rng := g.rng
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}
	return sim.GenerateLayout(cfg.Columns, cfg.Rows, cfg.Loops, rng), nil
}

func simConfig(cfg *config.Config) sim.Config {
	p := cfg.Physics
	return sim.Config{
		MaxSpeed:    float32(p.MaxSpeed),
		MaxTurnRate: float32(p.MaxTurnRate),
		TurnSpeed:   float32(p.TurnSpeed),
		TravelSpeed: float32(p.TravelSpeed),
		BodyRadius:  float32(p.BodyRadius),
		SensorRange: float32(p.SensorRange),
	}
}

func episodeConfig(cfg *config.Config, mode episode.Mode) episode.Config {
	e := cfg.Episode
	return episode.Config{
		Mode:             mode,
		Columns:          cfg.Maze.Columns,
		Rows:             cfg.Maze.Rows,
		Start:            cfg.Maze.Start.Cell(),
		StartHeading:     maze.FromDegrees(float32(cfg.Maze.StartHeading)),
		Center:           cfg.Maze.Center.Cell(),
		TrainingCenter:   cfg.Maze.TrainingCenter.Cell(),
		CellTravel:       float32(cfg.Physics.CellTravel),
		StepTimeBudget:   float32(e.StepTimeBudget),
		EpisodeStepCap:   e.EpisodeStepCap,
		HeadingTolerance: float32(e.HeadingTolerance),
		ArrivalRadius:    float32(e.ArrivalRadius),
		HeadingReward:    float32(e.HeadingReward),
		ApproachReward:   float32(e.ApproachReward),
		ProgressReward:   float32(e.ProgressReward),
	}
}

// StorePath picks the location argument of the configured backend.
func StorePath(cfg *config.Config) string {
	if cfg.Storage.Backend == "sqlite" {
		return cfg.Storage.SQLitePath
	}
	return cfg.Storage.Dir
}

func (g *Game) newController(mode episode.Mode) *episode.Controller {
	return episode.NewController(episodeConfig(g.cfg, mode), g.model, g.mouse, g.mouse, hooks{g})
}

// resetEpisode puts the mouse back on the start cell with no knowledge and
// hands it genome.
func (g *Game) resetEpisode(genome *neural.Network) {
	g.genome = genome
	if g.view != nil {
		g.view.Reset(g.cfg.Maze.Columns, g.cfg.Maze.Rows)
	}
	g.controller.Reset(genome)
}

// Start activates the controller in the current mode. Training starts a new
// population, seeded from the selected one if any.
func (g *Game) Start() error {
	if g.controller.Active() {
		return nil
	}
	g.complete = false
	g.finishing = false

	switch g.mode {
	case episode.ModeNeuralTraining:
		var seed []*neural.Network
		generation := 0
		hidden := g.hidden
		if g.loadedKey != "" {
			for _, n := range g.loaded.Genomes {
				seed = append(seed, n.Clone(true))
			}
			generation = g.loaded.Generation
			hidden = g.loaded.Genomes[0].Structure()
		}
		if g.view != nil {
			g.view.ResetTraining()
		}
		g.controller.Activate()
		if err := g.manager.StartTraining(seed, generation, hidden, g.mutation); err != nil {
			g.controller.Stop()
			return fmt.Errorf("start training: %w", err)
		}
		if g.targetFitness > 0 {
			g.manager.SetTargetFitness(g.targetFitness)
		}
		g.checkGenerationLimit()

	case episode.ModeNeural:
		genome, err := g.pickAgent()
		if err != nil {
			return err
		}
		g.resetEpisode(genome)
		g.controller.Activate()

	default:
		g.resetEpisode(nil)
		g.controller.Activate()
	}
	return nil
}

// pickAgent returns the selected genome of the loaded population, or a fresh
// random network when nothing is loaded.
func (g *Game) pickAgent() (*neural.Network, error) {
	if g.loadedKey != "" {
		i := min(max(g.agent, 0), len(g.loaded.Genomes)-1)
		return g.loaded.Genomes[i].Clone(true), nil
	}
	n, err := neural.New(g.cfg.Network.Inputs, g.cfg.Network.Outputs, g.hidden, g.rng)
	if err != nil {
		return nil, fmt.Errorf("create network: %w", err)
	}
	return n, nil
}

// Reset stops the mouse and returns it to the start cell.
func (g *Game) Reset() {
	g.controller.Stop()
	g.finishing = false
	g.resetEpisode(nil)
}

// Finish completes training at the next repopulation, which saves the
// population.
func (g *Game) Finish() {
	if g.mode != episode.ModeNeuralTraining || !g.controller.Active() || g.finishing {
		return
	}
	g.finishing = true
	g.manager.Finish()
	slog.Info("training_finish_requested", "generation", g.manager.Generation())
}

// NewMaze replaces the ground-truth layout. It is ignored while running.
func (g *Game) NewMaze() {
	if g.controller.Active() {
		return
	}
	g.layout = sim.GenerateLayout(g.cfg.Maze.Columns, g.cfg.Maze.Rows, g.cfg.Maze.Loops, g.rng)
	g.world.SetLayout(g.layout)
	g.resetEpisode(nil)
}

// SetMode switches between the algorithm, training and neural modes. It is
// ignored while running.
func (g *Game) SetMode(m episode.Mode) {
	if g.controller.Active() || m == g.mode {
		return
	}
	g.mode = m
	g.controller = g.newController(m)
	if g.view != nil {
		g.view.ResetTraining()
	}
	g.resetEpisode(nil)
}

// selectPopulation loads a saved population to seed training or the neural
// mode. An empty key clears the selection.
func (g *Game) selectPopulation(key string) error {
	if key == "" {
		g.loaded, g.loadedKey = storage.Snapshot{}, ""
		return nil
	}
	snap, ok, err := g.store.Load(g.ctx, key)
	if err != nil {
		return fmt.Errorf("load population %s: %w", key, err)
	}
	if !ok || len(snap.Genomes) == 0 {
		return fmt.Errorf("population %s not found", key)
	}
	first := snap.Genomes[0]
	if first.InputSize() != g.cfg.Network.Inputs || first.OutputSize() != g.cfg.Network.Outputs {
		return fmt.Errorf("population %s has %d inputs and %d outputs, want %d and %d",
			key, first.InputSize(), first.OutputSize(), g.cfg.Network.Inputs, g.cfg.Network.Outputs)
	}
	g.loaded, g.loadedKey = snap, key
	slog.Info("population_loaded",
		"key", key,
		"generation", snap.Generation,
		"size", len(snap.Genomes),
		"hidden", neural.FormatTopology(first.Structure()),
	)
	return nil
}

// Populations lists the saved populations, oldest first.
func (g *Game) Populations() ([]storage.Summary, error) {
	return g.store.List(g.ctx)
}

// step advances the simulation by one tick.
func (g *Game) step() {
	dt := g.cfg.Derived.DT32

	g.perfCollector.StartTick()
	g.perfCollector.StartPhase(telemetry.PhaseController)
	g.controller.Tick(dt)

	g.perfCollector.StartPhase(telemetry.PhasePhysics)
	g.world.Step(dt)

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.runs.Tick(float64(dt), telemetry.RunState{
		Training: g.mode == episode.ModeNeuralTraining,
		From:     g.runFrom,
		To:       g.controller.Target(),
		Reached:  g.controller.Reached(),
	})
	g.perfCollector.EndTick()

	g.tick++
	if interval := int64(g.cfg.Telemetry.PerfLogInterval); interval > 0 && g.tick%interval == 0 {
		g.logPerf()
	}
}

// UpdateHeadless runs stepsPerUpdate ticks without input or drawing.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// Update applies input and the control panel, then advances the simulation.
func (g *Game) Update() {
	g.handleInput()
	g.applyControls(g.pending)
	g.pending.Action = ui.ActionNone

	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// Tick returns the number of simulation ticks run.
func (g *Game) Tick() int64 { return g.tick }

// Mode returns the current mode.
func (g *Game) Mode() episode.Mode { return g.mode }

// Generation returns the training generation.
func (g *Game) Generation() int { return g.manager.Generation() }

// HallOfFame returns the best genomes seen during training.
func (g *Game) HallOfFame() *telemetry.HallOfFame { return g.hof }

// TopFitnesses returns the sorted top fitnesses of the last finished
// generation.
func (g *Game) TopFitnesses() []float32 { return g.lastTop }

// Done reports whether training has completed and the mouse has stopped.
func (g *Game) Done() bool {
	return g.complete && !g.controller.Active()
}

// Unload writes the final telemetry and closes the store.
func (g *Game) Unload() {
	if g.outputManager != nil {
		if err := g.outputManager.WriteHallOfFame(g.hof); err != nil {
			slog.Error("failed to write hall of fame", "error", err)
		}
		if g.cfg.Telemetry.Plot {
			if err := g.outputManager.WritePlot(); err != nil {
				slog.Error("failed to write fitness plot", "error", err)
			}
		}
		if err := g.outputManager.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
		g.outputManager = nil
	}
	if g.store != nil {
		if err := g.store.Close(); err != nil {
			slog.Error("failed to close population store", "error", err)
		}
		g.store = nil
	}
}

// checkGenerationLimit asks the manager to finish once the generation limit
// is reached.
func (g *Game) checkGenerationLimit() {
	if g.maxGenerations <= 0 || g.finishing {
		return
	}
	if g.manager.Generation() >= g.maxGenerations {
		g.finishing = true
		g.manager.Finish()
		slog.Info("generation_limit_reached", "generation", g.manager.Generation())
	}
}

// trainingRunner lets the genetic manager hand genomes to the controller.
type trainingRunner struct{ g *Game }

func (r trainingRunner) Active() bool { return r.g.controller.Active() }

func (r trainingRunner) Reset(genome *neural.Network) { r.g.resetEpisode(genome) }
