package game

import (
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/M1ghtyPirate/MicroMouse/camera"
	"github.com/M1ghtyPirate/MicroMouse/episode"
	"github.com/M1ghtyPirate/MicroMouse/renderer"
	"github.com/M1ghtyPirate/MicroMouse/ui"
)

func (g *Game) initPresentation() {
	cfg := g.cfg
	cell := float32(cfg.Screen.CellSize)
	mazeW := float32(cfg.Maze.Columns) * cell
	mazeH := float32(cfg.Maze.Rows) * cell
	g.camera = camera.New(mazeX, mazeY, mazeW, mazeH, cfg.Maze.Columns, cfg.Maze.Rows)

	g.overlays = ui.NewOverlayRegistry()
	panelX := int32(mazeX+mazeW) + panelSpacing
	g.panel = ui.NewControlPanel(panelX, panelSpacing, panelWidth, ui.ControlDefaults{
		Mode:           g.mode,
		Center:         cfg.Maze.Center.Cell(),
		TrainingCenter: cfg.Maze.TrainingCenter.Cell(),
		Mutation:       cfg.Genetic.MutationChance,
		Hidden:         cfg.Derived.Hidden,
	}, g.overlays)
	g.panel.SetSpeed(g.stepsPerUpdate)

	listX := panelX + panelWidth + panelSpacing
	g.bestList = ui.NewListPanel("Best agents", listX, panelSpacing, listWidth, 250)
	g.runList = ui.NewListPanel("Runs", listX, 270, listWidth, 250)
	g.uiRenderer = ui.NewRenderer()

	g.refreshSaved()
	if g.loadedKey != "" {
		for i, s := range g.saved {
			if s.Key == g.loadedKey {
				g.population = i + 1
			}
		}
		g.panel.SetPopulation(g.population)
		g.panel.SetHidden(g.loaded.Genomes[0].Structure())
	}
	g.pending = g.panel.Values()
}

// refreshSaved reloads the population list shown in the control panel.
func (g *Game) refreshSaved() {
	if g.panel == nil {
		return
	}
	saved, err := g.store.List(g.ctx)
	if err != nil {
		slog.Error("failed to list populations", "error", err)
		return
	}
	g.saved = saved
}

func (g *Game) savedNames() []string {
	names := make([]string, 0, len(g.saved)+1)
	names = append(names, "None")
	for _, s := range g.saved {
		names = append(names, fmt.Sprintf("Gen %d avg %.0f (%d)", s.Generation, s.AverageFitness, s.Size))
	}
	return names
}

// applyControls acts on what the control panel returned last frame.
func (g *Game) applyControls(c ui.Controls) {
	active := g.controller.Active()

	if !active {
		if c.Mode != g.mode {
			g.SetMode(c.Mode)
		}
		if c.Population != g.population {
			key := ""
			if c.Population > 0 && c.Population <= len(g.saved) {
				key = g.saved[c.Population-1].Key
			}
			if err := g.selectPopulation(key); err != nil {
				slog.Error("failed to select population", "error", err)
				key = ""
				_ = g.selectPopulation("")
			}
			g.population = c.Population
			if key != "" {
				g.panel.SetHidden(g.loaded.Genomes[0].Structure())
			}
		}
		g.agent = c.Agent
		if c.Hidden != nil {
			g.hidden = c.Hidden
		}
		if c.Target != g.controller.Center() {
			g.controller.SetCenter(c.Target)
			g.resetEpisode(nil)
		}
	}

	if c.Mutation != g.mutation {
		g.mutation = c.Mutation
		if active && g.mode == episode.ModeNeuralTraining {
			g.manager.SetMutationChance(c.Mutation)
		}
	}
	g.stepsPerUpdate = c.Speed

	switch c.Action {
	case ui.ActionActivate:
		if err := g.Start(); err != nil {
			slog.Error("failed to start", "error", err)
		}
	case ui.ActionReset:
		g.Reset()
	case ui.ActionSave:
		g.Finish()
	case ui.ActionNewMaze:
		g.NewMaze()
	}
}

// Draw renders the game.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	_, center, _ := g.mouse.Obstacles()
	g.view.Draw(g.camera, renderer.Scene{
		Layout:      g.world.Layout(),
		Pose:        g.mouse.Pose(),
		Current:     g.model.Position(),
		Start:       g.cfg.Maze.Start.Cell(),
		Target:      g.controller.Target(),
		Center:      g.controller.Center(),
		BodyRadius:  float32(g.cfg.Physics.BodyRadius),
		SensorRange: float32(g.cfg.Physics.SensorRange),
		Obstacle:    center,
	}, renderer.Layers{
		TrueWalls:     g.overlays.IsEnabled(ui.OverlayTrueWalls),
		LearnedWalls:  g.overlays.IsEnabled(ui.OverlayLearnedWalls),
		PathMarkers:   g.overlays.IsEnabled(ui.OverlayPathMarkers),
		DistanceField: g.overlays.IsEnabled(ui.OverlayDistanceField),
		Sensor:        g.overlays.IsEnabled(ui.OverlaySensor),
	})

	generation, genome, population := g.view.Generation()
	target := g.controller.Center()
	ui.DrawHUD(mazeX, 10, ui.HUDData{
		Title:      g.cfg.Screen.Title,
		Mode:       g.mode.String(),
		Active:     g.controller.Active(),
		Generation: generation,
		Genome:     genome,
		Population: population,
		Target:     fmt.Sprintf("[%d,%d]", target.X, target.Y),
		Steps:      g.controller.Steps(),
		FPS:        rl.GetFPS(),
	})
	status := g.overlays.HelpText()
	if d := g.view.LastDeath(); d != "" && g.mode.Neural() {
		status = "Last death: " + d + "  " + status
	}
	if g.paused {
		status = "PAUSED  " + status
	}
	rl.DrawText(status, mazeX, int32(g.camera.ViewportY+g.camera.ViewportH)+4, 10, rl.Gray)

	g.bestList.Draw("", ui.FitnessLines(g.view.TopFitnesses()))
	history := g.runs.History()
	lines := make([]string, len(history))
	for i, r := range history {
		lines[i] = r.String()
	}
	g.runList.Draw(g.runs.CurrentText(), lines)

	if g.overlays.IsEnabled(ui.OverlayNetwork) {
		g.drawNetworkPanel()
	}

	g.pending = g.panel.Draw(ui.PanelState{
		Active:     g.controller.Active(),
		CanSave:    g.mode == episode.ModeNeuralTraining && g.controller.Active() && !g.finishing,
		Saved:      g.savedNames(),
		AgentCount: len(g.loaded.Genomes),
		Columns:    g.cfg.Maze.Columns,
		Rows:       g.cfg.Maze.Rows,
	})

	rl.EndDrawing()
}

func (g *Game) drawNetworkPanel() {
	r := g.uiRenderer
	x := int32(g.camera.ViewportX+g.camera.ViewportW) + panelSpacing
	y := int32(530)
	w := int32(panelWidth + panelSpacing + listWidth)
	r.DrawPanel(x, y, w, networkH)

	n := g.controller.Genome()
	if n == nil {
		r.DrawSectionHeader(x+r.Theme.Padding, y+r.Theme.Padding, "No network")
		return
	}
	act := n.Activations()
	barsW := int32(220)
	r.DrawActivationBars(x+r.Theme.Padding, y+r.Theme.Padding, barsW, act)
	ui.DrawNetworkDiagram(x+barsW+40, y+r.Theme.Padding, w-barsW-60, networkH-2*r.Theme.Padding, n, act)
}
