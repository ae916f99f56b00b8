package game

import (
	"github.com/M1ghtyPirate/MicroMouse/config"
	"github.com/M1ghtyPirate/MicroMouse/storage"
)

// Options holds configuration for game initialization.
type Options struct {
	// Config overrides the global config.Cfg().
	Config *config.Config

	Seed           int64
	Headless       bool
	StepsPerUpdate int
	OutputDir      string // overrides telemetry.output_dir when set

	// Mode overrides episode.mode when set.
	Mode string
	// Load is a population key to seed training or the neural mode with.
	Load string
	// MaxGenerations overrides genetic.max_generations when positive.
	MaxGenerations int

	// Store overrides the configured population store.
	Store storage.Store
}

// Layout of the graphical screen.
const (
	mazeX        = 10
	mazeY        = 80
	panelWidth   = 260
	listWidth    = 270
	networkH     = 250
	panelSpacing = 10
)
