// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/M1ghtyPirate/MicroMouse/episode"
	"github.com/M1ghtyPirate/MicroMouse/maze"
	"github.com/M1ghtyPirate/MicroMouse/neural"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Maze      MazeConfig      `yaml:"maze"`
	Network   NetworkConfig   `yaml:"network"`
	Genetic   GeneticConfig   `yaml:"genetic"`
	Episode   EpisodeConfig   `yaml:"episode"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Storage   StorageConfig   `yaml:"storage"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
	CellSize  int    `yaml:"cell_size"` // pixels per maze cell
}

// CellConfig is a maze cell in config files.
type CellConfig struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Cell converts to a maze cell.
func (c CellConfig) Cell() maze.Cell { return maze.Cell{X: c.X, Y: c.Y} }

// MazeConfig holds the maze dimensions, targets and generator settings.
type MazeConfig struct {
	Columns        int        `yaml:"columns"`
	Rows           int        `yaml:"rows"`
	Start          CellConfig `yaml:"start"`
	StartHeading   float64    `yaml:"start_heading"` // degrees clockwise from forward
	Center         CellConfig `yaml:"center"`
	TrainingCenter CellConfig `yaml:"training_center"`
	Seed           int64      `yaml:"seed"`
	Loops          int        `yaml:"loops"`       // extra openings knocked into the generated maze
	LayoutFile     string     `yaml:"layout_file"` // ASCII layout; overrides the generator
}

// NetworkConfig holds the controller network shape.
type NetworkConfig struct {
	Inputs       int    `yaml:"inputs"`
	Outputs      int    `yaml:"outputs"`
	HiddenLayers string `yaml:"hidden_layers"` // e.g. "9x2"
}

// GeneticConfig holds population manager parameters.
type GeneticConfig struct {
	PopulationSize int     `yaml:"population_size"`
	BestAgents     int     `yaml:"best_agents"`
	Children       int     `yaml:"children"`
	MutationChance float64 `yaml:"mutation_chance"`
	TargetFitness  float64 `yaml:"target_fitness"` // 0 disables automatic completion
	MaxGenerations int     `yaml:"max_generations"`
}

// EpisodeConfig holds episode controller parameters.
type EpisodeConfig struct {
	Mode             string  `yaml:"mode"`
	StepTimeBudget   float64 `yaml:"step_time_budget"`
	EpisodeStepCap   int     `yaml:"episode_step_cap"`
	HeadingTolerance float64 `yaml:"heading_tolerance"`
	ArrivalRadius    float64 `yaml:"arrival_radius"`
	HeadingReward    float64 `yaml:"heading_reward"`
	ApproachReward   float64 `yaml:"approach_reward"`
	ProgressReward   float64 `yaml:"progress_reward"`
}

// PhysicsConfig holds simulation physics parameters, in cell units.
type PhysicsConfig struct {
	DT          float64 `yaml:"dt"`
	MaxSpeed    float64 `yaml:"max_speed"`
	MaxTurnRate float64 `yaml:"max_turn_rate"`
	TurnSpeed   float64 `yaml:"turn_speed"`
	TravelSpeed float64 `yaml:"travel_speed"`
	CellTravel  float64 `yaml:"cell_travel"`
	BodyRadius  float64 `yaml:"body_radius"`
	SensorRange float64 `yaml:"sensor_range"`
}

// StorageConfig selects where populations are saved.
type StorageConfig struct {
	Backend    string `yaml:"backend"` // file, sqlite or memory
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	OutputDir           string `yaml:"output_dir"`
	Plot                bool   `yaml:"plot"`
	PerfCollectorWindow int    `yaml:"perf_collector_window"`
	PerfLogInterval     int    `yaml:"perf_log_interval"` // ticks between perf rows
	HallOfFameSize      int    `yaml:"hall_of_fame_size"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32   float32             // Physics.DT as float32
	Hidden []neural.LayerBlock // parsed Network.HiddenLayers
	Mode   episode.Mode        // parsed Episode.Mode
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize recomputes derived values and validates. Call it after changing
// fields of a loaded config.
func (c *Config) Finalize() error {
	c.computeDerived()
	return c.Validate()
}

func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.Hidden, _ = neural.ParseTopology(c.Network.HiddenLayers)
	c.Derived.Mode, _ = episode.ParseMode(c.Episode.Mode)
}

// Validate rejects values the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	m := c.Maze
	inMaze := func(cell CellConfig) bool {
		return cell.X >= 0 && cell.X < m.Columns && cell.Y >= 0 && cell.Y < m.Rows
	}
	check(m.Columns > 0 && m.Rows > 0, "maze size %dx%d", m.Columns, m.Rows)
	check(inMaze(m.Start), "maze start %+v outside the maze", m.Start)
	check(inMaze(m.Center), "maze center %+v outside the maze", m.Center)
	check(inMaze(m.TrainingCenter), "maze training_center %+v outside the maze", m.TrainingCenter)
	check(m.Loops >= 0, "maze loops %d", m.Loops)

	check(c.Network.Inputs >= 1, "network inputs %d", c.Network.Inputs)
	check(c.Network.Outputs >= 2, "network outputs %d, need at least 2", c.Network.Outputs)
	_, ok := neural.ParseTopology(c.Network.HiddenLayers)
	check(ok, "network hidden_layers %q", c.Network.HiddenLayers)

	g := c.Genetic
	check(g.PopulationSize >= 2, "genetic population_size %d", g.PopulationSize)
	check(g.BestAgents >= 1 && g.BestAgents <= g.PopulationSize, "genetic best_agents %d with population %d", g.BestAgents, g.PopulationSize)
	check(g.Children >= 0, "genetic children %d", g.Children)
	check(g.MutationChance >= 0 && g.MutationChance <= 1, "genetic mutation_chance %v outside [0, 1]", g.MutationChance)
	check(g.MaxGenerations >= 0, "genetic max_generations %d", g.MaxGenerations)

	e := c.Episode
	_, err := episode.ParseMode(e.Mode)
	check(err == nil, "episode mode %q", e.Mode)
	check(e.StepTimeBudget > 0, "episode step_time_budget %v", e.StepTimeBudget)
	check(e.EpisodeStepCap > 0, "episode episode_step_cap %d", e.EpisodeStepCap)
	check(e.ArrivalRadius > 0 && e.ArrivalRadius < 0.5, "episode arrival_radius %v", e.ArrivalRadius)

	p := c.Physics
	check(p.DT > 0, "physics dt %v", p.DT)
	check(p.BodyRadius > 0 && p.BodyRadius < 0.5, "physics body_radius %v", p.BodyRadius)
	check(p.CellTravel > 0, "physics cell_travel %v", p.CellTravel)
	check(p.TurnSpeed > 0 && p.TravelSpeed > 0, "physics turn_speed %v, travel_speed %v", p.TurnSpeed, p.TravelSpeed)

	switch c.Storage.Backend {
	case "", "file", "memory":
	case "sqlite":
		check(c.Storage.SQLitePath != "", "storage sqlite_path is required for the sqlite backend")
	default:
		check(false, "storage backend %q", c.Storage.Backend)
	}

	return errors.Join(errs...)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
