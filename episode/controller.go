// Package episode runs one mouse lifetime at a time: it feeds sensor readings
// into the maze model, chooses moves with the planner or a network, shapes
// fitness and reports deaths and reached targets.
package episode

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/M1ghtyPirate/MicroMouse/maze"
	"github.com/M1ghtyPirate/MicroMouse/neural"
)

// Mode selects who drives the mouse.
type Mode int

const (
	// ModeAlgorithm follows the flood-fill planner with discrete moves.
	ModeAlgorithm Mode = iota
	// ModeNeuralTraining drives with the genome under evaluation and shapes
	// its fitness.
	ModeNeuralTraining
	// ModeNeural drives with a fixed genome.
	ModeNeural
)

func (m Mode) String() string {
	switch m {
	case ModeAlgorithm:
		return "algorithm"
	case ModeNeuralTraining:
		return "training"
	case ModeNeural:
		return "neural"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Neural reports whether a network drives the mouse in this mode.
func (m Mode) Neural() bool { return m == ModeNeuralTraining || m == ModeNeural }

// ParseMode maps a mode name to its Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "algorithm", "algo":
		return ModeAlgorithm, nil
	case "training", "neural-training", "train":
		return ModeNeuralTraining, nil
	case "neural":
		return ModeNeural, nil
	}
	return ModeAlgorithm, fmt.Errorf("unknown mode %q", s)
}

// DeathReason says why a neural episode ended.
type DeathReason int

const (
	DeathCollision DeathReason = iota
	DeathStepTime
	DeathStepCap
	DeathNoPath
	DeathEvaluation
)

func (r DeathReason) String() string {
	switch r {
	case DeathCollision:
		return "collision"
	case DeathStepTime:
		return "step_time"
	case DeathStepCap:
		return "step_cap"
	case DeathNoPath:
		return "no_path"
	case DeathEvaluation:
		return "evaluation"
	}
	return "unknown"
}

// Sensors reports the three obstacle flags relative to the mouse.
type Sensors interface {
	Obstacles() (left, center, right bool)
}

// Pose is the physical mouse state in cell units. Cell (i, j) is centered on
// (i, j); Heading is in degrees clockwise from Forward.
type Pose struct {
	X, Y    float32
	Heading float32
	Speed   float32
}

// Actuator moves the mouse. Turn and Travel start discrete motions that run
// until Busy reports false; Drive sets continuous wheel powers in [-1, 1].
type Actuator interface {
	Turn(degrees float32)
	Travel(cells float32)
	Drive(left, right float32)
	Stop()
	Busy() bool
	Pose() Pose
	Reset(p Pose)
}

// Observer receives episode events.
type Observer interface {
	FinalTargetReached(cell maze.Cell)
	NeuralDeath(reason DeathReason)
	NoPathFound(cell maze.Cell)
	ActivationChanged(active bool)
}

// Config holds the episode parameters.
type Config struct {
	Mode           Mode
	Columns, Rows  int
	Start          maze.Cell
	StartHeading   maze.Direction
	Center         maze.Cell
	TrainingCenter maze.Cell

	// CellTravel is the distance of one discrete step.
	CellTravel float32
	// StepTimeBudget is the time allowed between two reached sub-goals.
	StepTimeBudget float32
	// EpisodeStepCap bounds the ticks of one episode.
	EpisodeStepCap int

	HeadingTolerance float32
	ArrivalRadius    float32
	HeadingReward    float32
	ApproachReward   float32
	ProgressReward   float32
}

// DefaultConfig returns the stock 16x16 parameters.
func DefaultConfig() Config {
	return Config{
		Mode:             ModeAlgorithm,
		Columns:          16,
		Rows:             16,
		StartHeading:     maze.Forward,
		Center:           maze.Cell{X: 7, Y: 7},
		TrainingCenter:   maze.Cell{X: 1, Y: 0},
		CellTravel:       1,
		StepTimeBudget:   2,
		EpisodeStepCap:   10000,
		HeadingTolerance: 5,
		ArrivalRadius:    0.1,
		HeadingReward:    0.01,
		ApproachReward:   0.01,
		ProgressReward:   0.05,
	}
}

// Controller runs episodes. It is driven from a single goroutine by Tick.
type Controller struct {
	cfg     Config
	model   *maze.Model
	sensors Sensors
	act     Actuator
	obs     Observer

	active  bool
	stopReq bool

	genome *neural.Network
	target maze.Cell

	// reached counts sub-goal cells since the last final target, or over the
	// whole episode when training.
	reached      int
	finals       int
	steps        int
	stepTime     float32
	lastDistance float32
	collided     bool
}

// NewController creates an inactive controller. obs may be nil; the model's
// observer is left to the caller.
func NewController(cfg Config, model *maze.Model, sensors Sensors, act Actuator, obs Observer) *Controller {
	c := &Controller{
		cfg:     cfg,
		model:   model,
		sensors: sensors,
		act:     act,
		obs:     obs,
		target:  cfg.Start,
	}
	return c
}

// SetObserver replaces the observer.
func (c *Controller) SetObserver(obs Observer) { c.obs = obs }

// Mode returns the control mode.
func (c *Controller) Mode() Mode { return c.cfg.Mode }

// Model returns the maze knowledge model.
func (c *Controller) Model() *maze.Model { return c.model }

// Active reports whether the controller is running episodes.
func (c *Controller) Active() bool { return c.active }

// Genome returns the genome of the current episode, or nil.
func (c *Controller) Genome() *neural.Network { return c.genome }

// Target returns the cell currently being driven to.
func (c *Controller) Target() maze.Cell { return c.target }

// Reached returns the per-episode reached counter.
func (c *Controller) Reached() int { return c.reached }

// FinalsReached returns how many final targets were reached this episode.
func (c *Controller) FinalsReached() int { return c.finals }

// Steps returns the ticks spent in this episode.
func (c *Controller) Steps() int { return c.steps }

// Center returns the far target of the current mode.
func (c *Controller) Center() maze.Cell {
	if c.cfg.Mode == ModeNeuralTraining {
		return c.cfg.TrainingCenter
	}
	return c.cfg.Center
}

// SetCenter moves the far target of the current mode. It takes effect on the
// next Reset.
func (c *Controller) SetCenter(cell maze.Cell) {
	if c.cfg.Mode == ModeNeuralTraining {
		c.cfg.TrainingCenter = cell
		return
	}
	c.cfg.Center = cell
}

// Reset starts a fresh episode for genome. Knowledge, pose and counters are
// cleared. The controller keeps genome only until the episode ends.
func (c *Controller) Reset(genome *neural.Network) {
	c.genome = genome
	c.reached = 0
	c.finals = 0
	c.steps = 0
	c.stepTime = 0
	c.lastDistance = -1
	c.collided = false

	c.model.Reset(c.cfg.Start, c.cfg.StartHeading)
	c.act.Reset(Pose{
		X:       float32(c.cfg.Start.X),
		Y:       float32(c.cfg.Start.Y),
		Heading: c.cfg.StartHeading.Degrees(),
	})
	c.retarget(c.Center())
}

// Activate starts running episodes.
func (c *Controller) Activate() {
	c.stopReq = false
	if c.active {
		return
	}
	c.active = true
	if c.obs != nil {
		c.obs.ActivationChanged(true)
	}
}

// Stop requests the controller to go inactive. Discrete motions in flight
// finish first.
func (c *Controller) Stop() {
	if c.active {
		c.stopReq = true
	}
}

// NotifyCollision reports a collision with a wall. It ends neural episodes on
// the next tick and is ignored by the planner.
func (c *Controller) NotifyCollision() {
	if c.cfg.Mode.Neural() {
		c.collided = true
	}
}

func (c *Controller) deactivate() {
	c.active = false
	c.stopReq = false
	c.act.Stop()
	if c.obs != nil {
		c.obs.ActivationChanged(false)
	}
}

// Tick advances the episode by dt seconds.
func (c *Controller) Tick(dt float32) {
	if !c.active {
		return
	}
	if c.stopReq && (c.cfg.Mode.Neural() || !c.act.Busy()) {
		c.deactivate()
		return
	}
	if c.cfg.Mode.Neural() {
		c.tickNeural(dt)
		return
	}
	c.tickAlgorithm()
}

// retarget replans toward target. An invalid target is logged and leaves the
// previous plan in place.
func (c *Controller) retarget(target maze.Cell) bool {
	if err := c.model.RecomputeDirectionField(target); err != nil {
		slog.Warn("retarget failed", "target", target, "error", err)
		return false
	}
	c.target = target
	return true
}

func (c *Controller) replanIfBlocked() {
	if c.model.PlanConflicts() {
		c.retarget(c.target)
	}
}

// swapTarget alternates between the center and the start cell after a final
// target has been reached.
func (c *Controller) swapTarget() {
	reached := c.target
	next := c.Center()
	if reached == next {
		next = c.cfg.Start
	}
	c.retarget(next)
	c.finals++

	// Training keeps counting sub-goals across targets for fitness.
	if c.cfg.Mode != ModeNeuralTraining {
		c.reached = 0
		c.steps = 0
	}
	slog.Debug("final target reached", "cell", reached, "next", next, "mode", c.cfg.Mode)
	if c.obs != nil {
		c.obs.FinalTargetReached(reached)
	}
}

// noPath reports whether a None field entry at the current cell means the
// target cannot be reached from here. Any axis mismatch counts as away from
// the target; this is the chosen policy, not either single-axis variant.
func (c *Controller) noPath() bool {
	cur := c.model.Position()
	return cur.X != c.target.X || cur.Y != c.target.Y
}

func (c *Controller) tickAlgorithm() {
	if c.act.Busy() {
		return
	}

	left, center, right := c.sensors.Obstacles()
	c.model.RecordLocalWalls(left, center, right, c.model.Heading())
	c.replanIfBlocked()

	cur := c.model.Position()
	heading := c.model.Heading()
	next := c.model.Next(cur)

	if next == maze.None {
		if c.noPath() {
			c.act.Turn(90)
			c.model.SetHeading(heading.RotateRight())
			slog.Debug("no path found", "cell", cur, "target", c.target)
			if c.obs != nil {
				c.obs.NoPathFound(cur)
			}
			return
		}
		c.swapTarget()
		return
	}

	if next != heading {
		c.act.Turn(heading.TurnTo(next))
		c.model.SetHeading(next)
		return
	}

	c.act.Travel(c.cfg.CellTravel)
	c.model.Advance()
	c.reached++
}

// die ends the neural episode. The genome is released before observers run so
// they can hand out the next one from inside the callback.
func (c *Controller) die(reason DeathReason) {
	c.act.Stop()
	var fitness float32
	if c.genome != nil {
		fitness = c.genome.Fitness
	}
	slog.Debug("neural death",
		"reason", reason,
		"fitness", fitness,
		"reached", c.reached,
		"steps", c.steps,
	)
	c.genome = nil
	if c.obs != nil {
		c.obs.NeuralDeath(reason)
	}
}

// senseAligned records walls when the mouse sits near its believed cell
// center and points along a cardinal, which is when the flags line up with
// cell edges.
func (c *Controller) senseAligned(p Pose) {
	cur := c.model.Position()
	dx := p.X - float32(cur.X)
	dy := p.Y - float32(cur.Y)
	if dx*dx+dy*dy > c.cfg.ArrivalRadius*c.cfg.ArrivalRadius*4 {
		return
	}
	heading := maze.FromDegrees(p.Heading)
	if abs32(angleDiff(heading.Degrees(), p.Heading)) > c.cfg.HeadingTolerance {
		return
	}
	c.model.SetHeading(heading)
	left, center, right := c.sensors.Obstacles()
	c.model.RecordLocalWalls(left, center, right, heading)
}

func (c *Controller) tickNeural(dt float32) {
	if c.genome == nil {
		return
	}
	c.steps++
	c.stepTime += dt

	switch {
	case c.collided:
		c.die(DeathCollision)
		return
	case c.stepTime > c.cfg.StepTimeBudget:
		c.die(DeathStepTime)
		return
	case c.steps > c.cfg.EpisodeStepCap:
		c.die(DeathStepCap)
		return
	}

	pose := c.act.Pose()
	c.senseAligned(pose)
	c.replanIfBlocked()

	cur := c.model.Position()
	next := c.model.Next(cur)
	if next == maze.None {
		if c.noPath() {
			if c.obs != nil {
				c.obs.NoPathFound(cur)
			}
			c.die(DeathNoPath)
			return
		}
		c.swapTarget()
		next = c.model.Next(cur)
		if next == maze.None {
			c.die(DeathNoPath)
			return
		}
	}

	goal := cur.Step(next)
	distance, bearing := relative(pose, goal)
	out, err := c.genome.Evaluate([]float32{distance, bearing / 180, pose.Speed})
	if err != nil {
		slog.Warn("genome evaluation failed", "error", err)
		c.die(DeathEvaluation)
		return
	}
	c.act.Drive(out[0], out[1])

	if c.cfg.Mode == ModeNeuralTraining {
		c.shapeFitness(distance, bearing)
	}
	c.lastDistance = distance

	if distance < c.cfg.ArrivalRadius {
		c.model.SetPosition(goal)
		c.reached++
		c.stepTime = 0
		c.lastDistance = -1
		if goal == c.target {
			c.swapTarget()
		}
	}
}

// shapeFitness adds the dense per-tick rewards of a training episode.
func (c *Controller) shapeFitness(distance, bearing float32) {
	if abs32(bearing) < c.cfg.HeadingTolerance {
		c.genome.Fitness += c.cfg.HeadingReward
	}
	if c.lastDistance >= 0 && distance < c.lastDistance {
		c.genome.Fitness += c.cfg.ApproachReward
	}
	if c.reached > 1 {
		c.genome.Fitness += c.cfg.ProgressReward * float32(c.reached)
	}
}

// relative returns the distance from p to the center of cell and the signed
// turn in degrees, in (-180, 180], that would face it.
func relative(p Pose, cell maze.Cell) (distance, bearing float32) {
	dx := float64(float32(cell.X) - p.X)
	dy := float64(float32(cell.Y) - p.Y)
	distance = float32(math.Hypot(dx, dy))
	if distance == 0 {
		return 0, 0
	}
	want := float32(math.Atan2(dx, dy) * 180 / math.Pi)
	return distance, angleDiff(want, p.Heading)
}

// angleDiff returns a-b wrapped to (-180, 180].
func angleDiff(a, b float32) float32 {
	d := maze.NormalizeDegrees(a - b)
	if d > 180 {
		d -= 360
	}
	return d
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
