// Package renderer draws the maze scene. View collects what the observers
// report, so drawing never reads the live model or the genetic manager.
package renderer

import (
	"slices"

	"github.com/M1ghtyPirate/MicroMouse/episode"
	"github.com/M1ghtyPirate/MicroMouse/maze"
)

// View holds copies of the state reported by the maze model, the genetic
// manager and the episode controller.
type View struct {
	columns, rows int

	learned []maze.Direction
	field   []maze.Direction
	steps   []int // steps to target along the field, -1 when unknown
	from    maze.Cell

	generation int
	genome     int
	population int
	top        []float32
	complete   bool

	active    bool
	lastDeath string
	finals    int
	noPath    bool
	noPathAt  maze.Cell
}

// NewView creates a view for a columns x rows maze.
func NewView(columns, rows int) *View {
	v := &View{}
	v.Reset(columns, rows)
	return v
}

// Reset forgets everything learned about the maze, keeping training
// progress.
func (v *View) Reset(columns, rows int) {
	n := columns * rows
	v.columns, v.rows = columns, rows
	v.learned = make([]maze.Direction, n)
	v.field = make([]maze.Direction, n)
	v.steps = make([]int, n)
	for i := range v.steps {
		v.steps[i] = -1
	}
	v.noPath = false
}

// ResetTraining clears the generation counters and the fitness list.
func (v *View) ResetTraining() {
	v.generation, v.genome, v.population = 0, 0, 0
	v.top = nil
	v.complete = false
	v.lastDeath = ""
}

func (v *View) inBounds(c maze.Cell) bool {
	return c.X >= 0 && c.X < v.columns && c.Y >= 0 && c.Y < v.rows
}

// WallsUpdated implements maze.Observer.
func (v *View) WallsUpdated(cell maze.Cell, walls maze.Direction) {
	if v.inBounds(cell) {
		v.learned[cell.X+cell.Y*v.columns] = walls
	}
}

// PathRecalculated implements maze.Observer.
func (v *View) PathRecalculated(from maze.Cell, field []maze.Direction) {
	if len(field) != len(v.field) {
		return
	}
	copy(v.field, field)
	v.from = from
	v.noPath = false
	for i := range v.steps {
		v.steps[i] = -1
		if field[i] == maze.None {
			continue
		}
		path := maze.FollowField(v.field, v.columns, v.rows, maze.Cell{X: i % v.columns, Y: i / v.columns})
		v.steps[i] = len(path) - 1
	}
}

// NextAgent implements genetic.Observer.
func (v *View) NextAgent(generation, index, size int) {
	v.generation, v.genome, v.population = generation, index, size
}

// Repopulated implements genetic.Observer.
func (v *View) Repopulated(topFitnesses []float32) {
	v.top = slices.Clone(topFitnesses)
}

// TrainingComplete implements genetic.Observer.
func (v *View) TrainingComplete() {
	v.complete = true
}

// FinalTargetReached implements episode.Observer.
func (v *View) FinalTargetReached(maze.Cell) {
	v.finals++
}

// NeuralDeath implements episode.Observer.
func (v *View) NeuralDeath(reason episode.DeathReason) {
	v.lastDeath = reason.String()
}

// NoPathFound implements episode.Observer.
func (v *View) NoPathFound(cell maze.Cell) {
	v.noPath = true
	v.noPathAt = cell
}

// ActivationChanged implements episode.Observer.
func (v *View) ActivationChanged(active bool) {
	v.active = active
}

// LearnedWalls returns the walls the mouse has recorded for c.
func (v *View) LearnedWalls(c maze.Cell) maze.Direction {
	if !v.inBounds(c) {
		return maze.None
	}
	return v.learned[c.X+c.Y*v.columns]
}

// Steps returns how many field steps separate c from the target, or -1.
func (v *View) Steps(c maze.Cell) int {
	if !v.inBounds(c) {
		return -1
	}
	return v.steps[c.X+c.Y*v.columns]
}

// Path follows the last reported field from c.
func (v *View) Path(c maze.Cell) []maze.Cell {
	return maze.FollowField(v.field, v.columns, v.rows, c)
}

// Generation returns generation, genome index and population size as last
// reported.
func (v *View) Generation() (generation, genome, population int) {
	return v.generation, v.genome, v.population
}

// TopFitnesses returns the best-agents fitness list of the last
// repopulation.
func (v *View) TopFitnesses() []float32 { return v.top }

// Complete reports whether training has finished.
func (v *View) Complete() bool { return v.complete }

// Active reports whether the episode is running.
func (v *View) Active() bool { return v.active }

// LastDeath names the reason the last genome died, or "".
func (v *View) LastDeath() string { return v.lastDeath }

// FinalsReached counts final-target arrivals seen since start.
func (v *View) FinalsReached() int { return v.finals }

// NoPath reports whether the last planning failed and where.
func (v *View) NoPath() (maze.Cell, bool) { return v.noPathAt, v.noPath }
