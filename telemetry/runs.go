package telemetry

import (
	"fmt"

	"github.com/M1ghtyPirate/MicroMouse/maze"
)

// RunState is what the tracker samples from the episode controller each tick.
type RunState struct {
	Training bool
	From     maze.Cell
	To       maze.Cell
	Reached  int
}

// RunRecord is one finished run between the start cell and the center.
type RunRecord struct {
	Run            int     `csv:"run"`
	FromX          int     `csv:"from_x"`
	FromY          int     `csv:"from_y"`
	ToX            int     `csv:"to_x"`
	ToY            int     `csv:"to_y"`
	Seconds        float64 `csv:"seconds"`
	TargetsReached int     `csv:"targets_reached"`
}

// String formats the record as "run [x,y]-[x,y] seconds targets".
func (r RunRecord) String() string {
	return fmt.Sprintf("%d [%d,%d]-[%d,%d] %.2f %d", r.Run, r.FromX, r.FromY, r.ToX, r.ToY, r.Seconds, r.TargetsReached)
}

// RunTracker times runs. A run opens when the mouse is activated and closes
// at every final target outside of training, so a session reads as a list of
// start-to-center and center-to-start legs.
type RunTracker struct {
	run     int
	running bool
	elapsed float64
	last    RunState
	history []RunRecord
}

func NewRunTracker() *RunTracker {
	return &RunTracker{}
}

// Tick advances the open run's timer and samples state.
func (t *RunTracker) Tick(dt float64, s RunState) {
	if !t.running {
		return
	}
	t.elapsed += dt
	t.last = s
}

// ActivationChanged clears the history and opens run 1 on activation, and
// stops the timer on deactivation.
func (t *RunTracker) ActivationChanged(active bool) {
	if !active {
		t.running = false
		t.elapsed = 0
		return
	}
	t.history = nil
	t.run = 0
	t.last = RunState{}
	t.startRun()
}

// FinalTargetReached closes the open run and starts the next one. It returns
// the closed record, or false in training or when no run was open.
func (t *RunTracker) FinalTargetReached(cell maze.Cell) (RunRecord, bool) {
	if t.last.Training || !t.running {
		return RunRecord{}, false
	}
	t.last.To = cell
	rec := t.current()
	t.history = append(t.history, rec)
	t.startRun()
	return rec, true
}

func (t *RunTracker) startRun() {
	t.run++
	t.elapsed = 0
	t.running = true
}

func (t *RunTracker) current() RunRecord {
	return RunRecord{
		Run:            t.run,
		FromX:          t.last.From.X,
		FromY:          t.last.From.Y,
		ToX:            t.last.To.X,
		ToY:            t.last.To.Y,
		Seconds:        t.elapsed,
		TargetsReached: t.last.Reached,
	}
}

// Running reports whether a run is being timed.
func (t *RunTracker) Running() bool { return t.running }

// CurrentText is the live line for the open run. Training shows the timer
// only.
func (t *RunTracker) CurrentText() string {
	if !t.running {
		return ""
	}
	if t.last.Training {
		return fmt.Sprintf("%.2f", t.elapsed)
	}
	return t.current().String()
}

// History returns finished runs, newest first.
func (t *RunTracker) History() []RunRecord {
	out := make([]RunRecord, len(t.history))
	for i, r := range t.history {
		out[len(out)-1-i] = r
	}
	return out
}
