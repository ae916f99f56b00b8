package ui

import (
	"fmt"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/M1ghtyPirate/MicroMouse/episode"
	"github.com/M1ghtyPirate/MicroMouse/maze"
	"github.com/M1ghtyPirate/MicroMouse/neural"
)

// Action is a button press on the control panel.
type Action int

const (
	ActionNone Action = iota
	ActionActivate
	ActionReset
	// ActionSave finishes training at the next repopulation.
	ActionSave
	ActionNewMaze
)

// Controls is what the panel hands back to the game each frame.
type Controls struct {
	Action      Action
	Mode        episode.Mode
	Population  int // index into PanelState.Saved; 0 is "None"
	Agent       int
	Hidden      []neural.LayerBlock // nil when the text does not parse
	Mutation    float64
	Target      maze.Cell
	ShowMarkers bool
	Speed       int // simulation steps per frame
}

// PanelState is the game state the panel needs to decide what is editable.
type PanelState struct {
	Active     bool
	CanSave    bool
	Saved      []string
	AgentCount int
	Columns    int
	Rows       int
}

// ControlDefaults seeds the panel and is restored on mode changes.
type ControlDefaults struct {
	Mode           episode.Mode
	Center         maze.Cell
	TrainingCenter maze.Cell
	Mutation       float64
	Hidden         []neural.LayerBlock
}

// ControlPanel is the raygui menu next to the maze.
type ControlPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	defaults ControlDefaults
	overlays *OverlayRegistry

	mode        int32
	population  int32
	agent       float32
	hidden      string
	editHidden  bool
	mutationPct float32
	targetX     float32
	targetY     float32
	speed       float32
}

var modeNames = []episode.Mode{episode.ModeAlgorithm, episode.ModeNeuralTraining, episode.ModeNeural}

// NewControlPanel creates a panel at (x, y). The markers checkbox is bound
// to the path-markers overlay of overlays.
func NewControlPanel(x, y, width int32, defaults ControlDefaults, overlays *OverlayRegistry) *ControlPanel {
	c := &ControlPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		defaults: defaults,
		overlays: overlays,
		speed:    1,
	}
	c.SetMode(defaults.Mode)
	return c
}

// SetMode selects a mode and restores its target cell, mutation and hidden
// layer defaults.
func (c *ControlPanel) SetMode(m episode.Mode) {
	for i, mode := range modeNames {
		if mode == m {
			c.mode = int32(i)
		}
	}
	target := c.defaults.Center
	if m == episode.ModeNeuralTraining {
		target = c.defaults.TrainingCenter
	}
	c.targetX, c.targetY = float32(target.X), float32(target.Y)
	c.mutationPct = float32(c.defaults.Mutation * 100)
	c.hidden = neural.FormatTopology(c.defaults.Hidden)
	c.agent = 0
}

// SetHidden replaces the hidden-layer text, e.g. with the topology of a
// loaded population.
func (c *ControlPanel) SetHidden(blocks []neural.LayerBlock) {
	c.hidden = neural.FormatTopology(blocks)
}

// SetTarget moves the target sliders, e.g. to a clicked cell.
func (c *ControlPanel) SetTarget(cell maze.Cell) {
	c.targetX, c.targetY = float32(cell.X), float32(cell.Y)
}

// SetPopulation selects an entry of PanelState.Saved.
func (c *ControlPanel) SetPopulation(i int) { c.population = int32(i) }

// SetSpeed sets the steps per frame slider.
func (c *ControlPanel) SetSpeed(steps int) { c.speed = float32(min(max(steps, 1), 64)) }

// Editing reports whether a text box has keyboard focus.
func (c *ControlPanel) Editing() bool { return c.editHidden }

// Values returns the current selections without drawing.
func (c *ControlPanel) Values() Controls {
	hidden, _ := neural.ParseTopology(c.hidden)
	return Controls{
		Mode:        modeNames[c.mode],
		Population:  int(c.population),
		Agent:       int(c.agent),
		Hidden:      hidden,
		Mutation:    float64(c.mutationPct) / 100,
		Target:      maze.Cell{X: int(c.targetX), Y: int(c.targetY)},
		ShowMarkers: c.overlays.IsEnabled(OverlayPathMarkers),
		Speed:       max(int(c.speed), 1),
	}
}

// Draw renders the panel and returns the selections and the pressed button.
func (c *ControlPanel) Draw(s PanelState) Controls {
	r := c.renderer
	pad := float32(r.Theme.Padding)
	x := float32(c.x) + pad
	y := float32(c.y) + pad
	w := float32(c.width) - 2*pad
	row := func(h float32) rl.Rectangle {
		rect := rl.Rectangle{X: x, Y: y, Width: w, Height: h}
		y += h + 6
		return rect
	}
	label := func(text string) {
		rl.DrawText(text, int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
		y += float32(r.Theme.LineHeight)
	}

	r.DrawPanel(c.x, c.y, c.width, 520)
	action := ActionNone
	mode := modeNames[c.mode]
	training := mode == episode.ModeNeuralTraining

	enableIf(!s.Active)
	label("Mode")
	if m := gui.ComboBox(row(24), "Algorithm;Training;Neural", c.mode); m != c.mode {
		c.mode = m
		c.population = 0
		c.SetMode(modeNames[m])
		mode = modeNames[m]
		training = mode == episode.ModeNeuralTraining
	}

	enableIf(!s.Active && mode.Neural() && len(s.Saved) > 1)
	label("Population")
	c.population = gui.ComboBox(row(24), strings.Join(s.Saved, ";"), c.population)
	if int(c.population) >= len(s.Saved) {
		c.population = 0
	}

	enableIf(!s.Active && mode == episode.ModeNeural && c.population > 0 && s.AgentCount > 1)
	label(fmt.Sprintf("Agent %d", int(c.agent)+1))
	c.agent = gui.SliderBar(row(18), "", "", c.agent, 0, float32(max(s.AgentCount-1, 0)))

	enableIf(!s.Active && training && c.population == 0)
	label("Hidden layers")
	if gui.TextBox(row(24), &c.hidden, 32, c.editHidden) {
		c.editHidden = !c.editHidden
	}

	enableIf(training)
	label(fmt.Sprintf("Mutation %.1f%%", c.mutationPct))
	c.mutationPct = gui.SliderBar(row(18), "", "", c.mutationPct, 0, 100)

	enableIf(!s.Active)
	label(fmt.Sprintf("Target [%d,%d]", int(c.targetX), int(c.targetY)))
	c.targetX = gui.SliderBar(row(18), "x", "", c.targetX, 0, float32(max(s.Columns-1, 0)))
	c.targetY = gui.SliderBar(row(18), "y", "", c.targetY, 0, float32(max(s.Rows-1, 0)))

	enableIf(true)
	markers := c.overlays.IsEnabled(OverlayPathMarkers)
	if v := gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 16, Height: 16}, "Path markers", markers); v != markers {
		c.overlays.SetEnabled(OverlayPathMarkers, v)
	}
	y += 24
	label(fmt.Sprintf("Speed %dx", int(c.speed)))
	c.speed = gui.SliderBar(row(18), "", "", c.speed, 1, 64)

	half := (w - 6) / 2
	enableIf(!s.Active)
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 30}, "Activate") {
		action = ActionActivate
	}
	enableIf(true)
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: 30}, "Reset") {
		action = ActionReset
	}
	y += 36
	enableIf(s.CanSave)
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 30}, "Save") {
		action = ActionSave
	}
	enableIf(!s.Active)
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: 30}, "New maze") {
		action = ActionNewMaze
	}
	enableIf(true)

	out := c.Values()
	out.Action = action
	return out
}

func enableIf(ok bool) {
	if ok {
		gui.Enable()
	} else {
		gui.Disable()
	}
}
