// Maze preview tool - generate layouts interactively and export them for
// maze.layout_file.
//
// Usage: go run ./cmd/mazepreview
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/M1ghtyPirate/MicroMouse/camera"
	"github.com/M1ghtyPirate/MicroMouse/maze"
	"github.com/M1ghtyPirate/MicroMouse/renderer"
	"github.com/M1ghtyPirate/MicroMouse/sim"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 640
	panelWidth   = windowWidth - previewSize - 30
)

// LayoutParams holds the generator inputs.
type LayoutParams struct {
	Columns int
	Rows    int
	Loops   int
	Seed    int64
}

var defaultParams = LayoutParams{Columns: 16, Rows: 16, Loops: 12, Seed: 42}

// preview is a generated layout with its fully known model.
type preview struct {
	params LayoutParams
	layout *sim.Layout
	model  *maze.Model
	view   *renderer.View
	cam    *camera.Camera
	center maze.Cell
}

func build(p LayoutParams) *preview {
	layout := sim.GenerateLayout(p.Columns, p.Rows, p.Loops, rand.New(rand.NewSource(p.Seed)))
	view := renderer.NewView(p.Columns, p.Rows)
	center := maze.Cell{X: (p.Columns - 1) / 2, Y: (p.Rows - 1) / 2}
	return &preview{
		params: p,
		layout: layout,
		model:  knownModel(layout, center, view),
		view:   view,
		cam:    camera.New(10, 10, previewSize, previewSize, p.Columns, p.Rows),
		center: center,
	}
}

// knownModel returns a model that knows every wall of layout, with the
// direction field flooded from target.
func knownModel(layout *sim.Layout, target maze.Cell, obs maze.Observer) *maze.Model {
	m := maze.NewModel(layout.Columns(), layout.Rows(), obs)
	for y := 0; y < layout.Rows(); y++ {
		for x := 0; x < layout.Columns(); x++ {
			c := maze.Cell{X: x, Y: y}
			if w := layout.Walls(c); w != maze.None {
				if err := m.AddWall(c, w); err != nil {
					slog.Warn("skipping wall", "cell", c, "error", err)
				}
			}
		}
	}
	_ = m.RecomputeDirectionField(target)
	return m
}

// unreachable counts the cells the field does not lead from.
func unreachable(m *maze.Model, target maze.Cell) int {
	n := 0
	field := m.Field()
	for i, d := range field {
		c := maze.Cell{X: i % m.Columns(), Y: i / m.Columns()}
		if d == maze.None && c != target {
			n++
		}
	}
	return n
}

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Maze Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	params := defaultParams
	p := build(params)
	status := ""

	for !rl.WindowShouldClose() {
		if params != p.params {
			p = build(params)
			status = ""
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)

		p.view.Draw(p.cam, renderer.Scene{
			Layout:     p.layout,
			Target:     p.center,
			Center:     p.center,
			BodyRadius: 0.3,
		}, renderer.Layers{TrueWalls: true, PathMarkers: true, DistanceField: true})

		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("Steps start -> center: %d  Unreachable cells: %d",
			p.view.Steps(maze.Cell{}), unreachable(p.model, p.center)), 15, statsY, 16, rl.LightGray)
		rl.DrawText(status, 15, statsY+20, 16, rl.Gray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Layout Parameters", int32(panelX), int32(panelY), 20, rl.LightGray)
		panelY += 35

		params.Columns = int(slider(panelX, &panelY, "Columns", float32(params.Columns), 2, 32, "%.0f"))
		params.Rows = int(slider(panelX, &panelY, "Rows", float32(params.Rows), 2, 32, "%.0f"))
		params.Loops = int(slider(panelX, &panelY, "Loops (extra openings)", float32(params.Loops), 0, 64, "%.0f"))
		params.Seed = int64(slider(panelX, &panelY, "Seed", float32(params.Seed), 0, 99999, "%.0f"))
		panelY += 10

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = int64(rl.GetRandomValue(0, 99999))
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaultParams
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 250, Height: 30}, "Save Layout (S)") || rl.IsKeyPressed(rl.KeyS) {
			status = save(p)
		}
		panelY += 55

		// Output YAML
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.LightGray)
		panelY += 25
		for _, line := range yamlLines(params) {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.DarkGray)
		if rl.IsKeyPressed(rl.KeyC) {
			text := ""
			for _, line := range yamlLines(params) {
				text += line + "\n"
			}
			rl.SetClipboardText(text)
		}

		rl.EndDrawing()
	}
}

func slider(x float32, y *float32, label string, value, lo, hi float32, format string) float32 {
	rl.DrawText(label, int32(x), int32(*y), 14, rl.Gray)
	*y += 18
	v := gui.SliderBar(
		rl.Rectangle{X: x, Y: *y, Width: float32(panelWidth - 80), Height: 20},
		fmt.Sprintf(format, lo), fmt.Sprintf(format, hi),
		value, lo, hi,
	)
	rl.DrawText(fmt.Sprintf(format, value), int32(x+float32(panelWidth-70)), int32(*y+2), 16, rl.LightGray)
	*y += 35
	return v
}

func yamlLines(p LayoutParams) []string {
	return []string{
		"maze:",
		fmt.Sprintf("  columns: %d", p.Columns),
		fmt.Sprintf("  rows: %d", p.Rows),
		fmt.Sprintf("  loops: %d", p.Loops),
		fmt.Sprintf("  seed: %d", p.Seed),
	}
}

// save writes the layout in the text format maze.layout_file reads.
func save(p *preview) string {
	name := fmt.Sprintf("maze_%dx%d_%d.txt", p.params.Columns, p.params.Rows, p.params.Seed)
	if err := os.WriteFile(name, []byte(p.layout.String()), 0644); err != nil {
		return "save failed: " + err.Error()
	}
	return "saved " + name
}
