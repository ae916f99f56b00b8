package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/M1ghtyPirate/MicroMouse/maze"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	// Keys typed into the hidden-layer box are not shortcuts.
	if g.panel.Editing() {
		return
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		g.overlays.HandleKeyPress(key)
	}

	g.handleCameraInput()
	g.handleTargetClick()
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	if g.camera == nil {
		return
	}

	panSpeed := float32(8.0)

	// Arrow key panning
	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
	}

	// Wheel zoom only over the maze
	mouse := rl.GetMousePosition()
	if wheel := rl.GetMouseWheelMove(); wheel != 0 && g.camera.Contains(mouse.X, mouse.Y) {
		g.camera.ZoomBy(1 + wheel*0.1)
	}

	// Keyboard zoom with +/- (= and - keys)
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	// Home key to reset camera
	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}

// handleTargetClick moves the target to a clicked cell while idle.
func (g *Game) handleTargetClick() {
	if g.controller.Active() || !rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		return
	}
	pos := rl.GetMousePosition()
	if !g.camera.Contains(pos.X, pos.Y) {
		return
	}
	if x, y, ok := g.camera.CellAt(pos.X, pos.Y); ok {
		g.panel.SetTarget(maze.Cell{X: x, Y: y})
	}
}
