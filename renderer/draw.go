package renderer

import (
	"math"
	"strconv"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/M1ghtyPirate/MicroMouse/camera"
	"github.com/M1ghtyPirate/MicroMouse/episode"
	"github.com/M1ghtyPirate/MicroMouse/maze"
	"github.com/M1ghtyPirate/MicroMouse/sim"
)

// Colors used by the maze scene.
var (
	ColorFloor       = rl.Color{R: 18, G: 22, B: 28, A: 255}
	ColorGrid        = rl.Color{R: 34, G: 40, B: 48, A: 255}
	ColorTrueWall    = rl.Color{R: 90, G: 100, B: 115, A: 255}
	ColorLearnedWall = rl.Color{R: 230, G: 90, B: 70, A: 255}
	ColorPath        = rl.Color{R: 90, G: 200, B: 120, A: 200}
	ColorTarget      = rl.Color{R: 240, G: 200, B: 60, A: 90}
	ColorStart       = rl.Color{R: 80, G: 140, B: 230, A: 90}
	ColorMouse       = rl.Color{R: 235, G: 235, B: 235, A: 255}
	ColorSensorClear = rl.Color{R: 120, G: 220, B: 255, A: 160}
	ColorSensorHit   = rl.Color{R: 255, G: 80, B: 80, A: 220}
	ColorNoPath      = rl.Color{R: 255, G: 40, B: 40, A: 120}
)

// Scene is the live state drawn on top of the view's copies.
type Scene struct {
	Layout      *sim.Layout
	Pose        episode.Pose
	Current     maze.Cell
	Start       maze.Cell
	Target      maze.Cell
	Center      maze.Cell
	BodyRadius  float32
	SensorRange float32
	Obstacle    bool // center sensor blocked
}

// Layers selects what Draw renders.
type Layers struct {
	TrueWalls     bool
	LearnedWalls  bool
	PathMarkers   bool
	DistanceField bool
	Sensor        bool
}

// Draw renders the maze scene into the camera viewport.
func (v *View) Draw(cam *camera.Camera, s Scene, layers Layers) {
	rl.BeginScissorMode(int32(cam.ViewportX), int32(cam.ViewportY), int32(cam.ViewportW), int32(cam.ViewportH))
	defer rl.EndScissorMode()

	v.drawFloor(cam, s)
	if layers.DistanceField {
		v.drawDistances(cam)
	}
	if layers.PathMarkers {
		v.drawPath(cam, s.Current)
	}
	if layers.TrueWalls && s.Layout != nil {
		v.drawWalls(cam, s.Layout.Walls, 1.5, ColorTrueWall)
	}
	if layers.LearnedWalls {
		v.drawWalls(cam, v.LearnedWalls, 3, ColorLearnedWall)
	}
	if at, ok := v.NoPath(); ok {
		fillCell(cam, at, ColorNoPath)
	}
	if layers.Sensor {
		drawSensor(cam, s)
	}
	drawMouse(cam, s)
}

func (v *View) drawFloor(cam *camera.Camera, s Scene) {
	x0, y0 := cam.WorldToScreen(-0.5, float32(v.rows)-0.5)
	rl.DrawRectangleV(rl.Vector2{X: x0, Y: y0},
		rl.Vector2{X: float32(v.columns) * cam.Zoom, Y: float32(v.rows) * cam.Zoom}, ColorFloor)

	for x := 0; x <= v.columns; x++ {
		line(cam, float32(x)-0.5, -0.5, float32(x)-0.5, float32(v.rows)-0.5, 1, ColorGrid)
	}
	for y := 0; y <= v.rows; y++ {
		line(cam, -0.5, float32(y)-0.5, float32(v.columns)-0.5, float32(y)-0.5, 1, ColorGrid)
	}

	fillCell(cam, s.Start, ColorStart)
	fillCell(cam, s.Center, ColorTarget)
	if s.Target != s.Center {
		fillCell(cam, s.Target, ColorTarget)
	}
}

// drawWalls draws the Forward and Right walls of every cell plus the
// Backward and Left walls on the outer rows, so shared edges draw once.
func (v *View) drawWalls(cam *camera.Camera, walls func(maze.Cell) maze.Direction, thick float32, color rl.Color) {
	for y := 0; y < v.rows; y++ {
		for x := 0; x < v.columns; x++ {
			c := maze.Cell{X: x, Y: y}
			if !cam.IsVisible(float32(x), float32(y), 1) {
				continue
			}
			w := walls(c)
			cx, cy := float32(x), float32(y)
			if w&maze.Forward != 0 {
				line(cam, cx-0.5, cy+0.5, cx+0.5, cy+0.5, thick, color)
			}
			if w&maze.Right != 0 {
				line(cam, cx+0.5, cy-0.5, cx+0.5, cy+0.5, thick, color)
			}
			if y == 0 && w&maze.Backward != 0 {
				line(cam, cx-0.5, cy-0.5, cx+0.5, cy-0.5, thick, color)
			}
			if x == 0 && w&maze.Left != 0 {
				line(cam, cx-0.5, cy-0.5, cx-0.5, cy+0.5, thick, color)
			}
		}
	}
}

func (v *View) drawPath(cam *camera.Camera, from maze.Cell) {
	path := v.Path(from)
	radius := max(cam.Zoom*0.08, 2)
	for i, c := range path {
		sx, sy := cam.WorldToScreen(float32(c.X), float32(c.Y))
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, radius, ColorPath)
		if i > 0 {
			p := path[i-1]
			line(cam, float32(p.X), float32(p.Y), float32(c.X), float32(c.Y), 1.5, ColorPath)
		}
	}
}

func (v *View) drawDistances(cam *camera.Camera) {
	size := int32(max(cam.Zoom*0.3, 8))
	for y := 0; y < v.rows; y++ {
		for x := 0; x < v.columns; x++ {
			c := maze.Cell{X: x, Y: y}
			steps := v.Steps(c)
			if steps <= 0 {
				continue
			}
			text := strconv.Itoa(steps)
			sx, sy := cam.WorldToScreen(float32(x), float32(y))
			w := rl.MeasureText(text, size)
			rl.DrawText(text, int32(sx)-w/2, int32(sy)-size/2, size, ColorPath)
		}
	}
}

func drawMouse(cam *camera.Camera, s Scene) {
	sx, sy := cam.WorldToScreen(s.Pose.X, s.Pose.Y)
	r := s.BodyRadius * cam.Zoom
	rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, r, ColorMouse)

	hx, hy := headingVector(s.Pose.Heading)
	tip := rl.Vector2{X: sx + hx*r, Y: sy - hy*r}
	rl.DrawLineEx(rl.Vector2{X: sx, Y: sy}, tip, 2, ColorFloor)
}

func drawSensor(cam *camera.Camera, s Scene) {
	hx, hy := headingVector(s.Pose.Heading)
	color := ColorSensorClear
	if s.Obstacle {
		color = ColorSensorHit
	}
	line(cam, s.Pose.X, s.Pose.Y, s.Pose.X+hx*s.SensorRange, s.Pose.Y+hy*s.SensorRange, 1, color)
}

// headingVector returns the unit vector of a heading in degrees clockwise
// from +Y.
func headingVector(deg float32) (x, y float32) {
	rad := float64(deg) * math.Pi / 180
	return float32(math.Sin(rad)), float32(math.Cos(rad))
}

func fillCell(cam *camera.Camera, c maze.Cell, color rl.Color) {
	x, y := cam.WorldToScreen(float32(c.X)-0.5, float32(c.Y)+0.5)
	rl.DrawRectangleV(rl.Vector2{X: x, Y: y}, rl.Vector2{X: cam.Zoom, Y: cam.Zoom}, color)
}

func line(cam *camera.Camera, x0, y0, x1, y1, thick float32, color rl.Color) {
	sx0, sy0 := cam.WorldToScreen(x0, y0)
	sx1, sy1 := cam.WorldToScreen(x1, y1)
	rl.DrawLineEx(rl.Vector2{X: sx0, Y: sy0}, rl.Vector2{X: sx1, Y: sy1}, thick, color)
}
