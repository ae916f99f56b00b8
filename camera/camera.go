// Package camera maps maze coordinates onto the screen. Maze units are cells:
// cell (x, y) is centered on (x, y) and Y grows upwards, so the camera flips
// the vertical axis.
package camera

import "math"

// Camera controls the viewport onto the maze. Supports pan and zoom.
type Camera struct {
	// Position is the camera center in cell coordinates
	X, Y float32

	// Zoom is pixels per cell
	Zoom float32

	// Viewport rectangle on screen
	ViewportX, ViewportY float32
	ViewportW, ViewportH float32

	// Maze size in cells
	Columns, Rows float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera that fits a columns x rows maze into the viewport.
func New(viewportX, viewportY, viewportW, viewportH float32, columns, rows int) *Camera {
	c := &Camera{
		ViewportX: viewportX,
		ViewportY: viewportY,
		ViewportW: viewportW,
		ViewportH: viewportH,
		Columns:   float32(columns),
		Rows:      float32(rows),
	}
	c.Reset()
	return c
}

// fitZoom is the zoom at which the whole maze, walls included, is visible.
func (c *Camera) fitZoom() float32 {
	return min(c.ViewportW/c.Columns, c.ViewportH/c.Rows)
}

// WorldToScreen converts cell coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	sx = c.ViewportX + c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.ViewportY + c.ViewportH/2 - (wy-c.Y)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to cell coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	wx = c.X + (sx-c.ViewportX-c.ViewportW/2)/c.Zoom
	wy = c.Y - (sy-c.ViewportY-c.ViewportH/2)/c.Zoom
	return wx, wy
}

// CellAt returns the cell under a screen point and whether it lies inside
// the maze.
func (c *Camera) CellAt(sx, sy float32) (x, y int, ok bool) {
	wx, wy := c.ScreenToWorld(sx, sy)
	x = int(math.Floor(float64(wx) + 0.5))
	y = int(math.Floor(float64(wy) + 0.5))
	ok = x >= 0 && y >= 0 && float32(x) < c.Columns && float32(y) < c.Rows
	return x, y, ok
}

// Contains reports whether a screen point lies inside the viewport.
func (c *Camera) Contains(sx, sy float32) bool {
	return sx >= c.ViewportX && sx < c.ViewportX+c.ViewportW &&
		sy >= c.ViewportY && sy < c.ViewportY+c.ViewportH
}

// IsVisible returns true if a circle at (wx, wy) with given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return absf(wx-c.X) <= halfW && absf(wy-c.Y) <= halfH
}

// Resize updates the viewport and recalculates zoom constraints.
func (c *Camera) Resize(viewportX, viewportY, viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH &&
		viewportX == c.ViewportX && viewportY == c.ViewportY {
		return
	}
	c.ViewportX, c.ViewportY = viewportX, viewportY
	c.ViewportW, c.ViewportH = viewportW, viewportH
	fit := c.fitZoom()
	c.MinZoom = fit / 2
	c.MaxZoom = fit * 4
	c.SetZoom(c.Zoom)
}

// Pan moves the camera by the given delta in screen pixels. The center stays
// within the maze.
func (c *Camera) Pan(dx, dy float32) {
	c.X = clamp(c.X+dx/c.Zoom, -0.5, c.Columns-0.5)
	c.Y = clamp(c.Y-dy/c.Zoom, -0.5, c.Rows-0.5)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset centers the maze and zooms to fit it.
func (c *Camera) Reset() {
	c.X = (c.Columns - 1) / 2
	c.Y = (c.Rows - 1) / 2
	fit := c.fitZoom()
	c.MinZoom = fit / 2
	c.MaxZoom = fit * 4
	c.Zoom = fit
}

// VisibleWorldBounds returns the cell-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)
	return c.X - halfW, c.Y - halfH, c.X + halfW, c.Y + halfH
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
