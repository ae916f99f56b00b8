package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNewFitsMaze(t *testing.T) {
	cam := New(0, 0, 800, 640, 16, 16)

	if cam.X != 7.5 || cam.Y != 7.5 {
		t.Errorf("expected camera at (7.5, 7.5), got (%f, %f)", cam.X, cam.Y)
	}
	// min(800/16, 640/16) = 40 pixels per cell
	if cam.Zoom != 40 {
		t.Errorf("expected zoom 40, got %f", cam.Zoom)
	}
}

func TestYAxisPointsUp(t *testing.T) {
	cam := New(0, 0, 640, 640, 16, 16)

	_, lowY := cam.WorldToScreen(0, 0)
	_, highY := cam.WorldToScreen(0, 15)
	if lowY <= highY {
		t.Errorf("row 0 should be drawn below row 15, got y=%f and y=%f", lowY, highY)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(100, 50, 640, 640, 16, 16)

	testCases := []struct{ sx, sy float32 }{
		{420, 370}, // center
		{110, 60},  // top-left
		{700, 650}, // near bottom-right
	}
	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestCellAt(t *testing.T) {
	cam := New(0, 0, 640, 640, 16, 16)

	sx, sy := cam.WorldToScreen(3.2, 11.8)
	x, y, ok := cam.CellAt(sx, sy)
	if !ok || x != 3 || y != 12 {
		t.Errorf("CellAt = (%d, %d, %v), want (3, 12, true)", x, y, ok)
	}

	sx, sy = cam.WorldToScreen(-2, 4)
	if _, _, ok := cam.CellAt(sx, sy); ok {
		t.Error("point left of the maze should not map to a cell")
	}
}

func TestPanStaysInMaze(t *testing.T) {
	cam := New(0, 0, 640, 640, 16, 16)

	cam.Pan(-10000, 0)
	if cam.X != -0.5 {
		t.Errorf("expected X clamped to -0.5, got %f", cam.X)
	}
	cam.Pan(0, -10000) // screen up is maze up
	if cam.Y != 15.5 {
		t.Errorf("expected Y clamped to 15.5, got %f", cam.Y)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(0, 0, 640, 640, 16, 16)

	cam.SetZoom(1)
	if cam.Zoom != 20 {
		t.Errorf("expected zoom clamped to 20, got %f", cam.Zoom)
	}
	cam.SetZoom(1000)
	if cam.Zoom != 160 {
		t.Errorf("expected zoom clamped to 160, got %f", cam.Zoom)
	}
}

func TestResizeRefits(t *testing.T) {
	cam := New(0, 0, 640, 640, 16, 16)
	cam.Resize(0, 0, 320, 320)

	if cam.MaxZoom != 80 {
		t.Errorf("expected MaxZoom 80, got %f", cam.MaxZoom)
	}
	if cam.Zoom != 40 {
		t.Errorf("expected zoom to stay at 40, got %f", cam.Zoom)
	}
	if !cam.Contains(10, 10) || cam.Contains(400, 10) {
		t.Error("Contains should follow the new viewport")
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(0, 0, 640, 640, 16, 16)
	cam.SetZoom(80) // 8x8 cells visible around (7.5, 7.5)

	if !cam.IsVisible(7.5, 7.5, 0.5) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(0, 0, 0.5) {
		t.Error("corner should be outside the zoomed view")
	}
	if !cam.IsVisible(3, 7.5, 0.5) {
		t.Error("cell on the view edge should be visible")
	}
}

func TestReset(t *testing.T) {
	cam := New(0, 0, 640, 640, 16, 16)
	cam.Pan(100, 100)
	cam.ZoomBy(2)

	cam.Reset()

	if cam.X != 7.5 || cam.Y != 7.5 || cam.Zoom != 40 {
		t.Errorf("expected (7.5, 7.5) at zoom 40, got (%f, %f) at %f", cam.X, cam.Y, cam.Zoom)
	}
}
