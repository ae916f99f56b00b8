// Package maze holds the mouse's knowledge of the maze: the walls it has
// sensed so far and the direction field that leads to the current target.
package maze

import "math"

// Direction is a maze-absolute direction, also used as a wall bit.
type Direction uint8

const (
	None     Direction = 0x0
	Forward  Direction = 0x1
	Right    Direction = 0x2
	Backward Direction = 0x4
	Left     Direction = 0x8

	allWalls Direction = Forward | Right | Backward | Left
)

// Cardinals lists the four directions in bit order.
var Cardinals = [4]Direction{Forward, Right, Backward, Left}

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case None:
		return "None"
	case Forward:
		return "Forward"
	case Right:
		return "Right"
	case Backward:
		return "Backward"
	case Left:
		return "Left"
	}
	return "Mixed"
}

// Opposite returns the reverse direction (bitwise for wall sets).
func (d Direction) Opposite() Direction {
	return rotate(d, 2)
}

// RotateRight turns the direction (or wall set) 90° clockwise.
func (d Direction) RotateRight() Direction {
	return rotate(d, 1)
}

// RotateLeft turns the direction (or wall set) 90° counter-clockwise.
func (d Direction) RotateLeft() Direction {
	return rotate(d, 3)
}

// rotate shifts the four-bit set clockwise by n quarter turns.
func rotate(d Direction, n uint) Direction {
	d &= allWalls
	return (d<<n | d>>(4-n)) & allWalls
}

// Delta returns the cell offset of one step in the direction. Forward is +Y
// and Right is +X.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Forward:
		return 0, 1
	case Right:
		return 1, 0
	case Backward:
		return 0, -1
	case Left:
		return -1, 0
	}
	return 0, 0
}

// Degrees returns the heading of the direction, clockwise from Forward.
func (d Direction) Degrees() float32 {
	switch d {
	case Right:
		return 90
	case Backward:
		return 180
	case Left:
		return 270
	}
	return 0
}

// FromDegrees returns the cardinal direction nearest to a heading given in
// degrees clockwise from Forward.
func FromDegrees(deg float32) Direction {
	quarter := int(math.Floor(float64(NormalizeDegrees(deg))/90+0.5)) % 4
	return Cardinals[quarter]
}

// NormalizeDegrees wraps an angle to [0, 360).
func NormalizeDegrees(deg float32) float32 {
	d := math.Mod(float64(deg), 360)
	if d < 0 {
		d += 360
	}
	return float32(d)
}

// TurnTo returns the relative turn in degrees (90 clockwise, -90
// counter-clockwise, 180 about-face, 0 none) that brings d onto next.
func (d Direction) TurnTo(next Direction) float32 {
	switch {
	case next == d:
		return 0
	case next.Opposite() == d:
		return 180
	case next.RotateLeft() == d:
		return 90
	default:
		return -90
	}
}

// Cell is a maze cell coordinate. X grows to the Right, Y grows Forward.
type Cell struct {
	X, Y int
}

// Step returns the neighbour one step away in direction d.
func (c Cell) Step(d Direction) Cell {
	dx, dy := d.Delta()
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

// Manhattan returns the grid distance between two cells.
func (c Cell) Manhattan(o Cell) int {
	return abs(c.X-o.X) + abs(c.Y-o.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
