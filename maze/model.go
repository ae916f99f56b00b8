package maze

import (
	"errors"
	"fmt"
)

// ErrOutOfBounds is returned when a cell lies outside the grid.
var ErrOutOfBounds = errors.New("cell out of bounds")

// Observer receives knowledge updates. Implementations get copies and cannot
// mutate the model.
type Observer interface {
	WallsUpdated(cell Cell, walls Direction)
	PathRecalculated(from Cell, field []Direction)
}

// Model is the mouse's belief about the maze: known walls per cell, the
// direction field toward the current target, and the believed pose.
// Grids are flat and indexed x + y*columns.
type Model struct {
	columns, rows int

	walls []Direction
	field []Direction
	// visited is scratch space for the flood fill.
	visited []bool
	queue   []Cell

	current Cell
	heading Direction
	target  Cell

	observer Observer
}

// NewModel creates a model for a columns x rows maze with only the outer
// boundary known. obs may be nil.
func NewModel(columns, rows int, obs Observer) *Model {
	n := columns * rows
	m := &Model{
		columns:  columns,
		rows:     rows,
		walls:    make([]Direction, n),
		field:    make([]Direction, n),
		visited:  make([]bool, n),
		queue:    make([]Cell, 0, n),
		heading:  Forward,
		observer: obs,
	}
	m.seedBoundary()
	return m
}

// SetObserver replaces the observer. nil disables notifications.
func (m *Model) SetObserver(obs Observer) {
	m.observer = obs
}

// Reset forgets every learned wall and places the mouse at start facing
// heading. The direction field is cleared.
func (m *Model) Reset(start Cell, heading Direction) {
	for i := range m.walls {
		m.walls[i] = None
		m.field[i] = None
	}
	m.current = start
	m.heading = heading
	m.seedBoundary()
}

func (m *Model) seedBoundary() {
	for x := 0; x < m.columns; x++ {
		m.walls[m.index(Cell{X: x, Y: 0})] |= Backward
		m.walls[m.index(Cell{X: x, Y: m.rows - 1})] |= Forward
	}
	for y := 0; y < m.rows; y++ {
		m.walls[m.index(Cell{X: 0, Y: y})] |= Left
		m.walls[m.index(Cell{X: m.columns - 1, Y: y})] |= Right
	}
	if m.observer == nil {
		return
	}
	for y := 0; y < m.rows; y++ {
		for x := 0; x < m.columns; x++ {
			c := Cell{X: x, Y: y}
			if w := m.walls[m.index(c)]; w != None {
				m.observer.WallsUpdated(c, w)
			}
		}
	}
}

// Columns returns the grid width.
func (m *Model) Columns() int { return m.columns }

// Rows returns the grid height.
func (m *Model) Rows() int { return m.rows }

// Position returns the believed current cell.
func (m *Model) Position() Cell { return m.current }

// SetPosition moves the believed current cell.
func (m *Model) SetPosition(c Cell) { m.current = c }

// Heading returns the believed maze-absolute heading.
func (m *Model) Heading() Direction { return m.heading }

// SetHeading sets the believed heading.
func (m *Model) SetHeading(d Direction) { m.heading = d }

// Target returns the cell the direction field currently leads to.
func (m *Model) Target() Cell { return m.target }

// Advance moves the believed position one cell along the current heading.
func (m *Model) Advance() {
	m.current = m.current.Step(m.heading)
}

func (m *Model) index(c Cell) int {
	return c.X + c.Y*m.columns
}

// InBounds reports whether c lies inside the grid.
func (m *Model) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < m.columns && c.Y >= 0 && c.Y < m.rows
}

// IsReachable reports whether c is in bounds and has no known wall toward d.
func (m *Model) IsReachable(c Cell, d Direction) bool {
	return m.InBounds(c) && m.walls[m.index(c)]&d == 0
}

// Walls returns the known wall set of c, or None when out of bounds.
func (m *Model) Walls(c Cell) Direction {
	if !m.InBounds(c) {
		return None
	}
	return m.walls[m.index(c)]
}

// Next returns the direction field entry of c, or None when out of bounds.
func (m *Model) Next(c Cell) Direction {
	if !m.InBounds(c) {
		return None
	}
	return m.field[m.index(c)]
}

// WallGrid returns a copy of the wall grid.
func (m *Model) WallGrid() []Direction {
	return append([]Direction(nil), m.walls...)
}

// Field returns a copy of the direction field.
func (m *Model) Field() []Direction {
	return append([]Direction(nil), m.field...)
}

// PlanConflicts reports whether the planned move out of the current cell runs
// into a wall learned since the field was computed.
func (m *Model) PlanConflicts() bool {
	if !m.InBounds(m.current) {
		return false
	}
	i := m.index(m.current)
	return m.field[i]&m.walls[i] != 0
}

// senseToWalls maps robot-relative obstacle flags onto maze-absolute wall
// bits for a mouse facing heading.
func senseToWalls(left, center, right bool, heading Direction) Direction {
	var w Direction
	if center {
		w |= Forward
	}
	if right {
		w |= Right
	}
	if left {
		w |= Left
	}
	switch heading {
	case Right:
		return w.RotateRight()
	case Backward:
		return w.Opposite()
	case Left:
		return w.RotateLeft()
	}
	return w
}

// RecordLocalWalls merges the three obstacle flags, sensed while facing
// heading, into the current cell and mirrors each new wall into the
// neighbouring cell. It returns true when anything new was learned.
func (m *Model) RecordLocalWalls(left, center, right bool, heading Direction) bool {
	if !m.InBounds(m.current) {
		return false
	}
	sensed := senseToWalls(left, center, right, heading)
	i := m.index(m.current)
	added := sensed &^ m.walls[i]
	if added == None {
		return false
	}

	m.walls[i] |= added
	m.notifyWalls(m.current)

	for _, d := range [4]Direction{Left, Right, Backward, Forward} {
		if added&d == 0 {
			continue
		}
		n := m.current.Step(d)
		if !m.InBounds(n) {
			continue
		}
		m.walls[m.index(n)] |= d.Opposite()
		m.notifyWalls(n)
	}
	return true
}

// AddWall records a wall on side d of c and its mirror on the neighbour.
// It is used to seed knowledge that did not come from the sensors.
func (m *Model) AddWall(c Cell, d Direction) error {
	if !m.InBounds(c) {
		return fmt.Errorf("%w: [%d, %d]", ErrOutOfBounds, c.X, c.Y)
	}
	m.walls[m.index(c)] |= d
	m.notifyWalls(c)
	for _, side := range Cardinals {
		if d&side == 0 {
			continue
		}
		if n := c.Step(side); m.InBounds(n) {
			m.walls[m.index(n)] |= side.Opposite()
			m.notifyWalls(n)
		}
	}
	return nil
}

func (m *Model) notifyWalls(c Cell) {
	if m.observer != nil {
		m.observer.WallsUpdated(c, m.walls[m.index(c)])
	}
}

// RecomputeDirectionField floods the grid breadth-first from target through
// edges with no known wall. Each reached cell points one step toward the
// target; the target itself and unreachable cells hold None. An out of bounds
// target leaves the existing field untouched.
func (m *Model) RecomputeDirectionField(target Cell) error {
	if !m.InBounds(target) {
		return fmt.Errorf("%w: target [%d, %d]", ErrOutOfBounds, target.X, target.Y)
	}

	for i := range m.field {
		m.field[i] = None
		m.visited[i] = false
	}
	m.target = target

	m.queue = append(m.queue[:0], target)
	m.visited[m.index(target)] = true
	for head := 0; head < len(m.queue); head++ {
		cell := m.queue[head]

		for _, d := range [4]Direction{Left, Right, Backward, Forward} {
			if !m.IsReachable(cell, d) {
				continue
			}
			n := cell.Step(d)
			if !m.InBounds(n) {
				continue
			}
			ni := m.index(n)
			if m.visited[ni] {
				continue
			}
			m.visited[ni] = true
			m.field[ni] = d.Opposite()
			m.queue = append(m.queue, n)
		}
	}
	m.field[m.index(target)] = None

	if m.observer != nil {
		m.observer.PathRecalculated(m.current, m.Field())
	}
	return nil
}

// Path follows the direction field from c and returns every visited cell,
// starting with c. It stops at a None entry or after visiting every cell.
func (m *Model) Path(c Cell) []Cell {
	return FollowField(m.field, m.columns, m.rows, c)
}

// FollowField walks a flat direction field from c. It is shared with
// presentation code that only holds a copy of the field.
func FollowField(field []Direction, columns, rows int, c Cell) []Cell {
	if c.X < 0 || c.X >= columns || c.Y < 0 || c.Y >= rows {
		return nil
	}
	path := []Cell{c}
	for steps := 0; steps < columns*rows; steps++ {
		d := field[c.X+c.Y*columns]
		if d == None {
			break
		}
		c = c.Step(d)
		if c.X < 0 || c.X >= columns || c.Y < 0 || c.Y >= rows {
			break
		}
		path = append(path, c)
	}
	return path
}
