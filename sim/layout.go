// Package sim hosts the mouse in a small ECS world: a ground-truth maze
// layout, wheel and discrete motion, wall collisions and obstacle sensors.
package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/M1ghtyPirate/MicroMouse/maze"
)

// ErrLayout is returned when a layout cannot be parsed.
var ErrLayout = errors.New("malformed layout")

// Layout is the true wall grid of a maze. Walls are stored on both sides of
// every edge.
type Layout struct {
	columns, rows int
	walls         []maze.Direction
}

// OpenLayout returns a layout with only the outer boundary.
func OpenLayout(columns, rows int) *Layout {
	l := &Layout{
		columns: columns,
		rows:    rows,
		walls:   make([]maze.Direction, columns*rows),
	}
	for x := 0; x < columns; x++ {
		l.walls[l.index(maze.Cell{X: x, Y: 0})] |= maze.Backward
		l.walls[l.index(maze.Cell{X: x, Y: rows - 1})] |= maze.Forward
	}
	for y := 0; y < rows; y++ {
		l.walls[l.index(maze.Cell{X: 0, Y: y})] |= maze.Left
		l.walls[l.index(maze.Cell{X: columns - 1, Y: y})] |= maze.Right
	}
	return l
}

// closedLayout returns a layout with every wall in place.
func closedLayout(columns, rows int) *Layout {
	l := &Layout{
		columns: columns,
		rows:    rows,
		walls:   make([]maze.Direction, columns*rows),
	}
	for i := range l.walls {
		l.walls[i] = maze.Forward | maze.Right | maze.Backward | maze.Left
	}
	return l
}

// GenerateLayout carves a perfect maze with a randomized depth-first search
// from (0, 0), then knocks out loops extra interior walls so that more than
// one route exists.
func GenerateLayout(columns, rows, loops int, rng *rand.Rand) *Layout {
	l := closedLayout(columns, rows)

	visited := make([]bool, columns*rows)
	stack := []maze.Cell{{}}
	visited[0] = true
	dirs := maze.Cardinals

	for len(stack) > 0 {
		cur := stack[len(stack)-1]

		var options [4]maze.Direction
		n := 0
		for _, d := range dirs {
			next := cur.Step(d)
			if l.InBounds(next) && !visited[l.index(next)] {
				options[n] = d
				n++
			}
		}
		if n == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		d := options[rng.Intn(n)]
		next := cur.Step(d)
		l.SetWall(cur, d, false)
		visited[l.index(next)] = true
		stack = append(stack, next)
	}

	for i := 0; i < loops; i++ {
		c := maze.Cell{X: rng.Intn(columns), Y: rng.Intn(rows)}
		d := dirs[rng.Intn(4)]
		if l.InBounds(c.Step(d)) {
			l.SetWall(c, d, false)
		}
	}
	return l
}

// Columns returns the layout width.
func (l *Layout) Columns() int { return l.columns }

// Rows returns the layout height.
func (l *Layout) Rows() int { return l.rows }

func (l *Layout) index(c maze.Cell) int { return c.X + c.Y*l.columns }

// InBounds reports whether c lies inside the layout.
func (l *Layout) InBounds(c maze.Cell) bool {
	return c.X >= 0 && c.X < l.columns && c.Y >= 0 && c.Y < l.rows
}

// Walls returns the walls of c. Cells outside the layout are solid.
func (l *Layout) Walls(c maze.Cell) maze.Direction {
	if !l.InBounds(c) {
		return maze.Forward | maze.Right | maze.Backward | maze.Left
	}
	return l.walls[l.index(c)]
}

// Blocked reports whether the edge of c toward d is walled.
func (l *Layout) Blocked(c maze.Cell, d maze.Direction) bool {
	return l.Walls(c)&d != 0
}

// SetWall adds or removes the wall on side d of c and its mirror. Boundary
// walls cannot be removed.
func (l *Layout) SetWall(c maze.Cell, d maze.Direction, on bool) {
	n := c.Step(d)
	if !l.InBounds(c) || !l.InBounds(n) {
		return
	}
	if on {
		l.walls[l.index(c)] |= d
		l.walls[l.index(n)] |= d.Opposite()
		return
	}
	l.walls[l.index(c)] &^= d
	l.walls[l.index(n)] &^= d.Opposite()
}

// String draws the layout with Forward at the top.
func (l *Layout) String() string {
	var b strings.Builder
	for y := l.rows - 1; y >= 0; y-- {
		l.writeEdge(&b, y, maze.Forward)
		for x := 0; x < l.columns; x++ {
			if l.Blocked(maze.Cell{X: x, Y: y}, maze.Left) {
				b.WriteString("|   ")
			} else {
				b.WriteString("    ")
			}
		}
		if l.Blocked(maze.Cell{X: l.columns - 1, Y: y}, maze.Right) {
			b.WriteString("|")
		} else {
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}
	l.writeEdge(&b, 0, maze.Backward)
	return b.String()
}

func (l *Layout) writeEdge(b *strings.Builder, y int, side maze.Direction) {
	for x := 0; x < l.columns; x++ {
		if l.Blocked(maze.Cell{X: x, Y: y}, side) {
			b.WriteString("+---")
		} else {
			b.WriteString("+   ")
		}
	}
	b.WriteString("+\n")
}

// ParseLayout reads the form written by String.
func ParseLayout(s string) (*Layout, error) {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) < 3 || len(lines)%2 == 0 {
		return nil, fmt.Errorf("%w: %d lines", ErrLayout, len(lines))
	}
	rows := (len(lines) - 1) / 2
	width := len(lines[0])
	if width < 5 || (width-1)%4 != 0 {
		return nil, fmt.Errorf("%w: line width %d", ErrLayout, width)
	}
	columns := (width - 1) / 4
	for i, line := range lines {
		if len(line) != width {
			return nil, fmt.Errorf("%w: line %d has width %d, want %d", ErrLayout, i+1, len(line), width)
		}
	}

	l := &Layout{columns: columns, rows: rows, walls: make([]maze.Direction, columns*rows)}
	set := func(c maze.Cell, d maze.Direction) {
		if l.InBounds(c) {
			l.walls[l.index(c)] |= d
		}
	}

	for i, line := range lines {
		if i%2 == 0 {
			// Edge line above row y; the last one is below row 0.
			y := rows - 1 - i/2
			for x := 0; x < columns; x++ {
				if line[4*x+1] == '-' {
					set(maze.Cell{X: x, Y: y}, maze.Forward)
					set(maze.Cell{X: x, Y: y + 1}, maze.Backward)
				}
			}
			continue
		}
		y := rows - 1 - i/2
		for x := 0; x <= columns; x++ {
			if line[4*x] == '|' {
				set(maze.Cell{X: x, Y: y}, maze.Left)
				set(maze.Cell{X: x - 1, Y: y}, maze.Right)
			}
		}
	}
	return l, nil
}
