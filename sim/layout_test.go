package sim

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/M1ghtyPirate/MicroMouse/maze"
)

// reachable counts the cells connected to (0, 0).
func reachable(l *Layout) int {
	seen := make(map[maze.Cell]bool)
	queue := []maze.Cell{{}}
	seen[maze.Cell{}] = true
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, d := range maze.Cardinals {
			n := c.Step(d)
			if l.Blocked(c, d) || seen[n] {
				continue
			}
			seen[n] = true
			queue = append(queue, n)
		}
	}
	return len(seen)
}

func checkReciprocal(t *testing.T, l *Layout) {
	t.Helper()
	for y := 0; y < l.Rows(); y++ {
		for x := 0; x < l.Columns(); x++ {
			c := maze.Cell{X: x, Y: y}
			for _, d := range maze.Cardinals {
				n := c.Step(d)
				if !l.InBounds(n) {
					if !l.Blocked(c, d) {
						t.Fatalf("boundary of %v open toward %v", c, d)
					}
					continue
				}
				if l.Blocked(c, d) != l.Blocked(n, d.Opposite()) {
					t.Fatalf("edge %v toward %v is one-sided", c, d)
				}
			}
		}
	}
}

func TestGenerateLayoutIsConnected(t *testing.T) {
	for _, loops := range []int{0, 20} {
		l := GenerateLayout(16, 16, loops, rand.New(rand.NewSource(42)))
		checkReciprocal(t, l)
		if n := reachable(l); n != 256 {
			t.Errorf("loops %d: %d cells reachable, want 256", loops, n)
		}
	}
}

func TestGenerateLayoutDeterministic(t *testing.T) {
	a := GenerateLayout(8, 8, 5, rand.New(rand.NewSource(7)))
	b := GenerateLayout(8, 8, 5, rand.New(rand.NewSource(7)))
	if a.String() != b.String() {
		t.Error("same seed produced different layouts")
	}
}

func TestLayoutStringRoundTrip(t *testing.T) {
	l := GenerateLayout(6, 4, 3, rand.New(rand.NewSource(1)))
	back, err := ParseLayout(l.String())
	if err != nil {
		t.Fatalf("ParseLayout: %v", err)
	}
	if back.Columns() != 6 || back.Rows() != 4 {
		t.Fatalf("size = %dx%d, want 6x4", back.Columns(), back.Rows())
	}
	if back.String() != l.String() {
		t.Errorf("round trip changed the layout:\n%s\nvs\n%s", l, back)
	}
	checkReciprocal(t, back)
}

func TestParseLayout(t *testing.T) {
	const src = `+---+---+
|       |
+   +---+
|   |   |
+---+---+
`
	l, err := ParseLayout(src)
	if err != nil {
		t.Fatal(err)
	}
	if l.Blocked(maze.Cell{X: 0, Y: 1}, maze.Right) {
		t.Error("top row should be open between the cells")
	}
	if !l.Blocked(maze.Cell{X: 0, Y: 0}, maze.Right) || !l.Blocked(maze.Cell{X: 1, Y: 0}, maze.Left) {
		t.Error("bottom row should be split")
	}
	if l.Blocked(maze.Cell{X: 0, Y: 0}, maze.Forward) {
		t.Error("[0 0] should open Forward")
	}
	if !l.Blocked(maze.Cell{X: 1, Y: 1}, maze.Backward) {
		t.Error("[1 1] should be closed Backward")
	}

	for _, bad := range []string{"", "+---+\n|   |\n", "+--+\n|  |\n+--+\n"} {
		if _, err := ParseLayout(bad); !errors.Is(err, ErrLayout) {
			t.Errorf("ParseLayout(%q) err = %v, want ErrLayout", bad, err)
		}
	}
}

func TestSetWallKeepsBoundary(t *testing.T) {
	l := OpenLayout(3, 3)
	l.SetWall(maze.Cell{X: 0, Y: 0}, maze.Left, false)
	if !l.Blocked(maze.Cell{X: 0, Y: 0}, maze.Left) {
		t.Error("boundary wall removed")
	}
	l.SetWall(maze.Cell{X: 1, Y: 1}, maze.Forward, true)
	if !l.Blocked(maze.Cell{X: 1, Y: 2}, maze.Backward) {
		t.Error("wall not mirrored")
	}
}
