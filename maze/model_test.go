package maze

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

// recorder captures observer notifications.
type recorder struct {
	walls map[Cell]Direction
	paths int
	from  Cell
}

func newRecorder() *recorder {
	return &recorder{walls: make(map[Cell]Direction)}
}

func (r *recorder) WallsUpdated(c Cell, w Direction) { r.walls[c] = w }

func (r *recorder) PathRecalculated(from Cell, field []Direction) {
	r.paths++
	r.from = from
	// Scribbling on the copy must not reach the model.
	for i := range field {
		field[i] = Left
	}
}

func TestBoundarySeeded(t *testing.T) {
	m := NewModel(16, 16, nil)

	for x := 0; x < 16; x++ {
		if m.IsReachable(Cell{x, 0}, Backward) {
			t.Errorf("cell [%d, 0] open to Backward", x)
		}
		if m.IsReachable(Cell{x, 15}, Forward) {
			t.Errorf("cell [%d, 15] open to Forward", x)
		}
	}
	for y := 0; y < 16; y++ {
		if m.IsReachable(Cell{0, y}, Left) || m.IsReachable(Cell{15, y}, Right) {
			t.Errorf("row %d missing side walls", y)
		}
	}
	if m.Walls(Cell{5, 5}) != None {
		t.Errorf("interior cell has walls %v", m.Walls(Cell{5, 5}))
	}
}

func TestIsReachable(t *testing.T) {
	m := NewModel(4, 4, nil)
	m.SetPosition(Cell{1, 1})
	m.RecordLocalWalls(false, true, false, Forward)

	if m.IsReachable(Cell{1, 1}, Forward) {
		t.Error("sensed wall should block Forward")
	}
	if !m.IsReachable(Cell{1, 1}, Right) {
		t.Error("Right should stay open")
	}
	if m.IsReachable(Cell{-1, 0}, Right) || m.IsReachable(Cell{4, 0}, Left) {
		t.Error("out of bounds cells are never reachable")
	}
}

func TestRecordLocalWallsRotation(t *testing.T) {
	tests := []struct {
		name                string
		left, center, right bool
		heading             Direction
		want                Direction
	}{
		{"center facing forward", false, true, false, Forward, Forward},
		{"center facing right", false, true, false, Right, Right},
		{"center facing backward", false, true, false, Backward, Backward},
		{"center facing left", false, true, false, Left, Left},
		{"left facing forward", true, false, false, Forward, Left},
		{"left facing right", true, false, false, Right, Forward},
		{"right facing backward", false, false, true, Backward, Left},
		{"all facing left", true, true, true, Left, Left | Forward | Backward},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewModel(16, 16, nil)
			m.SetPosition(Cell{5, 5})
			if !m.RecordLocalWalls(tc.left, tc.center, tc.right, tc.heading) {
				t.Fatal("expected new walls")
			}
			if got := m.Walls(Cell{5, 5}); got != tc.want {
				t.Errorf("walls = %04b, want %04b", got, tc.want)
			}
		})
	}
}

func TestRecordLocalWallsIdempotent(t *testing.T) {
	rec := newRecorder()
	m := NewModel(8, 8, rec)
	m.SetPosition(Cell{3, 3})

	if !m.RecordLocalWalls(true, false, true, Forward) {
		t.Fatal("first record should change the model")
	}
	before := m.WallGrid()
	rec.walls = make(map[Cell]Direction)

	if m.RecordLocalWalls(true, false, true, Forward) {
		t.Error("repeated record should be a no-op")
	}
	if m.RecordLocalWalls(false, false, false, Right) {
		t.Error("empty flags should be a no-op")
	}
	if !reflect.DeepEqual(before, m.WallGrid()) {
		t.Error("walls changed on a no-op record")
	}
	if len(rec.walls) != 0 {
		t.Errorf("no-op emitted %d notifications", len(rec.walls))
	}
}

func TestRecordLocalWallsNotifiesTouchedCells(t *testing.T) {
	rec := newRecorder()
	m := NewModel(8, 8, rec)
	rec.walls = make(map[Cell]Direction)
	m.SetPosition(Cell{3, 3})

	m.RecordLocalWalls(true, true, false, Forward)

	want := map[Cell]Direction{
		{3, 3}: Forward | Left,
		{2, 3}: Right,
		{3, 4}: Backward,
	}
	if !reflect.DeepEqual(rec.walls, want) {
		t.Errorf("notifications = %v, want %v", rec.walls, want)
	}
}

func TestRecordLocalWallsMirrorsOnlyNewWalls(t *testing.T) {
	rec := newRecorder()
	m := NewModel(8, 8, rec)
	m.SetPosition(Cell{3, 3})
	m.RecordLocalWalls(true, true, false, Forward)

	rec.walls = make(map[Cell]Direction)
	if !m.RecordLocalWalls(false, true, true, Forward) {
		t.Fatal("new right wall not reported")
	}

	want := map[Cell]Direction{
		{3, 3}: Forward | Left | Right,
		{4, 3}: Left,
	}
	if !reflect.DeepEqual(rec.walls, want) {
		t.Errorf("notifications = %v, want %v", rec.walls, want)
	}
}

func TestRecordLocalWallsSkipsOutOfBoundsNeighbour(t *testing.T) {
	m := NewModel(4, 4, nil)
	m.SetPosition(Cell{0, 0})

	// The left wall is already seeded; a new forward wall is mirrored.
	m.RecordLocalWalls(true, true, false, Forward)
	if m.Walls(Cell{0, 1})&Backward == 0 {
		t.Error("forward wall not mirrored into [0, 1]")
	}
}

// TestWallsStayReciprocal drives random sensor readings through the model and
// checks that every shared edge agrees from both sides.
func TestWallsStayReciprocal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	m := NewModel(16, 16, nil)

	for i := 0; i < 2000; i++ {
		m.SetPosition(Cell{rng.Intn(16), rng.Intn(16)})
		heading := Cardinals[rng.Intn(4)]
		m.RecordLocalWalls(rng.Intn(4) == 0, rng.Intn(4) == 0, rng.Intn(4) == 0, heading)
	}

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			c := Cell{x, y}
			for _, d := range Cardinals {
				n := c.Step(d)
				if !m.InBounds(n) {
					continue
				}
				a := m.Walls(c)&d != 0
				b := m.Walls(n)&d.Opposite() != 0
				if a != b {
					t.Fatalf("edge %v->%v: %v vs reciprocal %v", c, d, a, b)
				}
			}
		}
	}
}

// TestFloodFillOpenGrid follows the field on an open 16x16 grid.
func TestFloodFillOpenGrid(t *testing.T) {
	m := NewModel(16, 16, nil)
	target := Cell{7, 7}
	if err := m.RecomputeDirectionField(target); err != nil {
		t.Fatal(err)
	}

	if m.Next(target) != None {
		t.Errorf("target entry = %v, want None", m.Next(target))
	}

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			start := Cell{x, y}
			seen := map[Cell]bool{start: true}
			c := start
			steps := 0
			for c != target {
				d := m.Next(c)
				if d == None {
					t.Fatalf("field dead-ends at %v from %v", c, start)
				}
				c = c.Step(d)
				steps++
				if seen[c] {
					t.Fatalf("field revisits %v from %v", c, start)
				}
				seen[c] = true
			}
			if want := start.Manhattan(target); steps != want {
				t.Errorf("from %v: %d steps, want %d", start, steps, want)
			}
		}
	}
}

func TestFloodFillIdempotent(t *testing.T) {
	m := NewModel(16, 16, nil)
	m.SetPosition(Cell{4, 4})
	m.RecordLocalWalls(true, true, false, Forward)
	m.SetPosition(Cell{6, 2})
	m.RecordLocalWalls(false, true, true, Right)

	if err := m.RecomputeDirectionField(Cell{7, 7}); err != nil {
		t.Fatal(err)
	}
	first := m.Field()
	if err := m.RecomputeDirectionField(Cell{7, 7}); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, m.Field()) {
		t.Error("recomputing with unchanged walls changed the field")
	}
}

func TestFloodFillCornerScenario(t *testing.T) {
	m := NewModel(3, 3, nil)
	if err := m.RecomputeDirectionField(Cell{1, 1}); err != nil {
		t.Fatal(err)
	}

	d := m.Next(Cell{0, 0})
	if d != Right && d != Forward {
		t.Fatalf("field at [0, 0] = %v, want Right or Forward", d)
	}
	path := m.Path(Cell{0, 0})
	if len(path) != 3 || path[2] != (Cell{1, 1}) {
		t.Errorf("path = %v, want 2 steps to [1, 1]", path)
	}
}

func TestFloodFillRespectsWalls(t *testing.T) {
	// Wall off [0, 0] except toward Forward, then block [0, 1] Right.
	m := NewModel(3, 3, nil)
	m.SetPosition(Cell{0, 0})
	m.RecordLocalWalls(false, false, true, Forward)
	m.SetPosition(Cell{0, 1})
	m.RecordLocalWalls(false, false, true, Forward)

	if err := m.RecomputeDirectionField(Cell{2, 0}); err != nil {
		t.Fatal(err)
	}
	path := m.Path(Cell{0, 0})
	if len(path) != 7 || path[len(path)-1] != (Cell{2, 0}) {
		t.Errorf("path = %v, want the 6-step detour", path)
	}
}

func TestFloodFillUnreachable(t *testing.T) {
	m := NewModel(3, 3, nil)
	// Enclose [2, 2] completely.
	if err := m.AddWall(Cell{2, 2}, Left|Backward); err != nil {
		t.Fatal(err)
	}
	if err := m.RecomputeDirectionField(Cell{0, 0}); err != nil {
		t.Fatal(err)
	}
	if m.Next(Cell{2, 2}) != None {
		t.Errorf("enclosed cell has direction %v", m.Next(Cell{2, 2}))
	}
	if m.Next(Cell{2, 1}) == None {
		t.Error("open neighbour should still be reachable")
	}
}

func TestFloodFillOutOfBounds(t *testing.T) {
	m := NewModel(4, 4, nil)
	if err := m.RecomputeDirectionField(Cell{1, 1}); err != nil {
		t.Fatal(err)
	}
	before := m.Field()

	for _, c := range []Cell{{-1, 0}, {4, 0}, {0, 4}, {0, -2}} {
		if err := m.RecomputeDirectionField(c); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("target %v err = %v, want ErrOutOfBounds", c, err)
		}
	}
	if !reflect.DeepEqual(before, m.Field()) {
		t.Error("out of bounds target changed the field")
	}
	if m.Target() != (Cell{1, 1}) {
		t.Errorf("target = %v, want [1, 1]", m.Target())
	}
}

func TestPlanConflicts(t *testing.T) {
	m := NewModel(4, 4, nil)
	m.SetPosition(Cell{0, 0})
	m.SetHeading(Forward)
	if err := m.RecomputeDirectionField(Cell{0, 3}); err != nil {
		t.Fatal(err)
	}
	if m.PlanConflicts() {
		t.Fatal("fresh plan should not conflict")
	}

	m.RecordLocalWalls(false, true, false, Forward)
	if !m.PlanConflicts() {
		t.Error("wall across the planned move should conflict")
	}
	if err := m.RecomputeDirectionField(Cell{0, 3}); err != nil {
		t.Fatal(err)
	}
	if m.PlanConflicts() {
		t.Error("recomputed plan should avoid the wall")
	}
}

func TestObserverGetsCopies(t *testing.T) {
	rec := newRecorder()
	m := NewModel(4, 4, rec)
	m.SetPosition(Cell{2, 1})

	if err := m.RecomputeDirectionField(Cell{0, 0}); err != nil {
		t.Fatal(err)
	}
	if rec.paths != 1 || rec.from != (Cell{2, 1}) {
		t.Errorf("paths = %d from %v", rec.paths, rec.from)
	}
	if m.Next(Cell{0, 3}) != Backward {
		t.Errorf("field at [0, 3] = %v, observer mutated the field", m.Next(Cell{0, 3}))
	}
}

func TestResetForgetsWalls(t *testing.T) {
	m := NewModel(4, 4, nil)
	m.SetPosition(Cell{1, 1})
	m.RecordLocalWalls(true, true, true, Forward)
	m.Reset(Cell{0, 0}, Right)

	if m.Walls(Cell{1, 1}) != None {
		t.Errorf("walls after reset = %v", m.Walls(Cell{1, 1}))
	}
	if m.Position() != (Cell{0, 0}) || m.Heading() != Right {
		t.Errorf("pose after reset = %v %v", m.Position(), m.Heading())
	}
}
