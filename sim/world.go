package sim

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/M1ghtyPirate/MicroMouse/episode"
	"github.com/M1ghtyPirate/MicroMouse/maze"
)

// Config holds the kinematic parameters, all in cell units and degrees.
type Config struct {
	// MaxSpeed is the linear speed at full power on both wheels.
	MaxSpeed float32
	// MaxTurnRate is the turn rate at full opposite wheel power.
	MaxTurnRate float32
	// TurnSpeed and TravelSpeed drive discrete motions.
	TurnSpeed   float32
	TravelSpeed float32
	BodyRadius  float32
	SensorRange float32
}

// DefaultConfig returns parameters tuned for a one-cell step per half second.
func DefaultConfig() Config {
	return Config{
		MaxSpeed:    2,
		MaxTurnRate: 360,
		TurnSpeed:   360,
		TravelSpeed: 2,
		BodyRadius:  0.3,
		SensorRange: 0.7,
	}
}

const (
	turnEpsilon   = 0.5
	travelEpsilon = 5e-3
	rayStep       = 0.02
)

// World is the ECS world holding the mice and the layout they move in.
type World struct {
	cfg    Config
	layout *Layout
	world  *ecs.World

	entityMapper *ecs.Map7[Position, Rotation, Speed, Wheels, Motion, Contact, Body]
	entityFilter *ecs.Filter7[Position, Rotation, Speed, Wheels, Motion, Contact, Body]

	posMap     *ecs.Map1[Position]
	rotMap     *ecs.Map1[Rotation]
	speedMap   *ecs.Map1[Speed]
	wheelMap   *ecs.Map1[Wheels]
	motionMap  *ecs.Map1[Motion]
	contactMap *ecs.Map1[Contact]
	bodyMap    *ecs.Map1[Body]

	mice map[ecs.Entity]*Mouse
}

// NewWorld creates an empty world over layout.
func NewWorld(cfg Config, layout *Layout) *World {
	world := ecs.NewWorld()
	return &World{
		cfg:    cfg,
		layout: layout,
		world:  world,
		entityMapper: ecs.NewMap7[
			Position, Rotation, Speed, Wheels, Motion, Contact, Body,
		](world),
		entityFilter: ecs.NewFilter7[
			Position, Rotation, Speed, Wheels, Motion, Contact, Body,
		](world),
		posMap:     ecs.NewMap1[Position](world),
		rotMap:     ecs.NewMap1[Rotation](world),
		speedMap:   ecs.NewMap1[Speed](world),
		wheelMap:   ecs.NewMap1[Wheels](world),
		motionMap:  ecs.NewMap1[Motion](world),
		contactMap: ecs.NewMap1[Contact](world),
		bodyMap:    ecs.NewMap1[Body](world),
		mice:       make(map[ecs.Entity]*Mouse),
	}
}

// Layout returns the ground-truth layout.
func (w *World) Layout() *Layout { return w.layout }

// SetLayout swaps the layout, e.g. when a new maze is generated.
func (w *World) SetLayout(l *Layout) { w.layout = l }

// Config returns the kinematic parameters.
func (w *World) Config() Config { return w.cfg }

// NewMouse spawns a mouse at p.
func (w *World) NewMouse(p episode.Pose) *Mouse {
	pos := Position{X: p.X, Y: p.Y}
	rot := Rotation{Heading: maze.NormalizeDegrees(p.Heading)}
	speed := Speed{}
	wheels := Wheels{}
	motion := Motion{}
	contact := Contact{}
	body := Body{Radius: w.cfg.BodyRadius}

	entity := w.entityMapper.NewEntity(&pos, &rot, &speed, &wheels, &motion, &contact, &body)
	m := &Mouse{world: w, entity: entity}
	w.mice[entity] = m
	return m
}

// RemoveMouse despawns m.
func (w *World) RemoveMouse(m *Mouse) {
	if !w.world.Alive(m.entity) {
		return
	}
	delete(w.mice, m.entity)
	w.entityMapper.Remove(m.entity)
}

// Step advances every mouse by dt seconds and reports collisions.
func (w *World) Step(dt float32) {
	var collided []ecs.Entity

	query := w.entityFilter.Query()
	for query.Next() {
		pos, rot, speed, wheels, motion, contact, body := query.Get()

		switch motion.Kind {
		case MotionTurning:
			w.stepTurn(rot, speed, motion, dt)
		case MotionTravelling:
			w.stepTravel(pos, rot, speed, motion, dt)
		default:
			w.stepDrive(pos, rot, speed, wheels, dt)
		}

		contact.Colliding = w.resolveWalls(pos, body.Radius)
		if contact.Colliding {
			contact.Hits++
			collided = append(collided, query.Entity())
		}
	}

	for _, e := range collided {
		if m := w.mice[e]; m != nil && m.onCollision != nil {
			m.onCollision()
		}
	}
}

func (w *World) stepTurn(rot *Rotation, speed *Speed, motion *Motion, dt float32) {
	diff := angleDiff(motion.TargetHeading, rot.Heading)
	step := w.cfg.TurnSpeed * dt
	speed.Linear = 0
	if abs32(diff) <= max(step, turnEpsilon) {
		rot.Heading = motion.TargetHeading
		speed.Angular = 0
		motion.Kind = MotionNone
		return
	}
	if diff < 0 {
		step = -step
	}
	rot.Heading = maze.NormalizeDegrees(rot.Heading + step)
	speed.Angular = step / dt
}

func (w *World) stepTravel(pos *Position, rot *Rotation, speed *Speed, motion *Motion, dt float32) {
	dx := motion.TargetX - pos.X
	dy := motion.TargetY - pos.Y
	dist := float32(math.Hypot(float64(dx), float64(dy)))
	step := w.cfg.TravelSpeed * dt
	speed.Angular = 0
	if dist <= max(step, travelEpsilon) {
		pos.X, pos.Y = motion.TargetX, motion.TargetY
		// Re-square the heading so drift does not build up across cells.
		rot.Heading = maze.FromDegrees(rot.Heading).Degrees()
		speed.Linear = 0
		motion.Kind = MotionNone
		return
	}
	pos.X += dx / dist * step
	pos.Y += dy / dist * step
	speed.Linear = w.cfg.TravelSpeed
}

// stepDrive integrates a differential drive. More power on the left wheel
// turns clockwise.
func (w *World) stepDrive(pos *Position, rot *Rotation, speed *Speed, wheels *Wheels, dt float32) {
	speed.Linear = (wheels.Left + wheels.Right) / 2 * w.cfg.MaxSpeed
	speed.Angular = (wheels.Left - wheels.Right) / 2 * w.cfg.MaxTurnRate

	rot.Heading = maze.NormalizeDegrees(rot.Heading + speed.Angular*dt)
	sin, cos := math.Sincos(float64(rot.Heading) * math.Pi / 180)
	pos.X += float32(sin) * speed.Linear * dt
	pos.Y += float32(cos) * speed.Linear * dt
}

// resolveWalls pushes a body of radius r out of the walls of its cell and
// reports whether it touched any.
func (w *World) resolveWalls(pos *Position, r float32) bool {
	c := cellAt(pos.X, pos.Y)
	hit := false
	if w.layout.Blocked(c, maze.Forward) && pos.Y+r > float32(c.Y)+0.5 {
		pos.Y = float32(c.Y) + 0.5 - r
		hit = true
	}
	if w.layout.Blocked(c, maze.Backward) && pos.Y-r < float32(c.Y)-0.5 {
		pos.Y = float32(c.Y) - 0.5 + r
		hit = true
	}
	if w.layout.Blocked(c, maze.Right) && pos.X+r > float32(c.X)+0.5 {
		pos.X = float32(c.X) + 0.5 - r
		hit = true
	}
	if w.layout.Blocked(c, maze.Left) && pos.X-r < float32(c.X)-0.5 {
		pos.X = float32(c.X) - 0.5 + r
		hit = true
	}
	return hit
}

// rayBlocked marches from (x, y) along heading for the sensor range and
// reports whether a wall edge is crossed.
func (w *World) rayBlocked(x, y, heading float32) bool {
	sin, cos := math.Sincos(float64(heading) * math.Pi / 180)
	prev := cellAt(x, y)
	for s := float32(rayStep); s <= w.cfg.SensorRange; s += rayStep {
		cur := cellAt(x+float32(sin)*s, y+float32(cos)*s)
		if cur == prev {
			continue
		}
		if cur.X > prev.X && w.layout.Blocked(prev, maze.Right) ||
			cur.X < prev.X && w.layout.Blocked(prev, maze.Left) ||
			cur.Y > prev.Y && w.layout.Blocked(prev, maze.Forward) ||
			cur.Y < prev.Y && w.layout.Blocked(prev, maze.Backward) {
			return true
		}
		prev = cur
	}
	return false
}

// cellAt returns the cell whose center is nearest to (x, y).
func cellAt(x, y float32) maze.Cell {
	return maze.Cell{
		X: int(math.Floor(float64(x) + 0.5)),
		Y: int(math.Floor(float64(y) + 0.5)),
	}
}

// angleDiff returns a-b wrapped to (-180, 180].
func angleDiff(a, b float32) float32 {
	d := maze.NormalizeDegrees(a - b)
	if d > 180 {
		d -= 360
	}
	return d
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
