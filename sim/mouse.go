package sim

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/M1ghtyPirate/MicroMouse/episode"
	"github.com/M1ghtyPirate/MicroMouse/maze"
	"github.com/M1ghtyPirate/MicroMouse/neural"
)

// Mouse is a handle to a mouse entity. It implements episode.Sensors and
// episode.Actuator.
type Mouse struct {
	world       *World
	entity      ecs.Entity
	onCollision func()
}

var (
	_ episode.Sensors  = (*Mouse)(nil)
	_ episode.Actuator = (*Mouse)(nil)
)

// OnCollision registers fn to run after a step in which the mouse touched a
// wall.
func (m *Mouse) OnCollision(fn func()) { m.onCollision = fn }

// Entity returns the ECS entity.
func (m *Mouse) Entity() ecs.Entity { return m.entity }

// Obstacles casts the left, center and right sensor rays.
func (m *Mouse) Obstacles() (left, center, right bool) {
	pos := m.world.posMap.Get(m.entity)
	h := m.world.rotMap.Get(m.entity).Heading
	left = m.world.rayBlocked(pos.X, pos.Y, h-90)
	center = m.world.rayBlocked(pos.X, pos.Y, h)
	right = m.world.rayBlocked(pos.X, pos.Y, h+90)
	return left, center, right
}

// Turn starts a discrete turn of degrees relative to the current heading,
// clockwise positive.
func (m *Mouse) Turn(degrees float32) {
	rot := m.world.rotMap.Get(m.entity)
	motion := m.world.motionMap.Get(m.entity)
	motion.Kind = MotionTurning
	motion.TargetHeading = maze.NormalizeDegrees(rot.Heading + degrees)
}

// Travel starts a discrete move of cells along the nearest cardinal heading.
func (m *Mouse) Travel(cells float32) {
	pos := m.world.posMap.Get(m.entity)
	rot := m.world.rotMap.Get(m.entity)
	motion := m.world.motionMap.Get(m.entity)

	dx, dy := maze.FromDegrees(rot.Heading).Delta()
	motion.Kind = MotionTravelling
	motion.TargetX = pos.X + float32(dx)*cells
	motion.TargetY = pos.Y + float32(dy)*cells
}

// Drive sets the continuous wheel powers, clamped to [-1, 1].
func (m *Mouse) Drive(left, right float32) {
	wheels := m.world.wheelMap.Get(m.entity)
	wheels.Left = neural.Clamp(left, -1, 1)
	wheels.Right = neural.Clamp(right, -1, 1)
}

// Stop cancels any motion and brakes both wheels.
func (m *Mouse) Stop() {
	*m.world.wheelMap.Get(m.entity) = Wheels{}
	*m.world.speedMap.Get(m.entity) = Speed{}
	m.world.motionMap.Get(m.entity).Kind = MotionNone
}

// Busy reports whether a discrete motion is in progress.
func (m *Mouse) Busy() bool {
	return m.world.motionMap.Get(m.entity).Kind != MotionNone
}

// Pose returns the current pose.
func (m *Mouse) Pose() episode.Pose {
	pos := m.world.posMap.Get(m.entity)
	rot := m.world.rotMap.Get(m.entity)
	speed := m.world.speedMap.Get(m.entity)
	return episode.Pose{X: pos.X, Y: pos.Y, Heading: rot.Heading, Speed: speed.Linear}
}

// Reset places the mouse at p at rest.
func (m *Mouse) Reset(p episode.Pose) {
	m.Stop()
	*m.world.posMap.Get(m.entity) = Position{X: p.X, Y: p.Y}
	*m.world.rotMap.Get(m.entity) = Rotation{Heading: maze.NormalizeDegrees(p.Heading)}
	*m.world.contactMap.Get(m.entity) = Contact{}
}

// Hits returns how many steps ended in wall contact since the last Reset.
func (m *Mouse) Hits() int {
	return m.world.contactMap.Get(m.entity).Hits
}

// Cell returns the cell the mouse is in.
func (m *Mouse) Cell() maze.Cell {
	pos := m.world.posMap.Get(m.entity)
	return cellAt(pos.X, pos.Y)
}
