package sim

// Position is the mouse position in cell units; cell (i, j) is centered on
// (i, j).
type Position struct {
	X, Y float32
}

// Rotation holds the heading in degrees clockwise from Forward.
type Rotation struct {
	Heading float32
}

// Speed is the current linear (cells/s) and angular (deg/s) velocity.
type Speed struct {
	Linear  float32
	Angular float32
}

// Wheels holds the continuous wheel powers in [-1, 1].
type Wheels struct {
	Left, Right float32
}

// MotionKind identifies a discrete motion in progress.
type MotionKind uint8

const (
	MotionNone MotionKind = iota
	MotionTurning
	MotionTravelling
)

// Motion is a discrete turn or travel command being carried out.
type Motion struct {
	Kind          MotionKind
	TargetHeading float32
	TargetX       float32
	TargetY       float32
}

// Contact records wall contacts since the last step.
type Contact struct {
	Colliding bool
	Hits      int
}

// Body holds the physical size of the mouse.
type Body struct {
	Radius float32
}
