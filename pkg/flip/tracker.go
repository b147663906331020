// Package flip tracks the deployment angle of a flipper paddle.
package flip

import "fmt"

// Side identifies which flipper a tracker drives.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// ParseSide converts "left" or "right" to a Side.
func ParseSide(name string) (Side, error) {
	switch name {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return Left, fmt.Errorf("unknown flipper side %q", name)
}

// AngleTracker is a two-state machine: the paddle is either at rest
// (angle 0) or deployed (angle Range). A tracker belongs to one paddle and
// is not safe for concurrent use.
type AngleTracker struct {
	angle    float64
	rangeRad float64
	deadZone float64
}

// NewAngleTracker returns a tracker at rest. rangeRad is the angle of the
// deployed state and may be negative for a paddle turning clockwise.
func NewAngleTracker(rangeRad, deadZone float64) *AngleTracker {
	return &AngleTracker{rangeRad: rangeRad, deadZone: deadZone}
}

// Angle returns the current angle.
func (t *AngleTracker) Angle() float64 {
	return t.angle
}

// Range returns the deployed angle.
func (t *AngleTracker) Range() float64 {
	return t.rangeRad
}

// Deployed reports whether the paddle is at its deployed angle.
func (t *AngleTracker) Deployed() bool {
	return t.rangeRad != 0 && t.angle == t.rangeRad
}

// Rotate applies one tick of input. A force above the dead zone deploys
// the paddle, anything else returns it to rest; either way the move is a
// single jump. The signed angle change is returned, 0 if the paddle was
// already there.
func (t *AngleTracker) Rotate(force float64) float64 {
	target := 0.0
	if force-t.deadZone > 0 {
		target = t.rangeRad
	}
	delta := target - t.angle
	t.angle = target
	return delta
}
