package shapes

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/chazu/pinball/pkg/mesh"
)

// Origin selects the point of a wedge's bounding box that is moved to the
// local origin once the mesh is built.
type Origin int

const (
	OriginCenter Origin = iota
	OriginMinXMinZ
	OriginMaxXMinZ
	OriginMinXMaxZ
	OriginMaxXMaxZ
)

var originNames = [...]string{
	OriginCenter:   "center",
	OriginMinXMinZ: "min-x-min-z",
	OriginMaxXMinZ: "max-x-min-z",
	OriginMinXMaxZ: "min-x-max-z",
	OriginMaxXMaxZ: "max-x-max-z",
}

func (o Origin) String() string {
	if o < 0 || int(o) >= len(originNames) {
		return fmt.Sprintf("Origin(%d)", int(o))
	}
	return originNames[o]
}

// ParseOrigin converts a name such as "max-x-min-z" to an Origin.
func ParseOrigin(name string) (Origin, error) {
	for o, n := range originNames {
		if n == name {
			return Origin(o), nil
		}
	}
	return OriginCenter, fmt.Errorf("unknown origin %q", name)
}

// Ellipse is a quarter of an ellipse "carved" into a rectangular box.
//
// The arc runs between two angles of the first quadrant. With Rectangle
// set, the region between the arc and the far corner of its bounding box
// is a closed solid; otherwise only the arc wall is produced.
type Ellipse struct {
	// Rectangle caps the arc into a closed solid wedge.
	Rectangle bool
	// TwoSided adds the reversed wall to a thin arc. Ignored with Rectangle.
	TwoSided bool
	// Center is the bounding-box point placed at the local origin.
	Center Origin
	// FirstAngle and SecondAngle bound the arc, in either order.
	// Both must be in [0, PI/2].
	FirstAngle  float32
	SecondAngle float32
	// Resolution is the number of angular steps along the arc.
	Resolution int
	// X and Z are the half-axes.
	X float32
	Z float32
	// Thickness is the height along Y.
	Thickness float32
}

// DefaultEllipse returns a capped quarter ellipse of 3x1, one unit thick.
func DefaultEllipse() Ellipse {
	return Ellipse{
		Rectangle:   true,
		Center:      OriginCenter,
		FirstAngle:  0,
		SecondAngle: halfPi,
		Resolution:  20,
		X:           3,
		Z:           1,
		Thickness:   1,
	}
}

// ValidAngle reports whether angle lies in [0, PI/2].
func ValidAngle(angle float32) bool {
	return angle >= 0 && angle <= halfPi
}

func (e Ellipse) minMaxAngle() (float32, float32) {
	if e.FirstAngle < e.SecondAngle {
		return e.FirstAngle, e.SecondAngle
	}
	return e.SecondAngle, e.FirstAngle
}

// RealX returns the extent of the arc along X.
func (e Ellipse) RealX() float32 {
	min, max := e.minMaxAngle()
	return math32.Abs(e.X*math32.Cos(max) - e.X*math32.Cos(min))
}

// RealZ returns the extent of the arc along Z.
func (e Ellipse) RealZ() float32 {
	min, max := e.minMaxAngle()
	return math32.Abs(e.Z*math32.Sin(max) - e.Z*math32.Sin(min))
}

// axisOffsets returns the translation that moves the Center point of the
// bounding box to the origin. Y is always centered on the thickness.
func (e Ellipse) axisOffsets() mgl32.Vec3 {
	min, max := e.minMaxAngle()
	centerY := e.Thickness / 2

	x1, x2 := e.X*math32.Cos(min), e.X*math32.Cos(max)
	z1, z2 := e.Z*math32.Sin(min), e.Z*math32.Sin(max)

	minX, maxX := x1, x2
	if x2 < x1 {
		minX, maxX = x2, x1
	}
	minZ, maxZ := z1, z2
	if z2 < z1 {
		minZ, maxZ = z2, z1
	}

	switch e.Center {
	case OriginMinXMinZ:
		return mgl32.Vec3{-minX, -centerY, -minZ}
	case OriginMaxXMinZ:
		return mgl32.Vec3{-maxX, -centerY, -minZ}
	case OriginMinXMaxZ:
		return mgl32.Vec3{-minX, -centerY, -maxZ}
	case OriginMaxXMaxZ:
		return mgl32.Vec3{-maxX, -centerY, -maxZ}
	default:
		return mgl32.Vec3{e.RealX()/2 - maxX, -centerY, e.RealZ()/2 - maxZ}
	}
}

// angleAt returns the angle of arc sample i. The end samples are pinned to
// the bounds so the cap, back and side faces meet the wall exactly.
func (e Ellipse) angleAt(min, max float32, i int) float32 {
	switch i {
	case 0:
		return min
	case e.Resolution:
		return max
	}
	step := (max - min) / float32(e.Resolution)
	return min + float32(i)*step
}

func (e Ellipse) point(angle, height float32) mgl32.Vec3 {
	return mgl32.Vec3{e.X * math32.Cos(angle), height, e.Z * math32.Sin(angle)}
}

// wall builds the arc as a quad strip between a ring at height 0 and a
// ring at Thickness, one vertex pair per sample. The normal at each pair
// is the radial direction, pointing to the ellipse center unless revert
// is set; revert also flips the winding.
func (e Ellipse) wall(min, max float32, revert bool) *mesh.Buffer {
	b := mesh.WithCapacity(2*(e.Resolution+1), 6*e.Resolution)

	sign := float32(-1)
	if revert {
		sign = 1
	}
	for i := 0; i <= e.Resolution; i++ {
		bottom := e.point(e.angleAt(min, max, i), 0)
		top := e.point(e.angleAt(min, max, i), e.Thickness)
		normal := radial(bottom, sign)
		b.AddVertex(bottom, normal)
		b.AddVertex(top, normal)
	}

	for i := 0; i < e.Resolution; i++ {
		b0 := uint32(2 * i)
		t0, b1, t1 := b0+1, b0+2, b0+3
		if revert {
			b.AddTriangle(b0, t0, t1)
			b.AddTriangle(t1, b1, b0)
		} else {
			b.AddTriangle(b0, t1, t0)
			b.AddTriangle(t1, b0, b1)
		}
	}
	return b
}

// cap builds the top (or bottom) face as a fan from the far corner of the
// bounding box to every arc sample.
func (e Ellipse) cap(min, max float32, top bool) *mesh.Buffer {
	height, normal := float32(0), mesh.NegY
	if top {
		height, normal = e.Thickness, mesh.PosY
	}

	b := mesh.WithCapacity(e.Resolution+2, 3*e.Resolution)
	b.AddVertex(mgl32.Vec3{e.X * math32.Cos(min), height, e.Z * math32.Sin(max)}, normal)
	for i := 0; i <= e.Resolution; i++ {
		b.AddVertex(e.point(e.angleAt(min, max, i), height), normal)
	}

	for i := uint32(0); i < uint32(e.Resolution); i++ {
		if top {
			b.AddTriangle(0, i+1, i+2)
		} else {
			b.AddTriangle(0, i+2, i+1)
		}
	}
	return b
}

// back is the flat face along the max-angle Z bound.
func (e Ellipse) back(min, max float32) *mesh.Buffer {
	xMin, xMax := e.X*math32.Cos(min), e.X*math32.Cos(max)
	z := e.Z * math32.Sin(max)

	b := mesh.WithCapacity(4, 6)
	addQuad(b, mesh.PosZ, [4]mgl32.Vec3{
		{xMin, 0, z},
		{xMin, e.Thickness, z},
		{xMax, e.Thickness, z},
		{xMax, 0, z},
	})
	return b
}

// side is the flat face along the min-angle X bound.
func (e Ellipse) side(min, max float32) *mesh.Buffer {
	x := e.X * math32.Cos(min)
	zMin, zMax := e.Z*math32.Sin(min), e.Z*math32.Sin(max)

	b := mesh.WithCapacity(4, 6)
	addQuad(b, mesh.PosX, [4]mgl32.Vec3{
		{x, 0, zMin},
		{x, e.Thickness, zMin},
		{x, e.Thickness, zMax},
		{x, 0, zMax},
	})
	return b
}

// Build produces the wedge mesh. It fails with ErrOutOfRange if either
// angle lies outside [0, PI/2]; angles are never clamped. A resolution
// below 1 yields an empty buffer.
func (e Ellipse) Build() (*mesh.Buffer, error) {
	if !ValidAngle(e.FirstAngle) {
		return nil, fmt.Errorf("ellipse: first angle %g: %w", e.FirstAngle, ErrOutOfRange)
	}
	if !ValidAngle(e.SecondAngle) {
		return nil, fmt.Errorf("ellipse: second angle %g: %w", e.SecondAngle, ErrOutOfRange)
	}
	if e.Resolution < 1 {
		return mesh.New(), nil
	}

	min, max := e.minMaxAngle()
	b := e.wall(min, max, false)

	switch {
	case e.Rectangle:
		b.Merge(e.cap(min, max, true))
		b.Merge(e.cap(min, max, false))
		b.Merge(e.back(min, max))
		b.Merge(e.side(min, max))
	case e.TwoSided:
		b.Merge(e.wall(min, max, true))
	}

	return b.Translate(e.axisOffsets()), nil
}
