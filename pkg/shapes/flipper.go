package shapes

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/chazu/pinball/pkg/mesh"
)

// Flipper is a lozenge-shaped paddle: a large and a small circular arc
// joined by their two external tangent lines, extruded along Y.
//
// The large arc is centered on the local origin; the small arc is centered
// DistanceCenters() further along X and half the radius difference along Z.
// Callers must keep Length > RadiusMin+RadiusMax and RadiusMax >= RadiusMin;
// Build does not check this (see Validate).
type Flipper struct {
	Length     float32
	RadiusMin  float32
	RadiusMax  float32
	Thickness  float32
	Resolution int
}

// NewFlipper returns a flipper descriptor.
func NewFlipper(length, radiusMin, radiusMax, thickness float32, resolution int) Flipper {
	return Flipper{
		Length:     length,
		RadiusMin:  radiusMin,
		RadiusMax:  radiusMax,
		Thickness:  thickness,
		Resolution: resolution,
	}
}

// DistanceCenters returns the gap left between the arcs along X.
func (f Flipper) DistanceCenters() float32 {
	return f.Length - (f.RadiusMin + f.RadiusMax)
}

// Alpha returns the angle both arcs are rotated by so that the lower
// tangent line meets them.
func (f Flipper) Alpha() float32 {
	tangent := (f.RadiusMax - f.RadiusMin) / (2 * f.DistanceCenters())
	return math32.Atan(tangent) * 2
}

// smallOffset is the position of the small arc center.
func (f Flipper) smallOffset() mgl32.Vec3 {
	return mgl32.Vec3{f.DistanceCenters(), 0, (f.RadiusMax - f.RadiusMin) / 2}
}

// arc describes one tessellated circle arc around its own center.
type arc struct {
	radius float32
	start  float32
	step   float32
}

func (a arc) point(i int, height float32) mgl32.Vec3 {
	angle := a.start + a.step*float32(i)
	return mgl32.Vec3{a.radius * math32.Cos(angle), height, a.radius * math32.Sin(angle)}
}

// large runs from PI/2 over PI+alpha, small from alpha-PI/2 to PI/2.
func (f Flipper) arcs() (large, small arc) {
	alpha := f.Alpha()
	n := float32(f.Resolution)
	large = arc{radius: f.RadiusMax, start: halfPi, step: (2*halfPi + alpha) / n}
	small = arc{radius: f.RadiusMin, start: alpha - halfPi, step: (2*halfPi - alpha) / n}
	return large, small
}

// border builds the side wall: both arcs at heights 0 and Thickness in one
// strip, the lower tangent quad joining them and a last quad along the
// upper tangent closing the loop onto vertices 0 and 1.
func (f Flipper) border() *mesh.Buffer {
	large, small := f.arcs()
	offset := f.smallOffset()

	b := mesh.WithCapacity(4*(f.Resolution+1), 12*(f.Resolution+1))
	for i := 0; i <= f.Resolution; i++ {
		for _, h := range [2]float32{0, f.Thickness} {
			p := large.point(i, h)
			b.AddVertex(p, radial(p, 1))
		}
	}
	for i := 0; i <= f.Resolution; i++ {
		for _, h := range [2]float32{0, f.Thickness} {
			p := small.point(i, h)
			b.AddVertex(p.Add(offset), radial(p, 1))
		}
	}

	n := uint32(b.VertexCount())
	for i := uint32(0); i < n-2; i += 2 {
		b.AddTriangle(i, i+1, i+3)
		b.AddTriangle(i+3, i+2, i)
	}
	b.AddTriangle(n-2, n-1, 1)
	b.AddTriangle(1, 0, n-2)
	return b
}

// fan builds one arc's cap as a triangle fan around the arc center.
func (f Flipper) fan(a arc, top bool) *mesh.Buffer {
	height, normal := float32(0), mesh.NegY
	if top {
		height, normal = f.Thickness, mesh.PosY
	}

	b := mesh.WithCapacity(f.Resolution+2, 3*f.Resolution)
	b.AddVertex(mgl32.Vec3{0, height, 0}, normal)
	for i := 0; i <= f.Resolution; i++ {
		b.AddVertex(a.point(i, height), normal)
	}

	for i := uint32(1); i < uint32(b.VertexCount()-1); i++ {
		if top {
			b.AddTriangle(0, i+1, i)
		} else {
			b.AddTriangle(0, i, i+1)
		}
	}
	return b
}

// Gusset triangles over the fan centers and end points
// [large center, large first, large last, small center, small first, small last].
var (
	gussetBottom = []uint32{0, 2, 4, 0, 4, 3, 1, 0, 3, 1, 3, 5}
	gussetTop    = []uint32{0, 4, 2, 0, 3, 4, 1, 3, 0, 1, 5, 3}
)

// cap builds the top or bottom face: the two arc fans and the gusset that
// closes the gap between them.
func (f Flipper) cap(top bool) *mesh.Buffer {
	large, small := f.arcs()

	b := f.fan(large, top)
	right := f.fan(small, top).Translate(f.smallOffset())

	normal, order := mesh.NegY, gussetBottom
	if top {
		normal, order = mesh.PosY, gussetTop
	}
	gusset := mesh.WithCapacity(6, len(order))
	for _, v := range []mgl32.Vec3{
		b.Vertices[0], b.Vertices[1], b.Vertices[len(b.Vertices)-1],
		right.Vertices[0], right.Vertices[1], right.Vertices[len(right.Vertices)-1],
	} {
		gusset.AddVertex(v, normal)
	}
	gusset.Indices = append(gusset.Indices, order...)

	return b.Merge(gusset).Merge(right)
}

// Validate reports whether the parameters describe a proper paddle.
// Build never calls it.
func (f Flipper) Validate() error {
	switch {
	case f.Resolution < 1:
		return fmt.Errorf("flipper: resolution %d: %w", f.Resolution, ErrDegenerate)
	case f.Thickness <= 0:
		return fmt.Errorf("flipper: thickness %g: %w", f.Thickness, ErrDegenerate)
	case f.RadiusMin <= 0:
		return fmt.Errorf("flipper: small radius %g: %w", f.RadiusMin, ErrDegenerate)
	case f.RadiusMax < f.RadiusMin:
		return fmt.Errorf("flipper: large radius %g below small radius %g: %w", f.RadiusMax, f.RadiusMin, ErrDegenerate)
	case f.DistanceCenters() <= 0:
		return fmt.Errorf("flipper: length %g does not exceed radii sum %g: %w",
			f.Length, f.RadiusMin+f.RadiusMax, ErrDegenerate)
	}
	return nil
}

// Build produces the closed paddle mesh: bottom cap, top cap, then the
// side wall. A resolution below 1 yields an empty buffer.
func (f Flipper) Build() *mesh.Buffer {
	if f.Resolution < 1 {
		return mesh.New()
	}
	b := f.cap(false)
	b.Merge(f.cap(true))
	b.Merge(f.border())
	return b
}
