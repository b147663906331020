// Package shapes builds the solid meshes placed on a pinball table: the
// carved ellipse wedge, the flipper paddle and the walled table tray.
//
// Every builder is a pure function of its descriptor. Local coordinates
// use Y as the up axis; angles are measured from +X towards +Z.
package shapes

import (
	"errors"
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/chazu/pinball/pkg/mesh"
)

const halfPi float32 = math.Pi / 2

var (
	// ErrOutOfRange is returned when a wedge angle lies outside [0, PI/2].
	ErrOutOfRange = errors.New("angle must be between 0 and PI/2 (inclusive)")

	// ErrDegenerate is returned by the Validate methods when the
	// parameters cannot describe a valid solid.
	ErrDegenerate = errors.New("degenerate shape parameters")
)

// addQuad appends the four corners of a flat face, listed counter-clockwise
// as seen from the side normal points to, and the two triangles covering it.
func addQuad(b *mesh.Buffer, normal mgl32.Vec3, corners [4]mgl32.Vec3) {
	first := uint32(b.VertexCount())
	for _, c := range corners {
		b.AddVertex(c, normal)
	}
	b.AddTriangle(first, first+1, first+2)
	b.AddTriangle(first+2, first+3, first)
}

// radial returns the in-plane (XZ) direction of p scaled by sign and
// normalized. The zero vector is returned for points on the Y axis.
func radial(p mgl32.Vec3, sign float32) mgl32.Vec3 {
	v := mgl32.Vec3{sign * p.X(), 0, sign * p.Z()}
	l := math32.Sqrt(v.X()*v.X() + v.Z()*v.Z())
	if l == 0 {
		return mgl32.Vec3{}
	}
	return mgl32.Vec3{v.X() / l, 0, v.Z() / l}
}
