package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Surface is a finished mesh handed off by a Buffer. It is the attribute
// triple collaborators expect: triangle-list topology, positions and
// normals co-indexed, uint32 indices into both.
type Surface struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Indices   []uint32
}

// Flat is a Surface with its vectors unrolled into float32 arrays.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Flat struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
}

// VertexCount returns the number of vertices.
func (s Surface) VertexCount() int {
	return len(s.Positions)
}

// TriangleCount returns the number of triangles.
func (s Surface) TriangleCount() int {
	return len(s.Indices) / 3
}

// IsEmpty returns true if the surface has no geometry.
func (s Surface) IsEmpty() bool {
	return len(s.Positions) == 0
}

// Triangle returns the three corner positions of triangle t.
func (s Surface) Triangle(t int) (a, b, c mgl32.Vec3) {
	return s.Positions[s.Indices[3*t]], s.Positions[s.Indices[3*t+1]], s.Positions[s.Indices[3*t+2]]
}

// Bounds returns the axis-aligned bounding box of the positions.
// An empty surface yields two zero vectors.
func (s Surface) Bounds() (min, max mgl32.Vec3) {
	if len(s.Positions) == 0 {
		return min, max
	}
	min = mgl32.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	max = mgl32.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for _, p := range s.Positions {
		for k := 0; k < 3; k++ {
			if p[k] < min[k] {
				min[k] = p[k]
			}
			if p[k] > max[k] {
				max[k] = p[k]
			}
		}
	}
	return min, max
}

// Flatten unrolls the surface into float32 arrays.
func (s Surface) Flatten() Flat {
	f := Flat{
		Vertices: make([]float32, 0, 3*len(s.Positions)),
		Normals:  make([]float32, 0, 3*len(s.Normals)),
		Indices:  append([]uint32(nil), s.Indices...),
	}
	for _, p := range s.Positions {
		f.Vertices = append(f.Vertices, p[0], p[1], p[2])
	}
	for _, n := range s.Normals {
		f.Normals = append(f.Normals, n[0], n[1], n[2])
	}
	return f
}

// FaceNormal returns the unnormalized normal of the counter-clockwise
// triangle (a, b, c), following the right-hand rule.
func FaceNormal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	return b.Sub(a).Cross(c.Sub(a))
}
