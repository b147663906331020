// Package mesh holds the triangle-mesh accumulator shared by every shape
// builder. Vertices, normals and indices are kept as three co-indexed
// arrays, the layout renderers and physics colliders consume directly.
package mesh

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// Unit normals along the local axes.
var (
	PosX = mgl32.Vec3{1, 0, 0}
	NegX = mgl32.Vec3{-1, 0, 0}
	PosY = mgl32.Vec3{0, 1, 0}
	NegY = mgl32.Vec3{0, -1, 0}
	PosZ = mgl32.Vec3{0, 0, 1}
	NegZ = mgl32.Vec3{0, 0, -1}
)

// Buffer is a triangle mesh under construction.
// Normals[i] belongs to Vertices[i]; every consecutive triple of Indices
// names one counter-clockwise triangle.
type Buffer struct {
	Vertices []mgl32.Vec3
	Normals  []mgl32.Vec3
	Indices  []uint32
}

// New returns an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// WithCapacity returns an empty buffer sized for the given number of
// vertices and indices. Negative sizes are treated as zero.
func WithCapacity(vertices, indices int) *Buffer {
	vertices, indices = max(vertices, 0), max(indices, 0)
	return &Buffer{
		Vertices: make([]mgl32.Vec3, 0, vertices),
		Normals:  make([]mgl32.Vec3, 0, vertices),
		Indices:  make([]uint32, 0, indices),
	}
}

// AddVertex appends a vertex with its normal and returns its index.
func (b *Buffer) AddVertex(position, normal mgl32.Vec3) uint32 {
	b.Vertices = append(b.Vertices, position)
	b.Normals = append(b.Normals, normal)
	return uint32(len(b.Vertices) - 1)
}

// AddTriangle appends one triangle.
func (b *Buffer) AddTriangle(i, j, k uint32) {
	b.Indices = append(b.Indices, i, j, k)
}

// Merge appends other to b. The vertices and normals of other are copied
// verbatim and its indices are shifted by the vertex count b had before
// the merge. other is left untouched. Merge returns b.
func (b *Buffer) Merge(other *Buffer) *Buffer {
	if other == nil {
		return b
	}
	offset := uint32(len(b.Vertices))

	b.Vertices = append(b.Vertices, other.Vertices...)
	b.Normals = append(b.Normals, other.Normals...)

	b.Indices = slices.Grow(b.Indices, len(other.Indices))
	for _, i := range other.Indices {
		b.Indices = append(b.Indices, i+offset)
	}
	return b
}

// Translate moves every vertex by offset. Normals are not affected.
// Translate returns b.
func (b *Buffer) Translate(offset mgl32.Vec3) *Buffer {
	for i := range b.Vertices {
		b.Vertices[i] = b.Vertices[i].Add(offset)
	}
	return b
}

// Clone returns a deep copy of b.
func (b *Buffer) Clone() *Buffer {
	return &Buffer{
		Vertices: append([]mgl32.Vec3(nil), b.Vertices...),
		Normals:  append([]mgl32.Vec3(nil), b.Normals...),
		Indices:  append([]uint32(nil), b.Indices...),
	}
}

// VertexCount returns the number of vertices.
func (b *Buffer) VertexCount() int {
	return len(b.Vertices)
}

// TriangleCount returns the number of triangles.
func (b *Buffer) TriangleCount() int {
	return len(b.Indices) / 3
}

// IsEmpty returns true if the buffer has no geometry.
func (b *Buffer) IsEmpty() bool {
	return len(b.Vertices) == 0
}

// IntoSurface hands the three arrays over to the caller. The buffer is
// empty afterwards and may not be used to reach the returned slices.
func (b *Buffer) IntoSurface() Surface {
	s := Surface{
		Positions: b.Vertices,
		Normals:   b.Normals,
		Indices:   b.Indices,
	}
	b.Vertices, b.Normals, b.Indices = nil, nil, nil
	return s
}
