package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Report summarises the topology of a surface. Vertices that share an
// exact position are welded before edges are counted, so faces that carry
// their own flat-shaded copies of a corner still count as connected.
type Report struct {
	Vertices  int // raw vertex count
	Welded    int // distinct positions
	Triangles int

	OutOfRange          int // triangles referencing a missing vertex
	Degenerate          int // triangles with a repeated index or position
	BoundaryEdges       int // edges used by exactly one triangle
	NonManifoldEdges    int // edges used by more than two triangles
	InconsistentWinding int // edges walked twice in the same direction
	FlippedNormals      int // triangles winding against their vertex normals
}

// Closed reports whether the surface is a watertight, consistently wound
// two-manifold.
func (r Report) Closed() bool {
	return r.OutOfRange == 0 &&
		r.Degenerate == 0 &&
		r.BoundaryEdges == 0 &&
		r.NonManifoldEdges == 0 &&
		r.InconsistentWinding == 0
}

func (r Report) String() string {
	return fmt.Sprintf(
		"%d vertices (%d welded), %d triangles, %d boundary, %d non-manifold, %d misoriented, %d degenerate, %d flipped",
		r.Vertices, r.Welded, r.Triangles,
		r.BoundaryEdges, r.NonManifoldEdges, r.InconsistentWinding, r.Degenerate, r.FlippedNormals,
	)
}

type edgeKey struct {
	lo, hi int
}

type edgeUse struct {
	forward, backward int
}

// Inspect welds s by position and counts its edge usage.
func Inspect(s Surface) Report {
	r := Report{
		Vertices:  len(s.Positions),
		Triangles: len(s.Indices) / 3,
	}

	welded := make([]int, len(s.Positions))
	ids := make(map[mgl32.Vec3]int, len(s.Positions))
	for i, p := range s.Positions {
		id, ok := ids[p]
		if !ok {
			id = len(ids)
			ids[p] = id
		}
		welded[i] = id
	}
	r.Welded = len(ids)

	edges := make(map[edgeKey]*edgeUse)
	use := func(a, b int) {
		key := edgeKey{lo: a, hi: b}
		if a > b {
			key = edgeKey{lo: b, hi: a}
		}
		e := edges[key]
		if e == nil {
			e = &edgeUse{}
			edges[key] = e
		}
		if a < b {
			e.forward++
		} else {
			e.backward++
		}
	}

	for t := 0; t < r.Triangles; t++ {
		i, j, k := s.Indices[3*t], s.Indices[3*t+1], s.Indices[3*t+2]
		n := uint32(len(s.Positions))
		if i >= n || j >= n || k >= n {
			r.OutOfRange++
			continue
		}
		a, b, c := welded[i], welded[j], welded[k]
		if a == b || b == c || c == a {
			r.Degenerate++
			continue
		}
		use(a, b)
		use(b, c)
		use(c, a)

		if len(s.Normals) == len(s.Positions) {
			face := FaceNormal(s.Positions[i], s.Positions[j], s.Positions[k])
			vertex := s.Normals[i].Add(s.Normals[j]).Add(s.Normals[k])
			if face.Dot(vertex) < 0 {
				r.FlippedNormals++
			}
		}
	}

	for _, e := range edges {
		switch total := e.forward + e.backward; {
		case total == 1:
			r.BoundaryEdges++
		case total > 2:
			r.NonManifoldEdges++
		case e.forward == 2 || e.backward == 2:
			r.InconsistentWinding++
		}
	}

	return r
}
