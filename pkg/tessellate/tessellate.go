// Package tessellate walks a layout and builds one triangle mesh per placed
// shape. Surfaces stay in shape-local coordinates; each part carries the
// world transform accumulated on the way down.
package tessellate

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/chazu/pinball/pkg/layout"
	"github.com/chazu/pinball/pkg/mesh"
)

// Part is one placed shape, ready for a renderer or a collider.
type Part struct {
	// Name is the shape name, suffixed with #2, #3... when the same shape
	// is placed more than once.
	Name      string
	Shape     layout.NodeID
	Kind      string
	Transform layout.TransformData
	// TwoSided is true when the collider must treat both faces as solid.
	TwoSided bool
	Surface  mesh.Surface
	Report   mesh.Report
	Data     layout.ShapeData
}

// World returns the surface moved into table coordinates. Normals are
// rotated, never translated.
func (p *Part) World() mesh.Surface {
	s := mesh.Surface{
		Positions: make([]mgl32.Vec3, len(p.Surface.Positions)),
		Normals:   make([]mgl32.Vec3, len(p.Surface.Normals)),
		Indices:   append([]uint32(nil), p.Surface.Indices...),
	}
	for i, v := range p.Surface.Positions {
		s.Positions[i] = p.Transform.Apply(v)
	}
	for i, n := range p.Surface.Normals {
		s.Normals[i] = p.Transform.Rotation.Rotate(n)
	}
	return s
}

// built caches one surface per shape node; placements share it.
type built struct {
	surface mesh.Surface
	report  mesh.Report
}

type walker struct {
	l      *layout.Layout
	cache  map[layout.NodeID]built
	seen   map[string]int
	onPath map[layout.NodeID]bool
	parts  []*Part
}

// Tessellate walks every root of l and builds its shapes. A layout without
// roots yields every shape once, unplaced. The layout is read-only to the
// tessellator. Shapes are built once, however many times they are placed.
func Tessellate(l *layout.Layout) ([]*Part, error) {
	if l == nil {
		return nil, nil
	}

	w := &walker{
		l:      l,
		cache:  make(map[layout.NodeID]built),
		seen:   make(map[string]int),
		onPath: make(map[layout.NodeID]bool),
	}
	if len(l.Roots) == 0 {
		for _, n := range l.Shapes() {
			if err := w.walk(n, layout.Identity()); err != nil {
				return nil, fmt.Errorf("tessellate: %w", err)
			}
		}
		return w.parts, nil
	}

	for _, rootID := range l.Roots {
		root := l.Get(rootID)
		if root == nil {
			continue
		}
		if err := w.walk(root, layout.Identity()); err != nil {
			return nil, fmt.Errorf("tessellate: root %s: %w", rootID.Short(), err)
		}
	}
	return w.parts, nil
}

func (w *walker) walk(n *layout.Node, xf layout.TransformData) error {
	if w.onPath[n.ID] {
		return fmt.Errorf("cycle through node %s", n.ID.Short())
	}
	w.onPath[n.ID] = true
	defer delete(w.onPath, n.ID)

	switch n.Kind {
	case layout.NodeShape:
		return w.shape(n, xf)
	case layout.NodeTransform:
		td, ok := n.Data.(layout.TransformData)
		if !ok {
			return fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
		}
		return w.children(n, td.Then(xf))
	case layout.NodeGroup:
		return w.children(n, xf)
	default:
		return fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

func (w *walker) children(n *layout.Node, xf layout.TransformData) error {
	for _, child := range w.l.Children(n) {
		if err := w.walk(child, xf); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) shape(n *layout.Node, xf layout.TransformData) error {
	data, ok := n.Data.(layout.ShapeData)
	if !ok {
		return fmt.Errorf("shape node %s has unsupported data type %T", n.ID.Short(), n.Data)
	}

	b, ok := w.cache[n.ID]
	if !ok {
		buf, err := data.Build()
		if err != nil {
			return fmt.Errorf("build %s %s: %w", data.ShapeKind(), n.ID.Short(), err)
		}
		s := buf.IntoSurface()
		b = built{surface: s, report: mesh.Inspect(s)}
		w.cache[n.ID] = b
	}

	name := n.Label()
	w.seen[name]++
	if k := w.seen[name]; k > 1 {
		name = fmt.Sprintf("%s#%d", name, k)
	}

	w.parts = append(w.parts, &Part{
		Name:      name,
		Shape:     n.ID,
		Kind:      data.ShapeKind(),
		Transform: xf,
		TwoSided:  data.TwoSided(),
		Surface:   b.surface,
		Report:    b.report,
		Data:      data,
	})
	return nil
}
