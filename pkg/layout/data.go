package layout

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/chazu/pinball/pkg/flip"
	"github.com/chazu/pinball/pkg/mesh"
	"github.com/chazu/pinball/pkg/shapes"
)

// ShapeData is the payload of a shape node. Each implementation wraps one
// shape descriptor.
type ShapeData interface {
	NodeData
	// ShapeKind names the shape: "table", "ellipse" or "flipper".
	ShapeKind() string
	// Build produces the shape mesh in local coordinates.
	Build() (*mesh.Buffer, error)
	// Validate reports parameters that cannot produce a valid solid.
	Validate() error
	// TwoSided reports whether the mesh has to collide from both sides.
	TwoSided() bool
}

// ---------------------------------------------------------------------------
// Shapes
// ---------------------------------------------------------------------------

// TableData is the playfield tray.
type TableData struct {
	Table shapes.Table `json:"table"`
}

func (TableData) nodeData()         {}
func (TableData) ShapeKind() string { return "table" }
func (TableData) TwoSided() bool    { return true }

func (d TableData) Build() (*mesh.Buffer, error) { return d.Table.Build(), nil }
func (d TableData) Validate() error              { return d.Table.Validate() }

// EllipseData is a carved ellipse wedge or a thin elliptic guide.
type EllipseData struct {
	Ellipse shapes.Ellipse `json:"ellipse"`
}

func (EllipseData) nodeData()         {}
func (EllipseData) ShapeKind() string { return "ellipse" }

func (d EllipseData) TwoSided() bool {
	return !d.Ellipse.Rectangle && d.Ellipse.TwoSided
}

func (d EllipseData) Build() (*mesh.Buffer, error) { return d.Ellipse.Build() }

// Validate checks the angles, which Build rejects as well, and the
// dimensions, which Build does not look at.
func (d EllipseData) Validate() error {
	e := d.Ellipse
	for _, a := range []float32{e.FirstAngle, e.SecondAngle} {
		if !shapes.ValidAngle(a) {
			return fmt.Errorf("ellipse: angle %g: %w", a, shapes.ErrOutOfRange)
		}
	}
	switch {
	case e.Resolution < 1:
		return fmt.Errorf("ellipse: resolution %d: %w", e.Resolution, shapes.ErrDegenerate)
	case e.X <= 0 || e.Z <= 0:
		return fmt.Errorf("ellipse: half-axes %gx%g: %w", e.X, e.Z, shapes.ErrDegenerate)
	case e.Thickness <= 0:
		return fmt.Errorf("ellipse: thickness %g: %w", e.Thickness, shapes.ErrDegenerate)
	}
	return nil
}

// FlipperData is a flipper paddle and the button side that drives it.
type FlipperData struct {
	Flipper shapes.Flipper `json:"flipper"`
	Side    flip.Side      `json:"side"`
}

func (FlipperData) nodeData()         {}
func (FlipperData) ShapeKind() string { return "flipper" }
func (FlipperData) TwoSided() bool    { return false }

func (d FlipperData) Build() (*mesh.Buffer, error) { return d.Flipper.Build(), nil }
func (d FlipperData) Validate() error              { return d.Flipper.Validate() }

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData places its single child: the child is rotated first, then
// translated. Created by the (place ...) form.
type TransformData struct {
	Translation mgl32.Vec3 `json:"translation"`
	Rotation    mgl32.Quat `json:"rotation"`
}

func (TransformData) nodeData() {}

// Identity returns a transform that leaves its child in place.
func Identity() TransformData {
	return TransformData{Rotation: mgl32.QuatIdent()}
}

// Apply maps a point from child to parent coordinates.
func (t TransformData) Apply(p mgl32.Vec3) mgl32.Vec3 {
	return t.Rotation.Rotate(p).Add(t.Translation)
}

// Then composes t under parent: the result applies t, then parent.
func (t TransformData) Then(parent TransformData) TransformData {
	return TransformData{
		Translation: parent.Apply(t.Translation),
		Rotation:    parent.Rotation.Mul(t.Rotation),
	}
}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData is a logical grouping. Created by the (assembly ...) form.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
