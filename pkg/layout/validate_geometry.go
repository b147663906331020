package layout

import (
	"fmt"

	"github.com/chewxy/math32"
)

// MaxEccentricity is the half-axis ratio above which a wedge's radial
// normals stray noticeably from the true ellipse normals.
const MaxEccentricity = 5

// validateGeometry runs the geometric checks: every shape must describe a
// valid solid, and a few shapes that build fine still get a warning.
func validateGeometry(l *Layout) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	for _, node := range l.Shapes() {
		data, ok := node.Data.(ShapeData)
		if !ok {
			continue
		}
		if err := data.Validate(); err != nil {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("%s %q: %v", data.ShapeKind(), node.Label(), err),
				Severity: SeverityError,
				Err:      err,
			})
			continue
		}

		if e, ok := data.(EllipseData); ok {
			warnings = append(warnings, ellipseWarnings(node, e)...)
		}
	}
	return errs, warnings
}

func ellipseWarnings(node *Node, d EllipseData) []ValidationWarning {
	var warnings []ValidationWarning
	e := d.Ellipse

	ratio := math32.Max(e.X, e.Z) / math32.Min(e.X, e.Z)
	if ratio > MaxEccentricity {
		warnings = append(warnings, ValidationWarning{
			NodeID:  node.ID,
			Message: fmt.Sprintf("ellipse %q has half-axis ratio %.1f; its radial normals are a coarse approximation", node.Label(), ratio),
		})
	}
	if !e.Rectangle && !e.TwoSided {
		warnings = append(warnings, ValidationWarning{
			NodeID:  node.ID,
			Message: fmt.Sprintf("thin ellipse %q is one-sided and only collides from its concave side", node.Label()),
		})
	}
	return warnings
}
