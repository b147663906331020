package shapes

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/chazu/pinball/pkg/mesh"
)

// Table is the playfield tray: a floor and four walls, open on top.
type Table struct {
	// Height is the length of the playfield along Z.
	Height float32
	// Width is the length of the playfield along X.
	Width float32
	// Thickness is the wall height along Y.
	Thickness float32
}

// NewTable returns a table descriptor.
func NewTable(height, width, wallHeight float32) Table {
	return Table{Height: height, Width: width, Thickness: wallHeight}
}

// DefaultTable returns a 5x3 tray with walls one unit high.
func DefaultTable() Table {
	return Table{Height: 5, Width: 3, Thickness: 1}
}

// Validate reports whether all three dimensions are positive.
// Build never calls it.
func (t Table) Validate() error {
	if t.Height <= 0 || t.Width <= 0 || t.Thickness <= 0 {
		return fmt.Errorf("table: dimensions %gx%gx%g must be positive: %w",
			t.Height, t.Width, t.Thickness, ErrDegenerate)
	}
	return nil
}

// Build produces the tray mesh, centered on the table in all three axes.
// Every wall is emitted twice, once facing the playfield and once facing
// out, so it is solid from both sides.
func (t Table) Build() *mesh.Buffer {
	x0, y0, z0 := -t.Width/2, -t.Thickness/2, -t.Height/2
	x1, y1, z1 := x0+t.Width, y0+t.Thickness, z0+t.Height

	faces := []struct {
		normal  mgl32.Vec3
		corners [4]mgl32.Vec3
	}{
		// Floor
		{mesh.PosY, [4]mgl32.Vec3{{x0, y0, z0}, {x0, y0, z1}, {x1, y0, z1}, {x1, y0, z0}}},
		// Left wall, inside then outside
		{mesh.PosX, [4]mgl32.Vec3{{x0, y0, z0}, {x0, y1, z0}, {x0, y1, z1}, {x0, y0, z1}}},
		{mesh.NegX, [4]mgl32.Vec3{{x0, y0, z0}, {x0, y0, z1}, {x0, y1, z1}, {x0, y1, z0}}},
		// Front wall
		{mesh.NegZ, [4]mgl32.Vec3{{x0, y0, z1}, {x0, y1, z1}, {x1, y1, z1}, {x1, y0, z1}}},
		{mesh.PosZ, [4]mgl32.Vec3{{x0, y0, z1}, {x1, y0, z1}, {x1, y1, z1}, {x0, y1, z1}}},
		// Right wall
		{mesh.NegX, [4]mgl32.Vec3{{x1, y0, z1}, {x1, y1, z1}, {x1, y1, z0}, {x1, y0, z0}}},
		{mesh.PosX, [4]mgl32.Vec3{{x1, y0, z1}, {x1, y0, z0}, {x1, y1, z0}, {x1, y1, z1}}},
		// Back wall
		{mesh.PosZ, [4]mgl32.Vec3{{x0, y0, z0}, {x1, y0, z0}, {x1, y1, z0}, {x0, y1, z0}}},
		{mesh.NegZ, [4]mgl32.Vec3{{x0, y0, z0}, {x0, y1, z0}, {x1, y1, z0}, {x1, y0, z0}}},
	}

	b := mesh.WithCapacity(4*len(faces), 6*len(faces))
	for _, f := range faces {
		addQuad(b, f.normal, f.corners)
	}
	return b
}
