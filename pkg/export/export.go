// Package export writes tessellated parts to disk: one binary STL file per
// part through sdfx, or a single JSON document holding every part's
// attribute triple and placement.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/chazu/pinball/pkg/mesh"
	"github.com/chazu/pinball/pkg/tessellate"
)

// Format selects the output file type.
type Format string

const (
	FormatSTL  Format = "stl"
	FormatJSON Format = "json"
)

// ParseFormat converts "stl" or "json" to a Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatSTL, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("export: unknown format %q (want stl or json)", name)
}

// Triangles converts s into sdfx triangles. Vertex normals are dropped;
// STL readers derive facet normals from the winding.
func Triangles(s mesh.Surface) []*sdf.Triangle3 {
	tris := make([]*sdf.Triangle3, 0, s.TriangleCount())
	for t := 0; t < s.TriangleCount(); t++ {
		a, b, c := s.Triangle(t)
		tris = append(tris, &sdf.Triangle3{vec(a), vec(b), vec(c)})
	}
	return tris
}

func vec(p mgl32.Vec3) v3.Vec {
	return v3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
}

// STL writes s to path as a binary STL file.
func STL(path string, s mesh.Surface) error {
	if s.IsEmpty() {
		return fmt.Errorf("export: %s: empty surface", path)
	}
	if err := render.SaveSTL(path, Triangles(s)); err != nil {
		return fmt.Errorf("export: %s: %w", path, err)
	}
	return nil
}

// Transform is the JSON form of a part placement.
type Transform struct {
	Translation [3]float32 `json:"translation"`
	// Rotation is a unit quaternion as x, y, z, w.
	Rotation [4]float32 `json:"rotation"`
}

// Part is the JSON form of a tessellated part. Geometry is in
// shape-local coordinates; Transform places it on the table.
type Part struct {
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	TwoSided  bool      `json:"twoSided"`
	Closed    bool      `json:"closed"`
	Transform Transform `json:"transform"`
	mesh.Flat
}

// NewPart converts a tessellated part to its JSON form.
func NewPart(p *tessellate.Part) Part {
	q := p.Transform.Rotation
	return Part{
		Name:     p.Name,
		Kind:     p.Kind,
		TwoSided: p.TwoSided,
		Closed:   p.Report.Closed(),
		Transform: Transform{
			Translation: p.Transform.Translation,
			Rotation:    [4]float32{q.V[0], q.V[1], q.V[2], q.W},
		},
		Flat: p.Surface.Flatten(),
	}
}

// JSON writes parts to w as one JSON document.
func JSON(w io.Writer, parts []*tessellate.Part) error {
	doc := struct {
		Parts []Part `json:"parts"`
	}{Parts: make([]Part, 0, len(parts))}
	for _, p := range parts {
		doc.Parts = append(doc.Parts, NewPart(p))
	}
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	return nil
}

// FileName returns a file name for p with the given extension. Characters
// that are awkward in paths are replaced with '-'.
func FileName(p *tessellate.Part, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '#', '/', '\\', ':', ' ':
			return '-'
		}
		return r
	}, p.Name)
	return name + "." + ext
}

// uniqueName returns name, or name with a "-2", "-3", ... suffix before
// the extension when it is already in use.
func uniqueName(name string, used map[string]bool) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 2; used[name]; n++ {
		name = fmt.Sprintf("%s-%d%s", base, n, ext)
	}
	used[name] = true
	return name
}

// Write exports parts into dir in the given format and returns the paths
// it wrote. STL parts are written in table coordinates, one file per part
// even when two names sanitise alike. JSON goes to a single layout.json.
func Write(dir string, format Format, parts []*tessellate.Part) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	switch format {
	case FormatSTL:
		paths := make([]string, 0, len(parts))
		used := make(map[string]bool, len(parts))
		for _, p := range parts {
			path := filepath.Join(dir, uniqueName(FileName(p, "stl"), used))
			if err := STL(path, p.World()); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
		return paths, nil

	case FormatJSON:
		path := filepath.Join(dir, "layout.json")
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		if err := JSON(f, parts); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		return []string{path}, nil
	}
	return nil, fmt.Errorf("export: unknown format %q", format)
}
