package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/pinball/pkg/config"
	"github.com/chazu/pinball/pkg/layout"
	"github.com/chazu/pinball/pkg/mesh"
	"github.com/chazu/pinball/pkg/shapes"
	"github.com/chazu/pinball/pkg/tessellate"
)

// binary STL: 80 byte header, uint32 count, 50 bytes per facet
func stlSize(triangles int) int64 {
	return 84 + 50*int64(triangles)
}

func standardParts(t *testing.T) []*tessellate.Part {
	t.Helper()
	parts, err := tessellate.Tessellate(layout.Standard(config.Default()))
	require.NoError(t, err)
	require.NotEmpty(t, parts)
	return parts
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"stl": FormatSTL, "STL": FormatSTL, "json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("obj")
	assert.Error(t, err)
}

func TestTriangles(t *testing.T) {
	s := shapes.NewTable(8, 5, 0.3).Build().IntoSurface()
	tris := Triangles(s)
	require.Len(t, tris, 18)

	a, b, c := s.Triangle(0)
	for k, p := range []mgl32.Vec3{a, b, c} {
		assert.InDelta(t, p.X(), tris[0][k].X, 1e-9)
		assert.InDelta(t, p.Y(), tris[0][k].Y, 1e-9)
		assert.InDelta(t, p.Z(), tris[0][k].Z, 1e-9)
	}

	// The floor faces up, so does its first facet.
	n := tris[0].Normal()
	assert.InDelta(t, 1, n.Y, 1e-9)
}

func TestSTL(t *testing.T) {
	s := shapes.NewFlipper(0.7, 0.05, 0.1, 0.28, 20).Build().IntoSurface()
	path := filepath.Join(t.TempDir(), "flipper.stl")

	require.NoError(t, STL(path, s))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, stlSize(s.TriangleCount()), info.Size())
}

func TestSTLEmpty(t *testing.T) {
	err := STL(filepath.Join(t.TempDir(), "empty.stl"), mesh.Surface{})
	assert.ErrorContains(t, err, "empty surface")
}

func TestJSON(t *testing.T) {
	parts := standardParts(t)

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, parts))

	var doc struct {
		Parts []Part `json:"parts"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Parts, len(parts))

	for i, got := range doc.Parts {
		want := parts[i]
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Kind, got.Kind)
		assert.Equal(t, want.TwoSided, got.TwoSided)
		assert.Equal(t, want.Report.Closed(), got.Closed)
		assert.Len(t, got.Vertices, 3*want.Surface.VertexCount())
		assert.Len(t, got.Normals, 3*want.Surface.VertexCount())
		assert.Equal(t, want.Surface.Indices, got.Indices)

		q := want.Transform.Rotation
		assert.Equal(t, [4]float32{q.V[0], q.V[1], q.V[2], q.W}, got.Transform.Rotation)
	}
}

func TestJSONKeys(t *testing.T) {
	l := layout.New(config.Default())
	l.AddRoot(l.AddGroup("root", l.AddShape("tray", layout.TableData{Table: shapes.DefaultTable()})))
	parts, err := tessellate.Tessellate(l)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, parts))

	var raw map[string][]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	require.Len(t, raw["parts"], 1)
	for _, key := range []string{"name", "kind", "twoSided", "closed", "transform", "vertices", "normals", "indices"} {
		assert.Contains(t, raw["parts"][0], key)
	}
	assert.Equal(t, []any{0.0, 0.0, 0.0, 1.0}, raw["parts"][0]["transform"].(map[string]any)["rotation"])
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"table":        "table.stl",
		"bumper#2":     "bumper-2.stl",
		"left flipper": "left-flipper.stl",
		"a/b":          "a-b.stl",
	}
	for name, want := range tests {
		assert.Equal(t, want, FileName(&tessellate.Part{Name: name}, "stl"))
	}
}

func TestWriteSTL(t *testing.T) {
	parts := standardParts(t)
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := Write(dir, FormatSTL, parts)
	require.NoError(t, err)
	require.Len(t, paths, len(parts))

	for i, path := range paths {
		assert.Equal(t, filepath.Join(dir, FileName(parts[i], "stl")), path)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, stlSize(parts[i].Surface.TriangleCount()), info.Size(), path)
	}
}

func TestWriteSTLNameClash(t *testing.T) {
	l := layout.New(config.Default())
	flipper := layout.FlipperData{Flipper: shapes.NewFlipper(0.7, 0.05, 0.1, 0.28, 20)}
	bumper := l.AddShape("bumper", flipper)
	l.AddRoot(l.AddGroup("machine",
		l.Place(bumper, mgl32.Vec3{}, mgl32.QuatIdent()),
		l.Place(bumper, mgl32.Vec3{1, 0, 0}, mgl32.QuatIdent()),
		l.AddShape("bumper-2", flipper),
		l.AddShape("bumper 2", flipper),
	))
	parts, err := tessellate.Tessellate(l)
	require.NoError(t, err)
	require.Len(t, parts, 4)

	dir := t.TempDir()
	paths, err := Write(dir, FormatSTL, parts)
	require.NoError(t, err)
	require.Len(t, paths, 4)

	seen := make(map[string]bool)
	for i, path := range paths {
		assert.False(t, seen[path], "%s written twice", path)
		seen[path] = true
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, stlSize(parts[i].Surface.TriangleCount()), info.Size(), path)
	}
	for _, name := range []string{"bumper.stl", "bumper-2.stl", "bumper-2-2.stl", "bumper-2-3.stl"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
}

func TestUniqueName(t *testing.T) {
	used := make(map[string]bool)
	assert.Equal(t, "a-2.stl", uniqueName("a-2.stl", used))
	assert.Equal(t, "a.stl", uniqueName("a.stl", used))
	assert.Equal(t, "a-3.stl", uniqueName("a.stl", used))
	assert.Equal(t, "a-2-2.stl", uniqueName("a-2.stl", used))
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	paths, err := Write(dir, FormatJSON, standardParts(t))
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "layout.json")}, paths)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestWriteUnknownFormat(t *testing.T) {
	_, err := Write(t.TempDir(), Format("obj"), nil)
	assert.Error(t, err)
}
