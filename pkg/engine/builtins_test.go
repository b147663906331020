package engine

import (
	"math"
	"os"
	"strings"
	"testing"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/chazu/pinball/pkg/config"
	"github.com/chazu/pinball/pkg/flip"
	"github.com/chazu/pinball/pkg/layout"
	"github.com/chazu/pinball/pkg/shapes"
)

// evalOK evaluates source and fails the test on any error.
func evalOK(t *testing.T, source string) *layout.Layout {
	t.Helper()
	l, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	return l
}

// evalFails evaluates source and returns the first eval error message.
func evalFails(t *testing.T, source string) string {
	t.Helper()
	l, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if l != nil {
		t.Fatal("expected nil layout")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}
	return evalErrs[0].Message
}

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(flipper :side :left)`,
			expect: `(flipper "__kw_side" "__kw_left")`,
		},
		{
			name:   "multiple keywords",
			input:  `(table :height 8 :width 5)`,
			expect: `(table "__kw_height" 8 "__kw_width" 5)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(def lane-width 2)`,
			expect: `(def lane_width 2)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(vec3 -2.5 0 -4)`,
			expect: `(vec3 -2.5 0 -4)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:two-sided`,
			expect: `"__kw_two-sided"`,
		},
		{
			name:   "origin keyword",
			input:  `:origin :max-x-min-z`,
			expect: `"__kw_origin" "__kw_max-x-min-z"`,
		},
		{
			name:   "hyphenated string preserved",
			input:  `(part "top-left-ellipse")`,
			expect: `(part "top-left-ellipse")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Shape builtins
// ---------------------------------------------------------------------------

func TestTableDefaults(t *testing.T) {
	l := evalOK(t, `(assembly "root" (defpart "tray" (table)))`)

	d, ok := l.MustLookup("tray").Data.(layout.TableData)
	if !ok {
		t.Fatalf("tray data is %T, want TableData", l.MustLookup("tray").Data)
	}
	c := config.Default()
	want := shapes.NewTable(c.Table.Height, c.Table.Width, c.Table.WallHeight)
	if d.Table != want {
		t.Errorf("table = %+v, want %+v", d.Table, want)
	}
}

func TestTableKeywords(t *testing.T) {
	l := evalOK(t, `(assembly "root" (defpart "tray" (table :height 10 :width 6 :wall 0.5)))`)

	d := l.MustLookup("tray").Data.(layout.TableData)
	if d.Table != shapes.NewTable(10, 6, 0.5) {
		t.Errorf("table = %+v", d.Table)
	}
}

func TestEllipseDefaults(t *testing.T) {
	l := evalOK(t, `(assembly "root" (defpart "e" (ellipse)))`)

	e := l.MustLookup("e").Data.(layout.EllipseData).Ellipse
	c := config.Default()
	if !e.Rectangle || e.TwoSided {
		t.Errorf("default ellipse should be capped and one-sided: %+v", e)
	}
	if e.Center != shapes.OriginCenter {
		t.Errorf("center = %v, want center", e.Center)
	}
	if e.FirstAngle != 0 || e.SecondAngle != math.Pi/2 {
		t.Errorf("angles = %g..%g, want the full quadrant", e.FirstAngle, e.SecondAngle)
	}
	if e.X != 1 || e.Z != 1 {
		t.Errorf("half-axes = %g x %g, want 1 x 1", e.X, e.Z)
	}
	if e.Resolution != c.Resolution || e.Thickness != c.Table.WallHeight {
		t.Errorf("resolution/thickness = %d/%g, want %d/%g",
			e.Resolution, e.Thickness, c.Resolution, c.Table.WallHeight)
	}
}

func TestEllipseKeywords(t *testing.T) {
	l := evalOK(t, `
(defpart "guide"
  (ellipse :x 2.5 :z 0.9 :from 0 :to (deg 45) :capped false :two-sided true
           :origin :max-x-min-z :thickness 0.2 :resolution 12))
(assembly "root" (part "guide"))
`)

	d := l.MustLookup("guide").Data.(layout.EllipseData)
	e := d.Ellipse
	if e.Rectangle || !e.TwoSided || !d.TwoSided() {
		t.Errorf("guide should be a thin two-sided arc: %+v", e)
	}
	if e.Center != shapes.OriginMaxXMinZ {
		t.Errorf("center = %v, want max-x-min-z", e.Center)
	}
	if math.Abs(float64(e.SecondAngle)-math.Pi/4) > 1e-6 {
		t.Errorf("to = %g, want PI/4", e.SecondAngle)
	}
	if e.X != 2.5 || e.Z != 0.9 || e.Thickness != 0.2 || e.Resolution != 12 {
		t.Errorf("ellipse = %+v", e)
	}
}

func TestEllipseBadOrigin(t *testing.T) {
	msg := evalFails(t, `(defpart "e" (ellipse :origin :top-left))`)
	if !strings.Contains(msg, "origin") {
		t.Errorf("error should mention origin, got: %s", msg)
	}
}

func TestFlipperDefaults(t *testing.T) {
	l := evalOK(t, `(assembly "root" (defpart "paddle" (flipper)))`)

	d := l.MustLookup("paddle").Data.(layout.FlipperData)
	c := config.Default()
	want := shapes.NewFlipper(c.Flipper.Length, c.Flipper.Small, c.Flipper.Big,
		c.Table.WallHeight-0.02, c.Resolution)
	if d.Flipper != want {
		t.Errorf("flipper = %+v, want %+v", d.Flipper, want)
	}
	if d.Side != flip.Left {
		t.Errorf("side = %v, want left", d.Side)
	}
}

func TestFlipperKeywords(t *testing.T) {
	l := evalOK(t, `
(defpart "paddle" (flipper :side :right :length 1 :small 0.1 :big 0.2 :thickness 0.25 :resolution 8))
(assembly "root" (part "paddle"))
`)

	d := l.MustLookup("paddle").Data.(layout.FlipperData)
	if d.Side != flip.Right {
		t.Errorf("side = %v, want right", d.Side)
	}
	if d.Flipper != shapes.NewFlipper(1, 0.1, 0.2, 0.25, 8) {
		t.Errorf("flipper = %+v", d.Flipper)
	}
}

func TestFlipperBadSide(t *testing.T) {
	msg := evalFails(t, `(defpart "paddle" (flipper :side :middle))`)
	if !strings.Contains(msg, "side") {
		t.Errorf("error should mention the side, got: %s", msg)
	}
}

func TestUnknownKeyword(t *testing.T) {
	msg := evalFails(t, `(defpart "tray" (table :depth 3))`)
	if !strings.Contains(msg, "unknown keyword :depth") {
		t.Errorf("expected unknown keyword error, got: %s", msg)
	}
}

func TestKwArgsUnknown(t *testing.T) {
	a := kwArgs{fn: "table", kw: map[string]zygo.Sexp{"height": zygo.SexpNull, "wall": zygo.SexpNull}}
	if err := a.unknown("height", "width", "wall"); err != nil {
		t.Errorf("all keywords allowed, got: %v", err)
	}
	if err := a.unknown("height"); err == nil || !strings.Contains(err.Error(), "table: unknown keyword :wall") {
		t.Errorf("expected :wall to be rejected, got: %v", err)
	}
	if err := (kwArgs{fn: "table"}).unknown(); err != nil {
		t.Errorf("no keywords, got: %v", err)
	}
}

func TestWrongArgumentType(t *testing.T) {
	msg := evalFails(t, `(defpart "e" (ellipse :resolution 2.5))`)
	if !strings.Contains(msg, "expected integer") {
		t.Errorf("expected integer error, got: %s", msg)
	}
}

// ---------------------------------------------------------------------------
// Parts and assemblies
// ---------------------------------------------------------------------------

func TestVariableReference(t *testing.T) {
	l := evalOK(t, `
(def wall-height 0.4)
(def bumper (ellipse :x 0.5 :z 0.5 :thickness wall-height))
(defpart "bumper" bumper)
(assembly "root" (part "bumper"))
`)

	e := l.MustLookup("bumper").Data.(layout.EllipseData).Ellipse
	if math.Abs(float64(e.Thickness)-0.4) > 1e-6 {
		t.Errorf("thickness = %g, want 0.4", e.Thickness)
	}
}

func TestDuplicatePart(t *testing.T) {
	msg := evalFails(t, `
(defpart "a" (table))
(defpart "a" (ellipse))
`)
	if !strings.Contains(msg, "already defined") {
		t.Errorf("expected duplicate error, got: %s", msg)
	}
}

func TestPartLookupError(t *testing.T) {
	msg := evalFails(t, `(assembly "root" (part "nonexistent"))`)
	if !strings.Contains(msg, "nonexistent") {
		t.Errorf("error should name the missing part, got: %s", msg)
	}
}

func TestDefpartRequiresShape(t *testing.T) {
	msg := evalFails(t, `(defpart "a" 42)`)
	if !strings.Contains(msg, "expected table, ellipse or flipper") {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestAssemblyWithPlacement(t *testing.T) {
	l := evalOK(t, `
(defpart "bumper" (ellipse :x 0.5 :z 0.5))
(assembly "root"
  (part "bumper")
  (place (part "bumper") :at (vec3 1 0 -2) :rotate-y (deg 90)))
`)

	// bumper + one transform + root group
	if got := l.NodeCount(); got != 3 {
		t.Fatalf("expected 3 nodes, got %d", got)
	}
	if len(l.Roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(l.Roots))
	}

	root := l.Get(l.Roots[0])
	if root.Name != "root" || root.Kind != layout.NodeGroup {
		t.Fatalf("root = %s %q", root.Kind, root.Name)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(root.Children))
	}

	placed := l.Get(root.Children[1])
	if placed.Kind != layout.NodeTransform {
		t.Fatalf("second child is %s, want transform", placed.Kind)
	}
	if placed.Children[0] != l.MustLookup("bumper").ID {
		t.Error("transform should wrap the bumper")
	}

	td := placed.Data.(layout.TransformData)
	if !td.Translation.ApproxEqual(mgl32.Vec3{1, 0, -2}) {
		t.Errorf("translation = %v", td.Translation)
	}
	want := mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 1, 0})
	if !td.Rotation.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("rotation = %v, want %v", td.Rotation, want)
	}
	// +X turns to -Z under a quarter turn around Y.
	if got := td.Rotation.Rotate(mgl32.Vec3{1, 0, 0}); !got.ApproxEqualThreshold(mgl32.Vec3{0, 0, -1}, 1e-5) {
		t.Errorf("rotated +X = %v", got)
	}
}

func TestPlaceRotationOrder(t *testing.T) {
	l := evalOK(t, `
(defpart "a" (ellipse))
(assembly "root" (place (part "a") :rotate-x (deg 90) :rotate-z (deg 90)))
`)

	root := l.Get(l.Roots[0])
	td := l.Get(root.Children[0]).Data.(layout.TransformData)
	want := mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 0, 1}).Mul(mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{1, 0, 0}))
	if !td.Rotation.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("rotation = %v, want X then Z %v", td.Rotation, want)
	}
}

func TestPlaceRequiresNodeRef(t *testing.T) {
	msg := evalFails(t, `(assembly "root" (place 3 :at (vec3 0 0 0)))`)
	if !strings.Contains(msg, "node reference") {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestNestedAssemblyIsNotRoot(t *testing.T) {
	l := evalOK(t, `
(defpart "tray" (table))
(defpart "bumper" (ellipse))
(assembly "inner" (part "bumper"))
(assembly "outer" (part "tray") (place (part "inner") :at (vec3 0 0 1)))
`)

	if len(l.Roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(l.Roots))
	}
	if got := l.Get(l.Roots[0]).Name; got != "outer" {
		t.Errorf("root = %q, want outer", got)
	}
}

func TestDuplicateAssembly(t *testing.T) {
	msg := evalFails(t, `
(defpart "a" (table))
(assembly "a" (part "a"))
`)
	if !strings.Contains(msg, "already defined") {
		t.Errorf("expected duplicate error, got: %s", msg)
	}
}

func TestVec3(t *testing.T) {
	tests := []struct {
		name   string
		source string
		ok     bool
	}{
		{"integers", `(vec3 1 2 3)`, true},
		{"floats", `(vec3 1.5 -2.5 0.25)`, true},
		{"too few", `(vec3 1 2)`, false},
		{"not a number", `(vec3 1 "b" 3)`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, evalErrs, err := NewEngine().Evaluate(tt.source)
			if err != nil {
				t.Fatalf("unexpected fatal error: %v", err)
			}
			if tt.ok && len(evalErrs) > 0 {
				t.Errorf("unexpected eval errors: %v", evalErrs)
			}
			if !tt.ok && len(evalErrs) == 0 {
				t.Error("expected an eval error")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// The bundled standard script
// ---------------------------------------------------------------------------

func TestStandardScriptMatchesStandardLayout(t *testing.T) {
	src, err := os.ReadFile("../../examples/standard.pin")
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	got := evalOK(t, string(src))
	want := layout.Standard(config.Default())

	if len(got.Roots) != 1 || got.Get(got.Roots[0]).Name != layout.StandardRoot {
		t.Fatalf("script should have a single %q root", layout.StandardRoot)
	}

	gotShapes, wantShapes := got.Shapes(), want.Shapes()
	if len(gotShapes) != len(wantShapes) {
		t.Fatalf("script has %d shapes, want %d", len(gotShapes), len(wantShapes))
	}
	for i := range wantShapes {
		g, w := gotShapes[i], wantShapes[i]
		if g.Name != w.Name {
			t.Errorf("shape %d: %q, want %q", i, g.Name, w.Name)
			continue
		}
		switch wd := w.Data.(type) {
		case layout.EllipseData:
			gd := g.Data.(layout.EllipseData)
			ge, we := gd.Ellipse, wd.Ellipse
			if math.Abs(float64(ge.FirstAngle-we.FirstAngle)) > 1e-6 ||
				math.Abs(float64(ge.SecondAngle-we.SecondAngle)) > 1e-6 {
				t.Errorf("%s: angles %g..%g, want %g..%g", g.Name,
					ge.FirstAngle, ge.SecondAngle, we.FirstAngle, we.SecondAngle)
			}
			ge.FirstAngle, ge.SecondAngle = we.FirstAngle, we.SecondAngle
			if ge != we {
				t.Errorf("%s: %+v, want %+v", g.Name, ge, we)
			}
		default:
			if g.Data != w.Data {
				t.Errorf("%s: %+v, want %+v", g.Name, g.Data, w.Data)
			}
		}
	}

	// Every shape ends up at the same place on the tilted table.
	gotAt, wantAt := worldOrigins(got), worldOrigins(want)
	for name, w := range wantAt {
		g, ok := gotAt[name]
		if !ok {
			t.Errorf("%s is not reachable from the script root", name)
			continue
		}
		if !g.ApproxEqualThreshold(w, 1e-4) {
			t.Errorf("%s sits at %v, want %v", name, g, w)
		}
	}
}

// worldOrigins maps each shape name to where its local origin lands.
func worldOrigins(l *layout.Layout) map[string]mgl32.Vec3 {
	out := make(map[string]mgl32.Vec3)
	var walk func(id layout.NodeID, xf layout.TransformData)
	walk = func(id layout.NodeID, xf layout.TransformData) {
		n := l.Get(id)
		switch n.Kind {
		case layout.NodeShape:
			out[n.Name] = xf.Apply(mgl32.Vec3{})
		case layout.NodeTransform:
			walk(n.Children[0], n.Data.(layout.TransformData).Then(xf))
		default:
			for _, c := range n.Children {
				walk(c, xf)
			}
		}
	}
	for _, r := range l.Roots {
		walk(r, layout.Identity())
	}
	return out
}

// ---------------------------------------------------------------------------
// Plain lisp still works
// ---------------------------------------------------------------------------

func TestArithmeticStillWorks(t *testing.T) {
	l := evalOK(t, `
(def half-width (/ 5.0 2))
(defpart "e" (ellipse :x half-width))
(assembly "root" (part "e"))
`)
	if got := l.MustLookup("e").Data.(layout.EllipseData).Ellipse.X; got != 2.5 {
		t.Errorf("x = %g, want 2.5", got)
	}
}
