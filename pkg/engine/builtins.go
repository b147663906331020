package engine

import (
	"fmt"
	"math"
	"slices"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/chazu/pinball/pkg/flip"
	"github.com/chazu/pinball/pkg/layout"
	"github.com/chazu/pinball/pkg/shapes"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpShape wraps a shape payload returned by table, ellipse or flipper and
// consumed by defpart.
type sexpShape struct {
	data layout.ShapeData
}

func (s *sexpShape) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s)", s.data.ShapeKind())
}
func (s *sexpShape) Type() *zygo.RegisteredType { return nil }

// sexpNodeRef wraps a layout.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   layout.NodeID
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(noderef %q)", n.name)
	}
	return fmt.Sprintf("(noderef %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps an mgl32.Vec3.
type sexpVec3 struct {
	vec mgl32.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X(), v.vec.Y(), v.vec.Z())
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string and returns the
// keyword name without its prefix.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds a mixed positional and keyword argument list.
type kwArgs struct {
	fn         string
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(fn string, args []zygo.Sexp) kwArgs {
	result := kwArgs{fn: fn, kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		switch {
		case !ok:
			result.positional = append(result.positional, args[i])
		case i+1 < len(args):
			result.kw[name] = args[i+1]
			i++
		default:
			// trailing keyword with no value
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// floatArg stores keyword key into dst when present.
func (a kwArgs) floatArg(key string, dst *float32) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", a.fn, key, err)
	}
	*dst = float32(f)
	return nil
}

// intArg stores keyword key into dst when present.
func (a kwArgs) intArg(key string, dst *int) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	i, ok := v.(*zygo.SexpInt)
	if !ok {
		return fmt.Errorf("%s: %s: expected integer, got %T (%s)", a.fn, key, v, v.SexpString(nil))
	}
	*dst = int(i.Val)
	return nil
}

// boolArg stores keyword key into dst when present.
func (a kwArgs) boolArg(key string, dst *bool) error {
	v, ok := a.kw[key]
	if !ok {
		return nil
	}
	b, err := toBool(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", a.fn, key, err)
	}
	*dst = b
	return nil
}

// unknown reports the first keyword not in allowed.
func (a kwArgs) unknown(allowed ...string) error {
	for k := range a.kw {
		if !slices.Contains(allowed, k) {
			return fmt.Errorf("%s: unknown keyword :%s", a.fn, k)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool accepts true and false.
func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toNodeRef extracts a NodeID from a sexpNodeRef.
func toNodeRef(s zygo.Sexp) (layout.NodeID, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref.id, nil
	}
	return layout.ZeroID, fmt.Errorf("expected node reference, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (mgl32.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return mgl32.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the layout DSL into a zygomys environment. The
// builtins populate l while the program runs; shape parameters left out of
// a form take their value from l.Defaults.
//
// Source must go through preprocessSource first so that :keyword tokens
// arrive as recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, l *layout.Layout) {
	defaults := l.Defaults

	// (table :height 8 :width 5 :wall 0.3)
	env.AddFunction("table", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		if err := pa.unknown("height", "width", "wall"); err != nil {
			return zygo.SexpNull, err
		}
		t := shapes.NewTable(defaults.Table.Height, defaults.Table.Width, defaults.Table.WallHeight)
		for key, dst := range map[string]*float32{"height": &t.Height, "width": &t.Width, "wall": &t.Thickness} {
			if err := pa.floatArg(key, dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		return &sexpShape{data: layout.TableData{Table: t}}, nil
	})

	// (ellipse :x 2.5 :z 0.9 :from 0 :to (deg 45) :capped false :two-sided true
	//          :origin :max-x-min-z :thickness 0.3 :resolution 20)
	env.AddFunction("ellipse", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		if err := pa.unknown("x", "z", "from", "to", "capped", "two-sided", "origin", "thickness", "resolution"); err != nil {
			return zygo.SexpNull, err
		}
		e := shapes.Ellipse{
			Rectangle:   true,
			Center:      shapes.OriginCenter,
			SecondAngle: math.Pi / 2,
			Resolution:  defaults.Resolution,
			X:           1,
			Z:           1,
			Thickness:   defaults.Table.WallHeight,
		}
		floats := map[string]*float32{
			"x": &e.X, "z": &e.Z, "from": &e.FirstAngle, "to": &e.SecondAngle, "thickness": &e.Thickness,
		}
		for key, dst := range floats {
			if err := pa.floatArg(key, dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		if err := pa.boolArg("capped", &e.Rectangle); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.boolArg("two-sided", &e.TwoSided); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.intArg("resolution", &e.Resolution); err != nil {
			return zygo.SexpNull, err
		}
		if v, ok := pa.kw["origin"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("ellipse: origin: %w", err)
			}
			if e.Center, err = shapes.ParseOrigin(s); err != nil {
				return zygo.SexpNull, fmt.Errorf("ellipse: %w", err)
			}
		}
		return &sexpShape{data: layout.EllipseData{Ellipse: e}}, nil
	})

	// (flipper :side :left :length 0.7 :small 0.05 :big 0.1 :thickness 0.28)
	env.AddFunction("flipper", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		if err := pa.unknown("side", "length", "small", "big", "thickness", "resolution"); err != nil {
			return zygo.SexpNull, err
		}
		f := shapes.NewFlipper(defaults.Flipper.Length, defaults.Flipper.Small, defaults.Flipper.Big,
			defaults.Table.WallHeight-0.02, defaults.Resolution)
		floats := map[string]*float32{
			"length": &f.Length, "small": &f.RadiusMin, "big": &f.RadiusMax, "thickness": &f.Thickness,
		}
		for key, dst := range floats {
			if err := pa.floatArg(key, dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		if err := pa.intArg("resolution", &f.Resolution); err != nil {
			return zygo.SexpNull, err
		}
		side := flip.Left
		if v, ok := pa.kw["side"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("flipper: side: %w", err)
			}
			if side, err = flip.ParseSide(s); err != nil {
				return zygo.SexpNull, fmt.Errorf("flipper: %w", err)
			}
		}
		return &sexpShape{data: layout.FlipperData{Flipper: f, Side: side}}, nil
	})

	// (defpart "name" (ellipse ...))
	env.AddFunction("defpart", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("defpart requires a name and a shape expression")
		}
		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
		}
		shape, ok := args[1].(*sexpShape)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("defpart: expected table, ellipse or flipper, got %T", args[1])
		}
		if l.Lookup(partName) != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: %q is already defined", partName)
		}

		id := l.AddShape(partName, shape.data)
		return &sexpNodeRef{id: id, name: partName}, nil
	})

	// (part "name")
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("part requires a name argument")
		}
		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
		}
		n := l.Lookup(partName)
		if n == nil {
			return zygo.SexpNull, fmt.Errorf("part: no part named %q", partName)
		}
		return &sexpNodeRef{id: n.ID, name: partName}, nil
	})

	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var v mgl32.Vec3
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			v[i] = float32(f)
		}
		return &sexpVec3{vec: v}, nil
	})

	// (deg 45) converts degrees to radians.
	env.AddFunction("deg", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("deg requires exactly 1 argument, got %d", len(args))
		}
		f, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("deg: %w", err)
		}
		return &zygo.SexpFloat{Val: f * math.Pi / 180}, nil
	})

	// (place (part "guide") :at (vec3 2 0 -3) :rotate-x (deg 180))
	// Rotations are in radians and apply around X, then Y, then Z.
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(name, args)
		if err := pa.unknown("at", "rotate-x", "rotate-y", "rotate-z"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("place requires a part reference as first argument")
		}
		childID, err := toNodeRef(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: part: %w", err)
		}

		var at mgl32.Vec3
		if v, ok := pa.kw["at"]; ok {
			if at, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
			}
		}
		rotation := mgl32.QuatIdent()
		for i, key := range []string{"rotate-x", "rotate-y", "rotate-z"} {
			var angle float32
			if err := pa.floatArg(key, &angle); err != nil {
				return zygo.SexpNull, err
			}
			if angle == 0 {
				continue
			}
			var axis mgl32.Vec3
			axis[i] = 1
			rotation = mgl32.QuatRotate(angle, axis).Mul(rotation)
		}

		return &sexpNodeRef{id: l.Place(childID, at, rotation)}, nil
	})

	// (assembly "name" (place ...) (part ...) ...)
	env.AddFunction("assembly", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("assembly requires a name argument")
		}
		asmName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("assembly: name: %w", err)
		}
		if l.Lookup(asmName) != nil {
			return zygo.SexpNull, fmt.Errorf("assembly: %q is already defined", asmName)
		}

		children := make([]layout.NodeID, 0, len(args)-1)
		for i := 1; i < len(args); i++ {
			ref, ok := args[i].(*sexpNodeRef)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("assembly: child %d: expected node reference, got %T (%s)",
					i, args[i], args[i].SexpString(nil))
			}
			children = append(children, ref.id)
		}

		// A nested assembly stops being a root once it has a parent.
		nested := make([]layout.NodeID, 0, len(children))
		for _, c := range children {
			nested = append(nested, placedNode(l, c))
		}
		l.Roots = slices.DeleteFunc(l.Roots, func(r layout.NodeID) bool {
			return slices.Contains(nested, r)
		})

		id := l.AddGroup(asmName, children...)
		l.AddRoot(id)
		return &sexpNodeRef{id: id, name: asmName}, nil
	})
}

// placedNode follows transform nodes down to the node they place.
func placedNode(l *layout.Layout, id layout.NodeID) layout.NodeID {
	for {
		n := l.Get(id)
		if n == nil || n.Kind != layout.NodeTransform || len(n.Children) != 1 {
			return id
		}
		id = n.Children[0]
	}
}
