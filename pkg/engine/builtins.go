package engine

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/chazu/csgmesh/pkg/graph"
	zygo "github.com/glycerine/zygomys/zygo"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms scene source code before passing it to
// zygomys. It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: ring-extrude -> ring_extrude
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
//  3. Line comments: ; and ;; become //, the zygomys comment marker.
//
// All transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps an r3.Vec.
type sexpVec3 struct {
	vec r3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpVec2 wraps an r2.Vec, used for polygon vertices.
type sexpVec2 struct {
	vec r2.Vec
}

func (v *sexpVec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec2 %g %g)", v.vec.X, v.vec.Y)
}
func (v *sexpVec2) Type() *zygo.RegisteredType { return nil }

// sexpPolygon carries polygon vertices from `polygon` to the extrusions.
type sexpPolygon struct {
	points []r2.Vec
}

func (p *sexpPolygon) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(polygon <%d points>)", len(p.points))
}
func (p *sexpPolygon) Type() *zygo.RegisteredType { return nil }

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(shape %q)", n.name)
	}
	return fmt.Sprintf("(shape %s)", n.id)
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// float returns keyword key as a number, or def when absent.
func (a kwArgs) float(key string, def float64) (float64, error) {
	v, ok := a.kw[key]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

// requireFloat returns keyword key as a number and fails when absent.
func (a kwArgs) requireFloat(key string) (float64, error) {
	if _, ok := a.kw[key]; !ok {
		return 0, fmt.Errorf("missing :%s", key)
	}
	return a.float(key, 0)
}

// vec3 returns keyword key as a vector, or def when absent.
func (a kwArgs) vec3(key string, def r3.Vec) (r3.Vec, error) {
	v, ok := a.kw[key]
	if !ok {
		return def, nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("%s: %w", key, err)
	}
	return vec, nil
}

// requireVec3 returns keyword key as a vector and fails when absent.
func (a kwArgs) requireVec3(key string) (r3.Vec, error) {
	if _, ok := a.kw[key]; !ok {
		return r3.Vec{}, fmt.Errorf("missing :%s", key)
	}
	return a.vec3(key, r3.Vec{})
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

// toNodeRef extracts a NodeID from a sexpNodeRef.
func toNodeRef(s zygo.Sexp) (graph.NodeID, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref.id, nil
	}
	return graph.NoNode, fmt.Errorf("expected shape, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts an r3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (r3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return r3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toPolygon extracts polygon vertices from a sexpPolygon.
func toPolygon(s zygo.Sexp) ([]r2.Vec, error) {
	if p, ok := s.(*sexpPolygon); ok {
		return p.points, nil
	}
	return nil, fmt.Errorf("expected polygon, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// flattenShapes collects node references from args, descending into lists
// so that (union (list a b) c) works.
func flattenShapes(args []zygo.Sexp) ([]graph.NodeID, error) {
	var ids []graph.NodeID
	for i, a := range args {
		if _, ok := a.(*sexpNodeRef); !ok {
			if items, err := sexpListToSlice(a); err == nil {
				nested, err := flattenShapes(items)
				if err != nil {
					return nil, err
				}
				ids = append(ids, nested...)
				continue
			}
		}
		id, err := toNodeRef(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// flattenVec3s collects points from args, descending into lists so that
// (feature-edges (list a b) c) works.
func flattenVec3s(args []zygo.Sexp) ([]r3.Vec, error) {
	var pts []r3.Vec
	for i, a := range args {
		if _, ok := a.(*sexpVec3); !ok {
			if items, err := sexpListToSlice(a); err == nil {
				nested, err := flattenVec3s(items)
				if err != nil {
					return nil, err
				}
				pts = append(pts, nested...)
				continue
			}
		}
		v, err := toVec3(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		pts = append(pts, v)
	}
	return pts, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// builtinFunc matches zygomys' user function signature.
type builtinFunc = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// scene adds nodes to the graph under construction and hands references
// back to the Lisp side.
type scene struct {
	g *graph.Graph
}

// add stores a node created by form and returns a reference to it.
func (s *scene) add(form string, data graph.NodeData, children ...graph.NodeID) (zygo.Sexp, error) {
	id, err := s.g.Add(&graph.Node{
		Source:   graph.SourceRef{Form: form},
		Children: children,
		Data:     data,
	})
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: %w", form, err)
	}
	return &sexpNodeRef{id: id}, nil
}

// edgeSize returns :edge-size or the scene default.
func (s *scene) edgeSize(pa kwArgs) (float64, error) {
	return pa.float("edge-size", s.g.Defaults.EdgeSize)
}

// wrap prefixes builtin errors with the form's user-facing name.
func wrap(form string, fn func(pa kwArgs) (zygo.Sexp, error)) builtinFunc {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		out, err := fn(parseArgs(args))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", form, err)
		}
		return out, nil
	}
}

// registerBuiltins installs all scene DSL builtins into a zygomys environment.
// The builtins operate on the provided Graph, populating it during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals and
// kebab-case names (half-space, ring-extrude) match the registered
// underscore names.
func registerBuiltins(env *zygo.Zlisp, g *graph.Graph) {
	s := &scene{g: g}

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)  (vec2 1 2)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: r3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	env.AddFunction("vec2", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("vec2 requires exactly 2 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: y: %w", err)
		}
		return &sexpVec2{vec: r2.Vec{X: x, Y: y}}, nil
	})

	// -----------------------------------------------------------------------
	// (edge-size 0.05)
	// Sets the default feature edge size for shapes created afterwards.
	// -----------------------------------------------------------------------
	env.AddFunction("edge_size", wrap("edge-size", func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("requires exactly 1 argument, got %d", len(pa.positional))
		}
		f, err := toFloat64(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, err
		}
		if !(f > 0) {
			return zygo.SexpNull, fmt.Errorf("edge size %g must be positive", f)
		}
		g.Defaults.EdgeSize = f
		return &zygo.SexpFloat{Val: f}, nil
	}))

	// -----------------------------------------------------------------------
	// (feature-edges (vec3 0 0 0) (vec3 1 0 0) ...)
	// Adds one polyline that the mesher must keep as a sharp edge on every
	// root. Points may also come in a list.
	// -----------------------------------------------------------------------
	env.AddFunction("feature_edges", wrap("feature-edges", func(pa kwArgs) (zygo.Sexp, error) {
		pts, err := flattenVec3s(pa.positional)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := g.AddFeature(pts); err != nil {
			return zygo.SexpNull, err
		}
		return &zygo.SexpInt{Val: int64(len(g.Features))}, nil
	}))

	// -----------------------------------------------------------------------
	// Primitives
	// -----------------------------------------------------------------------

	// (ball :center (vec3 0 0 0) :radius 1)
	env.AddFunction("ball", wrap("ball", func(pa kwArgs) (zygo.Sexp, error) {
		var d graph.BallData
		var err error
		if d.Center, err = pa.vec3("center", r3.Vec{}); err != nil {
			return zygo.SexpNull, err
		}
		if d.Radius, err = pa.requireFloat("radius"); err != nil {
			return zygo.SexpNull, err
		}
		return s.add("ball", d)
	}))

	// (cuboid :min (vec3 0 0 0) :max (vec3 1 1 1))
	env.AddFunction("cuboid", wrap("cuboid", func(pa kwArgs) (zygo.Sexp, error) {
		var d graph.CuboidData
		var err error
		if d.Min, err = pa.requireVec3("min"); err != nil {
			return zygo.SexpNull, err
		}
		if d.Max, err = pa.requireVec3("max"); err != nil {
			return zygo.SexpNull, err
		}
		return s.add("cuboid", d)
	}))

	// (ellipsoid :center (vec3 0 0 0) :radii (vec3 2 1 1))
	env.AddFunction("ellipsoid", wrap("ellipsoid", func(pa kwArgs) (zygo.Sexp, error) {
		var d graph.EllipsoidData
		var err error
		if d.Center, err = pa.vec3("center", r3.Vec{}); err != nil {
			return zygo.SexpNull, err
		}
		radii, err := pa.requireVec3("radii")
		if err != nil {
			return zygo.SexpNull, err
		}
		d.Radii = [3]float64{radii.X, radii.Y, radii.Z}
		return s.add("ellipsoid", d)
	}))

	// (cylinder :z0 0 :z1 1 :radius 1 :edge-size 0.1)
	env.AddFunction("cylinder", wrap("cylinder", func(pa kwArgs) (zygo.Sexp, error) {
		var d graph.CylinderData
		var err error
		if d.Z0, err = pa.float("z0", 0); err != nil {
			return zygo.SexpNull, err
		}
		if d.Z1, err = pa.requireFloat("z1"); err != nil {
			return zygo.SexpNull, err
		}
		if d.Radius, err = pa.requireFloat("radius"); err != nil {
			return zygo.SexpNull, err
		}
		if d.EdgeSize, err = s.edgeSize(pa); err != nil {
			return zygo.SexpNull, err
		}
		return s.add("cylinder", d)
	}))

	// (cone :radius 1 :height 2 :edge-size 0.1)
	env.AddFunction("cone", wrap("cone", func(pa kwArgs) (zygo.Sexp, error) {
		var d graph.ConeData
		var err error
		if d.Radius, err = pa.requireFloat("radius"); err != nil {
			return zygo.SexpNull, err
		}
		if d.Height, err = pa.requireFloat("height"); err != nil {
			return zygo.SexpNull, err
		}
		if d.EdgeSize, err = s.edgeSize(pa); err != nil {
			return zygo.SexpNull, err
		}
		return s.add("cone", d)
	}))

	// (torus :major 1 :minor 0.25)
	env.AddFunction("torus", wrap("torus", func(pa kwArgs) (zygo.Sexp, error) {
		var d graph.TorusData
		var err error
		if d.MajorRadius, err = pa.requireFloat("major"); err != nil {
			return zygo.SexpNull, err
		}
		if d.MinorRadius, err = pa.requireFloat("minor"); err != nil {
			return zygo.SexpNull, err
		}
		return s.add("torus", d)
	}))

	// (tetrahedron (vec3 0 0 0) (vec3 1 0 0) (vec3 0 1 0) (vec3 0 0 1))
	env.AddFunction("tetrahedron", wrap("tetrahedron", func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) != 4 {
			return zygo.SexpNull, fmt.Errorf("requires 4 vertices, got %d", len(pa.positional))
		}
		var d graph.TetrahedronData
		for i, a := range pa.positional {
			v, err := toVec3(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vertex %d: %w", i, err)
			}
			d.Vertices[i] = v
		}
		return s.add("tetrahedron", d)
	}))

	// (half-space :normal (vec3 0 0 1) :offset 0 :squared-radius 4)
	env.AddFunction("half_space", wrap("half-space", func(pa kwArgs) (zygo.Sexp, error) {
		var d graph.HalfSpaceData
		var err error
		if d.Normal, err = pa.requireVec3("normal"); err != nil {
			return zygo.SexpNull, err
		}
		if d.Offset, err = pa.float("offset", 0); err != nil {
			return zygo.SexpNull, err
		}
		if d.SquaredRadius, err = pa.requireFloat("squared-radius"); err != nil {
			return zygo.SexpNull, err
		}
		return s.add("half-space", d)
	}))

	// -----------------------------------------------------------------------
	// Polygons and extrusions
	// -----------------------------------------------------------------------

	// (polygon (vec2 0 0) (vec2 1 0) (vec2 0 1))
	// (polygon (list (vec2 0 0) ...))
	env.AddFunction("polygon", wrap("polygon", func(pa kwArgs) (zygo.Sexp, error) {
		items := pa.positional
		if len(items) == 1 {
			if list, err := sexpListToSlice(items[0]); err == nil {
				items = list
			}
		}
		points := make([]r2.Vec, 0, len(items))
		for i, item := range items {
			v, ok := item.(*sexpVec2)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("point %d: expected vec2, got %T", i, item)
			}
			points = append(points, v.vec)
		}
		if len(points) < 3 {
			return zygo.SexpNull, fmt.Errorf("requires at least 3 points, got %d", len(points))
		}
		return &sexpPolygon{points: points}, nil
	}))

	// (extrude poly :direction (vec3 0 0 1) :twist 0.5 :edge-size 0.1)
	env.AddFunction("extrude", wrap("extrude", func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("requires a polygon argument")
		}
		var d graph.ExtrudeData
		var err error
		if d.Polygon, err = toPolygon(pa.positional[0]); err != nil {
			return zygo.SexpNull, err
		}
		if d.Direction, err = pa.requireVec3("direction"); err != nil {
			return zygo.SexpNull, err
		}
		if d.Twist, err = pa.float("twist", 0); err != nil {
			return zygo.SexpNull, err
		}
		if d.EdgeSize, err = s.edgeSize(pa); err != nil {
			return zygo.SexpNull, err
		}
		return s.add("extrude", d)
	}))

	// (ring-extrude profile :edge-size 0.1)
	env.AddFunction("ring_extrude", wrap("ring-extrude", func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("requires a profile polygon argument")
		}
		var d graph.RingExtrudeData
		var err error
		if d.Profile, err = toPolygon(pa.positional[0]); err != nil {
			return zygo.SexpNull, err
		}
		if d.EdgeSize, err = s.edgeSize(pa); err != nil {
			return zygo.SexpNull, err
		}
		return s.add("ring-extrude", d)
	}))

	// -----------------------------------------------------------------------
	// Transforms: the shape comes first.
	// -----------------------------------------------------------------------

	child := func(pa kwArgs) (graph.NodeID, error) {
		if len(pa.positional) < 1 {
			return graph.NoNode, fmt.Errorf("requires a shape as first argument")
		}
		return toNodeRef(pa.positional[0])
	}

	// positionalVec3 reads the second positional argument or keyword key.
	positionalVec3 := func(pa kwArgs, key string) (r3.Vec, error) {
		if len(pa.positional) >= 2 {
			return toVec3(pa.positional[1])
		}
		return pa.requireVec3(key)
	}

	// (translate shape (vec3 1 0 0)) or (translate shape :by (vec3 1 0 0))
	env.AddFunction("translate", wrap("translate", func(pa kwArgs) (zygo.Sexp, error) {
		c, err := child(pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		offset, err := positionalVec3(pa, "by")
		if err != nil {
			return zygo.SexpNull, err
		}
		return s.add("translate", graph.TranslateData{Offset: offset}, c)
	}))

	// (rotate shape :axis (vec3 0 0 1) :angle 1.57)
	// (rotate shape :axis (vec3 0 0 1) :degrees 90)
	env.AddFunction("rotate", wrap("rotate", func(pa kwArgs) (zygo.Sexp, error) {
		c, err := child(pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		var d graph.RotateData
		if d.Axis, err = pa.requireVec3("axis"); err != nil {
			return zygo.SexpNull, err
		}
		_, hasAngle := pa.kw["angle"]
		_, hasDegrees := pa.kw["degrees"]
		switch {
		case hasAngle && hasDegrees:
			return zygo.SexpNull, fmt.Errorf("give :angle or :degrees, not both")
		case hasDegrees:
			deg, err := pa.float("degrees", 0)
			if err != nil {
				return zygo.SexpNull, err
			}
			d.Angle = deg * math.Pi / 180
		default:
			if d.Angle, err = pa.requireFloat("angle"); err != nil {
				return zygo.SexpNull, err
			}
		}
		return s.add("rotate", d, c)
	}))

	// (scale shape 2) or (scale shape :factor 2)
	env.AddFunction("scale", wrap("scale", func(pa kwArgs) (zygo.Sexp, error) {
		c, err := child(pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		var factor float64
		if len(pa.positional) >= 2 {
			factor, err = toFloat64(pa.positional[1])
		} else {
			factor, err = pa.requireFloat("factor")
		}
		if err != nil {
			return zygo.SexpNull, err
		}
		return s.add("scale", graph.ScaleData{Factor: factor}, c)
	}))

	// (stretch shape (vec3 2 0 0)) or (stretch shape :along (vec3 2 0 0))
	env.AddFunction("stretch", wrap("stretch", func(pa kwArgs) (zygo.Sexp, error) {
		c, err := child(pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		dir, err := positionalVec3(pa, "along")
		if err != nil {
			return zygo.SexpNull, err
		}
		return s.add("stretch", graph.StretchData{Direction: dir}, c)
	}))

	// -----------------------------------------------------------------------
	// Booleans
	// -----------------------------------------------------------------------

	// (union a b ...)  (intersection a b ...)
	nary := func(form string, data graph.NodeData) builtinFunc {
		return wrap(form, func(pa kwArgs) (zygo.Sexp, error) {
			ids, err := flattenShapes(pa.positional)
			if err != nil {
				return zygo.SexpNull, err
			}
			if len(ids) == 0 {
				return zygo.SexpNull, fmt.Errorf("requires at least one shape")
			}
			return s.add(form, data, ids...)
		})
	}
	env.AddFunction("union", nary("union", graph.UnionData{}))
	env.AddFunction("intersection", nary("intersection", graph.IntersectionData{}))

	// (difference a b)
	env.AddFunction("difference", wrap("difference", func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("requires exactly 2 shapes, got %d", len(pa.positional))
		}
		a, err := toNodeRef(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("minuend: %w", err)
		}
		b, err := toNodeRef(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("subtrahend: %w", err)
		}
		return s.add("difference", graph.DifferenceData{}, a, b)
	}))

	// -----------------------------------------------------------------------
	// Naming and output
	// -----------------------------------------------------------------------

	// (defshape "name" shape)
	// A shape that already has a name is wrapped in a one-child union so
	// both names stay valid.
	env.AddFunction("defshape", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("defshape requires a name and a shape")
		}
		shapeName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defshape: name: %w", err)
		}
		if shapeName == "" {
			return zygo.SexpNull, fmt.Errorf("defshape: name must not be empty")
		}
		if g.Lookup(shapeName) != nil {
			return zygo.SexpNull, fmt.Errorf("defshape: %q is already defined", shapeName)
		}
		id, err := toNodeRef(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defshape: %w", err)
		}

		n := g.Get(id)
		if n.Name != "" {
			ref, err := s.add("defshape", graph.UnionData{}, id)
			if err != nil {
				return zygo.SexpNull, err
			}
			n = g.Get(ref.(*sexpNodeRef).id)
		}
		n.Name = shapeName
		g.NameIndex[shapeName] = n.ID

		return &sexpNodeRef{id: n.ID, name: shapeName}, nil
	})

	// (shape "name")
	env.AddFunction("shape", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("shape requires a name argument")
		}
		shapeName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("shape: name: %w", err)
		}
		n := g.Lookup(shapeName)
		if n == nil {
			return zygo.SexpNull, fmt.Errorf("shape: no shape named %q", shapeName)
		}
		return &sexpNodeRef{id: n.ID, name: shapeName}, nil
	})

	// (mesh a b ...)
	// Marks each shape as a root to be meshed.
	env.AddFunction("mesh", wrap("mesh", func(pa kwArgs) (zygo.Sexp, error) {
		ids, err := flattenShapes(pa.positional)
		if err != nil {
			return zygo.SexpNull, err
		}
		if len(ids) == 0 {
			return zygo.SexpNull, fmt.Errorf("requires at least one shape")
		}
		for _, id := range ids {
			if !slices.Contains(g.Roots, id) {
				g.AddRoot(id)
			}
		}
		return &sexpNodeRef{id: ids[len(ids)-1]}, nil
	}))
}
