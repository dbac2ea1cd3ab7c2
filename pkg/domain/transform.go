package domain

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Transforms wrap a child domain and remap coordinates. Eval applies the
// inverse map to the query point (where did this point come from before the
// transform?), while features are carried along by the forward map. Both
// maps are fixed at construction and the transported features are baked.

var (
	_ Domain = (*Translate)(nil)
	_ Domain = (*Rotate)(nil)
	_ Domain = (*Scale)(nil)
	_ Domain = (*Stretch)(nil)
)

// ---------------------------------------------------------------------------
// Translate
// ---------------------------------------------------------------------------

// Translate moves its child by a fixed offset.
type Translate struct {
	child         Domain
	offset        r3.Vec
	squaredRadius float64
	features      []Polyline
}

// NewTranslate returns child moved by offset.
func NewTranslate(child Domain, offset r3.Vec) (*Translate, error) {
	if child == nil {
		return nil, invalidf("translate", "nil child")
	}
	r := math.Sqrt(child.BoundingSphereSquaredRadius()) + r3.Norm(offset)
	return &Translate{
		child:         child,
		offset:        offset,
		squaredRadius: r * r,
		features: mapFeatures(child.Features(), func(p r3.Vec) r3.Vec {
			return r3.Add(p, offset)
		}),
	}, nil
}

func (t *Translate) Eval(p r3.Vec) float64 {
	return t.child.Eval(r3.Sub(p, t.offset))
}

func (t *Translate) BoundingSphereSquaredRadius() float64 { return t.squaredRadius }

func (t *Translate) Features() []Polyline { return t.features }

// ---------------------------------------------------------------------------
// Rotate
// ---------------------------------------------------------------------------

// Rotate turns its child by an angle around an axis through the origin,
// following the right-hand rule.
type Rotate struct {
	child    Domain
	axis     r3.Vec // unit length
	sin, cos float64
	features []Polyline
}

// NewRotate returns child rotated by angle radians around axis. The axis
// does not need to be normalized but must be non-zero.
func NewRotate(child Domain, axis r3.Vec, angle float64) (*Rotate, error) {
	if child == nil {
		return nil, invalidf("rotate", "nil child")
	}
	n := r3.Norm(axis)
	if !(n > 0) {
		return nil, degeneratef("rotate", "axis must be non-zero")
	}
	r := &Rotate{child: child, axis: r3.Scale(1/n, axis)}
	r.sin, r.cos = math.Sincos(angle)
	r.features = mapFeatures(child.Features(), func(p r3.Vec) r3.Vec {
		return rodrigues(p, r.axis, r.sin, r.cos)
	})
	return r, nil
}

// rodrigues rotates v around the unit axis u by the angle with the given
// sine and cosine.
func rodrigues(v, u r3.Vec, sin, cos float64) r3.Vec {
	return r3.Add(
		r3.Add(r3.Scale(cos, v), r3.Scale(sin, r3.Cross(u, v))),
		r3.Scale((1-cos)*r3.Dot(u, v), u),
	)
}

func (r *Rotate) Eval(p r3.Vec) float64 {
	return r.child.Eval(rodrigues(p, r.axis, -r.sin, r.cos))
}

// BoundingSphereSquaredRadius is the child's; rotations about the origin
// preserve norms.
func (r *Rotate) BoundingSphereSquaredRadius() float64 {
	return r.child.BoundingSphereSquaredRadius()
}

func (r *Rotate) Features() []Polyline { return r.features }

// ---------------------------------------------------------------------------
// Scale
// ---------------------------------------------------------------------------

// Scale scales its child uniformly about the origin.
type Scale struct {
	child    Domain
	factor   float64
	features []Polyline
}

// NewScale returns child scaled by factor, which must be positive.
func NewScale(child Domain, factor float64) (*Scale, error) {
	if child == nil {
		return nil, invalidf("scale", "nil child")
	}
	if !(factor > 0) {
		return nil, invalidf("scale", "factor %g must be positive", factor)
	}
	return &Scale{
		child:  child,
		factor: factor,
		features: mapFeatures(child.Features(), func(p r3.Vec) r3.Vec {
			return r3.Scale(factor, p)
		}),
	}, nil
}

func (s *Scale) Eval(p r3.Vec) float64 {
	return s.child.Eval(r3.Scale(1/s.factor, p))
}

func (s *Scale) BoundingSphereSquaredRadius() float64 {
	return s.factor * s.factor * s.child.BoundingSphereSquaredRadius()
}

func (s *Scale) Features() []Polyline { return s.features }

// ---------------------------------------------------------------------------
// Stretch
// ---------------------------------------------------------------------------

// Stretch scales its child along a single direction. The norm of the
// direction vector is the stretch factor.
type Stretch struct {
	child    Domain
	axis     r3.Vec // unit length
	factor   float64
	features []Polyline
}

// NewStretch returns child stretched along direction by |direction|.
func NewStretch(child Domain, direction r3.Vec) (*Stretch, error) {
	if child == nil {
		return nil, invalidf("stretch", "nil child")
	}
	alpha := r3.Norm(direction)
	if !(alpha > 0) {
		return nil, degeneratef("stretch", "direction must be non-zero")
	}
	s := &Stretch{child: child, axis: r3.Scale(1/alpha, direction), factor: alpha}
	s.features = mapFeatures(child.Features(), func(p r3.Vec) r3.Vec {
		return s.apply(p, alpha)
	})
	return s, nil
}

// apply multiplies the component of p along the stretch axis by k.
func (s *Stretch) apply(p r3.Vec, k float64) r3.Vec {
	along := r3.Dot(p, s.axis)
	return r3.Add(p, r3.Scale((k-1)*along, s.axis))
}

func (s *Stretch) Eval(p r3.Vec) float64 {
	return s.child.Eval(s.apply(p, 1/s.factor))
}

// BoundingSphereSquaredRadius grows with the factor; shrinking never moves
// a point away from the origin.
func (s *Stretch) BoundingSphereSquaredRadius() float64 {
	k := max(1, s.factor)
	return k * k * s.child.BoundingSphereSquaredRadius()
}

func (s *Stretch) Features() []Polyline { return s.features }
