package domain

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	_ Domain = (*Intersection)(nil)
	_ Domain = (*Union)(nil)
	_ Domain = (*Difference)(nil)
)

// checkChildren rejects empty and nil child lists.
func checkChildren(op string, children []Domain) error {
	if len(children) == 0 {
		return fmt.Errorf("%s: %w", op, ErrNoChildren)
	}
	for i, c := range children {
		if c == nil {
			return invalidf(op, "child %d is nil", i)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Intersection
// ---------------------------------------------------------------------------

// Intersection is inside where every child is inside.
type Intersection struct {
	children      []Domain
	squaredRadius float64
	features      []Polyline
}

// NewIntersection returns the intersection of one or more domains.
func NewIntersection(children ...Domain) (*Intersection, error) {
	if err := checkChildren("intersection", children); err != nil {
		return nil, err
	}
	r := children[0].BoundingSphereSquaredRadius()
	for _, c := range children[1:] {
		r = min(r, c.BoundingSphereSquaredRadius())
	}
	return &Intersection{
		children:      append([]Domain(nil), children...),
		squaredRadius: r,
		features:      concatFeatures(children...),
	}, nil
}

// Eval returns the largest child value.
func (x *Intersection) Eval(p r3.Vec) float64 {
	v := x.children[0].Eval(p)
	for _, c := range x.children[1:] {
		v = max(v, c.Eval(p))
	}
	return v
}

func (x *Intersection) BoundingSphereSquaredRadius() float64 { return x.squaredRadius }

func (x *Intersection) Features() []Polyline { return x.features }

// ---------------------------------------------------------------------------
// Union
// ---------------------------------------------------------------------------

// Union is inside where any child is inside.
type Union struct {
	children      []Domain
	squaredRadius float64
	features      []Polyline
}

// NewUnion returns the union of one or more domains.
func NewUnion(children ...Domain) (*Union, error) {
	if err := checkChildren("union", children); err != nil {
		return nil, err
	}
	r := children[0].BoundingSphereSquaredRadius()
	for _, c := range children[1:] {
		r = max(r, c.BoundingSphereSquaredRadius())
	}
	return &Union{
		children:      append([]Domain(nil), children...),
		squaredRadius: r,
		features:      concatFeatures(children...),
	}, nil
}

// Eval returns the smallest child value.
func (u *Union) Eval(p r3.Vec) float64 {
	v := u.children[0].Eval(p)
	for _, c := range u.children[1:] {
		v = min(v, c.Eval(p))
	}
	return v
}

func (u *Union) BoundingSphereSquaredRadius() float64 { return u.squaredRadius }

func (u *Union) Features() []Polyline { return u.features }

// ---------------------------------------------------------------------------
// Difference
// ---------------------------------------------------------------------------

// Difference is inside where a is inside and b is not.
//
// The bounding sphere is a's and b never grows it. Eval is only negative
// where a's Eval is negative, so a's bound stays sound.
type Difference struct {
	a, b     Domain
	features []Polyline
}

// NewDifference returns a minus b.
func NewDifference(a, b Domain) (*Difference, error) {
	if err := checkChildren("difference", []Domain{a, b}); err != nil {
		return nil, err
	}
	return &Difference{a: a, b: b, features: concatFeatures(a, b)}, nil
}

// Eval returns a's value inside the difference and elsewhere the larger of
// a's value and b's negated value, so there is no flat plateau at the cut.
func (d *Difference) Eval(p r3.Vec) float64 {
	va := d.a.Eval(p)
	vb := d.b.Eval(p)
	if va < 0 && vb >= 0 {
		return va
	}
	return max(va, -vb)
}

func (d *Difference) BoundingSphereSquaredRadius() float64 {
	return d.a.BoundingSphereSquaredRadius()
}

func (d *Difference) Features() []Polyline { return d.features }
