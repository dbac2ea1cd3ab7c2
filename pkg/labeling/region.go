// Package labeling is the exact alternative to scalar composition. A Region
// keeps its primitives separate and records which combinations of their
// signs are inside, so a point can be classified by the combination it
// falls in rather than by a single composed value.
//
// A sign vector is a bitmask over the region's primitives: bit i is set when
// primitive i evaluates negative (inside). Intersection takes the Cartesian
// product of sign sets, union adds every combination in which either operand
// is inside, and subtraction pairs the minuend's vectors with the complement
// of the subtrahend's.
package labeling

import (
	"errors"
	"fmt"
	"slices"

	"github.com/chazu/csgmesh/pkg/domain"
	"gonum.org/v1/gonum/spatial/r3"
)

// MaxPrimitives caps the primitive count of a region. Unions and
// subtractions enumerate every sign vector of an operand, which is 2^n
// entries.
const MaxPrimitives = 20

// ErrTooManyPrimitives is returned when combining regions would exceed
// MaxPrimitives.
var ErrTooManyPrimitives = errors.New("labeling: too many primitives")

// Compile-time interface check.
var _ domain.Domain = (*Region)(nil)

// Region is a set of primitives and the sign vectors that make up its
// interior. Regions are immutable once built.
type Region struct {
	prims         []domain.Domain
	signs         []uint32 // sorted, unique
	squaredRadius float64
	features      []domain.Polyline
}

// Leaf returns the region inside a single primitive.
func Leaf(d domain.Domain) (*Region, error) {
	if d == nil {
		return nil, fmt.Errorf("labeling: leaf: %w", domain.ErrInvalidParameter)
	}
	return &Region{
		prims:         []domain.Domain{d},
		signs:         []uint32{1},
		squaredRadius: d.BoundingSphereSquaredRadius(),
		features:      d.Features(),
	}, nil
}

// combine checks operands and returns the merged primitive list, b's
// primitives following a's.
func combine(op string, a, b *Region) ([]domain.Domain, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("labeling: %s: %w", op, domain.ErrInvalidParameter)
	}
	n := len(a.prims) + len(b.prims)
	if n > MaxPrimitives {
		return nil, fmt.Errorf("labeling: %s: %d primitives exceeds %d: %w", op, n, MaxPrimitives, ErrTooManyPrimitives)
	}
	prims := make([]domain.Domain, 0, n)
	prims = append(prims, a.prims...)
	return append(prims, b.prims...), nil
}

// all returns every sign vector over the region's primitives.
func (r *Region) all() []uint32 {
	out := make([]uint32, 1<<len(r.prims))
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}

// complement returns every sign vector not in the region.
func (r *Region) complement() []uint32 {
	out := make([]uint32, 0, (1<<len(r.prims))-len(r.signs))
	for i := uint32(0); i < 1<<len(r.prims); i++ {
		if !r.has(i) {
			out = append(out, i)
		}
	}
	return out
}

func (r *Region) has(s uint32) bool {
	_, ok := slices.BinarySearch(r.signs, s)
	return ok
}

// product appends every pairing of xs (low bits) with ys shifted past the
// first shift primitives.
func product(dst, xs, ys []uint32, shift int) []uint32 {
	for _, x := range xs {
		for _, y := range ys {
			dst = append(dst, x|y<<shift)
		}
	}
	return dst
}

func normalize(signs []uint32) []uint32 {
	slices.Sort(signs)
	return slices.Compact(signs)
}

func concat(a, b []domain.Polyline) []domain.Polyline {
	if len(a)+len(b) == 0 {
		return nil
	}
	out := make([]domain.Polyline, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// Intersect returns the region inside both a and b.
func Intersect(a, b *Region) (*Region, error) {
	prims, err := combine("intersect", a, b)
	if err != nil {
		return nil, err
	}
	return &Region{
		prims:         prims,
		signs:         normalize(product(nil, a.signs, b.signs, len(a.prims))),
		squaredRadius: min(a.squaredRadius, b.squaredRadius),
		features:      concat(a.features, b.features),
	}, nil
}

// Union returns the region inside a or b.
func Union(a, b *Region) (*Region, error) {
	prims, err := combine("union", a, b)
	if err != nil {
		return nil, err
	}
	shift := len(a.prims)
	signs := product(nil, a.signs, b.all(), shift)
	signs = product(signs, a.complement(), b.signs, shift)
	return &Region{
		prims:         prims,
		signs:         normalize(signs),
		squaredRadius: max(a.squaredRadius, b.squaredRadius),
		features:      concat(a.features, b.features),
	}, nil
}

// Subtract returns the region inside a and outside b. The bound is a's.
func Subtract(a, b *Region) (*Region, error) {
	prims, err := combine("subtract", a, b)
	if err != nil {
		return nil, err
	}
	return &Region{
		prims:         prims,
		signs:         normalize(product(nil, a.signs, b.complement(), len(a.prims))),
		squaredRadius: a.squaredRadius,
		features:      concat(a.features, b.features),
	}, nil
}

// transform wraps every primitive with the same rigid or scaling map. The
// sign vectors are untouched; bound and features follow the scalar
// transform applied to the whole region.
func (r *Region) transform(wrap func(domain.Domain) (domain.Domain, error)) (*Region, error) {
	whole, err := wrap(r)
	if err != nil {
		return nil, err
	}
	prims := make([]domain.Domain, len(r.prims))
	for i, p := range r.prims {
		if prims[i], err = wrap(p); err != nil {
			return nil, err
		}
	}
	return &Region{
		prims:         prims,
		signs:         r.signs,
		squaredRadius: whole.BoundingSphereSquaredRadius(),
		features:      whole.Features(),
	}, nil
}

// Translate moves the region by d.
func (r *Region) Translate(d r3.Vec) (*Region, error) {
	return r.transform(func(c domain.Domain) (domain.Domain, error) {
		return domain.NewTranslate(c, d)
	})
}

// Rotate turns the region by angle radians around axis.
func (r *Region) Rotate(axis r3.Vec, angle float64) (*Region, error) {
	return r.transform(func(c domain.Domain) (domain.Domain, error) {
		return domain.NewRotate(c, axis, angle)
	})
}

// Scale scales the region uniformly about the origin.
func (r *Region) Scale(factor float64) (*Region, error) {
	return r.transform(func(c domain.Domain) (domain.Domain, error) {
		return domain.NewScale(c, factor)
	})
}

// Stretch scales the region along direction by its length.
func (r *Region) Stretch(direction r3.Vec) (*Region, error) {
	return r.transform(func(c domain.Domain) (domain.Domain, error) {
		return domain.NewStretch(c, direction)
	})
}

// Signature returns the sign vector of p.
func (r *Region) Signature(p r3.Vec) uint32 {
	var s uint32
	for i, d := range r.prims {
		if d.Eval(p) < 0 {
			s |= 1 << i
		}
	}
	return s
}

// Label returns the 1-based index of p's sign vector among the region's
// interior vectors, or 0 when p is outside. Points in different sub-cells
// of the interior get different labels.
func (r *Region) Label(p r3.Vec) int {
	i, ok := slices.BinarySearch(r.signs, r.Signature(p))
	if !ok {
		return 0
	}
	return i + 1
}

// Labels returns the number of interior sign vectors.
func (r *Region) Labels() int { return len(r.signs) }

// Primitives returns the number of primitives in the region.
func (r *Region) Primitives() int { return len(r.prims) }

// Eval is -1 inside the region and +1 outside.
func (r *Region) Eval(p r3.Vec) float64 {
	if r.Label(p) > 0 {
		return -1
	}
	return 1
}

func (r *Region) BoundingSphereSquaredRadius() float64 { return r.squaredRadius }

func (r *Region) Features() []domain.Polyline { return r.features }
