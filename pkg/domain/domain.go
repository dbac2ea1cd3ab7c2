// Package domain implements the implicit geometric domains that make up a
// CSG scene: primitives, coordinate transforms and boolean combinators.
//
// Every domain answers three questions for a downstream mesher:
//
//   - Eval(p) returns a signed value, negative strictly inside and
//     non-negative outside or on the boundary;
//   - BoundingSphereSquaredRadius returns r² such that every inside point
//     lies in the origin-centered sphere of radius r;
//   - Features returns the sharp edges the mesh has to preserve.
//
// Domains are immutable once constructed. Derived data (feature polylines,
// bounds, rotation coefficients) is computed in the constructor, so a single
// domain may be shared by several parents and evaluated from many goroutines
// without synchronization.
package domain

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Domain is the capability every shape in a scene provides.
type Domain interface {
	// Eval returns a negative value for points strictly inside the domain.
	Eval(p r3.Vec) float64
	// BoundingSphereSquaredRadius returns a conservative squared radius of
	// an origin-centered sphere containing the inside region.
	BoundingSphereSquaredRadius() float64
	// Features returns the feature polylines of the domain. The returned
	// slice is shared and must not be modified.
	Features() []Polyline
}

// Polyline is an ordered sequence of at least two points describing a sharp
// edge. A closed polyline repeats its first point as its last.
type Polyline []r3.Vec

// Closed reports whether the polyline ends where it starts.
func (pl Polyline) Closed() bool {
	return len(pl) > 2 && pl[0] == pl[len(pl)-1]
}

// Segments returns the number of line segments in the polyline.
func (pl Polyline) Segments() int {
	if len(pl) < 2 {
		return 0
	}
	return len(pl) - 1
}

// mapPoints returns a new polyline with f applied to every point.
func (pl Polyline) mapPoints(f func(r3.Vec) r3.Vec) Polyline {
	out := make(Polyline, len(pl))
	for i, p := range pl {
		out[i] = f(p)
	}
	return out
}

// Inside reports whether p is strictly inside d.
func Inside(d Domain, p r3.Vec) bool {
	return d.Eval(p) < 0
}

// mapFeatures applies f to every point of every polyline.
func mapFeatures(features []Polyline, f func(r3.Vec) r3.Vec) []Polyline {
	if len(features) == 0 {
		return nil
	}
	out := make([]Polyline, len(features))
	for i, pl := range features {
		out[i] = pl.mapPoints(f)
	}
	return out
}

// concatFeatures joins the feature lists of several domains in order.
// Duplicates are kept; the mesher does not require uniqueness.
func concatFeatures(ds ...Domain) []Polyline {
	var out []Polyline
	for _, d := range ds {
		out = append(out, d.Features()...)
	}
	return out
}
