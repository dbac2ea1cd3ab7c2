package domain

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Polygon2D is a simple closed polygon, possibly non-convex, given by its
// vertices in order. The closing edge from the last vertex back to the first
// is implicit.
type Polygon2D struct {
	points []r2.Vec
}

// NewPolygon2D returns the polygon through points. A trailing copy of the
// first point is dropped. At least three vertices are required and they
// must not all lie on one line, so the polygon has an interior.
func NewPolygon2D(points []r2.Vec) (*Polygon2D, error) {
	pts := append([]r2.Vec(nil), points...)
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return nil, degeneratef("polygon", "need at least 3 points, got %d", len(pts))
	}
	if collinear(pts) {
		return nil, degeneratef("polygon", "all %d points lie on one line", len(pts))
	}
	return &Polygon2D{points: pts}, nil
}

// collinear reports whether every point lies on one line through pts[0],
// relative to the spread of the points.
func collinear(pts []r2.Vec) bool {
	a := pts[0]
	far, spread := a, 0.0
	for _, p := range pts[1:] {
		if d := r2.Norm2(r2.Sub(p, a)); d > spread {
			far, spread = p, d
		}
	}
	if spread == 0 {
		return true
	}
	for _, p := range pts[1:] {
		if math.Abs(orient(a, far, p)) > degenerateTolerance*spread {
			return false
		}
	}
	return true
}

// Points returns a copy of the polygon's vertices.
func (pg *Polygon2D) Points() []r2.Vec {
	return append([]r2.Vec(nil), pg.points...)
}

// orient returns twice the signed area of the triangle (a, b, p): positive
// when p lies left of the directed line a->b.
func orient(a, b, p r2.Vec) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// Inside classifies p against the polygon. Points on the boundary count as
// inside.
func (pg *Polygon2D) Inside(p r2.Vec) bool {
	inside := false
	n := len(pg.points)
	for i := 0; i < n; i++ {
		a, b := pg.points[i], pg.points[(i+1)%n]
		o := orient(a, b, p)
		if o == 0 &&
			min(a.X, b.X) <= p.X && p.X <= max(a.X, b.X) &&
			min(a.Y, b.Y) <= p.Y && p.Y <= max(a.Y, b.Y) {
			return true
		}
		// Count crossings of the ray from p towards +x, with half-open
		// edges so shared vertices are counted once.
		if (a.Y <= p.Y) != (b.Y <= p.Y) && (o > 0) == (b.Y > a.Y) {
			inside = !inside
		}
	}
	return inside
}

// maxNorm2 returns the largest squared vertex norm.
func (pg *Polygon2D) maxNorm2() float64 {
	var m float64
	for _, p := range pg.points {
		m = max(m, r2.Norm2(p))
	}
	return m
}

// membership maps a 2-D inside test onto the -1/+1 convention.
func membership(inside bool) float64 {
	if inside {
		return -1
	}
	return 1
}

// rotate2 turns p by the angle with the given sine and cosine.
func rotate2(p r2.Vec, sin, cos float64) r2.Vec {
	return r2.Vec{X: cos*p.X - sin*p.Y, Y: sin*p.X + cos*p.Y}
}

// ---------------------------------------------------------------------------
// Extrude
// ---------------------------------------------------------------------------

var (
	_ Domain = (*Extrude)(nil)
	_ Domain = (*RingExtrude)(nil)
)

// Extrude sweeps a polygon from z=0 along a direction with positive z
// component, optionally twisting it by a total angle around the z axis.
type Extrude struct {
	poly          *Polygon2D
	direction     r3.Vec
	twist         float64
	squaredRadius float64
	features      []Polyline
}

// NewExtrude returns the extrusion of poly along direction. A non-zero twist
// turns the top face by twist radians; the screw lines traced by the polygon
// corners are then cut into pieces of roughly edgeSize, which must be
// positive.
func NewExtrude(poly *Polygon2D, direction r3.Vec, twist, edgeSize float64) (*Extrude, error) {
	if poly == nil {
		return nil, invalidf("extrude", "nil polygon")
	}
	if !(direction.Z > 0) {
		return nil, invalidf("extrude", "direction z component %g must be positive", direction.Z)
	}
	if twist != 0 && !(edgeSize > 0) {
		return nil, invalidf("extrude", "twisted extrusion needs a positive edge size, got %g", edgeSize)
	}
	e := &Extrude{poly: poly, direction: direction, twist: twist}
	e.squaredRadius = e.bound()
	e.features = e.bake(edgeSize)
	return e, nil
}

// sweep returns where the polygon point p sits at height fraction beta.
func (e *Extrude) sweep(p r2.Vec, beta float64) r3.Vec {
	q := p
	if e.twist != 0 {
		s, c := math.Sincos(beta * e.twist)
		q = rotate2(p, s, c)
	}
	return r3.Vec{
		X: q.X + beta*e.direction.X,
		Y: q.Y + beta*e.direction.Y,
		Z: beta * e.direction.Z,
	}
}

func (e *Extrude) Eval(p r3.Vec) float64 {
	if p.Z < 0 || p.Z > e.direction.Z {
		return outside
	}
	beta := p.Z / e.direction.Z
	q := r2.Vec{X: p.X - beta*e.direction.X, Y: p.Y - beta*e.direction.Y}
	if e.twist != 0 {
		s, c := math.Sincos(-beta * e.twist)
		q = rotate2(q, s, c)
	}
	return membership(e.poly.Inside(q))
}

// bound is exact for straight extrusions (the solid lies in the convex hull
// of the bottom and top vertices). Twisted ones use the triangle inequality.
func (e *Extrude) bound() float64 {
	if e.twist == 0 {
		var m float64
		for _, p := range e.poly.points {
			m = max(m, r2.Norm2(p), r3.Norm2(e.sweep(p, 1)))
		}
		return m
	}
	shift := math.Hypot(e.direction.X, e.direction.Y)
	r := math.Sqrt(e.poly.maxNorm2()) + shift
	return r*r + e.direction.Z*e.direction.Z
}

func (e *Extrude) BoundingSphereSquaredRadius() float64 { return e.squaredRadius }

func (e *Extrude) Features() []Polyline { return e.features }

func (e *Extrude) bake(edgeSize float64) []Polyline {
	pts := e.poly.points
	n := len(pts)
	features := make([]Polyline, 0, 3*n)

	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		features = append(features, Polyline{e.sweep(a, 0), e.sweep(b, 0)})
	}
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		features = append(features, Polyline{e.sweep(a, 1), e.sweep(b, 1)})
	}

	for _, p := range pts {
		if e.twist == 0 {
			features = append(features, Polyline{e.sweep(p, 0), e.sweep(p, 1)})
			continue
		}
		// Length of the screw line without the shear, which is close
		// enough to pick a piece count.
		length := math.Sqrt(e.twist*e.twist*r2.Norm2(p) + r3.Norm2(e.direction))
		m := segmentCount(length, edgeSize)
		line := make(Polyline, 0, m+1)
		for k := 0; k <= m; k++ {
			line = append(line, e.sweep(p, float64(k)/float64(m)))
		}
		features = append(features, line)
	}
	return features
}

// ---------------------------------------------------------------------------
// RingExtrude
// ---------------------------------------------------------------------------

// RingExtrude revolves a (radius, height) profile polygon around the z axis.
type RingExtrude struct {
	poly     *Polygon2D
	features []Polyline
}

// NewRingExtrude returns the solid of revolution of poly, whose x coordinates
// are radii and must be non-negative. Every vertex off the axis traces a
// circle that becomes a feature, cut into pieces of roughly edgeSize.
func NewRingExtrude(poly *Polygon2D, edgeSize float64) (*RingExtrude, error) {
	if poly == nil {
		return nil, invalidf("ring-extrude", "nil polygon")
	}
	if !(edgeSize > 0) {
		return nil, invalidf("ring-extrude", "edge size %g must be positive", edgeSize)
	}
	for _, p := range poly.points {
		if p.X < 0 {
			return nil, invalidf("ring-extrude", "profile radius %g must not be negative", p.X)
		}
	}
	re := &RingExtrude{poly: poly}
	for _, p := range poly.points {
		if p.X == 0 {
			// A vertex on the axis sweeps a point, not an edge.
			continue
		}
		re.features = append(re.features, circle(p.X, p.Y, edgeSize))
	}
	return re, nil
}

func (re *RingExtrude) Eval(p r3.Vec) float64 {
	return membership(re.poly.Inside(r2.Vec{X: math.Hypot(p.X, p.Y), Y: p.Z}))
}

// BoundingSphereSquaredRadius is the largest r²+z² over the profile
// vertices; the profile lies in their convex hull.
func (re *RingExtrude) BoundingSphereSquaredRadius() float64 {
	return re.poly.maxNorm2()
}

func (re *RingExtrude) Features() []Polyline { return re.features }
