package domain

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface checks.
var (
	_ Domain = (*Ball)(nil)
	_ Domain = (*Cuboid)(nil)
	_ Domain = (*Ellipsoid)(nil)
	_ Domain = (*Cylinder)(nil)
	_ Domain = (*Cone)(nil)
	_ Domain = (*Torus)(nil)
	_ Domain = (*Tetrahedron)(nil)
	_ Domain = (*HalfSpace)(nil)
)

// outside is the constant returned by slab-limited primitives for points
// beyond their z extent.
const outside = 1.0

// ---------------------------------------------------------------------------
// Ball
// ---------------------------------------------------------------------------

// Ball is a solid sphere.
type Ball struct {
	center r3.Vec
	radius float64
}

// NewBall returns a ball of the given center and radius.
func NewBall(center r3.Vec, radius float64) (*Ball, error) {
	if !(radius > 0) {
		return nil, invalidf("ball", "radius %g must be positive", radius)
	}
	return &Ball{center: center, radius: radius}, nil
}

func (b *Ball) Eval(p r3.Vec) float64 {
	return r3.Norm2(r3.Sub(p, b.center)) - b.radius*b.radius
}

func (b *Ball) BoundingSphereSquaredRadius() float64 {
	r := r3.Norm(b.center) + b.radius
	return r * r
}

func (b *Ball) Features() []Polyline { return nil }

// ---------------------------------------------------------------------------
// Cuboid
// ---------------------------------------------------------------------------

// Cuboid is an axis-aligned box between two corners.
//
// Eval uses the continuous form max_i (x_i-lo_i)(x_i-hi_i): negative in the
// open box, zero on the faces and positive outside. Its magnitude grows with
// the distance to the box, which keeps boolean combinators that rely on
// magnitudes well behaved.
type Cuboid struct {
	lo, hi   r3.Vec
	features []Polyline
}

// NewCuboid returns the box spanned by lo and hi. Every component of lo must
// be strictly less than the matching component of hi.
func NewCuboid(lo, hi r3.Vec) (*Cuboid, error) {
	if !(lo.X < hi.X && lo.Y < hi.Y && lo.Z < hi.Z) {
		return nil, invalidf("cuboid", "corner %v must be below %v on every axis", lo, hi)
	}
	c := &Cuboid{lo: lo, hi: hi}
	c.features = c.edges()
	return c, nil
}

func (c *Cuboid) Eval(p r3.Vec) float64 {
	fx := (p.X - c.lo.X) * (p.X - c.hi.X)
	fy := (p.Y - c.lo.Y) * (p.Y - c.hi.Y)
	fz := (p.Z - c.lo.Z) * (p.Z - c.hi.Z)
	return max(fx, fy, fz)
}

// BoundingSphereSquaredRadius returns the squared norm of the farthest
// corner, taking each axis from whichever of lo and hi is farther.
func (c *Cuboid) BoundingSphereSquaredRadius() float64 {
	return max(c.lo.X*c.lo.X, c.hi.X*c.hi.X) +
		max(c.lo.Y*c.lo.Y, c.hi.Y*c.hi.Y) +
		max(c.lo.Z*c.lo.Z, c.hi.Z*c.hi.Z)
}

func (c *Cuboid) Features() []Polyline { return c.features }

// edges returns the twelve box edges as two-point polylines.
func (c *Cuboid) edges() []Polyline {
	lo, hi := c.lo, c.hi
	corners := [8]r3.Vec{
		{X: lo.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: lo.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: lo.Z},
		{X: hi.X, Y: lo.Y, Z: hi.Z},
		{X: lo.X, Y: hi.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: hi.Z},
	}
	pairs := [12][2]int{
		{0, 1}, {0, 2}, {0, 3},
		{1, 4}, {1, 5},
		{2, 4}, {2, 6},
		{3, 5}, {3, 6},
		{4, 7}, {5, 7}, {6, 7},
	}
	out := make([]Polyline, len(pairs))
	for i, pr := range pairs {
		out[i] = Polyline{corners[pr[0]], corners[pr[1]]}
	}
	return out
}

// ---------------------------------------------------------------------------
// Ellipsoid
// ---------------------------------------------------------------------------

// Ellipsoid is an axis-aligned solid ellipsoid.
type Ellipsoid struct {
	center    r3.Vec
	semiAxes  r3.Vec
	invSquare r3.Vec // 1/a_i²
}

// NewEllipsoid returns an ellipsoid with semi-axes a0, a1, a2 along x, y, z.
func NewEllipsoid(center r3.Vec, a0, a1, a2 float64) (*Ellipsoid, error) {
	if !(a0 > 0 && a1 > 0 && a2 > 0) {
		return nil, invalidf("ellipsoid", "semi-axes (%g, %g, %g) must be positive", a0, a1, a2)
	}
	return &Ellipsoid{
		center:    center,
		semiAxes:  r3.Vec{X: a0, Y: a1, Z: a2},
		invSquare: r3.Vec{X: 1 / (a0 * a0), Y: 1 / (a1 * a1), Z: 1 / (a2 * a2)},
	}, nil
}

func (e *Ellipsoid) Eval(p r3.Vec) float64 {
	d := r3.Sub(p, e.center)
	return d.X*d.X*e.invSquare.X + d.Y*d.Y*e.invSquare.Y + d.Z*d.Z*e.invSquare.Z - 1
}

func (e *Ellipsoid) BoundingSphereSquaredRadius() float64 {
	r := r3.Norm(e.center) + max(e.semiAxes.X, e.semiAxes.Y, e.semiAxes.Z)
	return r * r
}

func (e *Ellipsoid) Features() []Polyline { return nil }

// ---------------------------------------------------------------------------
// Cylinder
// ---------------------------------------------------------------------------

// Cylinder is a circular cylinder around the z axis between z0 and z1.
// Points outside the z slab are always outside, whatever their radial
// distance.
type Cylinder struct {
	z0, z1   float64
	radius   float64
	features []Polyline
}

// NewCylinder returns a cylinder whose rims are discretized into segments
// of at most roughly edgeLength.
func NewCylinder(z0, z1, radius, edgeLength float64) (*Cylinder, error) {
	if !(z0 < z1) {
		return nil, invalidf("cylinder", "z0 %g must be below z1 %g", z0, z1)
	}
	if !(radius > 0) {
		return nil, invalidf("cylinder", "radius %g must be positive", radius)
	}
	if !(edgeLength > 0) {
		return nil, invalidf("cylinder", "feature edge length %g must be positive", edgeLength)
	}
	return &Cylinder{
		z0:     z0,
		z1:     z1,
		radius: radius,
		features: []Polyline{
			circle(radius, z0, edgeLength),
			circle(radius, z1, edgeLength),
		},
	}, nil
}

func (c *Cylinder) Eval(p r3.Vec) float64 {
	if c.z0 < p.Z && p.Z < c.z1 {
		return p.X*p.X + p.Y*p.Y - c.radius*c.radius
	}
	return outside
}

func (c *Cylinder) BoundingSphereSquaredRadius() float64 {
	return max(c.z0*c.z0, c.z1*c.z1) + c.radius*c.radius
}

func (c *Cylinder) Features() []Polyline { return c.features }

// ---------------------------------------------------------------------------
// Cone
// ---------------------------------------------------------------------------

// Cone is a circular cone standing on the z=0 plane with its apex at
// (0, 0, height).
type Cone struct {
	radius, height float64
	features       []Polyline
}

// NewCone returns a cone whose base rim is discretized into segments of at
// most roughly edgeLength.
func NewCone(radius, height, edgeLength float64) (*Cone, error) {
	if !(radius > 0) {
		return nil, invalidf("cone", "base radius %g must be positive", radius)
	}
	if !(height > 0) {
		return nil, invalidf("cone", "height %g must be positive", height)
	}
	if !(edgeLength > 0) {
		return nil, invalidf("cone", "feature edge length %g must be positive", edgeLength)
	}
	return &Cone{
		radius:   radius,
		height:   height,
		features: []Polyline{circle(radius, 0, edgeLength)},
	}, nil
}

func (c *Cone) Eval(p r3.Vec) float64 {
	if 0 < p.Z && p.Z < c.height {
		r := c.radius * (1 - p.Z/c.height)
		return p.X*p.X + p.Y*p.Y - r*r
	}
	return outside
}

// BoundingSphereSquaredRadius is exact: |p|² is convex along the cone's
// generators, so it peaks at the rim or at the apex.
func (c *Cone) BoundingSphereSquaredRadius() float64 {
	return max(c.radius*c.radius, c.height*c.height)
}

func (c *Cone) Features() []Polyline { return c.features }

// ---------------------------------------------------------------------------
// Torus
// ---------------------------------------------------------------------------

// Torus is a ring torus around the z axis.
type Torus struct {
	major, minor float64
}

// NewTorus returns a torus with the given major (ring) and minor (tube) radii.
func NewTorus(majorRadius, minorRadius float64) (*Torus, error) {
	if !(majorRadius > 0 && minorRadius > 0) {
		return nil, invalidf("torus", "radii (%g, %g) must be positive", majorRadius, minorRadius)
	}
	return &Torus{major: majorRadius, minor: minorRadius}, nil
}

func (t *Torus) Eval(p r3.Vec) float64 {
	d := math.Hypot(p.X, p.Y) - t.major
	return d*d + p.Z*p.Z - t.minor*t.minor
}

func (t *Torus) BoundingSphereSquaredRadius() float64 {
	r := t.major + t.minor
	return r * r
}

func (t *Torus) Features() []Polyline { return nil }

// ---------------------------------------------------------------------------
// Tetrahedron
// ---------------------------------------------------------------------------

// Tetrahedron is the solid spanned by four vertices.
//
// Eval returns -1 inside and +1 elsewhere; it is a membership test, not a
// distance.
type Tetrahedron struct {
	v        [4]r3.Vec
	faces    [4]tetFace
	features []Polyline
}

// tetFace holds a face plane and the side its opposite vertex lies on.
type tetFace struct {
	origin   r3.Vec
	normal   r3.Vec
	opposite float64 // sign of normal·(opposite vertex - origin)
}

// degenerateTolerance is the relative volume below which a tetrahedron is
// considered flat.
const degenerateTolerance = 1e-12

// NewTetrahedron returns the tetrahedron with vertices v0..v3.
func NewTetrahedron(v0, v1, v2, v3 r3.Vec) (*Tetrahedron, error) {
	v := [4]r3.Vec{v0, v1, v2, v3}

	var scale float64
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			scale = max(scale, r3.Norm(r3.Sub(v[i], v[j])))
		}
	}
	triple := r3.Dot(r3.Cross(r3.Sub(v1, v0), r3.Sub(v2, v0)), r3.Sub(v3, v0))
	if !(math.Abs(triple) > degenerateTolerance*scale*scale*scale) {
		return nil, degeneratef("tetrahedron", "vertices %v are coplanar", v)
	}

	t := &Tetrahedron{v: v}
	// Face i is opposite vertex i.
	for i := 0; i < 4; i++ {
		a, b, c := v[(i+1)%4], v[(i+2)%4], v[(i+3)%4]
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		t.faces[i] = tetFace{
			origin:   a,
			normal:   n,
			opposite: math.Copysign(1, r3.Dot(n, r3.Sub(v[i], a))),
		}
	}
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			t.features = append(t.features, Polyline{v[i], v[j]})
		}
	}
	return t, nil
}

func (t *Tetrahedron) Eval(p r3.Vec) float64 {
	for _, f := range t.faces {
		if r3.Dot(f.normal, r3.Sub(p, f.origin))*f.opposite <= 0 {
			return 1
		}
	}
	return -1
}

func (t *Tetrahedron) BoundingSphereSquaredRadius() float64 {
	var m float64
	for _, v := range t.v {
		m = max(m, r3.Norm2(v))
	}
	return m
}

func (t *Tetrahedron) Features() []Polyline { return t.features }

// ---------------------------------------------------------------------------
// HalfSpace
// ---------------------------------------------------------------------------

// HalfSpace is the set {x : n·x < alpha}. A half-space is unbounded, so the
// caller supplies the squared radius of the region of interest.
type HalfSpace struct {
	normal        r3.Vec
	alpha         float64
	squaredRadius float64
}

// NewHalfSpace returns the half-space below the plane n·x = alpha, reported
// with the given bounding sphere squared radius.
func NewHalfSpace(normal r3.Vec, alpha, squaredRadius float64) (*HalfSpace, error) {
	if r3.Norm2(normal) == 0 {
		return nil, degeneratef("half-space", "normal must be non-zero")
	}
	if !(squaredRadius > 0) {
		return nil, invalidf("half-space", "bounding squared radius %g must be positive", squaredRadius)
	}
	return &HalfSpace{normal: normal, alpha: alpha, squaredRadius: squaredRadius}, nil
}

func (h *HalfSpace) Eval(p r3.Vec) float64 {
	return r3.Dot(h.normal, p) - h.alpha
}

func (h *HalfSpace) BoundingSphereSquaredRadius() float64 { return h.squaredRadius }

func (h *HalfSpace) Features() []Polyline { return nil }

// ---------------------------------------------------------------------------
// Discretization helpers
// ---------------------------------------------------------------------------

// segmentCount returns how many pieces a curve of the given length is cut
// into so that no piece is longer than edge. At least one piece is returned.
func segmentCount(length, edge float64) int {
	n := int(math.Ceil(length / edge))
	if n < 1 {
		n = 1
	}
	return n
}

// MinCircleSegments is the fewest pieces a feature circle is cut into.
const MinCircleSegments = 3

// circle returns a closed polyline approximating the circle of the given
// radius around the z axis at height z.
func circle(radius, z, edge float64) Polyline {
	n := max(segmentCount(2*math.Pi*radius, edge), MinCircleSegments)
	pl := make(Polyline, 0, n+1)
	for i := 0; i < n; i++ {
		s, c := math.Sincos(2 * math.Pi * float64(i) / float64(n))
		pl = append(pl, r3.Vec{X: radius * c, Y: radius * s, Z: z})
	}
	return append(pl, pl[0])
}
