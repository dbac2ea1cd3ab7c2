package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func vec(x, y, z float64) r3.Vec { return r3.Vec{X: x, Y: y, Z: z} }

func TestBallSignConvention(t *testing.T) {
	b := Must(NewBall(vec(0, 0, 0), 1))

	assert.Less(t, b.Eval(vec(0, 0, 0)), 0.0)
	assert.InDelta(t, 0.0, b.Eval(vec(1, 0, 0)), 1e-12)
	assert.Greater(t, b.Eval(vec(2, 0, 0)), 0.0)
	assert.False(t, Inside(b, vec(1, 0, 0)), "boundary is not inside")
	assert.Empty(t, b.Features())
}

func TestBallBound(t *testing.T) {
	b := Must(NewBall(vec(3, 4, 0), 1))
	assert.InDelta(t, 36.0, b.BoundingSphereSquaredRadius(), 1e-12)
}

func TestCuboidUnitCube(t *testing.T) {
	c := Must(NewCuboid(vec(0, 0, 0), vec(1, 1, 1)))

	assert.Less(t, c.Eval(vec(0.5, 0.5, 0.5)), 0.0)
	assert.Greater(t, c.Eval(vec(2, 0.5, 0.5)), 0.0)
	assert.Equal(t, 0.0, c.Eval(vec(1, 0.5, 0.5)), "faces evaluate to zero")
	assert.Equal(t, 3.0, c.BoundingSphereSquaredRadius())

	features := c.Features()
	require.Len(t, features, 12)

	seen := make(map[[2]r3.Vec]bool)
	for _, pl := range features {
		require.Len(t, pl, 2)
		a, b := pl[0], pl[1]
		// Every edge joins two corners that differ along exactly one axis.
		d := r3.Sub(b, a)
		diffs := 0
		for _, v := range []float64{d.X, d.Y, d.Z} {
			if v != 0 {
				diffs++
			}
		}
		assert.Equal(t, 1, diffs, "edge %v -> %v", a, b)
		for _, p := range pl {
			for _, v := range []float64{p.X, p.Y, p.Z} {
				assert.True(t, v == 0 || v == 1, "corner %v", p)
			}
		}
		key := [2]r3.Vec{a, b}
		if r3.Norm2(a) > r3.Norm2(b) || (r3.Norm2(a) == r3.Norm2(b) && a.X > b.X) {
			key = [2]r3.Vec{b, a}
		}
		assert.False(t, seen[key], "duplicate edge %v", key)
		seen[key] = true
	}
}

func TestCuboidBoundUsesFarthestCorner(t *testing.T) {
	// Neither lo nor hi is the farthest corner; (-2, 2, 2) is.
	c := Must(NewCuboid(vec(-2, 0, 0), vec(0, 2, 2)))
	assert.Equal(t, 12.0, c.BoundingSphereSquaredRadius())
	assert.Less(t, c.Eval(vec(-1.99, 1.99, 1.99)), 0.0)
}

func TestCuboidRejectsInvertedCorners(t *testing.T) {
	_, err := NewCuboid(vec(0, 0, 0), vec(1, 0, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestEllipsoid(t *testing.T) {
	e := Must(NewEllipsoid(vec(0, 0, 0), 2, 1, 1))
	assert.Less(t, e.Eval(vec(1.9, 0, 0)), 0.0)
	assert.Greater(t, e.Eval(vec(0, 1.1, 0)), 0.0)
	assert.InDelta(t, 4.0, e.BoundingSphereSquaredRadius(), 1e-12)

	_, err := NewEllipsoid(vec(0, 0, 0), 1, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestCylinder(t *testing.T) {
	c := Must(NewCylinder(0, 1, 1, 0.1))

	assert.InDelta(t, -1.0, c.Eval(vec(0, 0, 0.5)), 1e-12)
	assert.Equal(t, 1.0, c.Eval(vec(0, 0, 1.5)), "outside the slab is outside")
	assert.Equal(t, 1.0, c.Eval(vec(0, 0, 1)), "slab faces are outside")
	assert.InDelta(t, 2.0, c.BoundingSphereSquaredRadius(), 1e-12)

	features := c.Features()
	require.Len(t, features, 2)
	want := int(math.Ceil(2 * math.Pi / 0.1))
	for i, z := range []float64{0, 1} {
		pl := features[i]
		assert.True(t, pl.Closed())
		assert.Equal(t, want, pl.Segments())
		for _, p := range pl {
			assert.InDelta(t, 1.0, math.Hypot(p.X, p.Y), 1e-12)
			assert.Equal(t, z, p.Z)
		}
	}

	_, err := NewCylinder(1, 0, 1, 0.1)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = NewCylinder(0, 1, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestCone(t *testing.T) {
	c := Must(NewCone(1, 2, 0.1))

	assert.InDelta(t, -0.25, c.Eval(vec(0, 0, 1)), 1e-12)
	assert.Greater(t, c.Eval(vec(0.6, 0, 1)), 0.0)
	assert.Equal(t, 1.0, c.Eval(vec(0, 0, -0.1)))
	assert.Equal(t, 4.0, c.BoundingSphereSquaredRadius())

	require.Len(t, c.Features(), 1)
	rim := c.Features()[0]
	assert.True(t, rim.Closed())
	assert.Equal(t, 0.0, rim[0].Z)
}

func TestTorus(t *testing.T) {
	tor := Must(NewTorus(1, 0.5))
	assert.Less(t, tor.Eval(vec(1, 0, 0)), 0.0)
	assert.Greater(t, tor.Eval(vec(0, 0, 0)), 0.0)
	assert.Less(t, tor.Eval(vec(0, -1.2, 0.3)), 0.0)
	assert.Equal(t, 2.25, tor.BoundingSphereSquaredRadius())
}

func TestTetrahedron(t *testing.T) {
	tet := Must(NewTetrahedron(vec(0, 0, 0), vec(1, 0, 0), vec(0, 1, 0), vec(0, 0, 1)))

	assert.Equal(t, -1.0, tet.Eval(vec(0.1, 0.1, 0.1)))
	assert.Equal(t, 1.0, tet.Eval(vec(1, 1, 1)))
	assert.Equal(t, 1.0, tet.Eval(vec(0, 0, 0)), "vertices are boundary")
	assert.Equal(t, 1.0, tet.Eval(vec(0.2, 0.2, 0)), "faces are boundary")
	assert.Equal(t, 1.0, tet.BoundingSphereSquaredRadius())
	assert.Len(t, tet.Features(), 6)

	// Vertex order does not change the solid.
	flipped := Must(NewTetrahedron(vec(0, 0, 0), vec(0, 1, 0), vec(1, 0, 0), vec(0, 0, 1)))
	assert.Equal(t, -1.0, flipped.Eval(vec(0.1, 0.1, 0.1)))
}

func TestTetrahedronDegenerate(t *testing.T) {
	_, err := NewTetrahedron(vec(0, 0, 0), vec(1, 0, 0), vec(0, 1, 0), vec(1, 1, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegenerate))
}

func TestHalfSpace(t *testing.T) {
	h := Must(NewHalfSpace(vec(0, 0, 1), 0, 100))
	assert.Equal(t, -1.0, h.Eval(vec(5, 5, -1)))
	assert.Equal(t, 0.0, h.Eval(vec(5, 5, 0)))
	assert.Equal(t, 100.0, h.BoundingSphereSquaredRadius())

	_, err := NewHalfSpace(vec(0, 0, 0), 0, 1)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestSegmentCount(t *testing.T) {
	tests := []struct {
		name         string
		length, edge float64
		want         int
	}{
		{"exact", 1, 0.25, 4},
		{"rounds up", 1, 0.3, 4},
		{"shorter than edge", 0.1, 1, 1},
		{"zero length", 0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := segmentCount(tt.length, tt.edge); got != tt.want {
				t.Errorf("segmentCount(%g, %g) = %d, want %d", tt.length, tt.edge, got, tt.want)
			}
		})
	}
}

func TestMustPanics(t *testing.T) {
	assert.Panics(t, func() { Must(NewBall(vec(0, 0, 0), -1)) })
}
