package labeling_test

import (
	"math"
	"testing"

	"github.com/chazu/csgmesh/pkg/domain"
	"github.com/chazu/csgmesh/pkg/labeling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func vec(x, y, z float64) r3.Vec { return r3.Vec{X: x, Y: y, Z: z} }

func leaf(t *testing.T, d domain.Domain, err error) *labeling.Region {
	t.Helper()
	require.NoError(t, err)
	r, err := labeling.Leaf(d)
	require.NoError(t, err)
	return r
}

func ball(t *testing.T, x float64) (*labeling.Region, domain.Domain) {
	t.Helper()
	b, err := domain.NewBall(vec(x, 0, 0), 1)
	require.NoError(t, err)
	return leaf(t, b, nil), b
}

func grid() []r3.Vec {
	var pts []r3.Vec
	for i := 0; i <= 13; i++ {
		for j := 0; j <= 8; j++ {
			for _, z := range []float64{-0.7031, 0.0173, 0.4049} {
				// Odd offsets keep the points off every primitive surface.
				pts = append(pts, vec(-1.9871+0.3*float64(i), -1.1937+0.3*float64(j), z))
			}
		}
	}
	return pts
}

func TestLeaf(t *testing.T) {
	r, _ := ball(t, 0)
	assert.Equal(t, 1, r.Label(vec(0.2, 0, 0)))
	assert.Equal(t, 0, r.Label(vec(2, 0, 0)))
	assert.Equal(t, 1, r.Labels())
	assert.Equal(t, 1, r.Primitives())

	_, err := labeling.Leaf(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestUnionLabelsSubcells(t *testing.T) {
	a, _ := ball(t, 0.5)
	b, _ := ball(t, -0.5)
	u, err := labeling.Union(a, b)
	require.NoError(t, err)

	assert.Equal(t, 3, u.Labels())
	onlyA := u.Label(vec(1.2, 0, 0))
	onlyB := u.Label(vec(-1.2, 0, 0))
	both := u.Label(vec(0, 0, 0))
	assert.Equal(t, 0, u.Label(vec(0, 1.5, 0)))
	for _, l := range []int{onlyA, onlyB, both} {
		assert.Positive(t, l)
	}
	assert.NotEqual(t, onlyA, onlyB)
	assert.NotEqual(t, onlyA, both)
	assert.NotEqual(t, onlyB, both)
}

func TestIntersectAndSubtractSignSets(t *testing.T) {
	a, _ := ball(t, 0.5)
	b, _ := ball(t, -0.5)

	x, err := labeling.Intersect(a, b)
	require.NoError(t, err)
	assert.Equal(t, 1, x.Labels())
	assert.Equal(t, 1, x.Label(vec(0, 0, 0)))
	assert.Equal(t, 0, x.Label(vec(1.2, 0, 0)))

	d, err := labeling.Subtract(a, b)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Labels())
	assert.Equal(t, 1, d.Label(vec(1.2, 0, 0)))
	assert.Equal(t, 0, d.Label(vec(0, 0, 0)))
	assert.Equal(t, 0, d.Label(vec(-1.2, 0, 0)))
}

// TestAgreesWithScalar checks that labeling and scalar composition classify
// points identically.
func TestAgreesWithScalar(t *testing.T) {
	ra, da := ball(t, 0.5)
	rb, db := ball(t, -0.5)
	cube, err := domain.NewCuboid(vec(-0.3, -2, -2), vec(0.3, 2, 2))
	require.NoError(t, err)
	rc := leaf(t, cube, nil)

	u, err := labeling.Union(ra, rb)
	require.NoError(t, err)
	scene, err := labeling.Subtract(u, rc)
	require.NoError(t, err)

	su, err := domain.NewUnion(da, db)
	require.NoError(t, err)
	scalar, err := domain.NewDifference(su, cube)
	require.NoError(t, err)

	for _, p := range grid() {
		assert.Equal(t, domain.Inside(scalar, p), domain.Inside(scene, p), "p=%v", p)
	}
	assert.Equal(t, scalar.BoundingSphereSquaredRadius(), scene.BoundingSphereSquaredRadius())
	assert.Len(t, scene.Features(), len(scalar.Features()))
}

func TestTransformsKeepLabels(t *testing.T) {
	a, _ := ball(t, 0.5)
	b, _ := ball(t, -0.5)
	u, err := labeling.Union(a, b)
	require.NoError(t, err)

	d := vec(3, -1, 2)
	moved, err := u.Translate(d)
	require.NoError(t, err)
	turned, err := u.Rotate(vec(0, 0, 1), math.Pi)
	require.NoError(t, err)

	for _, p := range grid() {
		assert.Equal(t, u.Label(p), moved.Label(r3.Add(p, d)), "p=%v", p)
	}
	// Half a turn about z swaps the two balls.
	assert.Equal(t, u.Label(vec(1.2, 0, 0)), turned.Label(vec(-1.2, 0, 0)))
	assert.Equal(t, u.BoundingSphereSquaredRadius(), turned.BoundingSphereSquaredRadius())

	big, err := u.Scale(2)
	require.NoError(t, err)
	assert.InDelta(t, 4*u.BoundingSphereSquaredRadius(), big.BoundingSphereSquaredRadius(), 1e-9)
	assert.Positive(t, big.Label(vec(2.5, 0, 0)))

	long, err := u.Stretch(vec(0, 3, 0))
	require.NoError(t, err)
	assert.Positive(t, long.Label(vec(0.5, 2.5, 0)))
	assert.Zero(t, u.Label(vec(0.5, 2.5, 0)))

	_, err = u.Scale(0)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestTooManyPrimitives(t *testing.T) {
	r, _ := ball(t, 0)
	var err error
	for i := 1; i < labeling.MaxPrimitives; i++ {
		next, _ := ball(t, 0.01*float64(i))
		r, err = labeling.Intersect(r, next)
		require.NoError(t, err)
	}
	assert.Equal(t, labeling.MaxPrimitives, r.Primitives())

	extra, _ := ball(t, 0)
	_, err = labeling.Intersect(r, extra)
	assert.ErrorIs(t, err, labeling.ErrTooManyPrimitives)
	_, err = labeling.Union(r, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestEvalConvention(t *testing.T) {
	r, _ := ball(t, 0)
	assert.Equal(t, -1.0, r.Eval(vec(0, 0, 0)))
	assert.Equal(t, 1.0, r.Eval(vec(0, 0, 3)))
	assert.True(t, domain.Inside(r, vec(0.1, 0.1, 0.1)))
}
