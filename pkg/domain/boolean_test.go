package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoBalls(t *testing.T) (Domain, Domain) {
	t.Helper()
	a := Must(NewBall(vec(0.5, 0, 0), 1))
	b := Must(NewBall(vec(-0.5, 0, 0), 1))
	return a, b
}

func TestUnionIntersectionSigns(t *testing.T) {
	a, b := twoBalls(t)
	u := Must(NewUnion(a, b))
	x := Must(NewIntersection(a, b))

	for _, p := range samplePoints() {
		inA, inB := Inside(a, p), Inside(b, p)
		assert.Equal(t, inA || inB, Inside(u, p), "union at %v", p)
		assert.Equal(t, inA && inB, Inside(x, p), "intersection at %v", p)
	}
}

func TestUnionIntersectionValues(t *testing.T) {
	a, b := twoBalls(t)
	u := Must(NewUnion(a, b))
	x := Must(NewIntersection(a, b))

	p := vec(0.7, 0.2, -0.1)
	assert.Equal(t, math.Min(a.Eval(p), b.Eval(p)), u.Eval(p))
	assert.Equal(t, math.Max(a.Eval(p), b.Eval(p)), x.Eval(p))
}

func TestBooleanBounds(t *testing.T) {
	small := Must(NewBall(vec(0, 0, 0), 1))
	big := Must(NewBall(vec(0, 0, 0), 3))

	assert.Equal(t, 9.0, Must(NewUnion(small, big)).BoundingSphereSquaredRadius())
	assert.Equal(t, 1.0, Must(NewIntersection(small, big)).BoundingSphereSquaredRadius())
	assert.Equal(t, 1.0, Must(NewDifference(small, big)).BoundingSphereSquaredRadius())
	assert.Equal(t, 9.0, Must(NewDifference(big, small)).BoundingSphereSquaredRadius())
}

func TestDifferenceContainment(t *testing.T) {
	a, b := twoBalls(t)
	d := Must(NewDifference(a, b))

	inside := 0
	for _, p := range samplePoints() {
		if Inside(d, p) {
			inside++
			assert.True(t, Inside(a, p), "difference adds %v outside a", p)
			assert.False(t, Inside(b, p), "difference keeps %v inside b", p)
		}
		if Inside(a, p) && !Inside(b, p) {
			assert.True(t, Inside(d, p), "difference drops %v", p)
		}
	}
	assert.Positive(t, inside)
}

func TestDifferenceValues(t *testing.T) {
	a, b := twoBalls(t)
	d := Must(NewDifference(a, b))

	// Inside a only: a's value passes through.
	p := vec(1.2, 0, 0)
	assert.Equal(t, a.Eval(p), d.Eval(p))

	// Inside both: the depth into b, not a flat constant.
	assert.InDelta(t, 0.9975, d.Eval(vec(-0.45, 0, 0)), 1e-12)
	assert.InDelta(t, 0.91, d.Eval(vec(-0.2, 0, 0)), 1e-12)

	// Outside a: never negative.
	q := vec(-1.2, 0.3, 0)
	assert.Equal(t, max(a.Eval(q), -b.Eval(q)), d.Eval(q))
	assert.GreaterOrEqual(t, d.Eval(q), 0.0)
}

func TestBooleanFeaturesConcatenate(t *testing.T) {
	c0 := Must(NewCuboid(vec(0, 0, -0.5), vec(3, 3, 0.5)))
	c1 := Must(NewCuboid(vec(1, 1, -2), vec(2, 2, 2)))

	u := Must(NewUnion(c0, c1))
	require.Len(t, u.Features(), 24)
	assert.Equal(t, c0.Features()[0], u.Features()[0])
	assert.Equal(t, c1.Features()[0], u.Features()[12])

	d := Must(NewDifference(c1, c0))
	assert.Equal(t, c1.Features()[0], d.Features()[0])
	assert.Equal(t, c0.Features()[0], d.Features()[12])
}

func TestNAryCombinators(t *testing.T) {
	balls := []Domain{
		Must(NewBall(vec(0, 0, 0), 1)),
		Must(NewBall(vec(1, 0, 0), 1)),
		Must(NewBall(vec(0, 1, 0), 1)),
	}
	x := Must(NewIntersection(balls...))
	u := Must(NewUnion(balls...))

	assert.True(t, Inside(x, vec(0.4, 0.4, 0)))
	assert.False(t, Inside(x, vec(-0.5, 0, 0)))
	assert.True(t, Inside(u, vec(-0.5, 0, 0)))
	assert.True(t, Inside(u, vec(1.8, 0, 0)))

	single := Must(NewUnion(balls[0]))
	assert.Equal(t, balls[0].Eval(vec(0.3, 0.3, 0.3)), single.Eval(vec(0.3, 0.3, 0.3)))
}

func TestCombinatorsRejectEmpty(t *testing.T) {
	_, err := NewUnion()
	assert.ErrorIs(t, err, ErrNoChildren)
	_, err = NewIntersection()
	assert.ErrorIs(t, err, ErrNoChildren)
	_, err = NewDifference(nil, Must(NewBall(vec(0, 0, 0), 1)))
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

// TestBoundSoundness samples composed domains and checks that every inside
// point lies within the reported bounding sphere.
func TestBoundSoundness(t *testing.T) {
	a, b := twoBalls(t)
	cube := Must(NewCuboid(vec(-0.5, -0.5, -0.5), vec(0.5, 0.5, 1)))
	scenes := map[string]Domain{
		"union":      Must(NewUnion(a, b)),
		"difference": Must(NewDifference(a, b)),
		"translated": Must(NewTranslate(cube, vec(0.7, -0.4, 0.2))),
		"rotated":    Must(NewRotate(cube, vec(1, 1, 1), 0.8)),
		"stretched":  Must(NewStretch(cube, vec(0, 1.5, 0))),
		"cone":       Must(NewCone(1, 1.5, 0.2)),
		"cylinder":   Must(NewCylinder(-0.5, 1, 0.8, 0.2)),
		"tetra":      Must(NewTetrahedron(vec(0, 0, 0), vec(1.5, 0, 0), vec(0, 1.5, 0), vec(0, 0, 1.5))),
	}
	for name, d := range scenes {
		t.Run(name, func(t *testing.T) {
			r2 := d.BoundingSphereSquaredRadius()
			const n = 24
			for i := 0; i <= n; i++ {
				for j := 0; j <= n; j++ {
					for k := 0; k <= n; k++ {
						p := vec(-3+6*float64(i)/n, -3+6*float64(j)/n, -3+6*float64(k)/n)
						if Inside(d, p) {
							assert.LessOrEqual(t, p.X*p.X+p.Y*p.Y+p.Z*p.Z, r2*(1+1e-12), "p=%v", p)
						}
					}
				}
			}
		})
	}
}
