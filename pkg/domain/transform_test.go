package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// samplePoints returns a small deterministic cloud around the origin.
func samplePoints() []r3.Vec {
	var pts []r3.Vec
	for _, x := range []float64{-1.7, -0.9, -0.2, 0.3, 0.8, 1.4} {
		for _, y := range []float64{-1.1, -0.4, 0.1, 0.6, 1.3} {
			for _, z := range []float64{-0.8, 0, 0.45, 1.2} {
				pts = append(pts, vec(x, y, z))
			}
		}
	}
	return pts
}

func testDomains(t *testing.T) map[string]Domain {
	t.Helper()
	return map[string]Domain{
		"ball":      Must(NewBall(vec(0.2, -0.1, 0.3), 0.9)),
		"cuboid":    Must(NewCuboid(vec(-0.5, -0.5, -0.5), vec(1, 0.7, 0.9))),
		"ellipsoid": Must(NewEllipsoid(vec(0, 0, 0), 1.2, 0.5, 0.8)),
		"torus":     Must(NewTorus(0.8, 0.3)),
	}
}

func TestTranslateRoundTrip(t *testing.T) {
	d := vec(0.3, -1.25, 2)
	for name, dom := range testDomains(t) {
		t.Run(name, func(t *testing.T) {
			tr := Must(NewTranslate(dom, d))
			for _, p := range samplePoints() {
				assert.InDelta(t, dom.Eval(p), tr.Eval(r3.Add(p, d)), 1e-9, "p=%v", p)
			}
		})
	}
}

func TestTranslateBoundAndFeatures(t *testing.T) {
	c := Must(NewCuboid(vec(0, 0, 0), vec(1, 1, 1)))
	d := vec(3, 0, 4)
	tr := Must(NewTranslate(c, d))

	want := math.Sqrt(3) + 5
	assert.InDelta(t, want*want, tr.BoundingSphereSquaredRadius(), 1e-9)

	require.Len(t, tr.Features(), len(c.Features()))
	for i, pl := range tr.Features() {
		for j, p := range pl {
			assert.Equal(t, r3.Add(c.Features()[i][j], d), p)
		}
	}
}

func TestRotatePreservesRadius(t *testing.T) {
	axes := []r3.Vec{vec(0, 0, 1), vec(1, 1, 0), vec(-0.3, 2, 0.7)}
	angles := []float64{0, 0.3, math.Pi / 2, -2.1, 5}
	for name, dom := range testDomains(t) {
		for _, axis := range axes {
			for _, angle := range angles {
				r := Must(NewRotate(dom, axis, angle))
				assert.Equal(t, dom.BoundingSphereSquaredRadius(), r.BoundingSphereSquaredRadius(), name)
			}
		}
	}
}

func TestRotateQuarterTurn(t *testing.T) {
	c := Must(NewCuboid(vec(0, 0, 0), vec(1, 1, 1)))
	r := Must(NewRotate(c, vec(0, 0, 2), math.Pi/2))

	// The unit cube turned a quarter around z occupies x in [-1, 0].
	assert.Less(t, r.Eval(vec(-0.5, 0.5, 0.5)), 0.0)
	assert.Greater(t, r.Eval(vec(0.5, 0.5, 0.5)), 0.0)

	// Features follow the forward rotation: (1,0,0) lands on (0,1,0).
	first := r.Features()[0] // (0,0,0) -> (1,0,0) before rotation
	assert.InDelta(t, 0.0, first[1].X, 1e-12)
	assert.InDelta(t, 1.0, first[1].Y, 1e-12)
	assert.InDelta(t, 0.0, first[1].Z, 1e-12)
}

func TestRotateFeaturesAgreeWithEval(t *testing.T) {
	// Every rotated feature point must sit on the rotated surface.
	c := Must(NewCuboid(vec(0.1, 0.2, 0.3), vec(1, 1.5, 2)))
	r := Must(NewRotate(c, vec(1, -2, 0.5), 1.1))
	for _, pl := range r.Features() {
		for _, p := range pl {
			assert.InDelta(t, 0.0, r.Eval(p), 1e-9, "p=%v", p)
		}
	}
}

func TestRotateRejectsZeroAxis(t *testing.T) {
	_, err := NewRotate(Must(NewBall(vec(0, 0, 0), 1)), vec(0, 0, 0), 1)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestScaleFeatureTransport(t *testing.T) {
	c := Must(NewCuboid(vec(0, 0, 0), vec(1, 2, 3)))
	const alpha = 1.3
	s := Must(NewScale(c, alpha))

	require.Len(t, s.Features(), len(c.Features()))
	for i, pl := range s.Features() {
		require.Len(t, pl, len(c.Features()[i]))
		for j, p := range pl {
			assert.Equal(t, r3.Scale(alpha, c.Features()[i][j]), p)
		}
	}
	assert.InDelta(t, alpha*alpha*14, s.BoundingSphereSquaredRadius(), 1e-9)
	assert.Less(t, s.Eval(vec(1.2, 2.5, 3.8)), 0.0)
	assert.Greater(t, s.Eval(vec(1.4, 2.5, 3.8)), 0.0)
}

func TestScaleRejectsNonPositive(t *testing.T) {
	b := Must(NewBall(vec(0, 0, 0), 1))
	for _, f := range []float64{0, -2, math.NaN()} {
		_, err := NewScale(b, f)
		assert.ErrorIs(t, err, ErrInvalidParameter, "factor %g", f)
	}
}

func TestStretch(t *testing.T) {
	b := Must(NewBall(vec(0, 0, 0), 1))
	s := Must(NewStretch(b, vec(2, 0, 0)))

	assert.Less(t, s.Eval(vec(1.9, 0, 0)), 0.0)
	assert.Greater(t, s.Eval(vec(0, 1.1, 0)), 0.0)
	assert.Equal(t, 4.0, s.BoundingSphereSquaredRadius())

	c := Must(NewCuboid(vec(0, 0, 0), vec(1, 1, 1)))
	sc := Must(NewStretch(c, vec(2, 0, 0)))
	last := sc.Features()[len(sc.Features())-1] // (0,1,1) -> (1,1,1)
	assert.Equal(t, vec(2, 1, 1), last[1])

	shrink := Must(NewStretch(b, vec(0, 0.5, 0)))
	assert.Equal(t, 1.0, shrink.BoundingSphereSquaredRadius())
	assert.Greater(t, shrink.Eval(vec(0, 0.6, 0)), 0.0)
}

func TestStretchRejectsZeroDirection(t *testing.T) {
	_, err := NewStretch(Must(NewBall(vec(0, 0, 0), 1)), vec(0, 0, 0))
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestTransformsShareChild(t *testing.T) {
	// One child referenced by two parents; neither parent alters it.
	c := Must(NewCuboid(vec(0, 0, 0), vec(1, 1, 1)))
	before := c.Features()[0][1]
	_ = Must(NewScale(c, 3))
	_ = Must(NewRotate(c, vec(0, 1, 0), 0.5))
	assert.Equal(t, before, c.Features()[0][1])
}
