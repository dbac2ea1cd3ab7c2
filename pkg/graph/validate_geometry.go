package graph

import (
	"fmt"
	"math"

	"github.com/chazu/csgmesh/pkg/domain"
	"gonum.org/v1/gonum/spatial/r3"
)

// ---------------------------------------------------------------------------
// Tier 2: Geometric validation (errors + warnings)
// ---------------------------------------------------------------------------

// validateGeometry runs all Tier 2 geometric checks.
// Returns errors (blocking) and warnings (advisory) separately.
func validateGeometry(g *Graph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	errs = append(errs, validateParameters(g)...)

	warnings = append(warnings, validateRimResolution(g)...)
	warnings = append(warnings, validateSubtrahendFeatures(g)...)

	return errs, warnings
}

// unitBall is the child handed to transform constructors when only their own
// parameters are being checked.
var unitBall = domain.Must(domain.NewBall(r3.Vec{}, 1))

// validateParameters runs every node's own parameters through the domain
// constructors, so the graph rejects exactly what building would reject.
// Each bad node is reported once, not again at each ancestor.
func validateParameters(g *Graph) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Nodes {
		var err error
		switch node.Data.Kind() {
		case NodePrimitive, NodeExtrusion:
			_, err = leafDomain(g.withEdgeSize(node.Data))
		case NodeTransform:
			_, err = transformDomain(node.Data, unitBall)
		}
		if err != nil {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  err.Error(),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// coarseRim reports whether a circle of the given radius is cut into fewer
// pieces than edgeSize asks for.
func coarseRim(radius, edgeSize float64) bool {
	return radius > 0 && edgeSize > 0 &&
		2*math.Pi*radius < float64(domain.MinCircleSegments)*edgeSize
}

// validateRimResolution warns when an edge size is so large relative to a
// rim that the rim feature falls back to the minimum segment count.
func validateRimResolution(g *Graph) []ValidationWarning {
	var warnings []ValidationWarning

	warn := func(n *Node, radius, edgeSize float64) {
		warnings = append(warnings, ValidationWarning{
			NodeID: n.ID,
			Message: fmt.Sprintf(
				"edge size %g is coarse for a rim of radius %g; the rim is cut into %d segments",
				edgeSize, radius, domain.MinCircleSegments,
			),
		})
	}

	for _, node := range g.Nodes {
		switch d := g.withEdgeSize(node.Data).(type) {
		case CylinderData:
			if coarseRim(d.Radius, d.EdgeSize) {
				warn(node, d.Radius, d.EdgeSize)
			}
		case ConeData:
			if coarseRim(d.Radius, d.EdgeSize) {
				warn(node, d.Radius, d.EdgeSize)
			}
		case RingExtrudeData:
			for _, p := range d.Profile {
				if coarseRim(p.X, d.EdgeSize) {
					warn(node, p.X, d.EdgeSize)
					break
				}
			}
		}
	}

	return warnings
}

// validateSubtrahendFeatures warns when a difference carries subtrahend
// features that lie outside the minuend's bounding sphere. The difference
// keeps the minuend's bound, so a mesher never reaches those features.
func validateSubtrahendFeatures(g *Graph) []ValidationWarning {
	var warnings []ValidationWarning
	b := NewBuilder(g)

	for _, node := range g.Nodes {
		if _, ok := node.Data.(DifferenceData); !ok || len(node.Children) != 2 {
			continue
		}
		a, errA := b.Domain(node.Children[0])
		sub, errB := b.Domain(node.Children[1])
		if errA != nil || errB != nil {
			continue // reported by validateParameters
		}
		r2 := a.BoundingSphereSquaredRadius()
		outside := 0
		for _, pl := range sub.Features() {
			for _, p := range pl {
				if r3.Norm2(p) > r2 {
					outside++
				}
			}
		}
		if outside > 0 {
			warnings = append(warnings, ValidationWarning{
				NodeID: node.ID,
				Message: fmt.Sprintf(
					"%d subtrahend feature points lie outside the minuend's bounding sphere (r²=%g)",
					outside, r2,
				),
			})
		}
	}

	return warnings
}
