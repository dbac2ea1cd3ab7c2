// Package kernel defines the boundary between a composed scene and the
// mesher that turns it into triangles. The core hands a mesher an Input:
// the root domain, the squared radius of a sphere enclosing it and the
// feature polylines to preserve. Implementations (sdfx) provide meshing
// behind this interface so the backend can be swapped without changing
// the rest of the system.
package kernel

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/csgmesh/pkg/domain"
)

var (
	// ErrNoDomain is returned for an Input without a domain.
	ErrNoDomain = errors.New("kernel: input has no domain")
	// ErrBadBound is returned when the bounding sphere is empty or not finite.
	ErrBadBound = errors.New("kernel: bounding sphere must be positive and finite")
	// ErrBadErrorBound is returned for a relative error bound outside [0, 1).
	ErrBadErrorBound = errors.New("kernel: relative error bound must be in [0, 1)")
)

// Input is everything a mesher needs to mesh one root domain.
type Input struct {
	Name          string
	Domain        domain.Domain
	SquaredRadius float64
	Features      []domain.Polyline
	// ErrorBound is the boundary precision relative to the bounding
	// radius. Zero leaves the choice to the mesher.
	ErrorBound float64
}

// Radius returns the bounding sphere radius.
func (in Input) Radius() float64 {
	return math.Sqrt(in.SquaredRadius)
}

// Validate checks that the input can be meshed.
func (in Input) Validate() error {
	if in.Domain == nil {
		return ErrNoDomain
	}
	if !(in.SquaredRadius > 0) || math.IsInf(in.SquaredRadius, 0) {
		return fmt.Errorf("%w: got r²=%g", ErrBadBound, in.SquaredRadius)
	}
	if in.ErrorBound < 0 || in.ErrorBound >= 1 {
		return fmt.Errorf("%w: got %g", ErrBadErrorBound, in.ErrorBound)
	}
	return nil
}

// Solid is an opaque handle to a kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the mesher interface.
type Kernel interface {
	// Solid prepares an Input for meshing.
	Solid(in Input) (Solid, error)
	// ToMesh converts a solid to triangles.
	ToMesh(s Solid) (*Mesh, error)
}
