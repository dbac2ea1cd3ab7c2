// Package tessellate turns the roots of a scene graph into mesher inputs
// and meshes them with a kernel. One mesh is produced per root.
package tessellate

import (
	"errors"
	"fmt"
	"slices"

	"github.com/chazu/csgmesh/pkg/domain"
	"github.com/chazu/csgmesh/pkg/graph"
	"github.com/chazu/csgmesh/pkg/kernel"
	"github.com/golang/glog"
)

// Wiggle scales the domain's squared bound so surfaces touching the
// bounding sphere are not clipped by the mesher.
const Wiggle = 1.01

// Strategy selects how the root domain is composed.
type Strategy string

const (
	// StrategyScalar composes scalar domains with min/max combinators.
	StrategyScalar Strategy = "scalar"
	// StrategyLabeling composes exact sign-vector regions.
	StrategyLabeling Strategy = "labeling"
)

// ErrUnknownStrategy is returned for a Strategy other than scalar or labeling.
var ErrUnknownStrategy = errors.New("tessellate: unknown strategy")

// ParseStrategy converts a name to a Strategy. The empty string is scalar.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyScalar:
		return StrategyScalar, nil
	case StrategyLabeling:
		return StrategyLabeling, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownStrategy, s)
}

// Options controls how domains are handed to the mesher.
type Options struct {
	// BoundingRadius overrides the derived bounding sphere when positive.
	BoundingRadius float64
	// ErrorBound is the boundary precision relative to the bounding radius.
	ErrorBound float64
	// ExtraFeatures are appended to every root's feature polylines.
	ExtraFeatures []domain.Polyline
	Strategy      Strategy
}

// Prepare builds the mesher input for d. The squared radius is the
// override when one is set and otherwise Wiggle times the domain bound.
func Prepare(d domain.Domain, opts Options) kernel.Input {
	in := kernel.Input{
		Domain:     d,
		ErrorBound: opts.ErrorBound,
	}
	if opts.BoundingRadius > 0 {
		in.SquaredRadius = opts.BoundingRadius * opts.BoundingRadius
	} else {
		in.SquaredRadius = Wiggle * d.BoundingSphereSquaredRadius()
	}
	features := d.Features()
	if len(opts.ExtraFeatures) > 0 {
		features = append(features[:len(features):len(features)], opts.ExtraFeatures...)
	}
	in.Features = features
	return in
}

// Inputs builds one mesher input per root of g, sharing built subtrees
// between roots. The graph's extra features follow opts.ExtraFeatures on
// every root. The graph is read-only and never mutated.
func Inputs(g *graph.Graph, opts Options) ([]kernel.Input, error) {
	if g == nil {
		return nil, nil
	}
	strategy, err := ParseStrategy(string(opts.Strategy))
	if err != nil {
		return nil, err
	}
	if len(g.Features) > 0 {
		opts.ExtraFeatures = slices.Concat(opts.ExtraFeatures, g.Features)
	}

	b := graph.NewBuilder(g)
	inputs := make([]kernel.Input, 0, len(g.Roots))
	for _, rootID := range g.Roots {
		var d domain.Domain
		if strategy == StrategyLabeling {
			d, err = b.Region(rootID)
		} else {
			d, err = b.Domain(rootID)
		}
		if err != nil {
			return nil, fmt.Errorf("tessellate: root %s: %w", rootID, err)
		}
		in := Prepare(d, opts)
		in.Name = g.RootName(rootID)
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// Tessellate meshes every root of g with k.
func Tessellate(g *graph.Graph, k kernel.Kernel, opts Options) ([]*kernel.Mesh, error) {
	inputs, err := Inputs(g, opts)
	if err != nil {
		return nil, err
	}

	meshes := make([]*kernel.Mesh, 0, len(inputs))
	for _, in := range inputs {
		glog.V(1).Infof("tessellate: %s: r²=%g, %d features", in.Name, in.SquaredRadius, len(in.Features))
		solid, err := k.Solid(in)
		if err != nil {
			return nil, fmt.Errorf("tessellate: %s: %w", in.Name, err)
		}
		mesh, err := k.ToMesh(solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for %s: %w", in.Name, err)
		}
		mesh.Name = in.Name
		glog.V(1).Infof("tessellate: %s: %d triangles", in.Name, mesh.TriangleCount())
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}
