package graph

import (
	"fmt"

	"github.com/chazu/csgmesh/pkg/domain"
	"github.com/chazu/csgmesh/pkg/labeling"
)

// Builder bakes graph nodes into domains bottom-up. Results are memoized by
// NodeID, so a subtree shared by several parents is built once and the
// parents hold the same domain value. A Builder is not safe for concurrent
// use; the domains it returns are.
type Builder struct {
	g       *Graph
	domains map[NodeID]domain.Domain
	regions map[NodeID]*labeling.Region
}

// NewBuilder returns a Builder over g.
func NewBuilder(g *Graph) *Builder {
	return &Builder{
		g:       g,
		domains: make(map[NodeID]domain.Domain),
		regions: make(map[NodeID]*labeling.Region),
	}
}

// Build returns the scalar domain of node id in g.
func Build(g *Graph, id NodeID) (domain.Domain, error) {
	return NewBuilder(g).Domain(id)
}

// BuildRegion returns the sign-vector region of node id in g.
func BuildRegion(g *Graph, id NodeID) (*labeling.Region, error) {
	return NewBuilder(g).Region(id)
}

func (b *Builder) node(id NodeID) (*Node, error) {
	n := b.g.Get(id)
	if n == nil {
		return nil, fmt.Errorf("graph: build: node %s does not exist", id)
	}
	if n.Data == nil {
		return nil, fmt.Errorf("graph: build: node %s: %w", id, ErrNoData)
	}
	lo, hi := arity(n.Data)
	if c := len(n.Children); c < lo || (hi >= 0 && c > hi) {
		return nil, fmt.Errorf("graph: build: node %s: %T has %d children", id, n.Data, c)
	}
	for _, c := range n.Children {
		if c >= id {
			return nil, fmt.Errorf("graph: build: node %s: %w", id, ErrForwardReference)
		}
	}
	return n, nil
}

// Domain returns the scalar domain of node id.
func (b *Builder) Domain(id NodeID) (domain.Domain, error) {
	if d, ok := b.domains[id]; ok {
		return d, nil
	}
	n, err := b.node(id)
	if err != nil {
		return nil, err
	}

	children := make([]domain.Domain, len(n.Children))
	for i, c := range n.Children {
		if children[i], err = b.Domain(c); err != nil {
			return nil, err
		}
	}

	var d domain.Domain
	switch n.Data.Kind() {
	case NodeBoolean:
		d, err = combineDomains(n.Data, children)
	case NodeTransform:
		d, err = transformDomain(n.Data, children[0])
	default:
		d, err = leafDomain(b.g.withEdgeSize(n.Data))
	}
	if err != nil {
		return nil, fmt.Errorf("graph: build: node %s: %w", describe(n), err)
	}
	b.domains[id] = d
	return d, nil
}

// Region returns the sign-vector region of node id. Primitives and
// extrusions become leaves; transforms and booleans map onto the region
// algebra, with n-ary booleans folded left.
func (b *Builder) Region(id NodeID) (*labeling.Region, error) {
	if r, ok := b.regions[id]; ok {
		return r, nil
	}
	n, err := b.node(id)
	if err != nil {
		return nil, err
	}

	children := make([]*labeling.Region, len(n.Children))
	for i, c := range n.Children {
		if children[i], err = b.Region(c); err != nil {
			return nil, err
		}
	}

	var r *labeling.Region
	switch n.Data.Kind() {
	case NodeBoolean:
		r, err = combineRegions(n.Data, children)
	case NodeTransform:
		r, err = transformRegion(n.Data, children[0])
	default:
		var leaf domain.Domain
		if leaf, err = b.Domain(id); err == nil {
			r, err = labeling.Leaf(leaf)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("graph: build region: node %s: %w", describe(n), err)
	}
	b.regions[id] = r
	return r, nil
}

func describe(n *Node) string {
	if n.Name != "" {
		return fmt.Sprintf("%s (%s)", n.ID, n.Name)
	}
	return n.ID.String()
}

// leafDomain builds a primitive or extrusion. Edge sizes are taken as given;
// callers fill zero ones from the graph first.
func leafDomain(data NodeData) (domain.Domain, error) {
	switch d := data.(type) {
	case BallData:
		return domain.NewBall(d.Center, d.Radius)
	case CuboidData:
		return domain.NewCuboid(d.Min, d.Max)
	case EllipsoidData:
		return domain.NewEllipsoid(d.Center, d.Radii[0], d.Radii[1], d.Radii[2])
	case CylinderData:
		return domain.NewCylinder(d.Z0, d.Z1, d.Radius, d.EdgeSize)
	case ConeData:
		return domain.NewCone(d.Radius, d.Height, d.EdgeSize)
	case TorusData:
		return domain.NewTorus(d.MajorRadius, d.MinorRadius)
	case TetrahedronData:
		v := d.Vertices
		return domain.NewTetrahedron(v[0], v[1], v[2], v[3])
	case HalfSpaceData:
		return domain.NewHalfSpace(d.Normal, d.Offset, d.SquaredRadius)
	case ExtrudeData:
		poly, err := domain.NewPolygon2D(d.Polygon)
		if err != nil {
			return nil, err
		}
		return domain.NewExtrude(poly, d.Direction, d.Twist, d.EdgeSize)
	case RingExtrudeData:
		poly, err := domain.NewPolygon2D(d.Profile)
		if err != nil {
			return nil, err
		}
		return domain.NewRingExtrude(poly, d.EdgeSize)
	default:
		return nil, fmt.Errorf("unsupported payload %T", data)
	}
}

func transformDomain(data NodeData, child domain.Domain) (domain.Domain, error) {
	switch d := data.(type) {
	case TranslateData:
		return domain.NewTranslate(child, d.Offset)
	case RotateData:
		return domain.NewRotate(child, d.Axis, d.Angle)
	case ScaleData:
		return domain.NewScale(child, d.Factor)
	case StretchData:
		return domain.NewStretch(child, d.Direction)
	default:
		return nil, fmt.Errorf("unsupported transform %T", data)
	}
}

func combineDomains(data NodeData, children []domain.Domain) (domain.Domain, error) {
	switch data.(type) {
	case UnionData:
		return domain.NewUnion(children...)
	case IntersectionData:
		return domain.NewIntersection(children...)
	case DifferenceData:
		return domain.NewDifference(children[0], children[1])
	default:
		return nil, fmt.Errorf("unsupported boolean %T", data)
	}
}

func transformRegion(data NodeData, child *labeling.Region) (*labeling.Region, error) {
	switch d := data.(type) {
	case TranslateData:
		return child.Translate(d.Offset)
	case RotateData:
		return child.Rotate(d.Axis, d.Angle)
	case ScaleData:
		return child.Scale(d.Factor)
	case StretchData:
		return child.Stretch(d.Direction)
	default:
		return nil, fmt.Errorf("unsupported transform %T", data)
	}
}

func combineRegions(data NodeData, children []*labeling.Region) (*labeling.Region, error) {
	var op func(a, b *labeling.Region) (*labeling.Region, error)
	switch data.(type) {
	case UnionData:
		op = labeling.Union
	case IntersectionData:
		op = labeling.Intersect
	case DifferenceData:
		op = labeling.Subtract
	default:
		return nil, fmt.Errorf("unsupported boolean %T", data)
	}
	r := children[0]
	for _, c := range children[1:] {
		var err error
		if r, err = op(r, c); err != nil {
			return nil, err
		}
	}
	return r, nil
}
