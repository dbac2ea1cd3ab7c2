package graph

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/csgmesh/pkg/domain"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultEdgeSize is the feature edge length used when a scene does not give
// one, in scene units.
const DefaultEdgeSize = 0.1

var (
	// ErrForwardReference is returned by Add when a child has not been added
	// yet.
	ErrForwardReference = errors.New("graph: child must be added before its parent")
	// ErrNoData is returned by Add for a node without a payload.
	ErrNoData = errors.New("graph: node has no data")
)

// GlobalDefaults contains graph-wide default settings.
type GlobalDefaults struct {
	EdgeSize float64 `json:"edge_size"` // feature discretization for curved rims
}

// Graph is the top-level data structure produced by scene evaluation.
// Nodes are only ever appended; each evaluation produces a new graph.
type Graph struct {
	Nodes     []*Node           `json:"nodes"`
	Roots     []NodeID          `json:"roots"`
	NameIndex map[string]NodeID `json:"name_index"`
	Defaults  GlobalDefaults    `json:"defaults"`
	// Features are extra feature polylines handed to the mesher with every
	// root, on top of the roots' own features.
	Features []domain.Polyline `json:"features,omitempty"`
	Version  uint64            `json:"version"`
}

// New creates an empty Graph with default settings.
func New() *Graph {
	return &Graph{
		NameIndex: make(map[string]NodeID),
		Defaults: GlobalDefaults{
			EdgeSize: DefaultEdgeSize,
		},
	}
}

// AddFeature appends an extra feature polyline. It needs at least two
// finite points.
func (g *Graph) AddFeature(pl domain.Polyline) error {
	if len(pl) < 2 {
		return fmt.Errorf("graph: feature needs at least 2 points, got %d", len(pl))
	}
	for _, p := range pl {
		if !finite(p) {
			return fmt.Errorf("graph: feature point %v is not finite", p)
		}
	}
	g.Features = append(g.Features, append(domain.Polyline(nil), pl...))
	return nil
}

func finite(p r3.Vec) bool {
	for _, c := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// EdgeSize returns size, or the graph default when size is zero. A graph
// without a default uses DefaultEdgeSize.
func (g *Graph) EdgeSize(size float64) float64 {
	if size != 0 {
		return size
	}
	if g.Defaults.EdgeSize != 0 {
		return g.Defaults.EdgeSize
	}
	return DefaultEdgeSize
}

// withEdgeSize returns data with a zero edge size replaced by the graph
// default. Payloads without an edge size are returned unchanged.
func (g *Graph) withEdgeSize(data NodeData) NodeData {
	switch d := data.(type) {
	case CylinderData:
		d.EdgeSize = g.EdgeSize(d.EdgeSize)
		return d
	case ConeData:
		d.EdgeSize = g.EdgeSize(d.EdgeSize)
		return d
	case ExtrudeData:
		d.EdgeSize = g.EdgeSize(d.EdgeSize)
		return d
	case RingExtrudeData:
		d.EdgeSize = g.EdgeSize(d.EdgeSize)
		return d
	}
	return data
}

// Add appends n to the arena, sets its ID and returns it. Every child must
// already be in the graph, which keeps the graph acyclic. Kind is taken from
// the payload. A name already in use is re-pointed at n; Validate reports
// the duplicate.
func (g *Graph) Add(n *Node) (NodeID, error) {
	if n.Data == nil {
		return NoNode, ErrNoData
	}
	id := NodeID(len(g.Nodes))
	for _, c := range n.Children {
		if c < 0 || c >= id {
			return NoNode, fmt.Errorf("%w: node %s references %s", ErrForwardReference, id, c)
		}
	}
	n.ID = id
	n.Kind = n.Data.Kind()
	g.Nodes = append(g.Nodes, n)
	if n.Name != "" {
		g.NameIndex[n.Name] = id
	}
	return id, nil
}

// AddRoot registers a node ID as a root of the graph.
func (g *Graph) AddRoot(id NodeID) {
	g.Roots = append(g.Roots, id)
}

// Lookup returns the node with the given user-assigned name, or nil.
func (g *Graph) Lookup(name string) *Node {
	id, ok := g.NameIndex[name]
	if !ok {
		return nil
	}
	return g.Get(id)
}

// MustLookup returns the node with the given name, or panics.
func (g *Graph) MustLookup(name string) *Node {
	n := g.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("graph: no node named %q", name))
	}
	return n
}

// Get returns the node with the given ID, or nil.
func (g *Graph) Get(id NodeID) *Node {
	if id < 0 || int(id) >= len(g.Nodes) {
		return nil
	}
	return g.Nodes[id]
}

// Primitives returns all primitive nodes in the graph.
func (g *Graph) Primitives() []*Node {
	var prims []*Node
	for _, n := range g.Nodes {
		if n.Kind == NodePrimitive {
			prims = append(prims, n)
		}
	}
	return prims
}

// Children returns the child nodes of the given node.
func (g *Graph) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := g.Get(cid); c != nil {
			children = append(children, c)
		}
	}
	return children
}

// Parents returns every node that lists id as a child. A shared subtree has
// more than one parent.
func (g *Graph) Parents(id NodeID) []*Node {
	var parents []*Node
	for _, n := range g.Nodes[min(int(id)+1, len(g.Nodes)):] {
		for _, c := range n.Children {
			if c == id {
				parents = append(parents, n)
				break
			}
		}
	}
	return parents
}

// NodeCount returns the total number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// RootName returns a display name for a root: the node's name, or its kind
// and ID.
func (g *Graph) RootName(id NodeID) string {
	n := g.Get(id)
	switch {
	case n == nil:
		return id.String()
	case n.Name != "":
		return n.Name
	default:
		return fmt.Sprintf("%s%s", n.Kind, id)
	}
}
