package graph

import "strconv"

// NodeID indexes a node in its graph's arena.
type NodeID int

// NoNode marks findings and lookups that refer to no particular node.
const NoNode NodeID = -1

// IsValid reports whether id can index an arena.
func (id NodeID) IsValid() bool { return id >= 0 }

func (id NodeID) String() string {
	if !id.IsValid() {
		return "#-"
	}
	return "#" + strconv.Itoa(int(id))
}

// NodeKind enumerates the types of nodes in the scene graph.
type NodeKind int

const (
	NodePrimitive NodeKind = iota // closed-form shape (ball, cuboid, ...)
	NodeTransform                 // rigid motion or scaling of one child
	NodeBoolean                   // union, intersection or difference
	NodeExtrusion                 // polygon swept along a direction or revolved
)

func (k NodeKind) String() string {
	switch k {
	case NodePrimitive:
		return "primitive"
	case NodeTransform:
		return "transform"
	case NodeBoolean:
		return "boolean"
	case NodeExtrusion:
		return "extrusion"
	default:
		return "unknown"
	}
}

// SourceRef points back at the scene text that produced a node.
type SourceRef struct {
	Line int    `json:"line,omitempty"`
	Form string `json:"form,omitempty"` // builtin that created the node
}

// Node is the fundamental element of the scene graph.
type Node struct {
	ID       NodeID    `json:"id"`
	Kind     NodeKind  `json:"kind"`
	Name     string    `json:"name,omitempty"`
	Source   SourceRef `json:"source"`
	Children []NodeID  `json:"children,omitempty"`
	Data     NodeData  `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
	Kind() NodeKind
}
