package graph

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// BallData is a solid sphere.
type BallData struct {
	Center r3.Vec  `json:"center"`
	Radius float64 `json:"radius"`
}

func (BallData) nodeData()      {}
func (BallData) Kind() NodeKind { return NodePrimitive }

// CuboidData is an axis-aligned box between two opposite corners.
type CuboidData struct {
	Min r3.Vec `json:"min"`
	Max r3.Vec `json:"max"`
}

func (CuboidData) nodeData()      {}
func (CuboidData) Kind() NodeKind { return NodePrimitive }

// EllipsoidData is an axis-aligned ellipsoid.
type EllipsoidData struct {
	Center r3.Vec     `json:"center"`
	Radii  [3]float64 `json:"radii"`
}

func (EllipsoidData) nodeData()      {}
func (EllipsoidData) Kind() NodeKind { return NodePrimitive }

// CylinderData is a z-aligned cylinder between heights Z0 and Z1.
// EdgeSize controls how finely the rim features are cut.
type CylinderData struct {
	Z0       float64 `json:"z0"`
	Z1       float64 `json:"z1"`
	Radius   float64 `json:"radius"`
	EdgeSize float64 `json:"edge_size"`
}

func (CylinderData) nodeData()      {}
func (CylinderData) Kind() NodeKind { return NodePrimitive }

// ConeData is a z-aligned cone with its base disk at z=0.
type ConeData struct {
	Radius   float64 `json:"radius"`
	Height   float64 `json:"height"`
	EdgeSize float64 `json:"edge_size"`
}

func (ConeData) nodeData()      {}
func (ConeData) Kind() NodeKind { return NodePrimitive }

// TorusData is a ring torus around the z axis.
type TorusData struct {
	MajorRadius float64 `json:"major_radius"`
	MinorRadius float64 `json:"minor_radius"`
}

func (TorusData) nodeData()      {}
func (TorusData) Kind() NodeKind { return NodePrimitive }

// TetrahedronData is the solid spanned by four points.
type TetrahedronData struct {
	Vertices [4]r3.Vec `json:"vertices"`
}

func (TetrahedronData) nodeData()      {}
func (TetrahedronData) Kind() NodeKind { return NodePrimitive }

// HalfSpaceData is {x : Normal·x < Offset}, reported with a caller-chosen
// bounding sphere.
type HalfSpaceData struct {
	Normal        r3.Vec  `json:"normal"`
	Offset        float64 `json:"offset"`
	SquaredRadius float64 `json:"squared_radius"`
}

func (HalfSpaceData) nodeData()      {}
func (HalfSpaceData) Kind() NodeKind { return NodePrimitive }

// ---------------------------------------------------------------------------
// Transforms
// ---------------------------------------------------------------------------

// TranslateData moves its child by Offset.
type TranslateData struct {
	Offset r3.Vec `json:"offset"`
}

func (TranslateData) nodeData()      {}
func (TranslateData) Kind() NodeKind { return NodeTransform }

// RotateData turns its child by Angle radians around Axis.
type RotateData struct {
	Axis  r3.Vec  `json:"axis"`
	Angle float64 `json:"angle"`
}

func (RotateData) nodeData()      {}
func (RotateData) Kind() NodeKind { return NodeTransform }

// ScaleData scales its child uniformly about the origin.
type ScaleData struct {
	Factor float64 `json:"factor"`
}

func (ScaleData) nodeData()      {}
func (ScaleData) Kind() NodeKind { return NodeTransform }

// StretchData scales its child along Direction by Direction's length.
type StretchData struct {
	Direction r3.Vec `json:"direction"`
}

func (StretchData) nodeData()      {}
func (StretchData) Kind() NodeKind { return NodeTransform }

// ---------------------------------------------------------------------------
// Booleans
// ---------------------------------------------------------------------------

// UnionData joins one or more children.
type UnionData struct{}

func (UnionData) nodeData()      {}
func (UnionData) Kind() NodeKind { return NodeBoolean }

// IntersectionData keeps what all children share.
type IntersectionData struct{}

func (IntersectionData) nodeData()      {}
func (IntersectionData) Kind() NodeKind { return NodeBoolean }

// DifferenceData removes the second child from the first.
type DifferenceData struct{}

func (DifferenceData) nodeData()      {}
func (DifferenceData) Kind() NodeKind { return NodeBoolean }

// ---------------------------------------------------------------------------
// Extrusions
// ---------------------------------------------------------------------------

// ExtrudeData sweeps Polygon from z=0 along Direction, twisting the top face
// by Twist radians.
type ExtrudeData struct {
	Polygon   []r2.Vec `json:"polygon"`
	Direction r3.Vec   `json:"direction"`
	Twist     float64  `json:"twist,omitempty"`
	EdgeSize  float64  `json:"edge_size,omitempty"`
}

func (ExtrudeData) nodeData()      {}
func (ExtrudeData) Kind() NodeKind { return NodeExtrusion }

// RingExtrudeData revolves a (radius, height) profile around the z axis.
type RingExtrudeData struct {
	Profile  []r2.Vec `json:"profile"`
	EdgeSize float64  `json:"edge_size"`
}

func (RingExtrudeData) nodeData()      {}
func (RingExtrudeData) Kind() NodeKind { return NodeExtrusion }

// arity returns the allowed child count range for a payload. hi < 0 means
// unbounded.
func arity(d NodeData) (lo, hi int) {
	switch d.(type) {
	case UnionData, IntersectionData:
		return 1, -1
	case DifferenceData:
		return 2, 2
	}
	if d.Kind() == NodeTransform {
		return 1, 1
	}
	return 0, 0
}
