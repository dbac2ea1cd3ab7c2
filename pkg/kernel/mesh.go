package kernel

import "github.com/chazu/csgmesh/pkg/domain"

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
// Features holds one flat [x,y,z,...] slice per feature polyline.
type Mesh struct {
	Vertices []float32   `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32   `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32    `json:"indices"`  // [i0,i1,i2, ...] triangles
	Features [][]float32 `json:"features"` // feature polylines to preserve
	Name     string      `json:"name"`     // which scene root this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// FeatureSegments returns the number of feature line segments.
func (m *Mesh) FeatureSegments() int {
	n := 0
	for _, f := range m.Features {
		if pts := len(f) / 3; pts > 1 {
			n += pts - 1
		}
	}
	return n
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// SetFeatures flattens feature polylines into m.Features.
func (m *Mesh) SetFeatures(features []domain.Polyline) {
	m.Features = make([][]float32, 0, len(features))
	for _, pl := range features {
		flat := make([]float32, 0, 3*len(pl))
		for _, p := range pl {
			flat = append(flat, float32(p.X), float32(p.Y), float32(p.Z))
		}
		m.Features = append(m.Features, flat)
	}
}
