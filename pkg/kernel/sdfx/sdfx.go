// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library. A domain is exposed to
// sdfx as an sdf.SDF3 and meshed with uniform marching cubes.
package sdfx

import (
	"fmt"
	"math"
	"sync"

	"github.com/chazu/csgmesh/pkg/domain"
	"github.com/chazu/csgmesh/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface checks.
var (
	_ kernel.Kernel = (*SdfxKernel)(nil)
	_ sdf.SDF3      = (*domainSDF)(nil)
)

// DefaultMeshCells controls marching cubes tessellation resolution.
const DefaultMeshCells = 200

// boxPadding widens the bounding cube so surfaces touching the bounding
// sphere are still closed by marching cubes.
const boxPadding = 1.02

// domainSDF adapts a domain.Domain to sdf.SDF3.
type domainSDF struct {
	d      domain.Domain
	radius float64
}

// Evaluate returns the domain value at p.
func (s *domainSDF) Evaluate(p v3.Vec) float64 {
	return s.d.Eval(r3.Vec{X: p.X, Y: p.Y, Z: p.Z})
}

// BoundingBox returns the cube around the bounding sphere.
func (s *domainSDF) BoundingBox() sdf.Box3 {
	r := s.radius * boxPadding
	return sdf.Box3{
		Min: v3.Vec{X: -r, Y: -r, Z: -r},
		Max: v3.Vec{X: r, Y: r, Z: r},
	}
}

// sdfxSolid wraps an input and its sdf.SDF3 view to implement kernel.Solid.
type sdfxSolid struct {
	in kernel.Input
	s  sdf.SDF3

	once      sync.Once
	triangles []*sdf.Triangle3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// New returns a new SdfxKernel meshing with the given number of cells along
// the longest bounding box side. Non-positive values use DefaultMeshCells.
func New(cells int) *SdfxKernel {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return &SdfxKernel{cells: cells}
}

// Cells returns the marching cubes resolution.
func (k *SdfxKernel) Cells() int {
	return k.cells
}

// unwrap extracts the sdfx solid from a kernel.Solid.
func unwrap(s kernel.Solid) (*sdfxSolid, error) {
	ss, ok := s.(*sdfxSolid)
	if !ok {
		return nil, fmt.Errorf("sdfx: foreign solid %T", s)
	}
	return ss, nil
}

// Solid exposes in as an sdf.SDF3 bounded by its bounding sphere.
func (k *SdfxKernel) Solid(in kernel.Input) (kernel.Solid, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("sdfx: %s: %w", in.Name, err)
	}
	return &sdfxSolid{
		in: in,
		s:  &domainSDF{d: in.Domain, radius: in.Radius()},
	}, nil
}

// cellsFor returns the resolution for in: the kernel's cells, reduced
// when the input's error bound asks for no more than 1/ErrorBound cells.
func (k *SdfxKernel) cellsFor(in kernel.Input) int {
	if in.ErrorBound <= 0 {
		return k.cells
	}
	return min(k.cells, max(4, int(math.Ceil(1/in.ErrorBound))))
}

// triangulate runs marching cubes once per solid.
func (k *SdfxKernel) triangulate(s *sdfxSolid) []*sdf.Triangle3 {
	s.once.Do(func() {
		renderer := render.NewMarchingCubesUniform(k.cellsFor(s.in))
		s.triangles = render.ToTriangles(s.s, renderer)
	})
	return s.triangles
}

// ToMesh converts a solid to a triangle mesh using marching cubes. The
// input's feature polylines are carried on the mesh.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	ss, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	triangles := k.triangulate(ss)

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	m := &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
		Name:     ss.in.Name,
	}
	m.SetFeatures(ss.in.Features)
	return m, nil
}

// SaveSTL writes the marching cubes triangles of s to an STL file.
func (k *SdfxKernel) SaveSTL(path string, s kernel.Solid) error {
	ss, err := unwrap(s)
	if err != nil {
		return err
	}
	if err := render.SaveSTL(path, k.triangulate(ss)); err != nil {
		return fmt.Errorf("sdfx: save %s: %w", path, err)
	}
	return nil
}
