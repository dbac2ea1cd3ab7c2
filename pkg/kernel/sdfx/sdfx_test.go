package sdfx

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/csgmesh/pkg/domain"
	"github.com/chazu/csgmesh/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

const testCells = 40

func input(t *testing.T, name string, d domain.Domain) kernel.Input {
	t.Helper()
	return kernel.Input{
		Name:          name,
		Domain:        d,
		SquaredRadius: d.BoundingSphereSquaredRadius() * 1.01,
		Features:      d.Features(),
	}
}

func mesh(t *testing.T, k *SdfxKernel, in kernel.Input) *kernel.Mesh {
	t.Helper()
	s, err := k.Solid(in)
	if err != nil {
		t.Fatalf("Solid(%s) failed: %v", in.Name, err)
	}
	m, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh(%s) failed: %v", in.Name, err)
	}
	return m
}

func TestBall(t *testing.T) {
	k := New(testCells)
	m := mesh(t, k, input(t, "ball", domain.Must(domain.NewBall(r3.Vec{}, 1))))
	if m.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if m.TriangleCount() == 0 {
		t.Fatal("expected non-zero triangle count")
	}
	// Verify vertex and index array sizes are consistent.
	if len(m.Vertices) != len(m.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(m.Vertices), len(m.Normals))
	}
	if len(m.Indices) != m.TriangleCount()*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(m.Indices), m.TriangleCount()*3)
	}
	// Vertices lie near the unit sphere.
	for i := 0; i < len(m.Vertices); i += 3 {
		x, y, z := float64(m.Vertices[i]), float64(m.Vertices[i+1]), float64(m.Vertices[i+2])
		if r := math.Sqrt(x*x + y*y + z*z); math.Abs(r-1) > 0.1 {
			t.Fatalf("vertex %d at radius %f, want ~1", i/3, r)
		}
	}
	if m.Name != "ball" {
		t.Errorf("mesh name = %q, want ball", m.Name)
	}
	t.Logf("ball triangle count: %d", m.TriangleCount())
}

func TestCubeCarriesFeatures(t *testing.T) {
	k := New(testCells)
	cube := domain.Must(domain.NewCuboid(r3.Vec{X: -1, Y: -1, Z: -1}, r3.Vec{X: 1, Y: 1, Z: 1}))
	m := mesh(t, k, input(t, "cube", cube))
	if m.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if got := m.FeatureSegments(); got != 12 {
		t.Errorf("feature segments = %d, want 12 cube edges", got)
	}
}

func TestDifference(t *testing.T) {
	k := New(testCells)

	cube := domain.Must(domain.NewCuboid(r3.Vec{X: -1, Y: -1, Z: -1}, r3.Vec{X: 1, Y: 1, Z: 1}))
	cubeMesh := mesh(t, k, input(t, "cube", cube))

	drill := domain.Must(domain.NewCylinder(-2, 2, 0.4, 0.1))
	diff := domain.Must(domain.NewDifference(cube, drill))
	diffMesh := mesh(t, k, input(t, "drilled", diff))
	if diffMesh.IsEmpty() {
		t.Fatal("difference mesh is empty")
	}
	// A box with a hole should have more triangles than a plain box.
	if diffMesh.TriangleCount() <= cubeMesh.TriangleCount() {
		t.Fatalf("difference (%d triangles) should have more triangles than cube (%d triangles)",
			diffMesh.TriangleCount(), cubeMesh.TriangleCount())
	}
	t.Logf("cube triangles: %d, difference triangles: %d", cubeMesh.TriangleCount(), diffMesh.TriangleCount())
}

func TestBoundingBox(t *testing.T) {
	k := New(testCells)
	s, err := k.Solid(kernel.Input{Domain: domain.Must(domain.NewBall(r3.Vec{}, 2)), SquaredRadius: 4})
	if err != nil {
		t.Fatal(err)
	}
	min, max := s.BoundingBox()

	const tol = 0.01
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]+2*boxPadding) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, min[i], -2*boxPadding)
		}
		if math.Abs(max[i]-2*boxPadding) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], 2*boxPadding)
		}
	}
}

func TestTranslatedBallStaysInBound(t *testing.T) {
	k := New(testCells)
	ball := domain.Must(domain.NewBall(r3.Vec{}, 0.5))
	moved := domain.Must(domain.NewTranslate(ball, r3.Vec{X: 1, Y: 1}))
	in := input(t, "moved", moved)
	m := mesh(t, k, in)
	if m.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	r := in.Radius() * boxPadding
	for i, v := range m.Vertices {
		if math.Abs(float64(v)) > r {
			t.Fatalf("vertex coordinate %d = %f outside the bounding cube %f", i, v, r)
		}
	}
}

func TestSolidErrors(t *testing.T) {
	k := New(0)
	if k.Cells() != DefaultMeshCells {
		t.Errorf("Cells() = %d, want default %d", k.Cells(), DefaultMeshCells)
	}
	if _, err := k.Solid(kernel.Input{Name: "nothing", SquaredRadius: 1}); !errors.Is(err, kernel.ErrNoDomain) {
		t.Errorf("Solid without domain = %v, want ErrNoDomain", err)
	}
	ball := domain.Must(domain.NewBall(r3.Vec{}, 1))
	if _, err := k.Solid(kernel.Input{Domain: ball}); !errors.Is(err, kernel.ErrBadBound) {
		t.Errorf("Solid with zero bound = %v, want ErrBadBound", err)
	}
	if _, err := k.ToMesh(foreign{}); err == nil {
		t.Error("ToMesh should reject foreign solids")
	}
}

type foreign struct{}

func (foreign) BoundingBox() (min, max [3]float64) { return }

func TestSaveSTL(t *testing.T) {
	k := New(20)
	s, err := k.Solid(input(t, "ball", domain.Must(domain.NewBall(r3.Vec{}, 1))))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "ball.stl")
	if err := k.SaveSTL(path, s); err != nil {
		t.Fatalf("SaveSTL failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	// 80-byte header plus a 4-byte triangle count, then 50 bytes per triangle.
	if info.Size() <= 84 {
		t.Errorf("STL file is %d bytes, expected triangles", info.Size())
	}
}

func TestCellsForErrorBound(t *testing.T) {
	k := New(200)
	ball := domain.Must(domain.NewBall(r3.Vec{}, 1))
	tests := []struct {
		bound float64
		want  int
	}{
		{0, 200},
		{1e-3, 200},
		{0.0625, 16},
		{0.5, 4},
	}
	for _, tt := range tests {
		in := kernel.Input{Domain: ball, SquaredRadius: 1, ErrorBound: tt.bound}
		if got := k.cellsFor(in); got != tt.want {
			t.Errorf("cellsFor(error bound %g) = %d, want %d", tt.bound, got, tt.want)
		}
	}

	coarse := mesh(t, k, kernel.Input{Domain: ball, SquaredRadius: 1.01, ErrorBound: 0.1})
	fine := mesh(t, New(testCells), input(t, "ball", ball))
	if coarse.TriangleCount() >= fine.TriangleCount() {
		t.Errorf("coarse error bound gave %d triangles, fine gave %d", coarse.TriangleCount(), fine.TriangleCount())
	}
}
