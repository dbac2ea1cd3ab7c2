package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/chazu/csgmesh/pkg/config"
	"github.com/chazu/csgmesh/pkg/engine"
	"github.com/chazu/csgmesh/pkg/kernel"
	"github.com/chazu/csgmesh/pkg/kernel/sdfx"
	"github.com/chazu/csgmesh/pkg/tessellate"
	"github.com/golang/glog"
)

// colorPalette is a default palette used to assign distinct colors to roots.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App runs the scene pipeline: source, graph, validation, domains, meshes.
type App struct {
	engine *engine.Engine
	kernel *sdfx.SdfxKernel
	opts   config.Options
}

// MeshData is the JSON-serializable summary of one meshed root.
type MeshData struct {
	Name            string      `json:"name"`
	SquaredRadius   float64     `json:"squaredRadius"`
	Features        int         `json:"features"`
	FeatureSegments int         `json:"featureSegments"`
	Triangles       int         `json:"triangles"`
	Color           string      `json:"color"`
	Vertices        []float32   `json:"vertices,omitempty"`
	Normals         []float32   `json:"normals,omitempty"`
	Indices         []uint32    `json:"indices,omitempty"`
	Sample          *SampleData `json:"sample,omitempty"`
}

// SampleData reports the sampled bound check for a root.
type SampleData struct {
	Samples    int     `json:"samples"`
	Inside     int     `json:"inside"`
	Volume     float64 `json:"volume"`
	Violations int     `json:"violations"`
}

// EvalErrorData is a JSON-serializable eval error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of evaluating a scene.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates a new App from validated options.
func NewApp(opts config.Options) *App {
	timeout, err := opts.EvalTimeout()
	if err != nil {
		glog.Warningf("app: %v; using %s", err, engine.DefaultEvalTimeout)
	}
	return &App{
		engine: engine.NewEngine(
			engine.WithTimeout(timeout),
			engine.WithEdgeSize(opts.Mesh.FeatureEdgeSize),
		),
		kernel: sdfx.New(opts.Mesh.Cells),
		opts:   opts,
	}
}

// fail appends a formatted error and returns a copy of the result.
func (r *EvalResult) fail(format string, args ...any) EvalResult {
	r.Errors = append(r.Errors, EvalErrorData{Message: fmt.Sprintf(format, args...)})
	return *r
}

// prepare evaluates and validates source and builds one mesher input per
// root. On failure the result carries the errors and inputs is nil.
func (a *App) prepare(source string) ([]kernel.Input, EvalResult) {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the Lisp source into a graph and validate it.
	checked, err := a.engine.Check(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		glog.Errorf("app: evaluate: %v", err)
		return nil, result.fail("%v", err)
	}
	for _, w := range checked.Warnings {
		glog.Warningf("app: %s", w)
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.String()})
	}
	if !checked.OK() {
		for _, e := range checked.Errors {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return nil, result
	}

	// Step 2: Compose each root and derive its mesher input.
	topts, err := a.opts.Tessellate()
	if err != nil {
		return nil, result.fail("%v", err)
	}
	inputs, err := tessellate.Inputs(checked.Graph, topts)
	if err != nil {
		glog.Errorf("app: %v", err)
		return nil, result.fail("composition failed: %v", err)
	}
	return inputs, result
}

// Evaluate takes Lisp source and returns per-root mesh data and errors.
func (a *App) Evaluate(source string) EvalResult {
	inputs, result := a.prepare(source)
	if inputs == nil {
		return result
	}

	for i, in := range inputs {
		// Step 3: Mesh the root.
		solid, err := a.kernel.Solid(in)
		if err != nil {
			return result.fail("tessellation failed: %v", err)
		}
		m, err := a.kernel.ToMesh(solid)
		if err != nil {
			glog.Errorf("app: %s: %v", in.Name, err)
			return result.fail("tessellation failed: %v", err)
		}

		md := MeshData{
			Name:            in.Name,
			SquaredRadius:   in.SquaredRadius,
			Features:        len(m.Features),
			FeatureSegments: m.FeatureSegments(),
			Triangles:       m.TriangleCount(),
			Color:           colorPalette[i%len(colorPalette)],
			Vertices:        m.Vertices,
			Normals:         m.Normals,
			Indices:         m.Indices,
		}

		// Step 4: Optionally check the bound by sampling.
		if n := a.opts.Sample.Count; n > 0 {
			report, err := tessellate.Sample(context.Background(), in, n, a.opts.Sample.Workers)
			if err != nil {
				return result.fail("sampling failed: %v", err)
			}
			if report.Violations > 0 {
				msg := fmt.Sprintf("%s: %d inside samples lie outside the bounding sphere", in.Name, report.Violations)
				glog.Warning("app: " + msg)
				result.Warnings = append(result.Warnings, EvalErrorData{Message: msg})
			}
			md.Sample = &SampleData{
				Samples:    report.Samples,
				Inside:     report.Inside,
				Volume:     report.Volume,
				Violations: report.Violations,
			}
		}

		glog.V(1).Infof("app: %s: %d triangles, %d features", md.Name, md.Triangles, md.Features)
		result.Meshes = append(result.Meshes, md)
	}

	return result
}

// unsafeFileChars matches characters replaced in STL file names.
var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ExportSTL meshes every root of source and writes one STL file per root
// into dir, returning the file paths.
func (a *App) ExportSTL(source, dir string) ([]string, EvalResult) {
	inputs, result := a.prepare(source)
	if inputs == nil {
		return nil, result
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, result.fail("export: %v", err)
	}

	paths := make([]string, 0, len(inputs))
	for _, in := range inputs {
		solid, err := a.kernel.Solid(in)
		if err != nil {
			return nil, result.fail("export: %v", err)
		}
		path := filepath.Join(dir, unsafeFileChars.ReplaceAllString(in.Name, "_")+".stl")
		if err := a.kernel.SaveSTL(path, solid); err != nil {
			glog.Errorf("app: %v", err)
			return nil, result.fail("export: %v", err)
		}
		glog.V(1).Infof("app: wrote %s", path)
		paths = append(paths, path)
	}
	return paths, result
}
