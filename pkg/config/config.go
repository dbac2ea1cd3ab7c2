// Package config loads meshing options from TOML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/chazu/csgmesh/pkg/graph"
	"github.com/chazu/csgmesh/pkg/kernel/sdfx"
	"github.com/chazu/csgmesh/pkg/tessellate"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid option")

// Options holds every tunable of a meshing run.
//
//	[mesh]
//	cells = 200
//	bounding_radius = 0
//	boundary_precision = 1e-3
//	feature_edge_size = 0.1
//	strategy = "scalar"
//
//	[eval]
//	timeout = "5s"
//
//	[sample]
//	count = 0
//	workers = 8
type Options struct {
	Mesh   MeshOptions   `toml:"mesh"`
	Eval   EvalOptions   `toml:"eval"`
	Sample SampleOptions `toml:"sample"`
}

// MeshOptions controls how roots are prepared and meshed.
type MeshOptions struct {
	Cells             int     `toml:"cells"`
	BoundingRadius    float64 `toml:"bounding_radius"`
	BoundaryPrecision float64 `toml:"boundary_precision"`
	FeatureEdgeSize   float64 `toml:"feature_edge_size"`
	Strategy          string  `toml:"strategy"`
}

// EvalOptions controls scene evaluation.
type EvalOptions struct {
	Timeout string `toml:"timeout"`
}

// SampleOptions controls the optional bound check by sampling. A zero
// count disables it.
type SampleOptions struct {
	Count   int `toml:"count"`
	Workers int `toml:"workers"`
}

// Default returns the options used when no file is given.
func Default() Options {
	return Options{
		Mesh: MeshOptions{
			Cells:             sdfx.DefaultMeshCells,
			BoundaryPrecision: 1e-3,
			FeatureEdgeSize:   graph.DefaultEdgeSize,
			Strategy:          string(tessellate.StrategyScalar),
		},
		Eval: EvalOptions{Timeout: "5s"},
		Sample: SampleOptions{
			Workers: runtime.GOMAXPROCS(0),
		},
	}
}

// Parse decodes TOML over the defaults. Keys not set in data keep their
// default values; unknown keys are an error.
func Parse(data []byte) (Options, error) {
	opts := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			return Options{}, fmt.Errorf("config: %w\n%s", err, serr.String())
		}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return Options{}, fmt.Errorf("config: line %d column %d: %w", row, col, err)
		}
		return Options{}, fmt.Errorf("config: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Load reads and parses a TOML file.
func Load(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("config: %w", err)
	}
	opts, err := Parse(data)
	if err != nil {
		return Options{}, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}

// Marshal encodes opts as TOML.
func (o Options) Marshal() ([]byte, error) {
	return toml.Marshal(o)
}

// Validate checks ranges and enumerations.
func (o Options) Validate() error {
	switch {
	case o.Mesh.Cells <= 0:
		return fmt.Errorf("%w: mesh.cells %d must be positive", ErrInvalid, o.Mesh.Cells)
	case o.Mesh.BoundingRadius < 0:
		return fmt.Errorf("%w: mesh.bounding_radius %g must not be negative", ErrInvalid, o.Mesh.BoundingRadius)
	case o.Mesh.BoundaryPrecision < 0 || o.Mesh.BoundaryPrecision >= 1:
		return fmt.Errorf("%w: mesh.boundary_precision %g must be in [0, 1)", ErrInvalid, o.Mesh.BoundaryPrecision)
	case !(o.Mesh.FeatureEdgeSize > 0):
		return fmt.Errorf("%w: mesh.feature_edge_size %g must be positive", ErrInvalid, o.Mesh.FeatureEdgeSize)
	case o.Sample.Count < 0:
		return fmt.Errorf("%w: sample.count %d must not be negative", ErrInvalid, o.Sample.Count)
	case o.Sample.Workers <= 0:
		return fmt.Errorf("%w: sample.workers %d must be positive", ErrInvalid, o.Sample.Workers)
	}
	if _, err := tessellate.ParseStrategy(o.Mesh.Strategy); err != nil {
		return fmt.Errorf("%w: mesh.strategy: %w", ErrInvalid, err)
	}
	if _, err := o.EvalTimeout(); err != nil {
		return err
	}
	return nil
}

// EvalTimeout parses Eval.Timeout.
func (o Options) EvalTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(o.Eval.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: eval.timeout: %w", ErrInvalid, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: eval.timeout %s must be positive", ErrInvalid, d)
	}
	return d, nil
}

// Tessellate returns the tessellation options. An unknown strategy is an
// error even when the options were never validated.
func (o Options) Tessellate() (tessellate.Options, error) {
	strategy, err := tessellate.ParseStrategy(o.Mesh.Strategy)
	if err != nil {
		return tessellate.Options{}, fmt.Errorf("config: mesh.strategy: %w", err)
	}
	return tessellate.Options{
		BoundingRadius: o.Mesh.BoundingRadius,
		ErrorBound:     o.Mesh.BoundaryPrecision,
		Strategy:       strategy,
	}, nil
}
