package tessellate

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/chazu/csgmesh/pkg/kernel"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// sampleSeed fixes the sample stream so reports are reproducible.
const sampleSeed = 0x5eed

// SampleReport summarizes uniform samples drawn from the bounding cube.
type SampleReport struct {
	Samples int
	Inside  int
	// Volume estimates the inside volume from the inside fraction.
	Volume float64
	// Violations counts inside samples outside the bounding sphere. A
	// sound bound never has any.
	Violations int
}

// InsideFraction returns Inside/Samples.
func (r SampleReport) InsideFraction() float64 {
	if r.Samples == 0 {
		return 0
	}
	return float64(r.Inside) / float64(r.Samples)
}

// Sample evaluates in.Domain at n uniform points of the cube around the
// bounding sphere, split across workers goroutines. The same n and workers
// always draw the same points.
func Sample(ctx context.Context, in kernel.Input, n, workers int) (SampleReport, error) {
	if err := in.Validate(); err != nil {
		return SampleReport{}, fmt.Errorf("tessellate: sample: %w", err)
	}
	if n <= 0 {
		return SampleReport{}, nil
	}
	workers = max(1, min(workers, n))

	type tally struct{ inside, violations int }
	tallies := make([]tally, workers)
	r := in.Radius()

	eg, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		count := n / workers
		if w < n%workers {
			count++
		}
		eg.Go(func() error {
			rng := rand.New(rand.NewPCG(sampleSeed, uint64(w)))
			var t tally
			for i := 0; i < count; i++ {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				p := r3.Vec{
					X: (2*rng.Float64() - 1) * r,
					Y: (2*rng.Float64() - 1) * r,
					Z: (2*rng.Float64() - 1) * r,
				}
				if in.Domain.Eval(p) < 0 {
					t.inside++
					if r3.Norm2(p) > in.SquaredRadius {
						t.violations++
					}
				}
			}
			tallies[w] = t
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return SampleReport{}, fmt.Errorf("tessellate: sample %s: %w", in.Name, err)
	}

	report := SampleReport{Samples: n}
	for _, t := range tallies {
		report.Inside += t.inside
		report.Violations += t.violations
	}
	side := 2 * r
	report.Volume = report.InsideFraction() * side * side * side
	return report, nil
}
