package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/chazu/csgmesh/pkg/graph"
)

// DefaultEvalTimeout is the hard limit for a single evaluation unless the
// engine is configured otherwise.
const DefaultEvalTimeout = 5 * time.Second

// evalResult passes evaluation results through channels.
type evalResult struct {
	graph  *graph.Graph
	errors []EvalError
	err    error
}

// deadline derives a context that expires after the engine timeout with an
// ErrTimeout cause naming the limit.
func (e *Engine) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeoutCause(ctx, e.timeout, fmt.Errorf("%w after %s", ErrTimeout, e.timeout))
}

// current reports whether gen is still the latest evaluation.
func (e *Engine) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.generation
}

// await waits for the result of evaluation gen on ch until ctx is done.
// Results from superseded generations are discarded.
//
// When ctx ends first the evaluating goroutine may still be running; the
// generation check discards its result once it completes.
func (e *Engine) await(ctx context.Context, ch <-chan evalResult, gen uint64) (*graph.Graph, []EvalError, error) {
	select {
	case res := <-ch:
		if !e.current(gen) {
			return nil, nil, ErrSuperseded
		}
		return res.graph, res.errors, res.err

	case <-ctx.Done():
		return nil, nil, context.Cause(ctx)
	}
}
