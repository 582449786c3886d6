// internal/pipeline/sim.go
package pipeline

import (
	"context"

	"motifsampler/internal/engine"
)

// Searcher is the minimal capability the pipeline needs.
// Any engine (including fakes in tests) can satisfy this.
type Searcher interface {
	Search(ctx context.Context, worker, iter int) (engine.Result, error)
}

// Factory builds the searcher for one attempt. Workers never share one.
type Factory func(worker, iter int) (Searcher, error)
