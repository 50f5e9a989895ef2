package transform

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/ZanzyTHEbar/assert-lib"

	"github.com/quillfeed/textfeat/textfeat/dataset"
)

// Transformer is one stage of a featurization pipeline: it derives a
// new dataset from its input without mutating it.
type Transformer interface {
	Transform(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error)
}

// Pipeline runs transformers in sequence, each stage consuming the
// previous stage's output.
type Pipeline struct {
	stages []Transformer

	// AssertHandler for pipeline invariant checking
	AssertHandler *assert.AssertHandler
}

// NewPipeline assembles a pipeline from ordered stages.
func NewPipeline(stages ...Transformer) *Pipeline {
	// Create assert handler for the pipeline
	assertHandler := assert.NewAssertHandler()

	return &Pipeline{
		stages:        stages,
		AssertHandler: assertHandler,
	}
}

// Transform runs every stage in order. The first failing stage aborts
// the pipeline; there is no partial result.
func (p *Pipeline) Transform(ctx context.Context, ds *dataset.Dataset) (*dataset.Dataset, error) {
	out := ds
	for i, stage := range p.stages {
		var err error
		out, err = stage.Transform(ctx, out)
		if err != nil {
			return nil, fmt.Errorf("pipeline stage %d: %w", i, err)
		}
		slog.Debug("pipeline stage completed",
			"stage", i,
			"rows", out.Len(),
			"columns", len(out.Columns()))
	}
	return out, nil
}

// defaultWorkers sizes corpus-segmentation pools the same way the
// dataset row mapper does.
func defaultWorkers() int {
	return min(max(runtime.NumCPU(), 2), 32)
}
