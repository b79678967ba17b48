package ragmark

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultRetrievalTopK is how many hits each retriever contributes before
// fusion.
const DefaultRetrievalTopK = 10

// Orchestrator runs the full hybrid pipeline for a single query: dense and
// sparse retrieval in parallel, reciprocal rank fusion of the two lists, and
// grounded answer generation over the fused context.
type Orchestrator struct {
	dense     Retriever
	sparse    Retriever
	fuser     *Fuser
	generator Generator
	topK      int
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithRetrievalTopK sets how many hits each retriever returns.
func WithRetrievalTopK(topK int) OrchestratorOption {
	return func(o *Orchestrator) {
		if topK > 0 {
			o.topK = topK
		}
	}
}

// WithFuser replaces the default fuser.
func WithFuser(f *Fuser) OrchestratorOption {
	return func(o *Orchestrator) {
		o.fuser = f
	}
}

// NewOrchestrator assembles a hybrid pipeline from its collaborators.
func NewOrchestrator(dense, sparse Retriever, generator Generator, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		dense:     dense,
		sparse:    sparse,
		fuser:     NewFuser(DefaultFusionK, DefaultFusionTopN),
		generator: generator,
		topK:      DefaultRetrievalTopK,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Answer executes retrieval, fusion and generation for the query. Both
// retrievers run concurrently; a failure in either aborts the whole query,
// since an answer produced from half the evidence would silently skew any
// evaluation built on top.
func (o *Orchestrator) Answer(ctx context.Context, query string) (*QueryResult, error) {
	start := time.Now()

	var (
		wg         sync.WaitGroup
		denseHits  []RetrievalHit
		sparseHits []RetrievalHit
		denseErr   error
		sparseErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		denseHits, denseErr = o.dense.Retrieve(ctx, query, o.topK)
	}()
	go func() {
		defer wg.Done()
		sparseHits, sparseErr = o.sparse.Retrieve(ctx, query, o.topK)
	}()
	wg.Wait()

	if denseErr != nil {
		return nil, fmt.Errorf("dense retrieval failed: %w", denseErr)
	}
	if sparseErr != nil {
		return nil, fmt.Errorf("sparse retrieval failed: %w", sparseErr)
	}

	fused := o.fuser.Fuse(denseHits, sparseHits)

	contextChunks := make([]string, len(fused))
	for i, hit := range fused {
		contextChunks[i] = hit.Content
	}

	answer, err := o.generator.Generate(ctx, query, contextChunks)
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}

	Debug("answered query",
		"query", query,
		"dense_hits", len(denseHits),
		"sparse_hits", len(sparseHits),
		"fused_hits", len(fused),
	)

	return &QueryResult{
		Query:         query,
		Answer:        answer,
		ContextChunks: contextChunks,
		DenseHits:     denseHits,
		SparseHits:    sparseHits,
		FusedHits:     fused,
		ResponseTime:  time.Since(start),
	}, nil
}
