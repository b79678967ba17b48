package ragmark

import (
	"context"
	"fmt"
)

// Pipeline is the batch evaluation driver: it answers every dataset question
// through the Orchestrator, joins the results with their ground-truth
// annotations and hands the batch to the Evaluator. Retrieval hits already
// carry source identifiers, so the join is a plain field copy rather than a
// separate identifier-injection step.
type Pipeline struct {
	orchestrator *Orchestrator
	evaluator    *Evaluator
	abortOnError bool
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithAbortOnError makes the pipeline stop at the first failed query instead
// of skipping it. Skipping is the default: one flaky backend call should not
// throw away an hour-long evaluation run.
func WithAbortOnError() PipelineOption {
	return func(p *Pipeline) {
		p.abortOnError = true
	}
}

// NewPipeline assembles an evaluation pipeline.
func NewPipeline(orchestrator *Orchestrator, evaluator *Evaluator, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		orchestrator: orchestrator,
		evaluator:    evaluator,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run answers every question, assembles the evaluation records and evaluates
// them. It returns the report together with the records so callers can
// persist raw outcomes alongside the aggregate metrics.
func (p *Pipeline) Run(ctx context.Context, items []QAItem) (*MetricsReport, []EvaluationRecord, error) {
	if len(items) == 0 {
		return nil, nil, ErrEmptyBatch
	}

	records := make([]EvaluationRecord, 0, len(items))
	for i, item := range items {
		result, err := p.orchestrator.Answer(ctx, item.Question)
		if err != nil {
			if p.abortOnError || ctx.Err() != nil {
				return nil, nil, fmt.Errorf("query %d failed: %w", i, err)
			}
			Warn("skipping failed query", "index", i, "question", item.Question, "error", err)
			continue
		}

		records = append(records, EvaluationRecord{
			QueryResult:       *result,
			GroundTruth:       item.GroundTruth,
			GroundTruthSource: item.GroundTruthSource,
			Category:          item.Category,
		})
	}

	if len(records) == 0 {
		return nil, nil, fmt.Errorf("all %d queries failed", len(items))
	}

	report, err := p.evaluator.Evaluate(ctx, records)
	if err != nil {
		return nil, nil, err
	}
	return report, records, nil
}
