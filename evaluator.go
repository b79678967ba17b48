package ragmark

import (
	"context"
	"fmt"

	"github.com/teilomillet/ragmark/rag"
)

// Evaluator turns a batch of answered, annotated queries into a MetricsReport.
// It depends on two external collaborators: an embedding service for the
// similarity metrics and a Judge for the rubric scores. Collaborator errors
// are hard failures; only malformed judge output is recovered locally.
type Evaluator struct {
	embedder   *rag.EmbeddingService
	judge      Judge
	thresholds Thresholds
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithThresholds overrides the default classification thresholds.
func WithThresholds(t Thresholds) EvaluatorOption {
	return func(e *Evaluator) {
		e.thresholds = t
	}
}

// WithJudge attaches an LLM judge. Without one the judge section of the
// report stays empty, which keeps offline evaluation runs possible.
func WithJudge(j Judge) EvaluatorOption {
	return func(e *Evaluator) {
		e.judge = j
	}
}

// NewEvaluator creates an evaluator around an embedding service.
func NewEvaluator(embedder *rag.EmbeddingService, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		embedder:   embedder,
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Thresholds returns the active classification thresholds.
func (e *Evaluator) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate computes every metric over the batch. The batch must be non-empty:
// similarity, relevance and calibration are proper means and undefined over
// zero records. Any collaborator failure aborts the run with the record index
// in the error chain.
func (e *Evaluator) Evaluate(ctx context.Context, records []EvaluationRecord) (*MetricsReport, error) {
	if len(records) == 0 {
		return nil, ErrEmptyBatch
	}

	Info("evaluating batch", "records", len(records))

	answers := make([]string, len(records))
	groundTruths := make([]string, len(records))
	queries := make([]string, len(records))
	for i, record := range records {
		answers[i] = record.Answer
		groundTruths[i] = record.GroundTruth
		queries[i] = record.Query
	}

	similarityMean, similarities, err := MeanPairedSimilarity(ctx, e.embedder, answers, groundTruths)
	if err != nil {
		return nil, fmt.Errorf("semantic similarity failed: %w", err)
	}

	relevanceMean, relevances, err := MeanPairedSimilarity(ctx, e.embedder, answers, queries)
	if err != nil {
		return nil, fmt.Errorf("answer relevance failed: %w", err)
	}

	analysis := AnalyzeErrors(records, similarities, relevances, e.thresholds)

	judgeScores, rationales, err := e.judgeBatch(ctx, records)
	if err != nil {
		return nil, err
	}

	points := make([]CalibrationPoint, len(records))
	for i := range records {
		points[i] = CalibrationPoint{
			Confidence: Confidence(similarities[i], relevances[i]),
			Correct:    similarities[i] > e.thresholds.Correctness,
		}
	}
	calibration, err := ComputeCalibration(points)
	if err != nil {
		return nil, fmt.Errorf("calibration failed: %w", err)
	}

	return &MetricsReport{
		MRR:                ComputeMRR(records),
		SemanticSimilarity: similarityMean,
		AnswerRelevance:    relevanceMean,
		ErrorAnalysis:      analysis,
		JudgeScores:        judgeScores,
		JudgeRationales:    rationales,
		Calibration:        calibration,
	}, nil
}

// judgeBatch scores each record sequentially. Judge backends are typically
// rate limited, so fanning out buys nothing but 429s.
func (e *Evaluator) judgeBatch(ctx context.Context, records []EvaluationRecord) (map[JudgeCriterion]float64, []string, error) {
	if e.judge == nil {
		return make(map[JudgeCriterion]float64), nil, nil
	}

	verdicts := make([]JudgeVerdict, len(records))
	for i, record := range records {
		verdict, err := e.judge.Judge(ctx, record.Query, record.Answer, record.GroundTruth)
		if err != nil {
			return nil, nil, fmt.Errorf("judging record %d failed: %w", i, err)
		}
		verdicts[i] = verdict
	}

	scores, rationales := AggregateVerdicts(verdicts)
	return scores, rationales, nil
}
