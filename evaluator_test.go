package ragmark

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teilomillet/ragmark/rag"
)

type stubJudge struct {
	verdict JudgeVerdict
	err     error
	calls   int
}

func (s *stubJudge) Judge(ctx context.Context, query, answer, groundTruth string) (JudgeVerdict, error) {
	s.calls++
	if s.err != nil {
		return JudgeVerdict{}, s.err
	}
	return s.verdict, nil
}

func uniformVerdict(score float64) JudgeVerdict {
	scores := make(map[JudgeCriterion]float64)
	for _, c := range JudgeCriteria {
		scores[c] = score
	}
	return JudgeVerdict{Scores: scores, Rationale: "fine"}
}

func TestEvaluateEndToEnd(t *testing.T) {
	// Record 1: ground truth retrieved at rank 1, similarity 0.9,
	// relevance 0.8. Record 2: ground truth absent from retrieval.
	service := newStubService(map[string][]float64{
		"a1": {1, 0},
		"g1": {0.9, math.Sqrt(0.19)},
		"q1": {0.8, 0.6},
		"a2": {1, 0},
		"g2": {1, 0},
		"q2": {1, 0},
	})

	record1 := EvaluationRecord{
		QueryResult: QueryResult{
			Query:     "q1",
			Answer:    "a1",
			FusedHits: []FusedResult{{SourceID: "src1"}, {SourceID: "other"}},
		},
		GroundTruth:       "g1",
		GroundTruthSource: "src1",
		Category:          CategoryFactual,
	}
	record2 := EvaluationRecord{
		QueryResult: QueryResult{
			Query:     "q2",
			Answer:    "a2",
			FusedHits: []FusedResult{{SourceID: "other"}},
		},
		GroundTruth:       "g2",
		GroundTruthSource: "src2",
		Category:          CategoryInferential,
	}

	judge := &stubJudge{verdict: uniformVerdict(4)}
	evaluator := NewEvaluator(service, WithJudge(judge))

	report, err := evaluator.Evaluate(context.Background(), []EvaluationRecord{record1, record2})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, report.MRR, 1e-9)
	assert.InDelta(t, 0.95, report.SemanticSimilarity, 1e-9)
	assert.InDelta(t, 0.9, report.AnswerRelevance, 1e-9)

	assert.Equal(t, 1, report.ErrorAnalysis.Overall[ErrNone])
	assert.Equal(t, 1, report.ErrorAnalysis.Overall[ErrRetrievalFailure])

	assert.Equal(t, 2, judge.calls)
	for _, criterion := range JudgeCriteria {
		assert.InDelta(t, 4.0, report.JudgeScores[criterion], 1e-9)
	}

	// Confidences: (0.9+0.8)/2 = 0.85 and (1+1)/2 = 1.0, both correct.
	// Bin [0.8,0.9): gap 0.15 at weight 1/2; top bin: gap 0.
	require.Len(t, report.Calibration.Points, 2)
	assert.InDelta(t, 0.85, report.Calibration.Points[0].Confidence, 1e-9)
	assert.True(t, report.Calibration.Points[0].Correct)
	assert.InDelta(t, 0.075, report.Calibration.ECE, 1e-9)
	assert.InDelta(t, 1.0, report.Calibration.Accuracy, 1e-9)
}

func TestEvaluateEmptyBatchFailsFast(t *testing.T) {
	evaluator := NewEvaluator(newStubService(nil))

	_, err := evaluator.Evaluate(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestEvaluateSingleRecordUsesBatchPath(t *testing.T) {
	service := newStubService(map[string][]float64{
		"answer": {1, 0},
		"truth":  {1, 0},
		"query":  {0, 1},
	})

	record := EvaluationRecord{
		QueryResult: QueryResult{
			Query:     "query",
			Answer:    "answer",
			FusedHits: []FusedResult{{SourceID: "src"}},
		},
		GroundTruth:       "truth",
		GroundTruthSource: "src",
	}

	report, err := NewEvaluator(service).Evaluate(context.Background(), []EvaluationRecord{record})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, report.MRR, 1e-9)
	assert.InDelta(t, 1.0, report.SemanticSimilarity, 1e-9)
	assert.InDelta(t, 0.0, report.AnswerRelevance, 1e-9)
	// Orthogonal answer/query embeddings: relevant threshold not met.
	assert.Equal(t, 1, report.ErrorAnalysis.Overall[ErrContextIrrelevant])
}

func TestEvaluateJudgeErrorPropagates(t *testing.T) {
	service := newStubService(nil)
	judge := &stubJudge{err: errors.New("judge backend down")}

	record := EvaluationRecord{
		QueryResult: QueryResult{Query: "q", Answer: "a"},
		GroundTruth: "g",
	}

	_, err := NewEvaluator(service, WithJudge(judge)).Evaluate(context.Background(), []EvaluationRecord{record})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "judge backend down")
}

func TestEvaluateEmbedderErrorPropagates(t *testing.T) {
	broken := &stubEmbedder{err: errors.New("embedding service unreachable")}
	evaluator := NewEvaluator(rag.NewEmbeddingService(broken))

	record := EvaluationRecord{
		QueryResult: QueryResult{Query: "q", Answer: "a"},
		GroundTruth: "g",
	}

	_, err := evaluator.Evaluate(context.Background(), []EvaluationRecord{record})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding service unreachable")
}

func TestEvaluateWithoutJudgeSkipsJudgeSection(t *testing.T) {
	service := newStubService(nil)
	record := EvaluationRecord{
		QueryResult: QueryResult{Query: "q", Answer: "a"},
		GroundTruth: "g",
	}

	report, err := NewEvaluator(service).Evaluate(context.Background(), []EvaluationRecord{record})
	require.NoError(t, err)
	assert.Empty(t, report.JudgeScores)
	assert.Empty(t, report.JudgeRationales)
}

func TestEvaluatorThresholdOverride(t *testing.T) {
	custom := DefaultThresholds()
	custom.LowSimilarity = 0.95

	evaluator := NewEvaluator(newStubService(nil), WithThresholds(custom))
	assert.InDelta(t, 0.95, evaluator.Thresholds().LowSimilarity, 1e-9)
}
