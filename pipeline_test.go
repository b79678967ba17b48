package ragmark

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyRetriever fails on a specific query and succeeds otherwise.
type flakyRetriever struct {
	failOn string
	hits   []RetrievalHit
}

func (f *flakyRetriever) Retrieve(ctx context.Context, query string, topK int) ([]RetrievalHit, error) {
	if query == f.failOn {
		return nil, errors.New("transient backend error")
	}
	return f.hits, nil
}

func newTestPipeline(dense Retriever, opts ...PipelineOption) *Pipeline {
	orchestrator := NewOrchestrator(dense, &stubRetriever{}, &stubGenerator{answer: "answer"})
	evaluator := NewEvaluator(newStubService(nil))
	return NewPipeline(orchestrator, evaluator, opts...)
}

func TestPipelineRunJoinsGroundTruth(t *testing.T) {
	dense := &stubRetriever{hits: []RetrievalHit{{Content: "chunk", SourceID: "doc1"}}}
	pipeline := newTestPipeline(dense)

	items := []QAItem{
		{Question: "q1", GroundTruth: "g1", GroundTruthSource: "doc1", Category: CategoryFactual},
		{Question: "q2", GroundTruth: "g2", GroundTruthSource: "doc9", Category: CategoryMultiHop},
	}

	report, records, err := pipeline.Run(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "g1", records[0].GroundTruth)
	assert.Equal(t, "doc1", records[0].GroundTruthSource)
	assert.Equal(t, CategoryFactual, records[0].Category)
	assert.Equal(t, "answer", records[0].Answer)

	// doc1 retrieved at rank 1 for both queries; only q1's ground truth
	// matches it.
	assert.InDelta(t, 0.5, report.MRR, 1e-9)
}

func TestPipelineSkipsFailedQueriesByDefault(t *testing.T) {
	dense := &flakyRetriever{failOn: "bad", hits: []RetrievalHit{{Content: "c", SourceID: "doc1"}}}
	pipeline := newTestPipeline(dense)

	items := []QAItem{
		{Question: "good", GroundTruth: "g", GroundTruthSource: "doc1"},
		{Question: "bad", GroundTruth: "g", GroundTruthSource: "doc1"},
	}

	_, records, err := pipeline.Run(context.Background(), items)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "good", records[0].Query)
}

func TestPipelineAbortOnErrorOption(t *testing.T) {
	dense := &flakyRetriever{failOn: "bad", hits: []RetrievalHit{{Content: "c"}}}
	pipeline := newTestPipeline(dense, WithAbortOnError())

	items := []QAItem{
		{Question: "bad", GroundTruth: "g"},
		{Question: "good", GroundTruth: "g"},
	}

	_, _, err := pipeline.Run(context.Background(), items)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query 0 failed")
}

func TestPipelineEmptyDataset(t *testing.T) {
	pipeline := newTestPipeline(&stubRetriever{})
	_, _, err := pipeline.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestPipelineAllQueriesFailed(t *testing.T) {
	dense := &flakyRetriever{failOn: "only"}
	pipeline := newTestPipeline(dense)

	_, _, err := pipeline.Run(context.Background(), []QAItem{{Question: "only"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 1 queries failed")
}
