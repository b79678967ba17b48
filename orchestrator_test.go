package ragmark

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRetriever struct {
	hits []RetrievalHit
	err  error
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string, topK int) ([]RetrievalHit, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.hits) > topK {
		return s.hits[:topK], nil
	}
	return s.hits, nil
}

type stubGenerator struct {
	answer    string
	err       error
	gotQuery  string
	gotChunks []string
}

func (s *stubGenerator) Generate(ctx context.Context, query string, contextChunks []string) (string, error) {
	s.gotQuery = query
	s.gotChunks = contextChunks
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func TestOrchestratorAnswer(t *testing.T) {
	dense := &stubRetriever{hits: []RetrievalHit{
		{Content: "chunk1", SourceID: "doc1"},
		{Content: "chunk2", SourceID: "doc2"},
	}}
	sparse := &stubRetriever{hits: []RetrievalHit{
		{Content: "chunk2", SourceID: "doc2"},
		{Content: "chunk3", SourceID: "doc3"},
	}}
	generator := &stubGenerator{answer: "the answer"}

	o := NewOrchestrator(dense, sparse, generator)
	result, err := o.Answer(context.Background(), "what is chunk2?")
	require.NoError(t, err)

	assert.Equal(t, "what is chunk2?", result.Query)
	assert.Equal(t, "the answer", result.Answer)
	assert.Len(t, result.DenseHits, 2)
	assert.Len(t, result.SparseHits, 2)
	assert.Greater(t, result.ResponseTime.Nanoseconds(), int64(0))

	// The generator sees the fused ranking, best chunk first.
	require.Len(t, result.FusedHits, 3)
	assert.Equal(t, "chunk2", result.FusedHits[0].Content)
	assert.Equal(t, []string{"chunk2", "chunk1", "chunk3"}, result.ContextChunks)
}

func TestOrchestratorDenseFailureAborts(t *testing.T) {
	dense := &stubRetriever{err: errors.New("vector store down")}
	sparse := &stubRetriever{hits: []RetrievalHit{{Content: "c"}}}

	o := NewOrchestrator(dense, sparse, &stubGenerator{answer: "x"})
	_, err := o.Answer(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dense retrieval failed")
}

func TestOrchestratorSparseFailureAborts(t *testing.T) {
	dense := &stubRetriever{hits: []RetrievalHit{{Content: "c"}}}
	sparse := &stubRetriever{err: errors.New("index corrupted")}

	o := NewOrchestrator(dense, sparse, &stubGenerator{answer: "x"})
	_, err := o.Answer(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sparse retrieval failed")
}

func TestOrchestratorGeneratorFailureAborts(t *testing.T) {
	dense := &stubRetriever{hits: []RetrievalHit{{Content: "c"}}}
	sparse := &stubRetriever{}

	o := NewOrchestrator(dense, sparse, &stubGenerator{err: errors.New("model overloaded")})
	_, err := o.Answer(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "answer generation failed")
}

func TestOrchestratorTopKOption(t *testing.T) {
	var hits []RetrievalHit
	for _, c := range []string{"a", "b", "c", "d", "e"} {
		hits = append(hits, RetrievalHit{Content: c})
	}
	dense := &stubRetriever{hits: hits}
	sparse := &stubRetriever{}

	o := NewOrchestrator(dense, sparse, &stubGenerator{answer: "x"}, WithRetrievalTopK(2))
	result, err := o.Answer(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, result.DenseHits, 2)
}
