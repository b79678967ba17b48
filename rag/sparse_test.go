package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocs() []Document {
	return []Document{
		{ID: "1", Content: "the quick brown fox jumps over the lazy dog", SourceID: "animals"},
		{ID: "2", Content: "golang channels and goroutines enable concurrency", SourceID: "go"},
		{ID: "3", Content: "the fox hunts at night in the forest", SourceID: "animals"},
	}
}

func TestBM25SearchRanksByRelevance(t *testing.T) {
	idx := NewBM25Index()
	require.NoError(t, idx.AddBatch(context.Background(), testDocs()))

	hits, err := idx.Search(context.Background(), "fox forest", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// Document 3 matches both terms, document 1 only "fox".
	assert.Equal(t, "the fox hunts at night in the forest", hits[0].Content)
	assert.Equal(t, "animals", hits[0].SourceID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestBM25SearchNoMatches(t *testing.T) {
	idx := NewBM25Index()
	require.NoError(t, idx.AddBatch(context.Background(), testDocs()))

	hits, err := idx.Search(context.Background(), "quantum entanglement", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestBM25SearchDeterministicOnTies(t *testing.T) {
	idx := NewBM25Index()
	docs := []Document{
		{ID: "a", Content: "shared token alpha"},
		{ID: "b", Content: "shared token beta"},
	}
	require.NoError(t, idx.AddBatch(context.Background(), docs))

	first, err := idx.Search(context.Background(), "shared token", 10)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := idx.Search(context.Background(), "shared token", 10)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBM25SearchTruncatesToTopK(t *testing.T) {
	idx := NewBM25Index()
	require.NoError(t, idx.AddBatch(context.Background(), testDocs()))

	hits, err := idx.Search(context.Background(), "the fox dog night", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestBM25RemoveAndReAdd(t *testing.T) {
	ctx := context.Background()
	idx := NewBM25Index()
	require.NoError(t, idx.AddBatch(ctx, testDocs()))
	require.Equal(t, 3, idx.Len())

	require.NoError(t, idx.Remove(ctx, "1"))
	assert.Equal(t, 2, idx.Len())

	hits, err := idx.Search(ctx, "quick brown", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	// Re-adding an existing ID replaces, not duplicates.
	require.NoError(t, idx.Add(ctx, Document{ID: "2", Content: "rust ownership model"}))
	assert.Equal(t, 2, idx.Len())

	hits, err = idx.Search(ctx, "goroutines", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDefaultPreprocessor(t *testing.T) {
	tokens := defaultPreprocessor("The Quick, brown FOX! (and the dog)")
	assert.Equal(t, []string{"quick", "brown", "fox", "dog"}, tokens)
}
