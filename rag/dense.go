package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryIndex is a DenseIndex backed by a plain in-memory slice with linear
// cosine-similarity search. It is intended for tests, prototyping and small
// corpora that don't warrant an external vector database.
type MemoryIndex struct {
	mu      sync.RWMutex
	docs    []Document
	vectors [][]float64
}

// NewMemoryIndex creates an empty in-memory dense index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Add stores documents alongside their embedding vectors.
func (m *MemoryIndex) Add(ctx context.Context, docs []Document, vectors [][]float64) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("document count %d does not match vector count %d", len(docs), len(vectors))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, docs...)
	m.vectors = append(m.vectors, vectors...)
	return nil
}

// Search returns the topK stored documents most similar to the query vector,
// ordered by descending cosine similarity. Equal similarities resolve by
// insertion order.
func (m *MemoryIndex) Search(ctx context.Context, vector []float64, topK int) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		pos   int
		score float64
	}
	results := make([]scored, 0, len(m.docs))
	for i, v := range m.vectors {
		results = append(results, scored{pos: i, score: CosineSimilarity(vector, v)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if len(results) > topK {
		results = results[:topK]
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		doc := m.docs[r.pos]
		hits[i] = Hit{
			Content:  doc.Content,
			Score:    r.score,
			SourceID: doc.SourceID,
		}
	}
	return hits, nil
}

// Close is a no-op for the in-memory index.
func (m *MemoryIndex) Close() error {
	return nil
}

// Len returns the number of stored documents.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// CosineSimilarity computes the cosine of the angle between two vectors of
// equal dimension. Either vector being zero (or the dimensions disagreeing)
// yields 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
