package rag

import "context"

// Document is one retrievable chunk of corpus text. ID must be unique within
// an index; SourceID names the source document the chunk was cut from and is
// carried through retrieval so evaluation can join hits against ground truth.
type Document struct {
	ID       string `json:"chunk_id"`
	Content  string `json:"text"`
	SourceID string `json:"url"`
}

// Hit is a single index search result, scored by the index's own metric.
type Hit struct {
	Content  string
	Score    float64
	SourceID string
}

// DenseIndex is a vector index over embedded documents. Implementations must
// return hits ordered by descending similarity. Embedding happens outside the
// index; Add receives one vector per document, in document order.
type DenseIndex interface {
	Add(ctx context.Context, docs []Document, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]Hit, error)
	Close() error
}
