package rag

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

// ChromemIndex is a DenseIndex backed by the embedded chromem-go vector
// database. With an empty path the index lives purely in memory; with a path
// it persists across restarts. Because vectors are computed upstream and
// passed in explicitly, no embedding function is ever invoked by chromem
// itself.
type ChromemIndex struct {
	mu   sync.Mutex
	db   *chromem.DB
	col  *chromem.Collection
	next int
}

// noEmbedding satisfies chromem's collection API; all documents and queries
// arrive with precomputed vectors, so being called is a bug.
func noEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("chromem index received a document without a precomputed embedding")
}

// NewChromemIndex opens (or creates) the named collection. path selects the
// persistent backend; leave it empty for a purely in-memory index.
func NewChromemIndex(path, collection string) (*ChromemIndex, error) {
	var db *chromem.DB
	var err error
	if path != "" {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open persistent chromem db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	col, err := db.GetOrCreateCollection(collection, nil, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", collection, err)
	}

	return &ChromemIndex{db: db, col: col}, nil
}

// Add stores documents with their precomputed embedding vectors.
func (c *ChromemIndex) Add(ctx context.Context, docs []Document, vectors [][]float64) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("document count %d does not match vector count %d", len(docs), len(vectors))
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, doc := range docs {
		id := doc.ID
		if id == "" {
			id = strconv.Itoa(c.next)
			c.next++
		}
		err := c.col.AddDocument(ctx, chromem.Document{
			ID:        id,
			Content:   doc.Content,
			Metadata:  map[string]string{"source_id": doc.SourceID},
			Embedding: toFloat32(vectors[i]),
		})
		if err != nil {
			return fmt.Errorf("failed to add document %s: %w", id, err)
		}
	}
	return nil
}

// Search queries the collection with a precomputed vector and returns up to
// topK hits ordered by descending similarity. chromem rejects result counts
// above the collection size, so topK is clamped.
func (c *ChromemIndex) Search(ctx context.Context, vector []float64, topK int) ([]Hit, error) {
	count := c.col.Count()
	if count == 0 {
		return []Hit{}, nil
	}
	if topK > count {
		topK = count
	}

	results, err := c.col.QueryEmbedding(ctx, toFloat32(vector), topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query failed: %w", err)
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			Content:  r.Content,
			Score:    float64(r.Similarity),
			SourceID: r.Metadata["source_id"],
		}
	}
	return hits, nil
}

// Close is a no-op; chromem has no connection to release.
func (c *ChromemIndex) Close() error {
	return nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
