package ragmark

import (
	"context"
	"fmt"

	"github.com/teilomillet/ragmark/rag"
)

// Retriever finds the chunks most relevant to a query. Implementations return
// hits ordered from most to least relevant; duplicates within the list are
// allowed and handled downstream by fusion.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]RetrievalHit, error)
}

// DenseRetriever performs semantic search: queries are embedded and matched
// against a vector index by similarity.
type DenseRetriever struct {
	embedder *rag.EmbeddingService
	index    rag.DenseIndex
}

// NewDenseRetriever wires an embedding service to a dense index.
func NewDenseRetriever(embedder *rag.EmbeddingService, index rag.DenseIndex) *DenseRetriever {
	return &DenseRetriever{embedder: embedder, index: index}
}

// Index embeds the documents and stores them in the underlying vector index.
func (r *DenseRetriever) Index(ctx context.Context, docs []rag.Document) error {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	vectors, err := r.embedder.EmbedAll(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed corpus: %w", err)
	}

	if err := r.index.Add(ctx, docs, vectors); err != nil {
		return fmt.Errorf("failed to index corpus: %w", err)
	}
	Info("indexed documents", "count", len(docs))
	return nil
}

// Retrieve embeds the query and searches the vector index.
func (r *DenseRetriever) Retrieve(ctx context.Context, query string, topK int) ([]RetrievalHit, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := r.index.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("dense search failed: %w", err)
	}
	return hitsToRetrieval(hits), nil
}

// SparseRetriever performs lexical search over a BM25 index.
type SparseRetriever struct {
	index *rag.BM25Index
}

// NewSparseRetriever wraps a BM25 index.
func NewSparseRetriever(index *rag.BM25Index) *SparseRetriever {
	return &SparseRetriever{index: index}
}

// Index adds the documents to the BM25 index.
func (r *SparseRetriever) Index(ctx context.Context, docs []rag.Document) error {
	return r.index.AddBatch(ctx, docs)
}

// Retrieve runs a BM25 search for the query.
func (r *SparseRetriever) Retrieve(ctx context.Context, query string, topK int) ([]RetrievalHit, error) {
	hits, err := r.index.Search(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("sparse search failed: %w", err)
	}
	return hitsToRetrieval(hits), nil
}

func hitsToRetrieval(hits []rag.Hit) []RetrievalHit {
	out := make([]RetrievalHit, len(hits))
	for i, h := range hits {
		out[i] = RetrievalHit{
			Content:  h.Content,
			Score:    h.Score,
			SourceID: h.SourceID,
		}
	}
	return out
}
