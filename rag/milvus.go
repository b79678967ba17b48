package rag

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// Field names of the Milvus collection schema used by MilvusIndex.
const (
	milvusFieldID        = "ID"
	milvusFieldContent   = "Content"
	milvusFieldSourceID  = "SourceID"
	milvusFieldEmbedding = "Embedding"

	milvusMaxContentLength = 65535
	milvusMaxSourceLength  = 2048
)

// MilvusConfig holds connection and schema settings for a MilvusIndex.
type MilvusConfig struct {
	Address    string
	Collection string
	Dimension  int
	// SearchEF is the HNSW ef parameter used at query time.
	SearchEF int
}

// MilvusIndex is a DenseIndex backed by a Milvus collection with an HNSW
// index over inner-product similarity. Use it when the corpus outgrows the
// embedded backends.
type MilvusIndex struct {
	client client.Client
	config MilvusConfig
}

// NewMilvusIndex connects to Milvus and ensures the configured collection
// exists, creating it with the standard chunk schema when missing.
func NewMilvusIndex(ctx context.Context, cfg MilvusConfig) (*MilvusIndex, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive")
	}
	if cfg.SearchEF <= 0 {
		cfg.SearchEF = 64
	}

	c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus at %s: %w", cfg.Address, err)
	}

	m := &MilvusIndex{client: c, config: cfg}
	if err := m.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return m, nil
}

func (m *MilvusIndex) ensureCollection(ctx context.Context) error {
	exists, err := m.client.HasCollection(ctx, m.config.Collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", m.config.Collection, err)
	}
	if exists {
		return m.client.LoadCollection(ctx, m.config.Collection, false)
	}

	schema := entity.NewSchema().
		WithName(m.config.Collection).
		WithDescription("hybrid retrieval corpus chunks").
		WithField(entity.NewField().
			WithName(milvusFieldID).
			WithDataType(entity.FieldTypeInt64).
			WithIsPrimaryKey(true).
			WithIsAutoID(true)).
		WithField(entity.NewField().
			WithName(milvusFieldContent).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(milvusMaxContentLength)).
		WithField(entity.NewField().
			WithName(milvusFieldSourceID).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(milvusMaxSourceLength)).
		WithField(entity.NewField().
			WithName(milvusFieldEmbedding).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(m.config.Dimension)))

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", m.config.Collection, err)
	}

	idx, err := entity.NewIndexHNSW(entity.IP, 16, 256)
	if err != nil {
		return fmt.Errorf("failed to build HNSW index definition: %w", err)
	}
	if err := m.client.CreateIndex(ctx, m.config.Collection, milvusFieldEmbedding, idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return m.client.LoadCollection(ctx, m.config.Collection, false)
}

// Add inserts documents with their embedding vectors and flushes the
// collection so they become searchable.
func (m *MilvusIndex) Add(ctx context.Context, docs []Document, vectors [][]float64) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("document count %d does not match vector count %d", len(docs), len(vectors))
	}
	if len(docs) == 0 {
		return nil
	}

	contents := make([]string, len(docs))
	sources := make([]string, len(docs))
	embeddings := make([][]float32, len(docs))
	for i, doc := range docs {
		contents[i] = doc.Content
		sources[i] = doc.SourceID
		embeddings[i] = toFloat32(vectors[i])
	}

	_, err := m.client.Insert(ctx, m.config.Collection, "",
		entity.NewColumnVarChar(milvusFieldContent, contents),
		entity.NewColumnVarChar(milvusFieldSourceID, sources),
		entity.NewColumnFloatVector(milvusFieldEmbedding, m.config.Dimension, embeddings),
	)
	if err != nil {
		return fmt.Errorf("failed to insert documents: %w", err)
	}

	if err := m.client.Flush(ctx, m.config.Collection, false); err != nil {
		return fmt.Errorf("failed to flush collection: %w", err)
	}
	return nil
}

// Search performs an inner-product vector search and returns up to topK hits
// ordered by descending similarity.
func (m *MilvusIndex) Search(ctx context.Context, vector []float64, topK int) ([]Hit, error) {
	sp, err := entity.NewIndexHNSWSearchParam(m.config.SearchEF)
	if err != nil {
		return nil, fmt.Errorf("failed to build search params: %w", err)
	}

	results, err := m.client.Search(ctx, m.config.Collection, nil, "",
		[]string{milvusFieldContent, milvusFieldSourceID},
		[]entity.Vector{entity.FloatVector(toFloat32(vector))},
		milvusFieldEmbedding, entity.IP, topK, sp)
	if err != nil {
		return nil, fmt.Errorf("milvus search failed: %w", err)
	}

	var hits []Hit
	for _, rs := range results {
		contentCol := rs.Fields.GetColumn(milvusFieldContent)
		sourceCol := rs.Fields.GetColumn(milvusFieldSourceID)
		for i := 0; i < rs.ResultCount; i++ {
			hit := Hit{Score: float64(rs.Scores[i])}
			if contentCol != nil {
				if v, err := contentCol.GetAsString(i); err == nil {
					hit.Content = v
				}
			}
			if sourceCol != nil {
				if v, err := sourceCol.GetAsString(i); err == nil {
					hit.SourceID = v
				}
			}
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

// Close releases the Milvus connection.
func (m *MilvusIndex) Close() error {
	return m.client.Close()
}
