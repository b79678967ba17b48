package rag

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// numericEmbedder maps the text "7" to the vector [7], making output order
// trivially checkable.
type numericEmbedder struct {
	failOn string
}

func (n *numericEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == n.failOn {
		return nil, errors.New("embed failure")
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, err
	}
	return []float64{v}, nil
}

func (n *numericEmbedder) GetDimension() (int, error) {
	return 1, nil
}

func TestEmbedAllPreservesOrder(t *testing.T) {
	service := NewEmbeddingService(&numericEmbedder{})

	texts := make([]string, 25)
	for i := range texts {
		texts[i] = strconv.Itoa(i)
	}

	vectors, err := service.EmbedAll(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, v := range vectors {
		assert.Equal(t, float64(i), v[0])
	}
}

func TestEmbedAllConcurrentPreservesOrder(t *testing.T) {
	service := NewEmbeddingService(&numericEmbedder{})
	service.SetConcurrency(4)

	texts := make([]string, 100)
	for i := range texts {
		texts[i] = strconv.Itoa(i)
	}

	vectors, err := service.EmbedAll(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, v := range vectors {
		assert.Equal(t, float64(i), v[0])
	}
}

func TestEmbedAllPropagatesFailure(t *testing.T) {
	for _, workers := range []int{1, 4} {
		service := NewEmbeddingService(&numericEmbedder{failOn: "3"})
		service.SetConcurrency(workers)

		_, err := service.EmbedAll(context.Background(), []string{"0", "1", "2", "3", "4"})
		require.Error(t, err, "workers=%d", workers)
		assert.Contains(t, err.Error(), "embed failure")
	}
}

func TestEmbedAllEmptyInput(t *testing.T) {
	service := NewEmbeddingService(&numericEmbedder{})
	vectors, err := service.EmbedAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedRateLimiterRespectsContext(t *testing.T) {
	service := NewEmbeddingService(&numericEmbedder{})
	service.SetRateLimit(0.001, 1)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := service.Embed(ctx, "1")
	require.NoError(t, err) // burst of 1 passes immediately

	cancel()
	_, err = service.Embed(ctx, "2")
	assert.Error(t, err)
}
