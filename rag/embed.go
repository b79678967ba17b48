package rag

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/teilomillet/ragmark/rag/providers"
)

// EmbedderConfig holds the configuration for creating an Embedder
type EmbedderConfig struct {
	Provider string
	Options  map[string]interface{}
}

// EmbedderOption is a function type for configuring the EmbedderConfig
type EmbedderOption func(*EmbedderConfig)

// SetProvider sets the provider for the Embedder
func SetProvider(provider string) EmbedderOption {
	return func(c *EmbedderConfig) {
		c.Provider = provider
	}
}

// SetModel sets the model for the Embedder
func SetModel(model string) EmbedderOption {
	return func(c *EmbedderConfig) {
		c.Options["model"] = model
	}
}

// SetAPIKey sets the API key for the Embedder
func SetAPIKey(apiKey string) EmbedderOption {
	return func(c *EmbedderConfig) {
		c.Options["api_key"] = apiKey
	}
}

// SetOption sets a custom option for the Embedder
func SetOption(key string, value interface{}) EmbedderOption {
	return func(c *EmbedderConfig) {
		c.Options[key] = value
	}
}

// NewEmbedder creates a new Embedder instance based on the provided options
func NewEmbedder(opts ...EmbedderOption) (providers.Embedder, error) {
	config := &EmbedderConfig{
		Options: make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.Provider == "" {
		return nil, fmt.Errorf("provider must be specified")
	}
	factory, err := providers.GetEmbedderFactory(config.Provider)
	if err != nil {
		return nil, err
	}
	return factory(config.Options)
}

// EmbeddingService wraps an Embedder with client-side rate limiting and a
// bounded worker pool for bulk operations (corpus indexing, batch evaluation),
// so they stay inside provider quotas. A nil limiter disables throttling.
type EmbeddingService struct {
	embedder providers.Embedder
	limiter  *rate.Limiter
	workers  int
}

// NewEmbeddingService creates an embedding service without rate limiting,
// running batch work on a single worker.
func NewEmbeddingService(embedder providers.Embedder) *EmbeddingService {
	return &EmbeddingService{embedder: embedder, workers: 1}
}

// SetConcurrency bounds how many embedding calls EmbedAll runs in flight at
// once. The rate limit still applies across workers.
func (s *EmbeddingService) SetConcurrency(workers int) {
	if workers < 1 {
		workers = 1
	}
	s.workers = workers
}

// SetRateLimit throttles embedding calls to at most rps requests per second
// with the given burst. Non-positive rps removes the limit.
func (s *EmbeddingService) SetRateLimit(rps float64, burst int) {
	if rps <= 0 {
		s.limiter = nil
		return
	}
	s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// Embed produces a vector for a single text, respecting the rate limit.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float64, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter interrupted: %w", err)
		}
	}
	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	return embedding, nil
}

// EmbedAll produces one vector per input text. Work fans out over the
// configured worker count and results land at their input index, so output
// order always matches input order. Any failure aborts the batch.
func (s *EmbeddingService) EmbedAll(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	GlobalLogger.Debug("embedding batch", "count", len(texts), "workers", s.workers)

	if s.workers == 1 {
		vectors := make([][]float64, len(texts))
		for i, text := range texts {
			vector, err := s.Embed(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("error embedding text %d: %w", i+1, err)
			}
			vectors[i] = vector
		}
		return vectors, nil
	}

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float64, len(texts))
	jobs := make(chan int)
	errs := make(chan error, s.workers)

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				vector, err := s.Embed(workCtx, texts[i])
				if err != nil {
					errs <- fmt.Errorf("error embedding text %d: %w", i+1, err)
					cancel()
					return
				}
				vectors[i] = vector
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range texts {
			select {
			case jobs <- i:
			case <-workCtx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// GetDimension reports the embedder's output dimension.
func (s *EmbeddingService) GetDimension() (int, error) {
	return s.embedder.GetDimension()
}
