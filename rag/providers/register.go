// Package providers implements a registration system for embedding service
// providers. Each provider converts text into vector representations used by
// the dense half of hybrid retrieval. New providers register a factory under a
// name; the rest of the system only ever sees the Embedder interface.
package providers

import (
	"context"
	"fmt"
	"sync"
)

// Embedder interface defines the contract for embedding implementations
type Embedder interface {
	// Embed generates an embedding vector for the given text
	Embed(ctx context.Context, text string) ([]float64, error)

	// GetDimension returns the dimension of the embeddings for the current model
	GetDimension() (int, error)
}

// EmbedderFactory is a function type that creates a new Embedder
type EmbedderFactory func(config map[string]interface{}) (Embedder, error)

var (
	embedderFactories = make(map[string]EmbedderFactory)
	mu                sync.RWMutex
)

// RegisterEmbedder registers a new embedder factory. Registering a name twice
// overwrites the earlier factory.
func RegisterEmbedder(name string, factory EmbedderFactory) {
	mu.Lock()
	defer mu.Unlock()
	embedderFactories[name] = factory
}

// GetEmbedderFactory returns the factory for the given embedder name
func GetEmbedderFactory(name string) (EmbedderFactory, error) {
	mu.RLock()
	defer mu.RUnlock()
	factory, ok := embedderFactories[name]
	if !ok {
		return nil, fmt.Errorf("embedder not found: %s", name)
	}
	return factory, nil
}

// ListEmbedders returns the names of all registered embedder providers.
func ListEmbedders() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(embedderFactories))
	for name := range embedderFactories {
		names = append(names, name)
	}
	return names
}
