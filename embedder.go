package ragmark

import (
	"github.com/teilomillet/ragmark/rag"
	"github.com/teilomillet/ragmark/rag/providers"
)

// Embedder converts text into vector representations for dense retrieval.
// Implementations are registered through the rag/providers package.
type Embedder = providers.Embedder

// EmbedderOption configures the embedder created by NewEmbedder.
type EmbedderOption = rag.EmbedderOption

// SetEmbedderProvider selects the embedding provider (e.g. "openai").
func SetEmbedderProvider(provider string) EmbedderOption {
	return rag.SetProvider(provider)
}

// SetEmbedderModel selects the embedding model.
func SetEmbedderModel(model string) EmbedderOption {
	return rag.SetModel(model)
}

// SetEmbedderAPIKey sets the provider API key.
func SetEmbedderAPIKey(apiKey string) EmbedderOption {
	return rag.SetAPIKey(apiKey)
}

// NewEmbedder creates an Embedder from the registered providers.
//
// Example:
//
//	embedder, err := ragmark.NewEmbedder(
//	    ragmark.SetEmbedderProvider("openai"),
//	    ragmark.SetEmbedderModel("text-embedding-3-small"),
//	    ragmark.SetEmbedderAPIKey(os.Getenv("OPENAI_API_KEY")),
//	)
func NewEmbedder(opts ...EmbedderOption) (Embedder, error) {
	return rag.NewEmbedder(opts...)
}
