// Package config provides configuration management for the ragmark hybrid
// retrieval and evaluation system. It implements a hierarchical configuration
// where settings can be overridden in the following order (highest to lowest
// precedence):
//  1. Environment variables (RAGMARK_* prefix)
//  2. Configuration file (JSON)
//  3. Default values
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the hybrid pipeline and its evaluation.
type Config struct {
	// Embedding provider settings
	EmbeddingProvider string `json:"embedding_provider" env:"RAGMARK_EMBEDDING_PROVIDER"`
	EmbeddingModel    string `json:"embedding_model" env:"RAGMARK_EMBEDDING_MODEL"`
	APIKey            string `json:"api_key" env:"RAGMARK_API_KEY"`

	// Generation and judge model settings
	LLMProvider string `json:"llm_provider" env:"RAGMARK_LLM_PROVIDER"`
	LLMModel    string `json:"llm_model" env:"RAGMARK_LLM_MODEL"`

	// Vector store settings
	VectorStore   string `json:"vector_store" env:"RAGMARK_VECTOR_STORE"` // "memory", "chromem" or "milvus"
	StorePath     string `json:"store_path" env:"RAGMARK_STORE_PATH"`
	MilvusAddress string `json:"milvus_address" env:"RAGMARK_MILVUS_ADDRESS"`
	Collection    string `json:"collection" env:"RAGMARK_COLLECTION"`
	Dimension     int    `json:"dimension" env:"RAGMARK_DIMENSION"`

	// Retrieval settings
	TopK        int     `json:"top_k" env:"RAGMARK_TOP_K"`
	FusionK     int     `json:"fusion_k" env:"RAGMARK_FUSION_K"`
	FusionTopN  int     `json:"fusion_top_n" env:"RAGMARK_FUSION_TOP_N"`
	BM25K1      float64 `json:"bm25_k1" env:"RAGMARK_BM25_K1"`
	BM25B       float64 `json:"bm25_b" env:"RAGMARK_BM25_B"`
	TokenBudget int     `json:"token_budget" env:"RAGMARK_TOKEN_BUDGET"`

	// Evaluation thresholds
	LowSimilarity  float64 `json:"low_similarity" env:"RAGMARK_LOW_SIMILARITY"`
	LowRelevance   float64 `json:"low_relevance" env:"RAGMARK_LOW_RELEVANCE"`
	GoodSimilarity float64 `json:"good_similarity" env:"RAGMARK_GOOD_SIMILARITY"`
	GoodRelevance  float64 `json:"good_relevance" env:"RAGMARK_GOOD_RELEVANCE"`
	Correctness    float64 `json:"correctness" env:"RAGMARK_CORRECTNESS"`

	// Rate limiting for embedding calls, requests per second
	EmbedRateLimit float64 `json:"embed_rate_limit" env:"RAGMARK_EMBED_RATE_LIMIT"`

	// System settings
	Timeout  time.Duration `json:"timeout" env:"RAGMARK_TIMEOUT"`
	LogLevel string        `json:"log_level" env:"RAGMARK_LOG_LEVEL"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		EmbeddingProvider: "openai",
		EmbeddingModel:    "text-embedding-3-small",
		LLMProvider:       "openai",
		LLMModel:          "gpt-4o-mini",
		VectorStore:       "chromem",
		Collection:        "corpus",
		Dimension:         1536,
		TopK:              10,
		FusionK:           60,
		FusionTopN:        10,
		BM25K1:            1.5,
		BM25B:             0.75,
		TokenBudget:       3000,
		LowSimilarity:     0.5,
		LowRelevance:      0.5,
		GoodSimilarity:    0.8,
		GoodRelevance:     0.7,
		Correctness:       0.7,
		EmbedRateLimit:    10,
		Timeout:           30 * time.Second,
		LogLevel:          "INFO",
	}
}

// Load builds the effective configuration: defaults, then the config file
// (when one is found), then environment variables on top.
//
// Configuration file search paths:
//  1. $RAGMARK_CONFIG
//  2. ~/.ragmark/config.json
//  3. ./ragmark.json
func Load() (*Config, error) {
	cfg := Default()

	configFile := os.Getenv("RAGMARK_CONFIG")
	if configFile == "" {
		candidates := []string{"ragmark.json"}
		if home, err := os.UserHomeDir(); err == nil {
			candidates = append([]string{filepath.Join(home, ".ragmark", "config.json")}, candidates...)
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				configFile = candidate
				break
			}
		}
	}

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	return cfg, nil
}

// Save persists the configuration to a JSON file, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
