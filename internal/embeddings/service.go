// Package embeddings provides query embedding via langchaingo.
//
// The service wraps langchaingo's embedding abstraction against any
// OpenAI-compatible endpoint. It works with both api.openai.com and a
// local TEI (Text Embeddings Inference) server.
package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	// ErrEmptyInput indicates empty input text.
	ErrEmptyInput = errors.New("empty input text")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDimensionMismatch indicates the provider returned a vector whose
	// dimension differs from the configured one. This is always fatal for
	// the request: a mismatched vector would silently corrupt search.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Config holds configuration for the embedding service.
type Config struct {
	// BaseURL is the base URL for the embedding API.
	// For OpenAI: https://api.openai.com/v1
	// For TEI: http://localhost:8080/v1
	BaseURL string `koanf:"base_url"`

	// Model is the embedding model to use.
	// For OpenAI: text-embedding-3-small, text-embedding-3-large
	Model string `koanf:"model"`

	// APIKey is the API key (required for OpenAI, optional for TEI).
	APIKey string `koanf:"api_key"`

	// Dimension is the expected vector dimension. Vectors of any other
	// size are rejected. Default: 1536 (text-embedding-3-small).
	Dimension int `koanf:"dimension"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "text-embedding-3-small"
	}
	if c.Dimension == 0 {
		c.Dimension = 1536
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", ErrInvalidConfig)
	}
	return nil
}

// Service provides embedding generation for query text.
type Service struct {
	embedder *embeddings.EmbedderImpl
	config   Config
}

// NewService creates a new embedding service with the given configuration.
func NewService(config Config) (*Service, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	apiKey := config.APIKey
	if apiKey == "" {
		// langchaingo requires a token, use placeholder for TEI
		apiKey = "placeholder"
	}

	llm, err := openai.New(
		openai.WithBaseURL(config.BaseURL),
		openai.WithEmbeddingModel(config.Model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return &Service{
		embedder: embedder,
		config:   config,
	}, nil
}

// EmbedQuery generates an embedding vector for a single query string.
//
// Returns ErrEmptyInput for blank text and ErrDimensionMismatch when the
// provider returns a vector of the wrong size.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	vector, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	if len(vector) != s.config.Dimension {
		return nil, fmt.Errorf("%w: got %d, want %d",
			ErrDimensionMismatch, len(vector), s.config.Dimension)
	}

	return vector, nil
}

// Dimension returns the configured vector dimension.
func (s *Service) Dimension() int {
	return s.config.Dimension
}
