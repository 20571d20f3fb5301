// Package llm provides the completion client used for answer synthesis.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyCompletion indicates the model returned no choices.
	ErrEmptyCompletion = errors.New("model returned empty completion")
)

// Completer issues a single synchronous completion call with a system
// instruction and a user message. Implementations must be safe for
// concurrent use; the Map phase calls Complete from multiple goroutines.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Config holds configuration for the completion client.
type Config struct {
	// BaseURL is the OpenAI-compatible API base URL.
	BaseURL string `koanf:"base_url"`

	// Model is the chat model to use. Default: gpt-4o-mini.
	Model string `koanf:"model"`

	// APIKey is the API key.
	APIKey string `koanf:"api_key"`

	// Timeout bounds a single completion call. A timed-out call is a
	// failure for its task; it is never retried here. Default: 60s.
	Timeout time.Duration `koanf:"timeout"`

	// MaxTokens caps the generated response length. Default: 1024.
	MaxTokens int `koanf:"max_tokens"`

	// Temperature controls sampling. Kept low for grounded answers.
	// Default: 0.2.
	Temperature float64 `koanf:"temperature"`

	// RequestsPerSecond rate-limits outgoing calls. Default: 5.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1024
	}
	if c.Temperature == 0 {
		c.Temperature = 0.2
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 5
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: API key required", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// Client implements Completer against an OpenAI-compatible chat API.
type Client struct {
	llm     *openai.LLM
	config  Config
	limiter *rate.Limiter
}

// NewClient creates a completion client with the given configuration.
func NewClient(config Config) (*Client, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	opts := []openai.Option{
		openai.WithModel(config.Model),
		openai.WithToken(config.APIKey),
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}

	llmClient, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	return &Client{
		llm:     llmClient,
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
	}, nil
}

// Complete sends one chat completion request and returns the generated
// text. Errors and timeouts surface to the caller unretried; the
// orchestration above decides how a failed call affects the request.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	resp, err := c.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(c.config.Temperature),
		llms.WithMaxTokens(c.config.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Content, nil
}

// Ensure Client implements Completer
var _ Completer = (*Client)(nil)
