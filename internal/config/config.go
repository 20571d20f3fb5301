// Package config provides configuration loading for docquery.
//
// Configuration is loaded from an optional YAML file, then overridden by
// environment variables, with hardcoded defaults for everything unset.
package config

import (
	"fmt"

	"github.com/fyrsmithlabs/docquery/internal/embeddings"
	"github.com/fyrsmithlabs/docquery/internal/httpapi"
	"github.com/fyrsmithlabs/docquery/internal/llm"
	"github.com/fyrsmithlabs/docquery/internal/logging"
	"github.com/fyrsmithlabs/docquery/internal/qdrant"
	"github.com/fyrsmithlabs/docquery/internal/query"
	"github.com/fyrsmithlabs/docquery/internal/retrieval"
)

// Config holds the complete docquery configuration.
type Config struct {
	Server    httpapi.Config      `koanf:"server"`
	Qdrant    qdrant.ClientConfig `koanf:"qdrant"`
	Embedding embeddings.Config   `koanf:"embedding"`
	LLM       llm.Config          `koanf:"llm"`
	Retrieval retrieval.Config    `koanf:"retrieval"`
	Query     query.Config        `koanf:"query"`
	Logging   logging.Config      `koanf:"logging"`
}

// applyDefaults fills every unset field with its section default.
func applyDefaults(cfg *Config) {
	cfg.Server.ApplyDefaults()
	cfg.Qdrant.ApplyDefaults()
	cfg.Embedding.ApplyDefaults()
	cfg.LLM.ApplyDefaults()
	cfg.Retrieval.ApplyDefaults()
	cfg.Query.ApplyDefaults()

	defaults := logging.NewDefaultConfig()
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaults.Format
	}
	if cfg.Logging.Fields == nil {
		cfg.Logging.Fields = defaults.Fields
	}
}

// Validate validates the configuration sections that can fail fast.
// Provider-specific validation (API keys and the like) happens in the
// component constructors.
func (c *Config) Validate() error {
	if err := c.Qdrant.Validate(); err != nil {
		return fmt.Errorf("qdrant: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	return nil
}
