package embeddings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
	assert.Equal(t, "text-embedding-3-small", cfg.Model)
	assert.Equal(t, 1536, cfg.Dimension)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{BaseURL: "http://localhost:8080/v1", Model: "m", Dimension: 1536}, false},
		{"missing base url", Config{Model: "m", Dimension: 1536}, true},
		{"missing model", Config{BaseURL: "http://x", Dimension: 1536}, true},
		{"zero dimension", Config{BaseURL: "http://x", Model: "m"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNewServiceDefaultsApply(t *testing.T) {
	// No API key is valid: a local TEI server does not need one.
	svc, err := NewService(Config{BaseURL: "http://localhost:8080/v1"})
	require.NoError(t, err)
	assert.Equal(t, 1536, svc.Dimension())
}

func TestEmbedQueryEmptyInput(t *testing.T) {
	svc, err := NewService(Config{BaseURL: "http://localhost:8080/v1"})
	require.NoError(t, err)

	_, err = svc.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}
