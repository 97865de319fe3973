package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, BackendRemote, cfg.Backend)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, 64, cfg.BatchSize)
	assert.Equal(t, 4000, cfg.MaxTextChars)
	assert.Equal(t, 384, cfg.LocalDimensions)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		// Should have default values
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, 1, cfg.Workers)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
	})

	t.Run("with custom model", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingModel("text-embedding-3-small"))

		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	})

	t.Run("with local backend", func(t *testing.T) {
		cfg := NewConfig(
			WithBackend(BackendLocal),
			WithLocalDimensions(64),
		)

		assert.Equal(t, BackendLocal, cfg.Backend)
		assert.Equal(t, 64, cfg.LocalDimensions)
	})

	t.Run("with retry settings", func(t *testing.T) {
		cfg := NewConfig(WithRetry(5, 2*time.Second))

		assert.Equal(t, 5, cfg.MaxRetries)
		assert.Equal(t, 2*time.Second, cfg.RetryDelay)
	})
}

func TestNormalize(t *testing.T) {
	t.Run("adds v1 suffix", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingHost("http://localhost:11434"))
		cfg.Normalize()

		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	t.Run("strips trailing slash before appending", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingHost("http://localhost:11434/"))
		cfg.Normalize()

		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	t.Run("leaves canonical host alone", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingHost("http://localhost:11434/v1"))
		cfg.Normalize()

		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})
}

func TestValidate(t *testing.T) {
	t.Run("default remote config is valid", func(t *testing.T) {
		require.NoError(t, DefaultConfig().Validate())
	})

	t.Run("remote requires a model", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingModel(""))
		assert.Error(t, cfg.Validate())
	})

	t.Run("remote requires positive batch size", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.BatchSize = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("local ignores remote fields", func(t *testing.T) {
		cfg := NewConfig(WithBackend(BackendLocal), WithEmbeddingModel(""))
		require.NoError(t, cfg.Validate())
	})

	t.Run("local requires positive dimensions", func(t *testing.T) {
		cfg := NewConfig(WithBackend(BackendLocal), WithLocalDimensions(0))
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown backend rejected", func(t *testing.T) {
		cfg := NewConfig(WithBackend("quantum"))
		assert.Error(t, cfg.Validate())
	})
}
