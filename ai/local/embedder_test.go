package local

import (
	"context"
	"testing"

	"github.com/poiesic/tastevec/ai"
	"github.com/poiesic/tastevec/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEmbedder(t *testing.T) ai.Embedder {
	t.Helper()
	cfg := ai.NewConfig(
		ai.WithBackend(ai.BackendLocal),
		ai.WithLocalDimensions(64),
	)
	embedder, err := NewEmbedder(cfg)
	require.NoError(t, err)
	return embedder
}

func TestEmbedTexts(t *testing.T) {
	embedder := newTestEmbedder(t)
	ctx := context.Background()

	t.Run("empty input yields empty output", func(t *testing.T) {
		vecs, err := embedder.EmbedTexts(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, vecs)
	})

	t.Run("one vector per text in order", func(t *testing.T) {
		vecs, err := embedder.EmbedTexts(ctx, []string{"space opera", "film noir", "space opera"})
		require.NoError(t, err)
		require.Len(t, vecs, 3)
		assert.Equal(t, vecs[0], vecs[2])
		assert.NotEqual(t, vecs[0], vecs[1])
	})

	t.Run("vectors are unit norm", func(t *testing.T) {
		vecs, err := embedder.EmbedTexts(ctx, []string{"a gritty heist thriller set in Rome"})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, core.Norm(vecs[0]), 1e-5)
	})

	t.Run("deterministic across instances", func(t *testing.T) {
		other := newTestEmbedder(t)
		a, err := embedder.EmbedTexts(ctx, []string{"romantic comedy"})
		require.NoError(t, err)
		b, err := other.EmbedTexts(ctx, []string{"romantic comedy"})
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("empty text yields zero vector", func(t *testing.T) {
		vecs, err := embedder.EmbedTexts(ctx, []string{""})
		require.NoError(t, err)
		require.Len(t, vecs, 1)
		assert.InDelta(t, 0.0, core.Norm(vecs[0]), 1e-6)
	})

	t.Run("invalid config rejected", func(t *testing.T) {
		cfg := ai.NewConfig(
			ai.WithBackend(ai.BackendLocal),
			ai.WithLocalDimensions(0),
		)
		_, err := NewEmbedder(cfg)
		assert.Error(t, err)
	})
}
