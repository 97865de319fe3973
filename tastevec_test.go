package tastevec

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/poiesic/tastevec/ai"
	"github.com/poiesic/tastevec/core"
	"github.com/poiesic/tastevec/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithBackend(ai.BackendLocal),
		ai.WithLocalDimensions(32),
	)
}

// buildArtifact embeds a tiny catalog with the local backend so query
// vectors and movie vectors share one space.
func buildArtifact(t *testing.T, dir string) string {
	t.Helper()

	embedder, err := NewEmbedder(localConfig())
	require.NoError(t, err)

	records := []*core.MovieRecord{
		{Source: core.SourceMovieLens, LocalID: "1", TMDBID: 603, Title: "The Matrix",
			TMDBOverview: "a hacker discovers reality is a simulation", DedupKey: "tmdb:603"},
		{Source: core.SourceMovieLens, LocalID: "2", TMDBID: 27205, Title: "Inception",
			TMDBOverview: "dream heist inside layered dreams", DedupKey: "tmdb:27205"},
		{Source: core.SourceMovieLens, LocalID: "3", TMDBID: 19404, Title: "Notebook",
			TMDBOverview: "a tender love story across the years", DedupKey: "tmdb:19404"},
	}
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.TMDBOverview
	}
	vectors, err := embedder.EmbedTexts(context.Background(), texts)
	require.NoError(t, err)
	for i := range records {
		records[i].Embedding = vectors[i]
	}

	path := filepath.Join(dir, "movies.vec")
	require.NoError(t, storage.WriteMovieArtifact(path, 1, records))
	return path
}

func TestRecommenderEndToEnd(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	artifactPath := buildArtifact(t, dir)
	statePath := filepath.Join(dir, "state")
	logPath := filepath.Join(dir, "rec_log.jsonl")

	rec, err := NewRecommender(ctx, artifactPath, statePath, logPath,
		WithAIConfig(localConfig()))
	require.NoError(t, err)
	defer rec.Close()

	t.Run("query retrieves the overlapping movie first", func(t *testing.T) {
		result, err := rec.Recommend(ctx, "u1", "a hacker discovers reality is a simulation")
		require.NoError(t, err)
		require.NotEmpty(t, result.Movies)
		assert.Equal(t, "The Matrix", result.Movies[0].Title)
		assert.Equal(t, 1, result.MsgIndex)
	})

	t.Run("tracked user accumulates state", func(t *testing.T) {
		result, err := rec.Recommend(ctx, "u1", "dream heist inside layered dreams")
		require.NoError(t, err)
		assert.Equal(t, 2, result.MsgIndex)
	})

	t.Run("catalog exposed in row order", func(t *testing.T) {
		movies := rec.Movies()
		require.Len(t, movies, 3)
		assert.Equal(t, "tmdb:603", movies[0].DedupKey)
	})
}

func TestNewEmbedderSelection(t *testing.T) {
	t.Run("local", func(t *testing.T) {
		e, err := NewEmbedder(localConfig())
		require.NoError(t, err)
		assert.NotNil(t, e)
	})

	t.Run("unknown backend rejected", func(t *testing.T) {
		_, err := NewEmbedder(ai.NewConfig(ai.WithBackend("quantum")))
		assert.Error(t, err)
	})
}
