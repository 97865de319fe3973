package movies

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/tastevec/ai/mock"
	"github.com/poiesic/tastevec/core"
	"github.com/poiesic/tastevec/dataset"
	"github.com/poiesic/tastevec/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureDir writes a processed catalog where tmdb:603 appears in both
// movielens and movietweetings, plus one movietweetings-only row.
func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	movielens := "movieId,title,genres,year,tmdb_id,tmdb_title,tmdb_overview\n" +
		"603,The Matrix (1999),Action|Sci-Fi,1999,603,The Matrix,A hacker learns the truth.\n"
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, dataset.MovieLensMoviesFile), []byte(movielens), 0644))

	movietweetings := "movie_id,raw_title,title,genres,year,tmdb_id\n" +
		"99,The Matrix (1999),The Matrix,Action,1999,603\n" +
		"42,Pandorum (2009),Pandorum,Sci-Fi,2009,\n"
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, dataset.MovieTweetingsMoviesFile), []byte(movietweetings), 0644))

	return dir
}

func testConfig(t *testing.T, processedDir string) *Config {
	t.Helper()
	out := t.TempDir()
	return &Config{
		Sources:        []core.Source{core.SourceMovieLens, core.SourceMovieTweetings},
		ProcessedDir:   processedDir,
		OutPath:        filepath.Join(out, "movies.vec"),
		ReportInterval: 100,
	}
}

func TestBatchEmbedderRun(t *testing.T) {
	ctx := context.Background()
	config := testConfig(t, fixtureDir(t))
	embedder := mock.NewMockEmbedder()

	batch, err := NewBatchEmbedder(embedder, config, io.Discard)
	require.NoError(t, err)
	require.NoError(t, batch.Run(ctx))

	fingerprint, rows, err := storage.ReadMovieArtifact(config.OutPath)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.NotZero(t, fingerprint)

	t.Run("distinct keys embedded exactly once", func(t *testing.T) {
		// tmdb:603 is shared, so two distinct texts total plus pandorum.
		assert.Len(t, embedder.SeenTexts(), 2)
	})

	t.Run("shared key rows carry the same vector", func(t *testing.T) {
		assert.Equal(t, "tmdb:603", rows[0].DedupKey)
		assert.Equal(t, "tmdb:603", rows[1].DedupKey)
		assert.Equal(t, rows[0].Embedding, rows[1].Embedding)
	})

	t.Run("first catalog text wins for shared keys", func(t *testing.T) {
		assert.Contains(t, embedder.SeenTexts()[0], "A hacker learns the truth")
	})

	t.Run("every row has a vector", func(t *testing.T) {
		for _, row := range rows {
			assert.NotNil(t, row.Embedding, row.DedupKey)
		}
	})

	t.Run("no partial artifact remains", func(t *testing.T) {
		_, err := os.Stat(config.OutPath + ".partial")
		assert.True(t, os.IsNotExist(err))
	})
}

func TestBatchEmbedderResume(t *testing.T) {
	ctx := context.Background()
	dir := fixtureDir(t)

	t.Run("resumes from checkpoint without re-embedding", func(t *testing.T) {
		config := testConfig(t, dir)
		config.CheckpointEvery = 1

		// First run fails after one checkpointed chunk. The chunk that
		// succeeds embeds with the mock's deterministic vectors so the
		// resumed artifact can be compared against a clean run.
		det := mock.NewMockEmbedder()
		failing := mock.NewMockEmbedder()
		calls := 0
		failing.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			calls++
			if calls > 1 {
				return nil, errors.New("backend down")
			}
			return det.EmbedTexts(ctx, texts)
		}
		batch, err := NewBatchEmbedder(failing, config, io.Discard)
		require.NoError(t, err)
		require.Error(t, batch.Run(ctx))

		_, err = os.Stat(config.PartialPath)
		require.NoError(t, err, "checkpoint should survive the failed run")

		// Second run embeds only the missing key.
		resumed := mock.NewMockEmbedder()
		batch, err = NewBatchEmbedder(resumed, config, io.Discard)
		require.NoError(t, err)
		require.NoError(t, batch.Run(ctx))

		assert.Len(t, resumed.SeenTexts(), 1)

		resumedFP, resumedRows, err := storage.ReadMovieArtifact(config.OutPath)
		require.NoError(t, err)
		for _, row := range resumedRows {
			require.NotNil(t, row.Embedding, row.DedupKey)
		}

		// A clean uninterrupted run over the same catalogs must produce
		// the identical artifact.
		control := testConfig(t, dir)
		batch, err = NewBatchEmbedder(mock.NewMockEmbedder(), control, io.Discard)
		require.NoError(t, err)
		require.NoError(t, batch.Run(ctx))

		controlFP, controlRows, err := storage.ReadMovieArtifact(control.OutPath)
		require.NoError(t, err)
		assert.Equal(t, controlFP, resumedFP)
		require.Len(t, resumedRows, len(controlRows))
		for i := range controlRows {
			assert.Equal(t, controlRows[i].DedupKey, resumedRows[i].DedupKey)
			assert.Equal(t, controlRows[i].Embedding, resumedRows[i].Embedding,
				"row %d (%s) diverged from the uninterrupted run", i, resumedRows[i].DedupKey)
		}
	})

	t.Run("stale checkpoint is ignored", func(t *testing.T) {
		config := testConfig(t, dir)
		config.PartialPath = config.OutPath + ".partial"

		// A checkpoint taken against a different corpus.
		stale := []*core.MovieRecord{{DedupKey: "tmdb:603", Embedding: []float32{9, 9}}}
		require.NoError(t, storage.WriteMovieArtifact(
			config.PartialPath, core.IDFromContent("other corpus"), stale))

		embedder := mock.NewMockEmbedder()
		batch, err := NewBatchEmbedder(embedder, config, io.Discard)
		require.NoError(t, err)
		require.NoError(t, batch.Run(ctx))

		// Everything re-embedded; the stale vector never surfaces.
		assert.Len(t, embedder.SeenTexts(), 2)
		_, rows, err := storage.ReadMovieArtifact(config.OutPath)
		require.NoError(t, err)
		assert.NotEqual(t, []float32{9, 9}, rows[0].Embedding)
	})
}

func TestCorpusFingerprint(t *testing.T) {
	keys := []string{"tmdb:603", "movietweetings:42"}
	texts := map[string]string{
		"tmdb:603":          "Title: The Matrix (1999).",
		"movietweetings:42": "Title: Pandorum (2009).",
	}

	fingerprint := corpusFingerprint(keys, texts)
	assert.NotZero(t, fingerprint)

	t.Run("stable for identical inputs", func(t *testing.T) {
		assert.Equal(t, fingerprint, corpusFingerprint(keys, texts))
	})

	t.Run("changes when a text changes", func(t *testing.T) {
		changed := map[string]string{
			"tmdb:603":          "Title: The Matrix Reloaded (2003).",
			"movietweetings:42": texts["movietweetings:42"],
		}
		assert.NotEqual(t, fingerprint, corpusFingerprint(keys, changed))
	})

	t.Run("changes when key order changes", func(t *testing.T) {
		reversed := []string{"movietweetings:42", "tmdb:603"}
		assert.NotEqual(t, fingerprint, corpusFingerprint(reversed, texts))
	})
}

func TestBatchEmbedderLimit(t *testing.T) {
	config := testConfig(t, fixtureDir(t))
	config.Limit = 1

	embedder := mock.NewMockEmbedder()
	batch, err := NewBatchEmbedder(embedder, config, io.Discard)
	require.NoError(t, err)
	require.NoError(t, batch.Run(context.Background()))

	_, rows, err := storage.ReadMovieArtifact(config.OutPath)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestBatchEmbedderErrors(t *testing.T) {
	t.Run("nil embedder rejected", func(t *testing.T) {
		_, err := NewBatchEmbedder(nil, nil, io.Discard)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("count mismatch is fatal", func(t *testing.T) {
		config := testConfig(t, fixtureDir(t))
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{1, 0}}, nil // always one vector
		}
		batch, err := NewBatchEmbedder(embedder, config, io.Discard)
		require.NoError(t, err)
		assert.Error(t, batch.Run(context.Background()))
	})

	t.Run("missing catalog propagates", func(t *testing.T) {
		config := testConfig(t, t.TempDir())
		batch, err := NewBatchEmbedder(mock.NewMockEmbedder(), config, io.Discard)
		require.NoError(t, err)
		assert.ErrorIs(t, batch.Run(context.Background()), os.ErrNotExist)
	})
}
