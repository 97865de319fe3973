package users

import (
	"context"
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

func writeMovieArtifact(t *testing.T, dir string, records []*core.MovieRecord) string {
	t.Helper()
	path := filepath.Join(dir, "movies.vec")
	require.NoError(t, storage.WriteMovieArtifact(path, 1, records))
	return path
}

func writeRatings(t *testing.T, dir, contents string) {
	t.Helper()
	path := filepath.Join(dir, dataset.MovieLensRatingsFile)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func testConfig(t *testing.T, processedDir, moviePath string) *Config {
	t.Helper()
	config := DefaultConfig()
	config.ProcessedDir = processedDir
	config.MovieArtifactPath = moviePath
	config.OutPath = filepath.Join(t.TempDir(), "users.vec")
	config.MinMovies = 2
	return config
}

func readUsers(t *testing.T, path string) map[string]*core.UserVector {
	t.Helper()
	vectors, err := storage.ReadUserArtifact(path)
	require.NoError(t, err)
	byID := make(map[string]*core.UserVector, len(vectors))
	for _, v := range vectors {
		byID[v.UserID] = v
	}
	return byID
}

func TestRatingEmbeddings(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	moviePath := writeMovieArtifact(t, dir, []*core.MovieRecord{
		{Source: core.SourceMovieLens, LocalID: "1", Embedding: []float32{1, 0}},
		{Source: core.SourceMovieLens, LocalID: "2", Embedding: []float32{0, 1}},
		{Source: core.SourceMovieTweetings, LocalID: "3", Embedding: []float32{9, 9}},
	})
	writeRatings(t, dir,
		"userId,movieId,rating,timestamp\n"+
			"7,1,5.0,100\n"+
			"7,2,4.0,100\n"+
			"7,3,5.0,100\n"+ // filtered out: wrong catalog
			"8,1,3.0,100\n"+ // below threshold
			"8,2,4.5,100\n") // only one liked movie, below MinMovies

	config := testConfig(t, dir, moviePath)
	config.UseText = false

	agg, err := NewAggregator(nil, config)
	require.NoError(t, err)
	require.NoError(t, agg.Run(ctx))

	byID := readUsers(t, config.OutPath)
	require.Len(t, byID, 1)

	user := byID["7"]
	require.NotNil(t, user)
	assert.Equal(t, []float32{0.5, 0.5}, user.Embedding)
	assert.Equal(t, []float32{0.5, 0.5}, user.EmbeddingRating)
	assert.Nil(t, user.EmbeddingText)
	assert.Equal(t, 2, user.NumMovies)
}

func TestTextAndMixing(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	moviePath := writeMovieArtifact(t, dir, []*core.MovieRecord{
		{Source: core.SourceMovieLens, LocalID: "1", Embedding: []float32{1, 0}},
		{Source: core.SourceMovieLens, LocalID: "2", Embedding: []float32{1, 0}},
	})
	writeRatings(t, dir,
		"userId,movieId,rating,timestamp\n"+
			"7,1,5.0,100\n"+
			"7,2,5.0,100\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, dataset.CCPEDialoguesFile),
		[]byte("dialog_id,utterance_index,speaker,text\n"+
			"7,0,USER,I love thrillers\n"+
			"7,1,USER,and heist movies\n"), 0644))

	config := testConfig(t, dir, moviePath)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{0, 1}
		}
		return vectors, nil
	}

	agg, err := NewAggregator(embedder, config)
	require.NoError(t, err)
	require.NoError(t, agg.Run(ctx))

	byID := readUsers(t, config.OutPath)

	t.Run("utterances concatenate into one profile", func(t *testing.T) {
		assert.Equal(t, []string{"I love thrillers and heist movies"}, embedder.SeenTexts())
	})

	t.Run("text-only user keeps text vector", func(t *testing.T) {
		user := byID["ccpe:7"]
		require.NotNil(t, user)
		assert.Equal(t, []float32{0, 1}, user.Embedding)
		assert.Nil(t, user.EmbeddingRating)
		assert.Equal(t, 0, user.NumMovies)
	})

	t.Run("rating-only user keeps rating vector", func(t *testing.T) {
		user := byID["7"]
		require.NotNil(t, user)
		assert.Equal(t, []float32{1, 0}, user.Embedding)
	})
}

func TestAlphaMix(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	moviePath := writeMovieArtifact(t, dir, []*core.MovieRecord{
		{Source: core.SourceMovieLens, LocalID: "1", Embedding: []float32{1, 0}},
		{Source: core.SourceMovieLens, LocalID: "2", Embedding: []float32{1, 0}},
	})
	writeRatings(t, dir,
		"userId,movieId,rating,timestamp\n"+
			"ccpe:7,1,5.0,100\n"+
			"ccpe:7,2,5.0,100\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, dataset.CCPEDialoguesFile),
		[]byte("dialog_id,utterance_index,speaker,text\n7,0,USER,dragons\n"), 0644))

	config := testConfig(t, dir, moviePath)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{0, 1}}, nil
	}

	agg, err := NewAggregator(embedder, config)
	require.NoError(t, err)
	require.NoError(t, agg.Run(ctx))

	// final = 0.7*rating + 0.3*text, unnormalized
	byID := readUsers(t, config.OutPath)
	user := byID["ccpe:7"]
	require.NotNil(t, user)
	assert.InDelta(t, 0.7, user.Embedding[0], 1e-6)
	assert.InDelta(t, 0.3, user.Embedding[1], 1e-6)
}

func TestDimensionMismatchFallsBackToRating(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	moviePath := writeMovieArtifact(t, dir, []*core.MovieRecord{
		{Source: core.SourceMovieLens, LocalID: "1", Embedding: []float32{1, 0}},
		{Source: core.SourceMovieLens, LocalID: "2", Embedding: []float32{1, 0}},
	})
	writeRatings(t, dir,
		"userId,movieId,rating,timestamp\n"+
			"ccpe:7,1,5.0,100\n"+
			"ccpe:7,2,5.0,100\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, dataset.CCPEDialoguesFile),
		[]byte("dialog_id,utterance_index,speaker,text\n7,0,USER,dragons\n"), 0644))

	config := testConfig(t, dir, moviePath)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{0, 1, 0}}, nil // wrong dimension
	}

	agg, err := NewAggregator(embedder, config)
	require.NoError(t, err)
	require.NoError(t, agg.Run(ctx))

	byID := readUsers(t, config.OutPath)
	user := byID["ccpe:7"]
	require.NotNil(t, user)
	assert.Equal(t, []float32{1, 0}, user.Embedding)
	assert.Equal(t, []float32{0, 1, 0}, user.EmbeddingText)
}

func TestAggregatorErrors(t *testing.T) {
	t.Run("text enabled without embedder", func(t *testing.T) {
		config := DefaultConfig()
		_, err := NewAggregator(nil, config)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("missing ratings file propagates", func(t *testing.T) {
		dir := t.TempDir()
		moviePath := writeMovieArtifact(t, dir, []*core.MovieRecord{
			{Source: core.SourceMovieLens, LocalID: "1", Embedding: []float32{1, 0}},
		})
		config := testConfig(t, dir, moviePath)
		config.UseText = false

		agg, err := NewAggregator(nil, config)
		require.NoError(t, err)
		assert.ErrorIs(t, agg.Run(context.Background()), os.ErrNotExist)
	})

	t.Run("no users is an error", func(t *testing.T) {
		dir := t.TempDir()
		moviePath := writeMovieArtifact(t, dir, nil)
		writeRatings(t, dir, "userId,movieId,rating,timestamp\n")

		config := testConfig(t, dir, moviePath)
		config.UseText = false

		agg, err := NewAggregator(nil, config)
		require.NoError(t, err)
		assert.ErrorIs(t, agg.Run(context.Background()), ErrNoUsers)
	})
}
