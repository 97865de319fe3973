// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/poiesic/tastevec/ai"
	"github.com/poiesic/tastevec/core"
	"github.com/poiesic/tastevec/dataset"
	"github.com/poiesic/tastevec/storage"
)

// Config holds configuration for the user aggregation run.
type Config struct {
	// ProcessedDir is the directory holding the processed tables.
	ProcessedDir string

	// MovieArtifactPath is the movie vector artifact to draw rated
	// movie vectors from.
	MovieArtifactPath string

	// OutPath is where the user vector artifact is written.
	OutPath string

	// RatingThreshold is the minimum rating that counts as "liked".
	RatingThreshold float64

	// MinMovies is the minimum number of liked movies with vectors a
	// user needs for a rating-based embedding.
	MinMovies int

	// MixAlpha weights the rating side of the final mix:
	// final = alpha*rating + (1-alpha)*text.
	MixAlpha float32

	// SourceFilter restricts which catalog's vectors serve rating
	// aggregation. Empty means all catalogs.
	SourceFilter core.Source

	// UseText enables dialogue text profiles.
	UseText bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RatingThreshold: 4.0,
		MinMovies:       3,
		MixAlpha:        0.7,
		SourceFilter:    core.SourceMovieLens,
		UseText:         true,
	}
}

// Aggregator runs the offline user embedding pipeline.
type Aggregator struct {
	embedder ai.Embedder
	config   *Config
	logger   *slog.Logger
}

// NewAggregator creates a new aggregator. An embedder is required only
// when text profiles are enabled.
func NewAggregator(embedder ai.Embedder, config *Config) (*Aggregator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.UseText && embedder == nil {
		return nil, ErrEmbedderRequired
	}
	return &Aggregator{
		embedder: embedder,
		config:   config,
		logger:   slog.Default().With("component", "user_aggregator"),
	}, nil
}

// Run executes the pipeline and writes the user vector artifact.
func (a *Aggregator) Run(ctx context.Context) error {
	ratingVecs, movieCounts, err := a.buildRatingEmbeddings()
	if err != nil {
		return err
	}

	textVecs := map[string][]float32{}
	if a.config.UseText {
		textVecs, err = a.buildTextEmbeddings(ctx)
		if err != nil {
			return err
		}
	}

	vectors := a.merge(ratingVecs, textVecs, movieCounts)
	if len(vectors) == 0 {
		return ErrNoUsers
	}

	if err := storage.WriteUserArtifact(a.config.OutPath, vectors); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	a.logger.Info("user embeddings written",
		"users", len(vectors), "path", a.config.OutPath)
	return nil
}

// buildRatingEmbeddings computes the mean liked-movie vector per user.
func (a *Aggregator) buildRatingEmbeddings() (map[string][]float32, map[string]int, error) {
	movieVecs, err := a.loadMovieVectors()
	if err != nil {
		return nil, nil, err
	}

	ratings, err := dataset.LoadRatings(
		filepath.Join(a.config.ProcessedDir, dataset.MovieLensRatingsFile))
	if err != nil {
		return nil, nil, err
	}

	liked := make(map[string][][]float32)
	for _, r := range ratings {
		if r.Rating < a.config.RatingThreshold {
			continue
		}
		vec, ok := movieVecs[r.MovieID]
		if !ok {
			continue
		}
		liked[r.UserID] = append(liked[r.UserID], vec)
	}

	vectors := make(map[string][]float32)
	counts := make(map[string]int)
	for userID, vecs := range liked {
		if len(vecs) < a.config.MinMovies {
			continue
		}
		vectors[userID] = core.Mean(vecs)
		counts[userID] = len(vecs)
	}
	a.logger.Info("rating embeddings built",
		"users", len(vectors), "movies", len(movieVecs))
	return vectors, counts, nil
}

// loadMovieVectors maps local movie id to vector, restricted to the
// configured catalog.
func (a *Aggregator) loadMovieVectors() (map[string][]float32, error) {
	_, records, err := storage.ReadMovieArtifact(a.config.MovieArtifactPath)
	if err != nil {
		return nil, err
	}
	vectors := make(map[string][]float32)
	for _, record := range records {
		if a.config.SourceFilter != "" && record.Source != a.config.SourceFilter {
			continue
		}
		if record.Embedding == nil {
			continue
		}
		vectors[record.LocalID] = record.Embedding
	}
	return vectors, nil
}

// buildTextEmbeddings concatenates each profile key's utterances and
// embeds every profile in one call.
func (a *Aggregator) buildTextEmbeddings(ctx context.Context) (map[string][]float32, error) {
	profiles, order := a.collectTextProfiles()
	if len(order) == 0 {
		a.logger.Info("no text profiles found, skipping text embeddings")
		return map[string][]float32{}, nil
	}

	texts := make([]string, len(order))
	for i, key := range order {
		texts[i] = profiles[key]
	}
	a.logger.Info("encoding text profiles", "profiles", len(texts))

	vectors, err := a.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d, got %d",
			ai.ErrCountMismatch, len(texts), len(vectors))
	}

	result := make(map[string][]float32, len(order))
	for i, key := range order {
		result[key] = vectors[i]
	}
	return result, nil
}

// collectTextProfiles gathers per-key concatenated dialogue text from
// every dialogue table that exists and has the expected shape. A
// missing or structurally incompatible table skips that source only.
func (a *Aggregator) collectTextProfiles() (map[string]string, []string) {
	loaders := []struct {
		name string
		file string
		load func(string) ([]dataset.Utterance, error)
	}{
		{"ccpe", dataset.CCPEDialoguesFile, dataset.LoadCCPEUtterances},
		{"inspired", dataset.InspiredDialogsFile, dataset.LoadInspiredUtterances},
		{"redial", dataset.RedialDialoguesFile, dataset.LoadRedialUtterances},
	}

	profiles := make(map[string]string)
	var order []string
	for _, l := range loaders {
		utterances, err := l.load(filepath.Join(a.config.ProcessedDir, l.file))
		if err != nil {
			if os.IsNotExist(err) {
				a.logger.Info("dialogue table not found, skipping", "source", l.name)
				continue
			}
			if errors.Is(err, dataset.ErrMissingColumns) {
				a.logger.Warn("dialogue table missing required columns, skipping",
					"source", l.name, "error", err)
				continue
			}
			a.logger.Warn("failed to load dialogue table, skipping",
				"source", l.name, "error", err)
			continue
		}
		for _, u := range utterances {
			if strings.TrimSpace(u.Text) == "" {
				continue
			}
			if existing, ok := profiles[u.Key]; ok {
				profiles[u.Key] = existing + " " + u.Text
			} else {
				profiles[u.Key] = u.Text
				order = append(order, u.Key)
			}
		}
	}
	return profiles, order
}

// merge outer-joins the rating and text embeddings and alpha-mixes
// users carrying both. A dimension mismatch keeps the rating vector and
// warns rather than failing the run.
func (a *Aggregator) merge(ratingVecs, textVecs map[string][]float32, movieCounts map[string]int) []*core.UserVector {
	ids := make(map[string]bool, len(ratingVecs)+len(textVecs))
	for id := range ratingVecs {
		ids[id] = true
	}
	for id := range textVecs {
		ids[id] = true
	}
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	vectors := make([]*core.UserVector, 0, len(sorted))
	for _, id := range sorted {
		r := ratingVecs[id]
		t := textVecs[id]

		var final []float32
		switch {
		case r != nil && t != nil:
			if len(r) == len(t) {
				final = core.Mix(r, t, a.config.MixAlpha)
			} else {
				a.logger.Warn("dimension mismatch, using rating vector only",
					"user_id", id, "rating_dim", len(r), "text_dim", len(t))
				final = r
			}
		case r != nil:
			final = r
		case t != nil:
			final = t
		}

		vectors = append(vectors, &core.UserVector{
			UserID:          id,
			Embedding:       final,
			EmbeddingRating: r,
			EmbeddingText:   t,
			NumMovies:       movieCounts[id],
		})
	}
	return vectors
}
