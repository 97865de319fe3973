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


package tastevec

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/tastevec/ai"
	"github.com/poiesic/tastevec/ai/local"
	"github.com/poiesic/tastevec/ai/openai"
	"github.com/poiesic/tastevec/core"
	"github.com/poiesic/tastevec/engine"
	"github.com/poiesic/tastevec/index"
	"github.com/poiesic/tastevec/storage"
	"github.com/poiesic/tastevec/storage/badger"
	"github.com/poiesic/tastevec/storage/jsonl"
)

// Recommender bundles the movie index, user state store, interaction
// log, and embedding backend behind one handle.
type Recommender struct {
	backend *badger.Backend
	states  storage.UserStateRepository
	log     storage.InteractionLogger
	engine  *engine.Engine
	movies  []*core.MovieRecord
	logger  *slog.Logger
}

// RecommenderOption configures a Recommender.
type RecommenderOption func(*recommenderOptions)

type recommenderOptions struct {
	aiConfig     *ai.Config
	engineConfig *engine.Config
}

// WithAIConfig overrides the embedding backend configuration.
func WithAIConfig(config *ai.Config) RecommenderOption {
	return func(o *recommenderOptions) {
		o.aiConfig = config
	}
}

// WithEngineConfig overrides the online engine configuration.
func WithEngineConfig(config *engine.Config) RecommenderOption {
	return func(o *recommenderOptions) {
		o.engineConfig = config
	}
}

// NewEmbedder constructs the embedding backend the config selects.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	if config == nil {
		config = ai.DefaultConfig()
	}
	switch config.Backend {
	case ai.BackendLocal:
		return local.NewEmbedder(config)
	case ai.BackendRemote:
		return openai.NewEmbedder(config)
	default:
		return nil, fmt.Errorf("unknown embedding backend %q", config.Backend)
	}
}

// NewRecommender opens everything the online service needs: the movie
// vector artifact at artifactPath, the user state database at
// statePath, and the interaction log at logPath. Movie vectors are
// normalized on load so inner product search behaves as cosine.
func NewRecommender(ctx context.Context, artifactPath, statePath, logPath string, opts ...RecommenderOption) (*Recommender, error) {
	options := &recommenderOptions{
		aiConfig:     ai.DefaultConfig(),
		engineConfig: engine.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}
	logger := slog.Default().With("component", "recommender")

	embedder, err := NewEmbedder(options.aiConfig)
	if err != nil {
		return nil, err
	}

	movies, vectors, err := loadCatalog(artifactPath, logger)
	if err != nil {
		return nil, err
	}
	idx, err := index.NewFlatIP(vectors)
	if err != nil {
		return nil, err
	}

	backend, err := badger.OpenBackend(statePath, false)
	if err != nil {
		return nil, err
	}
	states, err := badger.NewUserStateRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	log, err := jsonl.Open(logPath)
	if err != nil {
		states.Close()
		backend.Close()
		return nil, err
	}

	eng, err := engine.NewEngine(ctx, embedder, idx, movies, states, log, options.engineConfig)
	if err != nil {
		log.Close()
		states.Close()
		backend.Close()
		return nil, err
	}

	return &Recommender{
		backend: backend,
		states:  states,
		log:     log,
		engine:  eng,
		movies:  movies,
		logger:  logger,
	}, nil
}

// loadCatalog reads the movie artifact, drops rows without vectors, and
// normalizes the rest.
func loadCatalog(artifactPath string, logger *slog.Logger) ([]*core.MovieRecord, [][]float32, error) {
	_, records, err := storage.ReadMovieArtifact(artifactPath)
	if err != nil {
		return nil, nil, err
	}

	var movies []*core.MovieRecord
	var vectors [][]float32
	dropped := 0
	for _, record := range records {
		if len(record.Embedding) == 0 {
			dropped++
			continue
		}
		record.Embedding = core.Normalize(record.Embedding)
		movies = append(movies, record)
		vectors = append(vectors, record.Embedding)
	}
	if dropped > 0 {
		logger.Warn("dropped rows without vectors", "dropped", dropped, "kept", len(movies))
	}
	return movies, vectors, nil
}

// Recommend runs one recommendation turn. An empty userID makes the
// turn anonymous and stateless.
func (r *Recommender) Recommend(ctx context.Context, userID, userInput string) (*engine.Result, error) {
	return r.engine.Recommend(ctx, userID, userInput)
}

// Movies returns the indexed catalog in row order.
func (r *Recommender) Movies() []*core.MovieRecord {
	return r.movies
}

// Close releases the log, state store, and database.
func (r *Recommender) Close() error {
	if err := r.log.Close(); err != nil {
		r.logger.Error("error closing interaction log", "err", err)
		return err
	}
	if err := r.states.Close(); err != nil {
		r.logger.Error("error closing user state repository", "err", err)
		return err
	}
	if err := r.backend.Close(); err != nil {
		r.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
