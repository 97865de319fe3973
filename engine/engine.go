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


package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/tastevec/ai"
	"github.com/poiesic/tastevec/core"
	"github.com/poiesic/tastevec/index"
	"github.com/poiesic/tastevec/storage"
)

// Config holds configuration for the online engine.
type Config struct {
	// FuseBeta weights the previous taste in the moving average:
	// fused = beta*prev + (1-beta)*new.
	FuseBeta float32

	// TopK is the retrieval breadth per interaction.
	TopK int

	// FinalK is the number of results surfaced to the caller.
	FinalK int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		FuseBeta: 0.8,
		TopK:     20,
		FinalK:   5,
	}
}

// Result is one recommendation turn.
type Result struct {
	// UserID echoes the caller's id; empty for anonymous turns.
	UserID string

	// MsgIndex is the 1-based position of this message in the user's
	// sequence. Zero for anonymous turns.
	MsgIndex int

	// UserVec is the vector that drove retrieval.
	UserVec []float32

	// Movies holds the FinalK best hits with their metadata.
	Movies []core.MovieSummary
}

// Engine fuses per-message taste vectors with stored user state and
// retrieves candidates from the movie index.
type Engine struct {
	embedder ai.Embedder
	index    *index.FlatIP
	movies   []*core.MovieRecord
	states   storage.UserStateRepository
	log      storage.InteractionLogger
	config   *Config
	logger   *slog.Logger

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
	vectors   map[string][]float32
	counts    map[string]int
}

// NewEngine creates an engine and seeds its in-memory tables from the
// state repository and the interaction log.
func NewEngine(ctx context.Context, embedder ai.Embedder, idx *index.FlatIP, movies []*core.MovieRecord, states storage.UserStateRepository, log storage.InteractionLogger, config *Config) (*Engine, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if len(movies) != idx.Len() {
		return nil, fmt.Errorf("%w: %d rows, index has %d", ErrCatalogMismatch, len(movies), idx.Len())
	}
	if config == nil {
		config = DefaultConfig()
	}

	e := &Engine{
		embedder:  embedder,
		index:     idx,
		movies:    movies,
		states:    states,
		log:       log,
		config:    config,
		logger:    slog.Default().With("component", "engine"),
		userLocks: make(map[string]*sync.Mutex),
		vectors:   make(map[string][]float32),
		counts:    make(map[string]int),
	}

	if states != nil {
		loaded, err := states.LoadAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load user states: %w", err)
		}
		for _, state := range loaded {
			if state.Embedding != nil {
				e.vectors[state.UserID] = state.Embedding
			}
		}
	}
	if log != nil {
		counts, err := log.LastIndices()
		if err != nil {
			return nil, fmt.Errorf("failed to recover message counters: %w", err)
		}
		e.counts = counts
	}

	e.logger.Info("engine ready",
		"movies", idx.Len(), "tracked_users", len(e.vectors))
	return e, nil
}

// NewSessionID returns an ephemeral user id for callers that want
// continuity within one session without a stable identity.
func NewSessionID() string {
	return "session-" + uuid.NewString()
}

// Recommend embeds the message, fuses it with the user's stored taste
// when userID is non-empty, and retrieves the closest movies. Anonymous
// turns (empty userID) are stateless.
func (e *Engine) Recommend(ctx context.Context, userID, userInput string) (*Result, error) {
	if strings.TrimSpace(userInput) == "" {
		return nil, ErrEmptyInput
	}

	embedded, err := e.embedder.EmbedTexts(ctx, []string{userInput})
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(embedded) != 1 {
		return nil, fmt.Errorf("%w: expected 1, got %d", ai.ErrCountMismatch, len(embedded))
	}
	newVec := core.Normalize(embedded[0])

	if userID == "" {
		return e.anonymousTurn(newVec)
	}
	return e.trackedTurn(ctx, userID, userInput, newVec)
}

// anonymousTurn retrieves with the message vector alone. No state, no
// log entry.
func (e *Engine) anonymousTurn(vec []float32) (*Result, error) {
	hits, err := e.index.Search(vec, e.config.TopK)
	if err != nil {
		return nil, err
	}
	return &Result{
		UserVec: vec,
		Movies:  e.summarize(hits),
	}, nil
}

// trackedTurn serializes the read-modify-write per user so concurrent
// messages from one user fold in one at a time.
func (e *Engine) trackedTurn(ctx context.Context, userID, userInput string, newVec []float32) (*Result, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	e.mu.Lock()
	prev := e.vectors[userID]
	e.mu.Unlock()

	userVec := newVec
	if prev != nil && len(prev) == len(newVec) {
		userVec = core.Normalize(core.Mix(prev, newVec, e.config.FuseBeta))
	} else if prev != nil {
		e.logger.Warn("stored taste has wrong dimension, starting fresh",
			"user_id", userID, "stored_dim", len(prev), "new_dim", len(newVec))
	}

	msgIndex := e.advance(userID, userVec)

	if e.states != nil {
		err := e.states.Save(ctx, &core.UserState{
			UserID:    userID,
			Embedding: userVec,
			UpdatedAt: time.Now().UTC(),
		})
		if err != nil {
			e.logger.Warn("failed to persist user state", "user_id", userID, "error", err)
		}
	}

	hits, err := e.index.Search(userVec, e.config.TopK)
	if err != nil {
		return nil, err
	}

	e.appendLog(userID, userInput, msgIndex, userVec, hits)

	return &Result{
		UserID:   userID,
		MsgIndex: msgIndex,
		UserVec:  userVec,
		Movies:   e.summarize(hits),
	}, nil
}

func (e *Engine) userLock(userID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.userLocks[userID] = lock
	}
	return lock
}

// advance stores the fused vector and bumps the user's message counter.
func (e *Engine) advance(userID string, vec []float32) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vectors[userID] = vec
	e.counts[userID]++
	return e.counts[userID]
}

// appendLog writes the interaction record. A failed append is warned
// about, never surfaced; retrieval already succeeded.
func (e *Engine) appendLog(userID, userInput string, msgIndex int, userVec []float32, hits []index.Hit) {
	if e.log == nil {
		return
	}
	indices := make([]int, len(hits))
	scores := make([]float32, len(hits))
	for i, hit := range hits {
		indices[i] = hit.Index
		scores[i] = hit.Score
	}
	err := e.log.Append(&core.InteractionRecord{
		Timestamp:        time.Now().UTC(),
		UserID:           userID,
		MsgIndex:         msgIndex,
		UserInput:        userInput,
		UserVec:          userVec,
		CandidateIndices: indices,
		CandidateScores:  scores,
		FinalK:           e.config.FinalK,
	})
	if err != nil {
		e.logger.Warn("failed to append interaction log", "user_id", userID, "error", err)
	}
}

// summarize maps the best FinalK hits to their catalog metadata.
func (e *Engine) summarize(hits []index.Hit) []core.MovieSummary {
	n := e.config.FinalK
	if n > len(hits) {
		n = len(hits)
	}
	summaries := make([]core.MovieSummary, n)
	for i := 0; i < n; i++ {
		summaries[i] = e.movieSummary(hits[i])
	}
	return summaries
}

func (e *Engine) movieSummary(hit index.Hit) core.MovieSummary {
	record := e.movies[hit.Index]

	title := record.TMDBTitle
	if title == "" {
		title = record.Title
	}
	if title == "" {
		title = record.RawTitle
	}
	genres := record.TMDBGenres
	if genres == "" {
		genres = record.Genres
	}
	overview := record.TMDBOverview
	if overview == "" {
		overview = record.LongPlot
	}
	if overview == "" {
		overview = record.ShortPlot
	}
	cast := record.TMDBTopCast
	if cast == "" {
		cast = record.Actors
	}

	return core.MovieSummary{
		Index:    hit.Index,
		DedupKey: record.DedupKey,
		Title:    title,
		Year:     record.Year,
		Genres:   genres,
		Overview: overview,
		Cast:     cast,
		Score:    hit.Score,
	}
}
