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


package movies

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/tastevec/ai"
	"github.com/poiesic/tastevec/core"
	"github.com/poiesic/tastevec/dataset"
	"github.com/poiesic/tastevec/storage"
)

// Config holds configuration for the movie embedding run.
type Config struct {
	// Sources are the catalogs to load, in concatenation order.
	Sources []core.Source

	// ProcessedDir is the directory holding the processed catalog tables.
	ProcessedDir string

	// OutPath is where the final movie vector artifact is written.
	OutPath string

	// PartialPath is where checkpoint artifacts are written during the
	// run. Empty defaults to OutPath + ".partial".
	PartialPath string

	// CheckpointEvery is the number of embedded texts between partial
	// writes. Zero disables checkpointing.
	CheckpointEvery int

	// Limit caps the number of loaded rows for smoke runs. Zero means
	// no cap.
	Limit int

	// ReportInterval is how often to report progress (number of texts).
	ReportInterval int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Sources: []core.Source{
			core.SourceMovieLens,
			core.SourceMovieTweetings,
			core.SourceInspired,
		},
		CheckpointEvery: 500,
		ReportInterval:  100,
	}
}

// BatchEmbedder runs the offline movie embedding pipeline.
type BatchEmbedder struct {
	embedder ai.Embedder
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewBatchEmbedder creates a new batch embedder.
// progress: where to write progress output (typically os.Stderr)
func NewBatchEmbedder(embedder ai.Embedder, config *Config, progress io.Writer) (*BatchEmbedder, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.PartialPath == "" {
		config.PartialPath = config.OutPath + ".partial"
	}
	if progress == nil {
		progress = io.Discard
	}
	return &BatchEmbedder{
		embedder: embedder,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("component", "movie_embedder"),
	}, nil
}

// Run executes the pipeline: load rows, embed each distinct dedup key
// once, broadcast vectors back to all rows, and write the artifact.
func (b *BatchEmbedder) Run(ctx context.Context) error {
	rows, err := b.loadRows()
	if err != nil {
		return err
	}

	keys, texts := worklist(rows)
	fingerprint := corpusFingerprint(keys, texts)

	done := b.loadCheckpoint(fingerprint)
	remaining := 0
	for _, key := range keys {
		if _, ok := done[key]; !ok {
			remaining++
		}
	}

	fmt.Fprintf(b.progress, "Embedding %d distinct movies (%d rows, %d already checkpointed)\n",
		len(keys), len(rows), len(keys)-remaining)

	tracker := NewProgressTracker(b.progress, remaining, b.config.ReportInterval)
	tracker.Start()

	if err := b.embedMissing(ctx, keys, texts, done, tracker); err != nil {
		return err
	}
	tracker.Finish()

	for _, row := range rows {
		row.Embedding = done[row.DedupKey]
	}

	if err := storage.WriteMovieArtifact(b.config.OutPath, fingerprint, rows); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.Remove(b.config.PartialPath); err != nil && !os.IsNotExist(err) {
		b.logger.Warn("failed to remove partial artifact", "path", b.config.PartialPath, "error", err)
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(b.progress, "Embedding complete. %d rows written in %v\n",
		len(rows), elapsed.Round(time.Second))
	return nil
}

func (b *BatchEmbedder) loadRows() ([]*core.MovieRecord, error) {
	loaded, err := dataset.LoadMovies(b.config.ProcessedDir, b.config.Sources)
	if err != nil {
		return nil, err
	}
	if len(loaded) == 0 {
		return nil, ErrNoMovies
	}
	if b.config.Limit > 0 && len(loaded) > b.config.Limit {
		loaded = loaded[:b.config.Limit]
	}
	rows := make([]*core.MovieRecord, len(loaded))
	for i := range loaded {
		row := &loaded[i]
		row.EmbeddingText = dataset.BuildEmbeddingText(row)
		row.DedupKey = row.ComputeDedupKey()
		rows[i] = row
	}
	return rows, nil
}

// worklist returns the distinct dedup keys in first-seen order and the
// text to embed per key. When catalogs disagree on a shared key, the
// first catalog's text wins.
func worklist(rows []*core.MovieRecord) (keys []string, texts map[string]string) {
	texts = make(map[string]string)
	for _, row := range rows {
		if _, ok := texts[row.DedupKey]; ok {
			continue
		}
		texts[row.DedupKey] = row.EmbeddingText
		keys = append(keys, row.DedupKey)
	}
	return keys, texts
}

// corpusFingerprint identifies the embedding input. A checkpoint taken
// against different rows, texts, or ordering hashes differently and is
// discarded.
func corpusFingerprint(keys []string, texts map[string]string) core.ID {
	var buf []byte
	for _, key := range keys {
		buf = append(buf, key...)
		buf = append(buf, 0)
		buf = append(buf, texts[key]...)
		buf = append(buf, '\n')
	}
	return core.IDFromContent(string(buf))
}

// loadCheckpoint returns the key to vector map recovered from the
// partial artifact, or an empty map when none is usable.
func (b *BatchEmbedder) loadCheckpoint(fingerprint core.ID) map[string][]float32 {
	done := make(map[string][]float32)
	if b.config.PartialPath == "" {
		return done
	}
	partialFP, records, err := storage.ReadMovieArtifact(b.config.PartialPath)
	if err != nil {
		if !os.IsNotExist(err) {
			b.logger.Warn("ignoring unreadable partial artifact",
				"path", b.config.PartialPath, "error", err)
		}
		return done
	}
	if partialFP != fingerprint {
		b.logger.Warn("ignoring stale partial artifact taken against different inputs",
			"path", b.config.PartialPath)
		return done
	}
	for _, record := range records {
		if record.Embedding != nil {
			done[record.DedupKey] = record.Embedding
		}
	}
	return done
}

func (b *BatchEmbedder) embedMissing(ctx context.Context, keys []string, texts map[string]string, done map[string][]float32, tracker *ProgressTracker) error {
	var missing []string
	for _, key := range keys {
		if _, ok := done[key]; !ok {
			missing = append(missing, key)
		}
	}

	chunkSize := b.config.CheckpointEvery
	if chunkSize <= 0 {
		chunkSize = len(missing)
	}

	processed := 0
	for start := 0; start < len(missing); start += chunkSize {
		end := start + chunkSize
		if end > len(missing) {
			end = len(missing)
		}
		chunk := missing[start:end]

		chunkTexts := make([]string, len(chunk))
		for i, key := range chunk {
			chunkTexts[i] = texts[key]
		}

		vectors, err := b.embedder.EmbedTexts(ctx, chunkTexts)
		if err != nil {
			return fmt.Errorf("embedding failed: %w", err)
		}
		if len(vectors) != len(chunk) {
			return fmt.Errorf("%w: expected %d, got %d", ai.ErrCountMismatch, len(chunk), len(vectors))
		}
		for i, key := range chunk {
			done[key] = vectors[i]
		}

		processed += len(chunk)
		tracker.Update(processed)

		if b.config.CheckpointEvery > 0 && end < len(missing) {
			if err := b.writeCheckpoint(keys, texts, done); err != nil {
				b.logger.Warn("failed to write partial artifact", "error", err)
			}
		}
	}
	return nil
}

// writeCheckpoint persists the finished portion of the worklist. Only
// keys with vectors are stored; the fingerprint binds the checkpoint
// to this exact input corpus.
func (b *BatchEmbedder) writeCheckpoint(keys []string, texts map[string]string, done map[string][]float32) error {
	records := make([]*core.MovieRecord, 0, len(done))
	for _, key := range keys {
		vector, ok := done[key]
		if !ok {
			continue
		}
		records = append(records, &core.MovieRecord{
			DedupKey:      key,
			EmbeddingText: texts[key],
			Embedding:     vector,
		})
	}
	return storage.WriteMovieArtifact(b.config.PartialPath, corpusFingerprint(keys, texts), records)
}
