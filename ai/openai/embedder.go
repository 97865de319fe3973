package openai

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/tastevec/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
//
// Batching, per-text truncation, and retry on transient failures are
// internal; callers see one vector per input text or an error.
type Embedder struct {
	embedder embeddings.Embedder
	config   *ai.Config
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that
	// don't require authentication.
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		config:   config,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a remote embedder from the provided configuration.
//
// Returns the ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// truncate caps a text at the configured character budget.
// Lossy but deterministic.
func (e *Embedder) truncate(text string) string {
	max := e.config.MaxTextChars
	if max <= 0 || len(text) <= max {
		return text
	}
	return text[:max]
}

// EmbedTexts generates vector embeddings for the given texts, in order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	truncated := make([]string, len(texts))
	for i, t := range texts {
		truncated[i] = e.truncate(t)
	}

	batchSize := e.config.BatchSize
	numBatches := (len(truncated) + batchSize - 1) / batchSize
	results := make([][][]float32, numBatches)
	errs := make([]error, numBatches)

	// A sized pool caps in-flight requests at Workers. Batch order is
	// preserved by slot assignment, not completion order.
	var pool *ants.Pool
	if e.config.Workers > 1 {
		p, err := ants.NewPool(e.config.Workers)
		if err != nil {
			e.logger.Warn("falling back to sequential embedding", "err", err)
		} else {
			pool = p
			defer pool.Release()
		}
	}

	var wg sync.WaitGroup
	for b := 0; b < numBatches; b++ {
		start := b * batchSize
		end := min(start+batchSize, len(truncated))
		batch := truncated[start:end]
		slot := b

		wg.Add(1)
		task := func() {
			defer wg.Done()
			var vecs [][]float32
			err := RetryWithBackoff(ctx, func() error {
				var embedErr error
				vecs, embedErr = e.embedder.EmbedDocuments(ctx, batch)
				return embedErr
			}, e.config.MaxRetries, e.config.RetryDelay)
			if err != nil {
				errs[slot] = err
				return
			}
			if len(vecs) != len(batch) {
				errs[slot] = fmt.Errorf("%w: expected %d, got %d",
					ai.ErrCountMismatch, len(batch), len(vecs))
				return
			}
			results[slot] = vecs
			e.logger.Debug("embedded batch", "batch", slot, "texts", len(batch))
		}

		if pool != nil {
			if submitErr := pool.Submit(task); submitErr != nil {
				task()
			}
		} else {
			task()
		}
	}
	wg.Wait()

	all := make([][]float32, 0, len(truncated))
	for b := 0; b < numBatches; b++ {
		if errs[b] != nil {
			e.logger.Error("failed to generate embeddings", "batch", b, "err", errs[b])
			return nil, errs[b]
		}
		all = append(all, results[b]...)
	}

	return all, nil
}
