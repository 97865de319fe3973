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


package ai

import (
	"errors"
	"strings"
	"time"
)

// BackendType selects which embedding provider a Config describes.
type BackendType string

const (
	// BackendRemote is the OpenAI-compatible remote embedding API.
	BackendRemote BackendType = "remote"
	// BackendLocal is the in-process embedder (no network).
	BackendLocal BackendType = "local"
)

// Config holds configuration for embedding backends.
type Config struct {
	// Backend selects the provider variant.
	Backend BackendType

	// EmbeddingHost is the base URL for the remote embedding API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server.
	EmbeddingHost string

	// EmbeddingModel is the model identifier for the remote backend.
	// Example: "text-embedding-3-large", "embeddinggemma"
	EmbeddingModel string

	// BatchSize is the number of texts per remote API call.
	// Default: 64
	BatchSize int

	// MaxTextChars is the per-text character budget; longer texts are
	// truncated before sending. Lossy but deterministic. Zero disables.
	// Default: 4000
	MaxTextChars int

	// Workers bounds concurrent remote batch calls. Purely a
	// backend-internal performance concern. Default: 1 (sequential).
	Workers int

	// MaxRetries is the attempt budget for transient remote failures.
	// Default: 3
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	// Default: 1s
	RetryDelay time.Duration

	// LocalDimensions is the output dimension of the local backend.
	// Default: 384
	LocalDimensions int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend selects the provider variant.
func WithBackend(backend BackendType) ConfigOption {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithEmbeddingHost sets the remote embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the remote embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithBatchSize sets the number of texts per remote API call.
func WithBatchSize(size int) ConfigOption {
	return func(c *Config) {
		c.BatchSize = size
	}
}

// WithMaxTextChars sets the per-text character budget.
func WithMaxTextChars(chars int) ConfigOption {
	return func(c *Config) {
		c.MaxTextChars = chars
	}
}

// WithWorkers bounds concurrent remote batch calls.
func WithWorkers(workers int) ConfigOption {
	return func(c *Config) {
		c.Workers = workers
	}
}

// WithRetry sets the retry budget and base backoff delay for the remote backend.
func WithRetry(maxRetries int, baseDelay time.Duration) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = baseDelay
	}
}

// WithLocalDimensions sets the local backend's output dimension.
func WithLocalDimensions(dims int) ConfigOption {
	return func(c *Config) {
		c.LocalDimensions = dims
	}
}

// DefaultConfig returns a Config with sensible defaults for a local
// OpenAI-compatible service.
func DefaultConfig() *Config {
	return &Config{
		Backend:         BackendRemote,
		EmbeddingHost:   "http://localhost:11434/v1",
		EmbeddingModel:  "embeddinggemma",
		BatchSize:       64,
		MaxTextChars:    4000,
		Workers:         1,
		MaxRetries:      3,
		RetryDelay:      time.Second,
		LocalDimensions: 384,
	}
}

// NewConfig creates a Config with default values and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form. It adds
// the /v1 suffix to the host if missing, which most OpenAI-compatible
// APIs (Ollama, LocalAI, vLLM) require.
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
}

// Validate checks that the configuration is valid and complete for the
// selected backend. It normalizes the configuration first.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Backend {
	case BackendRemote:
		if c.EmbeddingHost == "" {
			return errors.New("ai config: EmbeddingHost is required")
		}
		if c.EmbeddingModel == "" {
			return errors.New("ai config: EmbeddingModel is required")
		}
		if c.BatchSize <= 0 {
			return errors.New("ai config: BatchSize must be positive")
		}
		if c.Workers <= 0 {
			return errors.New("ai config: Workers must be positive")
		}
		if c.MaxRetries <= 0 {
			return errors.New("ai config: MaxRetries must be positive")
		}
	case BackendLocal:
		if c.LocalDimensions <= 0 {
			return errors.New("ai config: LocalDimensions must be positive")
		}
	default:
		return errors.New("ai config: unknown backend type")
	}
	return nil
}
