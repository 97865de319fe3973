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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/tastevec"
	"github.com/poiesic/tastevec/ai"
	"github.com/poiesic/tastevec/core"
	"github.com/poiesic/tastevec/engine"
	"github.com/poiesic/tastevec/movies"
	"github.com/poiesic/tastevec/users"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "tastevec",
		Usage: "Taste embedding pipelines and online movie retrieval",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "embed-movies",
				Usage:  "Embed the movie catalog and write the movie vector artifact",
				Action: embedMoviesCommand,
				Flags: append(embeddingFlags(),
					&cli.StringFlag{
						Name:     "processed-dir",
						Aliases:  []string{"p"},
						Usage:    "Directory holding the processed catalog tables",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Output path for the movie vector artifact",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "sources",
						Usage: "Comma-separated catalogs to load",
						Value: "movielens,movietweetings,inspired",
					},
					&cli.IntFlag{
						Name:  "checkpoint-every",
						Usage: "Write a partial artifact every N embedded texts (0 disables)",
						Value: 500,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Only process the first N rows (0 means all)",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N texts",
						Value: 100,
					},
				),
			},
			{
				Name:   "embed-users",
				Usage:  "Aggregate user taste vectors and write the user vector artifact",
				Action: embedUsersCommand,
				Flags: append(embeddingFlags(),
					&cli.StringFlag{
						Name:     "processed-dir",
						Aliases:  []string{"p"},
						Usage:    "Directory holding the processed tables",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "movie-artifact",
						Aliases:  []string{"m"},
						Usage:    "Path to the movie vector artifact",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Output path for the user vector artifact",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  "rating-threshold",
						Usage: "Minimum rating that counts as liked",
						Value: 4.0,
					},
					&cli.IntFlag{
						Name:  "min-movies",
						Usage: "Minimum liked movies with vectors per user",
						Value: 3,
					},
					&cli.Float64Flag{
						Name:  "mix-alpha",
						Usage: "Weight of the rating vector in the final mix",
						Value: 0.7,
					},
					&cli.StringFlag{
						Name:  "source-filter",
						Usage: "Catalog whose vectors serve rating aggregation (empty for all)",
						Value: "movielens",
					},
					&cli.BoolFlag{
						Name:  "no-text",
						Usage: "Skip dialogue text profiles",
					},
				),
			},
			{
				Name:   "query",
				Usage:  "Run one recommendation turn against the movie index",
				Action: queryCommand,
				Flags: append(embeddingFlags(),
					&cli.StringFlag{
						Name:     "movie-artifact",
						Aliases:  []string{"m"},
						Usage:    "Path to the movie vector artifact",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "state",
						Usage: "Path to the user state database directory",
						Value: "./taste_state",
					},
					&cli.StringFlag{
						Name:  "log",
						Usage: "Path to the interaction log",
						Value: "./rec_log.jsonl",
					},
					&cli.StringFlag{
						Name:    "user",
						Aliases: []string{"u"},
						Usage:   "User id (empty for an anonymous one-shot turn)",
					},
					&cli.BoolFlag{
						Name:  "session",
						Usage: "Generate an ephemeral session id for this turn",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// embeddingFlags are shared by every command that touches an embedding
// backend.
func embeddingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "backend",
			Usage: "Embedding backend (remote, local)",
			Value: "remote",
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of texts per remote API call",
			Value: 64,
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Concurrent remote batch calls",
			Value: 1,
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum retry attempts for failed operations",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 1 * time.Second,
		},
		&cli.IntFlag{
			Name:  "local-dims",
			Usage: "Output dimension of the local backend",
			Value: 384,
		},
	}
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	config := ai.NewConfig(
		ai.WithBackend(ai.BackendType(c.String("backend"))),
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithBatchSize(c.Int("batch-size")),
		ai.WithWorkers(c.Int("workers")),
		ai.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")),
		ai.WithLocalDimensions(c.Int("local-dims")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedding configuration: %w", err)
	}
	return config, nil
}

func parseSources(s string) ([]core.Source, error) {
	var sources []core.Source
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		source := core.Source(part)
		if err := core.ValidateSource(source); err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources given")
	}
	return sources, nil
}

func embedMoviesCommand(c *cli.Context) error {
	ctx := context.Background()

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}
	embedder, err := tastevec.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	sources, err := parseSources(c.String("sources"))
	if err != nil {
		return err
	}

	config := &movies.Config{
		Sources:         sources,
		ProcessedDir:    c.String("processed-dir"),
		OutPath:         c.String("out"),
		CheckpointEvery: c.Int("checkpoint-every"),
		Limit:           c.Int("limit"),
		ReportInterval:  c.Int("report-interval"),
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	batch, err := movies.NewBatchEmbedder(embedder, config, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Processed dir: %s\n", config.ProcessedDir)
	fmt.Fprintf(os.Stderr, "Sources: %s\n", c.String("sources"))
	fmt.Fprintf(os.Stderr, "Artifact: %s\n", config.OutPath)
	fmt.Fprintln(os.Stderr)

	if err := batch.Run(ctx); err != nil {
		return fmt.Errorf("movie embedding failed: %w", err)
	}
	return nil
}

func embedUsersCommand(c *cli.Context) error {
	ctx := context.Background()

	config := &users.Config{
		ProcessedDir:      c.String("processed-dir"),
		MovieArtifactPath: c.String("movie-artifact"),
		OutPath:           c.String("out"),
		RatingThreshold:   c.Float64("rating-threshold"),
		MinMovies:         c.Int("min-movies"),
		MixAlpha:          float32(c.Float64("mix-alpha")),
		SourceFilter:      core.Source(c.String("source-filter")),
		UseText:           !c.Bool("no-text"),
	}
	if config.SourceFilter != "" {
		if err := core.ValidateSource(config.SourceFilter); err != nil {
			return err
		}
	}

	var embedder ai.Embedder
	if config.UseText {
		aiConfig, err := aiConfigFromFlags(c)
		if err != nil {
			return err
		}
		embedder, err = tastevec.NewEmbedder(aiConfig)
		if err != nil {
			return fmt.Errorf("failed to create embedder: %w", err)
		}
	}

	agg, err := users.NewAggregator(embedder, config)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Processed dir: %s\n", config.ProcessedDir)
	fmt.Fprintf(os.Stderr, "Movie artifact: %s\n", config.MovieArtifactPath)
	fmt.Fprintf(os.Stderr, "Artifact: %s\n", config.OutPath)
	fmt.Fprintln(os.Stderr)

	if err := agg.Run(ctx); err != nil {
		return fmt.Errorf("user aggregation failed: %w", err)
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() == 0 {
		return fmt.Errorf("usage: tastevec query [flags] <message>")
	}
	userInput := strings.Join(c.Args().Slice(), " ")

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	rec, err := tastevec.NewRecommender(ctx,
		c.String("movie-artifact"), c.String("state"), c.String("log"),
		tastevec.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open recommender: %w", err)
	}
	defer rec.Close()

	userID := c.String("user")
	if userID == "" && c.Bool("session") {
		userID = engine.NewSessionID()
		fmt.Fprintf(os.Stderr, "Session id: %s\n", userID)
	}

	result, err := rec.Recommend(ctx, userID, userInput)
	if err != nil {
		return fmt.Errorf("recommendation failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(result.Movies))
	for i, movie := range result.Movies {
		year := ""
		if movie.Year > 0 {
			year = fmt.Sprintf(" (%d)", movie.Year)
		}
		fmt.Printf("%d: '%s'%s [%0.3f] %s\n", i, movie.Title, year, movie.Score, movie.Genres)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
