package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier derived from content.
// It is used to fingerprint batch inputs so a stale checkpoint is never
// resumed against a different source table.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces the identical ID.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Source identifies the catalog a movie row originated from.
type Source string

const (
	SourceMovieLens      Source = "movielens"
	SourceMovieTweetings Source = "movietweetings"
	SourceInspired       Source = "inspired"
)

// MovieRecord is the common superset record produced by normalizing one
// row of any source catalog. Fields absent from a source are left zero.
//
// TMDB-prefixed fields hold externally resolved (canonical) metadata and
// take priority over source-native fields when the embedding text is built.
type MovieRecord struct {
	Source  Source
	LocalID string

	// TMDBID is the resolved cross-catalog identifier. Zero or negative
	// means the row could not be resolved.
	TMDBID int64

	Title    string
	RawTitle string
	Year     int
	Genres   string

	TMDBTitle       string
	TMDBReleaseDate string
	TMDBGenres      string
	TMDBOverview    string
	TMDBTopCast     string
	TMDBKeywords    string

	// INSPIRED-only descriptive fields.
	LongPlot  string
	ShortPlot string
	Actors    string
	Director  string

	// Derived by the batch embedder.
	EmbeddingText string
	DedupKey      string
	Embedding     []float32
}

// HasTMDB reports whether the row resolved to a canonical TMDB identity.
func (r *MovieRecord) HasTMDB() bool {
	return r.TMDBID > 0
}

// ComputeDedupKey returns the canonical identity used to collapse
// duplicate rows: the TMDB id when resolved, else source:local_id.
func (r *MovieRecord) ComputeDedupKey() string {
	if r.HasTMDB() {
		return fmt.Sprintf("tmdb:%d", r.TMDBID)
	}
	return fmt.Sprintf("%s:%s", r.Source, r.LocalID)
}

// UserVector is one row of the offline user vector table.
// Embedding is the alpha-mixed final vector; it is nil when neither a
// rating nor a text vector exists for the user. The final vector is
// persisted without renormalization (the online path renormalizes, the
// offline path deliberately does not).
type UserVector struct {
	UserID          string
	Embedding       []float32
	EmbeddingRating []float32
	EmbeddingText   []float32
	NumMovies       int
}

// UserState is the online taste vector for one user, unit-normalized and
// updated by exponential fusion on every interaction.
type UserState struct {
	UserID    string
	Embedding []float32
	UpdatedAt time.Time
}

// InteractionRecord is one append-only entry of the interaction log.
// Records are written once and never mutated.
type InteractionRecord struct {
	Timestamp        time.Time `json:"timestamp"`
	UserID           string    `json:"user_id"`
	MsgIndex         int       `json:"msg_index"`
	UserInput        string    `json:"user_input"`
	UserVec          []float32 `json:"user_vec"`
	CandidateIndices []int     `json:"candidate_indices"`
	CandidateScores  []float32 `json:"candidate_scores"`
	FinalK           int       `json:"final_k"`
}

// MovieSummary is the metadata subset surfaced with a retrieval hit,
// enough for a downstream reranker to work with.
type MovieSummary struct {
	Index    int
	DedupKey string
	Title    string
	Year     int
	Genres   string
	Overview string
	Cast     string
	Score    float32
}
