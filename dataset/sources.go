package dataset

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/poiesic/tastevec/core"
)

// TMDBFields holds the externally resolved metadata shared by every
// enriched source table.
type TMDBFields struct {
	ID          int64
	Title       string
	ReleaseDate string
	Overview    string
	Genres      string
	TopCast     string
	Keywords    string
}

// MovieLensRow is one row of the enriched MovieLens movie table.
type MovieLensRow struct {
	MovieID string
	Title   string
	Genres  string
	Year    int
	TMDB    TMDBFields
}

// Normalize converts the row into the common superset record.
func (r MovieLensRow) Normalize() core.MovieRecord {
	rec := core.MovieRecord{
		Source:  core.SourceMovieLens,
		LocalID: r.MovieID,
		Title:   r.Title,
		Genres:  r.Genres,
		Year:    r.Year,
	}
	applyTMDB(&rec, r.TMDB)
	return rec
}

// MovieTweetingsRow is one row of the enriched MovieTweetings movie table.
type MovieTweetingsRow struct {
	MovieID  string
	RawTitle string
	Title    string
	Genres   string
	Year     int
	TMDB     TMDBFields
}

// Normalize converts the row into the common superset record.
func (r MovieTweetingsRow) Normalize() core.MovieRecord {
	rec := core.MovieRecord{
		Source:   core.SourceMovieTweetings,
		LocalID:  r.MovieID,
		Title:    r.Title,
		RawTitle: r.RawTitle,
		Genres:   r.Genres,
		Year:     r.Year,
	}
	applyTMDB(&rec, r.TMDB)
	return rec
}

// InspiredRow is one row of the enriched INSPIRED movie database.
type InspiredRow struct {
	MovieID   string
	Title     string
	Genre     string
	Year      int
	LongPlot  string
	ShortPlot string
	Actors    string
	Director  string
	TMDB      TMDBFields
}

// Normalize converts the row into the common superset record.
func (r InspiredRow) Normalize() core.MovieRecord {
	rec := core.MovieRecord{
		Source:    core.SourceInspired,
		LocalID:   r.MovieID,
		Title:     r.Title,
		Genres:    r.Genre,
		Year:      r.Year,
		LongPlot:  r.LongPlot,
		ShortPlot: r.ShortPlot,
		Actors:    r.Actors,
		Director:  r.Director,
	}
	applyTMDB(&rec, r.TMDB)
	return rec
}

func applyTMDB(rec *core.MovieRecord, t TMDBFields) {
	rec.TMDBID = t.ID
	rec.TMDBTitle = t.Title
	rec.TMDBReleaseDate = t.ReleaseDate
	rec.TMDBOverview = t.Overview
	rec.TMDBGenres = t.Genres
	rec.TMDBTopCast = t.TopCast
	rec.TMDBKeywords = t.Keywords
}

// Rating is one row of the ratings table.
type Rating struct {
	UserID  string
	MovieID string
	Rating  float64
}

// Utterance is one text-profile line with its derived identity key,
// e.g. "ccpe:412", "inspired:17:SEEKER", "redial:9021".
type Utterance struct {
	Key  string
	Text string
}

// parseYear parses a numeric year, tolerating float formatting
// ("1999.0"). Unparseable values are a recoverable data-quality
// anomaly: a warning is logged and zero returned.
func parseYear(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		slog.Warn("unparseable year, treating as unknown", "value", s)
		return 0
	}
	return year
}

// parseTMDBID parses a canonical id, tolerating float formatting.
// An unresolvable id returns zero so the row falls back to its
// source:local_id dedup key.
func parseTMDBID(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		slog.Warn("unresolvable tmdb id, falling back to source key", "value", s)
		return 0
	}
	return id
}
