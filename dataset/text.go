package dataset

import (
	"fmt"
	"strings"

	"github.com/poiesic/tastevec/core"
)

// BuildEmbeddingText assembles the canonical text description of a
// movie from the available fields. TMDB metadata takes priority; the
// source-native equivalent is used when the canonical field is absent.
// Empty fragments are omitted. A record with no usable fields at all
// still yields an (empty) text; it is embedded, never dropped.
func BuildEmbeddingText(r *core.MovieRecord) string {
	title := firstNonEmpty(r.TMDBTitle, r.Title, r.RawTitle)

	year := ""
	if r.Year > 0 {
		year = fmt.Sprintf("%d", r.Year)
	} else if len(r.TMDBReleaseDate) >= 4 {
		year = r.TMDBReleaseDate[:4]
	}

	genres := firstNonEmpty(r.TMDBGenres, r.Genres)

	overview := r.TMDBOverview
	if overview == "" && r.Source == core.SourceInspired {
		overview = firstNonEmpty(r.LongPlot, r.ShortPlot)
	}

	cast := r.TMDBTopCast
	if cast == "" && r.Source == core.SourceInspired {
		cast = r.Actors
	}

	director := ""
	if r.Source == core.SourceInspired {
		director = r.Director
	}

	var parts []string
	if title != "" {
		if year != "" {
			parts = append(parts, fmt.Sprintf("Title: %s (%s).", title, year))
		} else {
			parts = append(parts, fmt.Sprintf("Title: %s.", title))
		}
	}
	if genres != "" {
		parts = append(parts, fmt.Sprintf("Genres: %s.", genres))
	}
	if director != "" {
		parts = append(parts, fmt.Sprintf("Director: %s.", director))
	}
	if overview != "" {
		parts = append(parts, fmt.Sprintf("Plot: %s", overview))
	}
	if cast != "" {
		parts = append(parts, fmt.Sprintf("Cast: %s.", cast))
	}
	if r.TMDBKeywords != "" {
		parts = append(parts, fmt.Sprintf("Keywords: %s.", r.TMDBKeywords))
	}

	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
