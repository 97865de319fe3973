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


package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/poiesic/tastevec/core"
)

// Well-known file names inside the processed dataset directory.
const (
	MovieLensMoviesFile      = "movielens_movies_tmdb.csv"
	MovieTweetingsMoviesFile = "movietweetings_movies_tmdb.csv"
	InspiredMoviesFile       = "inspired_movie_database_tmdb.csv"
	MovieLensRatingsFile     = "movielens_ratings.csv"
	CCPEDialoguesFile        = "ccpe_dialogues.csv"
	InspiredDialogsFile      = "inspired_dialogs.csv"
	RedialDialoguesFile      = "redial_dialogues.csv"
)

// table is a loaded CSV with header-indexed column access.
type table struct {
	cols map[string]int
	rows [][]string
}

func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows tolerated; missing cells read as empty

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyTable)
	}
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %s: %w", path, err)
		}
		rows = append(rows, row)
	}

	return &table{cols: cols, rows: rows}, nil
}

// has reports whether every named column exists.
func (t *table) has(names ...string) bool {
	for _, n := range names {
		if _, ok := t.cols[n]; !ok {
			return false
		}
	}
	return true
}

func (t *table) missing(names ...string) []string {
	var out []string
	for _, n := range names {
		if _, ok := t.cols[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}

// get returns the named cell of a row, or "" when the column is absent
// or the row is short.
func (t *table) get(row []string, name string) string {
	i, ok := t.cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *table) tmdbFields(row []string) TMDBFields {
	return TMDBFields{
		ID:          parseTMDBID(t.get(row, "tmdb_id")),
		Title:       t.get(row, "tmdb_title"),
		ReleaseDate: t.get(row, "tmdb_release_date"),
		Overview:    t.get(row, "tmdb_overview"),
		Genres:      t.get(row, "tmdb_genres"),
		TopCast:     t.get(row, "tmdb_top_cast"),
		Keywords:    t.get(row, "tmdb_keywords"),
	}
}

// LoadMovieLens loads the enriched MovieLens movie table.
func LoadMovieLens(path string) ([]core.MovieRecord, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if !t.has("movieId") {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrMissingColumns, t.missing("movieId"))
	}

	records := make([]core.MovieRecord, 0, len(t.rows))
	for _, row := range t.rows {
		r := MovieLensRow{
			MovieID: t.get(row, "movieId"),
			Title:   t.get(row, "title"),
			Genres:  t.get(row, "genres"),
			Year:    parseYear(t.get(row, "year")),
			TMDB:    t.tmdbFields(row),
		}
		records = append(records, r.Normalize())
	}
	return records, nil
}

// LoadMovieTweetings loads the enriched MovieTweetings movie table.
func LoadMovieTweetings(path string) ([]core.MovieRecord, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if !t.has("movie_id") {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrMissingColumns, t.missing("movie_id"))
	}

	records := make([]core.MovieRecord, 0, len(t.rows))
	for _, row := range t.rows {
		r := MovieTweetingsRow{
			MovieID:  t.get(row, "movie_id"),
			RawTitle: t.get(row, "raw_title"),
			Title:    t.get(row, "title"),
			Genres:   t.get(row, "genres"),
			Year:     parseYear(t.get(row, "year")),
			TMDB:     t.tmdbFields(row),
		}
		records = append(records, r.Normalize())
	}
	return records, nil
}

// LoadInspired loads the enriched INSPIRED movie database.
// The table carries no local id of its own; the resolved tmdb id is
// used when available, else the row index.
func LoadInspired(path string) ([]core.MovieRecord, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}

	records := make([]core.MovieRecord, 0, len(t.rows))
	for i, row := range t.rows {
		tmdb := t.tmdbFields(row)

		movieID := t.get(row, "movie_id")
		if movieID == "" {
			if tmdb.ID > 0 {
				movieID = strconv.FormatInt(tmdb.ID, 10)
			} else {
				movieID = strconv.Itoa(i)
			}
		}

		r := InspiredRow{
			MovieID:   movieID,
			Title:     t.get(row, "title"),
			Genre:     t.get(row, "genre"),
			Year:      parseYear(t.get(row, "year")),
			LongPlot:  t.get(row, "long_plot"),
			ShortPlot: t.get(row, "short_plot"),
			Actors:    t.get(row, "actors"),
			Director:  t.get(row, "director"),
			TMDB:      tmdb,
		}
		records = append(records, r.Normalize())
	}
	return records, nil
}

// LoadMovies loads and concatenates the movie tables for the given
// sources from processedDir, in the given order. A missing source file
// is a configuration error.
func LoadMovies(processedDir string, sources []core.Source) ([]core.MovieRecord, error) {
	var all []core.MovieRecord
	for _, src := range sources {
		var (
			records []core.MovieRecord
			err     error
		)
		switch src {
		case core.SourceMovieLens:
			records, err = LoadMovieLens(filepath.Join(processedDir, MovieLensMoviesFile))
		case core.SourceMovieTweetings:
			records, err = LoadMovieTweetings(filepath.Join(processedDir, MovieTweetingsMoviesFile))
		case core.SourceInspired:
			records, err = LoadInspired(filepath.Join(processedDir, InspiredMoviesFile))
		default:
			err = fmt.Errorf("%w: %q", core.ErrUnknownSource, src)
		}
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

// LoadRatings loads the ratings table.
// Rows with an unparseable rating are skipped.
func LoadRatings(path string) ([]Rating, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if !t.has("userId", "movieId", "rating") {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrMissingColumns,
			t.missing("userId", "movieId", "rating"))
	}

	ratings := make([]Rating, 0, len(t.rows))
	for _, row := range t.rows {
		val, err := strconv.ParseFloat(t.get(row, "rating"), 64)
		if err != nil {
			continue
		}
		ratings = append(ratings, Rating{
			UserID:  t.get(row, "userId"),
			MovieID: t.get(row, "movieId"),
			Rating:  val,
		})
	}
	return ratings, nil
}

// LoadCCPEUtterances loads the CCPE dialogue table. The identity key is
// the dialogue id: "ccpe:<dialog_id>".
func LoadCCPEUtterances(path string) ([]Utterance, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if !t.has("dialog_id", "text") {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrMissingColumns,
			t.missing("dialog_id", "text"))
	}

	utterances := make([]Utterance, 0, len(t.rows))
	for _, row := range t.rows {
		utterances = append(utterances, Utterance{
			Key:  "ccpe:" + t.get(row, "dialog_id"),
			Text: t.get(row, "text"),
		})
	}
	return utterances, nil
}

// LoadInspiredUtterances loads the INSPIRED dialogue table. The identity
// key pairs dialogue and speaker role: "inspired:<dialog_id>:<speaker>".
func LoadInspiredUtterances(path string) ([]Utterance, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if !t.has("dialog_id", "speaker", "text") {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrMissingColumns,
			t.missing("dialog_id", "speaker", "text"))
	}

	utterances := make([]Utterance, 0, len(t.rows))
	for _, row := range t.rows {
		utterances = append(utterances, Utterance{
			Key:  "inspired:" + t.get(row, "dialog_id") + ":" + t.get(row, "speaker"),
			Text: t.get(row, "text"),
		})
	}
	return utterances, nil
}

// LoadRedialUtterances loads the ReDial dialogue table. The identity key
// is the rater: "redial:<speaker_id>".
func LoadRedialUtterances(path string) ([]Utterance, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if !t.has("speaker_id", "text") {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrMissingColumns,
			t.missing("speaker_id", "text"))
	}

	utterances := make([]Utterance, 0, len(t.rows))
	for _, row := range t.rows {
		utterances = append(utterances, Utterance{
			Key:  "redial:" + t.get(row, "speaker_id"),
			Text: t.get(row, "text"),
		})
	}
	return utterances, nil
}
