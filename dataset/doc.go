// Package dataset loads the normalized tables produced by upstream
// preprocessing and converts per-source rows into the common
// core.MovieRecord superset.
//
// Each catalog has its own row variant (MovieLensRow, MovieTweetingsRow,
// InspiredRow) with a single Normalize method; nothing downstream ever
// probes for "whichever column exists".
package dataset
