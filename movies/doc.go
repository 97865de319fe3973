// Package movies implements the offline movie embedding pipeline: load
// the processed catalog tables, build one embedding text per movie,
// embed each distinct movie exactly once, and write the movie vector
// artifact.
//
// Movies appearing in several catalogs share a dedup key (tmdb:<id>
// when a TMDB match exists, source:<local id> otherwise). Only the
// first-seen text per key is embedded; the resulting vector is then
// broadcast to every row carrying that key.
//
// Long runs checkpoint finished vectors to a partial artifact at a
// configurable cadence. A rerun loads the partial, verifies it was
// taken against the same input corpus via a content fingerprint, and
// embeds only the keys still missing.
package movies
