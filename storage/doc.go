// Package storage defines persistence interfaces and the binary
// serialization used by artifact files and the Badger-backed user-state
// store.
//
// Three durable surfaces exist:
//
//   - vector artifacts: the movie and user vector tables written by the
//     batch pipelines (plus the partial checkpoint variant of the movie
//     artifact used for resumable runs)
//   - the user-state table: user_id -> current fused taste vector,
//     maintained by the online engine (storage/badger)
//   - the interaction log: append-only newline-delimited JSON, written
//     once per logged interaction, never rewritten (storage/jsonl)
package storage
