// Package engine implements online taste fusion and retrieval. Each
// incoming message is embedded and, for tracked users, folded into the
// stored taste vector with an exponential moving average weighted
// toward the old taste. The fused vector is renormalized, persisted,
// used for retrieval, and the interaction is appended to the log.
//
// Anonymous calls are one-shot: the message embedding alone drives
// retrieval and nothing is persisted or logged.
//
// Per-user message counters are recovered from the interaction log at
// construction, so a restart continues each user's sequence instead of
// resetting it.
package engine
