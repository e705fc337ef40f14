// Package engine implements the vocabulary acquisition and review
// scheduling core: encounter recording with deduplication, lemma frequency
// aggregation, threshold-based promotion into vocabulary entries, noise-word
// reconciliation, auto-trace pool replenishment, review card drawing, and
// stale-data cleanup.
//
// The engine owns no goroutines of its own; every operation is a short
// reactive call against the shared store, serialized per lemma key where
// read-modify-write invariants demand it. Batch operations (noise
// reconciliation) are chunked so they cannot starve a latency-sensitive
// scan.
//
// Operations are also exposed as a closed command union dispatched through
// Dispatch, giving callers a single uniform entry point with compile-time
// coverage of every command type.
package engine
