// Package scoring implements the pure encounter-weighted familiarity score:
// a fixed per-channel weight table, a trace multiplier over the whole
// history, and the mastery threshold. It has no persistence or clock
// dependencies.
package scoring
