// Package store defines interfaces for data persistence operations over the
// engine's four logical tables (encounters, lemma stats, vocabulary entries,
// settings). The interfaces keep the core logic independent of the database
// technology backing them.
package store
