// Package postgres provides PostgreSQL implementations of the store
// interfaces for the engine's four tables: encounters, lemma_stats,
// vocabulary_entries and settings.
package postgres
