package store

import (
	"context"
	"database/sql"
)

// Well-known settings keys. Values are stored as strings; typed parsing is
// the engine's concern.
const (
	SettingPromotionMinCount        = "promotion_min_count"
	SettingPromotionMinPages        = "promotion_min_pages"
	SettingEnvironmentRankThreshold = "environment_rank_threshold"
	SettingAutoTracePoolSize        = "auto_trace_pool_size"
	SettingAutoTraceMinEncounters   = "auto_trace_min_encounters"
	SettingAutoTraceEnabled         = "auto_trace_enabled"
	SettingNoiseWordbankID          = "noise_wordbank_id"
	SettingNoiseManualAdd           = "noise_manual_add"
	SettingNoiseManualRemove        = "noise_manual_remove"
	SettingNoiseAppliedSnapshot     = "noise_applied_snapshot"
)

// SettingsStore defines the interface for the flat key/value settings table.
type SettingsStore interface {
	// Get returns the value for a key.
	// Returns ErrSettingNotFound when the key has no stored value.
	Get(ctx context.Context, key string) (string, error)

	// Set stores the value for a key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// GetAll returns every stored key/value pair.
	GetAll(ctx context.Context) (map[string]string, error)

	// Delete removes a key. Deleting an absent key is a no-op success.
	Delete(ctx context.Context, key string) error

	// WithTx returns a SettingsStore bound to the given transaction.
	WithTx(tx *sql.Tx) SettingsStore
}
