package config

// Config holds all application configuration, organized into logical groups.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth" validate:"required"`
	Engine     EngineConfig     `mapstructure:"engine" validate:"required"`
	Dictionary DictionaryConfig `mapstructure:"dictionary"`
	Wordbanks  WordbankConfig   `mapstructure:"wordbanks"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains authentication settings for the API surface.
// APIKeyHash is the bcrypt hash of the single tenant's API key.
type AuthConfig struct {
	JWTSecret          string `mapstructure:"jwt_secret" validate:"required,min=32"`
	APIKeyHash         string `mapstructure:"api_key_hash" validate:"required"`
	TokenExpiryMinutes int    `mapstructure:"token_expiry_minutes" validate:"required,gt=0"`
}

// EngineConfig carries the engine threshold defaults. Each value can be
// overridden at runtime through the settings table; these are the fallbacks
// when no override is stored.
type EngineConfig struct {
	PromotionMinCount        int    `mapstructure:"promotion_min_count" validate:"required,gt=0"`
	PromotionMinPages        int    `mapstructure:"promotion_min_pages" validate:"required,gt=0"`
	EnvironmentRankThreshold int    `mapstructure:"environment_rank_threshold" validate:"required,gt=0"`
	AutoTracePoolSize        int    `mapstructure:"auto_trace_pool_size" validate:"gte=0"`
	AutoTraceMinEncounters   int    `mapstructure:"auto_trace_min_encounters" validate:"gte=0"`
	AutoTraceEnabled         bool   `mapstructure:"auto_trace_enabled"`
	DedupWindowHours         int    `mapstructure:"dedup_window_hours" validate:"required,gt=0"`
	ReconcileChunkSize       int    `mapstructure:"reconcile_chunk_size" validate:"required,gt=0"`
	ReconcileWorkers         int    `mapstructure:"reconcile_workers" validate:"required,gt=0"`
	PromotionCooldownHours   int    `mapstructure:"promotion_cooldown_hours" validate:"gte=0"`
}

// DictionaryConfig locates the SQLite rank dictionary. An empty path
// disables dictionary lookups (every token then needs wordbank membership to
// pass the aggregation gate).
type DictionaryConfig struct {
	Path     string `mapstructure:"path"`
	Language string `mapstructure:"language"`
}

// WordbankConfig locates the directory of YAML wordbank files.
type WordbankConfig struct {
	Dir string `mapstructure:"dir"`
}
