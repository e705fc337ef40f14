package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables (WORDGROVE_ prefix)
// and an optional config.yaml in the working directory. Environment
// variables take precedence over file values. Returns a populated Config or
// an error if loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("WORDGROVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults must be bound explicitly for Unmarshal to see
	// their env-only values.
	for _, key := range []string{
		"database.url",
		"auth.jwt_secret",
		"auth.api_key_hash",
		"dictionary.path",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; env vars and defaults carry the load.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("auth.token_expiry_minutes", 24*60)

	v.SetDefault("engine.promotion_min_count", 6)
	v.SetDefault("engine.promotion_min_pages", 3)
	v.SetDefault("engine.environment_rank_threshold", 2000)
	v.SetDefault("engine.auto_trace_pool_size", 20)
	v.SetDefault("engine.auto_trace_min_encounters", 3)
	v.SetDefault("engine.auto_trace_enabled", true)
	v.SetDefault("engine.dedup_window_hours", 24)
	v.SetDefault("engine.reconcile_chunk_size", 100)
	v.SetDefault("engine.reconcile_workers", 4)
	v.SetDefault("engine.promotion_cooldown_hours", 0)

	v.SetDefault("dictionary.language", "en")
	v.SetDefault("wordbanks.dir", "wordbanks")
}
