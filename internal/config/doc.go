// Package config handles loading and validating application configuration
// from environment variables and an optional YAML file.
package config
