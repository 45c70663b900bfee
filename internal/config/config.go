// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store drivers accepted in store_driver and MODULE_BUILDER_STORE.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// DefaultCheckpointRetain is how many checkpoints the ring keeps.
const DefaultCheckpointRetain = 10

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	ProjectRoot   string `json:"project_root,omitempty"`   // Host project the module is built into
	OutputDir     string `json:"output_dir,omitempty"`     // Parent of the per-Blueprint output directories
	CheckpointDir string `json:"checkpoint_dir,omitempty"` // Checkpoint ring location
	RegistryFile  string `json:"registry_file,omitempty"`  // Module registry, relative to project_root

	// Data store
	StoreDriver string `json:"store_driver,omitempty"` // postgres or sqlite
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	SQLitePath  string `json:"sqlite_path,omitempty"`  // SQLite database file

	// Behavior
	APIKey            string `json:"api_key,omitempty"`            // Gemini API key
	HealthBaseURL     string `json:"health_base_url,omitempty"`    // Running app probed after registration
	Policy            string `json:"policy,omitempty"`             // prepare or full
	CheckpointRetain  int    `json:"checkpoint_retain,omitempty"`  // Checkpoints kept in the ring
	StrictCheckpoints bool   `json:"strict_checkpoints,omitempty"` // Checkpoint write failures block the run
	Verbose           bool   `json:"verbose,omitempty"`            // Print detailed layer results
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	switch c.Policy {
	case "", "prepare", "full":
	default:
		return fmt.Errorf("config error: 'policy' must be prepare or full, got %q", c.Policy)
	}

	switch c.StoreDriver {
	case "", StorePostgres, StoreSQLite:
	default:
		return fmt.Errorf("config error: 'store_driver' must be %s or %s, got %q", StorePostgres, StoreSQLite, c.StoreDriver)
	}

	if c.CheckpointRetain < 0 {
		return fmt.Errorf("config error: 'checkpoint_retain' must be non-negative")
	}

	if c.ProjectRoot != "" {
		info, err := os.Stat(c.ProjectRoot)
		if os.IsNotExist(err) {
			return fmt.Errorf("config error: project root not found: %s", c.ProjectRoot)
		}
		if err == nil && !info.IsDir() {
			return fmt.Errorf("config error: project root is not a directory: %s", c.ProjectRoot)
		}
	}

	return nil
}

// EnvDefaults returns the values the environment supplies: DATABASE_URL,
// GEMINI_API_KEY and MODULE_BUILDER_STORE.
func EnvDefaults() Config {
	return Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		StoreDriver: os.Getenv("MODULE_BUILDER_STORE"),
	}
}

// MergeWithDefaults returns a new Config with empty string fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.ProjectRoot == "" {
		result.ProjectRoot = defaults.ProjectRoot
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.CheckpointDir == "" {
		result.CheckpointDir = defaults.CheckpointDir
	}
	if result.RegistryFile == "" {
		result.RegistryFile = defaults.RegistryFile
	}
	if result.StoreDriver == "" {
		result.StoreDriver = defaults.StoreDriver
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SQLitePath == "" {
		result.SQLitePath = defaults.SQLitePath
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.HealthBaseURL == "" {
		result.HealthBaseURL = defaults.HealthBaseURL
	}
	if result.Policy == "" {
		result.Policy = defaults.Policy
	}

	// Int fields: use default if zero
	if result.CheckpointRetain == 0 {
		if defaults.CheckpointRetain > 0 {
			result.CheckpointRetain = defaults.CheckpointRetain
		} else {
			result.CheckpointRetain = DefaultCheckpointRetain
		}
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ResolvedStoreDriver names the store to open: the configured driver, else
// postgres when a database URL is set, sqlite when a SQLite path is set, and
// "" when no store is configured.
func (c *Config) ResolvedStoreDriver() string {
	switch {
	case c.StoreDriver != "":
		return c.StoreDriver
	case c.DatabaseURL != "":
		return StorePostgres
	case c.SQLitePath != "":
		return StoreSQLite
	default:
		return ""
	}
}
