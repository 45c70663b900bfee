package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/module-builder/internal/config"
	"github.com/jonathan/module-builder/internal/db"
	"github.com/jonathan/module-builder/internal/llm"
	"github.com/jonathan/module-builder/internal/pipeline"
)

// Settings shared by every command. Commands that take more settings
// register their own flags.
var (
	configPath    string
	projectRoot   string
	outputDir     string
	checkpointDir string
	storeDriver   string
	databaseURL   string
	sqlitePath    string
	verbose       bool
)

func init() {
	// Config file flag (processed first)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	rootCmd.PersistentFlags().StringVarP(&projectRoot, "project", "p", "", "Host project root (default: current directory)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "Directory receiving per-Blueprint output (default: output)")
	rootCmd.PersistentFlags().StringVar(&checkpointDir, "checkpoint-dir", "", "Checkpoint ring location (default: <project>/.module-builder/checkpoints)")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "Data store driver: postgres or sqlite (optional, defaults to MODULE_BUILDER_STORE env var)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite", "", "SQLite database file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed layer results")
}

// loadConfig layers the configuration: the --config file, then flags that
// were explicitly set, then environment defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	// Step 1: Load config file if provided
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	if flags.Changed("project") {
		cfg.ProjectRoot = projectRoot
	}
	if flags.Changed("output") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("checkpoint-dir") {
		cfg.CheckpointDir = checkpointDir
	}
	if flags.Changed("store") {
		cfg.StoreDriver = storeDriver
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = databaseURL
	}
	if flags.Changed("sqlite") {
		cfg.SQLitePath = sqlitePath
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
	applyRunFlags(cmd, &cfg)

	// Step 3: Apply defaults for unset values
	cfg = cfg.MergeWithDefaults(config.EnvDefaults())

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if cfg.Verbose && configPath != "" {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Loaded config from: %s\n", configPath)
	}
	return cfg, nil
}

// openStore connects the configured data store. It returns nil when no store
// is configured.
func openStore(ctx context.Context, cfg config.Config) (db.Store, error) {
	driver := cfg.ResolvedStoreDriver()
	dsn := cfg.SQLitePath
	switch driver {
	case "":
		return nil, nil
	case config.StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required for the postgres store")
		}
		dsn = cfg.DatabaseURL
	case config.StoreSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("--sqlite flag or sqlite_path is required for the sqlite store")
		}
	}
	store, err := db.Open(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", driver, err)
	}
	return store, nil
}

// newLLM creates the documentation client. It returns nil without an API key.
func newLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}

// pipelineOptions maps the configuration onto run options.
func pipelineOptions(cfg config.Config) (pipeline.Options, error) {
	policy, err := pipeline.ParsePolicy(cfg.Policy)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		ProjectRoot:       cfg.ProjectRoot,
		OutputDir:         cfg.OutputDir,
		CheckpointDir:     cfg.CheckpointDir,
		CheckpointRetain:  cfg.CheckpointRetain,
		RegistryFile:      cfg.RegistryFile,
		HealthBaseURL:     cfg.HealthBaseURL,
		Policy:            policy,
		StrictCheckpoints: cfg.StrictCheckpoints,
		Verbose:           cfg.Verbose,
		Out:               os.Stdout,
	}, nil
}
