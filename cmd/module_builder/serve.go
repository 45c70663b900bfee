package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jonathan/module-builder/internal/config"
	"github.com/jonathan/module-builder/internal/modules"
	"github.com/jonathan/module-builder/internal/server"
	"github.com/jonathan/module-builder/internal/types"
	"github.com/jonathan/module-builder/internal/validation"
)

var (
	servePort       int
	serveBlueprints []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that validates, plans and prepares Blueprints and hosts the data modules of applied Blueprints.

Module routes need a data store and JWT_SECRET; each --blueprint adds one module per table.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringSliceVar(&serveBlueprints, "blueprint", nil, "Blueprint whose tables are served as modules (repeatable)")
	rootCmd.AddCommand(serveCmd)
}

// loadBlueprints validates each path and returns the Blueprints.
func loadBlueprints(paths []string) ([]*types.Blueprint, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	v, err := validation.New()
	if err != nil {
		return nil, err
	}
	bps := make([]*types.Blueprint, 0, len(paths))
	for _, path := range paths {
		res := v.ValidateFile(path)
		if err := res.Err(); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		bps = append(bps, res.Blueprint)
	}
	return bps, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := pipelineOptions(cfg)
	if err != nil {
		return err
	}

	bps, err := loadBlueprints(serveBlueprints)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store == nil && len(bps) > 0 {
		return fmt.Errorf("--blueprint needs a data store (--store, --db-url or --sqlite)")
	}

	var registry *modules.Registry
	if store != nil {
		registry, err = modules.FromBlueprints(store, bps...)
		if err != nil {
			store.Close()
			return fmt.Errorf("failed to build module registry: %w", err)
		}
	}

	tokens, err := config.TokenConfigFromEnv()
	if err != nil {
		log.Printf("Warning: %v; module routes will reject every request", err)
		tokens = nil
	}

	srv, err := server.New(server.Config{
		Port:     servePort,
		Store:    store,
		Modules:  registry,
		Tokens:   tokens,
		Pipeline: opts,
	})
	if err != nil {
		if store != nil {
			store.Close()
		}
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}
