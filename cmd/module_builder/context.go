package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/module-builder/internal/projectctx"
)

var contextOut string

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Read the host project and print its context",
	Long: `Inventories the host project: tables from migrations (and the live store when one is configured), routes, components, installed capabilities and environment keys.

Use --out to save the context for later runs (run --context).`,
	Args: cobra.NoArgs,
	RunE: runContext,
}

func init() {
	contextCmd.Flags().StringVar(&contextOut, "out", "", "Write the context to this file instead of stdout")
	rootCmd.AddCommand(contextCmd)
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func runContext(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	root := cfg.ProjectRoot
	if root == "" {
		root = "."
	}

	readerOpts := []projectctx.Option{projectctx.WithProcessEnv()}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		readerOpts = append(readerOpts, projectctx.WithStore(store))
	}

	pc, err := projectctx.NewReader(root, readerOpts...).Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read project context: %w", err)
	}

	if contextOut != "" {
		if err := projectctx.WriteFile(contextOut, pc); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Project context written to %s (%d files, %d tables)\n", contextOut, len(pc.Files), len(pc.Tables))
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(pc)
}
