package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/module-builder/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the Blueprint tools over MCP (stdio)",
	Long:  "Exposes blueprint_validate, blueprint_plan, blueprint_prepare and checkpoint_list to MCP clients. Preparation runs against the configured project and never writes into it.",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	// stdout carries the protocol.
	log.SetOutput(os.Stderr)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := pipelineOptions(cfg)
	if err != nil {
		return err
	}

	store, err := openStore(context.Background(), cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		opts.Store = store
	}
	return mcp.Run(opts, Version)
}
