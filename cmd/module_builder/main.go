// Package main provides the module_builder CLI: Blueprint validation and
// planning, preparation and full runs, the module host and the MCP server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set via -ldflags at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:           "module_builder",
	Short:         "Blueprint-driven feature module builder",
	Long:          "module_builder validates a feature Blueprint, checks it against a host project and generates the module's schema, types, API routes, hooks and components.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
