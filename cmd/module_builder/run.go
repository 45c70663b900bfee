package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/module-builder/internal/config"
	"github.com/jonathan/module-builder/internal/pipeline"
	"github.com/jonathan/module-builder/internal/types"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare <blueprint>",
	Short: "Run the preparation layers",
	Long: `Validates the Blueprint, reads the host project, checks feasibility and conflicts, plans the generation and creates a checkpoint. Nothing is written into the project.

Exits non-zero when a layer fails; the report is written either way.`,
	Args: cobra.ExactArgs(1),
	RunE: runPrepare,
}

var runCmd = &cobra.Command{
	Use:   "run <blueprint>",
	Short: "Build a module end-to-end",
	Long: `Runs every layer: the preparation layers, then artifact emission, schema application, project writes, registry integration, the health probe and AI documentation.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

var (
	runPolicy            string
	runAPIKey            string
	runHealthURL         string
	runRegistryFile      string
	runContextFile       string
	runCheckpointRetain  int
	runStrictCheckpoints bool
)

func init() {
	for _, c := range []*cobra.Command{prepareCmd, runCmd} {
		c.Flags().StringVar(&runContextFile, "context", "", "Reuse a saved project context instead of reading the project")
		c.Flags().IntVar(&runCheckpointRetain, "retain", 0, "Checkpoints kept in the ring (default 10)")
		c.Flags().BoolVar(&runStrictCheckpoints, "strict-checkpoints", false, "Fail the run when a checkpoint cannot be written")
	}

	runCmd.Flags().StringVar(&runPolicy, "policy", "", "prepare or full (default full)")
	runCmd.Flags().StringVar(&runHealthURL, "health-url", "", "Base URL of the running app to probe after registration")
	runCmd.Flags().StringVar(&runRegistryFile, "registry", "", "Module registry file, relative to the project (default lib/modules/registry.ts)")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCmd.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	rootCmd.AddCommand(prepareCmd)
	rootCmd.AddCommand(runCmd)
}

// applyRunFlags copies the run flags set on cmd into cfg.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("policy") {
		cfg.Policy = runPolicy
	}
	if flags.Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if flags.Changed("health-url") {
		cfg.HealthBaseURL = runHealthURL
	}
	if flags.Changed("registry") {
		cfg.RegistryFile = runRegistryFile
	}
	if flags.Changed("retain") {
		cfg.CheckpointRetain = runCheckpointRetain
	}
	if flags.Changed("strict-checkpoints") {
		cfg.StrictCheckpoints = runStrictCheckpoints
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runPrepare(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Policy = string(pipeline.PolicyPrepare)
	return execute(ctx, cmd, cfg, args[0])
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Policy == "" {
		cfg.Policy = string(pipeline.PolicyFull)
	}
	return execute(ctx, cmd, cfg, args[0])
}

// execute runs the pipeline for one Blueprint and turns an unsuccessful
// report into an error so the process exits non-zero.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func execute(ctx context.Context, cmd *cobra.Command, cfg config.Config, blueprintPath string) error {
	opts, err := pipelineOptions(cfg)
	if err != nil {
		return err
	}
	opts.BlueprintPath = blueprintPath
	opts.ContextFile = runContextFile
	opts.Out = cmd.OutOrStdout()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		opts.Store = store
	}

	if opts.Policy == pipeline.PolicyFull {
		client, err := newLLM(ctx, cfg)
		if err != nil {
			// Documentation is optional; the run goes on without it.
			fmt.Fprintf(opts.Out, "Warning: %v\n", err)
		} else if client != nil {
			defer client.Close() //nolint:errcheck
			opts.LLM = client
		}
	}

	rep, err := pipeline.Run(ctx, opts)
	if err != nil {
		return err
	}
	printOutcome(cmd, rep)
	if !rep.Success {
		return fmt.Errorf("run %s did not succeed: %s", rep.RunID, rep.AbortReason)
	}
	return nil
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func printOutcome(cmd *cobra.Command, rep *types.RunReport) {
	out := cmd.OutOrStdout()
	status := "succeeded"
	if !rep.Success {
		status = "failed"
	}
	fmt.Fprintf(out, "Run %s %s (%d layers)\n", rep.RunID, status, len(rep.Layers))
	if rep.CheckpointID != "" {
		fmt.Fprintf(out, "Checkpoint: %s\n", rep.CheckpointID)
	}
	if rep.NeedsHumanReview() {
		fmt.Fprintln(out, "Human review recommended; see the report for details.")
	}
}
