package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/module-builder/internal/checkpoint"
	"github.com/jonathan/module-builder/internal/pipeline"
	"github.com/jonathan/module-builder/internal/projectctx"
	"github.com/jonathan/module-builder/internal/report"
)

var checkpointsCmd = &cobra.Command{
	Use:   "checkpoints",
	Short: "List the checkpoints of the host project",
	Args:  cobra.NoArgs,
	RunE:  runListCheckpoints,
}

var checkpointShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a checkpoint and what changed in the project since",
	Long:  "Restoration is advisory: the recorded Blueprint and project context are compared with the current tree, and nothing is modified.",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowCheckpoint,
}

func init() {
	checkpointsCmd.AddCommand(checkpointShowCmd)
	rootCmd.AddCommand(checkpointsCmd)
}

func checkpointManager(cmd *cobra.Command) (*checkpoint.Manager, string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, "", err
	}
	dir := cfg.CheckpointDir
	if dir == "" {
		dir = pipeline.DefaultCheckpointDir(cfg.ProjectRoot)
	}
	root := cfg.ProjectRoot
	if root == "" {
		root = "."
	}
	return checkpoint.NewManager(dir, cfg.CheckpointRetain), root, nil
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func runListCheckpoints(cmd *cobra.Command, _ []string) error {
	mgr, _, err := checkpointManager(cmd)
	if err != nil {
		return err
	}
	cps, err := mgr.Checkpoints()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(cps) == 0 {
		fmt.Fprintf(out, "No checkpoints in %s\n", mgr.Dir())
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBLUEPRINT\tLAYER\tSTATE\tCREATED")
	for _, cp := range cps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", cp.ID, cp.BlueprintID, report.FormatLayer(cp.Layer), cp.State, cp.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func runShowCheckpoint(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	mgr, root, err := checkpointManager(cmd)
	if err != nil {
		return err
	}
	snap, err := mgr.Restore(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	cp := snap.Checkpoint
	fmt.Fprintf(out, "Checkpoint %s\n", cp.ID)
	fmt.Fprintf(out, "  Blueprint: %s\n", cp.BlueprintID)
	fmt.Fprintf(out, "  Layer:     %s\n", report.FormatLayer(cp.Layer))
	fmt.Fprintf(out, "  State:     %s\n", cp.State)
	fmt.Fprintf(out, "  Created:   %s\n", cp.Timestamp.Format("2006-01-02 15:04:05"))
	for _, f := range cp.Files {
		fmt.Fprintf(out, "  File:      %s\n", f)
	}

	current, err := projectctx.NewReader(root).Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read project context: %w", err)
	}
	added, modified := snap.Changes(current)
	fmt.Fprintf(out, "Since this checkpoint: %d added, %d modified\n", len(added), len(modified))
	for _, f := range added {
		fmt.Fprintf(out, "  + %s\n", f)
	}
	for _, f := range modified {
		fmt.Fprintf(out, "  ~ %s\n", f)
	}
	return nil
}
