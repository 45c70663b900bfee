package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/module-builder/internal/observability"
	"github.com/jonathan/module-builder/internal/planning"
	"github.com/jonathan/module-builder/internal/validation"
)

var planJSON bool

var planCmd = &cobra.Command{
	Use:   "plan <blueprint>",
	Short: "Print the execution plan of a Blueprint",
	Long:  "Validates a Blueprint and prints its ordered generation steps. Nothing is written.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Print the plan as JSON")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	v, err := validation.New()
	if err != nil {
		return err
	}
	res := v.ValidateFile(args[0])
	if err := res.Err(); err != nil {
		return err
	}
	plan, err := planning.NewPlanner().Plan(res.Blueprint)
	if err != nil {
		return fmt.Errorf("failed to plan %s: %w", res.Blueprint.ID, err)
	}

	if planJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintPlan(plan)
	return nil
}
