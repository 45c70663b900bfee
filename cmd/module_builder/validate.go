package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/module-builder/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate <blueprint>",
	Short: "Validate a Blueprint document",
	Long:  "Checks a JSON or YAML Blueprint for structural problems. Exits non-zero when the Blueprint is invalid.",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func runValidate(cmd *cobra.Command, args []string) error {
	v, err := validation.New()
	if err != nil {
		return err
	}
	res := v.ValidateFile(args[0])
	out := cmd.OutOrStdout()

	for _, w := range res.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", w)
	}
	if !res.Valid {
		fmt.Fprintf(out, "Validation failed: %s\n", args[0])
		for _, e := range res.Errors {
			fmt.Fprintf(out, "  - %s\n", e)
		}
		return res.Err()
	}
	fmt.Fprintf(out, "Validation passed: %s (%s)\n", res.Blueprint.ID, args[0])
	return nil
}
