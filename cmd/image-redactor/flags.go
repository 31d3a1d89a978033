package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// mustGetBool gets a bool flag value or panics if the flag doesn't exist.
// This is appropriate for flags defined in init() - errors indicate programming bugs.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// mustGetString gets a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

// batchKeys maps config keys to the flags added by addBatchFlags
var batchKeys = map[string]string{
	"batch.workers":         "workers",
	"batch.reprocess":       "reprocess",
	"batch.delete_original": "delete-original",
	"batch.dry_run":         "dry-run",
	"batch.progress":        "progress",
	"output.report":         "report",
}

// addBatchFlags adds the flags shared by run and watch. They are bound in
// PreRunE so that only the executing command's flags reach the config.
func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().Int("workers", 0, "number of files processed in parallel (default 1)")
	cmd.Flags().Bool("reprocess", false, "replace existing outputs instead of skipping them")
	cmd.Flags().Bool("delete-original", false, "delete the source and its sidecar after a successful redaction")
	cmd.Flags().Bool("dry-run", false, "report what would be redacted without writing anything")
	cmd.Flags().Bool("progress", false, "show a progress bar")
	cmd.Flags().String("report", "", "write a YAML report of every file to this path")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		bindFlags(cmd, batchKeys)
		return nil
	}
}
