package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"feedbackgen/internal/export"
)

var exportOut string

// exportCmd exports the feedback history to JSON
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export feedback history and alerts to JSON",
	Long: `Writes the full feedback history and all educator alerts as a JSON
document. Without --out the file lands in .feedback/exports/ with a
timestamped name (feedback_data_YYYYMMDD_HHMMSS.json).`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file path")
}

func runExport(cmd *cobra.Command, args []string) error {
	st, paths, err := openWorkspaceStore()
	if err != nil {
		return err
	}
	defer st.Close()

	path, err := export.ToFile(st, paths.Exports, exportOut)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Data exported to %s\n", path)
	return nil
}
