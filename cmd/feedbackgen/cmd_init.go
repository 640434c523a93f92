package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feedbackgen/internal/workspace"
)

// initCmd bootstraps the .feedback/ workspace
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the .feedback/ workspace",
	Long: `Verifies the SQLite runtime is usable, then creates the .feedback/
directory with a default config.json, the built-in reference corpus
(reference.yaml), an initialized feedback.db, and the logs/ and
exports/ directories.

Safe to run repeatedly: existing files are never overwritten.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := workspace.CheckRuntime(); err != nil {
		return fmt.Errorf("environment check failed: %w", err)
	}

	paths, err := workspace.Find()
	if err != nil {
		return err
	}

	logger.Info("bootstrapping workspace", zap.String("dir", paths.Dir))
	if err := workspace.Bootstrap(paths); err != nil {
		return err
	}

	fmt.Printf("Workspace ready at %s\n", paths.Dir)
	fmt.Println("  config:    ", paths.Config)
	fmt.Println("  database:  ", paths.DB)
	fmt.Println("  reference: ", paths.Reference)
	fmt.Println("\nNext: run 'feedbackgen run' for the demo, or 'feedbackgen analyze' to score a response.")
	return nil
}
