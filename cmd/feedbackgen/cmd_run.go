package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feedbackgen/internal/config"
	"feedbackgen/internal/demo"
	"feedbackgen/internal/embedding"
	"feedbackgen/internal/reference"
	"feedbackgen/internal/workspace"
)

// runCmd executes the demo scenario once
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the end-to-end demo scenario",
	Long: `Validates the workspace, then runs the demo exactly once: four
sample student responses across performance levels, per-student
progress reports, the educator dashboard, a JSON export, and a small
throughput benchmark.

The demo uses a throwaway in-memory database; it never writes to
feedback.db. Fails fast with a non-zero exit if the workspace is
missing ('feedbackgen init' creates it).`,
	RunE: runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	paths, err := workspace.Find()
	if err != nil {
		return err
	}

	// Preflight before touching config, engine, or database.
	if err := workspace.Preflight(paths); err != nil {
		return err
	}

	cfg, err := config.Load(paths.Config)
	if err != nil {
		return err
	}
	corpus, err := reference.Load(paths.Reference)
	if err != nil {
		return err
	}
	engine, err := embedding.NewEngine(cfg.Embedding)
	if err != nil {
		return err
	}

	// Pick up logging toggles edited while the demo runs.
	if watcher, err := config.NewWatcher(paths.Root); err == nil {
		if err := watcher.Start(cmd.Context()); err == nil {
			defer watcher.Stop()
		}
	}

	logger.Info("starting demo", zap.String("workspace", paths.Dir))
	return demo.Run(cmd.Context(), cmd.OutOrStdout(), cfg, corpus, engine, paths.Exports)
}
