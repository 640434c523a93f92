package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"feedbackgen/internal/logging"
	"feedbackgen/internal/workspace"
)

var (
	// Global flags
	verbose bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "feedbackgen",
	Short: "feedbackgen - AI-powered student feedback generation",
	Long: `feedbackgen scores free-text student responses against a reference
corpus using semantic similarity, awards gamified reward tiers, and
tracks per-student progress with educator alerts.

Scoring runs against a local Ollama server or Google GenAI when
configured; without either it falls back to deterministic keyword
matching so the tool works fully offline.

Run 'feedbackgen init' once to create the .feedback/ workspace, then
'feedbackgen run' for the demo scenario or 'feedbackgen analyze' to
score a single response.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		// Categorized file logging is config-driven and best-effort;
		// commands work before the workspace exists.
		if paths, err := workspace.Find(); err == nil {
			_ = logging.Initialize(paths.Root)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(alertsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(embeddingCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
