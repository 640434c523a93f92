package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feedbackgen/internal/config"
	"feedbackgen/internal/embedding"
	"feedbackgen/internal/reference"
	"feedbackgen/internal/workspace"
)

var (
	embeddingModel    string
	embeddingEndpoint string
	embeddingAPIKey   string
)

// embeddingCmd groups embedding engine management
var embeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Manage the embedding engine and vector cache",
}

// embeddingSetCmd selects the embedding provider
var embeddingSetCmd = &cobra.Command{
	Use:   "set [provider]",
	Short: "Select the embedding provider (ollama, genai, or none)",
	Long: `Updates .feedback/config.json with the chosen provider.

  feedbackgen embedding set ollama --model embeddinggemma
  feedbackgen embedding set genai --api-key $GEMINI_API_KEY
  feedbackgen embedding set none

'none' clears the provider; scoring falls back to keyword matching.`,
	Args: cobra.ExactArgs(1),
	RunE: runEmbeddingSet,
}

// embeddingStatsCmd shows vector cache statistics
var embeddingStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show reference vector cache statistics",
	RunE:  runEmbeddingStats,
}

// embeddingReembedCmd rebuilds the vector cache
var embeddingReembedCmd = &cobra.Command{
	Use:   "reembed",
	Short: "Recompute cached vectors for the whole reference corpus",
	RunE:  runEmbeddingReembed,
}

// embeddingCheckCmd verifies the configured engine responds
var embeddingCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the configured embedding engine is reachable",
	RunE:  runEmbeddingCheck,
}

func init() {
	embeddingSetCmd.Flags().StringVar(&embeddingModel, "model", "", "Model name override")
	embeddingSetCmd.Flags().StringVar(&embeddingEndpoint, "endpoint", "", "Ollama endpoint override")
	embeddingSetCmd.Flags().StringVar(&embeddingAPIKey, "api-key", "", "GenAI API key")

	embeddingCmd.AddCommand(embeddingSetCmd)
	embeddingCmd.AddCommand(embeddingStatsCmd)
	embeddingCmd.AddCommand(embeddingReembedCmd)
	embeddingCmd.AddCommand(embeddingCheckCmd)
}

func runEmbeddingSet(cmd *cobra.Command, args []string) error {
	paths, err := workspace.Find()
	if err != nil {
		return err
	}
	if err := workspace.Preflight(paths); err != nil {
		return err
	}

	cfg, err := config.Load(paths.Config)
	if err != nil {
		return err
	}
	if cfg.Embedding == nil {
		cfg.Embedding = config.Default().Embedding
	}

	provider := args[0]
	switch provider {
	case "none":
		cfg.Embedding.Provider = ""
	case "ollama":
		cfg.Embedding.Provider = "ollama"
		if embeddingModel != "" {
			cfg.Embedding.OllamaModel = embeddingModel
		}
		if embeddingEndpoint != "" {
			cfg.Embedding.OllamaEndpoint = embeddingEndpoint
		}
	case "genai":
		cfg.Embedding.Provider = "genai"
		if embeddingModel != "" {
			cfg.Embedding.GenAIModel = embeddingModel
		}
		if embeddingAPIKey != "" {
			cfg.Embedding.GenAIAPIKey = embeddingAPIKey
		}
	default:
		return fmt.Errorf("unknown provider %q (use ollama, genai, or none)", provider)
	}

	if err := cfg.Save(paths.Config); err != nil {
		return err
	}

	logger.Info("embedding provider updated", zap.String("provider", provider))
	fmt.Fprintf(cmd.OutOrStdout(), "Embedding provider set to %s\n", provider)
	if provider != "none" {
		fmt.Fprintln(cmd.OutOrStdout(), "Run 'feedbackgen embedding reembed' to rebuild the vector cache.")
	}
	return nil
}

func runEmbeddingStats(cmd *cobra.Command, args []string) error {
	st, _, err := openWorkspaceStore()
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cached reference vectors: %d\n", stats.Total)
	for engine, count := range stats.ByEngine {
		fmt.Fprintf(out, "  %s: %d\n", engine, count)
	}
	if stats.Total > 0 {
		fmt.Fprintf(out, "Oldest entry: %s old\n", stats.OldestAge.Round(time.Second))
	}
	return nil
}

func runEmbeddingReembed(cmd *cobra.Command, args []string) error {
	st, paths, err := openWorkspaceStore()
	if err != nil {
		return err
	}
	defer st.Close()

	cfg, err := config.Load(paths.Config)
	if err != nil {
		return err
	}
	engine, err := embedding.NewEngine(cfg.Embedding)
	if err != nil {
		return err
	}
	if engine == nil {
		return fmt.Errorf("no embedding provider configured; run 'feedbackgen embedding set' first")
	}
	st.SetEmbeddingEngine(engine)

	corpus, err := reference.Load(paths.Reference)
	if err != nil {
		return err
	}

	n, err := st.Reembed(cmd.Context(), corpus.AllAnswers())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Reembedded %d reference answers with %s\n", n, engine.Name())
	return nil
}

func runEmbeddingCheck(cmd *cobra.Command, args []string) error {
	paths, err := workspace.Find()
	if err != nil {
		return err
	}
	if err := workspace.Preflight(paths); err != nil {
		return err
	}

	cfg, err := config.Load(paths.Config)
	if err != nil {
		return err
	}
	engine, err := embedding.NewEngine(cfg.Embedding)
	if err != nil {
		return err
	}
	if engine == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No embedding provider configured (keyword fallback active).")
		return nil
	}

	if checker, ok := engine.(embedding.HealthChecker); ok {
		if err := checker.HealthCheck(cmd.Context()); err != nil {
			return fmt.Errorf("engine %s unreachable: %w", engine.Name(), err)
		}
	} else if _, err := engine.Embed(cmd.Context(), "health check"); err != nil {
		return fmt.Errorf("engine %s failed a test embed: %w", engine.Name(), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Engine %s is healthy (%d dimensions)\n", engine.Name(), engine.Dimensions())
	return nil
}
