package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feedbackgen/internal/config"
	"feedbackgen/internal/embedding"
	"feedbackgen/internal/feedback"
	"feedbackgen/internal/reference"
	"feedbackgen/internal/store"
	"feedbackgen/internal/types"
	"feedbackgen/internal/workspace"
)

var (
	analyzeStudent  string
	analyzeQuestion string
	analyzeSubject  string
	analyzeKeywords []string
)

// analyzeCmd scores a single student response
var analyzeCmd = &cobra.Command{
	Use:   "analyze [response text]",
	Short: "Score one student response and generate feedback",
	Long: `Scores a free-text response against the reference corpus for its
subject, awards a reward tier, and persists the feedback to the
workspace database. Raises educator alerts when warranted.

Example:
  feedbackgen analyze --student alice_001 --question math_01 \
    --subject mathematics \
    "To solve x + 5 = 10, subtract 5 from both sides"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeStudent, "student", "s", "", "Student ID (required)")
	analyzeCmd.Flags().StringVarP(&analyzeQuestion, "question", "q", "", "Question ID (required)")
	analyzeCmd.Flags().StringVar(&analyzeSubject, "subject", "", "Subject, e.g. mathematics (required)")
	analyzeCmd.Flags().StringSliceVarP(&analyzeKeywords, "keywords", "k", nil, "Expected keywords (comma-separated)")
	analyzeCmd.MarkFlagRequired("student")
	analyzeCmd.MarkFlagRequired("question")
	analyzeCmd.MarkFlagRequired("subject")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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
	corpus, err := reference.Load(paths.Reference)
	if err != nil {
		return err
	}
	engine, err := embedding.NewEngine(cfg.Embedding)
	if err != nil {
		return err
	}

	st, err := store.New(paths.DB)
	if err != nil {
		return err
	}
	defer st.Close()
	if engine != nil {
		st.SetEmbeddingEngine(engine)
	}

	gen := feedback.NewGenerator(cfg, corpus, st, engine)

	resp := types.StudentResponse{
		StudentID:        analyzeStudent,
		QuestionID:       analyzeQuestion,
		ResponseText:     strings.Join(args, " "),
		Subject:          analyzeSubject,
		ExpectedKeywords: analyzeKeywords,
	}

	logger.Info("analyzing response",
		zap.String("student", analyzeStudent),
		zap.String("subject", analyzeSubject))

	fb, err := gen.GenerateFeedback(cmd.Context(), resp)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Similarity score: %.3f\n", fb.SimilarityScore)
	fmt.Fprintf(out, "Reward: %s (%d points)\n", strings.ToUpper(string(fb.RewardType)), fb.PointsEarned)
	fmt.Fprintf(out, "Feedback: %s\n", fb.FeedbackText)
	if len(fb.Strengths) > 0 {
		fmt.Fprintf(out, "Strengths:\n")
		for _, s := range fb.Strengths {
			fmt.Fprintf(out, "  - %s\n", s)
		}
	}
	if len(fb.ImprovementAreas) > 0 {
		fmt.Fprintf(out, "Areas for improvement:\n")
		for _, s := range fb.ImprovementAreas {
			fmt.Fprintf(out, "  - %s\n", s)
		}
	}
	if len(fb.PersonalizedTips) > 0 {
		fmt.Fprintf(out, "Tips:\n")
		for _, s := range fb.PersonalizedTips {
			fmt.Fprintf(out, "  - %s\n", s)
		}
	}
	return nil
}
