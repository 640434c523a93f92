// Package demo runs the end-to-end showcase scenario: four sample
// responses across performance levels, progress reports, the educator
// dashboard, an export, and a small throughput benchmark.
package demo

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"feedbackgen/internal/config"
	"feedbackgen/internal/embedding"
	"feedbackgen/internal/export"
	"feedbackgen/internal/feedback"
	"feedbackgen/internal/progress"
	"feedbackgen/internal/reference"
	"feedbackgen/internal/store"
	"feedbackgen/internal/types"
)

// benchmarkIterations is how many feedback generations the benchmark runs.
const benchmarkIterations = 5

type sample struct {
	student  string
	level    string
	response types.StudentResponse
}

func sampleResponses(now time.Time) []sample {
	return []sample{
		{
			student: "Alice Johnson",
			level:   "High Performance",
			response: types.StudentResponse{
				StudentID:        "alice_001",
				QuestionID:       "math_algebra_01",
				ResponseText:     "To solve the equation 2x + 6 = 14, I need to isolate x. First, I subtract 6 from both sides to get 2x = 8. Then I divide both sides by 2 to get x = 4. This works because I'm using inverse operations to undo what was done to x.",
				Subject:          "mathematics",
				Timestamp:        now,
				ExpectedKeywords: []string{"inverse operations", "isolate", "subtract", "divide"},
			},
		},
		{
			student: "Bob Smith",
			level:   "Good Performance",
			response: types.StudentResponse{
				StudentID:        "bob_002",
				QuestionID:       "science_physics_01",
				ResponseText:     "Newton's first law says objects at rest stay at rest and objects in motion stay in motion unless a force acts on them.",
				Subject:          "science",
				Timestamp:        now,
				ExpectedKeywords: []string{"force", "motion", "rest", "inertia"},
			},
		},
		{
			student: "Carol Davis",
			level:   "Needs Improvement",
			response: types.StudentResponse{
				StudentID:        "carol_003",
				QuestionID:       "english_theme_01",
				ResponseText:     "The story is about friendship and the main character learns something.",
				Subject:          "english",
				Timestamp:        now,
				ExpectedKeywords: []string{"theme", "character development", "literary analysis"},
			},
		},
		{
			student: "David Wilson",
			level:   "Excellent Performance",
			response: types.StudentResponse{
				StudentID:        "david_004",
				QuestionID:       "math_geometry_01",
				ResponseText:     "The Pythagorean theorem is a fundamental principle in geometry that states that in a right triangle, the square of the length of the hypotenuse (the side opposite the right angle) is equal to the sum of squares of the lengths of the other two sides. This can be written as a² + b² = c², where c represents the hypotenuse and a and b represent the other two sides.",
				Subject:          "mathematics",
				Timestamp:        now,
				ExpectedKeywords: []string{"Pythagorean theorem", "right triangle", "hypotenuse", "squares"},
			},
		},
	}
}

// Run executes the full demo against a throwaway in-memory store so
// repeated runs never pollute the real workspace database.
func Run(ctx context.Context, out io.Writer, cfg *config.UserConfig, corpus *reference.Corpus, engine embedding.Engine, exportsDir string) error {
	printHeader(out, "STUDENT FEEDBACK GENERATION SYSTEM DEMO")

	st, err := store.New(":memory:")
	if err != nil {
		return fmt.Errorf("failed to open demo store: %w", err)
	}
	defer st.Close()

	engineName := "keyword fallback"
	if engine != nil {
		st.SetEmbeddingEngine(engine)
		engineName = engine.Name()
	}
	gen := feedback.NewGenerator(cfg, corpus, st, engine)
	fmt.Fprintf(out, "System initialized (scoring engine: %s)\n", engineName)

	if err := processSamples(ctx, out, gen); err != nil {
		return err
	}
	if err := showProgress(out, st); err != nil {
		return err
	}
	if err := showDashboard(out, st); err != nil {
		return err
	}
	if err := exportData(out, st, exportsDir); err != nil {
		return err
	}
	if err := benchmark(ctx, out, gen); err != nil {
		return err
	}

	printHeader(out, "DEMO COMPLETED SUCCESSFULLY")
	return nil
}

func processSamples(ctx context.Context, out io.Writer, gen *feedback.Generator) error {
	printSection(out, "PROCESSING STUDENT RESPONSES")

	samples := sampleResponses(time.Now().UTC())
	for i, s := range samples {
		fmt.Fprintf(out, "\nProcessing response %d/%d - %s (%s)\n", i+1, len(samples), s.student, s.level)
		fmt.Fprintf(out, "Subject: %s\n", s.response.Subject)
		fmt.Fprintf(out, "Response: %s\n", truncate(s.response.ResponseText, 100))

		start := time.Now()
		fb, err := gen.GenerateFeedback(ctx, s.response)
		if err != nil {
			return fmt.Errorf("failed to generate feedback for %s: %w", s.response.StudentID, err)
		}

		fmt.Fprintf(out, "Processing time: %.2fs\n", time.Since(start).Seconds())
		fmt.Fprintf(out, "Similarity score: %.3f (%.1f%%)\n", fb.SimilarityScore, fb.SimilarityScore*100)
		fmt.Fprintf(out, "Reward: %s (%d points)\n", strings.ToUpper(string(fb.RewardType)), fb.PointsEarned)
		fmt.Fprintf(out, "Feedback: %s\n", fb.FeedbackText)
		if len(fb.Strengths) > 0 {
			fmt.Fprintf(out, "Strengths: %s\n", strings.Join(fb.Strengths, ", "))
		}
		if len(fb.ImprovementAreas) > 0 {
			fmt.Fprintf(out, "Areas for improvement: %s\n", strings.Join(fb.ImprovementAreas, ", "))
		}
		if len(fb.PersonalizedTips) > 0 {
			fmt.Fprintf(out, "Tip: %s\n", fb.PersonalizedTips[0])
		}
	}
	return nil
}

func showProgress(out io.Writer, st *store.Store) error {
	printSection(out, "STUDENT PROGRESS TRACKING")

	students, err := st.StudentIDs()
	if err != nil {
		return err
	}
	for _, id := range students {
		report, err := progress.Report(st, id)
		if err != nil {
			continue
		}
		fmt.Fprintf(out, "\nProgress report for %s:\n", id)
		fmt.Fprintf(out, "  Total responses: %d\n", report.TotalResponses)
		fmt.Fprintf(out, "  Average score:   %.1f%%\n", report.AverageScore*100)
		fmt.Fprintf(out, "  Latest score:    %.1f%%\n", report.LatestScore*100)
		fmt.Fprintf(out, "  Total points:    %d\n", report.TotalPoints)
		fmt.Fprintf(out, "  Rewards:         %s\n", rewardSummary(report.RewardDistribution))
	}
	return nil
}

func rewardSummary(dist map[types.RewardType]int) string {
	var parts []string
	// Highest tier first
	for i := len(types.AllRewardTypes) - 1; i >= 0; i-- {
		rt := types.AllRewardTypes[i]
		if dist[rt] > 0 {
			parts = append(parts, fmt.Sprintf("%s x%d", rt, dist[rt]))
		}
	}
	if len(parts) == 0 {
		return "none yet"
	}
	return strings.Join(parts, " | ")
}

func showDashboard(out io.Writer, st *store.Store) error {
	printSection(out, "EDUCATOR DASHBOARD")

	dashboard, err := progress.BuildDashboard(st)
	if err != nil {
		return err
	}

	o := dashboard.ClassOverview
	fmt.Fprintf(out, "Class overview:\n")
	fmt.Fprintf(out, "  Total students:             %d\n", o.TotalStudents)
	fmt.Fprintf(out, "  Total responses:            %d\n", o.TotalResponses)
	fmt.Fprintf(out, "  Class average:              %.1f%%\n", o.ClassAverageScore*100)
	fmt.Fprintf(out, "  Students needing attention: %d\n", o.StudentsNeedingAttention)

	if len(dashboard.RecentAlerts) > 0 {
		fmt.Fprintf(out, "\nRecent alerts:\n")
		for _, a := range dashboard.RecentAlerts {
			fmt.Fprintf(out, "  [%s] %s: %s\n", a.Severity, a.AlertType, a.Description)
		}
	} else {
		fmt.Fprintf(out, "\nNo recent alerts.\n")
	}

	if len(dashboard.StrugglingStudents) > 0 {
		fmt.Fprintf(out, "\nStudents needing support: %s\n", strings.Join(dashboard.StrugglingStudents, ", "))
	}
	return nil
}

func exportData(out io.Writer, st *store.Store, exportsDir string) error {
	printSection(out, "DATA EXPORT")

	path, err := export.ToFile(st, exportsDir, "")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Data exported to: %s\n", path)
	if info, err := os.Stat(path); err == nil {
		fmt.Fprintf(out, "File size: %d bytes\n", info.Size())
	}
	return nil
}

func benchmark(ctx context.Context, out io.Writer, gen *feedback.Generator) error {
	printSection(out, "PERFORMANCE BENCHMARK")

	resp := types.StudentResponse{
		StudentID:        "benchmark_test",
		QuestionID:       "perf_test_01",
		ResponseText:     "This is a sample response for performance testing of the feedback generation system.",
		Subject:          "mathematics",
		ExpectedKeywords: []string{"test", "performance", "benchmark"},
	}

	fmt.Fprintf(out, "Running %d feedback generations...\n", benchmarkIterations)

	var total time.Duration
	for i := 0; i < benchmarkIterations; i++ {
		start := time.Now()
		if _, err := gen.GenerateFeedback(ctx, resp); err != nil {
			return err
		}
		elapsed := time.Since(start)
		total += elapsed
		fmt.Fprintf(out, "  Iteration %d: %.3fs\n", i+1, elapsed.Seconds())
	}

	avg := total / benchmarkIterations
	fmt.Fprintf(out, "\nAverage processing time: %.3fs\n", avg.Seconds())
	if avg > 0 {
		fmt.Fprintf(out, "Throughput: ~%.1f responses per minute\n", float64(time.Minute)/float64(avg))
	}
	return nil
}

func printHeader(out io.Writer, title string) {
	line := strings.Repeat("=", 60)
	fmt.Fprintf(out, "\n%s\n  %s\n%s\n", line, title, line)
}

func printSection(out io.Writer, title string) {
	fmt.Fprintf(out, "\n--- %s ---\n", title)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
