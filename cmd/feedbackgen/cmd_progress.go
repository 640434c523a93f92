package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"feedbackgen/internal/progress"
	"feedbackgen/internal/store"
	"feedbackgen/internal/types"
	"feedbackgen/internal/workspace"
)

var (
	progressJSON  bool
	dashboardJSON bool
	alertDays     int
)

// progressCmd shows one student's progress report
var progressCmd = &cobra.Command{
	Use:   "progress [student-id]",
	Short: "Show a student's progress report",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgress,
}

// dashboardCmd shows the educator dashboard
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the educator dashboard",
	Long: `Aggregates the whole class: total students and responses, class
average, recent alerts (last 7 days), and students whose last three
scores average below 40%.`,
	RunE: runDashboard,
}

// alertsCmd lists educator alerts
var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List educator alerts",
	RunE:  runAlerts,
}

func init() {
	progressCmd.Flags().BoolVar(&progressJSON, "json", false, "Output as JSON")
	dashboardCmd.Flags().BoolVar(&dashboardJSON, "json", false, "Output as JSON")
	alertsCmd.Flags().IntVar(&alertDays, "days", 0, "Only alerts from the last N days (0 = all)")
}

func openWorkspaceStore() (*store.Store, workspace.Paths, error) {
	paths, err := workspace.Find()
	if err != nil {
		return nil, workspace.Paths{}, err
	}
	if err := workspace.Preflight(paths); err != nil {
		return nil, workspace.Paths{}, err
	}
	st, err := store.New(paths.DB)
	if err != nil {
		return nil, workspace.Paths{}, err
	}
	return st, paths, nil
}

func runProgress(cmd *cobra.Command, args []string) error {
	st, _, err := openWorkspaceStore()
	if err != nil {
		return err
	}
	defer st.Close()

	report, err := progress.Report(st, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if progressJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "Progress report for %s\n", report.StudentID)
	fmt.Fprintf(out, "  Total responses:    %d\n", report.TotalResponses)
	fmt.Fprintf(out, "  Average score:      %.1f%%\n", report.AverageScore*100)
	fmt.Fprintf(out, "  Latest score:       %.1f%%\n", report.LatestScore*100)
	fmt.Fprintf(out, "  Total points:       %d\n", report.TotalPoints)
	fmt.Fprintf(out, "  Recent improvement: %+.1f%%\n", report.RecentImprovement*100)
	fmt.Fprintf(out, "  Rewards:\n")
	for i := len(types.AllRewardTypes) - 1; i >= 0; i-- {
		rt := types.AllRewardTypes[i]
		fmt.Fprintf(out, "    %-8s %d\n", rt, report.RewardDistribution[rt])
	}
	fmt.Fprintf(out, "  Last updated: %s\n", report.LastUpdated.Format(time.RFC3339))
	return nil
}

func runDashboard(cmd *cobra.Command, args []string) error {
	st, _, err := openWorkspaceStore()
	if err != nil {
		return err
	}
	defer st.Close()

	dashboard, err := progress.BuildDashboard(st)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dashboardJSON {
		data, err := json.MarshalIndent(dashboard, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	o := dashboard.ClassOverview
	fmt.Fprintf(out, "Class overview\n")
	fmt.Fprintf(out, "  Total students:             %d\n", o.TotalStudents)
	fmt.Fprintf(out, "  Total responses:            %d\n", o.TotalResponses)
	fmt.Fprintf(out, "  Class average:              %.1f%%\n", o.ClassAverageScore*100)
	fmt.Fprintf(out, "  Students needing attention: %d\n", o.StudentsNeedingAttention)

	if len(dashboard.StrugglingStudents) > 0 {
		fmt.Fprintf(out, "\nStudents needing support: %s\n", strings.Join(dashboard.StrugglingStudents, ", "))
	}
	if len(dashboard.RecentAlerts) > 0 {
		fmt.Fprintf(out, "\nRecent alerts (7 days):\n")
		printAlerts(out, dashboard.RecentAlerts)
	} else {
		fmt.Fprintf(out, "\nNo recent alerts.\n")
	}
	return nil
}

func runAlerts(cmd *cobra.Command, args []string) error {
	st, _, err := openWorkspaceStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var alerts []types.EducatorAlert
	if alertDays > 0 {
		alerts, err = st.AlertsSince(time.Now().UTC().AddDate(0, 0, -alertDays))
	} else {
		alerts, err = st.AllAlerts()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(alerts) == 0 {
		fmt.Fprintln(out, "No alerts.")
		return nil
	}
	printAlerts(out, alerts)
	return nil
}

func printAlerts(out io.Writer, alerts []types.EducatorAlert) {
	for _, a := range alerts {
		fmt.Fprintf(out, "  [%s] %s - student %s\n", a.Severity, a.AlertType, a.StudentID)
		fmt.Fprintf(out, "      %s (%s)\n", a.Description, a.Timestamp.Format(time.RFC3339))
	}
}
