// Package progress aggregates feedback history into per-student
// reports and the educator dashboard.
package progress

import (
	"fmt"
	"time"

	"feedbackgen/internal/logging"
	"feedbackgen/internal/store"
	"feedbackgen/internal/types"
)

// strugglingThreshold flags a student when the mean of their last
// three scores falls below it.
const strugglingThreshold = 0.4

// alertWindow bounds which alerts count as "recent" on the dashboard.
const alertWindow = 7 * 24 * time.Hour

// recentScoreCount is the window used for struggling-student detection.
const recentScoreCount = 3

// Report builds a progress report for one student.
func Report(st *store.Store, studentID string) (types.ProgressReport, error) {
	timer := logging.StartTimer(logging.CategoryProgress, "progress.Report")
	defer timer.Stop()

	history, err := st.FeedbackByStudent(studentID)
	if err != nil {
		return types.ProgressReport{}, err
	}
	if len(history) == 0 {
		return types.ProgressReport{}, fmt.Errorf("no feedback found for student %s", studentID)
	}

	report := types.ProgressReport{
		StudentID:          studentID,
		TotalResponses:     len(history),
		RewardDistribution: make(map[types.RewardType]int, len(types.AllRewardTypes)),
	}
	for _, rt := range types.AllRewardTypes {
		report.RewardDistribution[rt] = 0
	}

	var sum float64
	for _, fb := range history {
		sum += fb.SimilarityScore
		report.TotalPoints += fb.PointsEarned
		report.RewardDistribution[fb.RewardType]++
	}

	first := history[0]
	last := history[len(history)-1]

	report.AverageScore = sum / float64(len(history))
	report.LatestScore = last.SimilarityScore
	if len(history) > 1 {
		report.RecentImprovement = last.SimilarityScore - first.SimilarityScore
	}
	report.LastUpdated = last.Timestamp

	logging.Progress("progress report for %s: %d responses, avg %.2f",
		studentID, report.TotalResponses, report.AverageScore)
	return report, nil
}

// BuildDashboard assembles the educator dashboard: class aggregates,
// alerts from the last seven days, and students whose recent scores
// are trending low.
func BuildDashboard(st *store.Store) (types.Dashboard, error) {
	timer := logging.StartTimer(logging.CategoryProgress, "progress.BuildDashboard")
	defer timer.Stop()

	students, err := st.StudentIDs()
	if err != nil {
		return types.Dashboard{}, err
	}
	all, err := st.AllFeedback()
	if err != nil {
		return types.Dashboard{}, err
	}

	var classAverage float64
	if len(all) > 0 {
		var sum float64
		for _, fb := range all {
			sum += fb.SimilarityScore
		}
		classAverage = sum / float64(len(all))
	}

	var struggling []string
	for _, student := range students {
		recent, err := st.RecentScores(student, recentScoreCount)
		if err != nil {
			return types.Dashboard{}, err
		}
		if len(recent) > 0 && mean(recent) < strugglingThreshold {
			struggling = append(struggling, student)
		}
	}

	alerts, err := st.AlertsSince(time.Now().UTC().Add(-alertWindow))
	if err != nil {
		return types.Dashboard{}, err
	}

	dashboard := types.Dashboard{
		ClassOverview: types.ClassOverview{
			TotalStudents:            len(students),
			TotalResponses:           len(all),
			ClassAverageScore:        classAverage,
			StudentsNeedingAttention: len(struggling),
		},
		RecentAlerts:       alerts,
		StrugglingStudents: struggling,
		LastUpdated:        time.Now().UTC(),
	}

	logging.Progress("dashboard built: %d students, %d responses, %d struggling",
		len(students), len(all), len(struggling))
	return dashboard, nil
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
