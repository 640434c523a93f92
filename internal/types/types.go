// Package types defines the core domain records shared across the
// feedback pipeline: student responses, generated feedback, rewards,
// and educator alerts.
package types

import "time"

// RewardType is the gamified reward tier awarded for a response.
type RewardType string

const (
	RewardBronze   RewardType = "bronze"
	RewardSilver   RewardType = "silver"
	RewardGold     RewardType = "gold"
	RewardPlatinum RewardType = "platinum"
)

// AllRewardTypes lists every tier, lowest first. Used for building
// reward distributions with stable ordering.
var AllRewardTypes = []RewardType{RewardBronze, RewardSilver, RewardGold, RewardPlatinum}

// Valid reports whether r is one of the known reward tiers.
func (r RewardType) Valid() bool {
	switch r {
	case RewardBronze, RewardSilver, RewardGold, RewardPlatinum:
		return true
	}
	return false
}

// StudentResponse is a single free-text answer submitted by a student.
type StudentResponse struct {
	StudentID        string    `json:"student_id"`
	QuestionID       string    `json:"question_id"`
	ResponseText     string    `json:"response_text"`
	Subject          string    `json:"subject"`
	Timestamp        time.Time `json:"timestamp"`
	ExpectedKeywords []string  `json:"expected_keywords,omitempty"`
}

// Feedback is the full generated assessment for one response.
type Feedback struct {
	ResponseID       string     `json:"response_id"`
	StudentID        string     `json:"student_id"`
	SimilarityScore  float64    `json:"similarity_score"`
	RewardType       RewardType `json:"reward_type"`
	FeedbackText     string     `json:"feedback_text"`
	Strengths        []string   `json:"strengths"`
	ImprovementAreas []string   `json:"improvement_areas"`
	PersonalizedTips []string   `json:"personalized_tips"`
	PointsEarned     int        `json:"points_earned"`
	Timestamp        time.Time  `json:"timestamp"`
}

// AlertType identifies why an educator alert was raised.
type AlertType string

const (
	AlertLowPerformance     AlertType = "low_performance"
	AlertConsistentStruggle AlertType = "consistent_struggle"
)

// EducatorAlert flags a student who needs educator attention.
type EducatorAlert struct {
	AlertID        string    `json:"alert_id"`
	StudentID      string    `json:"student_id"`
	AlertType      AlertType `json:"alert_type"`
	Severity       string    `json:"severity"` // high | medium | low
	Description    string    `json:"description"`
	Timestamp      time.Time `json:"timestamp"`
	ActionRequired bool      `json:"action_required"`
}

// ProgressReport summarizes one student's history.
type ProgressReport struct {
	StudentID          string             `json:"student_id"`
	TotalResponses     int                `json:"total_responses"`
	AverageScore       float64            `json:"average_score"`
	LatestScore        float64            `json:"latest_score"`
	TotalPoints        int                `json:"total_points"`
	RewardDistribution map[RewardType]int `json:"reward_distribution"`
	RecentImprovement  float64            `json:"recent_improvement"`
	LastUpdated        time.Time          `json:"last_updated"`
}

// ClassOverview holds aggregate class statistics for the dashboard.
type ClassOverview struct {
	TotalStudents            int     `json:"total_students"`
	TotalResponses           int     `json:"total_responses"`
	ClassAverageScore        float64 `json:"class_average_score"`
	StudentsNeedingAttention int     `json:"students_needing_attention"`
}

// Dashboard is the educator-facing class summary.
type Dashboard struct {
	ClassOverview      ClassOverview   `json:"class_overview"`
	RecentAlerts       []EducatorAlert `json:"recent_alerts"`
	StrugglingStudents []string        `json:"struggling_students"`
	LastUpdated        time.Time       `json:"last_updated"`
}
