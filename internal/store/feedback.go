package store

import (
	"encoding/json"
	"fmt"
	"time"

	"feedbackgen/internal/logging"
	"feedbackgen/internal/types"
)

// SaveResponse persists a student response.
func (s *Store) SaveResponse(resp types.StudentResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keywords, err := json.Marshal(resp.ExpectedKeywords)
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO responses (student_id, question_id, response_text, subject, expected_keywords, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		resp.StudentID, resp.QuestionID, resp.ResponseText, resp.Subject,
		string(keywords), resp.Timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save response: %w", err)
	}

	logging.StoreDebug("saved response for student %s question %s", resp.StudentID, resp.QuestionID)
	return nil
}

// SaveFeedback persists generated feedback.
func (s *Store) SaveFeedback(fb types.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	strengths, _ := json.Marshal(fb.Strengths)
	improvements, _ := json.Marshal(fb.ImprovementAreas)
	tips, _ := json.Marshal(fb.PersonalizedTips)

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO feedback
		 (response_id, student_id, similarity_score, reward_type, feedback_text,
		  strengths, improvement_areas, personalized_tips, points_earned, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fb.ResponseID, fb.StudentID, fb.SimilarityScore, string(fb.RewardType),
		fb.FeedbackText, string(strengths), string(improvements), string(tips),
		fb.PointsEarned, fb.Timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}

	logging.StoreDebug("saved feedback %s for student %s (score=%.3f)", fb.ResponseID, fb.StudentID, fb.SimilarityScore)
	return nil
}

// scanFeedback reads one feedback row; columns must match feedbackColumns.
const feedbackColumns = `response_id, student_id, similarity_score, reward_type, feedback_text,
	strengths, improvement_areas, personalized_tips, points_earned, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFeedback(row rowScanner) (types.Feedback, error) {
	var fb types.Feedback
	var reward, strengths, improvements, tips, createdAt string

	if err := row.Scan(&fb.ResponseID, &fb.StudentID, &fb.SimilarityScore, &reward,
		&fb.FeedbackText, &strengths, &improvements, &tips, &fb.PointsEarned, &createdAt); err != nil {
		return types.Feedback{}, err
	}

	fb.RewardType = types.RewardType(reward)
	json.Unmarshal([]byte(strengths), &fb.Strengths)
	json.Unmarshal([]byte(improvements), &fb.ImprovementAreas)
	json.Unmarshal([]byte(tips), &fb.PersonalizedTips)

	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return types.Feedback{}, fmt.Errorf("corrupt timestamp %q: %w", createdAt, err)
	}
	fb.Timestamp = ts

	return fb, nil
}

// FeedbackByStudent returns all feedback for a student, oldest first.
func (s *Store) FeedbackByStudent(studentID string) ([]types.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT `+feedbackColumns+` FROM feedback WHERE student_id = ? ORDER BY id ASC`,
		studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []types.Feedback
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			logging.Get(logging.CategoryStore).Warn("skipping corrupt feedback row: %v", err)
			continue
		}
		result = append(result, fb)
	}
	return result, rows.Err()
}

// AllFeedback returns every feedback row, oldest first.
func (s *Store) AllFeedback() ([]types.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT ` + feedbackColumns + ` FROM feedback ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []types.Feedback
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			logging.Get(logging.CategoryStore).Warn("skipping corrupt feedback row: %v", err)
			continue
		}
		result = append(result, fb)
	}
	return result, rows.Err()
}

// RecentScores returns a student's last n similarity scores in
// chronological order (oldest of the window first).
func (s *Store) RecentScores(studentID string, n int) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		n = 5
	}

	rows, err := s.db.Query(
		`SELECT similarity_score FROM (
			SELECT id, similarity_score FROM feedback
			WHERE student_id = ? ORDER BY id DESC LIMIT ?
		 ) ORDER BY id ASC`,
		studentID, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

// StudentIDs returns the distinct students with feedback history.
func (s *Store) StudentIDs() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT DISTINCT student_id FROM feedback ORDER BY student_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
