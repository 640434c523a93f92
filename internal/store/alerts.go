package store

import (
	"fmt"
	"time"

	"feedbackgen/internal/logging"
	"feedbackgen/internal/types"
)

// SaveAlert persists an educator alert.
func (s *Store) SaveAlert(alert types.EducatorAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	action := 0
	if alert.ActionRequired {
		action = 1
	}

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO alerts
		 (alert_id, student_id, alert_type, severity, description, action_required, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		alert.AlertID, alert.StudentID, string(alert.AlertType), alert.Severity,
		alert.Description, action, alert.Timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}

	logging.Alerts("raised %s alert (%s) for student %s", alert.AlertType, alert.Severity, alert.StudentID)
	return nil
}

func (s *Store) queryAlerts(query string, args ...interface{}) ([]types.EducatorAlert, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []types.EducatorAlert
	for rows.Next() {
		var a types.EducatorAlert
		var alertType, createdAt string
		var action int

		if err := rows.Scan(&a.AlertID, &a.StudentID, &alertType, &a.Severity,
			&a.Description, &action, &createdAt); err != nil {
			return nil, err
		}

		a.AlertType = types.AlertType(alertType)
		a.ActionRequired = action != 0
		ts, err := time.Parse(timeLayout, createdAt)
		if err != nil {
			logging.Get(logging.CategoryAlerts).Warn("skipping alert %s with corrupt timestamp %q", a.AlertID, createdAt)
			continue
		}
		a.Timestamp = ts

		result = append(result, a)
	}
	return result, rows.Err()
}

const alertColumns = `alert_id, student_id, alert_type, severity, description, action_required, created_at`

// AllAlerts returns every alert, oldest first.
func (s *Store) AllAlerts() ([]types.EducatorAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAlerts(`SELECT ` + alertColumns + ` FROM alerts ORDER BY id ASC`)
}

// AlertsSince returns alerts raised at or after the cutoff, newest first.
func (s *Store) AlertsSince(cutoff time.Time) ([]types.EducatorAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAlerts(
		`SELECT `+alertColumns+` FROM alerts WHERE created_at >= ? ORDER BY id DESC`,
		cutoff.UTC().Format(timeLayout),
	)
}

// AlertsByStudent returns a student's alerts, oldest first.
func (s *Store) AlertsByStudent(studentID string) ([]types.EducatorAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryAlerts(
		`SELECT `+alertColumns+` FROM alerts WHERE student_id = ? ORDER BY id ASC`,
		studentID,
	)
}
