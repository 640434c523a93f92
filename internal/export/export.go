// Package export writes the full feedback history to JSON for
// external analysis.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"feedbackgen/internal/logging"
	"feedbackgen/internal/store"
	"feedbackgen/internal/types"
)

// Payload is the exported document.
type Payload struct {
	FeedbackHistory []types.Feedback      `json:"feedback_history"`
	EducatorAlerts  []types.EducatorAlert `json:"educator_alerts"`
	ExportTimestamp time.Time             `json:"export_timestamp"`
}

// DefaultFilename returns the timestamped export name, e.g.
// feedback_data_20260827_153045.json.
func DefaultFilename(now time.Time) string {
	return fmt.Sprintf("feedback_data_%s.json", now.Format("20060102_150405"))
}

// ToFile exports all feedback and alerts to the given path. An empty
// path writes a timestamped file into dir.
func ToFile(st *store.Store, dir, path string) (string, error) {
	timer := logging.StartTimer(logging.CategoryExport, "export.ToFile")
	defer timer.Stop()

	history, err := st.AllFeedback()
	if err != nil {
		return "", fmt.Errorf("failed to load feedback history: %w", err)
	}
	alerts, err := st.AllAlerts()
	if err != nil {
		return "", fmt.Errorf("failed to load alerts: %w", err)
	}

	payload := Payload{
		FeedbackHistory: history,
		EducatorAlerts:  alerts,
		ExportTimestamp: time.Now().UTC(),
	}
	// Keep the JSON shape stable for consumers: empty lists, not null.
	if payload.FeedbackHistory == nil {
		payload.FeedbackHistory = []types.Feedback{}
	}
	if payload.EducatorAlerts == nil {
		payload.EducatorAlerts = []types.EducatorAlert{}
	}

	if path == "" {
		path = filepath.Join(dir, DefaultFilename(time.Now()))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal export: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}

	logging.Export("exported %d feedback entries and %d alerts to %s",
		len(payload.FeedbackHistory), len(payload.EducatorAlerts), path)
	return path, nil
}
