package demo

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"feedbackgen/internal/config"
	"feedbackgen/internal/reference"
)

func TestRunCompletesOffline(t *testing.T) {
	var out bytes.Buffer
	exportsDir := t.TempDir()

	err := Run(context.Background(), &out, config.Default(), reference.Default(), nil, exportsDir)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"STUDENT FEEDBACK GENERATION SYSTEM DEMO",
		"PROCESSING STUDENT RESPONSES",
		"Alice Johnson",
		"David Wilson",
		"STUDENT PROGRESS TRACKING",
		"EDUCATOR DASHBOARD",
		"DATA EXPORT",
		"PERFORMANCE BENCHMARK",
		"DEMO COMPLETED SUCCESSFULLY",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("demo output missing %q", want)
		}
	}
}

func TestRunWritesExport(t *testing.T) {
	var out bytes.Buffer
	exportsDir := t.TempDir()

	if err := Run(context.Background(), &out, config.Default(), reference.Default(), nil, exportsDir); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(exportsDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one export file, got %d", len(entries))
	}
	name := entries[0].Name()
	if !strings.HasPrefix(name, "feedback_data_") || filepath.Ext(name) != ".json" {
		t.Errorf("unexpected export filename: %s", name)
	}
}

func TestSampleResponsesCoverFourStudents(t *testing.T) {
	samples := sampleResponses(time.Now())
	if len(samples) != 4 {
		t.Fatalf("expected 4 sample responses, got %d", len(samples))
	}

	seen := map[string]bool{}
	for _, s := range samples {
		seen[s.response.StudentID] = true
		if s.response.Subject == "" || s.response.ResponseText == "" {
			t.Errorf("incomplete sample: %+v", s)
		}
	}
	for _, id := range []string{"alice_001", "bob_002", "carol_003", "david_004"} {
		if !seen[id] {
			t.Errorf("missing sample student %s", id)
		}
	}
}
