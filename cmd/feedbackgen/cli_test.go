package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRunFailsBeforeInit(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := execute(t, "run"); err == nil {
		t.Fatal("run must fail before init creates the workspace")
	}
}

func TestAnalyzeFailsBeforeInit(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execute(t, "analyze", "--student", "s1", "--question", "q1",
		"--subject", "mathematics", "some answer")
	if err == nil {
		t.Fatal("analyze must fail before init creates the workspace")
	}
}

func TestInitThenRunCompletesDemo(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if _, err := execute(t, "init"); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	for _, p := range []string{
		filepath.Join(dir, ".feedback", "config.json"),
		filepath.Join(dir, ".feedback", "feedback.db"),
		filepath.Join(dir, ".feedback", "reference.yaml"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("init did not create %s", p)
		}
	}

	out, err := execute(t, "run")
	if err != nil {
		t.Fatalf("run failed after init: %v", err)
	}
	if !strings.Contains(out, "DEMO COMPLETED SUCCESSFULLY") {
		t.Errorf("demo did not complete:\n%s", out)
	}
	if strings.Count(out, "STUDENT FEEDBACK GENERATION SYSTEM DEMO") != 1 {
		t.Error("demo must run exactly once per invocation")
	}
}

func TestAnalyzePersistsFeedback(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if _, err := execute(t, "init"); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	out, err := execute(t, "analyze",
		"--student", "alice_001",
		"--question", "math_geometry_01",
		"--subject", "mathematics",
		"The Pythagorean theorem states that a² + b² = c² for right triangles")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if !strings.Contains(out, "Similarity score:") || !strings.Contains(out, "Reward:") {
		t.Errorf("analyze output incomplete:\n%s", out)
	}

	out, err = execute(t, "progress", "alice_001")
	if err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if !strings.Contains(out, "Total responses:    1") {
		t.Errorf("progress did not reflect the analyzed response:\n%s", out)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := execute(t, "init"); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "init"); err != nil {
		t.Fatalf("second init failed: %v", err)
	}
}
