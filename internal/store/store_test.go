package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"feedbackgen/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "feedback.db"))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleFeedback(student, responseID string, score float64, ts time.Time) types.Feedback {
	return types.Feedback{
		ResponseID:       responseID,
		StudentID:        student,
		SimilarityScore:  score,
		RewardType:       types.RewardBronze,
		FeedbackText:     "keep going",
		Strengths:        []string{"effort"},
		ImprovementAreas: []string{"detail"},
		PersonalizedTips: []string{"review notes"},
		PointsEarned:     25,
		Timestamp:        ts,
	}
}

func TestSaveAndLoadFeedback(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	fb := sampleFeedback("alice", "resp-1", 0.82, now)
	fb.RewardType = types.RewardGold
	fb.PointsEarned = 75
	if err := s.SaveFeedback(fb); err != nil {
		t.Fatalf("SaveFeedback() failed: %v", err)
	}

	got, err := s.FeedbackByStudent("alice")
	if err != nil {
		t.Fatalf("FeedbackByStudent() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 feedback row, got %d", len(got))
	}
	if got[0].ResponseID != "resp-1" || got[0].RewardType != types.RewardGold {
		t.Errorf("unexpected row: %+v", got[0])
	}
	if got[0].SimilarityScore != 0.82 || got[0].PointsEarned != 75 {
		t.Errorf("score/points not round-tripped: %+v", got[0])
	}
	if len(got[0].Strengths) != 1 || got[0].Strengths[0] != "effort" {
		t.Errorf("strengths not round-tripped: %v", got[0].Strengths)
	}
	if !got[0].Timestamp.Equal(now.Truncate(time.Nanosecond)) {
		t.Errorf("timestamp drift: want %v, got %v", now, got[0].Timestamp)
	}
}

func TestSaveFeedbackUpsertsByResponseID(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	if err := s.SaveFeedback(sampleFeedback("alice", "resp-1", 0.2, now)); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveFeedback(sampleFeedback("alice", "resp-1", 0.9, now)); err != nil {
		t.Fatal(err)
	}

	got, err := s.FeedbackByStudent("alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected upsert to keep 1 row, got %d", len(got))
	}
	if got[0].SimilarityScore != 0.9 {
		t.Errorf("expected replaced score 0.9, got %v", got[0].SimilarityScore)
	}
}

func TestRecentScoresWindowAndOrder(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().UTC()

	scores := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7}
	for i, score := range scores {
		fb := sampleFeedback("bob", "resp-"+string(rune('a'+i)), score, base.Add(time.Duration(i)*time.Second))
		if err := s.SaveFeedback(fb); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.RecentScores("bob", 5)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0.3, 0.4, 0.5, 0.6, 0.7}
	if len(got) != len(want) {
		t.Fatalf("expected %d scores, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("scores[%d]: want %v, got %v", i, want[i], got[i])
		}
	}

	// Fewer rows than the window is fine.
	got, err = s.RecentScores("nobody", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no scores for unknown student, got %v", got)
	}
}

func TestAlertsRoundTripAndWindow(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	old := types.EducatorAlert{
		AlertID:        "alert-old",
		StudentID:      "carol",
		AlertType:      types.AlertConsistentStruggle,
		Severity:       "medium",
		Description:    "declining trend",
		Timestamp:      now.Add(-10 * 24 * time.Hour),
		ActionRequired: true,
	}
	recent := types.EducatorAlert{
		AlertID:        "alert-new",
		StudentID:      "carol",
		AlertType:      types.AlertLowPerformance,
		Severity:       "high",
		Description:    "scored below threshold",
		Timestamp:      now.Add(-time.Hour),
		ActionRequired: true,
	}
	for _, a := range []types.EducatorAlert{old, recent} {
		if err := s.SaveAlert(a); err != nil {
			t.Fatalf("SaveAlert(%s) failed: %v", a.AlertID, err)
		}
	}

	all, err := s.AllAlerts()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(all))
	}
	if !all[0].ActionRequired {
		t.Error("action_required flag lost in round trip")
	}

	windowed, err := s.AlertsSince(now.Add(-7 * 24 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(windowed) != 1 || windowed[0].AlertID != "alert-new" {
		t.Errorf("expected only the recent alert in the 7-day window, got %+v", windowed)
	}
}

func TestAlertsSinceWholeSecondBoundary(t *testing.T) {
	s := newTestStore(t)
	base := time.Now().UTC().Truncate(time.Second)

	// Whole-second timestamp before a sub-second cutoff must be excluded.
	if err := s.SaveAlert(types.EducatorAlert{
		AlertID: "before", StudentID: "x", AlertType: types.AlertLowPerformance,
		Severity: "high", Timestamp: base,
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveAlert(types.EducatorAlert{
		AlertID: "after", StudentID: "x", AlertType: types.AlertLowPerformance,
		Severity: "high", Timestamp: base.Add(time.Second),
	}); err != nil {
		t.Fatal(err)
	}

	got, err := s.AlertsSince(base.Add(500 * time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].AlertID != "after" {
		t.Errorf("expected only the later alert past the cutoff, got %+v", got)
	}

	// A whole-second cutoff includes an alert at exactly that instant.
	got, err = s.AlertsSince(base)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("cutoff must be inclusive, got %d alerts", len(got))
	}
}

func TestReferenceVectorCachesPerEngine(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mock := &MockEmbeddingEngine{}
	s.SetEmbeddingEngine(mock)

	v1, err := s.ReferenceVector(ctx, "the quadratic formula")
	if err != nil {
		t.Fatalf("ReferenceVector() failed: %v", err)
	}
	v2, err := s.ReferenceVector(ctx, "the quadratic formula")
	if err != nil {
		t.Fatal(err)
	}
	if mock.EmbedCalls() != 1 {
		t.Errorf("expected 1 embed call (second hit cached), got %d", mock.EmbedCalls())
	}
	if len(v1) != len(v2) || v1[0] != v2[0] {
		t.Errorf("cached vector differs: %v vs %v", v1, v2)
	}

	// A different engine name invalidates the cache entry.
	s.SetEmbeddingEngine(&MockEmbeddingEngine{NameFunc: func() string { return "mock-v2" }})
	if _, err := s.ReferenceVector(ctx, "the quadratic formula"); err != nil {
		t.Fatal(err)
	}
	stats, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.ByEngine["mock-v2"] != 1 {
		t.Errorf("expected entry re-cached under mock-v2, got %+v", stats.ByEngine)
	}
}

func TestReferenceVectorRequiresEngine(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.ReferenceVector(context.Background(), "anything"); err == nil {
		t.Fatal("expected error with no engine configured")
	}
}

func TestReembedPopulatesCache(t *testing.T) {
	s := newTestStore(t)
	s.SetEmbeddingEngine(&MockEmbeddingEngine{})

	contents := []string{"a", "bb", "ccc", "dddd"}
	n, err := s.Reembed(context.Background(), contents)
	if err != nil {
		t.Fatalf("Reembed() failed: %v", err)
	}
	if n != len(contents) {
		t.Errorf("expected %d embedded, got %d", len(contents), n)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != len(contents) {
		t.Errorf("expected %d cached vectors, got %d", len(contents), stats.Total)
	}
}

func TestReembedPropagatesFailure(t *testing.T) {
	s := newTestStore(t)
	s.SetEmbeddingEngine(&MockErrorEmbeddingEngine{})

	if _, err := s.Reembed(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected embed failure to propagate")
	}
}

func TestStudentIDsDistinctSorted(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	for i, student := range []string{"zoe", "alice", "zoe", "bob"} {
		fb := sampleFeedback(student, "resp-"+string(rune('0'+i)), 0.5, now)
		if err := s.SaveFeedback(fb); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := s.StudentIDs()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"alice", "bob", "zoe"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d]: want %s, got %s", i, want[i], ids[i])
		}
	}
}

func TestSaveResponse(t *testing.T) {
	s := newTestStore(t)

	resp := types.StudentResponse{
		StudentID:        "alice",
		QuestionID:       "q1",
		ResponseText:     "a² + b² = c²",
		Subject:          "mathematics",
		Timestamp:        time.Now().UTC(),
		ExpectedKeywords: []string{"pythagorean", "triangle"},
	}
	if err := s.SaveResponse(resp); err != nil {
		t.Fatalf("SaveResponse() failed: %v", err)
	}
}
