package embedding

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"feedbackgen/internal/config"
)

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1.0},
		{"orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 0.0},
		{"opposite", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1.0},
		{"zero vector", []float32{0, 0, 0}, []float32{1, 0, 0}, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CosineSimilarity(tc.a, tc.b)
			if err != nil {
				t.Fatalf("CosineSimilarity failed: %v", err)
			}
			if math.Abs(got-tc.want) > 1e-6 {
				t.Errorf("CosineSimilarity = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	if _, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}); err == nil {
		t.Error("expected error for mismatched dimensions")
	}
}

func TestFindTopK(t *testing.T) {
	query := []float32{1, 0, 0, 0}
	corpus := [][]float32{
		{0, 0, 1, 0},       // dissimilar
		{1, 0, 0, 0},       // identical
		{0.9, 0.1, 0, 0},   // close
		{0, 1, 0},          // wrong dimension, skipped
	}

	results, err := FindTopK(query, corpus, 2)
	if err != nil {
		t.Fatalf("FindTopK failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Index != 1 {
		t.Errorf("top result index = %d, want 1", results[0].Index)
	}
	if results[1].Index != 2 {
		t.Errorf("second result index = %d, want 2", results[1].Index)
	}
	if results[0].Similarity < results[1].Similarity {
		t.Error("results not sorted by similarity descending")
	}
}

func TestNewEngineEmptyProviderReturnsNil(t *testing.T) {
	engine, err := NewEngine(&config.EmbeddingConfig{})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if engine != nil {
		t.Error("expected nil engine for empty provider")
	}

	engine, err = NewEngine(nil)
	if err != nil || engine != nil {
		t.Errorf("NewEngine(nil) = (%v, %v), want (nil, nil)", engine, err)
	}
}

func TestNewEngineUnsupportedProvider(t *testing.T) {
	if _, err := NewEngine(&config.EmbeddingConfig{Provider: "bedrock"}); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestOllamaEngineEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embedding":[0.1,0.2,0.3]}`))
	}))
	defer srv.Close()

	engine, err := NewOllamaEngine(srv.URL, "embeddinggemma")
	if err != nil {
		t.Fatalf("NewOllamaEngine failed: %v", err)
	}

	vec, err := engine.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3-dim vector, got %d", len(vec))
	}
	if engine.Name() != "ollama:embeddinggemma" {
		t.Errorf("Name = %q", engine.Name())
	}
}

func TestOllamaEngineServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	engine, _ := NewOllamaEngine(srv.URL, "missing-model")
	if _, err := engine.Embed(context.Background(), "hello"); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestOllamaEngineBatchIsSequential(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"embedding":[1,0]}`))
	}))
	defer srv.Close()

	engine, _ := NewOllamaEngine(srv.URL, "")
	vecs, err := engine.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(vecs) != 3 || calls != 3 {
		t.Errorf("expected 3 vectors from 3 calls, got %d vectors, %d calls", len(vecs), calls)
	}
}

func TestGenAIEngineRequiresKey(t *testing.T) {
	if _, err := NewGenAIEngine("", "", ""); err == nil {
		t.Error("expected error when API key missing")
	}
}

func TestResolveTaskType(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "SEMANTIC_SIMILARITY"},
		{"SEMANTIC_SIMILARITY", "SEMANTIC_SIMILARITY"},
		{"CLASSIFICATION", "CLASSIFICATION"},
		{"CLUSTERING", "CLUSTERING"},
		{"RETRIEVAL_DOCUMENT", "RETRIEVAL_DOCUMENT"},
		{"RETRIEVAL_QUERY", "RETRIEVAL_QUERY"},
		{"QUESTION_ANSWERING", "QUESTION_ANSWERING"},
		{"FACT_VERIFICATION", "FACT_VERIFICATION"},
		{"bogus", "SEMANTIC_SIMILARITY"},
	}
	for _, tc := range cases {
		if got := resolveTaskType(tc.in); got != tc.want {
			t.Errorf("resolveTaskType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
