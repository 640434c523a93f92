// Package store persists student responses, generated feedback,
// educator alerts, and cached reference-answer embeddings in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"feedbackgen/internal/embedding"
	"feedbackgen/internal/logging"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the SQLite database holding all feedback history.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	engine embedding.Engine // Optional embedding engine for the vector cache
}

// timeLayout is the canonical timestamp encoding for all tables.
// Fixed-width fractional seconds so lexicographic comparison in SQL
// (AlertsSince) matches chronological order; a trimming layout would
// sort "…:05Z" after "…:05.5Z".
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// New opens (or creates) the SQLite database at the given path and
// ensures the schema exists.
func New(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "store.New")
	defer timer.Stop()

	logging.Store("Opening store at %s", path)

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	// synchronous=NORMAL is safe with WAL and much faster than FULL.
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("Store ready (responses, feedback, alerts, reference vectors)")
	return s, nil
}

// initialize creates the required tables.
func (s *Store) initialize() error {
	responsesTable := `
	CREATE TABLE IF NOT EXISTS responses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id TEXT NOT NULL,
		question_id TEXT NOT NULL,
		response_text TEXT NOT NULL,
		subject TEXT NOT NULL,
		expected_keywords TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_responses_student ON responses(student_id);
	`

	feedbackTable := `
	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		response_id TEXT NOT NULL UNIQUE,
		student_id TEXT NOT NULL,
		similarity_score REAL NOT NULL,
		reward_type TEXT NOT NULL,
		feedback_text TEXT NOT NULL,
		strengths TEXT,
		improvement_areas TEXT,
		personalized_tips TEXT,
		points_earned INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_student ON feedback(student_id);
	CREATE INDEX IF NOT EXISTS idx_feedback_created ON feedback(created_at);
	`

	alertsTable := `
	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		alert_id TEXT NOT NULL UNIQUE,
		student_id TEXT NOT NULL,
		alert_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		description TEXT,
		action_required INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_student ON alerts(student_id);
	CREATE INDEX IF NOT EXISTS idx_alerts_created ON alerts(created_at);
	`

	// Reference-answer embedding cache so scoring doesn't re-embed the
	// corpus on every response.
	vectorsTable := `
	CREATE TABLE IF NOT EXISTS reference_vectors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content TEXT NOT NULL UNIQUE,
		embedding TEXT,
		engine TEXT,
		created_at TEXT NOT NULL
	);
	`

	for _, stmt := range []string{responsesTable, feedbackTable, alertsTable, vectorsTable} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// SetEmbeddingEngine configures the engine used by the vector cache.
// Must be called before ReferenceVector / Reembed.
func (s *Store) SetEmbeddingEngine(engine embedding.Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine = engine
}

// EmbeddingEngine returns the configured engine, or nil.
func (s *Store) EmbeddingEngine() embedding.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
