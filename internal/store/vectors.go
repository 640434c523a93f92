package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"feedbackgen/internal/logging"
)

// reembedBatchSize bounds how many texts are embedded concurrently
// during a full cache rebuild.
const reembedBatchSize = 32

// ReferenceVector returns the cached embedding for a reference answer,
// computing and caching it on a miss. Requires SetEmbeddingEngine.
func (s *Store) ReferenceVector(ctx context.Context, content string) ([]float32, error) {
	s.mu.RLock()
	engine := s.engine
	s.mu.RUnlock()

	if engine == nil {
		return nil, fmt.Errorf("no embedding engine configured")
	}

	if vec, ok, err := s.cachedVector(content, engine.Name()); err != nil {
		return nil, err
	} else if ok {
		return vec, nil
	}

	vec, err := engine.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("failed to embed reference answer: %w", err)
	}

	if err := s.putVector(content, vec, engine.Name()); err != nil {
		// A failed cache write is not fatal; we still have the vector.
		logging.Get(logging.CategoryStore).Warn("failed to cache reference vector: %v", err)
	}
	return vec, nil
}

// cachedVector looks up a vector for content, but only if it was
// produced by the same engine. Stale-engine rows count as misses.
func (s *Store) cachedVector(content, engineName string) ([]float32, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var encoded, engine string
	err := s.db.QueryRow(
		`SELECT embedding, engine FROM reference_vectors WHERE content = ?`, content,
	).Scan(&encoded, &engine)
	if err != nil {
		return nil, false, nil // miss
	}
	if engine != engineName || encoded == "" {
		return nil, false, nil
	}

	var vec []float32
	if err := json.Unmarshal([]byte(encoded), &vec); err != nil {
		return nil, false, nil
	}
	return vec, true, nil
}

func (s *Store) putVector(content string, vec []float32, engineName string) error {
	encoded, err := json.Marshal(vec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO reference_vectors (content, embedding, engine, created_at)
		 VALUES (?, ?, ?, ?)`,
		content, string(encoded), engineName, time.Now().UTC().Format(timeLayout),
	)
	return err
}

// Reembed recomputes cached vectors for all given reference answers
// with the current engine. Returns the number of answers embedded.
func (s *Store) Reembed(ctx context.Context, contents []string) (int, error) {
	s.mu.RLock()
	engine := s.engine
	s.mu.RUnlock()

	if engine == nil {
		return 0, fmt.Errorf("no embedding engine configured")
	}

	timer := logging.StartTimer(logging.CategoryStore, "store.Reembed")
	defer timer.Stop()

	done := 0
	for start := 0; start < len(contents); start += reembedBatchSize {
		end := start + reembedBatchSize
		if end > len(contents) {
			end = len(contents)
		}
		batch := contents[start:end]

		vectors := make([][]float32, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, content := range batch {
			i, content := i, content
			g.Go(func() error {
				vec, err := engine.Embed(gctx, content)
				if err != nil {
					return fmt.Errorf("failed to embed %q: %w", truncate(content, 40), err)
				}
				vectors[i] = vec
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return done, err
		}

		for i, content := range batch {
			if err := s.putVector(content, vectors[i], engine.Name()); err != nil {
				return done, fmt.Errorf("failed to store vector: %w", err)
			}
			done++
		}
		logging.StoreDebug("reembedded batch %d-%d of %d", start, end, len(contents))
	}

	logging.Store("reembedded %d reference answers with %s", done, engine.Name())
	return done, nil
}

// VectorStats summarizes the reference vector cache.
type VectorStats struct {
	Total     int            `json:"total"`
	ByEngine  map[string]int `json:"by_engine"`
	OldestAge time.Duration  `json:"oldest_age"`
}

// Stats reports vector cache contents grouped by engine.
func (s *Store) Stats() (VectorStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := VectorStats{ByEngine: make(map[string]int)}

	rows, err := s.db.Query(`SELECT engine, COUNT(*) FROM reference_vectors GROUP BY engine`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var engine string
		var count int
		if err := rows.Scan(&engine, &count); err != nil {
			return stats, err
		}
		stats.ByEngine[engine] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	var oldest string
	if err := s.db.QueryRow(`SELECT MIN(created_at) FROM reference_vectors`).Scan(&oldest); err == nil && oldest != "" {
		if ts, err := time.Parse(timeLayout, oldest); err == nil {
			stats.OldestAge = time.Since(ts)
		}
	}
	return stats, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
