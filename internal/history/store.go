package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mskaar/nbpress/internal/pipeline"
)

// Entry is one recorded build.
type Entry struct {
	BuildID   string
	StartedAt time.Time
	Duration  time.Duration
	Outcome   string
	Published bool
	Stages    map[string]time.Duration
}

// Store persists build history in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (or creates) the history database.
// Use ":memory:" for an in-memory database, or a file path for persistence.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		published INTEGER NOT NULL DEFAULT 0,
		stages TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores a finished build report.
func (s *Store) Record(ctx context.Context, report *pipeline.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stages := make(map[string]int64, len(report.StageDurations))
	for name, d := range report.StageDurations {
		stages[string(name)] = d.Milliseconds()
	}
	stagesJSON, err := json.Marshal(stages)
	if err != nil {
		return fmt.Errorf("marshal stage durations: %w", err)
	}

	published := 0
	if report.Published {
		published = 1
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO builds (id, started, duration_ms, outcome, published, stages) VALUES (?, ?, ?, ?, ?, ?)",
		report.BuildID, report.StartedAt.Unix(), report.Duration().Milliseconds(), string(report.Outcome), published, stagesJSON,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// Recent returns the most recent builds, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, started, duration_ms, outcome, published, stages FROM builds ORDER BY started DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			started    int64
			durationMS int64
			published  int
			stagesJSON sql.NullString
		)
		if err := rows.Scan(&e.BuildID, &started, &durationMS, &e.Outcome, &published, &stagesJSON); err != nil {
			return nil, fmt.Errorf("scan build row: %w", err)
		}
		e.StartedAt = time.Unix(started, 0)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.Published = published != 0
		if stagesJSON.Valid && stagesJSON.String != "" {
			var stages map[string]int64
			if err := json.Unmarshal([]byte(stagesJSON.String), &stages); err == nil {
				e.Stages = make(map[string]time.Duration, len(stages))
				for name, ms := range stages {
					e.Stages[name] = time.Duration(ms) * time.Millisecond
				}
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }
