// Package logstore archives console output in SQLite.
package logstore

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	jscbridge "github.com/yejune/go-jsc-bridge"
)

// Store is a LogSink that inserts every entry into the console_logs table.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	mu     sync.Mutex
}

// Open opens or creates the database at path
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps ":memory:" databases coherent
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS console_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		generation INTEGER NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		line TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Insert stores one entry
func (s *Store) Insert(entry jscbridge.LogEntry) error {
	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		"INSERT INTO console_logs (generation, level, message, line, created_at) VALUES (?, ?, ?, ?, ?)",
		int64(entry.Generation), entry.Level, entry.Message, entry.Line, entry.Time.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("inserting log entry: %w", err)
	}
	return nil
}

// WriteEntry inserts entry and logs instead of returning failures
func (s *Store) WriteEntry(entry jscbridge.LogEntry) {
	if err := s.Insert(entry); err != nil {
		s.logger.Warn("Dropping console entry", "error", err)
	}
}

// Recent returns up to n entries, oldest first
func (s *Store) Recent(n int) ([]jscbridge.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(
		`SELECT generation, level, message, line, created_at FROM (
			SELECT id, generation, level, message, line, created_at FROM console_logs ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, n)
	if err != nil {
		return nil, fmt.Errorf("querying log entries: %w", err)
	}
	defer rows.Close()

	var entries []jscbridge.LogEntry
	for rows.Next() {
		var (
			e          jscbridge.LogEntry
			generation int64
			created    int64
		)
		if err := rows.Scan(&generation, &e.Level, &e.Message, &e.Line, &created); err != nil {
			return nil, fmt.Errorf("scanning log entry: %w", err)
		}
		e.Generation = uint64(generation)
		e.Time = time.Unix(0, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Generation returns every entry written by one engine generation
func (s *Store) Generation(generation uint64) ([]jscbridge.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(
		"SELECT level, message, line, created_at FROM console_logs WHERE generation = ? ORDER BY id ASC",
		int64(generation))
	if err != nil {
		return nil, fmt.Errorf("querying log entries: %w", err)
	}
	defer rows.Close()

	var entries []jscbridge.LogEntry
	for rows.Next() {
		e := jscbridge.LogEntry{Generation: generation}
		var created int64
		if err := rows.Scan(&e.Level, &e.Message, &e.Line, &created); err != nil {
			return nil, fmt.Errorf("scanning log entry: %w", err)
		}
		e.Time = time.Unix(0, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
