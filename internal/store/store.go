package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store owns the SQLite connection and hands out the repositories.
type Store struct {
	db  *sql.DB
	seq *auditSequence
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and creates missing tables.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return &Store{db: db, seq: &auditSequence{db: db}}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// EventRepo returns the LLM event log backed by this store.
func (s *Store) EventRepo() *EventLog {
	return &EventLog{db: s.db, seq: s.seq}
}

// SessionRepo returns the generation session log backed by this store.
func (s *Store) SessionRepo() *SessionLog {
	return &SessionLog{db: s.db, seq: s.seq}
}

// applyPragmas configures SQLite for a single-process service.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ` + tableSequence + ` (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	)`,
	`INSERT OR IGNORE INTO ` + tableSequence + ` (name, value) VALUES ('audit', 0)`,
	`CREATE TABLE IF NOT EXISTS ` + tableLLMEvents + ` (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL,
		timestamp_ms INTEGER NOT NULL,
		session_id TEXT NOT NULL DEFAULT '',
		provider TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		purpose TEXT NOT NULL DEFAULT '',
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		success INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		request_body TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_llm_events_purpose ON ` + tableLLMEvents + ` (purpose)`,
	`CREATE INDEX IF NOT EXISTS idx_llm_events_session ON ` + tableLLMEvents + ` (session_id)`,
	`CREATE TABLE IF NOT EXISTS ` + tableSessions + ` (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL,
		timestamp_ms INTEGER NOT NULL,
		session_id TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		grade INTEGER NOT NULL DEFAULT 0,
		difficulty TEXT NOT NULL DEFAULT '',
		format TEXT NOT NULL DEFAULT '',
		question_types TEXT NOT NULL DEFAULT '[]',
		total_questions INTEGER NOT NULL DEFAULT 0,
		vector_relevance REAL NOT NULL DEFAULT 0,
		agentic_validation REAL NOT NULL DEFAULT 0,
		personalization REAL NOT NULL DEFAULT 0,
		fallback_types INTEGER NOT NULL DEFAULT 0,
		warnings INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0
	)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. QUESTGEN_DB environment variable
// 2. $XDG_DATA_HOME/questgen/questgen.db
// 3. ~/.local/share/questgen/questgen.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("QUESTGEN_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "questgen", "questgen.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
