// Package journal keeps an append-only audit trail of provisioning
// conversations in SQLite.
//
// The journal records what was proposed, confirmed, declined and
// rejected. It is never replayed into sessions: configuration state
// always starts empty when the process starts.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/HendryAvila/provisio/internal/orchestrator"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// MemoryPath keeps the journal in memory for the life of the process.
const MemoryPath = ":memory:"

// DefaultLimit is used by list queries when limit is not positive.
const DefaultLimit = 20

// ErrDisabled is returned by New when the configured path turns the
// journal off.
var ErrDisabled = errors.New("journal: disabled")

// Config holds journal store configuration.
type Config struct {
	// Path is a database file, MemoryPath, or "" / "off" to disable.
	Path string
}

// Disabled reports whether the config turns the journal off.
func (c Config) Disabled() bool {
	p := strings.TrimSpace(c.Path)
	return p == "" || strings.EqualFold(p, "off")
}

// Entry is one recorded conversation event.
type Entry struct {
	ID         string `json:"id"`
	SessionKey string `json:"session_key"`
	Kind       string `json:"kind"`
	Action     string `json:"action,omitempty"`
	Label      string `json:"label,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// Store is the SQLite-backed journal.
type Store struct {
	db   *sql.DB
	path string
}

// New opens the journal database and runs migrations.
func New(cfg Config) (*Store, error) {
	if cfg.Disabled() {
		return nil, ErrDisabled
	}

	path := strings.TrimSpace(cfg.Path)
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("journal: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}
	// Every connection to :memory: is its own database.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migration: %w", err)
	}
	return s, nil
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS events (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			id          TEXT    NOT NULL UNIQUE,
			session_key TEXT    NOT NULL,
			kind        TEXT    NOT NULL,
			action      TEXT    NOT NULL DEFAULT '',
			label       TEXT    NOT NULL DEFAULT '',
			message     TEXT    NOT NULL DEFAULT '',
			error       TEXT    NOT NULL DEFAULT '',
			created_at  TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_key, seq);
		CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends an entry. Empty ID and CreatedAt are filled in. The
// stored entry is returned.
func (s *Store) Record(e Entry) (Entry, error) {
	if e.SessionKey == "" {
		return Entry{}, fmt.Errorf("journal: record: session key is required")
	}
	if e.Kind == "" {
		return Entry{}, fmt.Errorf("journal: record: kind is required")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt == "" {
		e.CreatedAt = timeNow().UTC().Format(time.RFC3339Nano)
	}

	_, err := s.db.Exec(
		`INSERT INTO events (id, session_key, kind, action, label, message, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionKey, e.Kind, e.Action, e.Label, e.Message, e.Error, e.CreatedAt,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("journal: record: %w", err)
	}
	return e, nil
}

// ForSession returns the last limit entries for key, oldest first.
func (s *Store) ForSession(key string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return s.query(`
		SELECT id, session_key, kind, action, label, message, error, created_at
		FROM (
			SELECT * FROM events WHERE session_key = ? ORDER BY seq DESC LIMIT ?
		)
		ORDER BY seq ASC`, key, limit)
}

// Recent returns the last limit entries across all sessions, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return s.query(`
		SELECT id, session_key, kind, action, label, message, error, created_at
		FROM events ORDER BY seq DESC LIMIT ?`, limit)
}

// Counts returns the number of entries per kind.
func (s *Store) Counts() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT kind, COUNT(*) FROM events GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("journal: counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("journal: counts: %w", err)
		}
		out[kind] = n
	}
	return out, rows.Err()
}

func (s *Store) query(query string, args ...any) ([]Entry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionKey, &e.Kind, &e.Action, &e.Label,
			&e.Message, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// OnEvent records an orchestrator event. Failures are logged, never
// returned, so the conversation is unaffected.
func (s *Store) OnEvent(ev orchestrator.Event) {
	e := Entry{
		SessionKey: ev.SessionKey,
		Kind:       string(ev.Kind),
		Action:     string(ev.Action),
		Label:      string(ev.Label),
		Message:    ev.Message,
	}
	if ev.Err != nil {
		e.Error = ev.Err.Error()
	}
	if !ev.At.IsZero() {
		e.CreatedAt = ev.At.UTC().Format(time.RFC3339Nano)
	}
	if _, err := s.Record(e); err != nil {
		log.Warn().Err(err).Str("session", ev.SessionKey).Str("event", e.Kind).Msg("journal write failed")
	}
}
