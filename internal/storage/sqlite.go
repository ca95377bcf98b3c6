// Package storage provides SQLite-based persistence for save-RAM, save-state
// slots and session history.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// StateSlot is a numbered save state for one game on one core.
type StateSlot struct {
	ID        int64
	Core      string
	Game      string
	Slot      int
	Frame     int64 // frames stepped when the state was taken
	Size      int
	Data      []byte // nil in listings
	CreatedAt time.Time
}

// SessionRecord is one bridged session, from create to destroy.
type SessionRecord struct {
	ID        int64
	SessionID string
	Core      string
	Game      string
	StartedAt time.Time
	EndedAt   time.Time // zero while the session runs
	Frames    int64
	EndReason string // "quit", "disconnect", "error", "frames"
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	// Open database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	// Run migrations
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sram (
			core TEXT NOT NULL,
			game TEXT NOT NULL,
			data BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (core, game)
		);

		CREATE TABLE IF NOT EXISTS states (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			core TEXT NOT NULL,
			game TEXT NOT NULL,
			slot INTEGER NOT NULL,
			frame INTEGER NOT NULL DEFAULT 0,
			data BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (core, game, slot)
		);

		CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL UNIQUE,
			core TEXT NOT NULL,
			game TEXT NOT NULL,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME,
			frames INTEGER NOT NULL DEFAULT 0,
			end_reason TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_game ON sessions(core, game);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GameKey derives the storage key for a game path. Saves follow the game
// file, not the directory it was launched from.
func GameKey(gamePath string) string {
	return strings.ToLower(filepath.Base(gamePath))
}

// SaveSRAM stores the save-RAM for a game, replacing any previous copy.
func (s *Store) SaveSRAM(coreName, game string, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO sram (core, game, data) VALUES (?, ?, ?)
		 ON CONFLICT (core, game) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		coreName, game, data,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save sram: %w", err)
	}
	return nil
}

// LoadSRAM returns the stored save-RAM for a game, or nil if there is none.
func (s *Store) LoadSRAM(coreName, game string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(
		"SELECT data FROM sram WHERE core = ? AND game = ?",
		coreName, game,
	).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query sram: %w", err)
	}
	return data, nil
}

// SaveState writes a save state into a numbered slot, replacing the slot's
// previous content.
func (s *Store) SaveState(coreName, game string, slot int, frame int64, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO states (core, game, slot, frame, data) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (core, game, slot) DO UPDATE
		 SET frame = excluded.frame, data = excluded.data, created_at = CURRENT_TIMESTAMP`,
		coreName, game, slot, frame, data,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save state: %w", err)
	}
	return nil
}

// LoadState retrieves a slot. Returns nil if the slot is empty.
func (s *Store) LoadState(coreName, game string, slot int) (*StateSlot, error) {
	var st StateSlot
	var createdAt any

	err := s.db.QueryRow(
		`SELECT id, core, game, slot, frame, data, created_at
		 FROM states
		 WHERE core = ? AND game = ? AND slot = ?`,
		coreName, game, slot,
	).Scan(&st.ID, &st.Core, &st.Game, &st.Slot, &st.Frame, &st.Data, &createdAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query state: %w", err)
	}
	st.Size = len(st.Data)
	st.CreatedAt = parseTime(createdAt)
	return &st, nil
}

// ListStates returns the occupied slots for a game, by slot number. Data is
// not loaded.
func (s *Store) ListStates(coreName, game string) ([]StateSlot, error) {
	rows, err := s.db.Query(
		`SELECT id, core, game, slot, frame, length(data), created_at
		 FROM states
		 WHERE core = ? AND game = ?
		 ORDER BY slot`,
		coreName, game,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query states: %w", err)
	}
	defer rows.Close()

	var slots []StateSlot
	for rows.Next() {
		var st StateSlot
		var createdAt any
		if err := rows.Scan(&st.ID, &st.Core, &st.Game, &st.Slot, &st.Frame, &st.Size, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		st.CreatedAt = parseTime(createdAt)
		slots = append(slots, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return slots, nil
}

// DeleteState empties a slot.
func (s *Store) DeleteState(coreName, game string, slot int) error {
	_, err := s.db.Exec(
		"DELETE FROM states WHERE core = ? AND game = ? AND slot = ?",
		coreName, game, slot,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot delete state: %w", err)
	}
	return nil
}

// StartSession records the start of a session.
// Returns the ID of the inserted record.
func (s *Store) StartSession(sessionID, coreName, game string) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO sessions (session_id, core, game) VALUES (?, ?, ?)",
		sessionID, coreName, game,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot start session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// EndSession records how a session ended.
func (s *Store) EndSession(sessionID string, frames int64, reason string) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET ended_at = CURRENT_TIMESTAMP, frames = ?, end_reason = ?
		 WHERE session_id = ?`,
		frames, reason, sessionID,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot end session: %w", err)
	}
	return nil
}

// RecentSessions retrieves the most recent sessions, newest first.
func (s *Store) RecentSessions(limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, session_id, core, game, started_at, ended_at, frames, end_reason
		 FROM sessions
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var r SessionRecord
		var startedAt, endedAt any
		var reason sql.NullString

		if err := rows.Scan(&r.ID, &r.SessionID, &r.Core, &r.Game, &startedAt, &endedAt, &r.Frames, &reason); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.StartedAt = parseTime(startedAt)
		r.EndedAt = parseTime(endedAt)
		if reason.Valid {
			r.EndReason = reason.String
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return records, nil
}

// parseTime handles both time.Time and string datetimes from the driver.
// NULL yields the zero time.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
