// Package sqlitestate implements the session store on an embedded SQLite
// database. SQLite's own locking makes MarkUsed atomic across concurrent
// invocations without an explicit file lock.
package sqlitestate

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/skillgate/skillgate/internal/domain/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS used_skills (
	session_id TEXT NOT NULL,
	skill      TEXT NOT NULL,
	used_at    TIMESTAMP NOT NULL,
	PRIMARY KEY (session_id, skill)
);
`

// Store keeps session records in a single SQLite database file.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the database at path and ensures the
// schema exists. busy_timeout makes concurrent invocations queue briefly
// instead of failing with SQLITE_BUSY.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure session schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Get returns the session's state. Query failures degrade to an empty
// state with a logged warning.
func (s *Store) Get(sessionID string) session.State {
	rows, err := s.db.Query(
		`SELECT skill, used_at FROM used_skills WHERE session_id = ? ORDER BY used_at, skill`,
		sessionID)
	if err != nil {
		s.logger.Warn("session query failed, treating as empty",
			"session_id", sessionID, "error", err)
		return session.State{}
	}
	defer rows.Close()

	var st session.State
	for rows.Next() {
		var skill string
		var usedAt time.Time
		if err := rows.Scan(&skill, &usedAt); err != nil {
			s.logger.Warn("session row unreadable, treating as empty",
				"session_id", sessionID, "error", err)
			return session.State{}
		}
		st.UsedSkills = append(st.UsedSkills, skill)
		if st.CreatedAt.IsZero() || usedAt.Before(st.CreatedAt) {
			st.CreatedAt = usedAt
		}
		if usedAt.After(st.UpdatedAt) {
			st.UpdatedAt = usedAt
		}
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("session scan failed, treating as empty",
			"session_id", sessionID, "error", err)
		return session.State{}
	}
	return st
}

// MarkUsed records the skill for the session. INSERT OR IGNORE makes the
// operation idempotent and atomic: two concurrent invocations cannot lose
// the mark.
func (s *Store) MarkUsed(sessionID, skill string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO used_skills (session_id, skill, used_at) VALUES (?, ?, ?)`,
		sessionID, skill, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark skill used: %w", err)
	}
	return nil
}

// HasUsed reports whether the skill is marked used for the session.
func (s *Store) HasUsed(sessionID, skill string) bool {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(1) FROM used_skills WHERE session_id = ? AND skill = ?`,
		sessionID, skill).Scan(&n)
	if err != nil {
		s.logger.Warn("session lookup failed, treating as unused",
			"session_id", sessionID, "skill", skill, "error", err)
		return false
	}
	return n > 0
}

// Compile-time interface verification.
var _ session.Store = (*Store)(nil)
