// Package state implements the file-backed session store: one JSON record
// per session id, updated atomically across concurrent invocations.
package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/skillgate/skillgate/internal/domain/session"
)

// FileStore keeps one record file per session under a state directory.
// Writes take a per-record flock (cross-process) plus an in-process mutex,
// then land via write-tmp/fsync/rename so readers never observe a torn
// record. Records for different sessions never contend.
type FileStore struct {
	dir    string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileStore creates the state directory if needed and returns the store.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// recordPath maps a session id to its record file. Session ids come from an
// external caller and may contain path-hostile characters, so the filename
// is a hash of the id rather than the id itself.
func (s *FileStore) recordPath(sessionID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%016x.json", xxhash.Sum64String(sessionID)))
}

// Get returns the session's state. A missing record is an empty state; an
// unreadable or corrupt record degrades to empty state with a logged
// warning (losing memoization only repeats a suggestion or a remediable
// block, never skips a guardrail).
func (s *FileStore) Get(sessionID string) session.State {
	st, err := s.read(s.recordPath(sessionID))
	if err != nil {
		s.logger.Warn("session record unreadable, treating as empty",
			"session_id", sessionID, "error", err)
		return session.State{}
	}
	return st
}

// HasUsed reports whether the skill is recorded as used for the session.
func (s *FileStore) HasUsed(sessionID, skill string) bool {
	st := s.Get(sessionID)
	return st.Has(skill)
}

// MarkUsed appends the skill to the session's used set.
//
// The write sequence is:
//  1. Acquire the in-process mutex
//  2. Acquire flock on record+".lock"
//  3. Re-read the record under the lock
//  4. Return early if the skill is already recorded (idempotent)
//  5. Marshal and write record+".tmp" with 0600 permissions
//  6. Fsync, then rename record+".tmp" -> record
//
// Re-reading inside the lock is what makes concurrent invocations for the
// same session safe: a lost update here would either resurrect a satisfied
// guardrail forever or silence one permanently.
func (s *FileStore) MarkUsed(sessionID, skill string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.recordPath(sessionID)
	lockPath := path + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer func() { _ = lockFile.Close() }()

	if err := flockLock(lockFile.Fd()); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer flockUnlock(lockFile.Fd()) //nolint:errcheck

	st, err := s.read(path)
	if err != nil {
		s.logger.Warn("session record unreadable on write, starting fresh",
			"session_id", sessionID, "error", err)
		st = session.State{}
	}
	if st.Has(skill) {
		return nil
	}

	now := time.Now().UTC()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}
	st.UpdatedAt = now
	st.UsedSkills = append(st.UsedSkills, skill)

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}
	data = append(data, '\n')

	return s.writeAtomic(path, data)
}

// read loads and parses one record file. A missing file is an empty state.
func (s *FileStore) read(path string) (session.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return session.State{}, nil
		}
		return session.State{}, fmt.Errorf("read session record: %w", err)
	}
	var st session.State
	if err := json.Unmarshal(data, &st); err != nil {
		return session.State{}, fmt.Errorf("parse session record: %w", err)
	}
	return st, nil
}

// writeAtomic writes data to a temp file, fsyncs it, and renames it over
// the record path. On any error the temp file is cleaned up.
func (s *FileStore) writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := f.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp to record: %w", err)
	}
	return nil
}

// Dir returns the configured state directory.
func (s *FileStore) Dir() string { return s.dir }

// Compile-time interface verification.
var _ session.Store = (*FileStore)(nil)
