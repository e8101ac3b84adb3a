package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cespare/xxhash/v2"

	"github.com/skillgate/skillgate/internal/domain/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewFileStore() failed: %v", err)
	}
	return s
}

// ---------------------------------------------------------------------------
// Get tests
// ---------------------------------------------------------------------------

func TestGet_NoRecord_ReturnsEmptyState(t *testing.T) {
	s := newTestStore(t)

	st := s.Get("sess-1")
	if len(st.UsedSkills) != 0 {
		t.Errorf("expected empty used set, got %v", st.UsedSkills)
	}
	if !st.CreatedAt.IsZero() {
		t.Errorf("expected zero CreatedAt, got %v", st.CreatedAt)
	}
}

func TestGet_CorruptRecord_ReturnsEmptyStateAndWarns(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s, err := NewFileStore(dir, logger)
	if err != nil {
		t.Fatalf("NewFileStore() failed: %v", err)
	}

	path := s.recordPath("sess-1")
	if err := os.WriteFile(path, []byte("{invalid json"), 0600); err != nil {
		t.Fatalf("failed to write corrupt record: %v", err)
	}

	st := s.Get("sess-1")
	if len(st.UsedSkills) != 0 {
		t.Errorf("expected empty state from corrupt record, got %v", st.UsedSkills)
	}
	if !strings.Contains(buf.String(), "unreadable") {
		t.Errorf("expected unreadable-record warning, got log output: %q", buf.String())
	}
}

// ---------------------------------------------------------------------------
// MarkUsed tests
// ---------------------------------------------------------------------------

func TestMarkUsed_RecordsSkill(t *testing.T) {
	s := newTestStore(t)

	if err := s.MarkUsed("sess-1", "prisma-guard"); err != nil {
		t.Fatalf("MarkUsed() returned unexpected error: %v", err)
	}

	if !s.HasUsed("sess-1", "prisma-guard") {
		t.Error("expected skill to be recorded as used")
	}
	if s.HasUsed("sess-1", "other-skill") {
		t.Error("unrelated skill must not be recorded")
	}
	if s.HasUsed("sess-2", "prisma-guard") {
		t.Error("other sessions must not see the mark")
	}
}

func TestMarkUsed_Idempotent(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		if err := s.MarkUsed("sess-1", "prisma-guard"); err != nil {
			t.Fatalf("MarkUsed() #%d returned unexpected error: %v", i, err)
		}
	}

	st := s.Get("sess-1")
	if len(st.UsedSkills) != 1 {
		t.Errorf("expected exactly 1 entry after repeated marks, got %v", st.UsedSkills)
	}
}

func TestMarkUsed_SetsTimestamps(t *testing.T) {
	s := newTestStore(t)

	if err := s.MarkUsed("sess-1", "a"); err != nil {
		t.Fatalf("MarkUsed() failed: %v", err)
	}
	st := s.Get("sess-1")
	if st.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
	if st.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}

	if err := s.MarkUsed("sess-1", "b"); err != nil {
		t.Fatalf("MarkUsed() failed: %v", err)
	}
	st2 := s.Get("sess-1")
	if !st2.CreatedAt.Equal(st.CreatedAt) {
		t.Errorf("CreatedAt must not change on later marks: %v vs %v", st2.CreatedAt, st.CreatedAt)
	}
	if st2.UpdatedAt.Before(st.UpdatedAt) {
		t.Errorf("UpdatedAt must not go backwards: %v vs %v", st2.UpdatedAt, st.UpdatedAt)
	}
}

func TestMarkUsed_CorruptRecord_StartsFresh(t *testing.T) {
	s := newTestStore(t)

	path := s.recordPath("sess-1")
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatalf("failed to write corrupt record: %v", err)
	}

	if err := s.MarkUsed("sess-1", "prisma-guard"); err != nil {
		t.Fatalf("MarkUsed() over corrupt record failed: %v", err)
	}
	if !s.HasUsed("sess-1", "prisma-guard") {
		t.Error("expected fresh record to carry the mark")
	}
}

func TestMarkUsed_WritesValidJSONWith0600(t *testing.T) {
	s := newTestStore(t)

	if err := s.MarkUsed("sess-1", "prisma-guard"); err != nil {
		t.Fatalf("MarkUsed() failed: %v", err)
	}

	path := s.recordPath("sess-1")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat record: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected permissions 0600, got %04o", perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	var st session.State
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatalf("record is not valid JSON: %v", err)
	}
	if len(st.UsedSkills) != 1 || st.UsedSkills[0] != "prisma-guard" {
		t.Errorf("unexpected record content: %v", st.UsedSkills)
	}
}

func TestMarkUsed_NoTmpFileLeftBehind(t *testing.T) {
	s := newTestStore(t)

	if err := s.MarkUsed("sess-1", "a"); err != nil {
		t.Fatalf("MarkUsed() failed: %v", err)
	}

	tmpPath := s.recordPath("sess-1") + ".tmp"
	if _, err := os.Stat(tmpPath); !os.IsNotExist(err) {
		t.Error("expected .tmp file to not exist after write, but it does")
	}
}

// ---------------------------------------------------------------------------
// Record naming tests
// ---------------------------------------------------------------------------

func TestRecordPath_HashesHostileSessionIDs(t *testing.T) {
	s := newTestStore(t)

	hostile := "../../../etc/passwd"
	path := s.recordPath(hostile)

	if filepath.Dir(path) != s.Dir() {
		t.Errorf("record path escaped the state dir: %q", path)
	}
	want := fmt.Sprintf("%016x.json", xxhash.Sum64String(hostile))
	if filepath.Base(path) != want {
		t.Errorf("expected hashed filename %q, got %q", want, filepath.Base(path))
	}
}

func TestRecordPath_DistinctSessionsDistinctRecords(t *testing.T) {
	s := newTestStore(t)
	if s.recordPath("sess-1") == s.recordPath("sess-2") {
		t.Error("different session ids must map to different record files")
	}
}

// ---------------------------------------------------------------------------
// Concurrent access tests
// ---------------------------------------------------------------------------

func TestConcurrentMarks_NoneLost(t *testing.T) {
	s := newTestStore(t)

	const goroutines = 20
	var wg sync.WaitGroup
	errs := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := s.MarkUsed("sess-1", fmt.Sprintf("skill-%d", n)); err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent MarkUsed() error: %v", err)
	}

	st := s.Get("sess-1")
	if len(st.UsedSkills) != goroutines {
		t.Fatalf("expected %d recorded skills, got %d: %v", goroutines, len(st.UsedSkills), st.UsedSkills)
	}
	for i := 0; i < goroutines; i++ {
		if !st.Has(fmt.Sprintf("skill-%d", i)) {
			t.Errorf("mark for skill-%d was lost", i)
		}
	}
}
