package memory

import (
	"fmt"
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// SessionStore tests
// ---------------------------------------------------------------------------

func TestSessionStore_EmptyByDefault(t *testing.T) {
	s := NewSessionStore()

	st := s.Get("sess-1")
	if len(st.UsedSkills) != 0 {
		t.Errorf("expected empty state, got %v", st.UsedSkills)
	}
	if s.HasUsed("sess-1", "anything") {
		t.Error("fresh store must not report any skill as used")
	}
}

func TestSessionStore_MarkUsedIdempotent(t *testing.T) {
	s := NewSessionStore()

	for i := 0; i < 3; i++ {
		if err := s.MarkUsed("sess-1", "prisma-guard"); err != nil {
			t.Fatalf("MarkUsed() failed: %v", err)
		}
	}

	st := s.Get("sess-1")
	if len(st.UsedSkills) != 1 {
		t.Errorf("expected 1 entry, got %v", st.UsedSkills)
	}
	if !s.HasUsed("sess-1", "prisma-guard") {
		t.Error("expected skill to be recorded")
	}
}

func TestSessionStore_SessionsIsolated(t *testing.T) {
	s := NewSessionStore()

	if err := s.MarkUsed("sess-1", "a"); err != nil {
		t.Fatalf("MarkUsed() failed: %v", err)
	}
	if s.HasUsed("sess-2", "a") {
		t.Error("mark leaked across sessions")
	}
}

func TestSessionStore_GetReturnsCopy(t *testing.T) {
	s := NewSessionStore()

	if err := s.MarkUsed("sess-1", "a"); err != nil {
		t.Fatalf("MarkUsed() failed: %v", err)
	}

	st := s.Get("sess-1")
	st.UsedSkills[0] = "mutated"

	if !s.HasUsed("sess-1", "a") {
		t.Error("mutating the returned state must not affect the store")
	}
}

func TestSessionStore_ConcurrentMarks(t *testing.T) {
	s := NewSessionStore()

	const goroutines = 50
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = s.MarkUsed("sess-1", fmt.Sprintf("skill-%d", n))
		}(i)
	}
	wg.Wait()

	st := s.Get("sess-1")
	if len(st.UsedSkills) != goroutines {
		t.Errorf("expected %d skills, got %d", goroutines, len(st.UsedSkills))
	}
}
