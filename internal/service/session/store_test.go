package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestStore_GetOrCreate_New(t *testing.T) {
	st := New()

	s, created := st.GetOrCreate("sess-1", "ws-1")

	if !created {
		t.Error("expected created=true for a new session")
	}
	if s.ID != "sess-1" {
		t.Errorf("expected ID sess-1, got %s", s.ID)
	}
	if s.WorkspaceID != "ws-1" {
		t.Errorf("expected workspace ws-1, got %s", s.WorkspaceID)
	}
	if s.State != StateActive {
		t.Errorf("expected ACTIVE, got %v", s.State)
	}
	if s.ChunkCount != 0 {
		t.Errorf("expected zero chunks, got %d", s.ChunkCount)
	}
	if st.Len() != 1 {
		t.Errorf("expected 1 session in store, got %d", st.Len())
	}
}

func TestStore_GetOrCreate_Existing(t *testing.T) {
	st := New()
	first, _ := st.GetOrCreate("sess-1", "ws-1")

	// Workspace binding is fixed at creation; a later caller's
	// workspace does not rebind the session.
	second, created := st.GetOrCreate("sess-1", "ws-other")

	if created {
		t.Error("expected created=false for an existing session")
	}
	if second != first {
		t.Error("expected the same session pointer")
	}
	if second.WorkspaceID != "ws-1" {
		t.Errorf("expected original workspace ws-1, got %s", second.WorkspaceID)
	}
}

func TestStore_Update(t *testing.T) {
	st := New()
	st.GetOrCreate("sess-1", "ws-1")

	err := st.Update("sess-1", func(s *Session) error {
		s.ChunkCount++
		s.AppendToken("Hello")
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, err := st.Get("sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.ChunkCount != 1 {
		t.Errorf("expected 1 chunk, got %d", snap.ChunkCount)
	}
	if snap.Transcript != "Hello" {
		t.Errorf("expected transcript 'Hello', got %q", snap.Transcript)
	}
}

func TestStore_Update_Missing(t *testing.T) {
	st := New()

	err := st.Update("nope", func(s *Session) error { return nil })

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Update_FnErrorPropagates(t *testing.T) {
	st := New()
	st.GetOrCreate("sess-1", "ws-1")
	boom := errors.New("boom")

	err := st.Update("sess-1", func(s *Session) error {
		return boom
	})

	if !errors.Is(err, boom) {
		t.Errorf("expected fn error back, got %v", err)
	}
}

func TestStore_Get_Missing(t *testing.T) {
	st := New()

	_, err := st.Get("nope")

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_EvictNow(t *testing.T) {
	st := New()
	st.GetOrCreate("sess-1", "ws-1")

	if !st.EvictNow("sess-1") {
		t.Fatal("expected eviction to remove the session")
	}

	if st.Len() != 0 {
		t.Errorf("expected empty store, got %d sessions", st.Len())
	}
	if _, err := st.Get("sess-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after eviction, got %v", err)
	}
	if err := st.Update("sess-1", func(s *Session) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on update after eviction, got %v", err)
	}
}

func TestStore_EvictNow_Missing(t *testing.T) {
	st := New()

	if st.EvictNow("nope") {
		t.Error("expected false for unknown session")
	}
}

func TestStore_Evict_MarksDetachedSession(t *testing.T) {
	st := New()
	s, _ := st.GetOrCreate("sess-1", "ws-1")

	st.EvictNow("sess-1")

	s.mu.Lock()
	state := s.State
	s.mu.Unlock()
	if state != StateEvicted {
		t.Errorf("expected detached session marked EVICTED, got %v", state)
	}
}

func TestStore_OnEvict_ReceivesFinalSnapshot(t *testing.T) {
	st := New()
	var got Snapshot
	st.OnEvict(func(snap Snapshot) { got = snap })

	st.GetOrCreate("sess-1", "ws-1")
	st.Update("sess-1", func(s *Session) error {
		s.ChunkCount = 3
		s.AppendToken("Good morning")
		s.State = StateFinal
		return nil
	})
	st.EvictNow("sess-1")

	if got.ID != "sess-1" {
		t.Fatalf("expected hook to fire for sess-1, got %q", got.ID)
	}
	if got.Transcript != "Good morning" {
		t.Errorf("expected final transcript in snapshot, got %q", got.Transcript)
	}
	if got.State != "EVICTED" {
		t.Errorf("expected EVICTED snapshot, got %s", got.State)
	}
}

func TestStore_ScheduleEviction_FiresTimer(t *testing.T) {
	st := New()
	evicted := make(chan Snapshot, 1)
	st.OnEvict(func(snap Snapshot) { evicted <- snap })
	st.GetOrCreate("sess-1", "ws-1")

	if !st.ScheduleEviction("sess-1", 10*time.Millisecond) {
		t.Fatal("expected timer to be armed")
	}

	select {
	case snap := <-evicted:
		if snap.ID != "sess-1" {
			t.Errorf("expected sess-1 evicted, got %s", snap.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("eviction timer did not fire")
	}
	if st.Len() != 0 {
		t.Errorf("expected empty store after timer, got %d", st.Len())
	}
}

func TestStore_ScheduleEviction_Missing(t *testing.T) {
	st := New()

	if st.ScheduleEviction("nope", time.Minute) {
		t.Error("expected false for unknown session")
	}
}

func TestStore_ScheduleEviction_PendingTimerWins(t *testing.T) {
	st := New()
	evicted := make(chan Snapshot, 1)
	st.OnEvict(func(snap Snapshot) { evicted <- snap })
	st.GetOrCreate("sess-1", "ws-1")

	if !st.ScheduleEviction("sess-1", 20*time.Millisecond) {
		t.Fatal("expected first schedule to arm")
	}
	// A later, longer schedule must not extend the session's life.
	if st.ScheduleEviction("sess-1", time.Hour) {
		t.Fatal("expected second schedule to be a no-op")
	}

	select {
	case <-evicted:
		// fired on the original short deadline
	case <-time.After(2 * time.Second):
		t.Fatal("original eviction deadline was extended")
	}
}

func TestStore_CancelEviction(t *testing.T) {
	st := New()
	st.GetOrCreate("sess-1", "ws-1")
	st.ScheduleEviction("sess-1", 20*time.Millisecond)

	if !st.CancelEviction("sess-1") {
		t.Fatal("expected cancel to disarm the timer")
	}

	time.Sleep(50 * time.Millisecond)
	if st.Len() != 1 {
		t.Error("session was evicted despite cancellation")
	}

	// With the timer gone, a new schedule must arm again.
	if !st.ScheduleEviction("sess-1", time.Hour) {
		t.Error("expected re-arm after cancellation")
	}
}

func TestStore_CancelEviction_NothingPending(t *testing.T) {
	st := New()
	st.GetOrCreate("sess-1", "ws-1")

	if st.CancelEviction("sess-1") {
		t.Error("expected false with no pending timer")
	}
}

func TestStore_Close_DisarmsPendingTimers(t *testing.T) {
	st := New()
	st.OnEvict(func(Snapshot) { t.Error("no eviction may fire after Close") })
	st.GetOrCreate("sess-1", "ws-1")
	st.ScheduleEviction("sess-1", 50*time.Millisecond)

	st.Close()

	time.Sleep(120 * time.Millisecond)
	if st.Len() != 1 {
		t.Errorf("expected session to survive Close, store has %d", st.Len())
	}
}

func TestStore_Close_Empty(t *testing.T) {
	st := New()
	st.Close()
}

func TestStore_ConcurrentUpdates_SameSession(t *testing.T) {
	st := New()
	st.GetOrCreate("sess-1", "ws-1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := st.Update("sess-1", func(s *Session) error {
				s.ChunkCount++
				s.AppendToken("and")
				return nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	snap, err := st.Get("sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.ChunkCount != 50 {
		t.Errorf("expected 50 chunks after concurrent updates, got %d", snap.ChunkCount)
	}
}

func TestStore_ConcurrentGetOrCreate_DistinctSessions(t *testing.T) {
	st := New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("sess-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.GetOrCreate(id, "ws-1")
		}()
	}
	wg.Wait()

	if st.Len() != 20 {
		t.Errorf("expected 20 sessions, got %d", st.Len())
	}
}
