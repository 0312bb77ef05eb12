package session

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"ai-meeting-transcription-service/internal/observability/metrics"
)

// ErrNotFound is returned for lookups of sessions that were never
// created or have already been evicted.
var ErrNotFound = errors.New("session not found")

// Store is the in-memory registry of live sessions. It owns session
// lifetimes: creation, keyed lookup, delayed eviction. The store mutex
// guards the maps only; per-session state is guarded by each session's
// own mutex so chunk processing for different sessions never contends.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	timers   map[string]*time.Timer
	onEvict  func(Snapshot)

	metrics *metrics.Metrics
}

// New creates an empty session store.
func New() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		timers:   make(map[string]*time.Timer),
		metrics:  metrics.DefaultMetrics,
	}
}

// OnEvict registers a hook invoked after a session is removed from the
// store, with a snapshot of its final state. Set it before the store is
// shared; it is read without synchronization afterwards.
func (st *Store) OnEvict(fn func(Snapshot)) {
	st.onEvict = fn
}

// GetOrCreate returns the session with the given ID, creating it bound
// to the given workspace if it does not exist. The second return value
// reports whether a new session was created. Lookup and creation are
// atomic, so two concurrent chunks with the same new ID get the same
// session.
func (st *Store) GetOrCreate(id, workspaceID string) (*Session, bool) {
	st.mu.Lock()
	if s, ok := st.sessions[id]; ok {
		st.mu.Unlock()
		return s, false
	}
	now := time.Now()
	s := &Session{
		ID:          id,
		WorkspaceID: workspaceID,
		State:       StateActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	st.sessions[id] = s
	active := len(st.sessions)
	st.mu.Unlock()

	st.metrics.RecordSessionCreated(active)
	log.Debug().
		Str("sessionId", id).
		Str("workspaceId", workspaceID).
		Int("activeSessions", active).
		Msg("Session created")
	return s, true
}

// Update runs fn against the named session while holding its mutex.
// Returns ErrNotFound if the session does not exist or was evicted
// between lookup and lock acquisition. fn's error is returned as-is;
// the session's UpdatedAt advances only when fn succeeds.
func (st *Store) Update(id string, fn func(*Session) error) error {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State == StateEvicted {
		return ErrNotFound
	}
	if err := fn(s); err != nil {
		return err
	}
	s.UpdatedAt = time.Now()
	return nil
}

// Get returns a snapshot of the named session.
func (st *Store) Get(id string) (Snapshot, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return Snapshot{}, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State == StateEvicted {
		return Snapshot{}, ErrNotFound
	}
	return s.snapshotLocked(), nil
}

// ScheduleEviction arms a one-shot eviction timer for the session.
// If a timer is already pending the call is a no-op and the original
// deadline stands, so repeat end-of-speech signals cannot extend a
// session's lifetime. Returns true if a timer was armed.
func (st *Store) ScheduleEviction(id string, delay time.Duration) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return false
	}
	if _, pending := st.timers[id]; pending {
		return false
	}
	st.timers[id] = time.AfterFunc(delay, func() { st.evict(id) })
	log.Debug().
		Str("sessionId", id).
		Dur("delay", delay).
		Msg("Eviction scheduled")
	return true
}

// CancelEviction disarms a pending eviction timer. Returns false if no
// timer was pending or the timer already fired.
func (st *Store) CancelEviction(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	t, ok := st.timers[id]
	if !ok {
		return false
	}
	delete(st.timers, id)
	return t.Stop()
}

// EvictNow removes the session immediately, disarming any pending
// timer. Returns true if a session was removed.
func (st *Store) EvictNow(id string) bool {
	return st.evict(id)
}

// Len returns the number of sessions currently in the store.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Close disarms every pending eviction timer. Sessions stay in place;
// this is for process shutdown, where a firing timer would race
// component teardown.
func (st *Store) Close() {
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, t := range st.timers {
		t.Stop()
		delete(st.timers, id)
	}
}

// evict removes the session from the registry, marks the detached
// session EVICTED so stale pointers held by in-flight updates fail with
// ErrNotFound, and fires the OnEvict hook.
func (st *Store) evict(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	if t, pending := st.timers[id]; pending {
		t.Stop()
		delete(st.timers, id)
	}
	active := len(st.sessions)
	onEvict := st.onEvict
	st.mu.Unlock()

	if !ok {
		return false
	}

	s.mu.Lock()
	s.State = StateEvicted
	snap := s.snapshotLocked()
	s.mu.Unlock()

	st.metrics.RecordSessionEvicted(active)
	log.Debug().
		Str("sessionId", id).
		Str("workspaceId", snap.WorkspaceID).
		Int("chunkCount", snap.ChunkCount).
		Int("activeSessions", active).
		Msg("Session evicted")

	if onEvict != nil {
		onEvict(snap)
	}
	return true
}
