package session

import (
	"strings"
	"sync"
	"time"
)

// Session is the mutable state of one meeting transcription session.
// All mutation must go through Store.Update, which serializes writers
// on the per-session mutex, so a chunk's read-increment-append sequence
// is never interleaved with another chunk's.
type Session struct {
	mu sync.Mutex

	ID          string
	WorkspaceID string
	Transcript  string
	ChunkCount  int
	State       State
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AppendToken appends a recognized token to the transcript, separated
// from prior text by a single space. Tokens are trimmed first; empty
// tokens leave the transcript unchanged. Call only from inside
// Store.Update.
func (s *Session) AppendToken(token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	if s.Transcript == "" {
		s.Transcript = token
		return
	}
	s.Transcript += " " + token
}

// Snapshot is an immutable copy of a session's state, safe to hand out
// without holding any lock.
type Snapshot struct {
	ID          string    `json:"sessionId"`
	WorkspaceID string    `json:"workspaceId"`
	Transcript  string    `json:"transcript"`
	ChunkCount  int       `json:"chunkCount"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// snapshotLocked copies the session fields. Caller holds s.mu.
func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:          s.ID,
		WorkspaceID: s.WorkspaceID,
		Transcript:  s.Transcript,
		ChunkCount:  s.ChunkCount,
		State:       s.State.String(),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
