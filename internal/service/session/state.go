// Package session provides the in-memory registry of live meeting
// transcription sessions and their lifecycle.
package session

import "fmt"

// State represents the lifecycle state of a session.
type State int

const (
	// StateActive - Session is accumulating transcript text.
	StateActive State = iota
	// StateFinal - End of speech was detected. The session keeps
	// accepting chunks until eviction removes it.
	StateFinal
	// StateEvicted - Session was removed from the store. Terminal.
	// Set on the detached session so stale pointers fail loudly.
	StateEvicted
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateActive:
		return "ACTIVE"
	case StateFinal:
		return "FINAL"
	case StateEvicted:
		return "EVICTED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the state is terminal (EVICTED).
func (s State) IsTerminal() bool {
	return s == StateEvicted
}
