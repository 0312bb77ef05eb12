// Package models defines the data structures for transcript events.
package models

// Event type discriminators carried in every published payload.
const (
	EventTypeTranscriptPartial = "meeting.transcript.partial"
	EventTypeTranscriptFinal   = "meeting.transcript.final"
)

// TranscriptPartial represents the running transcript after one chunk.
type TranscriptPartial struct {
	EventType   string `json:"eventType"`
	WorkspaceID string `json:"workspaceId"`
	SessionID   string `json:"sessionId"`
	Timestamp   int64  `json:"timestamp"`
	ChunkCount  int    `json:"chunkCount"`
	Text        string `json:"text"`
}

// TranscriptFinal represents the completed transcript of a session
// whose end of speech was detected.
type TranscriptFinal struct {
	EventType   string `json:"eventType"`
	WorkspaceID string `json:"workspaceId"`
	SessionID   string `json:"sessionId"`
	Timestamp   int64  `json:"timestamp"`
	ChunkCount  int    `json:"chunkCount"`
	Text        string `json:"text"`
}
