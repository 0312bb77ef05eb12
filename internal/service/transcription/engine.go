// Package transcription orchestrates chunk-by-chunk meeting
// transcription: session resolution, speech recognition, transcript
// accumulation, and transcript event emission.
package transcription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-meeting-transcription-service/internal/audio"
	"ai-meeting-transcription-service/internal/models"
	"ai-meeting-transcription-service/internal/observability/logging"
	"ai-meeting-transcription-service/internal/observability/metrics"
	"ai-meeting-transcription-service/internal/service/session"
	"ai-meeting-transcription-service/internal/service/stt"
)

// Validation errors surfaced to callers. Wrap with context, classify
// with errors.Is.
var (
	// ErrInvalidInput - the request is malformed (empty audio or
	// missing workspace). The caller must fix the request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrWorkspaceMismatch - the session ID is already bound to a
	// different workspace. Indicates client-side ID reuse.
	ErrWorkspaceMismatch = errors.New("workspace mismatch")
)

// DefaultEvictionDelay is how long a finalized session stays readable
// before the store removes it. Late chunks already in flight when the
// final was detected can still observe the session in that window.
const DefaultEvictionDelay = 5 * time.Minute

// EventSink receives transcript events. *events.Publisher satisfies it;
// tests substitute a recording fake.
type EventSink interface {
	PublishPartial(ctx context.Context, event models.TranscriptPartial) error
	PublishFinal(ctx context.Context, event models.TranscriptFinal) error
}

// Result is the outcome of one processed chunk.
type Result struct {
	SessionID         string `json:"sessionId"`
	PartialTranscript string `json:"partialTranscript"`
	Final             bool   `json:"isFinal"`
}

// Config tunes the engine.
type Config struct {
	// Provider is the recognizer label used in metrics and logs.
	Provider string
	// EvictionDelay is the grace period before a finalized session is
	// removed from the store.
	EvictionDelay time.Duration
}

// Engine processes audio chunks against the session store.
type Engine struct {
	store      *session.Store
	recognizer stt.Recognizer
	events     EventSink
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	cfg        Config
}

// New creates a transcription engine. sink may be nil, in which case no
// events are emitted.
func New(store *session.Store, recognizer stt.Recognizer, sink EventSink, cfg Config) *Engine {
	if cfg.Provider == "" {
		cfg.Provider = "heuristic"
	}
	if cfg.EvictionDelay <= 0 {
		cfg.EvictionDelay = DefaultEvictionDelay
	}
	return &Engine{
		store:      store,
		recognizer: recognizer,
		events:     sink,
		metrics:    metrics.DefaultMetrics,
		logger:     logging.WithComponent("transcription"),
		cfg:        cfg,
	}
}

// ProcessChunk runs one chunk through the session engine.
//
// The chunk is validated, the session resolved (created on first
// contact, the supplied ID reused verbatim otherwise), the recognized
// token appended to the session transcript, and end of speech detected.
// A finalized session is evicted after the configured delay rather than
// synchronously, so in-flight requests for the same session still
// resolve. Event emission is best effort and never fails the call.
//
// The whole read-recognize-append sequence runs under the session's
// mutex, so concurrent chunks for one session serialize while chunks
// for different sessions proceed in parallel.
func (e *Engine) ProcessChunk(ctx context.Context, fragment audio.Fragment, workspaceID, sessionID string) (Result, error) {
	start := time.Now()

	chunk := audio.Normalize(fragment)
	if len(chunk) == 0 {
		err := fmt.Errorf("audio fragment must not be empty: %w", ErrInvalidInput)
		e.metrics.RecordChunk(statusLabel(err), time.Since(start).Seconds())
		return Result{}, err
	}
	if workspaceID == "" {
		err := fmt.Errorf("workspace id is required: %w", ErrInvalidInput)
		e.metrics.RecordChunk(statusLabel(err), time.Since(start).Seconds())
		return Result{}, err
	}

	e.metrics.RecordAudioReceived(len(chunk))

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	e.store.GetOrCreate(sessionID, workspaceID)

	var (
		transcript string
		count      int
		final      bool
		finalized  bool
	)
	err := e.store.Update(sessionID, func(s *session.Session) error {
		if s.WorkspaceID != workspaceID {
			return fmt.Errorf("session %s is bound to workspace %s: %w",
				sessionID, s.WorkspaceID, ErrWorkspaceMismatch)
		}

		// The session mutates only after recognition succeeds, so a
		// provider failure leaves no half-processed chunk behind.
		position := s.ChunkCount + 1
		sttStart := time.Now()
		res, rerr := e.recognizer.Recognize(ctx, chunk, position)
		e.metrics.RecordSTT(e.cfg.Provider, rerr, time.Since(sttStart).Seconds())
		if rerr != nil {
			return fmt.Errorf("recognize chunk at position %d: %w", position, rerr)
		}

		s.ChunkCount = position
		s.AppendToken(res.Text)
		if res.Final && s.State == session.StateActive {
			s.State = session.StateFinal
			finalized = true
		}

		transcript = s.Transcript
		count = s.ChunkCount
		final = res.Final
		return nil
	})
	if err != nil {
		e.metrics.RecordChunk(statusLabel(err), time.Since(start).Seconds())
		e.logger.Warn().
			Err(err).
			Str("workspaceId", workspaceID).
			Str("sessionId", sessionID).
			Msg("Chunk rejected")
		return Result{}, err
	}

	if final {
		if finalized {
			e.metrics.RecordSessionFinalized()
		}
		e.store.ScheduleEviction(sessionID, e.cfg.EvictionDelay)
	}

	e.emit(ctx, workspaceID, sessionID, transcript, count, final)
	e.metrics.RecordChunk("ok", time.Since(start).Seconds())

	e.logger.Debug().
		Str("workspaceId", workspaceID).
		Str("sessionId", sessionID).
		Int("chunkCount", count).
		Int("chunkBytes", len(chunk)).
		Bool("isFinal", final).
		Msg("Chunk processed")

	return Result{
		SessionID:         sessionID,
		PartialTranscript: transcript,
		Final:             final,
	}, nil
}

// Session returns a read-only snapshot of a live session. Reading never
// extends the session's lifetime.
func (e *Engine) Session(sessionID string) (session.Snapshot, error) {
	return e.store.Get(sessionID)
}

// emit publishes the partial transcript for this chunk and, when end of
// speech was reached, the completed transcript. Publish failures are
// logged and swallowed.
func (e *Engine) emit(ctx context.Context, workspaceID, sessionID, transcript string, count int, final bool) {
	if e.events == nil {
		return
	}
	now := time.Now().UnixMilli()

	partial := models.TranscriptPartial{
		EventType:   models.EventTypeTranscriptPartial,
		WorkspaceID: workspaceID,
		SessionID:   sessionID,
		Timestamp:   now,
		ChunkCount:  count,
		Text:        transcript,
	}
	if err := e.events.PublishPartial(ctx, partial); err != nil {
		e.logger.Error().Err(err).Str("sessionId", sessionID).Msg("Failed to publish partial transcript")
	} else {
		e.metrics.RecordPartialTranscript()
	}

	if !final {
		return
	}

	completed := models.TranscriptFinal{
		EventType:   models.EventTypeTranscriptFinal,
		WorkspaceID: workspaceID,
		SessionID:   sessionID,
		Timestamp:   now,
		ChunkCount:  count,
		Text:        transcript,
	}
	if err := e.events.PublishFinal(ctx, completed); err != nil {
		e.logger.Error().Err(err).Str("sessionId", sessionID).Msg("Failed to publish final transcript")
	} else {
		e.metrics.RecordFinalTranscript()
	}
}

// statusLabel maps an error to the chunk outcome label used in metrics.
func statusLabel(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrWorkspaceMismatch):
		return "workspace_mismatch"
	case errors.Is(err, session.ErrNotFound):
		return "session_not_found"
	default:
		return "error"
	}
}
