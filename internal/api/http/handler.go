// Package http exposes the transcription engine as named HTTP
// operations with JSON bodies.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"ai-meeting-transcription-service/internal/audio"
	"ai-meeting-transcription-service/internal/observability/logging"
	"ai-meeting-transcription-service/internal/service/session"
	"ai-meeting-transcription-service/internal/service/transcription"
)

// maxRequestBytes bounds a single request body. Chunks arrive
// base64-encoded inside JSON, so this allows several MB of raw audio.
const maxRequestBytes = 10 << 20

// Handler carries the API handlers for the transcription engine.
type Handler struct {
	engine *transcription.Engine
	logger zerolog.Logger
}

// NewHandler creates the API handler set.
func NewHandler(engine *transcription.Engine) *Handler {
	return &Handler{
		engine: engine,
		logger: logging.WithComponent("api"),
	}
}

// transcribeRequest is the wire format of the transcribeMeetingChunk
// operation. AudioChunk is base64 in JSON, decoded by encoding/json.
type transcribeRequest struct {
	WorkspaceID string `json:"workspaceId"`
	SessionID   string `json:"sessionId,omitempty"`
	AudioChunk  []byte `json:"audioChunk"`
}

// TranscribeMeetingChunk handles POST /v1/rpc/transcribeMeetingChunk.
func (h *Handler) TranscribeMeetingChunk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req transcribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "malformed request body: "+err.Error())
		return
	}

	res, err := h.engine.ProcessChunk(r.Context(), audio.Raw(req.AudioChunk), req.WorkspaceID, req.SessionID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetSession handles GET /v1/sessions/{sessionID}. Reading a session
// never extends its lifetime.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	snap, err := h.engine.Session(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session_not_found", "no session with id "+id)
			return
		}
		h.logger.Error().Err(err).Str("sessionId", id).Msg("Session lookup failed")
		writeError(w, http.StatusInternalServerError, "internal", "session lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// writeEngineError maps engine errors to HTTP statuses. A session that
// vanished mid-request is an internal invariant violation, not a client
// error, and maps to 500.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transcription.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, transcription.ErrWorkspaceMismatch):
		writeError(w, http.StatusConflict, "workspace_mismatch", err.Error())
	default:
		h.logger.Error().Err(err).Msg("Chunk processing failed")
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
