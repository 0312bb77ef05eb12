// Package ws streams meeting audio over a WebSocket connection: one
// JSON frame per chunk in, one transcript update per chunk out.
package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ai-meeting-transcription-service/internal/audio"
	"ai-meeting-transcription-service/internal/observability/logging"
	"ai-meeting-transcription-service/internal/observability/metrics"
	"ai-meeting-transcription-service/internal/service/transcription"
)

// maxFrameBytes bounds one inbound frame, matching the HTTP chunk limit.
const maxFrameBytes = 10 << 20

// chunkFrame is one inbound audio chunk. SessionID may be set on any
// frame; when omitted the stream continues the session established by
// the previous result.
type chunkFrame struct {
	WorkspaceID string `json:"workspaceId"`
	SessionID   string `json:"sessionId,omitempty"`
	AudioChunk  []byte `json:"audioChunk"`
}

// errorFrame mirrors the HTTP error body so clients share one decoder.
type errorFrame struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Handler upgrades connections and runs the per-connection serve loop.
type Handler struct {
	engine   *transcription.Engine
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates the WebSocket transcription handler.
func NewHandler(engine *transcription.Engine) *Handler {
	return &Handler{
		engine:  engine,
		metrics: metrics.DefaultMetrics,
		logger:  logging.WithComponent("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origin policy is enforced by the gateway in front of
			// this service.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	start := time.Now()
	h.metrics.RecordStreamStart()
	defer func() { h.metrics.RecordStreamEnd(time.Since(start).Seconds()) }()

	h.serve(conn, r)
}

// serve processes frames until the client disconnects. A chunk that
// fails validation produces an error frame and keeps the stream open;
// only transport errors end the loop.
func (h *Handler) serve(conn *websocket.Conn, r *http.Request) {
	var sessionID string

	for {
		var frame chunkFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn().Err(err).Msg("WebSocket closed unexpectedly")
			}
			return
		}

		if frame.SessionID != "" {
			sessionID = frame.SessionID
		}

		res, err := h.engine.ProcessChunk(r.Context(), audio.Raw(frame.AudioChunk), frame.WorkspaceID, sessionID)
		if err != nil {
			if werr := conn.WriteJSON(errorFrame{Error: errorCode(err), Message: err.Error()}); werr != nil {
				return
			}
			continue
		}

		sessionID = res.SessionID
		if err := conn.WriteJSON(res); err != nil {
			return
		}

		// After end of speech the next frame without an explicit
		// session ID starts a fresh session.
		if res.Final {
			sessionID = ""
		}
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, transcription.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, transcription.ErrWorkspaceMismatch):
		return "workspace_mismatch"
	default:
		return "internal"
	}
}
