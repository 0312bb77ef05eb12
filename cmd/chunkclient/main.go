package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

// Chunk audio to simulate real-time capture
// At 8kHz 16-bit mono = 16000 bytes/second
// 100ms chunks = 1600 bytes
const defaultChunkBytes = 1600
const defaultIntervalMs = 100

// Synthetic amplitude levels cycle through the transcription buckets so
// a run without -audio still produces a varied transcript.
var syntheticLevels = []byte{30, 75, 120, 200, 40, 15}

type chunkRequest struct {
	WorkspaceID string `json:"workspaceId"`
	SessionID   string `json:"sessionId,omitempty"`
	AudioChunk  []byte `json:"audioChunk"`
}

type chunkResult struct {
	SessionID         string `json:"sessionId"`
	PartialTranscript string `json:"partialTranscript"`
	IsFinal           bool   `json:"isFinal"`
	Error             string `json:"error"`
	Message           string `json:"message"`
}

func main() {
	serverAddr := flag.String("server", "localhost:8080", "Service address (host:port)")
	workspaceId := flag.String("workspace", "workspace-demo", "Workspace ID")
	sessionId := flag.String("session", "", "Session ID (empty to start a new session)")
	audioFile := flag.String("audio", "", "Path to WAV or raw PCM file (empty to synthesize chunks)")
	chunkCount := flag.Int("chunks", 6, "Number of synthetic chunks when no -audio is given")
	chunkBytes := flag.Int("chunk-bytes", defaultChunkBytes, "Bytes per chunk")
	intervalMs := flag.Int("interval", defaultIntervalMs, "Milliseconds between chunks")
	useStream := flag.Bool("stream", false, "Use the WebSocket stream instead of per-chunk POSTs")
	flag.Parse()

	chunks, err := loadChunks(*audioFile, *chunkBytes, *chunkCount)
	if err != nil {
		log.Fatalf("Failed to prepare audio: %v", err)
	}

	log.Printf("Sending %d chunks: server=%s workspaceId=%s stream=%v",
		len(chunks), *serverAddr, *workspaceId, *useStream)

	interval := time.Duration(*intervalMs) * time.Millisecond
	startTime := time.Now()

	if *useStream {
		err = sendStream(*serverAddr, *workspaceId, *sessionId, chunks, interval)
	} else {
		err = sendChunks(*serverAddr, *workspaceId, *sessionId, chunks, interval)
	}
	if err != nil {
		log.Fatalf("Failed to send audio: %v", err)
	}

	log.Printf("Done in %v", time.Since(startTime))
}

// loadChunks slices the audio file into chunks, or synthesizes count
// chunks of constant amplitude when no file is given.
func loadChunks(path string, chunkBytes, count int) ([][]byte, error) {
	if path == "" {
		chunks := make([][]byte, count)
		for i := range chunks {
			level := syntheticLevels[i%len(syntheticLevels)]
			chunks[i] = bytes.Repeat([]byte{level}, chunkBytes)
		}
		return chunks, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	// Strip the header of standard PCM WAV files so only samples are sent
	if len(data) > wavHeaderSize && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE" {
		audioFormat := binary.LittleEndian.Uint16(data[20:22])
		sampleRate := binary.LittleEndian.Uint32(data[24:28])
		log.Printf("WAV file: format=%d sampleRate=%d", audioFormat, sampleRate)
		data = data[wavHeaderSize:]
	}

	var chunks [][]byte
	for len(data) > 0 {
		n := chunkBytes
		if n > len(data) {
			n = len(data)
		}
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	return chunks, nil
}

// sendChunks posts each chunk to the transcription endpoint, carrying
// the returned session ID forward so the transcript accumulates.
func sendChunks(serverAddr, workspaceId, sessionId string, chunks [][]byte, interval time.Duration) error {
	endpoint := fmt.Sprintf("http://%s/v1/rpc/transcribeMeetingChunk", serverAddr)

	for i, chunk := range chunks {
		body, err := json.Marshal(chunkRequest{
			WorkspaceID: workspaceId,
			SessionID:   sessionId,
			AudioChunk:  chunk,
		})
		if err != nil {
			return fmt.Errorf("encode chunk %d: %w", i+1, err)
		}

		resp, err := http.Post(endpoint, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("send chunk %d: %w", i+1, err)
		}

		var result chunkResult
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response for chunk %d: %w", i+1, err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("chunk %d rejected: %s: %s", i+1, result.Error, result.Message)
		}

		sessionId = result.SessionID
		log.Printf("Chunk %d: sessionId=%s final=%v transcript=%q",
			i+1, result.SessionID, result.IsFinal, result.PartialTranscript)

		if result.IsFinal {
			log.Printf("Meeting finalized after %d chunks", i+1)
			return nil
		}

		time.Sleep(interval)
	}
	return nil
}

// sendStream sends every chunk over a single WebSocket connection. The
// server pins the session to the connection after the first frame.
func sendStream(serverAddr, workspaceId, sessionId string, chunks [][]byte, interval time.Duration) error {
	endpoint := fmt.Sprintf("ws://%s/v1/meetings/stream", serverAddr)

	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", endpoint, err)
	}
	defer conn.Close()

	log.Printf("Connected to %s", endpoint)

	for i, chunk := range chunks {
		err := conn.WriteJSON(chunkRequest{
			WorkspaceID: workspaceId,
			SessionID:   sessionId,
			AudioChunk:  chunk,
		})
		if err != nil {
			return fmt.Errorf("send chunk %d: %w", i+1, err)
		}

		var result chunkResult
		if err := conn.ReadJSON(&result); err != nil {
			return fmt.Errorf("read result for chunk %d: %w", i+1, err)
		}
		if result.Error != "" {
			return fmt.Errorf("chunk %d rejected: %s: %s", i+1, result.Error, result.Message)
		}

		log.Printf("Chunk %d: sessionId=%s final=%v transcript=%q",
			i+1, result.SessionID, result.IsFinal, result.PartialTranscript)

		if result.IsFinal {
			log.Printf("Meeting finalized after %d chunks", i+1)
			return nil
		}

		time.Sleep(interval)
	}
	return nil
}
