package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"ai-meeting-transcription-service/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Service: config.ServiceConfig{
			Principal:   "svc-test",
			HTTPPort:    "0",
			MetricsPort: "0",
		},
		Session: config.SessionConfig{EvictionDelay: time.Minute},
		STT: config.STTConfig{
			Provider:        "heuristic",
			MinAnalyzeBytes: 100,
			SilenceMean:     10,
			MaxChunks:       5,
		},
		Kafka: config.KafkaConfig{Enabled: false},
		Observability: config.ObservabilityConfig{
			LogLevel:  "error",
			LogFormat: "json",
		},
	}
}

func TestApplication_BootAndServe(t *testing.T) {
	a, err := New(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Shutdown(ctx); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	}()

	body, _ := json.Marshal(map[string]any{
		"workspaceId": "ws-1",
		"audioChunk":  bytes.Repeat([]byte{75}, 1000),
	})
	resp, err := http.Post("http://"+a.APIAddr()+"/v1/rpc/transcribeMeetingChunk",
		"application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post chunk: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var res struct {
		SessionID         string `json:"sessionId"`
		PartialTranscript string `json:"partialTranscript"`
		Final             bool   `json:"isFinal"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.PartialTranscript != "Welcome" {
		t.Errorf("expected transcript 'Welcome', got %q", res.PartialTranscript)
	}
	if res.SessionID == "" {
		t.Error("expected a session id")
	}
}
