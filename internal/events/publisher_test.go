package events

import (
	"context"
	"testing"

	"ai-meeting-transcription-service/internal/models"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"nil brokers", &Config{Enabled: true, Brokers: nil}},
		{"nil config", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerPartial != nil {
				t.Error("expected nil partial writer when disabled")
			}
			if p.writerFinal != nil {
				t.Error("expected nil final writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:      false,
		Brokers:      []string{"localhost:9092"},
		TopicPartial: "meeting.transcript.partial",
		TopicFinal:   "meeting.transcript.final",
		Principal:    "transcription-service",
	}

	p := New(cfg)

	if p.principal != "transcription-service" {
		t.Errorf("expected principal 'transcription-service', got %s", p.principal)
	}
	if p.topicPartial != "meeting.transcript.partial" {
		t.Errorf("expected partial topic 'meeting.transcript.partial', got %s", p.topicPartial)
	}
	if p.topicFinal != "meeting.transcript.final" {
		t.Errorf("expected final topic 'meeting.transcript.final', got %s", p.topicFinal)
	}
}

func TestPublisher_PublishPartial_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	err := p.PublishPartial(context.Background(), models.TranscriptPartial{
		EventType:   models.EventTypeTranscriptPartial,
		WorkspaceID: "ws-1",
		SessionID:   "sess-1",
		Text:        "Hello and",
	})

	if err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_PublishFinal_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	err := p.PublishFinal(context.Background(), models.TranscriptFinal{
		EventType:   models.EventTypeTranscriptFinal,
		WorkspaceID: "ws-1",
		SessionID:   "sess-1",
		ChunkCount:  5,
		Text:        "Hello and everyone",
	})

	if err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_Close_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	if err := p.Close(); err != nil {
		t.Errorf("expected nil error closing disabled publisher, got %v", err)
	}
}
