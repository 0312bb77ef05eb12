// Package heuristic provides a deterministic recognizer that stands in
// for a real speech model. The token for a chunk is a fixed function of
// the chunk's mean amplitude and its position in the session, so the
// same audio always yields the same transcript. Useful for local
// development and for tests that need reproducible output.
package heuristic

import (
	"context"
	"time"

	"ai-meeting-transcription-service/internal/service/stt"
)

// Config tunes the recognizer. Zero values fall back to the shared
// provider defaults.
type Config struct {
	// MinAnalyzeBytes is the smallest chunk that yields a token.
	// Shorter chunks are treated as silence but still contribute
	// their amplitude to the end-of-speech decision.
	MinAnalyzeBytes int
	// SilenceMean is the mean-amplitude threshold under which a
	// non-empty chunk signals end of speech.
	SilenceMean float64
	// MaxChunks caps the session length; the chunk at that position
	// and every later one signal end of speech.
	MaxChunks int
	// Latency simulates model processing time. It delays the result
	// without changing it. Leave zero in tests.
	Latency time.Duration
}

// DefaultConfig returns the configuration used when no overrides are set.
func DefaultConfig() Config {
	return Config{
		MinAnalyzeBytes: stt.DefaultMinAnalyzeBytes,
		SilenceMean:     stt.DefaultSilenceMean,
		MaxChunks:       stt.DefaultMaxChunks,
	}
}

// Recognizer is a deterministic stt.Recognizer.
type Recognizer struct {
	cfg Config
}

// New creates a heuristic recognizer, filling unset config fields with
// the shared defaults.
func New(cfg Config) *Recognizer {
	if cfg.MinAnalyzeBytes <= 0 {
		cfg.MinAnalyzeBytes = stt.DefaultMinAnalyzeBytes
	}
	if cfg.SilenceMean <= 0 {
		cfg.SilenceMean = stt.DefaultSilenceMean
	}
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = stt.DefaultMaxChunks
	}
	return &Recognizer{cfg: cfg}
}

// Recognize maps the chunk to a token from the fixed bucket table and
// computes the end-of-speech signal. The signal is evaluated for every
// chunk, including ones too short to yield a token.
func (r *Recognizer) Recognize(_ context.Context, audio []byte, position int) (stt.Result, error) {
	if r.cfg.Latency > 0 {
		time.Sleep(r.cfg.Latency)
	}

	mean := stt.MeanAmplitude(audio)
	res := stt.Result{
		MeanAmplitude: mean,
		Size:          len(audio),
		Final:         stt.EndOfSpeech(len(audio), mean, position, r.cfg.MaxChunks, r.cfg.SilenceMean),
	}
	if len(audio) >= r.cfg.MinAnalyzeBytes {
		res.Text = token(mean, position == 1)
	}
	return res, nil
}

// token picks from the amplitude bucket table: one opener per band for
// the first chunk of a session, one continuation for every later chunk.
func token(mean float64, opener bool) string {
	switch {
	case mean < 50:
		if opener {
			return "Hello"
		}
		return "and"
	case mean < 100:
		if opener {
			return "Welcome"
		}
		return "everyone"
	case mean < 150:
		if opener {
			return "Good morning"
		}
		return "to the meeting"
	default:
		if opener {
			return "Thank you"
		}
		return "for joining us today"
	}
}
