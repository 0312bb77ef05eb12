// Package stt defines the speech-to-text provider interface used by the
// transcription engine, plus the chunk analysis helpers shared by all
// providers.
package stt

import "context"

// Thresholds shared by every provider. A chunk below MinAnalyzeBytes is
// treated as silence and yields no token. A chunk whose mean amplitude
// falls below SilenceMean signals end of speech, as does any chunk at or
// past the MaxChunks position.
const (
	DefaultMinAnalyzeBytes = 100
	DefaultSilenceMean     = 10.0
	DefaultMaxChunks       = 5
)

// Result is the outcome of recognizing a single audio chunk.
type Result struct {
	// Text is the token recognized from this chunk. Empty means the
	// chunk was too short to analyze or carried no speech.
	Text string
	// Final reports the end-of-speech signal for the session.
	Final bool
	// MeanAmplitude is the arithmetic mean of the chunk's byte values.
	MeanAmplitude float64
	// Size is the chunk length in bytes.
	Size int
}

// Recognizer converts one audio chunk into a partial transcript token
// and an end-of-speech signal. Position is the 1-based ordinal of the
// chunk within its session; providers use it to distinguish session
// openers from continuations and to enforce the chunk cap.
type Recognizer interface {
	Recognize(ctx context.Context, audio []byte, position int) (Result, error)
}

// MeanAmplitude returns the arithmetic mean of the chunk's byte values,
// or 0 for an empty chunk.
func MeanAmplitude(audio []byte) float64 {
	if len(audio) == 0 {
		return 0
	}
	var sum int64
	for _, b := range audio {
		sum += int64(b)
	}
	return float64(sum) / float64(len(audio))
}

// EndOfSpeech reports whether a chunk at the given position terminates
// its session: either the session has reached the chunk cap or the
// chunk is quiet enough to count as trailing silence. Empty chunks
// carry no amplitude signal and never terminate on quietness alone.
func EndOfSpeech(size int, mean float64, position, maxChunks int, silenceMean float64) bool {
	if position >= maxChunks {
		return true
	}
	return size > 0 && mean < silenceMean
}
