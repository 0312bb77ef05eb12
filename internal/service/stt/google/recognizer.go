// Package google provides an stt.Recognizer backed by the Google Cloud
// Speech-to-Text synchronous recognition API.
package google

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/rs/zerolog/log"

	"ai-meeting-transcription-service/internal/service/stt"
)

// Config holds Google STT configuration.
type Config struct {
	LanguageCode  string
	SampleRateHz  int
	AudioEncoding string

	// Session policy, applied locally. The cloud API transcribes the
	// chunk; end of speech is decided from chunk position and
	// amplitude the same way the heuristic provider decides it.
	MinAnalyzeBytes int
	SilenceMean     float64
	MaxChunks       int
}

// DefaultConfig returns the default Google STT configuration.
func DefaultConfig() Config {
	return Config{
		LanguageCode:    "en-US",
		SampleRateHz:    16000,
		AudioEncoding:   "LINEAR16",
		MinAnalyzeBytes: stt.DefaultMinAnalyzeBytes,
		SilenceMean:     stt.DefaultSilenceMean,
		MaxChunks:       stt.DefaultMaxChunks,
	}
}

// Recognizer calls the Google Cloud Speech API once per chunk.
type Recognizer struct {
	client *speech.Client
	cfg    Config
}

// New creates a Google STT recognizer. Credentials are resolved from
// the environment (GOOGLE_APPLICATION_CREDENTIALS or workload identity).
func New(ctx context.Context, cfg Config) (*Recognizer, error) {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.SampleRateHz <= 0 {
		cfg.SampleRateHz = 16000
	}
	if cfg.MinAnalyzeBytes <= 0 {
		cfg.MinAnalyzeBytes = stt.DefaultMinAnalyzeBytes
	}
	if cfg.SilenceMean <= 0 {
		cfg.SilenceMean = stt.DefaultSilenceMean
	}
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = stt.DefaultMaxChunks
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}

	log.Info().
		Str("language", cfg.LanguageCode).
		Int("sampleRateHz", cfg.SampleRateHz).
		Str("encoding", cfg.AudioEncoding).
		Msg("Google STT recognizer initialized")

	return &Recognizer{client: client, cfg: cfg}, nil
}

// Recognize transcribes one chunk. Chunks below the analysis threshold
// skip the API call entirely and yield an empty token.
func (r *Recognizer) Recognize(ctx context.Context, audio []byte, position int) (stt.Result, error) {
	mean := stt.MeanAmplitude(audio)
	res := stt.Result{
		MeanAmplitude: mean,
		Size:          len(audio),
		Final:         stt.EndOfSpeech(len(audio), mean, position, r.cfg.MaxChunks, r.cfg.SilenceMean),
	}
	if len(audio) < r.cfg.MinAnalyzeBytes {
		return res, nil
	}

	resp, err := r.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        parseAudioEncoding(r.cfg.AudioEncoding),
			SampleRateHertz: int32(r.cfg.SampleRateHz),
			LanguageCode:    r.cfg.LanguageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return stt.Result{}, fmt.Errorf("google recognize: %w", err)
	}

	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		res.Text = alts[0].GetTranscript()
		break
	}
	return res, nil
}

// Close releases the underlying API client.
func (r *Recognizer) Close() error {
	return r.client.Close()
}

// parseAudioEncoding converts the config string to the proto enum.
// Unknown values fall back to LINEAR16.
func parseAudioEncoding(encoding string) speechpb.RecognitionConfig_AudioEncoding {
	switch encoding {
	case "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "AMR":
		return speechpb.RecognitionConfig_AMR
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}
