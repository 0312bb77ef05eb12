// Package config loads service configuration. Defaults are overlaid by
// an optional YAML file named in CONFIG_FILE, then by environment
// variables, so deployments can ship a base file and tweak single
// values per environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Service       ServiceConfig       `yaml:"service"`
	Session       SessionConfig       `yaml:"session"`
	STT           STTConfig           `yaml:"stt"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServiceConfig identifies the service and its listeners.
type ServiceConfig struct {
	Principal   string `yaml:"principal"`
	HTTPPort    string `yaml:"httpPort"`
	MetricsPort string `yaml:"metricsPort"`
}

// SessionConfig tunes the session store.
type SessionConfig struct {
	// EvictionDelay is how long a finalized session stays in the
	// store before removal.
	EvictionDelay time.Duration `yaml:"evictionDelay"`
}

// STTConfig selects and tunes the speech-to-text provider.
type STTConfig struct {
	Provider        string        `yaml:"provider"` // heuristic | google
	LanguageCode    string        `yaml:"languageCode"`
	SampleRateHz    int           `yaml:"sampleRateHz"`
	AudioEncoding   string        `yaml:"audioEncoding"`
	MinAnalyzeBytes int           `yaml:"minAnalyzeBytes"`
	SilenceMean     float64       `yaml:"silenceMean"`
	MaxChunks       int           `yaml:"maxChunks"`
	// SimulatedLatency applies to the heuristic provider only.
	SimulatedLatency time.Duration `yaml:"simulatedLatency"`
}

// KafkaConfig configures transcript event publishing.
type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	TopicPartial string   `yaml:"topicPartial"`
	TopicFinal   string   `yaml:"topicFinal"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
}

// Load builds the configuration from defaults, the optional CONFIG_FILE
// YAML overlay, and environment variables, in that order of precedence
// (environment wins). It fails only on an unreadable or invalid file,
// or an invalid resulting configuration; malformed individual env
// values fall back to the prior value.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Principal:   "svc-meeting-transcription",
			HTTPPort:    "8080",
			MetricsPort: "9090",
		},
		Session: SessionConfig{
			EvictionDelay: 5 * time.Minute,
		},
		STT: STTConfig{
			Provider:        "heuristic",
			LanguageCode:    "en-US",
			SampleRateHz:    16000,
			AudioEncoding:   "LINEAR16",
			MinAnalyzeBytes: 100,
			SilenceMean:     10,
			MaxChunks:       5,
		},
		Kafka: KafkaConfig{
			Enabled:      false,
			TopicPartial: "meeting.transcript.partial",
			TopicFinal:   "meeting.transcript.final",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// applyEnv overlays environment variables onto the current values, so
// an unset variable leaves the file/default value in place.
func (c *Config) applyEnv() {
	c.Service.Principal = envOrDefault("SERVICE_PRINCIPAL", c.Service.Principal)
	c.Service.HTTPPort = envOrDefault("HTTP_PORT", c.Service.HTTPPort)
	c.Service.MetricsPort = envOrDefault("METRICS_PORT", c.Service.MetricsPort)

	c.Session.EvictionDelay = envAsDuration("SESSION_EVICTION_DELAY", c.Session.EvictionDelay)

	c.STT.Provider = envOrDefault("STT_PROVIDER", c.STT.Provider)
	c.STT.LanguageCode = envOrDefault("STT_LANGUAGE_CODE", c.STT.LanguageCode)
	c.STT.SampleRateHz = envAsInt("STT_SAMPLE_RATE_HZ", c.STT.SampleRateHz)
	c.STT.AudioEncoding = envOrDefault("STT_AUDIO_ENCODING", c.STT.AudioEncoding)
	c.STT.MinAnalyzeBytes = envAsInt("STT_MIN_ANALYZE_BYTES", c.STT.MinAnalyzeBytes)
	c.STT.SilenceMean = envAsFloat("STT_SILENCE_MEAN", c.STT.SilenceMean)
	c.STT.MaxChunks = envAsInt("STT_MAX_CHUNKS", c.STT.MaxChunks)
	c.STT.SimulatedLatency = envAsDuration("STT_SIMULATED_LATENCY", c.STT.SimulatedLatency)

	c.Kafka.Enabled = envAsBool("KAFKA_ENABLED", c.Kafka.Enabled)
	c.Kafka.Brokers = envAsSlice("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.TopicPartial = envOrDefault("KAFKA_TOPIC_PARTIAL", c.Kafka.TopicPartial)
	c.Kafka.TopicFinal = envOrDefault("KAFKA_TOPIC_FINAL", c.Kafka.TopicFinal)

	c.Observability.LogLevel = envOrDefault("LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.LogFormat = envOrDefault("LOG_FORMAT", c.Observability.LogFormat)
}

func (c *Config) validate() error {
	switch c.STT.Provider {
	case "heuristic", "google":
	default:
		return fmt.Errorf("unknown stt provider %q", c.STT.Provider)
	}
	if c.Service.HTTPPort == "" {
		return fmt.Errorf("http port must not be empty")
	}
	if c.Service.MetricsPort == "" {
		return fmt.Errorf("metrics port must not be empty")
	}
	if c.Session.EvictionDelay <= 0 {
		return fmt.Errorf("session eviction delay must be positive, got %v", c.Session.EvictionDelay)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka enabled but no brokers configured")
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envAsInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envAsFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envAsBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envAsDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envAsSlice(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
