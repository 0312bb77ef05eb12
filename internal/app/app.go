// Package app wires the service together: session store, recognizer,
// event publisher, transcription engine, and the HTTP listeners.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	apihttp "ai-meeting-transcription-service/internal/api/http"
	apiws "ai-meeting-transcription-service/internal/api/ws"
	"ai-meeting-transcription-service/internal/config"
	"ai-meeting-transcription-service/internal/events"
	"ai-meeting-transcription-service/internal/observability"
	"ai-meeting-transcription-service/internal/observability/logging"
	"ai-meeting-transcription-service/internal/service/session"
	"ai-meeting-transcription-service/internal/service/stt"
	"ai-meeting-transcription-service/internal/service/stt/google"
	"ai-meeting-transcription-service/internal/service/stt/heuristic"
	"ai-meeting-transcription-service/internal/service/transcription"
)

// Application holds process-wide state for the service.
type Application struct {
	cfg    *config.Config
	logger zerolog.Logger

	store     *session.Store
	engine    *transcription.Engine
	publisher *events.Publisher

	apiServer *http.Server
	apiAddr   string
	obs       *observability.Server

	closeRecognizer func() error
}

// New constructs the application from configuration. It builds the
// recognizer eagerly so misconfiguration fails before any listener
// opens.
func New(cfg *config.Config) (*Application, error) {
	a := &Application{
		cfg:    cfg,
		logger: logging.WithComponent("app"),
	}

	a.store = session.New()

	recognizer, closeFn, err := buildRecognizer(cfg)
	if err != nil {
		return nil, err
	}
	a.closeRecognizer = closeFn

	a.publisher = events.New(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicPartial: cfg.Kafka.TopicPartial,
		TopicFinal:   cfg.Kafka.TopicFinal,
		Principal:    cfg.Service.Principal,
	})

	a.engine = transcription.New(a.store, recognizer, a.publisher, transcription.Config{
		Provider:      cfg.STT.Provider,
		EvictionDelay: cfg.Session.EvictionDelay,
	})

	router := apihttp.NewRouter(apihttp.NewHandler(a.engine), apiws.NewHandler(a.engine))
	a.apiServer = &http.Server{
		Addr:    ":" + cfg.Service.HTTPPort,
		Handler: router,
		// No ReadTimeout: it would sever long-lived WebSocket streams.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	a.obs = observability.NewServer(":" + cfg.Service.MetricsPort)

	a.logger.Info().
		Str("provider", cfg.STT.Provider).
		Bool("kafkaEnabled", cfg.Kafka.Enabled).
		Msg("Application created")
	return a, nil
}

// buildRecognizer selects the STT provider from configuration.
func buildRecognizer(cfg *config.Config) (stt.Recognizer, func() error, error) {
	switch cfg.STT.Provider {
	case "google":
		r, err := google.New(context.Background(), google.Config{
			LanguageCode:    cfg.STT.LanguageCode,
			SampleRateHz:    cfg.STT.SampleRateHz,
			AudioEncoding:   cfg.STT.AudioEncoding,
			MinAnalyzeBytes: cfg.STT.MinAnalyzeBytes,
			SilenceMean:     cfg.STT.SilenceMean,
			MaxChunks:       cfg.STT.MaxChunks,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init google recognizer: %w", err)
		}
		return r, r.Close, nil
	default:
		// Config validation restricts the provider values, so this is
		// the heuristic branch.
		return heuristic.New(heuristic.Config{
			MinAnalyzeBytes: cfg.STT.MinAnalyzeBytes,
			SilenceMean:     cfg.STT.SilenceMean,
			MaxChunks:       cfg.STT.MaxChunks,
			Latency:         cfg.STT.SimulatedLatency,
		}), nil, nil
	}
}

// Start opens the listeners. The observability server comes up first so
// probes see the service while the API binds; readiness flips only once
// the API listener is accepting.
func (a *Application) Start() error {
	a.obs.Start()

	ln, err := net.Listen("tcp", a.apiServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.apiServer.Addr, err)
	}
	a.apiAddr = ln.Addr().String()

	go func() {
		a.logger.Info().Str("addr", a.apiAddr).Msg("API server listening")
		if err := a.apiServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("API server error")
		}
	}()

	a.obs.SetReady(true)
	return nil
}

// APIAddr returns the bound API address, valid after Start.
func (a *Application) APIAddr() string {
	return a.apiAddr
}

// Shutdown stops the listeners and releases external clients. The
// first error is returned, but every component gets its shutdown call.
func (a *Application) Shutdown(ctx context.Context) error {
	a.obs.SetReady(false)

	var firstErr error
	if err := a.apiServer.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("API server shutdown error")
		firstErr = err
	}
	if err := a.obs.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Observability server shutdown error")
		if firstErr == nil {
			firstErr = err
		}
	}
	a.store.Close()
	if err := a.publisher.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Publisher close error")
		if firstErr == nil {
			firstErr = err
		}
	}
	if a.closeRecognizer != nil {
		if err := a.closeRecognizer(); err != nil {
			a.logger.Error().Err(err).Msg("Recognizer close error")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	a.logger.Info().Msg("Shutdown complete")
	return firstErr
}
