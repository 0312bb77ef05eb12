package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"ai-meeting-transcription-service/internal/app"
	"ai-meeting-transcription-service/internal/config"
	"ai-meeting-transcription-service/internal/observability/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})

	application, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize service")
	}

	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start service")
	}
	log.Info().
		Str("httpPort", cfg.Service.HTTPPort).
		Str("metricsPort", cfg.Service.MetricsPort).
		Msg("Meeting transcription service started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	log.Info().Str("signal", s.String()).Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown finished with errors")
	}
}
