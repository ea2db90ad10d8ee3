package main

import (
	"context"
	"marina/config"
	"marina/di"
	"marina/helper"
	"marina/shared/logger"
	"time"

	"github.com/rs/zerolog/log"
)

const tracerFlushTimeout = 5 * time.Second

func main() {
	cfg := config.Get()

	logger.InitLogger(cfg)

	logger.SetLogLevel(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	if cfg.DB.Postgres.AutoMigrate {
		if err := helper.Up(cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
	}

	app, err := di.InitializeService()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize service")
	}

	defer func() {
		if err := app.Producer.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close kafka producer")
		}

		flushCtx, flushCancel := context.WithTimeout(context.Background(), tracerFlushTimeout)
		defer flushCancel()

		if err := app.Otel.Shutdown(flushCtx); err != nil {
			log.Error().Err(err).Msg("Failed to flush traces")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Booking.Outbox.Enable {
		go app.Dispatcher.Run(ctx)
	}

	app.HTTP.Serve()
}
