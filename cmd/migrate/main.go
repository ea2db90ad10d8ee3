package main

import (
	"marina/config"
	"marina/helper"
	"marina/shared/logger"
	"os"

	"github.com/rs/zerolog/log"
)

const (
	argLength = 2
)

var directions = map[string]func(*config.Config) error{
	"up":      helper.Up,
	"down":    helper.Down,
	"drop":    helper.Drop,
	"step-up": helper.StepUp,
}

func main() {
	cfg := config.Get()

	logger.InitLogger(cfg)

	if err := cfg.ValidateMigration(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	if len(os.Args) < argLength {
		log.Fatal().Msg("Migration direction (up/down) is required")
	}

	run, ok := directions[os.Args[1]]
	if !ok {
		log.Fatal().Str("direction", os.Args[1]).Msg("Invalid direction. Use 'up', 'down', 'drop' or 'step-up'")
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Str("direction", os.Args[1]).Msg("Migration failed")
	}
}
