package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"teleconsult/config"
	"teleconsult/helper"
	"teleconsult/shared/logger"
)

const (
	argLength = 2
)

func main() {
	if len(os.Args) < argLength {
		log.Fatal().Msg("Migration action is required: up, step-up, down or drop")
	}

	cfg := config.Get()

	logger.Configure(cfg)

	action := helper.MigrationAction(os.Args[1])

	if err := helper.Runner(cfg, action); err != nil {
		log.Fatal().Err(err).Str("action", string(action)).Msg("Migration failed")
	}
}
