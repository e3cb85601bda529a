package main

import (
	"github.com/rs/zerolog/log"

	"teleconsult/config"
	"teleconsult/di"
	"teleconsult/helper"
	"teleconsult/shared/logger"
)

func main() {
	cfg := config.Get()

	logger.Configure(cfg)

	if cfg.DB.Postgres.AutoMigrate {
		if err := helper.Up(cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
	}

	server, cleanup := di.InitializeService()
	defer cleanup()

	server.Serve()
}
