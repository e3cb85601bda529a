package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"teleconsult/config"
	"teleconsult/di"
	"teleconsult/shared/logger"
)

func main() {
	cfg := config.Get()

	logger.Configure(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, cleanup := di.InitializeReminder()
	defer cleanup()

	log.Info().Dur("interval", cfg.ReminderInterval()).Msg("Starting reminder worker.")

	runner.Run(ctx)

	log.Info().Msg("Reminder worker stopped.")
}
