package di

import (
	goRedis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"teleconsult/config"
	"teleconsult/infras/kafka"
	"teleconsult/infras/postgres"
	"teleconsult/infras/redis"
	reminderService "teleconsult/internal/domains/reminder/service"
)

// Store handles are opened here and released by the cleanup the injector hands to main.

func postgresConnection(cfg *config.Config) (*postgres.Connection, func()) {
	conn := postgres.New(cfg)

	return conn, func() {
		if err := conn.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database connection")
		}
	}
}

func redisClient(cfg *config.Config) (*goRedis.Client, func()) {
	client := redis.New(cfg)

	return client, func() {
		if err := client.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Redis client")
		}
	}
}

func kafkaClient(cfg *config.Config) (kafka.Client, func()) {
	client := kafka.New(cfg)

	return client, func() {
		if err := client.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Kafka writers")
		}
	}
}

func reminderRunner(reminder reminderService.Reminder, cfg *config.Config) *reminderService.Runner {
	return reminderService.NewRunner(reminder, cfg.ReminderInterval())
}
