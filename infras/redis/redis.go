package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	goRedis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"teleconsult/config"
)

const pingTimeout = 5 * time.Second

func Options(cfg *config.Config) *goRedis.Options {
	primary := cfg.Cache.Redis.Primary

	return &goRedis.Options{
		Addr:     net.JoinHostPort(primary.Host, primary.Port),
		Password: primary.Password,
		DB:       primary.DB,
	}
}

// Ping checks the client can reach the server within pingTimeout.
func Ping(ctx context.Context, client *goRedis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis at %s: %w", client.Options().Addr, err)
	}

	return nil
}

func New(cfg *config.Config) *goRedis.Client {
	client := goRedis.NewClient(Options(cfg))

	if err := Ping(context.Background(), client); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}

	log.Info().
		Int("db", cfg.Cache.Redis.Primary.DB).
		Str("addr", client.Options().Addr).
		Msg("Connected to Redis")

	return client
}
