package redis_test

import (
	"context"
	"net"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goRedis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teleconsult/config"
	"teleconsult/infras/redis"
)

func TestNewConnectsToPrimary(t *testing.T) {
	server := miniredis.RunT(t)

	host, port, err := net.SplitHostPort(server.Addr())
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Cache.Redis.Primary.Host = host
	cfg.Cache.Redis.Primary.Port = port

	client := redis.New(cfg)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, server.Addr(), client.Options().Addr)
	assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	server.CheckGet(t, "k", "v")
}

func TestPingFailsWhenServerIsDown(t *testing.T) {
	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()

	client := goRedis.NewClient(&goRedis.Options{Addr: addr, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	assert.ErrorContains(t, redis.Ping(context.Background(), client), addr)
}
