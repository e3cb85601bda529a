package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teleconsult/infras/otel/mocks"
	"teleconsult/shared/cache"
)

type cachedTicket struct {
	ID       string   `json:"id"`
	Invitees []string `json:"invitees"`
}

func setup(t *testing.T) (cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	t.Cleanup(func() { _ = client.Close() })

	return cache.NewRedisCache(client, mocks.NewOtel()), server
}

func TestSaveGet(t *testing.T) {
	ctx := context.Background()
	c, server := setup(t)

	ticket := cachedTicket{ID: "t-1", Invitees: []string{"dr@clinic.test", "pat@mail.test"}}
	require.NoError(t, c.Save(ctx, "session:get:t-1", ticket, 60))

	var loaded cachedTicket
	require.NoError(t, c.Get(ctx, "session:get:t-1", &loaded))
	assert.Equal(t, ticket, loaded)

	require.NoError(t, c.Save(ctx, "raw", "plain", 60))

	var raw string
	require.NoError(t, c.Get(ctx, "raw", &raw))
	assert.Equal(t, "plain", raw)

	server.FastForward(61 * time.Second)

	err := c.Get(ctx, "raw", &raw)
	assert.True(t, errors.Is(err, cache.Nil))
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	c, server := setup(t)

	require.NoError(t, c.Save(ctx, "appointment:gets:a", 1, 60))
	require.NoError(t, c.Save(ctx, "appointment:gets:b", 2, 60))
	require.NoError(t, c.Save(ctx, "appointment:get:x", 3, 60))

	require.NoError(t, c.Clear(ctx, "appointment:gets*"))
	assert.False(t, server.Exists("appointment:gets:a"))
	assert.False(t, server.Exists("appointment:gets:b"))
	assert.True(t, server.Exists("appointment:get:x"))

	require.NoError(t, c.Delete(ctx, "appointment:get:x"))
	assert.False(t, server.Exists("appointment:get:x"))
}

func TestIncrement(t *testing.T) {
	ctx := context.Background()
	c, server := setup(t)

	for want := int64(1); want <= 3; want++ {
		got, err := c.Increment(ctx, "limiter:1.2.3.4", 10)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	assert.Equal(t, 10*time.Second, server.TTL("limiter:1.2.3.4"))

	server.FastForward(11 * time.Second)

	got, err := c.Increment(ctx, "limiter:1.2.3.4", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}
