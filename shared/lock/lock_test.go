package lock_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teleconsult/config"
	"teleconsult/infras/otel/mocks"
	"teleconsult/shared/failure"
	"teleconsult/shared/lock"
)

func setup(t *testing.T, ttlSeconds int) (lock.Locker, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{}
	cfg.Scheduling.LockTTLSeconds = ttlSeconds

	return lock.New(client, cfg, mocks.NewOtel()), server
}

func TestWithLockSerialises(t *testing.T) {
	locker, server := setup(t, 5)

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := locker.WithLock(context.Background(), "provider:dr@clinic.test", func(context.Context) error {
				current := inside.Add(1)
				if current > maxSeen.Load() {
					maxSeen.Store(current)
				}

				time.Sleep(5 * time.Millisecond)
				inside.Add(-1)

				return nil
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
	assert.False(t, server.Exists("lock:provider:dr@clinic.test"))
}

func TestWithLockPropagatesError(t *testing.T) {
	locker, server := setup(t, 5)

	boom := errors.New("conflict")

	err := locker.WithLock(context.Background(), "department:d1", func(context.Context) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.False(t, server.Exists("lock:department:d1"))
}

func TestWithLockBusy(t *testing.T) {
	locker, server := setup(t, 1)

	require.NoError(t, server.Set("lock:org:o1", "someone-else"))

	called := false
	err := locker.WithLock(context.Background(), "org:o1", func(context.Context) error {
		called = true

		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, http.StatusServiceUnavailable, failure.GetCode(err))
	assert.True(t, failure.IsRetryable(err))

	value, _ := server.Get("lock:org:o1")
	assert.Equal(t, "someone-else", value)
}
