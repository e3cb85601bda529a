// Package lock serialises critical sections across replicas with a Redis lease (SET NX PX).
package lock

//go:generate go run go.uber.org/mock/mockgen -source=./lock.go -destination=./mocks/lock_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"teleconsult/config"
	"teleconsult/infras/otel"
	"teleconsult/shared/constant"
	"teleconsult/shared/failure"
)

const keyPrefix = "lock:"

var ErrBusy = errors.New("lock is held by another owner")

// releaseScript deletes the key only when the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Locker interface {
	// WithLock runs fn while holding key. Contention past the lease TTL yields a retryable failure.
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

type redisLocker struct {
	client *redis.Client
	otel   otel.Otel
	ttl    time.Duration
}

func New(client *redis.Client, cfg *config.Config, otl otel.Otel) Locker {
	return &redisLocker{
		client: client,
		otel:   otl,
		ttl:    cfg.LockTTL(),
	}
}

func (l *redisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) (err error) {
	ctx, scope := l.otel.NewScope(ctx, constant.OtelLockScopeName, constant.OtelLockScopeName+".WithLock")
	defer scope.End()
	defer scope.TraceIfError(err)

	key = keyPrefix + key
	token := uuid.NewString()

	scope.SetAttribute("lock.key", key)

	_, err = backoff.Retry(ctx, func() (bool, error) {
		acquired, setErr := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if setErr != nil {
			return false, backoff.Permanent(setErr)
		}

		if !acquired {
			return false, ErrBusy
		}

		return true, nil
	}, backoff.WithBackOff(newBackOff()), backoff.WithMaxElapsedTime(l.ttl))
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to acquire lock")

		return failure.Unavailable(fmt.Errorf("failed to acquire lock %s: %w", key, err)) //nolint:wrapcheck
	}

	defer func() {
		if relErr := releaseScript.Run(context.WithoutCancel(ctx), l.client, []string{key}, token).Err(); relErr != nil {
			log.Error().Err(relErr).Str("key", key).Msg("failed to release lock")
		}
	}()

	return fn(ctx)
}

func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond

	return b
}
