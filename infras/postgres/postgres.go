package postgres

//nolint:revive
import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"teleconsult/config"
)

const (
	postgresMaxIdleConnection = 10
	postgresMaxOpenConnection = 10
	postgresConnMaxLifetime   = 30 * time.Minute
)

// Connection holds the primary pool and the replica pool. Both point at the same pool when the
// read and write endpoints are identical.
type Connection struct {
	Read  *sqlx.DB
	Write *sqlx.DB
}

// Endpoint is one side of the read/write split.
type Endpoint struct {
	Name     string
	Host     string
	Port     string
	Username string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the lib/pq connection URL.
func (e Endpoint) DSN() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(e.Username, e.Password),
		Host:     net.JoinHostPort(e.Host, e.Port),
		Path:     e.DBName,
		RawQuery: url.Values{"sslmode": []string{e.SSLMode}}.Encode(),
	}

	return dsn.String()
}

func New(cfg *config.Config) *Connection {
	ctx := context.Background()
	write, read := WriteEndpoint(cfg), ReadEndpoint(cfg)

	writeDB, err := Connect(ctx, write, cfg.DB.Postgres.MaxRetry, cfg.DB.Postgres.RetryWaitTime)
	if err != nil {
		log.Fatal().Err(err).Str("name", write.Name).Msg("Failed to connect to database")
	}

	if read.DSN() == write.DSN() {
		log.Info().Msg("Read endpoint matches write endpoint, sharing one pool")

		return &Connection{Read: writeDB, Write: writeDB}
	}

	readDB, err := Connect(ctx, read, cfg.DB.Postgres.MaxRetry, cfg.DB.Postgres.RetryWaitTime)
	if err != nil {
		log.Fatal().Err(err).Str("name", read.Name).Msg("Failed to connect to database")
	}

	return &Connection{Read: readDB, Write: writeDB}
}

// Close releases both pools.
func (c *Connection) Close() error {
	if c == nil {
		return nil
	}

	var errs []error

	if c.Write != nil {
		errs = append(errs, c.Write.Close())
	}

	if c.Read != nil && c.Read != c.Write {
		errs = append(errs, c.Read.Close())
	}

	return errors.Join(errs...)
}

func dbName(cfg *config.Config, baseName string) string {
	return cfg.DB.Postgres.Prefix + baseName
}

func WriteEndpoint(cfg *config.Config) Endpoint {
	w := cfg.DB.Postgres.Write

	return Endpoint{
		Name:     "write",
		Host:     w.Host,
		Port:     w.Port,
		Username: w.Username,
		Password: w.Password,
		DBName:   dbName(cfg, w.Name),
		SSLMode:  w.SSLMode,
	}
}

func ReadEndpoint(cfg *config.Config) Endpoint {
	r := cfg.DB.Postgres.Read

	return Endpoint{
		Name:     "read",
		Host:     r.Host,
		Port:     r.Port,
		Username: r.Username,
		Password: r.Password,
		DBName:   dbName(cfg, r.Name),
		SSLMode:  r.SSLMode,
	}
}

// Connect opens a pool, retrying at a constant interval up to maxRetry attempts.
func Connect(ctx context.Context, endpoint Endpoint, maxRetry, waitSeconds int) (*sqlx.DB, error) {
	if maxRetry < 1 {
		maxRetry = 1
	}

	logger := log.With().
		Str("name", endpoint.Name).
		Str("host", endpoint.Host).
		Str("port", endpoint.Port).
		Str("dbName", endpoint.DBName).
		Logger()

	attempt := 0

	db, err := backoff.Retry(ctx, func() (*sqlx.DB, error) {
		attempt++

		return sqlx.ConnectContext(ctx, "postgres", endpoint.DSN())
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(time.Duration(waitSeconds)*time.Second)),
		backoff.WithMaxTries(uint(maxRetry)),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Error().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("Failed connecting to database, retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect %s after %d attempts: %w", endpoint.Name, attempt, err)
	}

	db.SetMaxIdleConns(postgresMaxIdleConnection)
	db.SetMaxOpenConns(postgresMaxOpenConnection)
	db.SetConnMaxLifetime(postgresConnMaxLifetime)

	logger.Info().Msg("Connected to database")

	return db, nil
}
