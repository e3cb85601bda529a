package helper

//nolint:revive
import (
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"

	"teleconsult/config"
	"teleconsult/infras/postgres"
	"teleconsult/migrations"
)

type MigrationAction string

const (
	MigrationUp     MigrationAction = "up"
	MigrationStepUp MigrationAction = "step-up"
	MigrationDown   MigrationAction = "down"
	MigrationDrop   MigrationAction = "drop"
)

var ErrUnknownMigrationAction = errors.New("unknown migration action")

var migrationActions = map[MigrationAction]func(*migrate.Migrate) error{
	MigrationUp:     func(m *migrate.Migrate) error { return m.Up() },
	MigrationStepUp: func(m *migrate.Migrate) error { return m.Steps(1) },
	MigrationDown:   func(m *migrate.Migrate) error { return m.Steps(-1) },
	MigrationDrop:   func(m *migrate.Migrate) error { return m.Down() },
}

// MigrationDSN targets the primary and carries the migrations table override when one is set.
func MigrationDSN(cfg *config.Config) string {
	dsn := postgres.WriteEndpoint(cfg).DSN()

	if cfg.DB.Postgres.MigrationTable != "" {
		dsn += "&x-migrations-table=" + url.QueryEscape(cfg.DB.Postgres.MigrationTable)
	}

	return dsn
}

func newMigrate(cfg *config.Config) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations.Postgres, migrations.PostgresDir)
	if err != nil {
		return nil, fmt.Errorf("error opening embedded migrations: %w", err)
	}

	mig, err := migrate.NewWithSourceInstance("iofs", source, MigrationDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("error creating migrate instance: %w", err)
	}

	return mig, nil
}

func Runner(cfg *config.Config, action MigrationAction) error {
	run, ok := migrationActions[action]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMigrationAction, action)
	}

	mig, err := newMigrate(cfg)
	if err != nil {
		return err
	}

	defer func() {
		srcErr, dbErr := mig.Close()
		if srcErr != nil || dbErr != nil {
			log.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("Failed to close migrate instance")
		}
	}()

	if err := run(mig); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running %s migration: %w", action, err)
	}

	version, dirty, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("error reading migration version: %w", err)
	}

	log.Info().Str("action", string(action)).Uint("version", version).Bool("dirty", dirty).Msg("Database migration completed")

	return nil
}

func Up(cfg *config.Config) error {
	return Runner(cfg, MigrationUp)
}
