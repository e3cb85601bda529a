// Package migrations embeds the schema so binaries migrate without the source tree on disk.
package migrations

import "embed"

//go:embed postgres/*.sql
var Postgres embed.FS

// PostgresDir is the directory inside Postgres holding the migration files.
const PostgresDir = "postgres"
