// Package migrations holds the schema of the Postgres quiz catalog.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is applied by the migrate command and the integration tests.
var Migrations = migrate.NewMigrations()
