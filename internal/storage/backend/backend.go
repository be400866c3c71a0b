// Package backend selects a storage implementation from a database URL.
package backend

import (
	"context"
	"strings"

	"github.com/nhm-india/fund-tracker/internal/storage"
	"github.com/nhm-india/fund-tracker/internal/storage/postgres"
	"github.com/nhm-india/fund-tracker/internal/storage/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Driver reports which backend serves databaseURL. postgres:// and
// postgresql:// URLs go to Postgres; anything else is a SQLite location.
func Driver(databaseURL string) string {
	lower := strings.ToLower(strings.TrimSpace(databaseURL))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// SQLiteDSN turns a sqlite:// URL or bare path into a driver DSN.
func SQLiteDSN(databaseURL string) string {
	dsn := strings.TrimSpace(databaseURL)
	if rest, ok := strings.CutPrefix(dsn, "sqlite://"); ok {
		return rest
	}
	return dsn
}

// Open connects to the configured backend and ensures its schema.
func Open(ctx context.Context, databaseURL string) (storage.Store, error) {
	if Driver(databaseURL) == DriverPostgres {
		return postgres.Open(ctx, databaseURL)
	}
	return sqlite.Open(ctx, SQLiteDSN(databaseURL))
}
