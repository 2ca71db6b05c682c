// Package storage persists orders, matches, positions, DLC channel
// lifecycle rows, and collaborative revert proposals to Postgres.
// Grounded on channeldb/db.go's Open/migration pattern, adapted from
// bbolt's in-process versioned-migration-on-open to golang-migrate driving
// schema migrations against Postgres, and on
// coordinator/src/db/dlc_channels.rs for the channel CRUD shape.
package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4/pgxpool"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps a connection pool and the migrated schema.
type DB struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres at dsn and applies any pending migrations,
// mirroring createChannelDB's open-or-create-then-sync-versions flow.
func Open(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: connecting to postgres: %w", err)
	}

	if err := migrateUp(dsn); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: applying migrations: %w", err)
	}

	return &DB{pool: pool}, nil
}

// migrateUp drives schema migrations through database/sql rather than the
// pgxpool.Pool used for normal queries, since golang-migrate's postgres
// driver opens its own database/sql.DB internally; the blank "lib/pq"
// import above registers the "postgres" database/sql driver that call
// needs, separate from pgx's own connection pool.
func migrateUp(dsn string) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, dsn)
	if err != nil {
		return fmt.Errorf("constructing migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close releases the connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Ping verifies Postgres reachability; used by internal/health's periodic
// liveness probe.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation on the given constraint name, so callers can translate a raw
// wire-protocol error into a typed sentinel instead of bubbling opaque SQL
// text to the HTTP boundary.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == constraint
}
