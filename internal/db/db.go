// Package db opens the job board's PostgreSQL connection pool.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jobportal/apiserver/config"
	"github.com/lib/pq"
)

const (
	defaultDBDriver     = "postgres"
	defaultPingTimeout  = 5 * time.Second
	defaultConnTimeout  = 10 * time.Second
	defaultConnMaxIdle  = 2 * time.Minute
	defaultConnMaxLife  = 30 * time.Minute
	defaultMaxIdleConns = 5
	defaultMaxOpenConns = 25

	// applicationName shows up in pg_stat_activity next to each connection.
	applicationName = "jobportal-apiserver"

	// undefinedTable is the PostgreSQL error code for a missing relation.
	undefinedTable = "42P01"
)

// ErrSchemaNotMigrated is returned by SchemaVersion when the migrations have
// never been applied to the database.
var ErrSchemaNotMigrated = errors.New("database schema has not been migrated")

// ErrSchemaDirty is returned by SchemaVersion when a migration failed halfway.
var ErrSchemaDirty = errors.New("database schema is dirty")

// PostgresURL builds the connection URL for the configured database.
func PostgresURL(cfg config.Config) string {
	sslmode := "disable"
	if cfg.Database.UseSSL {
		sslmode = "require"
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Database.Host, cfg.Database.Port),
		User:   url.UserPassword(cfg.Database.User, cfg.Database.Password),
		Path:   cfg.Database.DBName,
	}

	q := u.Query()
	q.Set("sslmode", sslmode)
	q.Set("application_name", applicationName)
	q.Set("connect_timeout", strconv.Itoa(int(defaultConnTimeout/time.Second)))
	u.RawQuery = q.Encode()
	return u.String()
}

// Open connects to the job board database and checks it is reachable.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open(defaultDBDriver, PostgresURL(cfg))
	if err != nil {
		return nil, err
	}

	db.SetConnMaxIdleTime(defaultConnMaxIdle)
	db.SetConnMaxLifetime(defaultConnMaxLife)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetMaxOpenConns(defaultMaxOpenConns)

	if ctx == nil {
		ctx = context.Background()
	}
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Database.DBName, err)
	}

	return db, nil
}

// SchemaVersion reports the migration version recorded by the migrate
// command. It fails with ErrSchemaNotMigrated before the first migration and
// with ErrSchemaDirty after a failed one.
func SchemaVersion(ctx context.Context, db *sql.DB) (uint, error) {
	var (
		version int64
		dirty   bool
	)
	err := db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	var pqErr *pq.Error
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, ErrSchemaNotMigrated
	case errors.As(err, &pqErr) && pqErr.Code == undefinedTable:
		return 0, ErrSchemaNotMigrated
	case err != nil:
		return 0, err
	case dirty:
		return uint(version), fmt.Errorf("%w at version %d", ErrSchemaDirty, version)
	}
	return uint(version), nil
}
