// Package db owns the Postgres handle and the bootstrap schema.
package db

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
)

// DB wraps the sql handle so higher layers depend on one type.
type DB struct {
	*sql.DB
}

// Open connects to Postgres, verifies the connection, and applies the
// bootstrap schema.
func Open(ctx context.Context, dsn string) (*DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := Migrate(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return &DB{DB: sqlDB}, nil
}
