package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Timestamps are stored as unix milliseconds so the same DDL works on
// Postgres and sqlite.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS drinks (
    id VARCHAR(36) PRIMARY KEY,
    title VARCHAR(80) NOT NULL UNIQUE,
    recipe TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_drinks_created_at ON drinks (created_at)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
    id VARCHAR(36) PRIMARY KEY,
    type VARCHAR(40) NOT NULL,
    actor_subject TEXT NOT NULL DEFAULT '',
    ip_address VARCHAR(45) NOT NULL DEFAULT '',
    drink_id VARCHAR(36) NOT NULL DEFAULT '',
    message TEXT NOT NULL DEFAULT '',
    metadata TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_events_drink ON audit_events (drink_id)`,
}

var dropStatements = []string{
	`DROP TABLE IF EXISTS audit_events`,
	`DROP TABLE IF EXISTS drinks`,
}

// Migrate creates the schema if it does not exist. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Reset drops every table and recreates the schema.
// All records are lost.
func Reset(ctx context.Context, db *sql.DB) error {
	for _, q := range dropStatements {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("drop failed: %w", err)
		}
	}
	return Migrate(ctx, db)
}
