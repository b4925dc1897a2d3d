package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedded embed.FS

const migrationsDir = "migrations"

// Up applies every embedded migration for the given goose dialect ("sqlite3" or "postgres").
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	return Run(ctx, db, dialect, "up")
}

// Run executes a goose command against the embedded migrations.
func Run(ctx context.Context, db *sql.DB, dialect, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if dialect == "" {
		return fmt.Errorf("dialect is required")
	}

	goose.SetBaseFS(embedded)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, migrationsDir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Version returns the current schema version.
func Version(db *sql.DB, dialect string) (int64, error) {
	goose.SetBaseFS(embedded)
	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.GetDBVersion(db)
}
