package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

const sqliteDialect = "sqlite3"

// Up runs all pending SQL migrations found in migrationsDir and returns the resulting schema version.
func Up(ctx context.Context, db *sql.DB, migrationsDir string) (int64, error) {
	if err := goose.SetDialect(sqliteDialect); err != nil {
		return 0, fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return 0, fmt.Errorf("run goose up migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}
