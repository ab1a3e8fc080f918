package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database with the pragmas applied to every pooled connection.
// Transactions take the write lock when they begin, so concurrent writers queue on
// busy_timeout instead of failing on lock upgrade.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if dbPath == ":memory:" {
		// each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	return db, nil
}

func dsn(dbPath string) string {
	params := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_txlock=immediate",
		"_time_format=sqlite",
	}
	if dbPath != ":memory:" {
		params = append(params, "_pragma=journal_mode(WAL)")
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return "file:" + dbPath + sep + strings.Join(params, "&")
}
