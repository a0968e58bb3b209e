// Package db owns the SQLite session store: migrations and connection setup.
package db

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

// Open opens the SQLite session store with foreign keys enabled.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return conn, nil
}

// RunMigrations executes all pending goose migrations against the session store.
func RunMigrations(conn *sql.DB) error {
	goose.SetBaseFS(EmbedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}

	if err := goose.Up(conn, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}
