// Package repository implements domain repository interfaces using SQLite.
package repository

import (
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"fabric-bridge/internal/domain"
)

const sqliteTimeLayout = "2006-01-02 15:04:05"

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Message: "resource not found"}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return &domain.ConflictError{Message: "resource already exists"}
	}
	return err
}

func parseTime(value, field string) time.Time {
	t, err := time.Parse(sqliteTimeLayout, value)
	if err != nil {
		slog.Default().Warn("failed to parse stored timestamp", "field", field, "value", value, "error", err)
	}
	return t
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func ptrFromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
