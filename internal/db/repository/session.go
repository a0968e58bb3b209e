package repository

import (
	"context"
	"database/sql"

	"fabric-bridge/internal/domain"
)

// Compile-time check.
var _ domain.SessionRepository = (*SessionRepo)(nil)

// SessionRepo implements SessionRepository using SQLite.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo creates a new SessionRepo.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

const sessionColumns = "id, name, description, factory_name, created_by, created_at, updated_at"

// CreateSession inserts a new migration session.
func (r *SessionRepo) CreateSession(ctx context.Context, s *domain.MigrationSession) (*domain.MigrationSession, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO migration_sessions (id, name, description, factory_name, created_by)
		 VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Description, s.FactoryName, s.CreatedBy)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetSessionByID(ctx, s.ID)
}

// GetSessionByID returns a session by its ID.
func (r *SessionRepo) GetSessionByID(ctx context.Context, id string) (*domain.MigrationSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM migration_sessions WHERE id = ?`, id)
	return scanSession(row)
}

// GetSessionByName returns a session by its name.
func (r *SessionRepo) GetSessionByName(ctx context.Context, name string) (*domain.MigrationSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM migration_sessions WHERE name = ?`, name)
	return scanSession(row)
}

// ListSessions returns a paginated list of sessions, newest first.
func (r *SessionRepo) ListSessions(ctx context.Context, page domain.PageRequest) ([]domain.MigrationSession, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM migration_sessions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM migration_sessions
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close() //nolint:errcheck

	sessions := make([]domain.MigrationSession, 0, page.Limit())
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, total, rows.Err()
}

// TouchSession bumps the session's updated_at timestamp.
func (r *SessionRepo) TouchSession(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE migration_sessions SET updated_at = datetime('now') WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("session %s not found", id)
	}
	return nil
}

// DeleteSession removes a session and, via cascade, its references and mappings.
func (r *SessionRepo) DeleteSession(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM migration_sessions WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("session %s not found", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*domain.MigrationSession, error) {
	var s domain.MigrationSession
	var createdAt, updatedAt string
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.FactoryName, &s.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	s.CreatedAt = parseTime(createdAt, "migration_sessions.created_at")
	s.UpdatedAt = parseTime(updatedAt, "migration_sessions.updated_at")
	return &s, nil
}
