package repository

import (
	"context"
	"database/sql"

	"fabric-bridge/internal/domain"
)

// Compile-time check.
var _ domain.AuditRepository = (*AuditRepo)(nil)

// AuditRepo implements AuditRepository using SQLite.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Insert records one audit entry.
func (r *AuditRepo) Insert(ctx context.Context, entry *domain.AuditEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, session_id, principal_name, action, detail, status, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.SessionID, entry.PrincipalName, entry.Action,
		nullStringPtr(entry.Detail), entry.Status, nullStringPtr(entry.ErrorMessage))
	return mapDBError(err)
}

// ListBySession returns a session's audit entries, newest first.
func (r *AuditRepo) ListBySession(ctx context.Context, sessionID string, page domain.PageRequest) ([]domain.AuditEntry, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_log WHERE session_id = ?`, sessionID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, principal_name, action, detail, status, error_message, created_at
		 FROM audit_log WHERE session_id = ?
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		sessionID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close() //nolint:errcheck

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var detail, errMsg sql.NullString
		var createdAt string
		err := rows.Scan(&e.ID, &e.SessionID, &e.PrincipalName, &e.Action, &detail, &e.Status, &errMsg, &createdAt)
		if err != nil {
			return nil, 0, err
		}
		e.Detail = ptrFromNull(detail)
		e.ErrorMessage = ptrFromNull(errMsg)
		e.CreatedAt = parseTime(createdAt, "audit_log.created_at")
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
