package repository

import (
	"context"
	"database/sql"

	"fabric-bridge/internal/domain"
)

// Compile-time check.
var _ domain.MappingRepository = (*MappingRepo)(nil)

// MappingRepo implements MappingRepository using SQLite.
type MappingRepo struct {
	db *sql.DB
}

// NewMappingRepo creates a new MappingRepo.
func NewMappingRepo(db *sql.DB) *MappingRepo {
	return &MappingRepo{db: db}
}

// SetMapping inserts or overwrites the mapping for one reference.
func (r *MappingRepo) SetMapping(ctx context.Context, m *domain.ConnectionMapping) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO connection_mappings
		   (session_id, ref_id, selected_connection_id, origin, linked_service_name, updated_at)
		 VALUES (?, ?, ?, ?, ?, datetime('now'))
		 ON CONFLICT(session_id, ref_id) DO UPDATE SET
		   selected_connection_id = excluded.selected_connection_id,
		   origin = excluded.origin,
		   linked_service_name = excluded.linked_service_name,
		   updated_at = datetime('now')`,
		m.SessionID, m.ReferenceID, m.SelectedConnectionID, m.Origin, m.LinkedServiceName)
	return mapDBError(err)
}

// GetMapping returns the mapping for one reference.
func (r *MappingRepo) GetMapping(ctx context.Context, sessionID, referenceID string) (*domain.ConnectionMapping, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT session_id, ref_id, selected_connection_id, origin, linked_service_name, updated_at
		 FROM connection_mappings WHERE session_id = ? AND ref_id = ?`, sessionID, referenceID)

	var m domain.ConnectionMapping
	var updatedAt string
	err := row.Scan(&m.SessionID, &m.ReferenceID, &m.SelectedConnectionID, &m.Origin, &m.LinkedServiceName, &updatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	m.UpdatedAt = parseTime(updatedAt, "connection_mappings.updated_at")
	return &m, nil
}

// ListMappings returns all mappings of a session.
func (r *MappingRepo) ListMappings(ctx context.Context, sessionID string) ([]domain.ConnectionMapping, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT session_id, ref_id, selected_connection_id, origin, linked_service_name, updated_at
		 FROM connection_mappings WHERE session_id = ? ORDER BY ref_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var mappings []domain.ConnectionMapping
	for rows.Next() {
		var m domain.ConnectionMapping
		var updatedAt string
		err := rows.Scan(&m.SessionID, &m.ReferenceID, &m.SelectedConnectionID, &m.Origin, &m.LinkedServiceName, &updatedAt)
		if err != nil {
			return nil, err
		}
		m.UpdatedAt = parseTime(updatedAt, "connection_mappings.updated_at")
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// ClearMapping removes the mapping for one reference.
func (r *MappingRepo) ClearMapping(ctx context.Context, sessionID, referenceID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM connection_mappings WHERE session_id = ? AND ref_id = ?`, sessionID, referenceID)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("mapping for reference %s not found", referenceID)
	}
	return nil
}
