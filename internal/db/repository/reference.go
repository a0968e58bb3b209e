package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"fabric-bridge/internal/domain"
)

// Compile-time check.
var _ domain.ReferenceRepository = (*ReferenceRepo)(nil)

// ReferenceRepo implements ReferenceRepository using SQLite.
type ReferenceRepo struct {
	db *sql.DB
}

// NewReferenceRepo creates a new ReferenceRepo.
func NewReferenceRepo(db *sql.DB) *ReferenceRepo {
	return &ReferenceRepo{db: db}
}

// UpsertReferences inserts or refreshes references keyed by their stable
// composite id, clearing the orphaned flag on anything seen again. Runs in a
// single transaction so a rescan is all-or-nothing per call.
func (r *ReferenceRepo) UpsertReferences(ctx context.Context, sessionID string, refs []domain.ActivityReference) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO activity_references
		   (session_id, ref_id, pipeline_name, activity_name, activity_type, location,
		    ref_index, linked_service_name, linked_service_type, dataset_name, target_pipeline_name, is_nested, nesting_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id, ref_id) DO UPDATE SET
		   activity_type = excluded.activity_type,
		   linked_service_name = excluded.linked_service_name,
		   linked_service_type = excluded.linked_service_type,
		   dataset_name = excluded.dataset_name,
		   target_pipeline_name = excluded.target_pipeline_name,
		   is_nested = excluded.is_nested,
		   nesting_path = excluded.nesting_path,
		   orphaned = 0`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	for _, ref := range refs {
		_, err := stmt.ExecContext(ctx,
			sessionID, ref.ID(), ref.PipelineName, ref.ActivityName, ref.ActivityType, ref.Location,
			ref.Index, ref.LinkedServiceName, ref.LinkedServiceType, ref.DatasetName, ref.TargetPipelineName,
			boolToInt(ref.IsNested), ref.NestingPath)
		if err != nil {
			return mapDBError(err)
		}
	}
	return tx.Commit()
}

const referenceColumns = `session_id, ref_id, pipeline_name, activity_name, activity_type, location,
	ref_index, linked_service_name, linked_service_type, dataset_name, target_pipeline_name, is_nested, nesting_path, orphaned`

// ListReferences returns all references of a session in extraction order.
func (r *ReferenceRepo) ListReferences(ctx context.Context, sessionID string) ([]domain.StoredReference, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+referenceColumns+` FROM activity_references
		 WHERE session_id = ?
		 ORDER BY pipeline_name, activity_name, location, ref_index`, sessionID)
	if err != nil {
		return nil, err
	}
	return scanReferences(rows)
}

// ListReferencesByPipeline returns one pipeline's references.
func (r *ReferenceRepo) ListReferencesByPipeline(ctx context.Context, sessionID, pipelineName string) ([]domain.StoredReference, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+referenceColumns+` FROM activity_references
		 WHERE session_id = ? AND pipeline_name = ?
		 ORDER BY activity_name, location, ref_index`, sessionID, pipelineName)
	if err != nil {
		return nil, err
	}
	return scanReferences(rows)
}

// MarkOrphaned flags a pipeline's references that are absent from liveIDs.
// Mappings are intentionally untouched so re-adding the pipeline restores
// prior work.
func (r *ReferenceRepo) MarkOrphaned(ctx context.Context, sessionID, pipelineName string, liveIDs []string) (int64, error) {
	query := `UPDATE activity_references SET orphaned = 1
		 WHERE session_id = ? AND pipeline_name = ? AND orphaned = 0`
	args := []interface{}{sessionID, pipelineName}
	if len(liveIDs) > 0 {
		query += ` AND ref_id NOT IN (?` + strings.Repeat(", ?", len(liveIDs)-1) + `)`
		for _, id := range liveIDs {
			args = append(args, id)
		}
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapDBError(err)
	}
	return res.RowsAffected()
}

func scanReferences(rows *sql.Rows) ([]domain.StoredReference, error) {
	defer rows.Close() //nolint:errcheck

	var refs []domain.StoredReference
	for rows.Next() {
		var ref domain.StoredReference
		var refID string
		var isNested, orphaned int64
		err := rows.Scan(&ref.SessionID, &refID, &ref.PipelineName, &ref.ActivityName,
			&ref.ActivityType, &ref.Location, &ref.Index, &ref.LinkedServiceName, &ref.LinkedServiceType,
			&ref.DatasetName, &ref.TargetPipelineName, &isNested, &ref.NestingPath, &orphaned)
		if err != nil {
			return nil, err
		}
		ref.IsNested = isNested != 0
		ref.Orphaned = orphaned != 0
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
