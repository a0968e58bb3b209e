// Package service orchestrates migration sessions: scanning exports,
// recording mappings, planning skips, and summarizing progress.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"fabric-bridge/internal/adf"
	"fabric-bridge/internal/decision"
	"fabric-bridge/internal/domain"
	"fabric-bridge/internal/mapping"
)

// SessionService provides business logic for migration sessions.
type SessionService struct {
	sessions    domain.SessionRepository
	references  domain.ReferenceRepository
	mappings    domain.MappingRepository
	audit       domain.AuditRepository
	connections domain.ConnectionProvider
	decisions   *decision.Engine
	policy      mapping.AutoApplyPolicy
	logger      *slog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	sessions domain.SessionRepository,
	references domain.ReferenceRepository,
	mappings domain.MappingRepository,
	audit domain.AuditRepository,
	connections domain.ConnectionProvider,
	decisions *decision.Engine,
	policy mapping.AutoApplyPolicy,
	logger *slog.Logger,
) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		sessions:    sessions,
		references:  references,
		mappings:    mappings,
		audit:       audit,
		connections: connections,
		decisions:   decisions,
		policy:      policy,
		logger:      logger,
	}
}

// === Session CRUD ===

// CreateSession creates a new migration session.
func (s *SessionService) CreateSession(ctx context.Context, principal string, req domain.CreateSessionRequest) (*domain.MigrationSession, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	session := &domain.MigrationSession{
		ID:          domain.NewID(),
		Name:        req.Name,
		Description: req.Description,
		FactoryName: req.FactoryName,
		CreatedBy:   principal,
	}
	result, err := s.sessions.CreateSession(ctx, session)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, result.ID, principal, "session.create", nil)
	return result, nil
}

// GetSession returns a session by ID.
func (s *SessionService) GetSession(ctx context.Context, id string) (*domain.MigrationSession, error) {
	return s.sessions.GetSessionByID(ctx, id)
}

// GetSessionByName returns a session by name.
func (s *SessionService) GetSessionByName(ctx context.Context, name string) (*domain.MigrationSession, error) {
	return s.sessions.GetSessionByName(ctx, name)
}

// ListSessions returns a page of sessions.
func (s *SessionService) ListSessions(ctx context.Context, page domain.PageRequest) ([]domain.MigrationSession, int64, error) {
	return s.sessions.ListSessions(ctx, page)
}

// DeleteSession removes a session and its state.
func (s *SessionService) DeleteSession(ctx context.Context, principal, id string) error {
	if err := s.sessions.DeleteSession(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, id, principal, "session.delete", nil)
	return nil
}

// === Scanning ===

// ScanResult reports what one export scan produced.
type ScanResult struct {
	Pipelines       int
	References      int
	OrphanedMarked  int64
	PipelineResults map[string]int // references per pipeline
}

// ScanExport extracts references from every pipeline in the export and
// upserts them into the session. References that vanished from a previously
// scanned pipeline are marked orphaned, as are all references of pipelines
// absent from the export entirely; their mappings are kept.
func (s *SessionService) ScanExport(ctx context.Context, principal, sessionID string, export *adf.FactoryExport) (*ScanResult, error) {
	if _, err := s.sessions.GetSessionByID(ctx, sessionID); err != nil {
		return nil, err
	}

	extractor := adf.NewExtractor(adf.NewDatasetIndex(export.Datasets), s.logger.With("component", "extractor"))
	lsTypes := export.LinkedServiceTypes()

	result := &ScanResult{PipelineResults: make(map[string]int, len(export.Pipelines))}
	for _, doc := range export.Pipelines {
		refs := extractor.ExtractReferences(doc)
		for i := range refs {
			refs[i].LinkedServiceType = lsTypes[refs[i].LinkedServiceName]
		}

		if err := s.references.UpsertReferences(ctx, sessionID, refs); err != nil {
			return nil, fmt.Errorf("upsert references for pipeline %q: %w", doc.Name, err)
		}

		liveIDs := make([]string, len(refs))
		for i, ref := range refs {
			liveIDs[i] = ref.ID()
		}
		orphaned, err := s.references.MarkOrphaned(ctx, sessionID, doc.Name, liveIDs)
		if err != nil {
			return nil, fmt.Errorf("mark orphaned for pipeline %q: %w", doc.Name, err)
		}

		result.Pipelines++
		result.References += len(refs)
		result.OrphanedMarked += orphaned
		result.PipelineResults[doc.Name] = len(refs)
	}

	// Pipelines that disappeared from the export have no scan iteration of
	// their own, so orphan their remaining references here.
	stored, err := s.references.ListReferences(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	handled := make(map[string]bool, len(result.PipelineResults))
	for name := range result.PipelineResults {
		handled[name] = true
	}
	for _, ref := range stored {
		if handled[ref.PipelineName] {
			continue
		}
		handled[ref.PipelineName] = true
		orphaned, err := s.references.MarkOrphaned(ctx, sessionID, ref.PipelineName, nil)
		if err != nil {
			return nil, fmt.Errorf("mark orphaned for pipeline %q: %w", ref.PipelineName, err)
		}
		result.OrphanedMarked += orphaned
	}

	_ = s.sessions.TouchSession(ctx, sessionID)
	detail := fmt.Sprintf("pipelines=%d references=%d", result.Pipelines, result.References)
	s.recordAudit(ctx, sessionID, principal, "session.scan", &detail)
	return result, nil
}

// === Mapping ===

// SetMapping records a user's explicit connection selection for a reference,
// enforcing the pipeline-connection filter, and optionally auto-applies the
// selection to unmapped references sharing the linked-service name.
func (s *SessionService) SetMapping(ctx context.Context, principal, sessionID, referenceID, connectionID string, autoApply bool) error {
	ref, err := s.findReference(ctx, sessionID, referenceID)
	if err != nil {
		return err
	}

	conn, err := s.findConnection(ctx, connectionID)
	if err != nil {
		return err
	}
	if err := mapping.ValidateTarget(ref.ActivityReference, *conn); err != nil {
		return err
	}

	err = s.mappings.SetMapping(ctx, &domain.ConnectionMapping{
		SessionID:            sessionID,
		ReferenceID:          referenceID,
		SelectedConnectionID: connectionID,
		Origin:               domain.MappingOriginManual,
		LinkedServiceName:    ref.LinkedServiceName,
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, sessionID, principal, "mapping.set", &referenceID)

	if autoApply {
		if err := s.autoApply(ctx, sessionID, ref.ActivityReference, connectionID); err != nil {
			// Auto-apply is best effort; the explicit mapping already stuck.
			s.logger.Warn("auto-apply failed", "session", sessionID, "reference", referenceID, "error", err)
		}
	}
	return nil
}

// autoApply copies the chosen connection to unmapped references sharing the
// linked-service name, flagged as inferred so the UI can distinguish them.
func (s *SessionService) autoApply(ctx context.Context, sessionID string, source domain.ActivityReference, connectionID string) error {
	stored, err := s.references.ListReferences(ctx, sessionID)
	if err != nil {
		return err
	}
	mappings, err := s.mappingIndex(ctx, sessionID)
	if err != nil {
		return err
	}

	refs := make([]domain.ActivityReference, 0, len(stored))
	for _, r := range stored {
		if !r.Orphaned {
			refs = append(refs, r.ActivityReference)
		}
	}

	for _, candidate := range mapping.AutoApplyCandidates(s.policy, source, refs, mappings) {
		err := s.mappings.SetMapping(ctx, &domain.ConnectionMapping{
			SessionID:            sessionID,
			ReferenceID:          candidate.ID(),
			SelectedConnectionID: connectionID,
			Origin:               domain.MappingOriginAuto,
			LinkedServiceName:    candidate.LinkedServiceName,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ClearMapping removes the selection for one reference.
func (s *SessionService) ClearMapping(ctx context.Context, principal, sessionID, referenceID string) error {
	if err := s.mappings.ClearMapping(ctx, sessionID, referenceID); err != nil {
		return err
	}
	s.recordAudit(ctx, sessionID, principal, "mapping.clear", &referenceID)
	return nil
}

// ListConnectionTargets returns the connections a reference may legally be
// mapped to: pipeline connections for invoke-pipeline references, data-source
// connections for everything else.
func (s *SessionService) ListConnectionTargets(ctx context.Context, sessionID, referenceID string) ([]domain.FabricConnection, error) {
	ref, err := s.findReference(ctx, sessionID, referenceID)
	if err != nil {
		return nil, err
	}
	conns, err := s.connections.ListConnections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	out := make([]domain.FabricConnection, 0, len(conns))
	for _, c := range conns {
		if c.IsPipelineConnection() == ref.RequiresPipelineConnection() {
			out = append(out, c)
		}
	}
	return out, nil
}

// === Summaries & planning ===

// PipelineSummary computes mapping progress for one pipeline. Orphaned
// references do not count toward completion.
func (s *SessionService) PipelineSummary(ctx context.Context, sessionID, pipelineName string) (*domain.PipelineMappingSummary, error) {
	stored, err := s.references.ListReferencesByPipeline(ctx, sessionID, pipelineName)
	if err != nil {
		return nil, err
	}
	mappings, err := s.mappingIndex(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	summary := mapping.Summarize(pipelineName, liveRefs(stored), mappings)
	return &summary, nil
}

// Summary computes the session-wide rollup across all scanned pipelines.
func (s *SessionService) Summary(ctx context.Context, sessionID string) (*domain.SessionSummary, error) {
	if _, err := s.sessions.GetSessionByID(ctx, sessionID); err != nil {
		return nil, err
	}
	stored, err := s.references.ListReferences(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	mappings, err := s.mappingIndex(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	byPipeline := map[string][]domain.ActivityReference{}
	for _, ref := range stored {
		if ref.Orphaned {
			continue
		}
		byPipeline[ref.PipelineName] = append(byPipeline[ref.PipelineName], ref.ActivityReference)
	}

	names := make([]string, 0, len(byPipeline))
	for name := range byPipeline {
		names = append(names, name)
	}
	sort.Strings(names)

	summaries := make([]domain.PipelineMappingSummary, 0, len(names))
	for _, name := range names {
		summaries = append(summaries, mapping.Summarize(name, byPipeline[name], mappings))
	}

	summary := mapping.SummarizeSession(sessionID, summaries)
	return &summary, nil
}

// PlanSkips makes skip decisions for every distinct connector type referenced
// in the session, sharing one supported-types snapshot across the batch.
func (s *SessionService) PlanSkips(ctx context.Context, sessionID string) (map[string]domain.SkipDecision, error) {
	stored, err := s.references.ListReferences(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var types []string
	for _, ref := range stored {
		if ref.Orphaned || ref.LinkedServiceType == "" || seen[ref.LinkedServiceType] {
			continue
		}
		seen[ref.LinkedServiceType] = true
		types = append(types, ref.LinkedServiceType)
	}
	sort.Strings(types)

	return s.decisions.DecideBatch(ctx, types), nil
}

// ListReferences returns a session's stored references.
func (s *SessionService) ListReferences(ctx context.Context, sessionID string) ([]domain.StoredReference, error) {
	return s.references.ListReferences(ctx, sessionID)
}

// ListMappings returns a session's mappings.
func (s *SessionService) ListMappings(ctx context.Context, sessionID string) ([]domain.ConnectionMapping, error) {
	return s.mappings.ListMappings(ctx, sessionID)
}

// === Helpers ===

func (s *SessionService) findReference(ctx context.Context, sessionID, referenceID string) (*domain.StoredReference, error) {
	stored, err := s.references.ListReferences(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for i := range stored {
		if stored[i].ID() == referenceID {
			return &stored[i], nil
		}
	}
	return nil, domain.ErrNotFound("reference %s not found in session %s", referenceID, sessionID)
}

func (s *SessionService) findConnection(ctx context.Context, connectionID string) (*domain.FabricConnection, error) {
	conns, err := s.connections.ListConnections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	for i := range conns {
		if conns[i].ID == connectionID {
			return &conns[i], nil
		}
	}
	return nil, domain.ErrNotFound("connection %s not found", connectionID)
}

func (s *SessionService) mappingIndex(ctx context.Context, sessionID string) (map[string]domain.ConnectionMapping, error) {
	list, err := s.mappings.ListMappings(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]domain.ConnectionMapping, len(list))
	for _, m := range list {
		idx[m.ReferenceID] = m
	}
	return idx, nil
}

func liveRefs(stored []domain.StoredReference) []domain.ActivityReference {
	refs := make([]domain.ActivityReference, 0, len(stored))
	for _, r := range stored {
		if !r.Orphaned {
			refs = append(refs, r.ActivityReference)
		}
	}
	return refs
}

func (s *SessionService) recordAudit(ctx context.Context, sessionID, principal, action string, detail *string) {
	err := s.audit.Insert(ctx, &domain.AuditEntry{
		ID:            domain.NewID(),
		SessionID:     sessionID,
		PrincipalName: principal,
		Action:        action,
		Detail:        detail,
		Status:        "success",
		CreatedAt:     time.Now(),
	})
	if err != nil {
		s.logger.Warn("audit insert failed", "action", action, "error", err)
	}
}
