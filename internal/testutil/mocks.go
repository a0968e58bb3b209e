// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"fabric-bridge/internal/domain"
)

// === Session Repository Mock ===

// MockSessionRepo implements domain.SessionRepository in memory.
type MockSessionRepo struct {
	CreateSessionFn func(ctx context.Context, s *domain.MigrationSession) (*domain.MigrationSession, error)
	Sessions        map[string]*domain.MigrationSession
}

func NewMockSessionRepo() *MockSessionRepo {
	return &MockSessionRepo{Sessions: map[string]*domain.MigrationSession{}}
}

func (m *MockSessionRepo) CreateSession(ctx context.Context, s *domain.MigrationSession) (*domain.MigrationSession, error) {
	if m.CreateSessionFn != nil {
		return m.CreateSessionFn(ctx, s)
	}
	for _, existing := range m.Sessions {
		if existing.Name == s.Name {
			return nil, domain.ErrConflict("session %q already exists", s.Name)
		}
	}
	m.Sessions[s.ID] = s
	return s, nil
}

func (m *MockSessionRepo) GetSessionByID(_ context.Context, id string) (*domain.MigrationSession, error) {
	if s, ok := m.Sessions[id]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound("session %s not found", id)
}

func (m *MockSessionRepo) GetSessionByName(_ context.Context, name string) (*domain.MigrationSession, error) {
	for _, s := range m.Sessions {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, domain.ErrNotFound("session %q not found", name)
}

func (m *MockSessionRepo) ListSessions(_ context.Context, page domain.PageRequest) ([]domain.MigrationSession, int64, error) {
	all := make([]domain.MigrationSession, 0, len(m.Sessions))
	for _, s := range m.Sessions {
		all = append(all, *s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	total := int64(len(all))
	offset, limit := page.Offset(), page.Limit()
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *MockSessionRepo) TouchSession(_ context.Context, id string) error {
	if s, ok := m.Sessions[id]; ok {
		s.UpdatedAt = time.Now().UTC()
		return nil
	}
	return domain.ErrNotFound("session %s not found", id)
}

func (m *MockSessionRepo) DeleteSession(_ context.Context, id string) error {
	if _, ok := m.Sessions[id]; !ok {
		return domain.ErrNotFound("session %s not found", id)
	}
	delete(m.Sessions, id)
	return nil
}

var _ domain.SessionRepository = (*MockSessionRepo)(nil)

// === Reference Repository Mock ===

// MockReferenceRepo implements domain.ReferenceRepository in memory, keyed by
// (sessionID, reference id).
type MockReferenceRepo struct {
	UpsertFn func(ctx context.Context, sessionID string, refs []domain.ActivityReference) error
	Stored   map[string]map[string]*domain.StoredReference
}

func NewMockReferenceRepo() *MockReferenceRepo {
	return &MockReferenceRepo{Stored: map[string]map[string]*domain.StoredReference{}}
}

func (m *MockReferenceRepo) UpsertReferences(ctx context.Context, sessionID string, refs []domain.ActivityReference) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, sessionID, refs)
	}
	if m.Stored[sessionID] == nil {
		m.Stored[sessionID] = map[string]*domain.StoredReference{}
	}
	for _, ref := range refs {
		m.Stored[sessionID][ref.ID()] = &domain.StoredReference{
			ActivityReference: ref,
			SessionID:         sessionID,
			Orphaned:          false,
		}
	}
	return nil
}

func (m *MockReferenceRepo) ListReferences(_ context.Context, sessionID string) ([]domain.StoredReference, error) {
	out := make([]domain.StoredReference, 0, len(m.Stored[sessionID]))
	for _, ref := range m.Stored[sessionID] {
		out = append(out, *ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (m *MockReferenceRepo) ListReferencesByPipeline(_ context.Context, sessionID, pipelineName string) ([]domain.StoredReference, error) {
	var out []domain.StoredReference
	for _, ref := range m.Stored[sessionID] {
		if ref.PipelineName == pipelineName {
			out = append(out, *ref)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (m *MockReferenceRepo) MarkOrphaned(_ context.Context, sessionID, pipelineName string, liveIDs []string) (int64, error) {
	live := map[string]bool{}
	for _, id := range liveIDs {
		live[id] = true
	}
	var n int64
	for id, ref := range m.Stored[sessionID] {
		if ref.PipelineName == pipelineName && !live[id] && !ref.Orphaned {
			ref.Orphaned = true
			n++
		}
	}
	return n, nil
}

var _ domain.ReferenceRepository = (*MockReferenceRepo)(nil)

// === Mapping Repository Mock ===

// MockMappingRepo implements domain.MappingRepository in memory.
type MockMappingRepo struct {
	SetMappingFn func(ctx context.Context, m *domain.ConnectionMapping) error
	Mappings     map[string]map[string]*domain.ConnectionMapping
}

func NewMockMappingRepo() *MockMappingRepo {
	return &MockMappingRepo{Mappings: map[string]map[string]*domain.ConnectionMapping{}}
}

func (m *MockMappingRepo) SetMapping(ctx context.Context, mapping *domain.ConnectionMapping) error {
	if m.SetMappingFn != nil {
		return m.SetMappingFn(ctx, mapping)
	}
	if m.Mappings[mapping.SessionID] == nil {
		m.Mappings[mapping.SessionID] = map[string]*domain.ConnectionMapping{}
	}
	cp := *mapping
	m.Mappings[mapping.SessionID][mapping.ReferenceID] = &cp
	return nil
}

func (m *MockMappingRepo) GetMapping(_ context.Context, sessionID, referenceID string) (*domain.ConnectionMapping, error) {
	if mp, ok := m.Mappings[sessionID][referenceID]; ok {
		cp := *mp
		return &cp, nil
	}
	return nil, domain.ErrNotFound("mapping for %s not found", referenceID)
}

func (m *MockMappingRepo) ListMappings(_ context.Context, sessionID string) ([]domain.ConnectionMapping, error) {
	out := make([]domain.ConnectionMapping, 0, len(m.Mappings[sessionID]))
	for _, mp := range m.Mappings[sessionID] {
		out = append(out, *mp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReferenceID < out[j].ReferenceID })
	return out, nil
}

func (m *MockMappingRepo) ClearMapping(_ context.Context, sessionID, referenceID string) error {
	if _, ok := m.Mappings[sessionID][referenceID]; !ok {
		return domain.ErrNotFound("mapping for %s not found", referenceID)
	}
	delete(m.Mappings[sessionID], referenceID)
	return nil
}

var _ domain.MappingRepository = (*MockMappingRepo)(nil)

// === Audit Repository Mock ===

// MockAuditRepo implements domain.AuditRepository for testing.
type MockAuditRepo struct {
	InsertFn func(ctx context.Context, e *domain.AuditEntry) error
	Entries  []*domain.AuditEntry // collected entries for assertions
}

func (m *MockAuditRepo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, e); err != nil {
			return err
		}
	}
	m.Entries = append(m.Entries, e)
	return nil
}

func (m *MockAuditRepo) ListBySession(_ context.Context, sessionID string, page domain.PageRequest) ([]domain.AuditEntry, int64, error) {
	var all []domain.AuditEntry
	for _, e := range m.Entries {
		if e.SessionID == sessionID {
			all = append(all, *e)
		}
	}
	total := int64(len(all))
	offset, limit := page.Offset(), page.Limit()
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// LastEntry returns the last collected audit entry, or nil if none.
func (m *MockAuditRepo) LastEntry() *domain.AuditEntry {
	if len(m.Entries) == 0 {
		return nil
	}
	return m.Entries[len(m.Entries)-1]
}

// HasAction returns true if any collected entry has the given action.
func (m *MockAuditRepo) HasAction(action string) bool {
	for _, e := range m.Entries {
		if e.Action == action {
			return true
		}
	}
	return false
}

var _ domain.AuditRepository = (*MockAuditRepo)(nil)

// === Fabric API Mocks ===

// MockMetadataAPI implements domain.ConnectorMetadataAPI. It is safe for
// concurrent use so tests can exercise de-duplicated fetches.
type MockMetadataAPI struct {
	Types []string
	Err   error

	mu    sync.Mutex
	calls int
	Delay time.Duration // optional per-call delay
}

func (m *MockMetadataAPI) ListSupportedConnectorTypes(_ context.Context) ([]string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Types, nil
}

// CallCount returns how many times the upstream was called.
func (m *MockMetadataAPI) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ domain.ConnectorMetadataAPI = (*MockMetadataAPI)(nil)

// MockConnectionProvider implements domain.ConnectionProvider.
type MockConnectionProvider struct {
	Connections []domain.FabricConnection
	Err         error
}

func (m *MockConnectionProvider) ListConnections(_ context.Context) ([]domain.FabricConnection, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Connections, nil
}

var _ domain.ConnectionProvider = (*MockConnectionProvider)(nil)

// === Supported Types Source Mock ===

// MockTypesSource implements domain.SupportedTypesSource with a fixed snapshot.
type MockTypesSource struct {
	Snapshot domain.SupportedTypesSnapshot
}

func (m *MockTypesSource) VerificationAvailable() bool {
	return m.Snapshot.Status == domain.VerificationAvailable
}

func (m *MockTypesSource) SupportedTypes(_ context.Context) domain.SupportedTypesSnapshot {
	return m.Snapshot
}

func (m *MockTypesSource) IsSupported(fabricType string) bool {
	return m.Snapshot.Contains(fabricType)
}

var _ domain.SupportedTypesSource = (*MockTypesSource)(nil)

// AvailableTypes returns a MockTypesSource with an available snapshot.
func AvailableTypes(types ...string) *MockTypesSource {
	return &MockTypesSource{Snapshot: domain.SupportedTypesSnapshot{
		Status:    domain.VerificationAvailable,
		Types:     types,
		FetchedAt: time.Now().UTC(),
	}}
}

// UnavailableTypes returns a MockTypesSource whose fetch failed.
func UnavailableTypes() *MockTypesSource {
	return &MockTypesSource{Snapshot: domain.SupportedTypesSnapshot{
		Status: domain.VerificationUnavailable,
		Types:  []string{},
	}}
}
