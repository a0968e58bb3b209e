package domain

import "context"

// SessionRepository persists migration sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, s *MigrationSession) (*MigrationSession, error)
	GetSessionByID(ctx context.Context, id string) (*MigrationSession, error)
	GetSessionByName(ctx context.Context, name string) (*MigrationSession, error)
	ListSessions(ctx context.Context, page PageRequest) ([]MigrationSession, int64, error)
	TouchSession(ctx context.Context, id string) error
	DeleteSession(ctx context.Context, id string) error
}

// ReferenceRepository persists extracted activity references per session.
type ReferenceRepository interface {
	// UpsertReferences inserts or refreshes references keyed by their stable
	// composite id. Existing rows are updated in place so mappings survive.
	UpsertReferences(ctx context.Context, sessionID string, refs []ActivityReference) error
	ListReferences(ctx context.Context, sessionID string) ([]StoredReference, error)
	ListReferencesByPipeline(ctx context.Context, sessionID, pipelineName string) ([]StoredReference, error)
	// MarkOrphaned flags references of a pipeline that are absent from liveIDs.
	// Their mappings are intentionally kept. Returns the number of rows flagged.
	MarkOrphaned(ctx context.Context, sessionID, pipelineName string, liveIDs []string) (int64, error)
}

// MappingRepository persists connection selections per session.
type MappingRepository interface {
	SetMapping(ctx context.Context, m *ConnectionMapping) error
	GetMapping(ctx context.Context, sessionID, referenceID string) (*ConnectionMapping, error)
	ListMappings(ctx context.Context, sessionID string) ([]ConnectionMapping, error)
	ClearMapping(ctx context.Context, sessionID, referenceID string) error
}

// AuditRepository records session actions.
type AuditRepository interface {
	Insert(ctx context.Context, entry *AuditEntry) error
	ListBySession(ctx context.Context, sessionID string, page PageRequest) ([]AuditEntry, int64, error)
}

// ConnectorMetadataAPI is the upstream source of the Fabric-supported
// connector type list. Implemented by fabric.Client.
type ConnectorMetadataAPI interface {
	ListSupportedConnectorTypes(ctx context.Context) ([]string, error)
}

// ConnectionProvider lists Fabric connections offered as mapping targets.
// Implemented by fabric.Client.
type ConnectionProvider interface {
	ListConnections(ctx context.Context) ([]FabricConnection, error)
}

// SupportedTypesSource answers support questions from a cached snapshot.
// Implemented by registry.Registry.
type SupportedTypesSource interface {
	VerificationAvailable() bool
	SupportedTypes(ctx context.Context) SupportedTypesSnapshot
	IsSupported(fabricType string) bool
}
