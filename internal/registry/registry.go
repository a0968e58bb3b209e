// Package registry caches the Fabric-supported connector type list for a
// migration session and exposes its verification status.
package registry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"fabric-bridge/internal/domain"
)

// Registry is the session-scoped supported-types cache. The snapshot is
// written once per successful fetch and read by many; concurrent callers that
// trigger a refresh share one in-flight fetch.
type Registry struct {
	api    domain.ConnectorMetadataAPI
	logger *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	snap  *domain.SupportedTypesSnapshot
}

var _ domain.SupportedTypesSource = (*Registry)(nil)

// New creates a Registry over the given metadata API.
func New(api domain.ConnectorMetadataAPI, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{api: api, logger: logger}
}

// VerificationAvailable reports whether a successful fetch has completed and
// been cached. It is false before the first successful fetch and after a
// failed one.
func (r *Registry) VerificationAvailable() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap != nil && r.snap.Status == domain.VerificationAvailable
}

// SupportedTypes returns the cached snapshot, triggering a single de-duplicated
// refresh when none is cached yet. A fetch failure is recorded as an
// unavailable snapshot, never returned as an error: it is a reportable,
// non-fatal condition that the skip-decision engine turns into non-skip.
func (r *Registry) SupportedTypes(ctx context.Context) domain.SupportedTypesSnapshot {
	r.mu.RLock()
	cached := r.snap
	r.mu.RUnlock()
	if cached != nil && cached.Status == domain.VerificationAvailable {
		return *cached
	}
	return r.refresh(ctx)
}

// IsSupported reports presence in whatever snapshot currently exists, which
// may be empty or unavailable. Callers needing a trustworthy answer must check
// VerificationAvailable first.
func (r *Registry) IsSupported(fabricType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.snap == nil {
		return false
	}
	return r.snap.Contains(fabricType)
}

// Refresh forces a fetch, bypassing the cache. Concurrent refreshes still
// collapse into one upstream call.
func (r *Registry) Refresh(ctx context.Context) domain.SupportedTypesSnapshot {
	return r.refresh(ctx)
}

func (r *Registry) refresh(ctx context.Context) domain.SupportedTypesSnapshot {
	result, _, _ := r.group.Do("supported-types", func() (interface{}, error) {
		types, err := r.api.ListSupportedConnectorTypes(ctx)
		snap := domain.SupportedTypesSnapshot{FetchedAt: time.Now()}
		if err != nil {
			// Unavailable, not empty: no skip judgment can be trusted.
			r.logger.Warn("supported-types fetch failed", "error", err)
			snap.Status = domain.VerificationUnavailable
			snap.Types = []string{}
		} else {
			snap.Status = domain.VerificationAvailable
			snap.Types = types
		}

		r.mu.Lock()
		r.snap = &snap
		r.mu.Unlock()
		return snap, nil
	})
	return result.(domain.SupportedTypesSnapshot)
}
