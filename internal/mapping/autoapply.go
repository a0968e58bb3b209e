package mapping

import (
	"strings"

	"fabric-bridge/internal/domain"
)

// AutoApplyPolicy controls how a user's explicit mapping is propagated to
// other references sharing the linked-service name. The matching form and
// pipeline scope are deliberately configurable rather than fixed.
type AutoApplyPolicy struct {
	// CrossPipeline extends matching beyond the mapped reference's pipeline.
	CrossPipeline bool
	// CaseInsensitive matches linked-service names case-insensitively
	// instead of byte-for-byte.
	CaseInsensitive bool
}

// DefaultAutoApplyPolicy matches exact names across all pipelines in the session.
func DefaultAutoApplyPolicy() AutoApplyPolicy {
	return AutoApplyPolicy{CrossPipeline: true}
}

func (p AutoApplyPolicy) nameMatches(a, b string) bool {
	if p.CaseInsensitive {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// AutoApplyCandidates returns the references that should be offered the
// source reference's connection as an inferred default: unmapped, sharing its
// linked-service name under the policy, and not the source itself.
// Invoke-pipeline references never participate — they have no linked service.
func AutoApplyCandidates(policy AutoApplyPolicy, source domain.ActivityReference, refs []domain.ActivityReference, mappings map[string]domain.ConnectionMapping) []domain.ActivityReference {
	if source.LinkedServiceName == "" {
		return nil
	}

	var out []domain.ActivityReference
	for _, ref := range refs {
		if ref.ID() == source.ID() || ref.LinkedServiceName == "" {
			continue
		}
		if !policy.CrossPipeline && ref.PipelineName != source.PipelineName {
			continue
		}
		if !policy.nameMatches(ref.LinkedServiceName, source.LinkedServiceName) {
			continue
		}
		if m, ok := mappings[ref.ID()]; ok && m.IsMapped() {
			continue
		}
		out = append(out, ref)
	}
	return out
}
