// Package decision decides whether migration of a source connector type
// should be skipped. The load-bearing rule is non-skip-on-unknown: when
// support cannot be verified, nothing is ever silently dropped.
package decision

import (
	"context"

	"fabric-bridge/internal/domain"
	"fabric-bridge/internal/fabric"
)

// Reason strings surfaced to users alongside each decision.
const (
	ReasonUnavailable = "verification unavailable — defaulting to include"
	ReasonSupported   = "supported"
	ReasonNotFound    = "not found among supported Fabric connector types"
)

// Engine makes skip decisions against the supported-types registry.
type Engine struct {
	types domain.SupportedTypesSource
}

// NewEngine creates an Engine over the given supported-types source.
func NewEngine(types domain.SupportedTypesSource) *Engine {
	return &Engine{types: types}
}

// Decide resolves the Fabric type for adfType and decides whether to skip it.
// ShouldSkip is only ever true when verification is available and the mapped
// type is confirmed absent from the snapshot.
func (e *Engine) Decide(ctx context.Context, adfType string) domain.SkipDecision {
	return decideAgainst(adfType, e.types.SupportedTypes(ctx))
}

// DecideBatch applies Decide independently per type while sharing one
// snapshot fetch across the whole batch.
func (e *Engine) DecideBatch(ctx context.Context, adfTypes []string) map[string]domain.SkipDecision {
	snap := e.types.SupportedTypes(ctx)
	decisions := make(map[string]domain.SkipDecision, len(adfTypes))
	for _, t := range adfTypes {
		decisions[t] = decideAgainst(t, snap)
	}
	return decisions
}

func decideAgainst(adfType string, snap domain.SupportedTypesSnapshot) domain.SkipDecision {
	d := domain.SkipDecision{
		SourceType: adfType,
		FabricType: fabric.ResolveFabricType(adfType),
		Status:     snap.Status,
	}

	if snap.Status == domain.VerificationUnavailable {
		d.ShouldSkip = false
		d.Reason = ReasonUnavailable
		d.AvailableTypes = []string{}
		return d
	}

	d.AvailableTypes = snap.Types
	if snap.Contains(d.FabricType) {
		d.ShouldSkip = false
		d.Reason = ReasonSupported
	} else {
		d.ShouldSkip = true
		d.Reason = ReasonNotFound
	}
	return d
}
