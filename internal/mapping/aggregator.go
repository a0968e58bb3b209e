// Package mapping aggregates extracted references and connection selections
// into completion summaries, and implements the auto-apply policy.
package mapping

import (
	"math"
	"sort"

	"fabric-bridge/internal/domain"
)

// Percentage computes round-half-up percent of mapped over total.
// A zero total is complete by definition.
func Percentage(mapped, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Floor(float64(mapped)/float64(total)*100 + 0.5))
}

// Summarize combines a pipeline's references with the current mapping state
// into a PipelineMappingSummary. It is pure: identical inputs produce
// identical summaries.
func Summarize(pipelineName string, refs []domain.ActivityReference, mappings map[string]domain.ConnectionMapping) domain.PipelineMappingSummary {
	summary := domain.PipelineMappingSummary{
		PipelineName:    pipelineName,
		TotalReferences: len(refs),
	}

	activities := map[string]bool{}
	groups := map[string]*domain.ActivityGroupSummary{}
	for _, ref := range refs {
		activities[ref.ActivityName] = true

		g, ok := groups[ref.ActivityType]
		if !ok {
			g = &domain.ActivityGroupSummary{ActivityType: ref.ActivityType}
			groups[ref.ActivityType] = g
		}
		g.TotalReferences++

		if m, ok := mappings[ref.ID()]; ok && m.IsMapped() {
			summary.MappedReferences++
			g.MappedReferences++
		}
	}

	summary.TotalActivities = len(activities)
	summary.MappingPercentage = Percentage(summary.MappedReferences, summary.TotalReferences)

	types := make([]string, 0, len(groups))
	for t := range groups {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		g := groups[t]
		g.MappingPercentage = Percentage(g.MappedReferences, g.TotalReferences)
		summary.ActivityGroups = append(summary.ActivityGroups, *g)
	}
	return summary
}

// SummarizeSession rolls pipeline summaries into a session-level view.
// ReadyToDeploy requires every pipeline at 100%.
func SummarizeSession(sessionID string, pipelines []domain.PipelineMappingSummary) domain.SessionSummary {
	s := domain.SessionSummary{SessionID: sessionID, Pipelines: pipelines, ReadyToDeploy: true}
	for _, p := range pipelines {
		s.TotalReferences += p.TotalReferences
		s.MappedReferences += p.MappedReferences
		if p.MappingPercentage < 100 {
			s.ReadyToDeploy = false
		}
	}
	s.MappingPercentage = Percentage(s.MappedReferences, s.TotalReferences)
	return s
}

// ValidateTarget rejects mapping a pipeline-location reference to a
// data-source connection, and the reverse. This filter must agree between
// the extractor's location tagging and the UI's connection pickers.
func ValidateTarget(ref domain.ActivityReference, conn domain.FabricConnection) error {
	if ref.RequiresPipelineConnection() && !conn.IsPipelineConnection() {
		return domain.ErrValidation("reference %s requires a pipeline connection, got connector type %q", ref.ID(), conn.ConnectorType)
	}
	if !ref.RequiresPipelineConnection() && conn.IsPipelineConnection() {
		return domain.ErrValidation("reference %s requires a data-source connection, got pipeline connection %q", ref.ID(), conn.Name)
	}
	return nil
}
