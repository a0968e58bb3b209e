// Package export renders mapping state as CSV tables and declarative YAML.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"fabric-bridge/internal/decision"
	"fabric-bridge/internal/domain"
	"fabric-bridge/internal/fabric"
)

// Mapping status labels used in the component table.
const (
	StatusMapped     = "mapped"
	StatusAutoMapped = "auto-mapped"
	StatusUnmapped   = "unmapped"
)

// Filename builds the conventional export filename: <prefix>-<ISO-date>.csv.
func Filename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s.csv", prefix, now.Format("2006-01-02"))
}

var componentHeader = []string{"Name", "Type", "Target Type", "Target Name", "Mapping Status", "Warnings"}

// WriteComponentCSV writes one row per reference: its source name and type,
// the Fabric target it maps to, and any skip/orphan warnings.
func WriteComponentCSV(w io.Writer, refs []domain.StoredReference, mappings map[string]domain.ConnectionMapping, decisions map[string]domain.SkipDecision, connections map[string]domain.FabricConnection) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(componentHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, ref := range refs {
		name := ref.LinkedServiceName
		if ref.Location == domain.LocationInvokePipeline {
			name = ref.TargetPipelineName
		}

		targetType := ""
		if ref.LinkedServiceType != "" {
			targetType = fabric.ResolveFabricType(ref.LinkedServiceType)
		} else if ref.Location == domain.LocationInvokePipeline {
			targetType = domain.PipelineConnectorType
		}

		status := StatusUnmapped
		targetName := ""
		if m, ok := mappings[ref.ID()]; ok && m.IsMapped() {
			status = StatusMapped
			if m.IsAutoMapped() {
				status = StatusAutoMapped
			}
			if conn, ok := connections[m.SelectedConnectionID]; ok {
				targetName = conn.Name
			} else {
				targetName = m.SelectedConnectionID
			}
		}

		warnings := ""
		if ref.Orphaned {
			warnings = "reference no longer present in source"
		} else if d, ok := decisions[ref.LinkedServiceType]; ok && d.ShouldSkip {
			warnings = decision.DecisionMessage(d)
		}

		row := []string{name, ref.LinkedServiceType, targetType, targetName, status, warnings}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row for %s: %w", ref.ID(), err)
		}
	}

	cw.Flush()
	return cw.Error()
}

var pipelineHeader = []string{"Pipeline Name", "Total Activities", "Total References", "Mapped References", "Mapping %"}

// WritePipelineCSV writes one row per pipeline summary.
func WritePipelineCSV(w io.Writer, summaries []domain.PipelineMappingSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(pipelineHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, s := range summaries {
		row := []string{
			s.PipelineName,
			strconv.Itoa(s.TotalActivities),
			strconv.Itoa(s.TotalReferences),
			strconv.Itoa(s.MappedReferences),
			strconv.Itoa(s.MappingPercentage),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row for %s: %w", s.PipelineName, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
