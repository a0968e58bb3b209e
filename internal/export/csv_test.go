package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabric-bridge/internal/domain"
)

func TestFilename(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "components-2026-03-14.csv", Filename("components", now))
	assert.Equal(t, "pipelines-2026-03-14.csv", Filename("pipelines", now))
}

func storedRef(pipeline, activity, location, linkedService, lsType string) domain.StoredReference {
	return domain.StoredReference{
		ActivityReference: domain.ActivityReference{
			PipelineName:      pipeline,
			ActivityName:      activity,
			Location:          location,
			LinkedServiceName: linkedService,
			LinkedServiceType: lsType,
		},
	}
}

func parseCSV(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	rows, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteComponentCSV(t *testing.T) {
	mapped := storedRef("p", "Copy1", domain.LocationSource, "ls_sql", "SqlServer")
	auto := storedRef("p", "Lookup1", domain.LocationDataset, "ls_sql", "SqlServer")
	unmapped := storedRef("p", "Copy1", domain.LocationSink, "ls_blob", "AzureBlobStorage")

	mappings := map[string]domain.ConnectionMapping{
		mapped.ID(): {ReferenceID: mapped.ID(), SelectedConnectionID: "c1", Origin: domain.MappingOriginManual},
		auto.ID():   {ReferenceID: auto.ID(), SelectedConnectionID: "c1", Origin: domain.MappingOriginAuto},
	}
	connections := map[string]domain.FabricConnection{
		"c1": {ID: "c1", Name: "sql-prod", ConnectorType: "SQL"},
	}

	var buf bytes.Buffer
	err := WriteComponentCSV(&buf, []domain.StoredReference{mapped, auto, unmapped}, mappings, nil, connections)
	require.NoError(t, err)

	rows := parseCSV(t, &buf)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Name", "Type", "Target Type", "Target Name", "Mapping Status", "Warnings"}, rows[0])
	assert.Equal(t, []string{"ls_sql", "SqlServer", "SQL", "sql-prod", StatusMapped, ""}, rows[1])
	assert.Equal(t, []string{"ls_sql", "SqlServer", "SQL", "sql-prod", StatusAutoMapped, ""}, rows[2])
	assert.Equal(t, []string{"ls_blob", "AzureBlobStorage", "AzureBlobs", "", StatusUnmapped, ""}, rows[3])
}

func TestWriteComponentCSVInvokePipelineRow(t *testing.T) {
	ref := domain.StoredReference{
		ActivityReference: domain.ActivityReference{
			PipelineName:       "parent",
			ActivityName:       "RunChild",
			Location:           domain.LocationInvokePipeline,
			TargetPipelineName: "child_pipeline",
		},
	}

	var buf bytes.Buffer
	err := WriteComponentCSV(&buf, []domain.StoredReference{ref}, nil, nil, nil)
	require.NoError(t, err)

	rows := parseCSV(t, &buf)
	require.Len(t, rows, 2)
	assert.Equal(t, "child_pipeline", rows[1][0])
	assert.Equal(t, domain.PipelineConnectorType, rows[1][2])
	assert.Equal(t, StatusUnmapped, rows[1][4])
}

func TestWriteComponentCSVWarnings(t *testing.T) {
	orphan := storedRef("p", "Old", domain.LocationSource, "ls_gone", "Oracle")
	orphan.Orphaned = true
	skipped := storedRef("p", "Notify", domain.LocationActivityLevel, "ls_sf", "Salesforce")

	decisions := map[string]domain.SkipDecision{
		"Salesforce": {
			SourceType:     "Salesforce",
			FabricType:     "Salesforce",
			ShouldSkip:     true,
			Reason:         "connector type is not in the supported list",
			Status:         domain.VerificationAvailable,
			AvailableTypes: []string{"SQL", "Web"},
		},
	}

	var buf bytes.Buffer
	err := WriteComponentCSV(&buf, []domain.StoredReference{orphan, skipped}, nil, decisions, nil)
	require.NoError(t, err)

	rows := parseCSV(t, &buf)
	require.Len(t, rows, 3)
	assert.Equal(t, "reference no longer present in source", rows[1][5])
	assert.Contains(t, rows[2][5], "Salesforce")
	assert.Contains(t, rows[2][5], "Available types:")
}

func TestWriteComponentCSVUnknownConnectionFallsBackToID(t *testing.T) {
	ref := storedRef("p", "Copy1", domain.LocationSource, "ls_sql", "SqlServer")
	mappings := map[string]domain.ConnectionMapping{
		ref.ID(): {ReferenceID: ref.ID(), SelectedConnectionID: "deleted-conn", Origin: domain.MappingOriginManual},
	}

	var buf bytes.Buffer
	err := WriteComponentCSV(&buf, []domain.StoredReference{ref}, mappings, nil, nil)
	require.NoError(t, err)

	rows := parseCSV(t, &buf)
	assert.Equal(t, "deleted-conn", rows[1][3])
}

func TestWritePipelineCSV(t *testing.T) {
	summaries := []domain.PipelineMappingSummary{
		{PipelineName: "orders_daily", TotalActivities: 3, TotalReferences: 5, MappedReferences: 5, MappingPercentage: 100},
		{PipelineName: "refunds", TotalActivities: 1, TotalReferences: 3, MappedReferences: 1, MappingPercentage: 33},
	}

	var buf bytes.Buffer
	err := WritePipelineCSV(&buf, summaries)
	require.NoError(t, err)

	rows := parseCSV(t, &buf)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Pipeline Name", "Total Activities", "Total References", "Mapped References", "Mapping %"}, rows[0])
	assert.Equal(t, []string{"orders_daily", "3", "5", "5", "100"}, rows[1])
	assert.Equal(t, []string{"refunds", "1", "3", "1", "33"}, rows[2])
}

func TestWritePipelineCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePipelineCSV(&buf, nil))
	rows := parseCSV(t, &buf)
	require.Len(t, rows, 1)
}
