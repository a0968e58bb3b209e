package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabric-bridge/internal/adf"
)

func writeExport(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

const pipelinesFile = `{"resources": [
  {"name": "myfactory/orders_daily", "type": "Microsoft.DataFactory/factories/pipelines",
   "properties": {"activities": []}},
  {"name": "myfactory/refunds", "type": "Microsoft.DataFactory/factories/pipelines",
   "properties": {"activities": []}}
]}`

const linkedServicesFile = `{"resources": [
  {"name": "myfactory/ls_sql", "type": "Microsoft.DataFactory/factories/linkedServices",
   "properties": {"type": "SqlServer"}},
  {"name": "myfactory/ds_in", "type": "Microsoft.DataFactory/factories/datasets",
   "properties": {"linkedServiceName": {"referenceName": "ls_sql"}}}
]}`

func TestDirLoaderMergesFiles(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "pipelines.json", pipelinesFile)
	writeExport(t, dir, "linked_services.JSON", linkedServicesFile)
	writeExport(t, dir, "README.md", "not json, skipped")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o755))

	export, err := NewDirLoader(dir, nil).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "myfactory", export.FactoryName)
	assert.Len(t, export.Pipelines, 2)
	assert.Len(t, export.Datasets, 1)
	assert.Len(t, export.LinkedServices, 1)
}

func TestDirLoaderEmptyDir(t *testing.T) {
	export, err := NewDirLoader(t.TempDir(), nil).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, export.Pipelines)
}

func TestDirLoaderMissingDir(t *testing.T) {
	_, err := NewDirLoader(filepath.Join(t.TempDir(), "absent"), nil).Load(context.Background())
	require.Error(t, err)
}

func TestDirLoaderMalformedFileFailsLoudly(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "good.json", pipelinesFile)
	writeExport(t, dir, "bad.json", `{"resources": [`)

	_, err := NewDirLoader(dir, nil).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.json")
}

func TestMergeExportKeepsFirstFactoryName(t *testing.T) {
	dst := &adf.FactoryExport{FactoryName: "first"}
	mergeExport(dst, &adf.FactoryExport{
		FactoryName: "second",
		Pipelines:   []adf.PipelineDocument{{Name: "p"}},
	})
	assert.Equal(t, "first", dst.FactoryName)
	assert.Len(t, dst.Pipelines, 1)
}
