package adf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const armFixture = `{
  "resources": [
    {
      "name": "[concat(parameters('factoryName'), '/orders_daily')]",
      "type": "Microsoft.DataFactory/factories/pipelines",
      "properties": {
        "activities": [
          {"name": "CopyOrders", "type": "Copy",
           "inputs": [{"referenceName": "ds_orders", "type": "DatasetReference"}],
           "typeProperties": {"source": {"type": "SqlSource"}}}
        ]
      }
    },
    {
      "name": "myfactory/ds_orders",
      "type": "Microsoft.DataFactory/factories/datasets",
      "properties": {
        "type": "SqlServerTable",
        "linkedServiceName": {"referenceName": "ls_sql", "type": "LinkedServiceReference"}
      }
    },
    {
      "name": "myfactory/ls_sql",
      "type": "Microsoft.DataFactory/factories/linkedServices",
      "properties": {"type": "SqlServer"}
    },
    {
      "name": "myfactory/daily_trigger",
      "type": "Microsoft.DataFactory/factories/triggers",
      "properties": {"runtimeState": "Started"}
    }
  ]
}`

func TestParseARMTemplate(t *testing.T) {
	export, err := ParseARMTemplate([]byte(armFixture))
	require.NoError(t, err)

	assert.Equal(t, "myfactory", export.FactoryName)

	require.Len(t, export.Pipelines, 1)
	assert.Equal(t, "orders_daily", export.Pipelines[0].Name)
	require.Len(t, export.Pipelines[0].Properties.Activities, 1)
	assert.Equal(t, "CopyOrders", export.Pipelines[0].Properties.Activities[0].Name)

	require.Len(t, export.Datasets, 1)
	assert.Equal(t, "ds_orders", export.Datasets[0].Name)
	require.NotNil(t, export.Datasets[0].Properties.LinkedServiceName)
	assert.Equal(t, "ls_sql", export.Datasets[0].Properties.LinkedServiceName.ReferenceName)

	require.Len(t, export.LinkedServices, 1)
	assert.Equal(t, "ls_sql", export.LinkedServices[0].Name)
	assert.Equal(t, "SqlServer", export.LinkedServices[0].Properties.Type)
}

func TestParseARMTemplate_MalformedJSON(t *testing.T) {
	_, err := ParseARMTemplate([]byte(`{"resources": [`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse ARM template")
}

func TestParseARMTemplate_MalformedResourceProperties(t *testing.T) {
	data := `{"resources": [{
		"name": "f/p",
		"type": "Microsoft.DataFactory/factories/pipelines",
		"properties": {"activities": "nope"}
	}]}`
	_, err := ParseARMTemplate([]byte(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `parse pipeline "p"`)
}

func TestParseARMTemplate_EmptyResources(t *testing.T) {
	export, err := ParseARMTemplate([]byte(`{"resources": []}`))
	require.NoError(t, err)
	assert.Empty(t, export.Pipelines)
	assert.Empty(t, export.Datasets)
	assert.Empty(t, export.LinkedServices)
	assert.Empty(t, export.FactoryName)
}

func TestSplitResourceName(t *testing.T) {
	tests := []struct {
		name    string
		factory string
		entity  string
	}{
		{"myfactory/orders_daily", "myfactory", "orders_daily"},
		{"[concat(parameters('factoryName'), '/orders_daily')]", "", "orders_daily"},
		{"plain_name", "", "plain_name"},
		{"a/b/c", "a/b", "c"},
	}
	for _, tc := range tests {
		factory, entity := splitResourceName(tc.name)
		assert.Equal(t, tc.factory, factory, tc.name)
		assert.Equal(t, tc.entity, entity, tc.name)
	}
}

func TestNewDatasetIndex(t *testing.T) {
	idx := NewDatasetIndex([]DatasetDocument{
		{Name: "ds_a", Properties: DatasetProperties{LinkedServiceName: &ServiceRef{ReferenceName: "ls_a"}}},
		{Name: "ds_b", Properties: DatasetProperties{}},
		{Name: "", Properties: DatasetProperties{LinkedServiceName: &ServiceRef{ReferenceName: "ls_x"}}},
	})
	assert.Equal(t, DatasetIndex{"ds_a": "ls_a"}, idx)
}

func TestFactoryExportLinkedServiceTypes(t *testing.T) {
	export := &FactoryExport{LinkedServices: []LinkedServiceDocument{
		{Name: "ls_sql", Properties: LinkedServiceProperties{Type: "SqlServer"}},
		{Name: "ls_blob", Properties: LinkedServiceProperties{Type: "AzureBlobStorage"}},
		{Name: "", Properties: LinkedServiceProperties{Type: "Ignored"}},
	}}
	assert.Equal(t, map[string]string{
		"ls_sql":  "SqlServer",
		"ls_blob": "AzureBlobStorage",
	}, export.LinkedServiceTypes())
}
