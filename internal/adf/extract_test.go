package adf

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabric-bridge/internal/domain"
)

func raw(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func copyActivity(t *testing.T, name string, inputs, outputs []ServiceRef) Activity {
	return Activity{
		Name:    name,
		Type:    ActivityTypeCopy,
		Inputs:  inputs,
		Outputs: outputs,
		TypeProperties: raw(t, map[string]interface{}{
			"source": map[string]string{"type": "SqlSource"},
			"sink":   map[string]string{"type": "BlobSink"},
		}),
	}
}

func TestDispatchTableCoversKnownActivityTypes(t *testing.T) {
	for _, typ := range []string{
		ActivityTypeCopy,
		ActivityTypeLookup,
		ActivityTypeGetMetadata,
		ActivityTypeDelete,
		ActivityTypeExecutePipeline,
		ActivityTypeForEach,
		ActivityTypeIfCondition,
		ActivityTypeUntil,
		ActivityTypeSwitch,
	} {
		assert.NotNil(t, extractors[typ], "no handler registered for %s", typ)
	}
}

func TestExtractReferences_EmptyPipeline(t *testing.T) {
	ex := NewExtractor(nil, nil)
	refs := ex.ExtractReferences(PipelineDocument{Name: "empty"})
	assert.NotNil(t, refs)
	assert.Empty(t, refs)
}

func TestExtractReferences_CopyEmitsSourceAndSink(t *testing.T) {
	datasets := DatasetIndex{"ds_in": "ls_sql", "ds_out": "ls_blob"}
	ex := NewExtractor(datasets, nil)

	doc := PipelineDocument{
		Name: "orders_daily",
		Properties: PipelineProperties{Activities: []Activity{
			copyActivity(t, "CopyOrders",
				[]ServiceRef{{ReferenceName: "ds_in"}},
				[]ServiceRef{{ReferenceName: "ds_out"}}),
		}},
	}

	refs := ex.ExtractReferences(doc)
	require.Len(t, refs, 2)

	source, sink := refs[0], refs[1]
	assert.Equal(t, domain.LocationSource, source.Location)
	assert.Equal(t, "ls_sql", source.LinkedServiceName)
	assert.Equal(t, "ds_in", source.DatasetName)
	assert.Equal(t, "orders_daily/CopyOrders/source/0", source.ID())

	assert.Equal(t, domain.LocationSink, sink.Location)
	assert.Equal(t, "ls_blob", sink.LinkedServiceName)
	assert.Equal(t, "orders_daily/CopyOrders/sink/0", sink.ID())
}

func TestExtractReferences_CopySameLinkedServiceBothEnds(t *testing.T) {
	// Source and sink on the same linked service still yield two references.
	datasets := DatasetIndex{"ds_a": "ls_shared", "ds_b": "ls_shared"}
	ex := NewExtractor(datasets, nil)

	doc := PipelineDocument{
		Name: "p",
		Properties: PipelineProperties{Activities: []Activity{
			copyActivity(t, "Dedup",
				[]ServiceRef{{ReferenceName: "ds_a"}},
				[]ServiceRef{{ReferenceName: "ds_b"}}),
		}},
	}

	refs := ex.ExtractReferences(doc)
	require.Len(t, refs, 2)
	assert.Equal(t, "ls_shared", refs[0].LinkedServiceName)
	assert.Equal(t, "ls_shared", refs[1].LinkedServiceName)
	assert.NotEqual(t, refs[0].ID(), refs[1].ID())
}

func TestExtractReferences_CopyEndpointLinkedServiceWins(t *testing.T) {
	// An explicit linkedServiceName on the endpoint takes precedence over the
	// dataset binding.
	datasets := DatasetIndex{"ds_in": "ls_from_dataset"}
	ex := NewExtractor(datasets, nil)

	act := Activity{
		Name:   "CopyDirect",
		Type:   ActivityTypeCopy,
		Inputs: []ServiceRef{{ReferenceName: "ds_in"}},
		TypeProperties: raw(t, map[string]interface{}{
			"source": map[string]interface{}{
				"type":              "BinarySource",
				"linkedServiceName": map[string]string{"referenceName": "ls_direct"},
			},
		}),
	}

	refs := ex.ExtractReferences(PipelineDocument{Name: "p", Properties: PipelineProperties{Activities: []Activity{act}}})
	require.Len(t, refs, 1)
	assert.Equal(t, "ls_direct", refs[0].LinkedServiceName)
	assert.Equal(t, "ds_in", refs[0].DatasetName)
}

func TestExtractReferences_DatasetActivities(t *testing.T) {
	datasets := DatasetIndex{"ds_config": "ls_sql"}
	ex := NewExtractor(datasets, nil)

	for _, activityType := range []string{ActivityTypeLookup, ActivityTypeGetMetadata, ActivityTypeDelete} {
		act := Activity{
			Name:           "Act",
			Type:           activityType,
			TypeProperties: raw(t, map[string]interface{}{"dataset": map[string]string{"referenceName": "ds_config"}}),
		}
		refs := ex.ExtractReferences(PipelineDocument{Name: "p", Properties: PipelineProperties{Activities: []Activity{act}}})
		require.Len(t, refs, 1, "activity type %s", activityType)
		assert.Equal(t, domain.LocationDataset, refs[0].Location)
		assert.Equal(t, "ls_sql", refs[0].LinkedServiceName)
		assert.Equal(t, "ds_config", refs[0].DatasetName)
	}
}

func TestExtractReferences_ExecutePipeline(t *testing.T) {
	ex := NewExtractor(nil, nil)

	act := Activity{
		Name:           "RunChild",
		Type:           ActivityTypeExecutePipeline,
		TypeProperties: raw(t, map[string]interface{}{"pipeline": map[string]string{"referenceName": "child_pipeline"}}),
	}
	refs := ex.ExtractReferences(PipelineDocument{Name: "parent", Properties: PipelineProperties{Activities: []Activity{act}}})
	require.Len(t, refs, 1)

	ref := refs[0]
	assert.Equal(t, domain.LocationInvokePipeline, ref.Location)
	assert.Equal(t, "child_pipeline", ref.TargetPipelineName)
	assert.Empty(t, ref.LinkedServiceName)
	assert.True(t, ref.RequiresPipelineConnection())
	assert.Equal(t, "parent/RunChild/invokePipeline/0", ref.ID())
}

func TestExtractReferences_NestedContainers(t *testing.T) {
	datasets := DatasetIndex{"ds_in": "ls_sql", "ds_out": "ls_blob"}
	ex := NewExtractor(datasets, nil)

	inner := copyActivity(t, "CopyInner",
		[]ServiceRef{{ReferenceName: "ds_in"}},
		[]ServiceRef{{ReferenceName: "ds_out"}})

	ifAct := Activity{
		Name: "CheckFlag",
		Type: ActivityTypeIfCondition,
		TypeProperties: raw(t, map[string]interface{}{
			"ifTrueActivities":  []Activity{inner},
			"ifFalseActivities": []Activity{},
		}),
	}
	forEach := Activity{
		Name:           "LoopFiles",
		Type:           ActivityTypeForEach,
		TypeProperties: raw(t, map[string]interface{}{"activities": []Activity{ifAct}}),
	}

	refs := ex.ExtractReferences(PipelineDocument{Name: "p", Properties: PipelineProperties{Activities: []Activity{forEach}}})
	require.Len(t, refs, 2)
	for _, ref := range refs {
		assert.True(t, ref.IsNested)
		assert.Equal(t, "ForEach > IfCondition(true-branch)", ref.NestingPath)
	}
}

func TestExtractReferences_UntilAndSwitch(t *testing.T) {
	ex := NewExtractor(DatasetIndex{"ds": "ls"}, nil)

	lookup := Activity{
		Name:           "Poll",
		Type:           ActivityTypeLookup,
		TypeProperties: raw(t, map[string]interface{}{"dataset": map[string]string{"referenceName": "ds"}}),
	}
	until := Activity{
		Name:           "WaitForFile",
		Type:           ActivityTypeUntil,
		TypeProperties: raw(t, map[string]interface{}{"activities": []Activity{lookup}}),
	}

	caseLookup := lookup
	caseLookup.Name = "HandleA"
	defaultLookup := lookup
	defaultLookup.Name = "HandleDefault"
	switchAct := Activity{
		Name: "Route",
		Type: ActivityTypeSwitch,
		TypeProperties: raw(t, map[string]interface{}{
			"cases":             []switchCase{{Value: "a", Activities: []Activity{caseLookup}}},
			"defaultActivities": []Activity{defaultLookup},
		}),
	}

	refs := ex.ExtractReferences(PipelineDocument{Name: "p", Properties: PipelineProperties{Activities: []Activity{until, switchAct}}})
	require.Len(t, refs, 3)
	assert.Equal(t, "Until", refs[0].NestingPath)
	assert.Equal(t, "Switch(case=a)", refs[1].NestingPath)
	assert.Equal(t, "Switch(default)", refs[2].NestingPath)
}

func TestExtractReferences_ActivityLevelFallback(t *testing.T) {
	ex := NewExtractor(nil, nil)

	web := Activity{
		Name:              "CallAPI",
		Type:              "WebActivity",
		LinkedServiceName: &ServiceRef{ReferenceName: "ls_http"},
	}
	wait := Activity{Name: "Pause", Type: "Wait"}

	refs := ex.ExtractReferences(PipelineDocument{Name: "p", Properties: PipelineProperties{Activities: []Activity{web, wait}}})
	require.Len(t, refs, 1)
	assert.Equal(t, domain.LocationActivityLevel, refs[0].Location)
	assert.Equal(t, "ls_http", refs[0].LinkedServiceName)
}

func TestExtractReferences_MalformedActivityDoesNotAbortSiblings(t *testing.T) {
	datasets := DatasetIndex{"ds_in": "ls_sql", "ds_out": "ls_blob"}
	ex := NewExtractor(datasets, nil)

	broken := Activity{
		Name:           "Broken",
		Type:           ActivityTypeCopy,
		TypeProperties: json.RawMessage(`{"source": "not-an-object"`),
	}
	noProps := Activity{Name: "NoProps", Type: ActivityTypeLookup}
	good := copyActivity(t, "CopyGood",
		[]ServiceRef{{ReferenceName: "ds_in"}},
		[]ServiceRef{{ReferenceName: "ds_out"}})

	refs := ex.ExtractReferences(PipelineDocument{Name: "p", Properties: PipelineProperties{Activities: []Activity{broken, noProps, good}}})
	require.Len(t, refs, 2)
	assert.Equal(t, "CopyGood", refs[0].ActivityName)
	assert.Equal(t, "CopyGood", refs[1].ActivityName)
}

func TestExtractReferences_StableIDsAcrossRuns(t *testing.T) {
	datasets := DatasetIndex{"ds_in": "ls_sql", "ds_out": "ls_blob"}
	ex := NewExtractor(datasets, nil)

	doc := PipelineDocument{
		Name: "p",
		Properties: PipelineProperties{Activities: []Activity{
			copyActivity(t, "CopyA", []ServiceRef{{ReferenceName: "ds_in"}}, []ServiceRef{{ReferenceName: "ds_out"}}),
			copyActivity(t, "CopyB", []ServiceRef{{ReferenceName: "ds_in"}}, []ServiceRef{{ReferenceName: "ds_out"}}),
		}},
	}

	first := ex.ExtractReferences(doc)
	second := NewExtractor(datasets, nil).ExtractReferences(doc)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID(), second[i].ID())
	}
}

func TestExtractReferences_IndexDisambiguatesRepeatedLocations(t *testing.T) {
	// The same activity name at the same location gets increasing indexes in
	// traversal order. Duplicate activity names are unusual but must not
	// collapse into one reference id.
	ex := NewExtractor(DatasetIndex{"ds": "ls"}, nil)

	lookup := Activity{
		Name:           "Repeated",
		Type:           ActivityTypeLookup,
		TypeProperties: raw(t, map[string]interface{}{"dataset": map[string]string{"referenceName": "ds"}}),
	}
	forEach := Activity{
		Name:           "Loop",
		Type:           ActivityTypeForEach,
		TypeProperties: raw(t, map[string]interface{}{"activities": []Activity{lookup, lookup}}),
	}

	refs := ex.ExtractReferences(PipelineDocument{Name: "p", Properties: PipelineProperties{Activities: []Activity{forEach}}})
	require.Len(t, refs, 2)
	assert.Equal(t, "p/Repeated/dataset/0", refs[0].ID())
	assert.Equal(t, "p/Repeated/dataset/1", refs[1].ID())
}
