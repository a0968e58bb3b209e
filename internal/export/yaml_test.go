package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabric-bridge/internal/domain"
)

func TestWriteSessionYAML(t *testing.T) {
	session := &domain.MigrationSession{Name: "adf-prod", FactoryName: "myfactory"}
	mappings := []domain.ConnectionMapping{
		{ReferenceID: "p/Copy1/source/0", SelectedConnectionID: "c1", Origin: domain.MappingOriginManual, LinkedServiceName: "ls_sql"},
		{ReferenceID: "p/Copy1/sink/0", SelectedConnectionID: "c2", Origin: domain.MappingOriginAuto, LinkedServiceName: "ls_blob"},
		{ReferenceID: "p/Copy2/source/0"}, // unmapped, excluded
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSessionYAML(&buf, session, mappings))

	state, err := ReadSessionYAML(&buf)
	require.NoError(t, err)
	assert.Equal(t, "adf-prod", state.Session)
	assert.Equal(t, "myfactory", state.Factory)
	require.Len(t, state.Mappings, 2)

	// Sorted by reference id so the file diffs cleanly.
	assert.Equal(t, "p/Copy1/sink/0", state.Mappings[0].Reference)
	assert.Equal(t, "c2", state.Mappings[0].ConnectionID)
	assert.Equal(t, domain.MappingOriginAuto, state.Mappings[0].Origin)
	assert.Equal(t, "p/Copy1/source/0", state.Mappings[1].Reference)
	assert.Equal(t, "ls_sql", state.Mappings[1].LinkedService)
}

func TestReadSessionYAMLValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing session name", "mappings: []\n"},
		{"mapping without reference", "session: s\nmappings:\n  - connection_id: c1\n"},
		{"mapping without connection", "session: s\nmappings:\n  - reference: p/a/source/0\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadSessionYAML(strings.NewReader(tc.doc))
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestReadSessionYAMLMalformed(t *testing.T) {
	_, err := ReadSessionYAML(strings.NewReader("session: [broken"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode session state")
}
