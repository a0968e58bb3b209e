package fabric

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveFabricType_WebFamily(t *testing.T) {
	for _, adfType := range []string{"HttpServer", "Http", "WebSource", "WebTable"} {
		assert.Equal(t, "Web", ResolveFabricType(adfType), "adf type %s", adfType)
	}
}

func TestResolveFabricType_Table(t *testing.T) {
	tests := []struct {
		adfType string
		want    string
	}{
		{"AzureBlobStorage", "AzureBlobs"},
		{"AzureBlobFS", "AzureDataLakeStorage"},
		{"AzureFileStorage", "AzureFiles"},
		{"SqlServer", "SQL"},
		{"AzureSqlDatabase", "SQL"},
		{"PostgreSql", "PostgreSQL"},
		{"AzurePostgreSql", "PostgreSQL"},
		{"MySql", "MySQL"},
		{"AzureMySql", "MySQL"},
		{"Sftp", "SFTP"},
		{"FtpServer", "FTP"},
		{"RestService", "RestService"},
		{"Odbc", "Odbc"},
	}
	for _, tt := range tests {
		t.Run(tt.adfType, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveFabricType(tt.adfType))
		})
	}
}

func TestResolveFabricType_UnknownPassesThrough(t *testing.T) {
	assert.Equal(t, "UnknownConnectorType123", ResolveFabricType("UnknownConnectorType123"))
	assert.Equal(t, "", ResolveFabricType(""))
}

func TestResolveFabricType_CaseSensitive(t *testing.T) {
	// Lookup is exact match; a differently-cased name passes through.
	assert.Equal(t, "sqlserver", ResolveFabricType("sqlserver"))
}

func TestMappedTypes_ReturnsCopy(t *testing.T) {
	m := MappedTypes()
	m["SqlServer"] = "tampered"
	assert.Equal(t, "SQL", ResolveFabricType("SqlServer"))
}
