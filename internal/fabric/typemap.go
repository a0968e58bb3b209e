// Package fabric maps ADF connector types onto Fabric equivalents and talks
// to the Fabric metadata API.
package fabric

// connectorTypeMap is the fixed ADF connector/linked-service type → Fabric
// connector type table. Lookup is case-sensitive exact match. Types without
// an entry pass through unchanged — the unknown type stays visible instead of
// vanishing, and whether it is supported is the skip-decision engine's call.
var connectorTypeMap = map[string]string{
	// Web family
	"HttpServer": "Web",
	"Http":       "Web",
	"WebSource":  "Web",
	"WebTable":   "Web",

	// Storage
	"AzureBlobStorage": "AzureBlobs",
	"AzureBlobFS":      "AzureDataLakeStorage",
	"AzureFileStorage": "AzureFiles",

	// Relational
	"SqlServer":        "SQL",
	"AzureSqlDatabase": "SQL",
	"PostgreSql":       "PostgreSQL",
	"AzurePostgreSql":  "PostgreSQL",
	"MySql":            "MySQL",
	"AzureMySql":       "MySQL",

	// File transfer
	"Sftp":      "SFTP",
	"FtpServer": "FTP",

	// Explicit identity entries kept so the declared table is authoritative
	// for these types rather than relying on fallback.
	"RestService": "RestService",
	"Odbc":        "Odbc",
}

// ResolveFabricType maps an ADF connector type to its canonical Fabric
// connector type. Unknown input is returned unchanged; callers must not treat
// the result as proof the type is supported.
func ResolveFabricType(adfType string) string {
	if fabricType, ok := connectorTypeMap[adfType]; ok {
		return fabricType
	}
	return adfType
}

// MappedTypes returns a copy of the declared mapping table.
func MappedTypes() map[string]string {
	out := make(map[string]string, len(connectorTypeMap))
	for k, v := range connectorTypeMap {
		out[k] = v
	}
	return out
}
