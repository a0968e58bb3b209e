package domain

import "time"

// Mapping origin constants.
const (
	MappingOriginManual = "manual"
	MappingOriginAuto   = "auto"
)

// PipelineConnectorType is the Fabric connector type backing Invoke Pipeline
// activities. Invoke-pipeline references may only be mapped to connections of
// this type.
const PipelineConnectorType = "FabricDataPipelines"

// ConnectionMapping associates an activity reference with a selected Fabric
// connection. An empty SelectedConnectionID means the reference is unmapped.
type ConnectionMapping struct {
	SessionID            string
	ReferenceID          string
	SelectedConnectionID string
	Origin               string // manual or auto
	LinkedServiceName    string // denormalized for auto-apply lookups
	UpdatedAt            time.Time
}

// IsMapped reports whether a connection has been selected.
func (m ConnectionMapping) IsMapped() bool {
	return m.SelectedConnectionID != ""
}

// IsAutoMapped reports whether the mapping was inferred rather than chosen.
func (m ConnectionMapping) IsAutoMapped() bool {
	return m.IsMapped() && m.Origin == MappingOriginAuto
}

// FabricConnection is a provisioned Fabric connection offered as a mapping target.
type FabricConnection struct {
	ID            string
	Name          string
	ConnectorType string
}

// IsPipelineConnection reports whether the connection targets Fabric pipelines.
func (c FabricConnection) IsPipelineConnection() bool {
	return c.ConnectorType == PipelineConnectorType
}
