package domain

// Reference locations — where inside a pipeline activity a linked service,
// dataset, or pipeline reference appears.
const (
	LocationSource          = "source"
	LocationSink            = "sink"
	LocationDataset         = "dataset"
	LocationCluster         = "cluster"
	LocationStorage         = "storage"
	LocationActivityLevel   = "activity-level"
	LocationInvokePipeline  = "invokePipeline"
	LocationResource        = "resource"
	LocationReferenceObject = "reference-object"
)

// ActivityReference is one linked-service/dataset usage inside one pipeline
// activity, as produced by the reference extractor.
type ActivityReference struct {
	PipelineName       string
	ActivityName       string
	ActivityType       string
	Location           string
	Index              int    // disambiguates multiple references at the same location
	LinkedServiceName  string // empty for invoke-pipeline references
	LinkedServiceType  string // ADF connector type, resolved from the export's linked services
	DatasetName        string
	TargetPipelineName string // set only when Location == LocationInvokePipeline
	IsNested           bool
	NestingPath        string // e.g. "ForEach > IfCondition(true-branch)"
}

// ID returns the deterministic composite id for this reference.
func (r ActivityReference) ID() string {
	return ReferenceID(r.PipelineName, r.ActivityName, r.Location, r.Index)
}

// RequiresPipelineConnection reports whether this reference must be mapped to
// a pipeline-type Fabric connection rather than a data-source connector.
func (r ActivityReference) RequiresPipelineConnection() bool {
	return r.Location == LocationInvokePipeline
}

// StoredReference is an ActivityReference as persisted in a migration session.
// Orphaned marks references that disappeared from the source on a rescan; their
// mappings are kept so that re-adding the pipeline restores prior work.
type StoredReference struct {
	ActivityReference
	SessionID string
	Orphaned  bool
}
