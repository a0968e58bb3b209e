package domain

// ActivityGroupSummary aggregates mapping progress for one activity type
// within a pipeline.
type ActivityGroupSummary struct {
	ActivityType      string
	TotalReferences   int
	MappedReferences  int
	MappingPercentage int
}

// PipelineMappingSummary is the derived aggregate over all references of a
// pipeline and their mappings. A pipeline with zero references is 100% mapped.
type PipelineMappingSummary struct {
	PipelineName      string
	TotalActivities   int
	TotalReferences   int
	MappedReferences  int
	MappingPercentage int
	ActivityGroups    []ActivityGroupSummary
}

// SessionSummary rolls up per-pipeline summaries for a migration session.
type SessionSummary struct {
	SessionID         string
	Pipelines         []PipelineMappingSummary
	TotalReferences   int
	MappedReferences  int
	MappingPercentage int
	ReadyToDeploy     bool
}
