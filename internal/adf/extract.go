package adf

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"fabric-bridge/internal/domain"
)

// Extractor walks pipeline activity trees and produces the flat list of
// linked-service/dataset references each activity makes. Extraction is
// per-activity fault isolated: a malformed activity yields whatever
// references can still be recovered and never discards its siblings.
type Extractor struct {
	datasets DatasetIndex
	logger   *slog.Logger
}

// NewExtractor creates an Extractor. The dataset index resolves dataset
// references to linked-service names; it may be empty.
func NewExtractor(datasets DatasetIndex, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{datasets: datasets, logger: logger}
}

// extractFunc produces references for one activity. Container handlers recurse.
type extractFunc func(e *Extractor, w *walk, act Activity) []domain.ActivityReference

// extractors dispatches on the activity's type tag. Activity types without an
// entry fall through to the generic activity-level handler. Populated in
// init because the container handlers recurse through extractActivity, which
// reads this map back.
var extractors map[string]extractFunc

func init() {
	extractors = map[string]extractFunc{
		ActivityTypeCopy:            extractCopy,
		ActivityTypeLookup:          extractDatasetActivity,
		ActivityTypeGetMetadata:     extractDatasetActivity,
		ActivityTypeDelete:          extractDatasetActivity,
		ActivityTypeExecutePipeline: extractExecutePipeline,
		ActivityTypeForEach:         extractForEach,
		ActivityTypeIfCondition:     extractIfCondition,
		ActivityTypeUntil:           extractUntil,
		ActivityTypeSwitch:          extractSwitch,
	}
}

// walk carries per-traversal state: the owning pipeline, the container path,
// and per-(activity, location) counters for stable reference indexes.
type walk struct {
	pipelineName string
	nesting      []string
	counters     map[string]int
}

func (w *walk) nested() bool { return len(w.nesting) > 0 }

func (w *walk) path() string {
	if len(w.nesting) == 0 {
		return ""
	}
	out := w.nesting[0]
	for _, p := range w.nesting[1:] {
		out += " > " + p
	}
	return out
}

func (w *walk) push(segment string) { w.nesting = append(w.nesting, segment) }
func (w *walk) pop()                { w.nesting = w.nesting[:len(w.nesting)-1] }

// nextIndex hands out 0,1,2,… per (activity, location) pair in traversal
// order, which is deterministic for a given pipeline definition.
func (w *walk) nextIndex(activityName, location string) int {
	key := activityName + "\x00" + location
	idx := w.counters[key]
	w.counters[key] = idx + 1
	return idx
}

// ExtractReferences traverses the pipeline's activity tree, including nested
// ForEach/If/Until/Switch containers, and returns all recoverable references.
// An empty pipeline yields an empty list.
func (e *Extractor) ExtractReferences(doc PipelineDocument) []domain.ActivityReference {
	w := &walk{pipelineName: doc.Name, counters: make(map[string]int)}
	return e.extractActivities(w, doc.Properties.Activities)
}

func (e *Extractor) extractActivities(w *walk, activities []Activity) []domain.ActivityReference {
	refs := []domain.ActivityReference{}
	for _, act := range activities {
		refs = append(refs, e.extractActivity(w, act)...)
	}
	return refs
}

func (e *Extractor) extractActivity(w *walk, act Activity) []domain.ActivityReference {
	fn, ok := extractors[act.Type]
	if !ok {
		fn = extractActivityLevel
	}
	return fn(e, w, act)
}

// newRef fills in the walk-derived fields shared by every reference.
func (e *Extractor) newRef(w *walk, act Activity, location string) domain.ActivityReference {
	return domain.ActivityReference{
		PipelineName: w.pipelineName,
		ActivityName: act.Name,
		ActivityType: act.Type,
		Location:     location,
		Index:        w.nextIndex(act.Name, location),
		IsNested:     w.nested(),
		NestingPath:  w.path(),
	}
}

// decodeProps decodes the raw typeProperties into out. A missing or malformed
// payload is logged and reported as false; the caller recovers what it can.
func (e *Extractor) decodeProps(w *walk, act Activity, out interface{}) bool {
	if len(act.TypeProperties) == 0 {
		e.logger.Warn("activity has no typeProperties",
			"pipeline", w.pipelineName, "activity", act.Name, "type", act.Type)
		return false
	}
	if err := json.Unmarshal(act.TypeProperties, out); err != nil {
		e.logger.Warn("malformed activity typeProperties",
			"pipeline", w.pipelineName, "activity", act.Name, "type", act.Type, "error", err)
		return false
	}
	return true
}

// --- per-type handlers ---

// copyEndpoint is the source or sink block of a Copy activity.
type copyEndpoint struct {
	Type              string      `json:"type"`
	LinkedServiceName *ServiceRef `json:"linkedServiceName,omitempty"`
}

type copyProps struct {
	Source *copyEndpoint `json:"source"`
	Sink   *copyEndpoint `json:"sink"`
}

// extractCopy emits distinct source and sink references, even when both point
// at the same linked service. The linked service is taken from the endpoint
// block when present, otherwise resolved through the input/output dataset.
func extractCopy(e *Extractor, w *walk, act Activity) []domain.ActivityReference {
	var props copyProps
	if !e.decodeProps(w, act, &props) {
		return nil
	}

	refs := []domain.ActivityReference{}
	if props.Source != nil {
		ref := e.newRef(w, act, domain.LocationSource)
		ref.LinkedServiceName, ref.DatasetName = e.resolveEndpoint(props.Source, act.Inputs)
		refs = append(refs, ref)
	}
	if props.Sink != nil {
		ref := e.newRef(w, act, domain.LocationSink)
		ref.LinkedServiceName, ref.DatasetName = e.resolveEndpoint(props.Sink, act.Outputs)
		refs = append(refs, ref)
	}
	return refs
}

func (e *Extractor) resolveEndpoint(ep *copyEndpoint, datasets []ServiceRef) (linkedService, dataset string) {
	if ep.LinkedServiceName != nil {
		linkedService = ep.LinkedServiceName.ReferenceName
	}
	if len(datasets) > 0 {
		dataset = datasets[0].ReferenceName
		if linkedService == "" {
			linkedService = e.datasets[dataset]
		}
	}
	return linkedService, dataset
}

type datasetProps struct {
	Dataset *ServiceRef `json:"dataset"`
}

// extractDatasetActivity handles Lookup/GetMetadata-style activities that
// reference a single dataset.
func extractDatasetActivity(e *Extractor, w *walk, act Activity) []domain.ActivityReference {
	var props datasetProps
	if !e.decodeProps(w, act, &props) || props.Dataset == nil {
		return nil
	}
	ref := e.newRef(w, act, domain.LocationDataset)
	ref.DatasetName = props.Dataset.ReferenceName
	ref.LinkedServiceName = e.datasets[props.Dataset.ReferenceName]
	return []domain.ActivityReference{ref}
}

type executePipelineProps struct {
	Pipeline *ServiceRef `json:"pipeline"`
}

// extractExecutePipeline emits an invoke-pipeline reference carrying the
// target pipeline's name instead of a linked-service name. Callers must map
// it to a pipeline-type connection, not a data-source connector.
func extractExecutePipeline(e *Extractor, w *walk, act Activity) []domain.ActivityReference {
	var props executePipelineProps
	if !e.decodeProps(w, act, &props) || props.Pipeline == nil {
		return nil
	}
	ref := e.newRef(w, act, domain.LocationInvokePipeline)
	ref.TargetPipelineName = props.Pipeline.ReferenceName
	return []domain.ActivityReference{ref}
}

type forEachProps struct {
	Activities []Activity `json:"activities"`
}

func extractForEach(e *Extractor, w *walk, act Activity) []domain.ActivityReference {
	var props forEachProps
	if !e.decodeProps(w, act, &props) {
		return nil
	}
	w.push(ActivityTypeForEach)
	defer w.pop()
	return e.extractActivities(w, props.Activities)
}

type ifConditionProps struct {
	IfTrueActivities  []Activity `json:"ifTrueActivities"`
	IfFalseActivities []Activity `json:"ifFalseActivities"`
}

func extractIfCondition(e *Extractor, w *walk, act Activity) []domain.ActivityReference {
	var props ifConditionProps
	if !e.decodeProps(w, act, &props) {
		return nil
	}

	refs := []domain.ActivityReference{}
	w.push("IfCondition(true-branch)")
	refs = append(refs, e.extractActivities(w, props.IfTrueActivities)...)
	w.pop()
	w.push("IfCondition(false-branch)")
	refs = append(refs, e.extractActivities(w, props.IfFalseActivities)...)
	w.pop()
	return refs
}

type untilProps struct {
	Activities []Activity `json:"activities"`
}

func extractUntil(e *Extractor, w *walk, act Activity) []domain.ActivityReference {
	var props untilProps
	if !e.decodeProps(w, act, &props) {
		return nil
	}
	w.push(ActivityTypeUntil)
	defer w.pop()
	return e.extractActivities(w, props.Activities)
}

type switchCase struct {
	Value      string     `json:"value"`
	Activities []Activity `json:"activities"`
}

type switchProps struct {
	Cases             []switchCase `json:"cases"`
	DefaultActivities []Activity   `json:"defaultActivities"`
}

func extractSwitch(e *Extractor, w *walk, act Activity) []domain.ActivityReference {
	var props switchProps
	if !e.decodeProps(w, act, &props) {
		return nil
	}

	refs := []domain.ActivityReference{}
	for _, c := range props.Cases {
		w.push(fmt.Sprintf("Switch(case=%s)", c.Value))
		refs = append(refs, e.extractActivities(w, c.Activities)...)
		w.pop()
	}
	w.push("Switch(default)")
	refs = append(refs, e.extractActivities(w, props.DefaultActivities)...)
	w.pop()
	return refs
}

// extractActivityLevel is the fallback for activity types without a dedicated
// handler: it surfaces the activity-level linked-service reference when one
// exists (Web, AzureFunction, HDInsight, stored procedure, …).
func extractActivityLevel(e *Extractor, w *walk, act Activity) []domain.ActivityReference {
	if act.LinkedServiceName == nil || act.LinkedServiceName.ReferenceName == "" {
		return nil
	}
	ref := e.newRef(w, act, domain.LocationActivityLevel)
	ref.LinkedServiceName = act.LinkedServiceName.ReferenceName
	return []domain.ActivityReference{ref}
}
