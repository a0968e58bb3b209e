// Package adf models Azure Data Factory ARM-template exports and extracts
// linked-service/dataset references from pipeline activity trees.
package adf

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Activity type constants for the subset of ADF activities the extractor
// understands structurally. Anything else falls through to the generic
// activity-level handler.
const (
	ActivityTypeCopy            = "Copy"
	ActivityTypeLookup          = "Lookup"
	ActivityTypeGetMetadata     = "GetMetadata"
	ActivityTypeDelete          = "Delete"
	ActivityTypeExecutePipeline = "ExecutePipeline"
	ActivityTypeForEach         = "ForEach"
	ActivityTypeIfCondition     = "IfCondition"
	ActivityTypeUntil           = "Until"
	ActivityTypeSwitch          = "Switch"
)

// ServiceRef is an ADF reference object (linked service, dataset, or pipeline).
type ServiceRef struct {
	ReferenceName string `json:"referenceName"`
	Type          string `json:"type,omitempty"`
}

// Activity is one node in a pipeline activity tree. TypeProperties is kept raw
// and decoded per activity type by the extractor's dispatch table, so a shape
// mismatch in one activity never aborts decoding of its siblings.
type Activity struct {
	Name              string          `json:"name"`
	Type              string          `json:"type"`
	LinkedServiceName *ServiceRef     `json:"linkedServiceName,omitempty"`
	Inputs            []ServiceRef    `json:"inputs,omitempty"`
	Outputs           []ServiceRef    `json:"outputs,omitempty"`
	TypeProperties    json.RawMessage `json:"typeProperties,omitempty"`
}

// PipelineProperties wraps the activity list of a pipeline resource.
type PipelineProperties struct {
	Activities []Activity `json:"activities"`
}

// PipelineDocument is a parsed ADF pipeline resource from an ARM export.
type PipelineDocument struct {
	Name       string             `json:"name"`
	Properties PipelineProperties `json:"properties"`
}

// DatasetProperties wraps the linked-service reference of a dataset resource.
type DatasetProperties struct {
	LinkedServiceName *ServiceRef `json:"linkedServiceName,omitempty"`
	Type              string      `json:"type,omitempty"`
}

// DatasetDocument is a parsed ADF dataset resource from an ARM export.
type DatasetDocument struct {
	Name       string            `json:"name"`
	Properties DatasetProperties `json:"properties"`
}

// LinkedServiceProperties wraps the connector type of a linked-service resource.
type LinkedServiceProperties struct {
	Type string `json:"type"`
}

// LinkedServiceDocument is a parsed ADF linked-service resource.
type LinkedServiceDocument struct {
	Name       string                  `json:"name"`
	Properties LinkedServiceProperties `json:"properties"`
}

// DatasetIndex resolves dataset names to the linked-service name each dataset
// is bound to.
type DatasetIndex map[string]string

// NewDatasetIndex builds a DatasetIndex from dataset documents. Datasets
// without a linked-service reference are ignored.
func NewDatasetIndex(datasets []DatasetDocument) DatasetIndex {
	idx := make(DatasetIndex, len(datasets))
	for _, d := range datasets {
		if d.Name == "" || d.Properties.LinkedServiceName == nil {
			continue
		}
		idx[d.Name] = d.Properties.LinkedServiceName.ReferenceName
	}
	return idx
}

// FactoryExport bundles the parsed resources of one ARM-template export.
type FactoryExport struct {
	FactoryName    string
	Pipelines      []PipelineDocument
	Datasets       []DatasetDocument
	LinkedServices []LinkedServiceDocument
}

// LinkedServiceTypes returns the connector type per linked-service name.
func (e *FactoryExport) LinkedServiceTypes() map[string]string {
	types := make(map[string]string, len(e.LinkedServices))
	for _, ls := range e.LinkedServices {
		if ls.Name != "" {
			types[ls.Name] = ls.Properties.Type
		}
	}
	return types
}

// armResource is one entry in an ARM template's resources array.
type armResource struct {
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Properties json.RawMessage `json:"properties"`
}

// armTemplate is the outer shape of an ARM-template export.
type armTemplate struct {
	Resources []armResource `json:"resources"`
}

// ARM resource type suffixes (the full type is
// "Microsoft.DataFactory/factories/<kind>").
const (
	resourcePipelines      = "pipelines"
	resourceDatasets       = "datasets"
	resourceLinkedServices = "linkedservices"
)

// ParseARMTemplate decodes an ARM-template export into a FactoryExport.
// Resource names in ARM exports are composite ("factory/entity"); the factory
// segment is stripped. Unrecognized resource kinds are skipped.
func ParseARMTemplate(data []byte) (*FactoryExport, error) {
	var tmpl armTemplate
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parse ARM template: %w", err)
	}

	export := &FactoryExport{}
	for _, res := range tmpl.Resources {
		kind := strings.ToLower(res.Type)
		factory, entity := splitResourceName(res.Name)
		if export.FactoryName == "" && factory != "" {
			export.FactoryName = factory
		}

		switch {
		case strings.HasSuffix(kind, "/"+resourcePipelines):
			var props PipelineProperties
			if err := json.Unmarshal(res.Properties, &props); err != nil {
				return nil, fmt.Errorf("parse pipeline %q: %w", entity, err)
			}
			export.Pipelines = append(export.Pipelines, PipelineDocument{Name: entity, Properties: props})
		case strings.HasSuffix(kind, "/"+resourceDatasets):
			var props DatasetProperties
			if err := json.Unmarshal(res.Properties, &props); err != nil {
				return nil, fmt.Errorf("parse dataset %q: %w", entity, err)
			}
			export.Datasets = append(export.Datasets, DatasetDocument{Name: entity, Properties: props})
		case strings.HasSuffix(kind, "/"+resourceLinkedServices):
			var props LinkedServiceProperties
			if err := json.Unmarshal(res.Properties, &props); err != nil {
				return nil, fmt.Errorf("parse linked service %q: %w", entity, err)
			}
			export.LinkedServices = append(export.LinkedServices, LinkedServiceDocument{Name: entity, Properties: props})
		}
	}
	return export, nil
}

// splitResourceName splits an ARM composite name like
// "[concat(parameters('factoryName'), '/orders_daily')]" or "myfactory/orders_daily"
// into factory and entity segments.
func splitResourceName(name string) (factory, entity string) {
	cleaned := name
	if strings.HasPrefix(cleaned, "[") {
		// Template expression — pull out the last string literal.
		if i := strings.LastIndex(cleaned, "'"); i > 0 {
			if j := strings.LastIndex(cleaned[:i], "'"); j >= 0 {
				cleaned = strings.TrimPrefix(cleaned[j+1:i], "/")
			}
		}
	}
	if i := strings.LastIndex(cleaned, "/"); i >= 0 {
		return cleaned[:i], cleaned[i+1:]
	}
	return "", cleaned
}
