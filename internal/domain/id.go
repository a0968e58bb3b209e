package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID generates a UUIDv7 string for application-owned entities.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ReferenceID builds the deterministic composite id for an activity reference.
// It must be stable across repeated extraction runs on the same pipeline
// definition so that previously entered mappings are not orphaned by a rescan.
func ReferenceID(pipelineName, activityName, location string, index int) string {
	return fmt.Sprintf("%s/%s/%s/%d", pipelineName, activityName, location, index)
}
