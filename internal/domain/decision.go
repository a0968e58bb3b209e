package domain

import "time"

// VerificationStatus reports whether the supported-connector list could be
// fetched from the Fabric metadata API.
type VerificationStatus string

const (
	// VerificationAvailable means a successful fetch has completed and the
	// snapshot contents can be trusted.
	VerificationAvailable VerificationStatus = "available"
	// VerificationUnavailable means the metadata source could not be reached.
	// It must never be conflated with an empty-but-available snapshot.
	VerificationUnavailable VerificationStatus = "unavailable"
)

// SupportedTypesSnapshot is a point-in-time set of Fabric-supported connector
// type names plus the verification status of the fetch that produced it.
type SupportedTypesSnapshot struct {
	Status    VerificationStatus
	Types     []string
	FetchedAt time.Time
}

// Contains reports whether fabricType is present in the snapshot. The answer
// is only trustworthy when Status == VerificationAvailable.
func (s SupportedTypesSnapshot) Contains(fabricType string) bool {
	for _, t := range s.Types {
		if t == fabricType {
			return true
		}
	}
	return false
}

// SkipDecision records whether migration of one source connector type should
// be skipped. ShouldSkip may only be true when Status == VerificationAvailable
// and the mapped Fabric type is confirmed absent from the snapshot.
type SkipDecision struct {
	SourceType     string
	FabricType     string
	ShouldSkip     bool
	Reason         string
	Status         VerificationStatus
	AvailableTypes []string
}
