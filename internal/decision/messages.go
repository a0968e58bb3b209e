package decision

import (
	"fmt"
	"strings"

	"fabric-bridge/internal/domain"
)

// DecisionMessage renders a skip decision for the UI and CLI. An "Available
// types:" section is only rendered when there are types to list; a genuinely
// empty available snapshot is stated outright instead of leaving a dangling
// empty list.
func DecisionMessage(d domain.SkipDecision) string {
	var b strings.Builder

	switch {
	case d.Status == domain.VerificationUnavailable:
		fmt.Fprintf(&b, "Could not verify Fabric support for %q: %s.", d.SourceType, ReasonUnavailable)
	case d.ShouldSkip:
		fmt.Fprintf(&b, "Skipping %q (maps to %q): %s.", d.SourceType, d.FabricType, d.Reason)
	default:
		fmt.Fprintf(&b, "Including %q (maps to %q): %s.", d.SourceType, d.FabricType, d.Reason)
	}

	if d.Status == domain.VerificationAvailable {
		if len(d.AvailableTypes) > 0 {
			fmt.Fprintf(&b, " Available types: %s.", strings.Join(d.AvailableTypes, ", "))
		} else {
			b.WriteString(" The supported-connector list is currently empty.")
		}
	}
	return b.String()
}

// SuggestedAlternativesMessage proposes supported types for a skipped
// connector. Returns an empty string when there is nothing useful to suggest.
func SuggestedAlternativesMessage(d domain.SkipDecision) string {
	if !d.ShouldSkip || d.Status != domain.VerificationAvailable {
		return ""
	}
	if len(d.AvailableTypes) == 0 {
		return fmt.Sprintf("No alternatives available for %q: the supported-connector list is currently empty.", d.SourceType)
	}
	return fmt.Sprintf("Consider one of the supported Fabric connector types instead of %q: %s.",
		d.SourceType, strings.Join(d.AvailableTypes, ", "))
}
