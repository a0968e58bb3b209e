package decision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabric-bridge/internal/domain"
	"fabric-bridge/internal/testutil"
)

func TestDecide_VerificationUnavailable_NeverSkips(t *testing.T) {
	engine := NewEngine(testutil.UnavailableTypes())

	for _, adfType := range []string{"SqlServer", "UnknownConnectorType123", "HttpServer", ""} {
		d := engine.Decide(context.Background(), adfType)
		assert.False(t, d.ShouldSkip, "type %q must not be skipped when verification is unavailable", adfType)
		assert.Equal(t, domain.VerificationUnavailable, d.Status)
		assert.Equal(t, ReasonUnavailable, d.Reason)
		assert.Empty(t, d.AvailableTypes)
		assert.NotNil(t, d.AvailableTypes)
	}
}

func TestDecide_SupportedType(t *testing.T) {
	engine := NewEngine(testutil.AvailableTypes("SQL", "Web", "AzureBlobs"))

	d := engine.Decide(context.Background(), "SqlServer")
	assert.Equal(t, "SqlServer", d.SourceType)
	assert.Equal(t, "SQL", d.FabricType)
	assert.False(t, d.ShouldSkip)
	assert.Equal(t, ReasonSupported, d.Reason)
	assert.Equal(t, []string{"SQL", "Web", "AzureBlobs"}, d.AvailableTypes)
}

func TestDecide_UnsupportedType(t *testing.T) {
	engine := NewEngine(testutil.AvailableTypes("SQL", "Web"))

	d := engine.Decide(context.Background(), "UnknownConnectorType123")
	assert.Equal(t, "UnknownConnectorType123", d.FabricType, "unmapped type keeps its own name")
	assert.True(t, d.ShouldSkip)
	assert.Equal(t, ReasonNotFound, d.Reason)
}

func TestDecide_SkipUsesMappedType(t *testing.T) {
	// HttpServer maps to Web; support is judged against the mapped name.
	engine := NewEngine(testutil.AvailableTypes("Web"))
	d := engine.Decide(context.Background(), "HttpServer")
	assert.False(t, d.ShouldSkip)

	engine = NewEngine(testutil.AvailableTypes("SQL"))
	d = engine.Decide(context.Background(), "HttpServer")
	assert.True(t, d.ShouldSkip)
}

func TestDecide_EmptyAvailableListSkipsEverything(t *testing.T) {
	// Available-but-empty is a trustworthy answer: nothing is supported.
	engine := NewEngine(testutil.AvailableTypes())

	d := engine.Decide(context.Background(), "SqlServer")
	assert.True(t, d.ShouldSkip)
	assert.Equal(t, domain.VerificationAvailable, d.Status)
}

func TestDecideBatch(t *testing.T) {
	src := testutil.AvailableTypes("SQL", "Web")
	engine := NewEngine(src)

	decisions := engine.DecideBatch(context.Background(), []string{"SqlServer", "HttpServer", "Oracle"})
	require.Len(t, decisions, 3)
	assert.False(t, decisions["SqlServer"].ShouldSkip)
	assert.False(t, decisions["HttpServer"].ShouldSkip)
	assert.True(t, decisions["Oracle"].ShouldSkip)
}

func TestDecisionMessage_NeverRendersEmptyAvailableList(t *testing.T) {
	tests := []struct {
		name     string
		decision domain.SkipDecision
		contains string
	}{
		{
			name: "unavailable",
			decision: domain.SkipDecision{
				SourceType:     "SqlServer",
				FabricType:     "SQL",
				Status:         domain.VerificationUnavailable,
				Reason:         ReasonUnavailable,
				AvailableTypes: []string{},
			},
			contains: "Could not verify",
		},
		{
			name: "skip with types",
			decision: domain.SkipDecision{
				SourceType:     "Oracle",
				FabricType:     "Oracle",
				ShouldSkip:     true,
				Status:         domain.VerificationAvailable,
				Reason:         ReasonNotFound,
				AvailableTypes: []string{"SQL", "Web"},
			},
			contains: "Available types: SQL, Web",
		},
		{
			name: "skip with empty available list",
			decision: domain.SkipDecision{
				SourceType:     "Oracle",
				FabricType:     "Oracle",
				ShouldSkip:     true,
				Status:         domain.VerificationAvailable,
				Reason:         ReasonNotFound,
				AvailableTypes: []string{},
			},
			contains: "The supported-connector list is currently empty.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := DecisionMessage(tt.decision)
			assert.Contains(t, msg, tt.contains)
			if len(tt.decision.AvailableTypes) == 0 {
				assert.NotContains(t, msg, "Available types:")
			}
		})
	}
}

func TestSuggestedAlternativesMessage(t *testing.T) {
	included := domain.SkipDecision{ShouldSkip: false, Status: domain.VerificationAvailable}
	assert.Empty(t, SuggestedAlternativesMessage(included))

	unavailable := domain.SkipDecision{ShouldSkip: false, Status: domain.VerificationUnavailable}
	assert.Empty(t, SuggestedAlternativesMessage(unavailable))

	skipped := domain.SkipDecision{
		SourceType:     "Oracle",
		ShouldSkip:     true,
		Status:         domain.VerificationAvailable,
		AvailableTypes: []string{"SQL"},
	}
	assert.Contains(t, SuggestedAlternativesMessage(skipped), "SQL")

	skippedEmpty := domain.SkipDecision{
		SourceType:     "Oracle",
		ShouldSkip:     true,
		Status:         domain.VerificationAvailable,
		AvailableTypes: []string{},
	}
	assert.Contains(t, SuggestedAlternativesMessage(skippedEmpty), "currently empty")
}
