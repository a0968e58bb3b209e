package export

import (
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"fabric-bridge/internal/domain"
)

// SessionState is the declarative YAML form of a session's mapping work.
// It carries only the user's decisions, not the scanned references — those
// are reproducible from the source export.
type SessionState struct {
	Session  string         `yaml:"session"`
	Factory  string         `yaml:"factory,omitempty"`
	Mappings []MappingState `yaml:"mappings"`
}

// MappingState is one mapping decision in declarative form.
type MappingState struct {
	Reference     string `yaml:"reference"`
	ConnectionID  string `yaml:"connection_id"`
	Origin        string `yaml:"origin"`
	LinkedService string `yaml:"linked_service,omitempty"`
}

// WriteSessionYAML serializes a session's mappings, sorted by reference id so
// the output diffs cleanly under source control.
func WriteSessionYAML(w io.Writer, session *domain.MigrationSession, mappings []domain.ConnectionMapping) error {
	state := SessionState{
		Session: session.Name,
		Factory: session.FactoryName,
	}
	for _, m := range mappings {
		if !m.IsMapped() {
			continue
		}
		state.Mappings = append(state.Mappings, MappingState{
			Reference:     m.ReferenceID,
			ConnectionID:  m.SelectedConnectionID,
			Origin:        m.Origin,
			LinkedService: m.LinkedServiceName,
		})
	}
	sort.Slice(state.Mappings, func(i, j int) bool {
		return state.Mappings[i].Reference < state.Mappings[j].Reference
	})

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&state); err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	return enc.Close()
}

// ReadSessionYAML parses a declarative session-state document.
func ReadSessionYAML(r io.Reader) (*SessionState, error) {
	var state SessionState
	if err := yaml.NewDecoder(r).Decode(&state); err != nil {
		return nil, fmt.Errorf("decode session state: %w", err)
	}
	if state.Session == "" {
		return nil, domain.ErrValidation("session name is required")
	}
	for i, m := range state.Mappings {
		if m.Reference == "" || m.ConnectionID == "" {
			return nil, domain.ErrValidation("mapping %d: reference and connection_id are required", i)
		}
	}
	return &state, nil
}
