package domain

import "time"

// MigrationSession scopes one migration effort: the scanned pipelines, their
// extracted references, and the mapping work done against them. Mapping state
// lives inside a session and never leaks across sessions.
type MigrationSession struct {
	ID          string
	Name        string
	Description string
	FactoryName string // source Data Factory the exports came from
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateSessionRequest holds parameters for creating a migration session.
type CreateSessionRequest struct {
	Name        string
	Description string
	FactoryName string
}

// Validate checks that the request is well-formed.
func (r *CreateSessionRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("name is required")
	}
	return nil
}
