package domain

import "time"

// AuditEntry represents a single audit log record for a session action.
type AuditEntry struct {
	ID            string
	SessionID     string
	PrincipalName string
	Action        string // e.g. "session.scan", "mapping.set"
	Detail        *string
	Status        string // "success" or "error"
	ErrorMessage  *string
	CreatedAt     time.Time
}
