package auth

import (
	"context"
	"time"
)

// AuditAction enumerates the recorded action verbs.
type AuditAction string

const (
	AuditActionLogin    AuditAction = "LOGIN"
	AuditActionLogout   AuditAction = "LOGOUT"
	AuditActionCreate   AuditAction = "CREATE"
	AuditActionUpdate   AuditAction = "UPDATE"
	AuditActionDelete   AuditAction = "DELETE"
	AuditActionUpload   AuditAction = "UPLOAD"
	AuditActionDownload AuditAction = "DOWNLOAD"
)

// Audited entity kinds.
const (
	AuditEntityUser     = "USER"
	AuditEntityDocument = "DOCUMENT"
)

// AuditEntry captures audit-trail information about an action.
type AuditEntry struct {
	Action         AuditAction
	EntityType     string
	EntityID       string
	UserID         string
	PreviousValues map[string]any
	NewValues      map[string]any
	IPAddress      string
	UserAgent      string
	OccurredAt     time.Time
}

// AuditRecorder consumes audit entries. Recording is best-effort: a failing
// recorder must never abort the operation being audited.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// AuditRecorderFunc adapts a function to the AuditRecorder interface.
type AuditRecorderFunc func(ctx context.Context, entry AuditEntry) error

// Record implements AuditRecorder.
func (f AuditRecorderFunc) Record(ctx context.Context, entry AuditEntry) error {
	if f == nil {
		return nil
	}
	return f(ctx, entry)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) error {
	return nil
}

func normalizeAuditRecorder(r AuditRecorder) AuditRecorder {
	if r == nil {
		return noopAuditRecorder{}
	}
	return r
}
