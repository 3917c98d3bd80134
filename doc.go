// Package auth implements the authentication and audit-trail core of the
// CRA Saint-Louis research-institute platform: credential verification,
// registration by privileged users, password changes, JWT issuance and
// verification, and append-only audit logging of security-relevant actions.
//
// Audit recording:
//   - AuditRecorder consumes AuditEntry values describing who did what, to
//     what, when, and from where. Recorders run best-effort (errors are
//     logged) so forwarding to a database or queue never blocks
//     authentication.
//
// Storage:
//   - The credential store (users) and audit trail (audit_logs) are persisted
//     via Bun repositories. PostgreSQL is the production target; the SQL
//     migrations under data/sql/migrations are exposed through
//     GetMigrationsFS for the host application to run.
//
// All services are constructed explicitly and receive their collaborators by
// injection; the package holds no global mutable state.
package auth
