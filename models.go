package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the credential-store record for a platform member. The password is
// only ever persisted as a bcrypt hash and is excluded from JSON output.
type User struct {
	bun.BaseModel   `bun:"table:users,alias:usr"`
	ID              uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email           string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash    string     `bun:"password_hash,notnull" json:"-"`
	FirstName       string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName        string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Phone           string     `bun:"phone_number" json:"phone_number,omitempty"`
	Role            UserRole   `bun:"user_role,notnull" json:"role,omitempty"`
	IsActive        bool       `bun:"is_active,notnull" json:"is_active"`
	SupervisorID    *uuid.UUID `bun:"supervisor_id,nullzero,type:uuid" json:"supervisor_id,omitempty"`
	Supervisor      *User      `bun:"rel:belongs-to,join:supervisor_id=id" json:"supervisor,omitempty"`
	SupervisedUsers []*User    `bun:"rel:has-many,join:id=supervisor_id" json:"supervised_users,omitempty"`
	CreatedAt       *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// FullName returns the user's display name
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// Sanitize returns a copy of the user safe to hand to callers: the password
// hash is cleared on the record and on any loaded relations.
func (u *User) Sanitize() *User {
	if u == nil {
		return nil
	}

	clone := *u
	clone.PasswordHash = ""

	if u.Supervisor != nil {
		clone.Supervisor = u.Supervisor.Sanitize()
	}

	if len(u.SupervisedUsers) > 0 {
		clone.SupervisedUsers = make([]*User, 0, len(u.SupervisedUsers))
		for _, s := range u.SupervisedUsers {
			clone.SupervisedUsers = append(clone.SupervisedUsers, s.Sanitize())
		}
	}

	return &clone
}

// Identity adapts the user record to the Identity contract used by the token
// service.
func (u *User) Identity() Identity {
	return userIdentity{
		id:    u.ID.String(),
		email: u.Email,
		role:  string(u.Role),
	}
}

type userIdentity struct {
	id    string
	email string
	role  string
}

func (i userIdentity) ID() string    { return i.id }
func (i userIdentity) Email() string { return i.email }
func (i userIdentity) Role() string  { return i.role }

var _ Identity = userIdentity{}

// AuditLog is an immutable record of a security-relevant action. Rows are
// insert-only: nothing in this package updates or deletes them.
type AuditLog struct {
	bun.BaseModel  `bun:"table:audit_logs,alias:adt"`
	ID             uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Action         AuditAction    `bun:"action,notnull" json:"action,omitempty"`
	EntityType     string         `bun:"entity_type,notnull" json:"entity_type,omitempty"`
	EntityID       string         `bun:"entity_id" json:"entity_id,omitempty"`
	UserID         *uuid.UUID     `bun:"user_id,nullzero,type:uuid" json:"user_id,omitempty"`
	PreviousValues map[string]any `bun:"previous_values,type:jsonb" json:"previous_values,omitempty"`
	NewValues      map[string]any `bun:"new_values,type:jsonb" json:"new_values,omitempty"`
	IPAddress      string         `bun:"ip_address" json:"ip_address,omitempty"`
	UserAgent      string         `bun:"user_agent" json:"user_agent,omitempty"`
	CreatedAt      *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
