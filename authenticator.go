package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// registrationTimeout bounds the transactional part of account creation.
const registrationTimeout = 10 * time.Second

// Authenticator is the entry point for credential checks, account
// provisioning, and password maintenance. Every security-relevant operation
// it performs leaves an audit record through the configured AuditRecorder.
type Authenticator struct {
	repo   RepositoryManager
	tokens TokenService
	audit  AuditRecorder
	logger Logger
	now    func() time.Time
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, opts Config) *Authenticator {
	return &Authenticator{
		repo:   repo,
		tokens: NewTokenIssuer(opts, defLogger{}),
		audit:  noopAuditRecorder{},
		logger: defLogger{},
		now:    time.Now,
	}
}

func (s *Authenticator) WithLogger(logger Logger) *Authenticator {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithAuditRecorder configures an AuditRecorder for persisting audit entries.
func (s *Authenticator) WithAuditRecorder(recorder AuditRecorder) *Authenticator {
	s.audit = normalizeAuditRecorder(recorder)
	return s
}

// WithTokenService sets a custom token service
func (s *Authenticator) WithTokenService(tokens TokenService) *Authenticator {
	if tokens != nil {
		s.tokens = tokens
	}
	return s
}

// WithClock overrides the time source, mostly for tests
func (s *Authenticator) WithClock(now func() time.Time) *Authenticator {
	if now != nil {
		s.now = now
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Authenticator) TokenService() TokenService {
	return s.tokens
}

// RequestMeta carries origin details attached to audit records.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// LoginResult is the outcome of a successful login
type LoginResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         *User  `json:"user"`
}

// Login verifies the email/password pair and returns signed tokens. All the
// failure modes carry distinct internal errors but the endpoint layer must
// collapse them into a single generic message.
func (s *Authenticator) Login(ctx context.Context, email, password string, meta RequestMeta) (*LoginResult, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.logger.Warn("Login attempt for unknown email", "email", email)
			return nil, ErrIdentityNotFound
		}
		s.logger.Error("Login user lookup failed", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up user")
	}

	if !user.IsActive {
		s.logger.Warn("Login blocked for deactivated account", "user_id", user.ID)
		return nil, ErrAccountDeactivated
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Warn("Login password mismatch", "user_id", user.ID)
		return nil, ErrMismatchedHashAndPassword
	}

	token, err := s.tokens.Issue(user.Identity())
	if err != nil {
		s.logger.Error("Login token issue failed", "error", err)
		return nil, err
	}

	refresh, err := s.tokens.IssueRefresh(user.ID.String())
	if err != nil {
		s.logger.Error("Login refresh token issue failed", "error", err)
		return nil, err
	}

	s.recordAudit(ctx, AuditEntry{
		Action:     AuditActionLogin,
		EntityType: AuditEntityUser,
		EntityID:   user.ID.String(),
		UserID:     user.ID.String(),
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	})

	return &LoginResult{
		Token:        token,
		RefreshToken: refresh,
		User:         user.Sanitize(),
	}, nil
}

// RegisterInput is the payload for provisioning a new account. Only callers
// holding a user-management role may reach this operation.
type RegisterInput struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	Phone        string
	Role         UserRole
	SupervisorID *uuid.UUID
	UseHashid    bool
}

// Register provisions a new account on behalf of creatorID. The email must be
// unused and the role must be one of the known values.
func (s *Authenticator) Register(ctx context.Context, input RegisterInput, creatorID uuid.UUID, meta RequestMeta) (*User, error) {
	if !input.Role.IsValid() {
		return nil, errors.New("unknown user role", errors.CategoryValidation).
			WithTextCode(TextCodeInvalidRole).
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{
				"role": string(input.Role),
			})
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Users().GetByEmail(ctx, input.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !repository.IsRecordNotFound(err) {
		s.logger.Error("Register duplicate check failed", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check for existing user")
	}

	user := &User{
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		Role:         input.Role,
		IsActive:     true,
		SupervisorID: input.SupervisorID,
	}

	if input.UseHashid {
		if id, err := hashid.NewUUID(input.Email); err == nil {
			user.ID = id
		}
	}

	ctx, cancel := context.WithTimeout(ctx, registrationTimeout)
	defer cancel()

	var created *User
	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		created, txErr = s.repo.Users().CreateTx(ctx, tx, user)
		return txErr
	})

	if err != nil {
		s.logger.Error("Register create failed", "error", err, "email", input.Email)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create user")
	}

	s.recordAudit(ctx, AuditEntry{
		Action:     AuditActionCreate,
		EntityType: AuditEntityUser,
		EntityID:   created.ID.String(),
		UserID:     creatorID.String(),
		NewValues: map[string]any{
			"email": created.Email,
			"role":  string(created.Role),
		},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	return created.Sanitize(), nil
}

// ChangePassword swaps the stored hash after proving the caller knows the
// current password. The caller is already authenticated, so the error for a
// wrong current password is precise rather than generic.
func (s *Authenticator) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string, meta RequestMeta) error {
	user, err := s.repo.Users().GetByID(ctx, userID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrIdentityNotFound
		}
		s.logger.Error("ChangePassword user lookup failed", "error", err)
		return errors.Wrap(err, errors.CategoryInternal, "failed to look up user")
	}

	if err := ComparePasswordAndHash(currentPassword, user.PasswordHash); err != nil {
		s.logger.Warn("ChangePassword current password mismatch", "user_id", user.ID)
		return ErrCurrentPasswordInvalid
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return s.repo.Users().UpdatePasswordTx(ctx, tx, user.ID, hash)
	})

	if err != nil {
		s.logger.Error("ChangePassword update failed", "error", err, "user_id", user.ID)
		return errors.Wrap(err, errors.CategoryInternal, "failed to update password")
	}

	s.recordAudit(ctx, AuditEntry{
		Action:     AuditActionUpdate,
		EntityType: AuditEntityUser,
		EntityID:   user.ID.String(),
		UserID:     user.ID.String(),
		NewValues: map[string]any{
			"password_changed": true,
		},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})

	return nil
}

// VerifyToken validates a signed token and returns its claims
func (s *Authenticator) VerifyToken(token string) (*SessionClaims, error) {
	return s.tokens.Verify(token)
}

// Me returns the caller's profile with supervisor relations loaded. The
// password hash is stripped from the record and every loaded relation.
func (s *Authenticator) Me(ctx context.Context, userID uuid.UUID) (*User, error) {
	user, err := s.repo.Users().GetWithRelations(ctx, userID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		s.logger.Error("Me user lookup failed", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user")
	}

	return user.Sanitize(), nil
}

// recordAudit persists an audit entry best-effort. Failures are logged and
// swallowed so they can never abort the audited operation.
func (s *Authenticator) recordAudit(ctx context.Context, entry AuditEntry) {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = s.now()
	}

	recorder := normalizeAuditRecorder(s.audit)
	if err := recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("audit recorder error: %v", err)
	}
}
