package auth_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/cra-saint-louis/go-auth"
)

func TestLogin(t *testing.T) {
	authenticator, repo := newTestAuthenticator(t)
	ctx := context.Background()

	user := seedUser(t, repo, "moussa.diop@cra.sn", "Secret123!", auth.RoleChercheur)

	t.Run("correct password returns token and sanitized user", func(t *testing.T) {
		result, err := authenticator.Login(ctx, "moussa.diop@cra.sn", "Secret123!", auth.RequestMeta{
			IPAddress: "10.0.0.1",
			UserAgent: "go-test",
		})
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.NotEmpty(t, result.Token)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, user.ID, result.User.ID)
		assert.Empty(t, result.User.PasswordHash)

		claims, err := authenticator.VerifyToken(result.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID())
		assert.Equal(t, user.Email, claims.Email())
		assert.Equal(t, string(auth.RoleChercheur), claims.Role())
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := authenticator.Login(ctx, "moussa.diop@cra.sn", "wrong", auth.RequestMeta{})
		require.Error(t, err)
		assert.True(t, auth.IsAuthFailure(err))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := authenticator.Login(ctx, "nobody@cra.sn", "Secret123!", auth.RequestMeta{})
		require.Error(t, err)
		assert.True(t, auth.IsAuthFailure(err))
	})

	t.Run("failure reasons carry the same outward message", func(t *testing.T) {
		_, errWrongPwd := authenticator.Login(ctx, "moussa.diop@cra.sn", "wrong", auth.RequestMeta{})
		_, errNotFound := authenticator.Login(ctx, "nobody@cra.sn", "Secret123!", auth.RequestMeta{})

		assert.False(t, goerrors.Is(errWrongPwd, errNotFound))
		assert.True(t, auth.IsAuthFailure(errWrongPwd))
		assert.True(t, auth.IsAuthFailure(errNotFound))
	})

	t.Run("deactivated account", func(t *testing.T) {
		_, err := repo.Users().Deactivate(ctx, user.ID)
		require.NoError(t, err)

		_, err = authenticator.Login(ctx, "moussa.diop@cra.sn", "Secret123!", auth.RequestMeta{})
		require.Error(t, err)
		assert.True(t, goerrors.Is(err, auth.ErrAccountDeactivated))
		assert.True(t, auth.IsAuthFailure(err))

		_, err = repo.Users().Reactivate(ctx, user.ID)
		require.NoError(t, err)
	})
}

func TestLoginAuditTrail(t *testing.T) {
	authenticator, repo := newTestAuthenticator(t)
	ctx := context.Background()

	user := seedUser(t, repo, "awa.fall@cra.sn", "Secret123!", auth.RoleAssistant)

	_, err := authenticator.Login(ctx, "awa.fall@cra.sn", "wrong", auth.RequestMeta{})
	require.Error(t, err)

	records, err := repo.AuditLogs().ListForEntity(ctx, auth.AuditEntityUser, user.ID.String(), 0)
	require.NoError(t, err)
	assert.Empty(t, records, "failed logins must not be audited")

	_, err = authenticator.Login(ctx, "awa.fall@cra.sn", "Secret123!", auth.RequestMeta{
		IPAddress: "192.168.1.7",
		UserAgent: "go-test",
	})
	require.NoError(t, err)

	records, err = repo.AuditLogs().ListForEntity(ctx, auth.AuditEntityUser, user.ID.String(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, auth.AuditActionLogin, records[0].Action)
	assert.Equal(t, auth.AuditEntityUser, records[0].EntityType)
	assert.Equal(t, "192.168.1.7", records[0].IPAddress)
	assert.Equal(t, "go-test", records[0].UserAgent)
	require.NotNil(t, records[0].UserID)
	assert.Equal(t, user.ID, *records[0].UserID)
}

func TestRegister(t *testing.T) {
	authenticator, repo := newTestAuthenticator(t)
	ctx := context.Background()

	creator := seedUser(t, repo, "director@cra.sn", "Secret123!", auth.RoleDirecteur)

	t.Run("creates user with hashed password", func(t *testing.T) {
		user, err := authenticator.Register(ctx, auth.RegisterInput{
			Email:     "new.user@cra.sn",
			Password:  "Secret123!",
			FirstName: "Aminata",
			LastName:  "Sarr",
			Role:      auth.RoleChercheur,
		}, creator.ID, auth.RequestMeta{})
		require.NoError(t, err)

		assert.Empty(t, user.PasswordHash)
		assert.True(t, user.IsActive)
		assert.NotEqual(t, uuid.Nil, user.ID)

		stored, err := repo.Users().GetByEmail(ctx, "new.user@cra.sn")
		require.NoError(t, err)
		assert.NotEmpty(t, stored.PasswordHash)
		assert.NotEqual(t, "Secret123!", stored.PasswordHash)
		assert.NoError(t, auth.ComparePasswordAndHash("Secret123!", stored.PasswordHash))
	})

	t.Run("audit record names creator and omits password", func(t *testing.T) {
		stored, err := repo.Users().GetByEmail(ctx, "new.user@cra.sn")
		require.NoError(t, err)

		records, err := repo.AuditLogs().ListForEntity(ctx, auth.AuditEntityUser, stored.ID.String(), 0)
		require.NoError(t, err)
		require.Len(t, records, 1)

		record := records[0]
		assert.Equal(t, auth.AuditActionCreate, record.Action)
		require.NotNil(t, record.UserID)
		assert.Equal(t, creator.ID, *record.UserID)
		assert.Equal(t, map[string]any{
			"email": "new.user@cra.sn",
			"role":  string(auth.RoleChercheur),
		}, record.NewValues)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := authenticator.Register(ctx, auth.RegisterInput{
			Email:     "new.user@cra.sn",
			Password:  "Other456!",
			FirstName: "Someone",
			LastName:  "Else",
			Role:      auth.RoleAssistant,
		}, creator.ID, auth.RequestMeta{})
		require.Error(t, err)
		assert.True(t, goerrors.Is(err, auth.ErrDuplicateEmail))
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := authenticator.Register(ctx, auth.RegisterInput{
			Email:    "bad.role@cra.sn",
			Password: "Secret123!",
			Role:     auth.UserRole("SUPERUSER"),
		}, creator.ID, auth.RequestMeta{})
		assert.Error(t, err)
	})

	t.Run("empty password", func(t *testing.T) {
		_, err := authenticator.Register(ctx, auth.RegisterInput{
			Email:    "no.pwd@cra.sn",
			Password: "",
			Role:     auth.RoleAssistant,
		}, creator.ID, auth.RequestMeta{})
		require.Error(t, err)
		assert.True(t, goerrors.Is(err, auth.ErrNoEmptyString))
	})

	t.Run("supervisor reference", func(t *testing.T) {
		user, err := authenticator.Register(ctx, auth.RegisterInput{
			Email:        "supervised@cra.sn",
			Password:     "Secret123!",
			FirstName:    "Ousmane",
			LastName:     "Ba",
			Role:         auth.RoleAssistant,
			SupervisorID: &creator.ID,
		}, creator.ID, auth.RequestMeta{})
		require.NoError(t, err)
		require.NotNil(t, user.SupervisorID)
		assert.Equal(t, creator.ID, *user.SupervisorID)
	})
}

func TestChangePassword(t *testing.T) {
	authenticator, repo := newTestAuthenticator(t)
	ctx := context.Background()

	user := seedUser(t, repo, "rotate@cra.sn", "OldSecret123!", auth.RoleChercheur)

	t.Run("wrong current password", func(t *testing.T) {
		err := authenticator.ChangePassword(ctx, user.ID, "nope", "NewSecret456!", auth.RequestMeta{})
		require.Error(t, err)
		assert.True(t, goerrors.Is(err, auth.ErrCurrentPasswordInvalid))
	})

	t.Run("rotates the stored hash", func(t *testing.T) {
		err := authenticator.ChangePassword(ctx, user.ID, "OldSecret123!", "NewSecret456!", auth.RequestMeta{})
		require.NoError(t, err)

		_, err = authenticator.Login(ctx, "rotate@cra.sn", "OldSecret123!", auth.RequestMeta{})
		require.Error(t, err)
		assert.True(t, auth.IsAuthFailure(err))

		result, err := authenticator.Login(ctx, "rotate@cra.sn", "NewSecret456!", auth.RequestMeta{})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
	})

	t.Run("audit record flags the change without the password", func(t *testing.T) {
		records, err := repo.AuditLogs().ListForUser(ctx, user.ID, 0)
		require.NoError(t, err)

		var updates []*auth.AuditLog
		for _, r := range records {
			if r.Action == auth.AuditActionUpdate {
				updates = append(updates, r)
			}
		}

		require.Len(t, updates, 1)
		assert.Equal(t, map[string]any{"password_changed": true}, updates[0].NewValues)
	})

	t.Run("unknown user", func(t *testing.T) {
		err := authenticator.ChangePassword(ctx, uuid.New(), "whatever", "NewSecret456!", auth.RequestMeta{})
		require.Error(t, err)
		assert.True(t, goerrors.Is(err, auth.ErrIdentityNotFound))
	})
}

func TestMe(t *testing.T) {
	authenticator, repo := newTestAuthenticator(t)
	ctx := context.Background()

	supervisor := seedUser(t, repo, "chief@cra.sn", "Secret123!", auth.RoleChefDepartement)

	member, err := authenticator.Register(ctx, auth.RegisterInput{
		Email:        "member@cra.sn",
		Password:     "Secret123!",
		FirstName:    "Khady",
		LastName:     "Gueye",
		Role:         auth.RoleChercheur,
		SupervisorID: &supervisor.ID,
	}, supervisor.ID, auth.RequestMeta{})
	require.NoError(t, err)

	t.Run("loads supervisor relation sanitized", func(t *testing.T) {
		profile, err := authenticator.Me(ctx, member.ID)
		require.NoError(t, err)

		assert.Empty(t, profile.PasswordHash)
		require.NotNil(t, profile.Supervisor)
		assert.Equal(t, supervisor.ID, profile.Supervisor.ID)
		assert.Empty(t, profile.Supervisor.PasswordHash)
	})

	t.Run("loads supervised users sanitized", func(t *testing.T) {
		profile, err := authenticator.Me(ctx, supervisor.ID)
		require.NoError(t, err)

		require.Len(t, profile.SupervisedUsers, 1)
		assert.Equal(t, member.ID, profile.SupervisedUsers[0].ID)
		assert.Empty(t, profile.SupervisedUsers[0].PasswordHash)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := authenticator.Me(ctx, uuid.New())
		require.Error(t, err)
		assert.True(t, goerrors.Is(err, auth.ErrIdentityNotFound))
	})
}

func TestAuditFailureDoesNotBlockLogin(t *testing.T) {
	repo := setupRepo(t)

	failing := auth.AuditRecorderFunc(func(ctx context.Context, entry auth.AuditEntry) error {
		return goerrors.New("sink unavailable", goerrors.CategoryOperation)
	})

	authenticator := auth.NewAuthenticator(repo, newTestConfig()).
		WithAuditRecorder(failing)

	seedUser(t, repo, "resilient@cra.sn", "Secret123!", auth.RoleChercheur)

	result, err := authenticator.Login(context.Background(), "resilient@cra.sn", "Secret123!", auth.RequestMeta{})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}
