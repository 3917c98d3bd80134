package auth_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/cra-saint-louis/go-auth"
)

const testSigningKey = "test-signing-key-0123456789abcdef"

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()

	_, err = db.NewCreateTable().Model((*auth.User)(nil)).Exec(ctx)
	require.NoError(t, err)

	_, err = db.NewCreateTable().Model((*auth.AuditLog)(nil)).Exec(ctx)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func setupRepo(t *testing.T) auth.RepositoryManager {
	t.Helper()

	repo := auth.NewRepositoryManager(setupTestDB(t))
	repo.MustValidate()
	return repo
}

func newTestConfig() *auth.AppConfig {
	return &auth.AppConfig{
		SigningKey:        testSigningKey,
		TokenExpiration:   7 * 24 * time.Hour,
		RefreshExpiration: 30 * 24 * time.Hour,
		Issuer:            auth.DefaultIssuer,
		Audience:          []string{auth.DefaultAudience},
		Environment:       "test",
	}
}

func newTestAuthenticator(t *testing.T) (*auth.Authenticator, auth.RepositoryManager) {
	t.Helper()

	repo := setupRepo(t)
	authenticator := auth.NewAuthenticator(repo, newTestConfig()).
		WithAuditRecorder(auth.NewAuditTrail(repo.AuditLogs()))

	return authenticator, repo
}

// seedUser inserts an active user directly through the repository, bypassing
// the registration flow.
func seedUser(t *testing.T, repo auth.RepositoryManager, email, password string, role auth.UserRole) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user, err := repo.Users().Create(context.Background(), &auth.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		IsActive:     true,
	})
	require.NoError(t, err)

	return user
}
