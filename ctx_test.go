package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	auth "github.com/cra-saint-louis/go-auth"
)

func TestUserContext(t *testing.T) {
	ctx := context.Background()

	_, ok := auth.UserFromContext(ctx)
	assert.False(t, ok)

	user := &auth.User{Email: "ctx@cra.sn"}
	ctx = auth.WithUser(ctx, user)

	got, ok := auth.UserFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, user, got)
}

func TestClaimsContext(t *testing.T) {
	ctx := context.Background()

	_, ok := auth.GetClaims(ctx)
	assert.False(t, ok)
	assert.False(t, auth.CanManageUsers(ctx))

	claims := &auth.SessionClaims{UserRole: string(auth.RoleAdmin)}
	ctx = auth.WithClaims(ctx, claims)

	got, ok := auth.GetClaims(ctx)
	assert.True(t, ok)
	assert.Equal(t, claims, got)
	assert.True(t, auth.CanManageUsers(ctx))

	ctx = auth.WithClaims(context.Background(), &auth.SessionClaims{UserRole: string(auth.RoleAssistant)})
	assert.False(t, auth.CanManageUsers(ctx))
}
