package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexdesk/cortexdesk/internal/config"
	"github.com/cortexdesk/cortexdesk/internal/domain"
	"github.com/cortexdesk/cortexdesk/pkg/util"
)

func newAuthFixture(t *testing.T) (*fakeUserRepo, *AuthService) {
	t.Helper()
	users := newFakeUserRepo()
	svc := NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 15,
		BcryptCost:            4,
	}, AuthDependencies{UserRepo: users})
	return users, svc
}

func TestRegisterAndLogin(t *testing.T) {
	_, svc := newAuthFixture(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Dana", "Dana@Example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, registered.User.Role)
	assert.Equal(t, "dana@example.com", registered.User.Email)
	assert.NotEmpty(t, registered.Token)

	loggedIn, err := svc.Login(ctx, "dana@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	claims, err := svc.TokenManager().ParseToken(loggedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.SubjectID)
	assert.Equal(t, domain.RoleCustomer, claims.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, svc := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Dana", "dana@example.com", "password123")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "Other Dana", "dana@example.com", "password456")
	assert.True(t, util.IsCode(err, "CONFLICT"))
}

func TestRegisterValidation(t *testing.T) {
	_, svc := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "dana@example.com", "password123")
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))
	_, err = svc.Register(ctx, "Dana", "not-an-email", "password123")
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))
	_, err = svc.Register(ctx, "Dana", "dana@example.com", "short")
	assert.True(t, util.IsCode(err, "VALIDATION_FAILED"))
}

func TestLoginWrongPassword(t *testing.T) {
	_, svc := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Dana", "dana@example.com", "password123")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "dana@example.com", "wrongpass")
	assert.True(t, util.IsCode(err, "UNAUTHORIZED"))
	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.True(t, util.IsCode(err, "UNAUTHORIZED"))
}

func TestLoginSuspendedAccount(t *testing.T) {
	users, svc := newAuthFixture(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Dana", "dana@example.com", "password123")
	require.NoError(t, err)

	user := users.users[registered.User.ID]
	user.Status = domain.UserStatusSuspended
	users.users[user.ID] = user

	_, err = svc.Login(ctx, "dana@example.com", "password123")
	assert.True(t, util.IsCode(err, "UNAUTHORIZED"))
}
