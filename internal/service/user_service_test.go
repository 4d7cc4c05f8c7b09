package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rolliedev/ticketflow/internal/auth"
	"github.com/rolliedev/ticketflow/internal/domain"
	apperrors "github.com/rolliedev/ticketflow/pkg/util"
)

func newUserService(f *fixture) *UserService {
	tokens := auth.NewTokenManager("test-secret", 15)
	return NewUserService(f.users, tokens, bcrypt.MinCost)
}

func TestCreateUser(t *testing.T) {
	f := newFixture()
	svc := newUserService(f)

	user, err := svc.CreateUser(context.Background(), UserCreateInput{
		FullName: "  Dana Agent  ",
		Email:    "Dana@Example.COM",
		Password: "s3cret",
		Role:     domain.RoleAgent,
	})
	require.NoError(t, err)

	assert.Equal(t, "Dana Agent", user.FullName)
	assert.Equal(t, "dana@example.com", user.Email)
	assert.Equal(t, domain.RoleAgent, user.Role)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "s3cret", user.PasswordHash)
	assert.NoError(t, auth.ComparePassword(user.PasswordHash, "s3cret"))
}

func TestCreateUser_Validation(t *testing.T) {
	f := newFixture()
	svc := newUserService(f)

	for _, input := range []UserCreateInput{
		{FullName: "", Email: "a@b.c", Password: "x", Role: domain.RoleCustomer},
		{FullName: "A", Email: "", Password: "x", Role: domain.RoleCustomer},
		{FullName: "A", Email: "a@b.c", Password: "", Role: domain.RoleCustomer},
		{FullName: "A", Email: "a@b.c", Password: "x", Role: domain.Role("SUPERUSER")},
	} {
		_, err := svc.CreateUser(context.Background(), input)
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	}
	assert.Empty(t, f.store.state.users)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture()
	svc := newUserService(f)

	created, err := svc.CreateUser(context.Background(), UserCreateInput{
		FullName: "Sam Customer",
		Email:    "sam@example.com",
		Password: "hunter2",
		Role:     domain.RoleCustomer,
	})
	require.NoError(t, err)

	user, token, expiresAt, err := svc.Authenticate(context.Background(), " SAM@example.com ", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	tokens := auth.NewTokenManager("test-secret", 15)
	claims, err := tokens.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.UserID)
	assert.Equal(t, domain.RoleCustomer, claims.Role)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	f := newFixture()
	svc := newUserService(f)

	_, err := svc.CreateUser(context.Background(), UserCreateInput{
		FullName: "Sam Customer",
		Email:    "sam@example.com",
		Password: "hunter2",
		Role:     domain.RoleCustomer,
	})
	require.NoError(t, err)

	_, _, _, err = svc.Authenticate(context.Background(), "sam@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestAuthenticate_UnknownEmailIndistinguishable(t *testing.T) {
	f := newFixture()
	svc := newUserService(f)

	_, _, _, err := svc.Authenticate(context.Background(), "nobody@example.com", "whatever")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	assert.False(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
