package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/labsphere/internal/app/models"
	"github.com/yigit/labsphere/internal/pkg/apperrors"
)

func register(t *testing.T, env *testEnv, username string) *models.User {
	t.Helper()
	user, err := env.auth.Register(context.Background(), Registration{
		Name:     "Ada Lovelace",
		Username: username,
		Email:    username + "@Uni.edu",
		Password: "password123",
		UserType: models.UserTypeStudent,
	})
	require.NoError(t, err)
	return user
}

func TestRegisterSendsVerification(t *testing.T) {
	env := newTestEnv(t)
	user := register(t, env, "ada")

	assert.Equal(t, "ada@uni.edu", user.Email)
	assert.False(t, user.EmailVerified)
	assert.NotEqual(t, "password123", user.Password)

	mail, ok := env.mailer.last("verify")
	require.True(t, ok)
	assert.NotEmpty(t, mail.token)
}

func TestRegisterDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	register(t, env, "ada")

	_, err := env.auth.Register(ctx, Registration{Name: "x", Username: "ada", Email: "other@uni.edu", Password: "password123", UserType: models.UserTypeStudent})
	assert.ErrorIs(t, err, apperrors.ErrUsernameAlreadyExists)

	_, err = env.auth.Register(ctx, Registration{Name: "x", Username: "other", Email: "ada@uni.edu", Password: "password123", UserType: models.UserTypeStudent})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	_, err = env.auth.Register(ctx, Registration{Name: "x", Username: "third", Email: "third@uni.edu", Password: "password123", UserType: "dean"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestLoginAndRefreshRotation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := register(t, env, "ada")

	_, _, err := env.auth.Login(ctx, "ada@uni.edu", "wrong-password")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, _, err = env.auth.Login(ctx, "nobody@uni.edu", "password123")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	tokens, loggedIn, err := env.auth.Login(ctx, "ADA@uni.edu", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.Equal(t, "Bearer", tokens.TokenType)

	claims, err := env.jwt.ValidateAndExtractClaims(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	rotated, err := env.auth.RefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	_, err = env.auth.RefreshToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	require.NoError(t, env.auth.Logout(ctx, rotated.RefreshToken))
	_, err = env.auth.RefreshToken(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
}

func TestRefreshExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	register(t, env, "ada")

	tokens, _, err := env.auth.Login(ctx, "ada@uni.edu", "password123")
	require.NoError(t, err)

	env.auth.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = env.auth.RefreshToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestVerifyEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := register(t, env, "ada")
	mail, _ := env.mailer.last("verify")

	_, err := env.auth.VerifyEmail(ctx, "garbage")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	verified, err := env.auth.VerifyEmail(ctx, mail.token)
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)

	ok, err := env.auth.IsEmailVerified(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = env.auth.VerifyEmail(ctx, mail.token)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.ErrorIs(t, env.auth.ResendVerification(ctx, user.ID), apperrors.ErrConflict)

	_, welcomed := env.mailer.last("welcome")
	assert.True(t, welcomed)
}

func TestVerifyEmailTokenForOldAddress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := register(t, env, "ada")
	old, _ := env.mailer.last("verify")

	upd := updateFrom(user)
	upd.Email = "ada.new@uni.edu"
	_, _, err := env.account.UpdateAccount(ctx, user.ID, upd)
	require.NoError(t, err)

	_, err = env.auth.VerifyEmail(ctx, old.token)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	fresh, _ := env.mailer.last("verify")
	_, err = env.auth.VerifyEmail(ctx, fresh.token)
	require.NoError(t, err)
}

func TestAccessTokenCannotVerifyEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	register(t, env, "ada")

	tokens, _, err := env.auth.Login(ctx, "ada@uni.edu", "password123")
	require.NoError(t, err)

	_, err = env.auth.VerifyEmail(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}
