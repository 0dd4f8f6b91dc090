package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/assessly/assessly-api/internal/apperr"
	"github.com/assessly/assessly-api/internal/dto"
	"github.com/assessly/assessly-api/internal/models"
	"github.com/assessly/assessly-api/internal/session"
)

func newAuthService(t *testing.T, env *testEnv) AuthService {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := session.NewRedisStore(client, time.Hour, testLogger())
	validate := validator.New(validator.WithRequiredStructEnabled())

	return NewAuthService(env.users, sessions, validate, testLogger())
}

func TestAuthServiceLoginLifecycle(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(t, env)
	ctx := context.Background()

	created, err := auth.CreateUser(ctx, "Sam@Example.com", "s3cret-pass", "Sam Jones", models.RoleStudent)
	require.NoError(t, err)
	require.Equal(t, "sam@example.com", created.Email, "email is normalized on create")

	user, sess, err := auth.Login(ctx, dto.LoginRequest{Email: "sam@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)
	require.NotEmpty(t, sess.Token)
	require.True(t, sess.ExpiresAt.After(time.Now()))

	profile, err := auth.Profile(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "Sam Jones", profile.FullName)

	require.NoError(t, auth.Logout(ctx, sess.Token))
}

func TestAuthServiceLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(t, env)
	ctx := context.Background()

	_, err := auth.CreateUser(ctx, "sam@example.com", "s3cret-pass", "Sam Jones", models.RoleStudent)
	require.NoError(t, err)

	// Wrong password and unknown email fail with the same message.
	_, _, err = auth.Login(ctx, dto.LoginRequest{Email: "sam@example.com", Password: "wrong"})
	require.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	require.Equal(t, "invalid credentials", apperr.MessageOf(err))

	_, _, err = auth.Login(ctx, dto.LoginRequest{Email: "nobody@example.com", Password: "s3cret-pass"})
	require.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	require.Equal(t, "invalid credentials", apperr.MessageOf(err))
}

func TestAuthServiceCreateUserValidation(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(t, env)
	ctx := context.Background()

	_, err := auth.CreateUser(ctx, "", "pass", "Name", models.RoleStudent)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = auth.CreateUser(ctx, "x@example.com", "pass", "Name", models.Role("superuser"))
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = auth.CreateUser(ctx, "dup@example.com", "pass", "First", models.RoleStudent)
	require.NoError(t, err)
	_, err = auth.CreateUser(ctx, "dup@example.com", "pass", "Second", models.RoleStudent)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAuthServiceEnsureBootstrapAdmin(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(t, env)
	ctx := context.Background()

	// Blank email disables bootstrapping entirely.
	require.NoError(t, auth.EnsureBootstrapAdmin(ctx, "", "secret", "Root"))

	require.NoError(t, auth.EnsureBootstrapAdmin(ctx, "root@example.com", "secret", "Root"))
	admin, err := env.users.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, admin.Role)

	// Re-running at startup is a no-op.
	require.NoError(t, auth.EnsureBootstrapAdmin(ctx, "root@example.com", "other", "Root"))
	again, err := env.users.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	require.Equal(t, admin.ID, again.ID)
}
