package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/minutesapp/minutes-server/internal/errors"
	"github.com/minutesapp/minutes-server/internal/metrics"
)

func TestIdentityService_Register(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	user, err := env.identity.Register(ctx, RegisterRequest{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "correct horse",
		ConfirmPassword: "correct horse",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestIdentityService_Register_Duplicates(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	env.registerUser(t, "alice")

	_, err := env.identity.Register(ctx, RegisterRequest{
		Username:        "alice",
		Email:           "other@example.com",
		Password:        "pw",
		ConfirmPassword: "pw",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Equal(t, UsernameTakenMessage, err.Error())

	_, err = env.identity.Register(ctx, RegisterRequest{
		Username:        "alice2",
		Email:           "alice@example.com",
		Password:        "pw",
		ConfirmPassword: "pw",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Equal(t, EmailTakenMessage, err.Error())
}

func TestIdentityService_Register_Validation(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{"blank username", RegisterRequest{Username: "  ", Email: "a@example.com", Password: "pw", ConfirmPassword: "pw"}, "username"},
		{"bad email", RegisterRequest{Username: "a", Email: "not-an-email", Password: "pw", ConfirmPassword: "pw"}, "email"},
		{"mismatch", RegisterRequest{Username: "a", Email: "a@example.com", Password: "pw", ConfirmPassword: "other"}, "confirm_password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.identity.Register(ctx, tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)

			fields, ok := domainErr.Details.([]domainerrors.FieldError)
			require.True(t, ok)
			require.NotEmpty(t, fields)
			assert.Equal(t, tt.field, fields[0].Field)
		})
	}
}

func TestIdentityService_Authenticate_UniformFailure(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	env.registerUser(t, "alice")

	user, err := env.identity.Authenticate(ctx, "alice", "secret-alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, wrongPassword := env.identity.Authenticate(ctx, "alice", "nope")
	_, unknownUser := env.identity.Authenticate(ctx, "mallory", "nope")

	for _, err := range []error{wrongPassword, unknownUser} {
		require.Error(t, err)
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
		assert.Equal(t, InvalidCredentialsMessage, err.Error())
	}
}

func TestIdentityService_Authenticate_CaseSensitive(t *testing.T) {
	env := setupServices(t)
	env.registerUser(t, "alice")

	_, err := env.identity.Authenticate(context.Background(), "Alice", "secret-alice")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestIdentityService_LoginAndVerify(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice")

	result, err := env.identity.Login(ctx, LoginRequest{
		Username:  "alice",
		Password:  "secret-alice",
		IPAddress: "10.0.0.1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.False(t, result.Session.Remember)
	assert.WithinDuration(t, time.Now().Add(12*time.Hour), result.Session.ExpiresAt, time.Minute)

	p, err := env.identity.VerifySession(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.UserID, p.UserID)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, result.Session.ID, p.SessionID)

	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.Logins.WithLabelValues(metrics.LoginSuccess)), 0)
}

func TestIdentityService_Login_Remember(t *testing.T) {
	env := setupServices(t)
	env.registerUser(t, "alice")

	result, err := env.identity.Login(context.Background(), LoginRequest{
		Username: "alice",
		Password: "secret-alice",
		Remember: true,
	})
	require.NoError(t, err)
	assert.True(t, result.Session.Remember)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), result.Session.ExpiresAt, time.Minute)
}

func TestIdentityService_Login_Failure(t *testing.T) {
	env := setupServices(t)
	env.registerUser(t, "alice")

	_, err := env.identity.Login(context.Background(), LoginRequest{Username: "alice", Password: "wrong"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = env.identity.Login(context.Background(), LoginRequest{})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	assert.InDelta(t, 2, testutil.ToFloat64(env.metrics.Logins.WithLabelValues(metrics.LoginFailure)), 0)
}

func TestIdentityService_Logout_RevokesToken(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	env.registerUser(t, "alice")

	result, err := env.identity.Login(ctx, LoginRequest{Username: "alice", Password: "secret-alice"})
	require.NoError(t, err)

	require.NoError(t, env.identity.Logout(ctx, result.Session.ID))
	require.NoError(t, env.identity.Logout(ctx, result.Session.ID))

	_, err = env.identity.VerifySession(ctx, result.Token)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestIdentityService_VerifySession_Invalid(t *testing.T) {
	env := setupServices(t)

	_, err := env.identity.VerifySession(context.Background(), "")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	_, err = env.identity.VerifySession(context.Background(), "v4.local.garbage")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestIdentityService_CleanupExpiredSessions(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	env.registerUser(t, "alice")

	env.identity.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	stale, err := env.identity.Login(ctx, LoginRequest{Username: "alice", Password: "secret-alice"})
	require.NoError(t, err)

	env.identity.now = time.Now
	fresh, err := env.identity.Login(ctx, LoginRequest{Username: "alice", Password: "secret-alice"})
	require.NoError(t, err)

	_, err = env.identity.VerifySession(ctx, stale.Token)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	n, err := env.identity.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = env.identity.VerifySession(ctx, fresh.Token)
	assert.NoError(t, err)
}

func TestIdentityService_ChangePassword(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice")

	err := env.identity.ChangePasswordWithCurrent(ctx, alice.UserID, ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "new-secret",
		ConfirmPassword: "new-secret",
	})
	require.Error(t, err)
	assert.Equal(t, CurrentPasswordMessage, err.Error())

	err = env.identity.ChangePasswordWithCurrent(ctx, alice.UserID, ChangePasswordRequest{
		CurrentPassword: "secret-alice",
		NewPassword:     "new-secret",
		ConfirmPassword: "new-secret",
	})
	require.NoError(t, err)

	_, err = env.identity.Authenticate(ctx, "alice", "secret-alice")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	_, err = env.identity.Authenticate(ctx, "alice", "new-secret")
	assert.NoError(t, err)
}

func TestIdentityService_ChangePassword_Errors(t *testing.T) {
	env := setupServices(t)
	ctx := context.Background()

	err := env.identity.ChangePassword(ctx, "user-missing", "pw")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	alice := env.registerUser(t, "alice")
	err = env.identity.ChangePassword(ctx, alice.UserID, "")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestIdentityService_RequestPasswordReset(t *testing.T) {
	env := setupServices(t)
	env.registerUser(t, "alice")

	known := env.identity.RequestPasswordReset(context.Background(), "alice@example.com")
	unknown := env.identity.RequestPasswordReset(context.Background(), "nobody@example.com")

	assert.Equal(t, ResetRequestedMessage, known)
	assert.Equal(t, known, unknown)
}
