package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/anylogcli/internal/client/auth"
	"github.com/dmitrijs2005/anylogcli/internal/client/models"
	"github.com/dmitrijs2005/anylogcli/internal/client/repositories/users"
	"github.com/dmitrijs2005/anylogcli/internal/common"
	"github.com/dmitrijs2005/anylogcli/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func newAuthService(t *testing.T) (AuthService, users.Repository) {
	t.Helper()
	repo := users.NewFileRepository(t.TempDir())
	return NewAuthService(repo, testSecret, time.Hour, logging.Nop()), repo
}

// brokenUsers fails every lookup with a storage error.
type brokenUsers struct{}

func (brokenUsers) Create(context.Context, *models.User) (*models.User, error) {
	return nil, common.NewStorageError("users", "write", errors.New("disk full"))
}
func (brokenUsers) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, common.NewStorageError("users", "read", errors.New("io"))
}
func (brokenUsers) GetByID(context.Context, string) (*models.User, error) {
	return nil, common.NewStorageError("users", "read", errors.New("io"))
}

func TestAuthService_SignupAndLogin(t *testing.T) {
	svc, repo := newAuthService(t)
	ctx := context.Background()

	u, err := svc.Signup(ctx, SignupRequest{Email: " u@x.com ", Password: "pw", FirstName: "A", LastName: "B"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "u@x.com", u.Email)
	assert.Empty(t, u.PasswordHash)

	stored, err := repo.GetByEmail(ctx, "u@x.com")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotContains(t, stored.PasswordHash, "pw")

	sess, err := svc.Login(ctx, "u@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.User.ID)
	assert.Empty(t, sess.User.PasswordHash)

	id, err := auth.UserIDFromToken(sess.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
}

func TestAuthService_Signup_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{Email: "u@x.com", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, SignupRequest{Email: "u@x.com", Password: "other"})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestAuthService_Signup_Validation(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  SignupRequest
		msg  string
	}{
		{"missing email", SignupRequest{Password: "pw"}, "email is required"},
		{"bad email", SignupRequest{Email: "nope", Password: "pw"}, "email must be a valid email"},
		{"missing password", SignupRequest{Email: "u@x.com"}, "password is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.req)
			require.ErrorIs(t, err, common.ErrInvalidArgument)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestAuthService_Login_Failures(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{Email: "u@x.com", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "u@x.com", "wrong")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = svc.Login(ctx, "nobody@x.com", "pw")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestAuthService_Login_StorageErrorIsNotUnauthorized(t *testing.T) {
	svc := NewAuthService(brokenUsers{}, testSecret, time.Hour, logging.Nop())

	_, err := svc.Login(context.Background(), "u@x.com", "pw")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrUnauthorized))

	var se *common.StorageError
	assert.True(t, errors.As(err, &se))
}

func TestAuthService_UserFromToken(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{Email: "u@x.com", Password: "pw"})
	require.NoError(t, err)
	sess, err := svc.Login(ctx, "u@x.com", "pw")
	require.NoError(t, err)

	u, err := svc.UserFromToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, u.ID)

	_, err = svc.UserFromToken(ctx, "garbage")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	// A valid token for an account this store does not know.
	ghost, err := auth.GenerateToken("ghost", testSecret, time.Hour)
	require.NoError(t, err)
	_, err = svc.UserFromToken(ctx, ghost)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	expired, err := auth.GenerateToken(sess.User.ID, testSecret, -time.Minute)
	require.NoError(t, err)
	_, err = svc.UserFromToken(ctx, expired)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestAuthService_GetUser(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	created, err := svc.Signup(ctx, SignupRequest{Email: "u@x.com", Password: "pw", FirstName: "A"})
	require.NoError(t, err)

	u, err := svc.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", u.FirstName)
	assert.Empty(t, u.PasswordHash)

	_, err = svc.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAuthService_Logout(t *testing.T) {
	svc, _ := newAuthService(t)

	assert.NoError(t, svc.Logout(context.Background(), "any-token"))
	assert.ErrorIs(t, svc.Logout(context.Background(), " "), common.ErrInvalidToken)
}
