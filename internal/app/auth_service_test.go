package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"docuchat/internal/model"
	"docuchat/internal/pkg/jwtutil"
	"docuchat/internal/repository"
)

func newAuthService(t *testing.T) (*AuthService, *repository.RoleRepository) {
	t.Helper()
	db := openTestDB(t)
	roleRepo := repository.NewRoleRepository(db)
	return NewAuthService(repository.NewUserRepository(db), roleRepo, "test-secret", time.Hour), roleRepo
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)

	registered, err := svc.Register(RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, registered.Token)
	require.Equal(t, "alice", registered.User.Username)
	require.Equal(t, "alice@example.com", registered.User.Email)

	loggedIn, err := svc.Login(LoginInput{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, loggedIn.User.ID)

	claims, err := jwtutil.ParseToken("test-secret", loggedIn.Token)
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, claims.UserID)
	require.Equal(t, "alice", claims.Username)
}

func TestAuthService_RegisterGrantsClientRole(t *testing.T) {
	svc, _ := newAuthService(t)

	registered, err := svc.Register(RegisterInput{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	isClient, err := svc.HasRole(registered.User.ID, model.RoleClient)
	require.NoError(t, err)
	require.True(t, isClient)

	isAdmin, err := svc.HasRole(registered.User.ID, model.RoleAdmin)
	require.NoError(t, err)
	require.False(t, isAdmin)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(RegisterInput{Username: "a", Email: "a@example.com", Password: "short"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(RegisterInput{Username: "", Email: "a@example.com", Password: "password123"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAuthService_RegisterRejectsDuplicates(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(RegisterInput{Username: "carol", Email: "carol@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Register(RegisterInput{Username: "carol", Email: "other@example.com", Password: "password123"})
	require.ErrorIs(t, err, ErrUsernameExists)

	_, err = svc.Register(RegisterInput{Username: "other", Email: "carol@example.com", Password: "password123"})
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestAuthService_LoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(RegisterInput{Username: "dave", Email: "dave@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Login(LoginInput{Username: "dave", Password: "wrongpassword"})
	require.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.Login(LoginInput{Username: "nobody", Password: "password123"})
	require.ErrorIs(t, err, ErrInvalidCredential)
}
