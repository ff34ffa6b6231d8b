package auth

import (
	"context"
	"testing"
	"time"

	"clinicq/internal/shared/config"
	"clinicq/internal/users"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeRepository struct {
	users map[string]*users.User
}

func newFakeRepository(t *testing.T, password string) (*fakeRepository, *users.User) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &users.User{
		ID:        uuid.New(),
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@clinic.test",
		Password:  string(hash),
		Role:      users.RoleDoctor,
	}
	return &fakeRepository{users: map[string]*users.User{user.ID.String(): user}}, user
}

func (f *fakeRepository) CreateUser(_ context.Context, user *users.User) error {
	f.users[user.ID.String()] = user
	return nil
}

func (f *fakeRepository) GetUserByEmail(_ context.Context, email string) (*users.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeRepository) GetUserByID(_ context.Context, id string) (*users.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeRepository) UpdateUserPassword(_ context.Context, userID string, hashedPassword string) error {
	f.users[userID].Password = hashedPassword
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			JWTExpiresIn:     time.Hour,
			RefreshExpiresIn: 24 * time.Hour,
		},
	}
}

func TestLogin(t *testing.T) {
	repo, user := newFakeRepository(t, "correct horse")
	svc := NewService(repo, testConfig())

	resp, err := svc.Login(context.Background(), &LoginRequest{Email: user.Email, Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), resp.User.ID)
	assert.Equal(t, string(users.RoleDoctor), resp.User.Role)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tokenTypeAccess, claims.Type)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	repo, user := newFakeRepository(t, "correct horse")
	svc := NewService(repo, testConfig())

	_, err := svc.Login(context.Background(), &LoginRequest{Email: user.Email, Password: "battery staple"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), &LoginRequest{Email: "nobody@clinic.test", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshToken(t *testing.T) {
	repo, user := newFakeRepository(t, "correct horse")
	svc := NewService(repo, testConfig())

	resp, err := svc.Login(context.Background(), &LoginRequest{Email: user.Email, Password: "correct horse"})
	require.NoError(t, err)

	pair, err := svc.RefreshToken(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	// An access token cannot be used to refresh
	_, err = svc.RefreshToken(context.Background(), resp.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Rejects(t *testing.T) {
	repo, user := newFakeRepository(t, "correct horse")
	svc := NewService(repo, testConfig())

	other := NewService(repo, &config.Config{JWT: config.JWTConfig{Secret: "other", JWTExpiresIn: time.Hour, RefreshExpiresIn: time.Hour}})
	foreign, err := other.Login(context.Background(), &LoginRequest{Email: user.Email, Password: "correct horse"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(foreign.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		UserID: user.ID.String(),
		Type:   tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestChangePassword(t *testing.T) {
	repo, user := newFakeRepository(t, "correct horse")
	svc := NewService(repo, testConfig())
	ctx := context.Background()

	err := svc.ChangePassword(ctx, user.ID.String(), &ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "new password 1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, user.ID.String(), &ChangePasswordRequest{CurrentPassword: "correct horse", NewPassword: "new password 1"}))

	_, err = svc.Login(ctx, &LoginRequest{Email: user.Email, Password: "new password 1"})
	assert.NoError(t, err)

	err = svc.ChangePassword(ctx, uuid.NewString(), &ChangePasswordRequest{CurrentPassword: "x", NewPassword: "y"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetProfile(t *testing.T) {
	repo, user := newFakeRepository(t, "correct horse")
	svc := NewService(repo, testConfig())

	profile, err := svc.GetProfile(context.Background(), user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Grace", profile.FirstName)
	assert.Equal(t, user.Email, profile.Email)
}

func TestLogin_ProfileCarriesPermissions(t *testing.T) {
	repo, user := newFakeRepository(t, "correct horse")
	svc := NewService(repo, testConfig())

	resp, err := svc.Login(context.Background(), &LoginRequest{Email: user.Email, Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", resp.User.FullName)
	assert.Contains(t, resp.User.Permissions, "queue:call")
	assert.NotContains(t, resp.User.Permissions, "queue:register")
}
