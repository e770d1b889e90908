package service

import (
	"context"
	"testing"
	"time"

	"caribepos/internal/config"
	"caribepos/internal/dto"
	"caribepos/internal/model"
	"caribepos/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

// FindByUsername mirrors production: deactivated accounts cannot log in.
func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username && u.Active {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Active = false
	return nil
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func authTestConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 8,
		JWTRefreshHours:    168,
	}
}

func seedUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	storeID := uuid.New()
	return &model.User{
		ID:           uuid.New(),
		Username:     "mgarcia",
		Name:         "María García",
		PasswordHash: string(hash),
		Rol:          model.RoleCajero,
		StoreID:      &storeID,
		Active:       true,
	}
}

func TestLoginSuccess(t *testing.T) {
	user := seedUser(t, "secreto123")
	svc := NewAuthService(newFakeUserRepo(user), authTestConfig())

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "mgarcia", Password: "secreto123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, "mgarcia", resp.User.Username)
	assert.NotEmpty(t, resp.RefreshToken)

	// The access token carries the identity claims the middleware reads
	token, err := jwt.Parse(resp.AccessToken, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, user.ID.String(), claims["user_id"])
	assert.Equal(t, model.RoleCajero, claims["rol"])
	assert.Equal(t, user.StoreID.String(), claims["store_id"])
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(seedUser(t, "secreto123")), authTestConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "mgarcia", Password: "otra"})
	assert.ErrorContains(t, err, "credenciales invalidas")
}

func TestLoginUnknownUser(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), authTestConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "nadie", Password: "x"})
	assert.ErrorContains(t, err, "credenciales invalidas")
}

func TestLoginInactiveUser(t *testing.T) {
	user := seedUser(t, "secreto123")
	user.Active = false
	svc := NewAuthService(newFakeUserRepo(user), authTestConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "mgarcia", Password: "secreto123"})
	assert.ErrorContains(t, err, "credenciales invalidas")
}

func TestRefreshIssuesNewTokens(t *testing.T) {
	user := seedUser(t, "secreto123")
	svc := NewAuthService(newFakeUserRepo(user), authTestConfig())

	login, err := svc.Login(context.Background(), dto.LoginRequest{Username: "mgarcia", Password: "secreto123"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, user.ID.String(), refreshed.User.ID)
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), authTestConfig())

	_, err := svc.Refresh(context.Background(), "no-es-un-jwt")
	assert.ErrorContains(t, err, "refresh token invalido")
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	user := seedUser(t, "secreto123")
	repo := newFakeUserRepo(user)
	svc := NewAuthService(repo, authTestConfig())

	login, err := svc.Login(context.Background(), dto.LoginRequest{Username: "mgarcia", Password: "secreto123"})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateUser(context.Background(), user.ID))

	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	assert.ErrorContains(t, err, "inactivo")
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	user := seedUser(t, "secreto123")
	svc := NewAuthService(newFakeUserRepo(user), authTestConfig())

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID.String(),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), signed)
	assert.ErrorContains(t, err, "expirado")
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, authTestConfig())

	resp, err := svc.CreateUser(context.Background(), dto.CreateUserRequest{
		Username: "jperez",
		Name:     "Juan Pérez",
		Password: "clave-nueva",
		Rol:      model.RoleSupervisor,
	})
	require.NoError(t, err)
	assert.True(t, resp.Active)

	stored, err := repo.FindByUsername(context.Background(), "jperez")
	require.NoError(t, err)
	assert.NotEqual(t, "clave-nueva", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("clave-nueva")))
}

func TestUpdateUserChangesRole(t *testing.T) {
	user := seedUser(t, "secreto123")
	svc := NewAuthService(newFakeUserRepo(user), authTestConfig())

	resp, err := svc.UpdateUser(context.Background(), user.ID, dto.UpdateUserRequest{Rol: model.RoleAdministrador})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdministrador, resp.Rol)
}
