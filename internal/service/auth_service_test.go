package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnhub/learnhub-api/internal/models"
	"github.com/learnhub/learnhub-api/pkg/config"
	appErrors "github.com/learnhub/learnhub-api/pkg/errors"
)

type mockAuthRepo struct {
	usersByEmail map[string]*models.User
	usersByID    map[string]*models.User
	created      []*models.User
	findErr      error
	createErr    error
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	user, ok := m.usersByEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if user.ID == "" {
		user.ID = "generated"
	}
	m.created = append(m.created, user)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "access-secret",
		RefreshSecret:     "refresh-secret",
		Expiration:        time.Hour,
		RefreshExpiration: 24 * time.Hour,
		Issuer:            "learnhub-test",
	}
}

func TestRegisterSuccess(t *testing.T) {
	repo := &mockAuthRepo{usersByEmail: map[string]*models.User{}}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testJWTConfig())

	res, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Jane Doe",
		Email:    "Jane@Example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, models.RoleUser, res.User.Role)

	require.Len(t, repo.created, 1)
	assert.Equal(t, "jane@example.com", repo.created[0].Email)
	assert.NotEqual(t, "password123", repo.created[0].PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created[0].PasswordHash), []byte("password123")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := &mockAuthRepo{usersByEmail: map[string]*models.User{
		"jane@example.com": {ID: "u1", Email: "jane@example.com"},
	}}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testJWTConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Password: "password123",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAlreadyExists.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
}

func TestRegisterShortPassword(t *testing.T) {
	repo := &mockAuthRepo{usersByEmail: map[string]*models.User{}}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testJWTConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Password: "short",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLoginSuccess(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	repo := &mockAuthRepo{usersByEmail: map[string]*models.User{
		"jane@example.com": {ID: "u1", Email: "jane@example.com", PasswordHash: string(hash), Role: models.RoleInstructor},
	}}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testJWTConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "u1", res.User.ID)

	claims, err := svc.ValidateAccessToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleInstructor, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	repo := &mockAuthRepo{usersByEmail: map[string]*models.User{
		"jane@example.com": {ID: "u1", Email: "jane@example.com", PasswordHash: string(hash)},
	}}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testJWTConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "wrong"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	assert.Equal(t, "invalid credentials", appErr.Message)
}

func TestLoginUnknownEmail(t *testing.T) {
	repo := &mockAuthRepo{usersByEmail: map[string]*models.User{}}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testJWTConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "password123"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	// Unknown email and wrong password are indistinguishable.
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	assert.Equal(t, "invalid credentials", appErr.Message)
}

func TestRefreshIssuesNewPair(t *testing.T) {
	user := &models.User{ID: "u1", Email: "jane@example.com", Role: models.RoleUser}
	repo := &mockAuthRepo{
		usersByEmail: map[string]*models.User{"jane@example.com": user},
		usersByID:    map[string]*models.User{"u1": user},
	}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testJWTConfig())

	refreshToken, err := svc.generateRefreshToken(user)
	require.NoError(t, err)

	res, err := svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: refreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	user := &models.User{ID: "u1", Email: "jane@example.com", Role: models.RoleUser}
	repo := &mockAuthRepo{usersByID: map[string]*models.User{"u1": user}}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testJWTConfig())

	// An access token is signed with a different secret and must not pass.
	accessToken, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: accessToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateAccessTokenGarbage(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, validator.New(), zap.NewNop(), testJWTConfig())

	_, err := svc.ValidateAccessToken("not-a-token")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
	assert.Equal(t, "not authorized", appErr.Message)
}

func TestValidateAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.Expiration = -time.Minute
	svc := NewAuthService(&mockAuthRepo{}, validator.New(), zap.NewNop(), cfg)

	token, err := svc.generateAccessToken(&models.User{ID: "u1", Role: models.RoleUser})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
