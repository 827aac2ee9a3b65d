package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"booktrack/internal/application"
	"booktrack/internal/domain/entity"
	repo "booktrack/internal/domain/repository"
	"booktrack/pkg/helpers"
)

func newAuthService(users *MockUserRepository) *application.AuthService {
	jwt := helpers.NewJWTManager("test_jwt_secret", time.Hour)
	return application.NewAuthService(users, jwt, nil)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	svc := newAuthService(mockRepo)

	// Successful registration: password hashed, role defaults to user
	mockRepo.On("GetByEmail", ctx, "a@x.com").Return(nil, repo.ErrNotFound).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*entity.User")).Run(func(args mock.Arguments) {
		u := args.Get(1).(*entity.User)
		u.ID = "user-1"
	}).Return(nil).Once()

	u, err := svc.Register(ctx, "A", "a@x.com", "pw123456")
	assert.NoError(t, err)
	assert.Equal(t, "user-1", u.ID)
	assert.Equal(t, entity.RoleUser, u.Role)
	assert.NotEqual(t, "pw123456", u.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("pw123456")))
	mockRepo.AssertExpectations(t)

	// Email already registered
	mockRepo.On("GetByEmail", ctx, "a@x.com").Return(&entity.User{ID: "user-1"}, nil).Once()
	_, err = svc.Register(ctx, "A", "a@x.com", "pw123456")
	assert.ErrorIs(t, err, application.ErrEmailTaken)
	mockRepo.AssertExpectations(t)

	// Concurrent duplicate surfaces through the unique constraint
	mockRepo.On("GetByEmail", ctx, "b@x.com").Return(nil, repo.ErrNotFound).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*entity.User")).Return(repo.ErrDuplicate).Once()
	_, err = svc.Register(ctx, "B", "b@x.com", "pw123456")
	assert.ErrorIs(t, err, application.ErrEmailTaken)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	jwtManager := helpers.NewJWTManager("test_jwt_secret", time.Hour)
	svc := application.NewAuthService(mockRepo, jwtManager, nil)

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &entity.User{
		ID:       "user-123",
		Name:     "Test",
		Email:    "test@example.com",
		Password: string(hash),
		Role:     entity.RoleUser,
	}

	// Successful login yields a token whose claims carry the user id
	mockRepo.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	u, token, exp, err := svc.Login(ctx, user.Email, "password123")
	assert.NoError(t, err)
	assert.Equal(t, user.ID, u.ID)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := jwtManager.Parse(token)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, entity.RoleUser, claims.Role)
	mockRepo.AssertExpectations(t)

	// Wrong password and unknown email return the identical error
	mockRepo.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	_, _, _, errWrongPwd := svc.Login(ctx, user.Email, "wrongpassword")

	mockRepo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, repo.ErrNotFound).Once()
	_, _, _, errUnknown := svc.Login(ctx, "nobody@example.com", "password123")

	assert.ErrorIs(t, errWrongPwd, application.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, application.ErrInvalidCredentials)
	assert.Equal(t, errWrongPwd, errUnknown)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Profile(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	svc := newAuthService(mockRepo)

	mockRepo.On("GetByID", ctx, "missing").Return(nil, repo.ErrNotFound).Once()
	_, err := svc.Profile(ctx, "missing")
	assert.ErrorIs(t, err, application.ErrUserNotFound)

	u := &entity.User{ID: "user-1", Email: "a@x.com"}
	mockRepo.On("GetByID", ctx, "user-1").Return(u, nil).Once()
	got, err := svc.Profile(ctx, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, u, got)
	mockRepo.AssertExpectations(t)
}
