package application_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"booktrack/internal/domain/entity"
)

// MockUserRepository is a mock implementation of repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *entity.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByResetToken(ctx context.Context, token string) (*entity.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error {
	args := m.Called(ctx, userID, token, expiry)
	return args.Error(0)
}

func (m *MockUserRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string) error {
	args := m.Called(ctx, token, passwordHash)
	return args.Error(0)
}

// MockLibraryRepository is a mock implementation of repository.LibraryRepository
type MockLibraryRepository struct {
	mock.Mock
}

func (m *MockLibraryRepository) List(ctx context.Context, userID string) ([]entity.LibraryEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.LibraryEntry), args.Error(1)
}

func (m *MockLibraryRepository) Upsert(ctx context.Context, userID string, e entity.LibraryEntry) (bool, error) {
	args := m.Called(ctx, userID, e)
	return args.Bool(0), args.Error(1)
}

func (m *MockLibraryRepository) UpdateStatus(ctx context.Context, userID, bookID, status string) error {
	args := m.Called(ctx, userID, bookID, status)
	return args.Error(0)
}

func (m *MockLibraryRepository) Remove(ctx context.Context, userID, bookID string) error {
	args := m.Called(ctx, userID, bookID)
	return args.Error(0)
}
