package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"booktrack/internal/domain/entity"
	repo "booktrack/internal/domain/repository"
)

// LibraryService maintains each user's book list. Uniqueness per
// (user, book) and atomicity of every transition are delegated to the
// repository, which executes them as single store-native statements.
type LibraryService struct {
	Users   repo.UserRepository
	Entries repo.LibraryRepository
	Logger  *logrus.Logger
}

func NewLibraryService(users repo.UserRepository, entries repo.LibraryRepository, logger *logrus.Logger) *LibraryService {
	return &LibraryService{Users: users, Entries: entries, Logger: logger}
}

// List returns the user together with a snapshot of their library in
// insertion order.
func (s *LibraryService) List(ctx context.Context, userID string) (*entity.User, []entity.LibraryEntry, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}
	entries, err := s.Entries.List(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return u, entries, nil
}

// AddOrUpdate upserts the entry by bookId: full overwrite in place when the
// book is already present (fields not supplied are lost, by contract),
// append otherwise. Returns the updated library and whether it inserted.
func (s *LibraryService) AddOrUpdate(ctx context.Context, userID string, e entity.LibraryEntry) (bool, []entity.LibraryEntry, error) {
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil, ErrUserNotFound
		}
		return false, nil, err
	}
	inserted, err := s.Entries.Upsert(ctx, userID, e)
	if err != nil {
		return false, nil, err
	}
	lib, err := s.Entries.List(ctx, userID)
	if err != nil {
		return false, nil, err
	}
	return inserted, lib, nil
}

// UpdateStatus mutates only the status of an existing entry. An absent book
// rejects with ErrBookNotInLibrary and leaves the library untouched.
func (s *LibraryService) UpdateStatus(ctx context.Context, userID, bookID, status string) ([]entity.LibraryEntry, error) {
	if err := s.Entries.UpdateStatus(ctx, userID, bookID, status); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrBookNotInLibrary
		}
		return nil, err
	}
	return s.Entries.List(ctx, userID)
}

// Remove deletes the entry for bookID, rejecting when it is not present.
func (s *LibraryService) Remove(ctx context.Context, userID, bookID string) ([]entity.LibraryEntry, error) {
	if err := s.Entries.Remove(ctx, userID, bookID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrBookNotInLibrary
		}
		return nil, err
	}
	return s.Entries.List(ctx, userID)
}
