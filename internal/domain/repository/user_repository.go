package repository

import (
	"context"
	"errors"
	"time"

	"booktrack/internal/domain/entity"
)

// ErrNotFound is returned by all repositories when the addressed row does
// not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint
// (e.g. a second user with the same email).
var ErrDuplicate = errors.New("duplicate")

// UserRepository defines user-account persistence operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByResetToken(ctx context.Context, token string) (*entity.User, error)
	// SetResetToken stores a pending reset token and its expiry on the user.
	SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error
	// ConsumeResetToken replaces the password hash and clears both reset
	// fields in a single statement, keyed by the token itself so a token
	// can only ever be spent once.
	ConsumeResetToken(ctx context.Context, token, passwordHash string) error
}

// LibraryRepository persists per-user library entries. Every mutation is a
// single-row statement so concurrent requests for the same user cannot
// overwrite each other's changes.
type LibraryRepository interface {
	List(ctx context.Context, userID string) ([]entity.LibraryEntry, error)
	// Upsert inserts the entry or fully overwrites an existing one with the
	// same bookId, keeping its position. Reports whether a new row was
	// inserted.
	Upsert(ctx context.Context, userID string, e entity.LibraryEntry) (inserted bool, err error)
	UpdateStatus(ctx context.Context, userID, bookID, status string) error
	Remove(ctx context.Context, userID, bookID string) error
}

// BookRepository persists the shared catalog.
type BookRepository interface {
	Create(ctx context.Context, b *entity.Book) error
	GetByID(ctx context.Context, id string) (*entity.Book, error)
	List(ctx context.Context) ([]entity.Book, error)
	Update(ctx context.Context, b *entity.Book) error
	Delete(ctx context.Context, id string) error
	SetCoverURL(ctx context.Context, id, url string) error
}
