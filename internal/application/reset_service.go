package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"booktrack/internal/domain/entity"
	repo "booktrack/internal/domain/repository"
	"booktrack/pkg/helpers"
)

// ResetService drives the password reset state machine:
// NoResetPending -> ResetPending (Request) -> NoResetPending (Consume).
// Tokens are opaque random strings persisted on the user row together with
// an absolute expiry, and are strictly single-use.
type ResetService struct {
	Users    repo.UserRepository
	TokenTTL time.Duration
	Logger   *logrus.Logger
}

func NewResetService(users repo.UserRepository, tokenTTL time.Duration, logger *logrus.Logger) *ResetService {
	return &ResetService{Users: users, TokenTTL: tokenTTL, Logger: logger}
}

// Request generates and stores a reset token for the user. An unknown email
// surfaces ErrUserNotFound to the caller; that this discloses account
// existence is a known property of the API, kept as-is.
// Issuing a new token while one is pending simply replaces it.
func (s *ResetService) Request(ctx context.Context, email string) (*entity.User, string, time.Time, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", time.Time{}, ErrUserNotFound
		}
		return nil, "", time.Time{}, err
	}

	token, err := helpers.GenerateToken(32)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	expiry := time.Now().Add(s.TokenTTL)
	if err := s.Users.SetResetToken(ctx, u.ID, token, expiry); err != nil {
		return nil, "", time.Time{}, err
	}
	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID).Info("password reset requested")
	}
	return u, token, expiry, nil
}

// Consume validates a reset token and replaces the user's password.
// Expired tokens are rejected without being consumed; the stale row is
// simply left to be rejected again or overwritten by a fresh Request.
// On success the token and expiry are cleared in the same statement that
// writes the new hash, so the token cannot be spent twice.
func (s *ResetService) Consume(ctx context.Context, token, newPassword string) error {
	u, err := s.Users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if u.ResetTokenExpiry == nil || time.Now().After(*u.ResetTokenExpiry) {
		return ErrExpiredResetToken
	}

	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Users.ConsumeResetToken(ctx, token, hash); err != nil {
		// Lost the race against another consumer of the same token.
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID).Info("password reset completed")
	}
	return nil
}
