package service

import (
	"context"
	"errors"
	"sync"

	"github.com/iliyamo/school-behavior-tracker/internal/model"
	"github.com/iliyamo/school-behavior-tracker/internal/repository"
	"github.com/iliyamo/school-behavior-tracker/internal/utils"
)

// AuthService verifies credentials and resolves session identities.
// Binding the identity to a cookie is the session manager's job.
type AuthService struct {
	users UserStore

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users UserStore) *AuthService {
	return &AuthService{users: users}
}

// Login returns the full user record, hash included, for valid credentials.
// Unknown usernames and wrong passwords both yield ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		// Spend the same scrypt work as a real check.
		utils.VerifyPassword(s.dummy(), password)
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrUnauthorized
	}
	return u, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = utils.HashPassword("not-a-real-password")
	})
	return s.dummyHash
}

// CurrentUser resolves a session's user id.  A user deleted since login
// yields ErrUnauthorized.
func (s *AuthService) CurrentUser(ctx context.Context, userID uint64) (*model.User, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword re-hashes the password of userID after verifying the
// current one, and clears the first-login flag.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint64, in model.PasswordChange) error {
	if len(in.NewPassword) < 6 {
		return Invalid("newPassword", "Must contain at least 6 character(s)")
	}
	u, err := s.CurrentUser(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, in.CurrentPassword) {
		return Invalid("currentPassword", "Incorrect current password")
	}
	hash, err := utils.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, userID, hash)
}
