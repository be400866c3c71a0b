package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nhm-india/fund-tracker/internal/auth"
	"github.com/nhm-india/fund-tracker/internal/models"
	"github.com/nhm-india/fund-tracker/internal/storage"
)

// AccessService validates credentials and provisions accounts.
type AccessService struct {
	users storage.UserStore
	log   *zap.Logger
	now   func() time.Time
}

// NewAccessService constructs the service.
func NewAccessService(users storage.UserStore, log *zap.Logger) *AccessService {
	return &AccessService{users: users, log: log, now: time.Now}
}

// Login returns the user when username exists and password verifies.
// Failures are indistinguishable to the caller.
func (s *AccessService) Login(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			auth.BurnPasswordCheck(password)
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// AddClient registers a new officer account with the government role. The
// username is stored exactly as given, matching how Login looks it up.
// The caller is responsible for having authorized the request as an admin.
func (s *AccessService) AddClient(ctx context.Context, gmail, password string) (models.User, error) {
	if strings.TrimSpace(gmail) == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: gmail and password are required", ErrInvalidInput)
	}
	return s.create(ctx, gmail, password, models.RoleGovernment)
}

// ProvisionDefaultAdmin makes sure the bootstrap admin exists. An existing
// account, whatever its password, is left untouched.
func (s *AccessService) ProvisionDefaultAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.users.FindByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("find admin: %w", err)
	}

	if _, err := s.create(ctx, username, password, models.RoleAdmin); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	s.log.Info("provisioned default admin", zap.String("username", username))
	return true, nil
}

func (s *AccessService) create(ctx context.Context, username, password, role string) (models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	created, err := s.users.CreateUser(ctx, models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}
