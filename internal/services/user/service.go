// Package user serves profile reads and account settings.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"enpay/internal/models"
	"enpay/internal/repositories"

	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrLimitTooLow rejects daily limits below the platform floor.
	ErrLimitTooLow = errors.New("daily limit cannot be below the platform minimum")
)

// MinDailyLimit is the lowest configurable daily limit, PEN-equivalent.
var MinDailyLimit = decimal.RequireFromString("500.00")

type Service interface {
	GetProfile(ctx context.Context, userID uint) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uint, name string) (*models.User, error)
	// UpdateDailyLimit sets the user's transfer limit in PEN-equivalent.
	UpdateDailyLimit(ctx context.Context, userID uint, limit decimal.Decimal) (*models.User, error)
}

type service struct {
	userRepo repositories.UserRepository
}

func NewService(userRepo repositories.UserRepository) Service {
	if userRepo == nil {
		panic("user: user repository is required")
	}
	return &service{userRepo: userRepo}
}

func (s *service) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uint, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("name is required")
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Name = name
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *service) UpdateDailyLimit(ctx context.Context, userID uint, limit decimal.Decimal) (*models.User, error) {
	if limit.LessThan(MinDailyLimit) {
		return nil, ErrLimitTooLow
	}
	if !limit.Equal(limit.Round(2)) {
		return nil, errors.New("daily limit must have at most two decimals")
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.DailyLimit = &limit
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update daily limit: %w", err)
	}
	return user, nil
}
