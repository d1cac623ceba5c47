// Package auth handles registration, login and session lifecycle.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"enpay/internal/models"
	"enpay/internal/repositories"
	"enpay/internal/services/card"
	"enpay/internal/services/ledger"
	"enpay/internal/utils"
	"enpay/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrPhoneTaken         = errors.New("phone already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
)

// RegisterRequest is the parsed signup payload.
type RegisterRequest struct {
	Email    string
	Phone    string
	Password string
	Name     string
}

// TokenPair is returned on successful authentication.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Service interface {
	// Register creates the user with their PEN and USD wallets.
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error)
	// Refresh exchanges a valid refresh token for a new pair.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	// Logout bumps the token version, invalidating every issued token.
	Logout(ctx context.Context, userID uint) error
	// DeleteAccount disables the user and releases their card binding.
	// Wallet history is kept.
	DeleteAccount(ctx context.Context, userID uint) error
}

type service struct {
	userRepo repositories.UserRepository
	wallets  ledger.Service
	cards    card.Service
}

func NewService(userRepo repositories.UserRepository, wallets ledger.Service, cards card.Service) Service {
	if userRepo == nil || wallets == nil || cards == nil {
		panic("auth: all dependencies are required")
	}
	return &service{userRepo: userRepo, wallets: wallets, cards: cards}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Name = strings.TrimSpace(req.Name)

	if err := validation.ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePhone(req.Phone); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, errors.New("name is required")
	}

	if _, err := s.userRepo.GetByEmail(req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if _, err := s.userRepo.GetByPhone(req.Phone); err == nil {
		return nil, ErrPhoneTaken
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check phone: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:    req.Email,
		Phone:    req.Phone,
		Password: string(hashed),
		Name:     req.Name,
		Role:     "user",
		Enabled:  true,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// New accounts start with the two main wallets; EUR is created on
	// first use.
	for _, currency := range []string{"PEN", "USD"} {
		if _, err := s.wallets.GetOrCreateWallet(ctx, user.ID, currency); err != nil {
			log.Printf("Warning: failed to create %s wallet for user %d: %v", currency, user.ID, err)
		}
	}

	return user, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.Enabled {
		return nil, nil, ErrAccountDisabled
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := utils.ParseToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Enabled || user.TokenVersion != claims.TokenVersion {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(user)
}

func (s *service) Logout(ctx context.Context, userID uint) error {
	return s.userRepo.IncrementTokenVersion(userID)
}

func (s *service) DeleteAccount(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	user.Enabled = false
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to disable user: %w", err)
	}
	if err := s.cards.Deactivate(userID); err != nil {
		log.Printf("Warning: failed to deactivate cards for user %d: %v", userID, err)
	}
	return s.userRepo.IncrementTokenVersion(userID)
}

func (s *service) issueTokens(user *models.User) (*TokenPair, error) {
	claims := &models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	}
	access, refresh, err := utils.GenerateTokens(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
