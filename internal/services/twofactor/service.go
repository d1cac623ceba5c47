// Package twofactor implements the time-windowed numeric codes that gate
// sensitive ledger operations. Setup hands the user a short-lived code;
// once confirmed, a permanent secret is stored and codes are derived
// from it in 5-minute windows.
package twofactor

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"math/big"
	"strconv"
	"strings"
	"time"

	"enpay/internal/repositories"
)

const (
	setupCodeValidity = 5 * time.Minute
	codeWindowSeconds = 300
)

var (
	ErrNoSetupCode      = errors.New("no 2FA setup code generated")
	ErrSetupCodeExpired = errors.New("2FA setup code expired")
	ErrNotEnabled       = errors.New("2FA is not enabled")
)

// Service manages two-factor enrollment and verification.
type Service interface {
	GenerateSetupCode(userID uint) (string, error)
	VerifyAndEnable(userID uint, code string) (bool, error)
	VerifyCode(userID uint, code string) bool
	Disable(userID uint, code string) (bool, error)
	IsEnabled(userID uint) bool
}

type service struct {
	userRepo repositories.UserRepository
}

func NewService(userRepo repositories.UserRepository) Service {
	if userRepo == nil {
		panic("user repo is required")
	}
	return &service{userRepo: userRepo}
}

// GenerateSetupCode stores a fresh 6-digit code, valid for five minutes,
// that the user must echo back to enable 2FA.
func (s *service) GenerateSetupCode(userID uint) (string, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return "", err
	}

	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate setup code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())

	user.TwoFactorSecret = code + "|" + strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := s.userRepo.Update(user); err != nil {
		return "", err
	}

	log.Printf("2fa: setup code generated for user %d", userID)
	return code, nil
}

// VerifyAndEnable checks the pending setup code and, on match, enables
// 2FA with a permanent secret.
func (s *service) VerifyAndEnable(userID uint, code string) (bool, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return false, err
	}

	setupCode, issuedAt, err := parseSetupSecret(user.TwoFactorSecret)
	if err != nil {
		return false, err
	}
	if time.Since(issuedAt) > setupCodeValidity {
		return false, ErrSetupCodeExpired
	}

	if setupCode != strings.TrimSpace(code) {
		log.Printf("2fa: wrong setup code for user %d", userID)
		return false, nil
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return false, fmt.Errorf("failed to generate secret: %w", err)
	}

	user.TwoFactorEnabled = true
	user.TwoFactorSecret = hex.EncodeToString(secret)
	if err := s.userRepo.Update(user); err != nil {
		return false, err
	}

	log.Printf("2fa: enabled for user %d", userID)
	return true, nil
}

// VerifyCode checks a code against the current time window. Any lookup
// failure counts as invalid rather than an error: a broken 2FA record
// must never let an operation through.
func (s *service) VerifyCode(userID uint, code string) bool {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return false
	}
	if !user.TwoFactorEnabled || user.TwoFactorSecret == "" {
		return false
	}
	return currentCode(user.TwoFactorSecret) == strings.TrimSpace(code)
}

func (s *service) Disable(userID uint, code string) (bool, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return false, err
	}
	if !user.TwoFactorEnabled {
		return false, ErrNotEnabled
	}

	if !s.VerifyCode(userID, code) {
		return false, nil
	}

	user.TwoFactorEnabled = false
	user.TwoFactorSecret = ""
	if err := s.userRepo.Update(user); err != nil {
		return false, err
	}

	log.Printf("2fa: disabled for user %d", userID)
	return true, nil
}

func (s *service) IsEnabled(userID uint) bool {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return false
	}
	return user.TwoFactorEnabled
}

func parseSetupSecret(stored string) (code string, issuedAt time.Time, err error) {
	if stored == "" {
		return "", time.Time{}, ErrNoSetupCode
	}
	parts := strings.SplitN(stored, "|", 2)
	if len(parts) != 2 {
		return "", time.Time{}, ErrNoSetupCode
	}
	millis, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", time.Time{}, ErrNoSetupCode
	}
	return parts[0], time.UnixMilli(millis), nil
}

func currentCode(secret string) string {
	return codeForWindow(secret, time.Now().Unix()/codeWindowSeconds)
}

// codeForWindow derives a deterministic 6-digit code from the secret and
// a time window index.
func codeForWindow(secret string, window int64) string {
	h := fnv.New32a()
	h.Write([]byte(secret + strconv.FormatInt(window, 10)))
	return fmt.Sprintf("%06d", h.Sum32()%1000000)
}
