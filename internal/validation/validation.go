// Package validation parses and checks request input at the API
// boundary before it reaches the services.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72

	MaxDescriptionLength = 255
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidPhone    = errors.New("invalid phone number")
	ErrInvalidAmount   = errors.New("amount must be a positive number with at most two decimals")
	ErrInvalidCurrency = errors.New("currency must be a three-letter code")
)

// ParseAmount converts a request amount string into a decimal, rejecting
// non-positive values and sub-cent precision.
func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// NormalizeCurrency uppercases and checks the shape of a currency code.
// Whether the code is actually supported is up to the ledger.
func NormalizeCurrency(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return code, nil
}

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return ErrInvalidPhone
	}
	return nil
}

// ValidatePassword enforces length and a minimal character mix.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", MaxPasswordLength)
	}
	var hasLetter, hasDigit bool
	for _, c := range password {
		switch {
		case c >= '0' && c <= '9':
			hasDigit = true
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			hasLetter = true
		}
	}
	if !hasLetter || !hasDigit {
		return errors.New("password must contain both letters and digits")
	}
	return nil
}

// TrimDescription bounds free-text descriptions to the column size,
// cutting on a rune boundary so multi-byte text is never split.
func TrimDescription(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= MaxDescriptionLength {
		return s
	}
	cut := MaxDescriptionLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
