package ledger

import (
	"enpay/internal/models"

	"github.com/shopspring/decimal"
)

// Config tunes the engine. Zero values fall back to platform defaults.
type Config struct {
	// DefaultDailyLimit applies to users without a configured limit,
	// in PEN-equivalent.
	DefaultDailyLimit decimal.Decimal
	// USDToPENRate is the fixed normalization constant for daily-limit
	// accounting. Deliberately not the live oracle rate: limit math
	// must be stable within a day regardless of market movement.
	USDToPENRate decimal.Decimal
}

// TransferCommand is the typed request for a peer transfer, built by
// the boundary layer before it reaches the engine.
type TransferCommand struct {
	FromUserID    uint
	ToUserID      uint
	Amount        decimal.Decimal
	Currency      string
	Description   string
	TwoFactorCode string
}

// CardProvider supplies the caller's active card binding.
type CardProvider interface {
	GetActiveCard(userID uint) (*models.UserCard, error)
}

// TwoFactorVerifier gates sensitive operations.
type TwoFactorVerifier interface {
	IsEnabled(userID uint) bool
	VerifyCode(userID uint, code string) bool
}
