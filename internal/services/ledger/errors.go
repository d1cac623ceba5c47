package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Business errors. All of these are recoverable at the API boundary;
// none indicate a broken process.
var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidCurrency    = errors.New("unsupported currency")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrNoActiveCard       = errors.New("no active verified card")
	ErrTwoFactorRequired  = errors.New("2FA code required")
	ErrTwoFactorInvalid   = errors.New("invalid 2FA code")
	ErrSelfTransfer       = errors.New("cannot transfer to yourself")
	ErrSameCurrency       = errors.New("cannot convert to the same currency")
	ErrGatewayRejected    = errors.New("settlement gateway rejected the operation")
	ErrDailyLimitExceeded = errors.New("daily limit exceeded")
)

// LimitExceededError reports a daily-limit rejection together with the
// figures the user needs: the configured limit, what was already spent
// today and the remaining headroom, all PEN-equivalent.
type LimitExceededError struct {
	Limit     decimal.Decimal
	Spent     decimal.Decimal
	Remaining decimal.Decimal
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("daily limit exceeded: limit S/ %s, spent today S/ %s, available S/ %s",
		e.Limit.StringFixed(2), e.Spent.StringFixed(2), e.Remaining.StringFixed(2))
}

func (e *LimitExceededError) Is(target error) bool {
	return target == ErrDailyLimitExceeded
}
