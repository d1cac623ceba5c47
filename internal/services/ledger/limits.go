package ledger

import (
	"time"

	"enpay/internal/models"

	"github.com/shopspring/decimal"
)

// Daily-limit accounting. Volume is tracked per currency on the user
// row and normalized to PEN with a fixed rate when checked, so the
// headroom a user sees does not drift with the market during the day.

const volumeResetInterval = 24 * time.Hour

// resetDailyVolumeIfStale zeroes the counters when the last reset is
// older than 24 hours. The reset is lazy: it happens on the next
// transfer rather than on a schedule.
func resetDailyVolumeIfStale(user *models.User) {
	now := time.Now()
	if user.LastVolumeResetAt == nil || now.Sub(*user.LastVolumeResetAt) >= volumeResetInterval {
		user.DailyVolumePEN = decimal.Zero
		user.DailyVolumeUSD = decimal.Zero
		user.LastVolumeResetAt = &now
	}
}

// normalizeToPEN converts an amount to its PEN-equivalent for limit
// math. USD uses the fixed configuration rate; every other currency
// counts at face value.
func (s *service) normalizeToPEN(amount decimal.Decimal, currency string) decimal.Decimal {
	if currency == "USD" {
		return amount.Mul(s.config.USDToPENRate)
	}
	return amount
}

func (s *service) userDailyLimit(user *models.User) decimal.Decimal {
	if user.DailyLimit != nil {
		return *user.DailyLimit
	}
	return s.config.DefaultDailyLimit
}

// checkDailyLimit returns a LimitExceededError when the transfer would
// push the user's PEN-normalized daily volume over their limit. A
// transfer that lands exactly on the limit passes.
func (s *service) checkDailyLimit(user *models.User, amount decimal.Decimal, currency string) error {
	limit := s.userDailyLimit(user)
	spent := user.DailyVolumePEN.Add(user.DailyVolumeUSD.Mul(s.config.USDToPENRate))
	incoming := s.normalizeToPEN(amount, currency)

	if spent.Add(incoming).GreaterThan(limit) {
		remaining := limit.Sub(spent)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		return &LimitExceededError{Limit: limit, Spent: spent, Remaining: remaining}
	}
	return nil
}

// addDailyVolume records a completed transfer against the counters.
// USD has its own counter; everything else accrues on the PEN counter
// at face value.
func (s *service) addDailyVolume(user *models.User, amount decimal.Decimal, currency string) {
	if currency == "USD" {
		user.DailyVolumeUSD = user.DailyVolumeUSD.Add(amount)
		return
	}
	user.DailyVolumePEN = user.DailyVolumePEN.Add(amount)
}
