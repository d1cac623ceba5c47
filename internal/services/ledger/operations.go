package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"enpay/internal/models"
	"enpay/internal/repositories"

	"github.com/shopspring/decimal"
)

// Deposit charges the user's active card through the settlement gateway
// and credits the PEN wallet. The charge happens before the local unit
// of work: if the gateway rejects, nothing is recorded; if the local
// commit fails after a successful charge, the inconsistency is logged
// and reported to metrics for manual reconciliation.
func (s *service) Deposit(ctx context.Context, userID uint, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	user, err := s.getEnabledUser(userID)
	if err != nil {
		return nil, err
	}
	card, err := s.cards.GetActiveCard(user.ID)
	if err != nil {
		s.metrics.RecordError("deposit", "no_active_card")
		return nil, ErrNoActiveCard
	}

	if _, err := s.GetOrCreateWallet(ctx, userID, BaseCurrency); err != nil {
		return nil, err
	}

	result, err := s.gateway.Charge(ctx, card.CardNumber, amount)
	if err != nil {
		s.metrics.RecordError("deposit", "gateway_error")
		return nil, fmt.Errorf("settlement charge failed: %w", err)
	}
	if !result.OK {
		s.metrics.RecordError("deposit", "gateway_rejected")
		return nil, fmt.Errorf("%w: %s", ErrGatewayRejected, result.Reason)
	}

	if description == "" {
		description = fmt.Sprintf("Deposit from card %s", card.MaskedNumber)
	}

	var tx *models.Transaction
	err = s.repo.ExecuteInTransaction(func(r repositories.WalletRepository) error {
		locked, err := r.GetByUserIDAndCurrencyForUpdate(userID, BaseCurrency)
		if err != nil {
			return fmt.Errorf("failed to lock wallet: %w", err)
		}
		locked.Balance = locked.Balance.Add(amount)
		if err := r.Update(locked); err != nil {
			return fmt.Errorf("failed to credit wallet: %w", err)
		}
		tx = &models.Transaction{
			WalletID:     locked.ID,
			Type:         models.TransactionTypeDeposit,
			Amount:       amount,
			Currency:     BaseCurrency,
			BalanceAfter: locked.Balance,
			Description:  description,
			Status:       models.TransactionStatusCompleted,
		}
		return r.CreateTransaction(tx)
	})
	if err != nil {
		// The card was already charged. This window requires manual
		// reconciliation against the settlement reference.
		log.Printf("ERROR: deposit commit failed after settlement %s for user %d: %v",
			result.SettlementRef, userID, err)
		s.metrics.RecordInconsistency("deposit", result.SettlementRef)
		return nil, fmt.Errorf("deposit failed after settlement %s: %w", result.SettlementRef, err)
	}

	s.invalidateWalletCache(ctx, userID, BaseCurrency)
	s.metrics.RecordTransaction(models.TransactionTypeDeposit, amount)
	return tx, nil
}

// Withdraw debits the PEN wallet and credits the user's active card.
// The gateway credit runs inside the same unit of work as the debit so
// a rejection rolls the debit back. The row lock is held across the
// gateway call; the gateway is an in-process simulation, so this does
// not stall other wallets.
func (s *service) Withdraw(ctx context.Context, userID uint, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	user, err := s.getEnabledUser(userID)
	if err != nil {
		return nil, err
	}
	card, err := s.cards.GetActiveCard(user.ID)
	if err != nil {
		s.metrics.RecordError("withdraw", "no_active_card")
		return nil, ErrNoActiveCard
	}

	if description == "" {
		description = fmt.Sprintf("Withdrawal to card %s", card.MaskedNumber)
	}

	var tx *models.Transaction
	err = s.repo.ExecuteInTransaction(func(r repositories.WalletRepository) error {
		locked, err := r.GetByUserIDAndCurrencyForUpdate(userID, BaseCurrency)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return ErrWalletNotFound
			}
			return fmt.Errorf("failed to lock wallet: %w", err)
		}
		if locked.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		result, err := s.gateway.Credit(ctx, card.CardNumber, amount)
		if err != nil {
			return fmt.Errorf("settlement credit failed: %w", err)
		}
		if !result.OK {
			return fmt.Errorf("%w: %s", ErrGatewayRejected, result.Reason)
		}

		locked.Balance = locked.Balance.Sub(amount)
		if err := r.Update(locked); err != nil {
			return fmt.Errorf("failed to debit wallet: %w", err)
		}
		tx = &models.Transaction{
			WalletID:     locked.ID,
			Type:         models.TransactionTypeWithdrawal,
			Amount:       amount.Neg(),
			Currency:     BaseCurrency,
			BalanceAfter: locked.Balance,
			Description:  description,
			Status:       models.TransactionStatusCompleted,
		}
		return r.CreateTransaction(tx)
	})
	if err != nil {
		s.recordOperationError("withdraw", err)
		return nil, err
	}

	s.invalidateWalletCache(ctx, userID, BaseCurrency)
	s.metrics.RecordTransaction(models.TransactionTypeWithdrawal, amount)
	return tx, nil
}

// Transfer moves money between two users in the same currency. It
// writes two opposite legs sharing a security code, counts the sender's
// daily volume, and enforces the PEN-normalized daily limit. Wallet
// rows are locked in ascending ID order to keep concurrent transfers
// deadlock-free.
func (s *service) Transfer(ctx context.Context, cmd TransferCommand) (*models.Transaction, error) {
	if err := validateAmount(cmd.Amount); err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(cmd.Currency))
	if !supportedCurrencies[currency] {
		return nil, ErrInvalidCurrency
	}
	if cmd.FromUserID == cmd.ToUserID {
		return nil, ErrSelfTransfer
	}

	// Only the sender must be enabled; a disabled recipient can still
	// receive funds into an existing wallet.
	sender, err := s.getEnabledUser(cmd.FromUserID)
	if err != nil {
		return nil, err
	}

	// The 2FA gate runs before any money movement.
	if s.twoFactor.IsEnabled(sender.ID) {
		if cmd.TwoFactorCode == "" {
			return nil, ErrTwoFactorRequired
		}
		if !s.twoFactor.VerifyCode(sender.ID, cmd.TwoFactorCode) {
			s.metrics.RecordError("transfer", "2fa_invalid")
			return nil, ErrTwoFactorInvalid
		}
	}

	// Resolve both wallets up front to learn the lock order. Both
	// parties must already hold a wallet in the transfer currency.
	fromWallet, err := s.repo.GetByUserIDAndCurrency(cmd.FromUserID, currency)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get sender wallet: %w", err)
	}
	toWallet, err := s.repo.GetByUserIDAndCurrency(cmd.ToUserID, currency)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get recipient wallet: %w", err)
	}

	description := cmd.Description
	if description == "" {
		description = "Transfer"
	}
	code := generateSecurityCode()

	var outLeg *models.Transaction
	err = s.repo.ExecuteInTransaction(func(r repositories.WalletRepository) error {
		lockedSender, err := r.GetUserForUpdate(cmd.FromUserID)
		if err != nil {
			return fmt.Errorf("failed to lock sender: %w", err)
		}
		resetDailyVolumeIfStale(lockedSender)
		if limitErr := s.checkDailyLimit(lockedSender, cmd.Amount, currency); limitErr != nil {
			return limitErr
		}

		from, to, err := lockWalletPair(r, fromWallet, toWallet, currency)
		if err != nil {
			return err
		}
		if from.Balance.LessThan(cmd.Amount) {
			return ErrInsufficientFunds
		}

		from.Balance = from.Balance.Sub(cmd.Amount)
		to.Balance = to.Balance.Add(cmd.Amount)
		if err := r.Update(from); err != nil {
			return fmt.Errorf("failed to debit sender: %w", err)
		}
		if err := r.Update(to); err != nil {
			return fmt.Errorf("failed to credit recipient: %w", err)
		}

		s.addDailyVolume(lockedSender, cmd.Amount, currency)
		if err := r.UpdateUser(lockedSender); err != nil {
			return fmt.Errorf("failed to update daily volume: %w", err)
		}

		toUserID := cmd.ToUserID
		fromUserID := cmd.FromUserID
		outLeg = &models.Transaction{
			WalletID:      from.ID,
			Type:          models.TransactionTypeTransferOut,
			Amount:        cmd.Amount.Neg(),
			Currency:      currency,
			BalanceAfter:  from.Balance,
			Description:   description,
			RelatedUserID: &toUserID,
			SecurityCode:  code,
			Status:        models.TransactionStatusCompleted,
		}
		if err := r.CreateTransaction(outLeg); err != nil {
			return err
		}
		inLeg := &models.Transaction{
			WalletID:      to.ID,
			Type:          models.TransactionTypeTransferIn,
			Amount:        cmd.Amount,
			Currency:      currency,
			BalanceAfter:  to.Balance,
			Description:   description,
			RelatedUserID: &fromUserID,
			SecurityCode:  code,
			Status:        models.TransactionStatusCompleted,
		}
		return r.CreateTransaction(inLeg)
	})
	if err != nil {
		s.recordOperationError("transfer", err)
		return nil, err
	}

	s.invalidateWalletCache(ctx, cmd.FromUserID, currency)
	s.invalidateWalletCache(ctx, cmd.ToUserID, currency)
	s.metrics.RecordTransaction(models.TransactionTypeTransferOut, cmd.Amount)
	return outLeg, nil
}

// Convert exchanges between two of the user's own wallets at the oracle
// rate. The credited amount is the debited amount times the rate,
// rounded to two decimals.
func (s *service) Convert(ctx context.Context, userID uint, fromCurrency, toCurrency string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	fromCurrency = strings.ToUpper(strings.TrimSpace(fromCurrency))
	toCurrency = strings.ToUpper(strings.TrimSpace(toCurrency))
	if !supportedCurrencies[fromCurrency] || !supportedCurrencies[toCurrency] {
		return nil, ErrInvalidCurrency
	}
	if fromCurrency == toCurrency {
		return nil, ErrSameCurrency
	}
	if _, err := s.getEnabledUser(userID); err != nil {
		return nil, err
	}

	rate, err := s.oracle.GetRate(ctx, fromCurrency, toCurrency)
	if err != nil {
		s.metrics.RecordError("convert", "rate_unavailable")
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}
	converted := amount.Mul(rate).Round(2)

	fromWallet, err := s.repo.GetByUserIDAndCurrency(userID, fromCurrency)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get source wallet: %w", err)
	}
	toWallet, err := s.GetOrCreateWallet(ctx, userID, toCurrency)
	if err != nil {
		return nil, err
	}

	if description == "" {
		description = fmt.Sprintf("Converted %s %s to %s %s at %s",
			amount.StringFixed(2), fromCurrency, converted.StringFixed(2), toCurrency, rate.String())
	}

	var outLeg *models.Transaction
	err = s.repo.ExecuteInTransaction(func(r repositories.WalletRepository) error {
		var from, to *models.Wallet
		var err error
		if fromWallet.ID < toWallet.ID {
			from, err = r.GetByUserIDAndCurrencyForUpdate(userID, fromCurrency)
			if err == nil {
				to, err = r.GetByUserIDAndCurrencyForUpdate(userID, toCurrency)
			}
		} else {
			to, err = r.GetByUserIDAndCurrencyForUpdate(userID, toCurrency)
			if err == nil {
				from, err = r.GetByUserIDAndCurrencyForUpdate(userID, fromCurrency)
			}
		}
		if err != nil {
			return fmt.Errorf("failed to lock wallets: %w", err)
		}
		if from.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		from.Balance = from.Balance.Sub(amount)
		to.Balance = to.Balance.Add(converted)
		if err := r.Update(from); err != nil {
			return fmt.Errorf("failed to debit source wallet: %w", err)
		}
		if err := r.Update(to); err != nil {
			return fmt.Errorf("failed to credit destination wallet: %w", err)
		}

		outLeg = &models.Transaction{
			WalletID:     from.ID,
			Type:         models.TransactionTypeConvertOut,
			Amount:       amount.Neg(),
			Currency:     fromCurrency,
			BalanceAfter: from.Balance,
			Description:  description,
			Status:       models.TransactionStatusCompleted,
		}
		if err := r.CreateTransaction(outLeg); err != nil {
			return err
		}
		inLeg := &models.Transaction{
			WalletID:     to.ID,
			Type:         models.TransactionTypeConvertIn,
			Amount:       converted,
			Currency:     toCurrency,
			BalanceAfter: to.Balance,
			Description:  description,
			Status:       models.TransactionStatusCompleted,
		}
		return r.CreateTransaction(inLeg)
	})
	if err != nil {
		s.recordOperationError("convert", err)
		return nil, err
	}

	s.invalidateWalletCache(ctx, userID, fromCurrency, toCurrency)
	s.metrics.RecordTransaction(models.TransactionTypeConvertOut, amount)
	return outLeg, nil
}

func (s *service) getEnabledUser(userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.Enabled {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

func (s *service) recordOperationError(op string, err error) {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		s.metrics.RecordError(op, "insufficient_funds")
	case errors.Is(err, ErrDailyLimitExceeded):
		s.metrics.RecordError(op, "daily_limit")
	case errors.Is(err, ErrGatewayRejected):
		s.metrics.RecordError(op, "gateway_rejected")
	default:
		s.metrics.RecordError(op, "internal")
	}
}

// lockWalletPair re-reads two wallets under row locks, lowest ID first.
func lockWalletPair(r repositories.WalletRepository, a, b *models.Wallet, currency string) (*models.Wallet, *models.Wallet, error) {
	first, second := a, b
	if b.ID < a.ID {
		first, second = b, a
	}
	lockedFirst, err := r.GetByUserIDAndCurrencyForUpdate(first.UserID, currency)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock wallet %d: %w", first.ID, err)
	}
	lockedSecond, err := r.GetByUserIDAndCurrencyForUpdate(second.UserID, currency)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock wallet %d: %w", second.ID, err)
	}
	if first == a {
		return lockedFirst, lockedSecond, nil
	}
	return lockedSecond, lockedFirst, nil
}

// validateAmount rejects non-positive amounts and sub-cent precision.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(2)) {
		return ErrInvalidAmount
	}
	return nil
}
