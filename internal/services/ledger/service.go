package ledger

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"

	"enpay/internal/models"
	"enpay/internal/repositories"
	"enpay/internal/repositories/cache"
	"enpay/internal/services/bank"
	"enpay/internal/services/exchange"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type service struct {
	repo      repositories.WalletRepository
	txRepo    repositories.TransactionRepository
	userRepo  repositories.UserRepository
	cards     CardProvider
	gateway   bank.Gateway
	oracle    exchange.RateSource
	twoFactor TwoFactorVerifier
	cache     *cache.CacheService
	config    Config
	metrics   MetricsCollector
}

// NewService wires the transaction engine. The cache may be nil; every
// other dependency is required.
func NewService(
	repo repositories.WalletRepository,
	txRepo repositories.TransactionRepository,
	userRepo repositories.UserRepository,
	cards CardProvider,
	gateway bank.Gateway,
	oracle exchange.RateSource,
	twoFactor TwoFactorVerifier,
	cacheSvc *cache.CacheService,
	config Config,
	metrics MetricsCollector,
) Service {
	if repo == nil || txRepo == nil || userRepo == nil {
		panic("ledger: repositories are required")
	}
	if cards == nil || gateway == nil || oracle == nil || twoFactor == nil {
		panic("ledger: card, gateway, oracle and 2FA dependencies are required")
	}
	if config.DefaultDailyLimit.IsZero() {
		config.DefaultDailyLimit = decimal.RequireFromString(defaultDailyLimitStr)
	}
	if config.USDToPENRate.IsZero() {
		config.USDToPENRate = decimal.RequireFromString(defaultUSDToPENStr)
	}
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}
	return &service{
		repo:      repo,
		txRepo:    txRepo,
		userRepo:  userRepo,
		cards:     cards,
		gateway:   gateway,
		oracle:    oracle,
		twoFactor: twoFactor,
		cache:     cacheSvc,
		config:    config,
		metrics:   metrics,
	}
}

func (s *service) GetOrCreateWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !supportedCurrencies[currency] {
		return nil, ErrInvalidCurrency
	}

	wallet, err := s.repo.GetByUserIDAndCurrency(userID, currency)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, repositories.ErrWalletNotFound) {
		return nil, fmt.Errorf("failed to look up wallet: %w", err)
	}

	for attempt := 0; attempt < maxWalletNumberAttempts; attempt++ {
		wallet = &models.Wallet{
			UserID:       userID,
			Currency:     currency,
			WalletNumber: generateWalletNumber(),
			Balance:      decimal.Zero,
			Status:       models.WalletStatusActive,
		}
		err = s.repo.Create(wallet)
		if err == nil {
			s.invalidateWalletCache(ctx, userID, currency)
			return wallet, nil
		}
		if !errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("failed to create wallet: %w", err)
		}
		// Either the wallet number collided or a concurrent request
		// created the same user/currency wallet first.
		if existing, getErr := s.repo.GetByUserIDAndCurrency(userID, currency); getErr == nil {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("failed to create wallet after %d attempts: %w", maxWalletNumberAttempts, err)
}

func (s *service) GetWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if !supportedCurrencies[currency] {
		return nil, ErrInvalidCurrency
	}

	cacheKey := walletCacheKey(userID, currency)
	if s.cache != nil {
		var cached models.Wallet
		if found, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && found {
			return &cached, nil
		}
	}

	wallet, err := s.repo.GetByUserIDAndCurrency(userID, currency)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, cacheKey, wallet, walletCacheTTL); err != nil {
			log.Printf("Warning: failed to cache wallet %s: %v", cacheKey, err)
		}
	}
	return wallet, nil
}

func (s *service) GetWallets(ctx context.Context, userID uint) ([]*models.Wallet, error) {
	wallets, err := s.repo.GetByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	return wallets, nil
}

func (s *service) GetTransactions(ctx context.Context, userID uint, limit int) ([]*models.Transaction, error) {
	if limit <= 0 {
		limit = defaultTransactionsLimit
	}
	wallets, err := s.repo.GetByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	if len(wallets) == 0 {
		return []*models.Transaction{}, nil
	}
	ids := make([]uint, len(wallets))
	for i, w := range wallets {
		ids[i] = w.ID
	}
	txs, err := s.txRepo.GetLatestByWallets(ids, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (s *service) GetTransactionByUID(ctx context.Context, uid string) (*models.Transaction, error) {
	tx, err := s.txRepo.GetByUID(uid)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// generateWalletNumber builds an EN-prefixed 20-character identifier.
// Uniqueness is enforced by the database; collisions retry at the caller.
func generateWalletNumber() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return walletNumberPrefix + raw[:walletNumberLength]
}

// generateSecurityCode returns a zero-padded 3-digit code shared by the
// two legs of a transfer.
func generateSecurityCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		panic(fmt.Sprintf("ledger: random source unavailable: %v", err))
	}
	return fmt.Sprintf("%03d", n.Int64())
}

func walletCacheKey(userID uint, currency string) string {
	return fmt.Sprintf("%s:%d:%s", walletCachePrefix, userID, currency)
}

func (s *service) invalidateWalletCache(ctx context.Context, userID uint, currencies ...string) {
	if s.cache == nil {
		return
	}
	keys := make([]string, len(currencies))
	for i, c := range currencies {
		keys[i] = walletCacheKey(userID, c)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Printf("Warning: failed to invalidate wallet cache for user %d: %v", userID, err)
	}
}
