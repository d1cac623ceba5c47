package repositories

import (
	"enpay/internal/models"

	"github.com/shopspring/decimal"
)

// WalletRepository is the data access contract for the ledger store. The
// ForUpdate variants take a row lock and are only meaningful inside
// ExecuteInTransaction; the ledger engine uses them to serialize
// concurrent balance mutations on the same wallet.
//
// CreateTransaction appends to the transaction log. There are no update
// or delete methods for transactions anywhere in this layer: the log is
// append-only by construction.
type WalletRepository interface {
	Create(wallet *models.Wallet) error
	GetByUserID(userID uint) ([]*models.Wallet, error)
	GetByUserIDAndCurrency(userID uint, currency string) (*models.Wallet, error)
	GetByUserIDAndCurrencyForUpdate(userID uint, currency string) (*models.Wallet, error)
	Update(wallet *models.Wallet) error

	CreateTransaction(tx *models.Transaction) error

	// User rows carry the daily-volume counters; transfers lock and
	// update them in the same unit of work as the balance changes.
	GetUserForUpdate(userID uint) (*models.User, error)
	UpdateUser(user *models.User) error

	// Aggregates for the admin dashboard.
	TotalBalanceByCurrency(currency string) (decimal.Decimal, error)
	CountWallets() (int64, error)

	// ExecuteInTransaction runs fn inside a single database transaction.
	// The repository passed to fn routes every call through that
	// transaction; returning an error rolls everything back.
	ExecuteInTransaction(fn func(WalletRepository) error) error
}
