package repositories

import "enpay/internal/models"

// TransactionRepository serves reads over the append-only transaction
// log. Writes go exclusively through WalletRepository.CreateTransaction
// inside a ledger unit of work.
type TransactionRepository interface {
	GetLatestByWallet(walletID uint, limit int) ([]*models.Transaction, error)
	GetLatestByWallets(walletIDs []uint, limit int) ([]*models.Transaction, error)
	GetByUID(uid string) (*models.Transaction, error)
	Count() (int64, error)
}
